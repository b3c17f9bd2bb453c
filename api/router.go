// Package api contains all endpoints available
package api

import (
	"os"
	"time"

	"bitwise74/bucket-panel/config"
	"bitwise74/bucket-panel/internal"
	"bitwise74/bucket-panel/pkg/middleware"
	"bitwise74/bucket-panel/pkg/permission"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type API struct {
	*internal.Deps

	Router  *gin.Engine
	Config  *config.Config
	Cookies middleware.CookieConfig

	store *persist.MemoryStore
	now   func() time.Time
}

func NewRouter(c *config.Config, d *internal.Deps) *API {
	makeLogger(c)

	a := &API{
		Deps:   d,
		Config: c,
		Cookies: middleware.CookieConfig{
			Secure: c.Production(),
		},
		store: persist.NewMemoryStore(time.Minute),
		now:   time.Now,
	}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     c.Host.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 8 << 20

	session := middleware.NewSessionMiddleware(d.Signer, d.Users, a.Cookies)
	onboarded := middleware.RequireOnboarding(d.Onboarding)
	admin := middleware.RequireAdmin()
	jsonBody := middleware.BodySizeLimiter(1 << 20)
	turnstile := middleware.NewTurnstileMiddleware(middleware.TurnstileConfig{
		Enabled: c.Cloudflare.Turnstile.Enabled,
		Secret:  c.Cloudflare.Turnstile.SecretToken,
	})
	limiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: c.RateLimit.RequestsPerSecond,
		Burst:             c.RateLimit.Burst,
	})

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)
	}

	onboarding := main.Group("/onboarding", jsonBody)
	{
		// GET /api/onboarding		-> Tells whether the first time setup was done
		onboarding.GET("", a.OnboardingStatus)

		// POST /api/onboarding		-> Creates the admin and stores the bucket settings
		onboarding.POST("", limiter, turnstile, a.OnboardingComplete)
	}

	auth := main.Group("/auth", onboarded, jsonBody)
	{
		// POST /api/auth/login		-> Checks credentials and sets the session cookie
		auth.POST("/login", limiter, turnstile, a.AuthLogin)

		// POST /api/auth/logout	-> Clears the session cookie
		auth.POST("/logout", a.AuthLogout)

		// GET /api/auth/session	-> Returns the current user and what they can do
		auth.GET("/session", session, a.AuthSession)
	}

	users := main.Group("/users", onboarded, jsonBody, session)
	{
		// POST /api/users/terms	-> Accepts the terms of use
		users.POST("/terms", a.UsersAcceptTerms)

		// GET /api/users		-> Lists every user
		users.GET("", admin, a.UsersList)

		// POST /api/users		-> Invites a new user with a temporary password
		users.POST("", admin, a.UsersCreate)

		// PATCH /api/users/:id		-> Updates a user, optionally resetting the password
		users.PATCH("/:id", admin, a.UsersUpdate)
	}

	files := main.Group("/files", onboarded, session)
	{
		// GET /api/files		-> Lists the bucket, optionally as a folder view
		files.GET("", a.FilesList)

		// POST /api/files/presign	-> Signs a direct upload URL
		files.POST("/presign", jsonBody, middleware.RequirePermissions(permission.ModeAll, permission.Upload), a.FilesPresign)

		// POST /api/files		-> Uploads a file through the server
		files.POST("", middleware.RequirePermissions(permission.ModeAll, permission.Upload), middleware.BodySizeLimiter(int64(c.Upload.ProxyMaxSize)), a.FilesUpload)

		// DELETE /api/files?key=	-> Deletes an object
		files.DELETE("", middleware.RequirePermissions(permission.ModeAll, permission.Delete), a.FilesDelete)

		// POST /api/files/folders	-> Creates an empty folder
		files.POST("/folders", jsonBody, middleware.RequireEditor(), a.FilesCreateFolder)
	}

	settings := main.Group("/settings", onboarded, jsonBody, session, admin)
	{
		// GET /api/settings		-> Returns the bucket settings without the secret
		settings.GET("", a.SettingsGet)

		// PUT /api/settings		-> Replaces the bucket settings
		settings.PUT("", a.SettingsUpdate)

		// POST /api/settings/check	-> Checks that the bucket is reachable
		settings.POST("/check", a.SettingsCheck)
	}

	activity := main.Group("/activity", onboarded, session, admin)
	{
		// GET /api/activity		-> Searches the activity log
		activity.GET("", a.cacheFor(c.Activity.CacheTTL), a.ActivityList)
	}

	return a
}

func makeLogger(c *config.Config) {
	level, err := zapcore.ParseLevel(c.App.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var console zapcore.Encoder
	if c.Production() {
		console = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString(gray + t.Format("15:04:05.000") + reset)
		}
		cfg.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString(gray + ec.TrimmedPath() + reset)
		}

		console = zapcore.NewConsoleEncoder(cfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(console, zapcore.Lock(os.Stdout), level),
	}

	if c.App.LogFile != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   c.App.LogFile,
				MaxSize:    50,
				MaxBackups: 5,
				MaxAge:     28,
				Compress:   true,
			}),
			level,
		))
	}

	zap.ReplaceGlobals(zap.New(zapcore.NewTee(cores...), zap.AddCaller()))
}

// cacheFor caches successful responses by request URI. A zero ttl disables
// the cache.
func (a *API) cacheFor(ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return cache.CacheByRequestURI(a.store, ttl)
}

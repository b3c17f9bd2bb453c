package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitwise74/bucket-panel/api"
	"bitwise74/bucket-panel/config"
	"bitwise74/bucket-panel/db"
	"bitwise74/bucket-panel/internal"
	"bitwise74/bucket-panel/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	c, err := config.Setup()
	if err != nil {
		panic(err)
	}

	conn, err := db.New(c.DB.Driver, c.DB.DSN)
	if err != nil {
		panic(err)
	}

	deps := internal.NewDeps(c, conn, storage.S3Factory)
	a := api.NewRouter(c, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.Host.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("Server starting", zap.Int("port", c.Host.Port), zap.Bool("ssl", c.Host.SSL.Enabled))

		if c.Host.SSL.Enabled {
			err = srv.ListenAndServeTLS(c.Host.SSL.CertificatePath, c.Host.SSL.CertificateKeyPath)
		} else {
			err = srv.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	zap.L().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Failed to shut down cleanly", zap.Error(err))
	}

	deps.Close()
	_ = zap.L().Sync()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"bitwise74/bucket-panel/internal/model"
	"bitwise74/bucket-panel/validators"

	"github.com/jellydator/ttlcache/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const completedKey = "completed"

type OnboardingRequest struct {
	AppHost       string `json:"appHost"`
	AdminName     string `json:"adminName"`
	AdminEmail    string `json:"adminEmail"`
	AdminPassword string `json:"adminPassword"`
	BucketName    string `json:"bucketName"`
	Region        string `json:"region"`
	CDNHost       string `json:"cdnHost"`
	Endpoint      string `json:"endpoint"`
	AccessKey     string `json:"accessKey"`
	SecretKey     string `json:"secretKey"`
}

type OnboardingResult struct {
	Admin    *model.User
	Settings *model.Settings
}

// Onboarding runs the first time setup and answers whether it already
// happened. Positive answers are cached until Invalidate is called,
// negative ones for the cache TTL.
type Onboarding struct {
	db       *gorm.DB
	users    *Users
	settings *Settings
	cache    *ttlcache.Cache
	now      func() time.Time
}

func NewOnboarding(db *gorm.DB, users *Users, settings *Settings, ttl time.Duration) *Onboarding {
	cache := ttlcache.NewCache()
	cache.SetTTL(ttl)
	cache.SkipTTLExtensionOnHit(true)

	return &Onboarding{
		db:       db,
		users:    users,
		settings: settings,
		cache:    cache,
		now:      time.Now,
	}
}

func (o *Onboarding) Completed(ctx context.Context) (bool, error) {
	if v, err := o.cache.Get(completedKey); err == nil {
		return v.(bool), nil
	}

	var state model.OnboardingState
	err := o.db.WithContext(ctx).Where("id = ?", model.OnboardingID).First(&state).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to read onboarding state, %w", err)
	}

	completed := err == nil && state.CompletedAt != nil
	if completed {
		o.cache.SetWithTTL(completedKey, true, ttlcache.ItemNotExpire)
	} else {
		o.cache.Set(completedKey, false)
	}

	return completed, nil
}

// Invalidate drops the cached answer
func (o *Onboarding) Invalidate() {
	if err := o.cache.Remove(completedKey); err != nil && !errors.Is(err, ttlcache.ErrNotFound) {
		zap.L().Warn("Failed to invalidate onboarding cache", zap.Error(err))
	}
}

func (o *Onboarding) Close() {
	o.cache.Close()
}

// Complete stores the admin account and the bucket settings and marks the
// setup as done, all or nothing. It only runs once, later calls fail with
// ErrSetupCompleted.
func (o *Onboarding) Complete(ctx context.Context, req OnboardingRequest) (*OnboardingResult, error) {
	done, err := o.Completed(ctx)
	if err != nil {
		return nil, err
	}

	if done {
		return nil, ErrSetupCompleted
	}

	required := map[string]string{
		"appHost":       req.AppHost,
		"adminName":     req.AdminName,
		"adminEmail":    req.AdminEmail,
		"adminPassword": req.AdminPassword,
		"bucketName":    req.BucketName,
		"region":        req.Region,
		"accessKey":     req.AccessKey,
		"secretKey":     req.SecretKey,
	}

	var missing []string
	for k, v := range required {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, invalid("missing fields: " + strings.Join(missing, ", "))
	}

	email := validators.NormalizeEmail(req.AdminEmail)
	if err := validators.EmailValidator(email); err != nil {
		return nil, invalid(err.Error())
	}

	if err := validators.PasswordValidator(req.AdminPassword); err != nil {
		return nil, invalid(err.Error())
	}

	res := &OnboardingResult{}
	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var state model.OnboardingState
		err := tx.Where("id = ?", model.OnboardingID).First(&state).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to read onboarding state, %w", err)
		}

		if err == nil && state.CompletedAt != nil {
			return ErrSetupCompleted
		}

		admin, err := o.users.upsertAdmin(tx, strings.TrimSpace(req.AdminName), email, req.AdminPassword)
		if err != nil {
			return fmt.Errorf("failed to save admin, %w", err)
		}

		appHost := req.AppHost
		settings, err := o.settings.upsert(tx, SettingsInput{
			AppHost:    &appHost,
			BucketName: req.BucketName,
			Region:     req.Region,
			CDNHost:    req.CDNHost,
			Endpoint:   req.Endpoint,
			AccessKey:  req.AccessKey,
			SecretKey:  req.SecretKey,
		})
		if err != nil {
			return err
		}

		now := o.now()
		err = tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model.OnboardingState{
			ID:          model.OnboardingID,
			CompletedAt: &now,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to mark onboarding as done, %w", err)
		}

		res.Admin = admin
		res.Settings = settings
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.Invalidate()

	return res, nil
}

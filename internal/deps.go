// Package internal wires the services shared by the HTTP layer
package internal

import (
	"bitwise74/bucket-panel/config"
	"bitwise74/bucket-panel/internal/service"
	"bitwise74/bucket-panel/internal/storage"
	"bitwise74/bucket-panel/pkg/security"

	"gorm.io/gorm"
)

type Deps struct {
	DB         *gorm.DB
	Hasher     *security.PasswordHasher
	Signer     *security.SessionSigner
	Users      *service.Users
	Settings   *service.Settings
	Onboarding *service.Onboarding
	Activity   *service.ActivityLog
	Buckets    *storage.Provider
}

// NewDeps builds every service on top of db. Bucket clients are created by
// factory whenever the stored credentials change.
func NewDeps(c *config.Config, db *gorm.DB, factory storage.Factory) *Deps {
	hasher := security.NewPasswordHasher()
	users := service.NewUsers(db, hasher)
	settings := service.NewSettings(db)

	return &Deps{
		DB:         db,
		Hasher:     hasher,
		Signer:     security.NewSessionSigner(c.JWT.Secret, c.Auth.TokenTTL),
		Users:      users,
		Settings:   settings,
		Onboarding: service.NewOnboarding(db, users, settings, c.Onboarding.CacheTTL),
		Activity:   service.NewActivityLog(db, c.Activity.QueueSize),
		Buckets:    storage.NewProvider(factory),
	}
}

// Close drains the activity queue and stops the background workers
func (d *Deps) Close() {
	d.Activity.Close()
	d.Onboarding.Close()
}

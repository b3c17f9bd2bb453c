package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitwise74/bucket-panel/internal/model"
	"bitwise74/bucket-panel/internal/storage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Settings struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSettings(db *gorm.DB) *Settings {
	return &Settings{db: db, now: time.Now}
}

type SettingsInput struct {
	AppHost    *string `json:"appHost"`
	BucketName string  `json:"bucketName"`
	Region     string  `json:"region"`
	CDNHost    string  `json:"cdnHost"`
	Endpoint   string  `json:"endpoint"`
	AccessKey  string  `json:"accessKey"`
	SecretKey  string  `json:"secretKey"`
}

// SanitizedSettings is what clients get to see, the secret never leaves the
// server
type SanitizedSettings struct {
	AppHost      string    `json:"appHost"`
	BucketName   string    `json:"bucketName"`
	Region       string    `json:"region"`
	CDNHost      string    `json:"cdnHost"`
	Endpoint     string    `json:"endpoint"`
	AccessKey    string    `json:"accessKey"`
	HasSecretKey bool      `json:"hasSecretKey"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func Sanitize(s *model.Settings) SanitizedSettings {
	if s == nil {
		return SanitizedSettings{}
	}

	return SanitizedSettings{
		AppHost:      s.AppHost,
		BucketName:   s.BucketName,
		Region:       s.Region,
		CDNHost:      s.CDNHost,
		Endpoint:     s.Endpoint,
		AccessKey:    s.AccessKey,
		HasSecretKey: s.SecretKey != "",
		UpdatedAt:    s.UpdatedAt,
	}
}

// BucketCredentials converts the stored record to what the storage layer
// needs
func BucketCredentials(s *model.Settings) storage.Credentials {
	return storage.Credentials{
		Location: storage.Location{
			Bucket:   s.BucketName,
			Region:   s.Region,
			Endpoint: s.Endpoint,
			CDNHost:  s.CDNHost,
		},
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
	}
}

// Load returns the stored record or an empty one
func (s *Settings) Load(ctx context.Context) (*model.Settings, error) {
	return s.load(s.db.WithContext(ctx))
}

func (s *Settings) load(tx *gorm.DB) (*model.Settings, error) {
	var rec model.Settings

	err := tx.Where("id = ?", model.SettingsID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.Settings{ID: model.SettingsID}, nil
		}

		return nil, fmt.Errorf("failed to load settings, %w", err)
	}

	return &rec, nil
}

// Get returns the record only when the bucket can be reached with it
func (s *Settings) Get(ctx context.Context) (*model.Settings, error) {
	rec, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	if !rec.Complete() {
		return nil, ErrSetupRequired
	}

	return rec, nil
}

// Upsert replaces the whole record. A blank secret keeps the stored one.
func (s *Settings) Upsert(ctx context.Context, in SettingsInput) (*model.Settings, error) {
	var rec *model.Settings

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = s.upsert(tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *Settings) upsert(tx *gorm.DB, in SettingsInput) (*model.Settings, error) {
	bucket := strings.TrimSpace(in.BucketName)
	region := strings.TrimSpace(in.Region)
	accessKey := strings.TrimSpace(in.AccessKey)

	if bucket == "" || region == "" || accessKey == "" {
		return nil, invalid("bucket name, region and access key are required")
	}

	rec, err := s.load(tx)
	if err != nil {
		return nil, err
	}

	rec.BucketName = bucket
	rec.Region = region
	rec.CDNHost = strings.TrimSpace(in.CDNHost)
	rec.Endpoint = strings.TrimRight(strings.TrimSpace(in.Endpoint), "/")
	rec.AccessKey = accessKey
	rec.UpdatedAt = s.now()

	if in.AppHost != nil {
		rec.AppHost = strings.TrimSpace(*in.AppHost)
	}

	if secret := strings.TrimSpace(in.SecretKey); secret != "" {
		rec.SecretKey = secret
	}

	err = tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save settings, %w", err)
	}

	return rec, nil
}

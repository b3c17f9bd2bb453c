package model

import "time"

const SettingsID = "app-settings"

// Settings is the single credential record used to reach the bucket
type Settings struct {
	ID         string `gorm:"primaryKey"`
	AppHost    string
	BucketName string
	Region     string
	CDNHost    string
	Endpoint   string // Optional S3 compatible endpoint (R2, MinIO)
	AccessKey  string
	SecretKey  string
	UpdatedAt  time.Time
}

// Complete reports whether enough is stored to talk to the bucket
func (s *Settings) Complete() bool {
	return s.BucketName != "" && s.Region != "" && s.AccessKey != "" && s.SecretKey != ""
}

const OnboardingID = "onboarding-state"

type OnboardingState struct {
	ID          string `gorm:"primaryKey"`
	CompletedAt *time.Time
}

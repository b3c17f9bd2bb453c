package model

import "time"

type Action string

const (
	ActionUploadPrepared Action = "file_upload_prepared"
	ActionUploaded       Action = "file_uploaded"
	ActionDeleted        Action = "file_deleted"
	ActionFolderCreated  Action = "folder_created"
)

// Activity rows are append only
type Activity struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index" json:"userId"`
	UserName  string    `json:"userName"`
	UserEmail string    `json:"userEmail"`
	Action    Action    `gorm:"index" json:"action"`
	TargetKey *string   `json:"targetKey"`
	Details   *string   `json:"details"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionCreate         AuditAction = "CREATE"
	AuditActionUpdate         AuditAction = "UPDATE"
	AuditActionDelete         AuditAction = "DELETE"
	AuditActionMessageFlagged AuditAction = "MESSAGE_FLAGGED"
)

type AuditEntityType string

const (
	AuditEntityMessage         AuditEntityType = "MESSAGE"
	AuditEntityLeetCodeProfile AuditEntityType = "LEETCODE_PROFILE"
	AuditEntityUser            AuditEntityType = "USER"
)

// AuditLog rows are append-only; writes are best-effort and never fail the
// operation that produced them.
type AuditLog struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	UserID     *string         `json:"user_id" gorm:"size:255;index"`
	Action     AuditAction     `json:"action" gorm:"not null;size:50;index"`
	EntityType AuditEntityType `json:"entity_type" gorm:"not null;size:50"`
	EntityID   *string         `json:"entity_id" gorm:"size:255"`
	Details    datatypes.JSON  `json:"details,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

type Notification struct {
	ID      string `json:"id" gorm:"primaryKey;size:255"`
	UserID  string `json:"user_id" gorm:"not null;size:255;index"`
	Title   string `json:"title" gorm:"not null;size:200"`
	Message string `json:"message" gorm:"size:1000"`
	Type    string `json:"type" gorm:"size:50"`
	IsRead  bool   `json:"is_read" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

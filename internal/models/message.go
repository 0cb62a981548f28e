package models

import (
	"time"

	"gorm.io/datatypes"
)

// Message is an immutable chat message. The autoincrement ID doubles as the
// paging cursor: IDs are assigned in insertion order per table, so paging by
// id strictly-less-than walks history backwards without duplicates.
type Message struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	GroupID string `json:"group_id" gorm:"not null;size:255;index:idx_messages_group_id_id,priority:1"`
	UserID  string `json:"user_id" gorm:"not null;size:255;index"`
	Content string `json:"content" gorm:"not null;size:5000"`

	// IsModerated marks messages the moderation engine flagged but did not
	// block. ModerationFlags carries the verdict payload for flagged
	// messages and is null otherwise.
	IsModerated     bool           `json:"is_moderated" gorm:"default:false"`
	ModerationFlags datatypes.JSON `json:"moderation_flags,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Message) TableName() string {
	return "messages"
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// LeetCodeProfile is the locally cached view of a student's public
// LeetCode stats. A failed sync records SyncError and bumps LastSyncedAt
// without touching the previously synced counts.
type LeetCodeProfile struct {
	UserID   string `json:"user_id" gorm:"primaryKey;size:255"`
	Username string `json:"username" gorm:"not null;size:100"`

	TotalSolved  int `json:"total_solved"`
	EasySolved   int `json:"easy_solved"`
	MediumSolved int `json:"medium_solved"`
	HardSolved   int `json:"hard_solved"`
	Ranking      int `json:"ranking"`
	Reputation   int `json:"reputation"`

	// Raw matchedUser payload from the last successful fetch
	ProfileData datatypes.JSON `json:"profile_data,omitempty"`

	LastSyncedAt time.Time `json:"last_synced_at"`
	SyncError    *string   `json:"sync_error,omitempty" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (LeetCodeProfile) TableName() string {
	return "leetcode_profiles"
}

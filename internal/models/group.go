package models

import (
	"time"

	"gorm.io/gorm"
)

// GroupAction is the kind of access being checked against a group
type GroupAction string

const (
	GroupActionRead  GroupAction = "read"
	GroupActionWrite GroupAction = "write"
)

type Group struct {
	ID          string `json:"id" gorm:"primaryKey;size:255"`
	Name        string `json:"name" gorm:"not null;size:200"`
	GroupNumber int    `json:"group_number"`

	// Cohort placement
	BatchStartYear int    `json:"batch_start_year" gorm:"index"`
	BatchEndYear   int    `json:"batch_end_year"`
	ClassSection   string `json:"class_section" gorm:"size:10"`
	AcademicYear   string `json:"academic_year" gorm:"size:20"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Group) TableName() string {
	return "groups"
}

type GroupMember struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	GroupID  string `json:"group_id" gorm:"not null;size:255;uniqueIndex:idx_group_user"`
	UserID   string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_group_user;index"`
	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime"`

	Group *Group `json:"group,omitempty" gorm:"foreignKey:GroupID"`
	User  *User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (GroupMember) TableName() string {
	return "group_members"
}

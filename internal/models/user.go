package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent    UserRole = "STUDENT"
	RoleClassRep   UserRole = "CLASS_REP"
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
)

type User struct {
	ID             string   `json:"id" gorm:"primaryKey;size:255"`
	RegisterNumber string   `json:"register_number" gorm:"uniqueIndex;not null;size:50"`
	FullName       string   `json:"full_name" gorm:"not null;size:100"`
	Email          string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role           UserRole `json:"role" gorm:"not null;size:20;default:STUDENT"`

	// Cohort placement
	BatchStartYear int    `json:"batch_start_year" gorm:"index"`
	BatchEndYear   int    `json:"batch_end_year"`
	ClassSection   string `json:"class_section" gorm:"size:10"`
	AcademicYear   string `json:"academic_year" gorm:"size:20"`

	// Profile info
	LeetCodeURL *string `json:"leetcode_url" gorm:"size:500"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// IsSuperAdmin reports whether the user holds the read-anywhere admin role
func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

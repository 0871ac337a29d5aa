package models

import (
	"gorm.io/gorm"
)

// User represents an account that can upload documents and own teams
type User struct {
	gorm.Model

	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`

	// Relations
	Profile     *Profile         `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	Documents   []Document       `gorm:"foreignKey:OwnerID" json:"documents,omitempty"`
	OwnedTeams  []Team           `gorm:"foreignKey:OwnerID" json:"owned_teams,omitempty"`
	Memberships []TeamMembership `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}

// Profile holds display information for a user. It is created together
// with its User inside the registration transaction, so every user has
// exactly one profile.
type Profile struct {
	gorm.Model

	UserID   uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName *string `json:"full_name,omitempty"`
	Company  *string `json:"company,omitempty"`

	User User `json:"-"`
}

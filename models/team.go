package models

import "gorm.io/gorm"

// Membership roles
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Team represents a group of users that share team documents
type Team struct {
	gorm.Model

	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	OwnerID     uint   `gorm:"not null;index" json:"owner_id"`
	Website     string `json:"website,omitempty"`
	PhoneNumber string `gorm:"size:20" json:"phone_number,omitempty"`

	// Relations
	Owner     User             `gorm:"foreignKey:OwnerID" json:"-"`
	Members   []TeamMembership `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	Documents []Document       `gorm:"foreignKey:TeamID" json:"documents,omitempty"`
}

// TeamMembership links a user to a team with a role. The composite
// unique index keeps a (team, user) pair down to a single row.
type TeamMembership struct {
	gorm.Model

	TeamID uint   `gorm:"not null;uniqueIndex:idx_team_user" json:"team_id"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_team_user" json:"user_id"`
	Role   string `gorm:"default:'member'" json:"role"` // admin, member

	// Relations
	Team Team `json:"-"`
	User User `json:"user,omitempty"`
}

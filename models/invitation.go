package models

import (
	"time"

	"gorm.io/gorm"
)

// InvitationTTL is how long an invitation stays redeemable after it was
// last touched.
const InvitationTTL = 7 * 24 * time.Hour

// Invitation is a single-use token that lets the invited email's
// account join a team. It becomes permanently accepted on first
// redemption and expires InvitationTTL after its last update whether or
// not it was ever used.
type Invitation struct {
	gorm.Model

	TeamID         uint   `gorm:"not null;index" json:"team_id"`
	RecipientEmail string `gorm:"not null" json:"recipient_email"`
	Token          string `gorm:"size:255;uniqueIndex;not null" json:"-"`
	Accepted       bool   `gorm:"default:false" json:"accepted"`

	Team Team `json:"-"`
}

// Expired reports whether the invitation fell out of its redemption
// window as of now.
func (i *Invitation) Expired(now time.Time) bool {
	return i.UpdatedAt.Before(now.Add(-InvitationTTL))
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Recipient is an external signer, resolved by exact email match.
// Recipients are shared rows: many sign requests across many documents
// may point at the same recipient, and no document owns it.
type Recipient struct {
	gorm.Model

	Email string `gorm:"uniqueIndex;not null" json:"email"`
}

// Document is an uploaded file together with the message shown to its
// signers. The owner scope is either a single user (OwnerID set) or a
// team (TeamID set), never both.
type Document struct {
	gorm.Model

	Name     string `gorm:"size:500;not null" json:"name"`
	FilePath string `gorm:"size:1000;not null" json:"file_path"`
	Message  string `json:"message"`

	OwnerID *uint `gorm:"index" json:"owner_id,omitempty"`
	TeamID  *uint `gorm:"index" json:"team_id,omitempty"`

	// Relations
	Owner        *User         `gorm:"foreignKey:OwnerID" json:"-"`
	Team         *Team         `gorm:"foreignKey:TeamID" json:"-"`
	SignRequests []SignRequest `gorm:"foreignKey:DocumentID" json:"sign_requests,omitempty"`
}

// SignRequest joins a document to one recipient and tracks the signing
// lifecycle of that pair. IsSigned only ever moves false -> true, and
// AuditLogPath is populated in the same write that flips it, so a
// non-empty audit log path always means the request is signed.
type SignRequest struct {
	gorm.Model

	DocumentID  uint `gorm:"not null;index" json:"document_id"`
	RecipientID uint `gorm:"not null;index" json:"recipient_id"`

	IsSigned          bool      `gorm:"not null;default:false" json:"is_signed"`
	SignatureImageURL *string   `json:"signature_image_url,omitempty"`
	AuditLogPath      *string   `json:"audit_log_path,omitempty"`
	RequestedAt       time.Time `gorm:"autoCreateTime" json:"requested_at"`

	// Relations
	Document  Document  `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	Recipient Recipient `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
}

package models

import (
	"time"
)

// RefreshToken represents a JWT refresh token in the database. Patients and
// doctors live in separate tables, so the owner is identified by id and role.
type RefreshToken struct {
	BaseModel
	AccountID   string    `gorm:"size:36;index;not null" json:"accountId"`
	AccountRole Role      `gorm:"size:20;not null" json:"accountRole"`
	Token       string    `gorm:"type:text;not null" json:"-"`
	ExpiresAt   time.Time `json:"expiresAt"`
	IsRevoked   bool      `gorm:"default:false" json:"isRevoked"`
}

// Usable reports whether the token can still be exchanged at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.IsRevoked && now.Before(t.ExpiresAt)
}

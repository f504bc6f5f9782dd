package models

import "time"

// AccessToken stores a hashed representation of an issued bearer token. Removing
// the row revokes the token even though its signature is still valid.
type AccessToken struct {
	ID         string `gorm:"primaryKey;size:36"` // uuid, also the JWT jti
	CreatedAt  time.Time
	UserID     uint       `gorm:"index;not null"`
	Name       string     `gorm:"size:64;not null"`
	TokenHash  string     `gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt  time.Time  `gorm:"index;not null"`
	LastUsedAt *time.Time
}

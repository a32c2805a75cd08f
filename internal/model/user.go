package model

import (
	"time"
)

// User roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User levels.
const (
	LevelNormal          = 1
	LevelPeriodMember    = 2
	LevelPermanentMember = 3
)

// User represents a registered account. The username is the immutable
// identity key; the password hash never leaves the server.
type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	Username     string   `json:"username" gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string   `json:"-" gorm:"size:255;not null"`
	Phone        string   `json:"phone,omitempty" gorm:"size:32"`
	Email        string   `json:"email,omitempty" gorm:"size:255;index"`
	Name         string   `json:"name,omitempty" gorm:"size:255"`
	Avatar       string   `json:"avatar,omitempty" gorm:"size:512"`
	Wechat       string   `json:"wechat,omitempty" gorm:"size:64"`
	Role         string   `json:"role" gorm:"size:16;default:'member'"`
	Level        int      `json:"level" gorm:"default:1"`
	Coins        int64    `json:"coins" gorm:"default:0"`
	Banners      []string `json:"banners,omitempty" gorm:"serializer:json"`

	// Code is an opaque per-account code rotated at registration. It is
	// not a verification code.
	Code string `json:"code,omitempty" gorm:"size:16"`

	// ExpiresAt is the instant after which the account may no longer
	// authenticate, regardless of credential validity.
	ExpiresAt time.Time `json:"expires_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether the account validity period has lapsed at now.
func (u *User) Expired(now time.Time) bool {
	return !u.ExpiresAt.After(now)
}

// Sanitized returns a copy safe to hand to clients. The hash is already
// excluded from JSON, this also strips it from in-process copies.
func (u *User) Sanitized() *User {
	out := *u
	out.PasswordHash = ""
	return &out
}

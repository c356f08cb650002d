package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User holds the auth-relevant fields of an admin panel account.
type User struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)"     json:"id"`
	Username     string     `gorm:"uniqueIndex;not null"            json:"username"`
	Email        string     `gorm:"uniqueIndex;not null"            json:"email"`
	PasswordHash string     `gorm:"not null"                        json:"-"`
	Role         string     `gorm:"not null;default:viewer"         json:"role"`
	Roles        []string   `gorm:"serializer:json"                 json:"roles,omitempty"`
	IsActive     bool       `gorm:"not null"                        json:"isActive"`
	LastLogin    *time.Time `                                       json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `                                       json:"createdAt"`
	UpdatedAt    time.Time  `                                       json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Normalize()
	return nil
}

// Normalize lower-cases the login identifiers; both are matched case-insensitively.
func (u *User) Normalize() {
	u.Username = NormalizeIdentifier(u.Username)
	u.Email = NormalizeIdentifier(u.Email)
}

func NormalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

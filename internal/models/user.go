package models

import (
	"regexp"
	"time"
)

// UsernamePattern is the set of characters allowed in a username
var UsernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// User is an account. Email is the login identifier.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
	Email        string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Username     string    `gorm:"size:150;not null;uniqueIndex" json:"username"`
	FirstName    string    `gorm:"size:150;not null" json:"first_name"`
	LastName     string    `gorm:"size:150;not null" json:"last_name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Avatar       string    `gorm:"size:255;not null;default:''" json:"-"`
	IsStaff      bool      `gorm:"not null;default:false" json:"-"`
}

// FullName returns "first last"
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

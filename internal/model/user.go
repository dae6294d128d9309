package model

import "time"

// Role is the authorization level carried in a user's token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a marketplace account.
type User struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`
	Name                 string     `json:"name" gorm:"size:255;not null"`
	Email                string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash         string     `json:"-" gorm:"column:password;size:255;not null"` // Never expose in JSON
	Role                 Role       `json:"role" gorm:"size:20;not null;default:'user'"`
	ResetToken           *string    `json:"-" gorm:"size:64;index"`
	ResetTokenExpiration *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

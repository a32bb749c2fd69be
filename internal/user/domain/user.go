package domain

import "time"

// User is the principal record held in the relational store. The schema is
// owned and migrated elsewhere; this core only reads it for authentication
// and writes the last-login timestamp.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	AvatarURL    string
	Active       bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

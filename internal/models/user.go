package models

import "time"

type User struct {
	ID           string
	UserID       string // public sequential id, e.g. usr-00042
	Email        string
	Name         string
	PasswordHash []byte
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Package models holds the rows identityd keeps in Postgres.
package models

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	// Metadata is the free-form profile supplied at sign-up (name, goal,
	// body measurements). Stored as jsonb.
	Metadata  map[string]any
	CreatedAt time.Time
}

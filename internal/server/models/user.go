// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the identity record behind sender/receiver/owner ids. Account
// creation and verification happen outside this service; we only read.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

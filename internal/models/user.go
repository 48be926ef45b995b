package models

import "time"

// User is created on first successful phone verification.
type User struct {
	ID        int       `db:"id" json:"id"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

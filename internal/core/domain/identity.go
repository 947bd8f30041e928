package domain

import "time"

// User is the minimal directory view the verification flow depends on.
type User struct {
	ID         string
	Email      string
	Name       string
	Verified   bool
	VerifiedAt *time.Time
	CreatedAt  time.Time
}

package model

import (
	"fmt"
	"regexp"
	"time"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,50}$`)

// User is an account holder. Usernames are case-preserving but lookups
// are case-sensitive, per spec: at most one User exists for a given
// username string.
type User struct {
	UserID       string
	Username     string
	PasswordHash string
	Email        string
	CreatedAt    time.Time
}

// ValidateUsername enforces the 3-50 char, [A-Za-z0-9_] username rule.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username must be 3-50 chars of letters, digits, underscore: %q", username)
	}
	return nil
}

// NewUser constructs a User after validating the username. The caller
// supplies an already-hashed password and a generated UserID.
func NewUser(userID, username, passwordHash, email string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	return &User{
		UserID:       userID,
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		CreatedAt:    time.Now(),
	}, nil
}

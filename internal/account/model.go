package account

import (
	"strings"
	"time"
)

// Roles an account may hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// StatusActive is assigned to accounts created through OTP verification.
const StatusActive = "active"

// Account represents a registered portal user.
type Account struct {
	ID           string
	Email        string
	PasswordHash []byte
	Role         string
	Status       string
	Profile      Profile
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// Profile holds the registration details captured alongside the credentials.
type Profile struct {
	FirstName   string `json:"firstName"`
	MiddleName  string `json:"middleName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Position    string `json:"position"`
	Province    string `json:"province"`
}

// NormalizeEmail is the canonical form used for every store lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRole reports whether role is one the portal knows about.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

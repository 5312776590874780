package domain

import (
	"strings"
	"time"
)

// DefaultRole is assigned to accounts created through registration.
const DefaultRole = "User"

// Account mirrors the persisted representation in the accounts table.
type Account struct {
	ID                  string
	FirstName           string
	LastName            string
	Username            string
	Email               string
	PasswordHash        string
	Role                string
	Location            string
	AvatarURL           string
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NormalizeIdentifier lowercases and trims an email or username for storage and lookup.
func NormalizeIdentifier(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// DisplayName joins first and last name the way clients render it.
func (a Account) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ResetState reports the password reset state observed at the given instant.
// An expired token counts as no active reset.
func (a Account) ResetState(at time.Time) ResetState {
	if a.ResetTokenHash == nil || a.ResetTokenExpiresAt == nil {
		return ResetStateNone
	}
	if !a.ResetTokenExpiresAt.After(at) {
		return ResetStateNone
	}
	return ResetStateIssued
}

// Profile returns the projection exposed to the account owner.
func (a Account) Profile() Profile {
	return Profile{
		ID:       a.ID,
		Name:     a.DisplayName(),
		Email:    a.Email,
		Role:     a.Role,
		Location: a.Location,
		Avatar:   a.AvatarURL,
	}
}

// Profile is the public view of an account. It never carries credentials.
type Profile struct {
	ID       string
	Name     string
	Email    string
	Role     string
	Location string
	Avatar   string
}

// ProfileUpdate lists the mutable profile fields; nil means unchanged.
// Password, username and id are deliberately absent.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Role      *string
	Location  *string
	AvatarURL *string
}

// IsEmpty reports whether the update changes nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil &&
		u.Role == nil && u.Location == nil && u.AvatarURL == nil
}

// SplitDisplayName splits "first rest of name" into first and last name.
func SplitDisplayName(name string) (first, last string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// PasswordContext carries account attributes a password must not be derived from.
type PasswordContext struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// Inputs returns the non-empty context values.
func (c PasswordContext) Inputs() []string {
	inputs := make([]string, 0, 4)
	for _, v := range []string{c.Username, c.Email, c.FirstName, c.LastName} {
		if v = strings.TrimSpace(v); v != "" {
			inputs = append(inputs, v)
		}
	}
	return inputs
}

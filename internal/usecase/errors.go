package usecase

import (
	"errors"
	"fmt"

	"github.com/arklim/taskboard-auth/internal/repository"
)

// Error kinds returned by the credential operations. Handlers map them to status codes.
var (
	ErrValidation            = errors.New("validation failed")
	ErrDuplicateIdentity     = errors.New("account already exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrNotFound              = errors.New("account not found")
	ErrServiceUnavailable    = errors.New("service unavailable")
)

// User-facing messages shared with the transport layer.
const (
	MsgFieldsRequired         = "All fields are required and cannot be empty."
	MsgInvalidEmail           = "Please enter a valid email address."
	MsgDuplicateIdentity      = "An account with this email or username already exists."
	MsgLoginFieldsRequired    = "Email and password are required."
	MsgInvalidCredentials     = "Invalid email or password."
	MsgEmailRequired          = "Email is required."
	MsgResetRequested         = "If an account with this email exists, a password reset link has been sent."
	MsgResetTokenInvalid      = "Password reset token is invalid or has expired."
	MsgPasswordRequired       = "Password is required."
	MsgNameNeedsLastName      = "Name must include a first and last name."
	MsgNothingToUpdate        = "No profile fields to update."
	MsgAccountNotFound        = "User not found."
	MsgRegistered             = "User registered successfully!"
	MsgPasswordReset          = "Password has been reset successfully."
	MsgProfileUpdated         = "Profile updated successfully."
	MsgDatabaseUnavailable    = "Database service unavailable"
	MsgSessionTokenRequired   = "Access token required"
	MsgSessionTokenInvalid    = "Invalid or expired token"
	MsgInternalServerError    = "Server error. Please try again."
	MsgRegistrationFailed     = "Registration failed. Please try again."
	MsgLoginFailed            = "Login failed. Please try again."
	MsgPasswordResetFailed    = "Password reset failed. Please try again."
	MsgProfileOperationFailed = "Server error"
)

// ValidationError describes malformed or missing input. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// storeError wraps a repository failure, tagging connectivity problems as ErrServiceUnavailable.
func storeError(op string, err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return fmt.Errorf("%s: %w: %w", op, ErrServiceUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/taskboard-auth/internal/core/domain"
	"github.com/arklim/taskboard-auth/internal/transport/http/middleware"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string `json:"message" example:"Invalid credentials."`
	TraceID string `json:"trace_id,omitempty" example:"4f1c8e1a-2b7d-4c55-9d0e-1f6b3f0a9c21"`
}

// NewErrorResponse creates an error response carrying the request trace ID.
func NewErrorResponse(c *gin.Context, msg string) ErrorResponse {
	return ErrorResponse{Message: msg, TraceID: middleware.GetTraceID(c)}
}

// MessageResponse acknowledges an operation.
type MessageResponse struct {
	Message string `json:"message" example:"User registered successfully!"`
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	FirstName string `json:"firstName" example:"Ada"`
	LastName  string `json:"lastName" example:"Lovelace"`
	Username  string `json:"username" example:"ada"`
	Email     string `json:"email" example:"ada@example.com"`
	Password  string `json:"password" example:"correct horse battery"`
}

// LoginRequest is the body of POST /login. The email field accepts either an
// email address or a username; username and identifier are aliases.
type LoginRequest struct {
	Email      string `json:"email" example:"ada@example.com"`
	Username   string `json:"username,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Password   string `json:"password" example:"correct horse battery"`
}

func (r LoginRequest) identifier() string {
	for _, v := range []string{r.Email, r.Identifier, r.Username} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// UserSummary is the account summary returned on login.
type UserSummary struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

// LoginResponse carries the session token and the account summary.
type LoginResponse struct {
	Message   string      `json:"message" example:"Login successful!"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserSummary `json:"user"`
}

// ForgotPasswordRequest is the body of POST /forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" example:"ada@example.com"`
}

// ResetPasswordRequest is the body of POST /reset-password/:token.
type ResetPasswordRequest struct {
	Password string `json:"password" example:"a new long passphrase"`
}

// ProfileResponse is the public view of an account.
type ProfileResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name" example:"Ada Lovelace"`
	Email    string `json:"email" example:"ada@example.com"`
	Role     string `json:"role" example:"Team Member"`
	Location string `json:"location"`
	Avatar   string `json:"avatar"`
}

// ProfileUpdateRequest is the body of PUT /api/user/profile. Omitted fields are left unchanged.
type ProfileUpdateRequest struct {
	Name     *string `json:"name,omitempty" example:"Ada King"`
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	Location *string `json:"location,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// ProfileUpdateResponse acknowledges an update and returns the new profile.
type ProfileUpdateResponse struct {
	Message string          `json:"message" example:"Profile updated successfully."`
	User    ProfileResponse `json:"user"`
}

// HealthResponse reports dependency status.
type HealthResponse struct {
	Status      string    `json:"status" example:"OK"`
	Database    string    `json:"database" example:"Connected"`
	Cache       string    `json:"cache" example:"Connected"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment" example:"development"`
	Version     string    `json:"version" example:"1.0.0"`
}

func toProfileResponse(p domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:       p.ID,
		Name:     p.Name,
		Email:    p.Email,
		Role:     p.Role,
		Location: p.Location,
		Avatar:   p.Avatar,
	}
}

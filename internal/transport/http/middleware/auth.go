package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/taskboard-auth/internal/core/domain"
	"github.com/arklim/taskboard-auth/internal/usecase"
)

// SessionVerifier validates bearer session tokens.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (domain.SessionClaims, error)
}

// ErrorResponse matches the handlers.ErrorResponse structure.
type ErrorResponse struct {
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, msg string) ErrorResponse {
	return ErrorResponse{Message: msg, TraceID: GetTraceID(c)}
}

// RequireAuth admits requests carrying a valid "Bearer <token>" header.
// A missing token yields 401, a token that fails verification yields 403.
func RequireAuth(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, usecase.MsgSessionTokenRequired))
			return
		}

		claims, err := verifier.VerifySession(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusForbidden, newErrorResponse(c, usecase.MsgSessionTokenInvalid))
			return
		}

		c.Set(AccountIDKey, claims.AccountID)
		c.Set(AccountEmailKey, claims.Email)
		GetRequestContext(c).AccountID = claims.AccountID

		c.Next()
	}
}

// bearerToken returns the credential following the scheme, or "" when absent.
func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// GetAuthenticatedAccountID retrieves the account ID set by RequireAuth.
func GetAuthenticatedAccountID(c *gin.Context) (string, bool) {
	id := c.GetString(AccountIDKey)
	return id, id != ""
}

package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/taskboard-auth/internal/transport/http/middleware"
	"github.com/arklim/taskboard-auth/internal/usecase"
)

const msgLoginSucceeded = "Login successful!"

// Authenticator exchanges credentials for a session token.
type Authenticator interface {
	Login(ctx context.Context, input usecase.LoginInput) (usecase.LoginResult, error)
}

// AuthHandler exposes login.
type AuthHandler struct {
	auth Authenticator
}

func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

var loginErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: usecase.MsgInvalidCredentials},
}

// Login godoc
// @Summary Log in with email or username
// @Description Verifies the password and returns a signed session token with the account summary.
// @Description The same 401 response is returned for an unknown identifier and a wrong password.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} middleware.ProblemDetails
// @Failure 503 {object} ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	reqCtx := middleware.GetRequestContext(c)
	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Identifier: req.identifier(),
		Password:   req.Password,
		IP:         reqCtx.IP,
		UserAgent:  reqCtx.UserAgent,
	})
	if err != nil {
		RespondWithMappedError(c, err, loginErrorCases, http.StatusInternalServerError, usecase.MsgLoginFailed)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Message:   msgLoginSucceeded,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User: UserSummary{
			ID:     result.Profile.ID,
			Email:  result.Profile.Email,
			Name:   result.Profile.Name,
			Role:   result.Profile.Role,
			Avatar: result.Profile.Avatar,
		},
	})
}

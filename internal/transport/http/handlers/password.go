package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/taskboard-auth/internal/transport/http/middleware"
	"github.com/arklim/taskboard-auth/internal/usecase"
)

// PasswordRecovery issues and redeems password reset tokens.
type PasswordRecovery interface {
	ForgotPassword(ctx context.Context, input usecase.ForgotPasswordInput) error
	ResetPassword(ctx context.Context, input usecase.ResetPasswordInput) error
}

// PasswordHandler exposes the forgot/reset password flow.
type PasswordHandler struct {
	recovery PasswordRecovery
}

func NewPasswordHandler(recovery PasswordRecovery) *PasswordHandler {
	return &PasswordHandler{recovery: recovery}
}

var resetErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidOrExpiredToken, Status: http.StatusBadRequest, Message: usecase.MsgResetTokenInvalid},
}

// ForgotPassword godoc
// @Summary Request a password reset link
// @Description Always answers with the same message whether or not the email belongs to an account.
// @Tags Password
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Forgot password request"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} middleware.ProblemDetails
// @Failure 503 {object} ErrorResponse
// @Router /forgot-password [post]
func (h *PasswordHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	reqCtx := middleware.GetRequestContext(c)
	err := h.recovery.ForgotPassword(c.Request.Context(), usecase.ForgotPasswordInput{
		Email:     req.Email,
		IP:        reqCtx.IP,
		UserAgent: reqCtx.UserAgent,
	})
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, usecase.MsgInternalServerError)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: usecase.MsgResetRequested})
}

// ResetPassword godoc
// @Summary Reset the password with an emailed token
// @Description Redeems a single-use reset token. Expired, unknown and already used tokens get the same 400 response.
// @Tags Password
// @Accept json
// @Produce json
// @Param token path string true "Reset token from the emailed link"
// @Param request body ResetPasswordRequest true "New password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} middleware.ProblemDetails
// @Failure 503 {object} ErrorResponse
// @Router /reset-password/{token} [post]
func (h *PasswordHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	reqCtx := middleware.GetRequestContext(c)
	err := h.recovery.ResetPassword(c.Request.Context(), usecase.ResetPasswordInput{
		Token:     c.Param("token"),
		Password:  req.Password,
		IP:        reqCtx.IP,
		UserAgent: reqCtx.UserAgent,
	})
	if err != nil {
		RespondWithMappedError(c, err, resetErrorCases, http.StatusInternalServerError, usecase.MsgPasswordResetFailed)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: usecase.MsgPasswordReset})
}

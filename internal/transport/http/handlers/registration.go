package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/taskboard-auth/internal/core/domain"
	"github.com/arklim/taskboard-auth/internal/transport/http/middleware"
	"github.com/arklim/taskboard-auth/internal/usecase"
)

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, input usecase.RegisterInput) (domain.Profile, error)
}

// RegistrationHandler exposes account registration.
type RegistrationHandler struct {
	registrar Registrar
}

func NewRegistrationHandler(registrar Registrar) *RegistrationHandler {
	return &RegistrationHandler{registrar: registrar}
}

var registerErrorCases = []ErrorCase{
	{Err: usecase.ErrDuplicateIdentity, Status: http.StatusConflict, Message: usecase.MsgDuplicateIdentity},
}

// Register godoc
// @Summary Register a new account
// @Description Creates an account from first name, last name, username, email and password.
// @Tags Registration
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 429 {object} middleware.ProblemDetails
// @Failure 503 {object} ErrorResponse
// @Router /register [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	reqCtx := middleware.GetRequestContext(c)
	_, err := h.registrar.Register(c.Request.Context(), usecase.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		IP:        reqCtx.IP,
		UserAgent: reqCtx.UserAgent,
	})
	if err != nil {
		RespondWithMappedError(c, err, registerErrorCases, http.StatusInternalServerError, usecase.MsgRegistrationFailed)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: usecase.MsgRegistered})
}

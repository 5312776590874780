package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/taskboard-auth/internal/core/domain"
	"github.com/arklim/taskboard-auth/internal/transport/http/middleware"
	"github.com/arklim/taskboard-auth/internal/usecase"
)

// ProfileService reads and edits the authenticated account's profile.
type ProfileService interface {
	GetProfile(ctx context.Context, accountID string) (domain.Profile, error)
	UpdateProfile(ctx context.Context, accountID string, input usecase.ProfileUpdateInput) (domain.Profile, error)
}

// ProfileHandler serves /api/user/profile. Routes must sit behind middleware.RequireAuth.
type ProfileHandler struct {
	profiles ProfileService
}

func NewProfileHandler(profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

var profileErrorCases = []ErrorCase{
	{Err: usecase.ErrNotFound, Status: http.StatusNotFound, Message: usecase.MsgAccountNotFound},
	{Err: usecase.ErrDuplicateIdentity, Status: http.StatusConflict, Message: usecase.MsgDuplicateIdentity},
}

// Get godoc
// @Summary Get the current profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/user/profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, usecase.MsgSessionTokenRequired))
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), accountID)
	if err != nil {
		RespondWithMappedError(c, err, profileErrorCases, http.StatusInternalServerError, usecase.MsgProfileOperationFailed)
		return
	}

	c.JSON(http.StatusOK, toProfileResponse(profile))
}

// Update godoc
// @Summary Update the current profile
// @Description Updates name, email, role, location and avatar. Omitted fields are left unchanged; password and username cannot be changed here.
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProfileUpdateRequest true "Profile fields"
// @Success 200 {object} ProfileUpdateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/user/profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, usecase.MsgSessionTokenRequired))
		return
	}

	var req ProfileUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), accountID, usecase.ProfileUpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Location: req.Location,
		Avatar:   req.Avatar,
	})
	if err != nil {
		RespondWithMappedError(c, err, profileErrorCases, http.StatusInternalServerError, usecase.MsgProfileOperationFailed)
		return
	}

	c.JSON(http.StatusOK, ProfileUpdateResponse{Message: usecase.MsgProfileUpdated, User: toProfileResponse(profile)})
}

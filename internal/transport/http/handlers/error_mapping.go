package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/taskboard-auth/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// storeUnavailable applies to every operation that touches the credential store.
var storeUnavailable = ErrorCase{
	Err:     usecase.ErrServiceUnavailable,
	Status:  http.StatusServiceUnavailable,
	Message: usecase.MsgDatabaseUnavailable,
}

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
// Validation errors answer 400 with their own message. The raw error is attached to
// the gin context for the access log and never written to the client.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}
	_ = c.Error(err)

	var validation *usecase.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, validation.Message))
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Message))
			return
		}
	}
	if errors.Is(err, storeUnavailable.Err) {
		c.JSON(storeUnavailable.Status, NewErrorResponse(c, storeUnavailable.Message))
		return
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, NewErrorResponse(c, msg))
}

package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
)

const msgInvalidBody = "Request body must be valid JSON."

// bindJSON decodes the request body into dst. An empty body decodes to the
// zero value so that missing fields are reported by field validation.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(err)
		respondBadRequest(c, msgInvalidBody)
		return false
	}
	return true
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AnderssonProgramming/code-arena-rt/models"
)

// respondError maps the service error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch models.KindOf(err) {
	case models.KindNotFound:
		status = http.StatusNotFound
	case models.KindInvalidState, models.KindInsufficientData:
		status = http.StatusBadRequest
	case models.KindForbidden:
		status = http.StatusForbidden
	case models.KindUnauthorized:
		status = http.StatusUnauthorized
	case models.KindFull, models.KindAlreadyMember, models.KindDuplicateSubmission, models.KindConflict:
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func currentUserID(c *gin.Context) string {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func currentUsername(c *gin.Context) string {
	if v, ok := c.Get("username"); ok {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kallihansen/jobplane/internal/domain"
)

// writeError translates a domain sentinel error into the error taxonomy's
// HTTP status and the service-wide {"detail": "..."} body shape.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCronExpression):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrRunAssignmentFailed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRunCompletionFailed):
		status = http.StatusUnprocessableEntity
	}

	detail := "internal server error"
	if status != http.StatusInternalServerError {
		detail = err.Error()
	}
	c.JSON(status, gin.H{"detail": detail})
}

func parsePage(c *gin.Context) (offset, limit int, descending bool) {
	offset = 0
	if v := c.Query("offset"); v != "" {
		if n, err := parseNonNegativeInt(v); err == nil {
			offset = n
		}
	}

	limit = 100
	if v := c.Query("limit"); v != "" {
		if n, err := parseNonNegativeInt(v); err == nil && n > 0 {
			limit = n
		}
	}

	descending = c.Query("sort_order") == "desc"
	return offset, limit, descending
}

func parseNonNegativeInt(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errInvalidInt
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

var errInvalidInt = errors.New("invalid integer")

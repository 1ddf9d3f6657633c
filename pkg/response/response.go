// Package response writes the JSON envelope shared by every handler.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
)

// OK writes {"data": data}.
func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

// Fail writes {"error": message}.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// Error maps a domain error onto a status code. Anything unclassified is logged and
// reported as a generic failure.
func Error(c *gin.Context, log *zap.Logger, err error) {
	var ve *domain.ValidationError
	var se *domain.StockError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.As(err, &se):
		c.JSON(http.StatusConflict, gin.H{"error": se.Error(), "available": se.Available})
	case errors.Is(err, domain.ErrNotFound):
		Fail(c, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrConflict):
		Fail(c, http.StatusPreconditionFailed, "The record was changed by someone else, reload and try again")
	case errors.Is(err, domain.ErrValidation):
		Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		Fail(c, http.StatusConflict, err.Error())
	default:
		if log != nil {
			log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		}
		_ = c.Error(err)
		Fail(c, http.StatusInternalServerError, "Something went wrong, please try again")
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memoryhaze/memoryhaze/internal/service"
)

// writeServiceError translates the service error taxonomy into HTTP.
// Wrong-recipient failures carry a flag so the front end can offer an
// account switch instead of a dead end.
func writeServiceError(c *gin.Context, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	body := gin.H{"error": svcErr.Message}
	if svcErr.Field != "" {
		body["field"] = svcErr.Field
	}

	switch svcErr.Kind {
	case service.KindValidation:
		c.JSON(http.StatusBadRequest, body)
	case service.KindUnauthorized:
		c.JSON(http.StatusUnauthorized, body)
	case service.KindForbidden:
		c.JSON(http.StatusForbidden, body)
	case service.KindNotFound:
		c.JSON(http.StatusNotFound, body)
	case service.KindConflict:
		c.JSON(http.StatusConflict, body)
	case service.KindWrongRecipient:
		body["intendedForDifferentUser"] = true
		c.JSON(http.StatusForbidden, body)
	case service.KindAccessRevoked:
		c.JSON(http.StatusGone, body)
	case service.KindProvider:
		c.JSON(http.StatusBadGateway, body)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
	}
}

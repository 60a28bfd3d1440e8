package handler

import (
	"errors"
	"log"
	"net/http"

	"chama/internal/domain"
	"chama/internal/middleware"

	"github.com/gin-gonic/gin"
)

// respondErr maps the domain error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is an unexpected internal failure: logged with the
// request correlation id, surfaced opaque.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	default:
		cid := middleware.GetCorrelationID(c)
		log.Printf("[http] internal error cid=%s %s %s: %v", cid, c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "correlation_id": cid})
	}
}

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TobiSchelling/clicklabel/internal/database"
	"github.com/TobiSchelling/clicklabel/internal/engine"
	"github.com/TobiSchelling/clicklabel/internal/instructions"
)

// APIError is the body of every failed request.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError under an "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{Message: msg, Code: code},
	})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondFailure maps a domain error to its HTTP status.
func respondFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidArgument):
		respondError(c, http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, engine.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, instructions.ErrStaleVersion):
		respondError(c, http.StatusConflict, "stale_version", err)
	case errors.Is(err, database.ErrAlreadyExists):
		respondError(c, http.StatusConflict, "already_exists", err)
	case errors.Is(err, engine.ErrConflict):
		respondError(c, http.StatusConflict, "conflict", err)
	case errors.Is(err, engine.ErrStoreUnavailable):
		c.Header("Retry-After", "1")
		respondError(c, http.StatusServiceUnavailable, "store_unavailable", err)
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal", errors.New("internal server error"))
	}
}

package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/TobiSchelling/clicklabel/internal/database"
	"github.com/TobiSchelling/clicklabel/internal/logger"
)

const (
	headerRequestID = "X-Request-Id"
	// HeaderUserID carries the caller's identity, set by the fronting
	// identity layer and trusted as is.
	HeaderUserID = "X-User-ID"

	ctxUser = "user"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"),
		}
		if u := currentUser(c); u != nil {
			fields = append(fields, "user_id", u.ID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// identify resolves the X-User-ID header to a known user.
func (s *Server) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if raw == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing "+HeaderUserID+" header"))
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "unauthorized", errors.New("malformed "+HeaderUserID+" header"))
			return
		}

		u, err := s.db.GetUser(c.Request.Context(), id)
		if err != nil {
			respondFailure(c, err)
			return
		}
		if u == nil {
			respondError(c, http.StatusUnauthorized, "unauthorized", errors.New("unknown user"))
			return
		}

		c.Set(ctxUser, u)
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := currentUser(c); u == nil || !u.IsAdmin {
			respondError(c, http.StatusForbidden, "forbidden", errors.New("administrator access required"))
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *database.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	u, _ := v.(*database.User)
	return u
}

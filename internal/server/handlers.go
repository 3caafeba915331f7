package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/TobiSchelling/clicklabel/internal/database"
	"github.com/TobiSchelling/clicklabel/internal/instructions"
)

type labelRequest struct {
	IsClickbait *bool `json:"is_clickbait" binding:"required"`
	Confidence  int   `json:"confidence"`
}

type instructionsRequest struct {
	Body string `json:"body" binding:"required"`
	// ExpectedVersion guards against lost updates; omit it to overwrite.
	ExpectedVersion *int `json:"expected_version"`
}

type instructionsResponse struct {
	*instructions.Instructions
	HTML string `json:"html"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) handleAcquire(c *gin.Context) {
	u := currentUser(c)
	a, err := s.eng.Acquire(c.Request.Context(), u.ID)
	if err != nil {
		respondFailure(c, err)
		return
	}
	if a == nil {
		c.Status(http.StatusNoContent)
		return
	}
	respondOK(c, gin.H{"assignment": a})
}

func (s *Server) handleLabel(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("item"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("item id %q is not a number", c.Param("item")))
		return
	}
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	ack, err := s.eng.Record(c.Request.Context(), itemID, currentUser(c).ID, *req.IsClickbait, req.Confidence)
	if err != nil {
		respondFailure(c, err)
		return
	}
	respondOK(c, gin.H{"ack": ack})
}

func (s *Server) handleSkip(c *gin.Context) {
	skipped, err := s.eng.Skip(c.Request.Context(), c.Param("item"), currentUser(c).ID)
	if err != nil {
		respondFailure(c, err)
		return
	}
	respondOK(c, gin.H{"skipped": skipped})
}

func (s *Server) handleMyStats(c *gin.Context) {
	st, err := s.stats.UserStats(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondFailure(c, err)
		return
	}
	respondOK(c, gin.H{"stats": st})
}

// queryLimit reads the optional ?limit= parameter, answering 400 itself when
// it is malformed.
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		respondError(c, http.StatusBadRequest, "invalid_argument", errors.New("limit must be a non-negative integer"))
		return 0, false
	}
	return v, true
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	n, ok := queryLimit(c)
	if !ok {
		return
	}

	top, err := s.stats.Leaderboard(c.Request.Context(), n)
	if err != nil {
		respondFailure(c, err)
		return
	}
	respondOK(c, gin.H{"leaderboard": top})
}

func (s *Server) handleGetInstructions(c *gin.Context) {
	in, err := s.instr.Get(c.Request.Context())
	if err != nil {
		respondFailure(c, err)
		return
	}
	respondOK(c, gin.H{"instructions": instructionsResponse{in, string(in.RenderHTML())}})
}

func (s *Server) handleSetInstructions(c *gin.Context) {
	var req instructionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	expected := -1
	if req.ExpectedVersion != nil {
		expected = *req.ExpectedVersion
	}

	in, err := s.instr.Set(c.Request.Context(), req.Body, expected)
	if err != nil {
		respondFailure(c, err)
		return
	}
	s.log.Info("instructions updated", "version", in.Version, "user_id", currentUser(c).ID)
	respondOK(c, gin.H{"instructions": instructionsResponse{in, string(in.RenderHTML())}})
}

func (s *Server) handleInstructionsPage(c *gin.Context) {
	in, err := s.instr.Get(c.Request.Context())
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	var buf bytes.Buffer
	err = s.page.Execute(&buf, map[string]any{
		"Version":   in.Version,
		"UpdatedAt": in.UpdatedAt,
		"Body":      in.RenderHTML(),
	})
	if err != nil {
		s.log.Error("rendering instructions page", "error", err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleUpsertItem(c *gin.Context) {
	var p database.Payload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ctx := c.Request.Context()
	key := c.Param("item")

	if _, err := s.db.UpsertItem(ctx, key, p); err != nil {
		respondFailure(c, err)
		return
	}
	item, err := s.db.GetItemByKey(ctx, key)
	if err != nil {
		respondFailure(c, err)
		return
	}
	respondOK(c, gin.H{"item": item})
}

func (s *Server) handleMarkReady(c *gin.Context) {
	key := c.Param("item")
	if err := s.db.MarkReady(c.Request.Context(), key); err != nil {
		respondFailure(c, err)
		return
	}
	respondOK(c, gin.H{"item_key": key, "ready": true})
}

func (s *Server) handleDashboard(c *gin.Context) {
	n, ok := queryLimit(c)
	if !ok {
		return
	}
	ov, err := s.stats.Overview(c.Request.Context(), n)
	if err != nil {
		respondFailure(c, err)
		return
	}
	respondOK(c, ov)
}

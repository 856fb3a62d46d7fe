package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/mailbox"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/model"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/pipeline"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/store"
)

// handleListInbox serves GET /api/inbox?page=&limit=. The page is
// best-effort: individual message failures are omitted, and only an
// authentication failure turns into a request error.
func (s *Server) handleListInbox(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(s.pageSize)))
	if err != nil || limit < 1 || limit > 100 {
		limit = s.pageSize
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout)
	defer cancel()

	result, err := s.pipeline.ListInbox(ctx, pipeline.ListRequest{
		UserScope: userScope(c),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		s.fail(c, "listing inbox", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleGetMessage serves GET /api/inbox/:id with a best-effort deep
// analysis attached.
func (s *Server) handleGetMessage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout)
	defer cancel()

	msg, err := s.pipeline.GetMessage(ctx, userScope(c), c.Param("id"))
	if err != nil {
		s.fail(c, "fetching message", err)
		return
	}

	result := s.analyzer.Analyze(ctx, msg)
	c.JSON(http.StatusOK, gin.H{
		"message":  msg,
		"analysis": result,
	})
}

// handleGetAttachment streams decoded attachment bytes.
func (s *Server) handleGetAttachment(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.requestTimeout)
	defer cancel()

	data, err := s.provider.GetAttachment(ctx, c.Param("id"), c.Param("aid"))
	if err != nil {
		s.fail(c, "fetching attachment", err)
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", data)
}

type decisionRequest struct {
	Decision string `json:"decision" binding:"required"`
}

// handlePostDecision records an accept/reject call on a message.
func (s *Server) handlePostDecision(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision is required"})
		return
	}
	decision := strings.ToLower(strings.TrimSpace(req.Decision))
	if decision != model.DecisionAccepted && decision != model.DecisionRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision must be accepted or rejected"})
		return
	}

	err := s.store.UpsertDecision(c.Request.Context(), model.Decision{
		UserScope:  userScope(c),
		ExternalID: c.Param("id"),
		Decision:   decision,
	})
	if err != nil {
		s.fail(c, "recording decision", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type flagRequest struct {
	Value *bool `json:"value" binding:"required"`
}

// handleSetRead toggles the cached read flag. Display state only: the
// provider's labels win again on the next rebuild.
func (s *Server) handleSetRead(c *gin.Context) {
	s.setFlag(c, s.store.SetRead)
}

// handleSetStarred toggles the cached starred flag.
func (s *Server) handleSetStarred(c *gin.Context) {
	s.setFlag(c, s.store.SetStarred)
}

func (s *Server) setFlag(c *gin.Context, update func(context.Context, string, bool) error) {
	var req flagRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}

	if err := update(c.Request.Context(), c.Param("id"), *req.Value); err != nil {
		s.fail(c, "updating flag", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleGetThesis serves the caller's thesis, empty if none is stored.
func (s *Server) handleGetThesis(c *gin.Context) {
	thesis, err := s.store.GetThesis(c.Request.Context(), userScope(c))
	if err != nil {
		s.fail(c, "reading thesis", err)
		return
	}
	c.JSON(http.StatusOK, thesis)
}

// handlePutThesis replaces the caller's thesis.
func (s *Server) handlePutThesis(c *gin.Context) {
	var thesis model.Thesis
	if err := c.ShouldBindJSON(&thesis); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thesis payload"})
		return
	}
	thesis.UserScope = userScope(c)

	if err := s.store.PutThesis(c.Request.Context(), thesis); err != nil {
		s.fail(c, "saving thesis", err)
		return
	}
	c.JSON(http.StatusOK, thesis)
}

// fail maps pipeline errors onto HTTP statuses: auth failures are 401,
// missing records 404, everything else is an upstream failure.
func (s *Server) fail(c *gin.Context, op string, err error) {
	s.logger.Error(op+" failed",
		zap.String("path", c.FullPath()),
		zap.Error(err))

	switch {
	case mailbox.IsAuthError(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "mailbox authentication failed"})
	case isNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream failure"})
	}
}

func isNotFound(err error) bool {
	if errors.Is(err, store.ErrNotFound) {
		return true
	}
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

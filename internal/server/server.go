// Package server exposes the feed pipeline over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AshwiniGoutam/pitchub-sub000/internal/analysis"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/mailbox"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/pipeline"
	"github.com/AshwiniGoutam/pitchub-sub000/internal/store"
)

// DefaultUserScope is used when a request carries no scope header. The
// auth collaborator in front of this service normally injects one.
const DefaultUserScope = "default"

// Server wires the HTTP routes to the pipeline and stores.
type Server struct {
	pipeline       *pipeline.Pipeline
	store          store.Store
	provider       mailbox.Provider
	analyzer       *analysis.Analyzer
	logger         *zap.Logger
	requestTimeout time.Duration
	pageSize       int
}

// Deps wires the server's collaborators.
type Deps struct {
	Pipeline        *pipeline.Pipeline
	Store           store.Store
	Provider        mailbox.Provider
	Analyzer        *analysis.Analyzer
	Logger          *zap.Logger
	RequestTimeout  time.Duration
	DefaultPageSize int
}

// New creates a Server.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pageSize := deps.DefaultPageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Server{
		pipeline:       deps.Pipeline,
		store:          deps.Store,
		provider:       deps.Provider,
		analyzer:       deps.Analyzer,
		logger:         logger,
		requestTimeout: timeout,
		pageSize:       pageSize,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/inbox", s.handleListInbox)
		api.GET("/inbox/:id", s.handleGetMessage)
		api.GET("/inbox/:id/attachments/:aid", s.handleGetAttachment)
		api.POST("/inbox/:id/decision", s.handlePostDecision)
		api.POST("/inbox/:id/read", s.handleSetRead)
		api.POST("/inbox/:id/star", s.handleSetStarred)
		api.GET("/thesis", s.handleGetThesis)
		api.PUT("/thesis", s.handlePutThesis)
	}

	return r
}

// userScope resolves the caller's scope from the request.
func userScope(c *gin.Context) string {
	if scope := c.GetHeader("X-User-Scope"); scope != "" {
		return scope
	}
	return DefaultUserScope
}

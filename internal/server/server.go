package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TobiSchelling/clicklabel/internal/database"
	"github.com/TobiSchelling/clicklabel/internal/engine"
	"github.com/TobiSchelling/clicklabel/internal/instructions"
	"github.com/TobiSchelling/clicklabel/internal/logger"
	"github.com/TobiSchelling/clicklabel/internal/stats"
)

//go:embed templates/*.html
var templateFS embed.FS

// Deps are the components the HTTP layer exposes.
type Deps struct {
	DB           *database.DB
	Engine       *engine.Engine
	Stats        *stats.Aggregator
	Instructions *instructions.Store
	Log          *logger.Logger
}

// Server is the labeling HTTP API.
type Server struct {
	db     *database.DB
	eng    *engine.Engine
	stats  *stats.Aggregator
	instr  *instructions.Store
	log    *logger.Logger
	page   *template.Template
	router *gin.Engine
}

// New creates a new Server.
func New(d Deps) (*Server, error) {
	if d.DB == nil || d.Engine == nil || d.Stats == nil || d.Instructions == nil {
		return nil, errors.New("server: missing dependency")
	}
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}

	page, err := template.ParseFS(templateFS, "templates/instructions.html")
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	s := &Server{
		db:     d.DB,
		eng:    d.Engine,
		stats:  d.Stats,
		instr:  d.Instructions,
		log:    log.With("component", "server"),
		page:   page,
		router: gin.New(),
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(gin.Recovery(), requestID(), requestLogger(s.log))

	r.GET("/healthcheck", s.handleHealth)
	r.GET("/instructions", s.handleInstructionsPage)

	api := r.Group("/api")
	api.Use(s.identify())
	{
		api.POST("/assignments", s.handleAcquire)
		api.POST("/items/:item/labels", s.handleLabel)
		api.POST("/items/:item/skip", s.handleSkip)
		api.GET("/me/stats", s.handleMyStats)
		api.GET("/leaderboard", s.handleLeaderboard)
		api.GET("/instructions", s.handleGetInstructions)

		api.PUT("/instructions", requireAdmin(), s.handleSetInstructions)
		api.PUT("/items/:item", requireAdmin(), s.handleUpsertItem)
		api.POST("/items/:item/ready", requireAdmin(), s.handleMarkReady)
	}

	admin := api.Group("/admin")
	admin.Use(requireAdmin())
	{
		admin.GET("/dashboard", s.handleDashboard)
		admin.GET("/export.csv", s.handleExport)
	}
}

// Serve listens on addr until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

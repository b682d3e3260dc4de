// Package api serves the dashboard REST surface: stats, posts, logs,
// feed and config management, and pipeline controls.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"contentorbit/config"
	"contentorbit/orchestrator"
	"contentorbit/scheduler"
	"contentorbit/store"
	"contentorbit/types"
)

// Pipeline is the orchestrator surface the API drives
type Pipeline interface {
	RunPipeline(ctx context.Context) (*orchestrator.PipelineResult, error)
	RunSinglePlatform(ctx context.Context, postID string, platform types.Platform) error
	TestAllConnections(ctx context.Context) map[string]orchestrator.ConnectionStatus
}

// Scheduler is the posting loop surface the API controls
type Scheduler interface {
	Start(ctx context.Context) error
	Stop()
	Running() bool
	Status() scheduler.Status
}

// Storage is the store surface the dashboard uses
type Storage interface {
	Stats(now time.Time, loc *time.Location) (*types.Stats, error)
	RecentPosts(limit int) ([]*types.PublishedPost, error)
	GetPost(id string) (*types.PublishedPost, error)
	Logs(f store.LogFilter) ([]*types.LogEntry, error)
	Enqueue(item *types.QueueItem) error
	QueueItems(limit int) ([]*types.QueueItem, error)
}

// Server bundles the dependencies behind the HTTP handlers
type Server struct {
	Config    *config.Manager
	DB        Storage
	Pipeline  Pipeline
	Scheduler Scheduler
}

// NewRouter constructs a Gin engine with all routes registered.
// /health is open; everything under /api requires the dashboard
// password when one is set.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", handleHealth)

	g := r.Group("/api", s.requireAuth)
	s.registerPostRoutes(g)
	s.registerFeedRoutes(g)
	s.registerConfigRoutes(g)
	s.registerPipelineRoutes(g)
	return r
}

// handleHealth is the unauthenticated liveness probe
// GET /health
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// requireAuth checks the X-Dashboard-Password header. An empty
// configured password leaves the API open (local single-user setups).
func (s *Server) requireAuth(c *gin.Context) {
	password := s.Config.Get().System.DashboardPassword
	if password == "" {
		return
	}
	if c.GetHeader("X-Dashboard-Password") != password {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid dashboard password"})
	}
}

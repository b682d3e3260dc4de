package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"contentorbit/types"
)

func (s *Server) registerPipelineRoutes(g *gin.RouterGroup) {
	g.POST("/run", s.handleRunNow)
	g.POST("/posts/:id/retry/:platform", s.handleRetryPlatform)
	g.GET("/connections/test", s.handleTestConnections)
	g.GET("/scheduler", s.handleSchedulerStatus)
	g.POST("/scheduler/start", s.handleSchedulerStart)
	g.POST("/scheduler/stop", s.handleSchedulerStop)
}

// handleRunNow kicks off one pipeline cycle asynchronously and returns
// 202 Accepted immediately.
// POST /api/run
func (s *Server) handleRunNow(c *gin.Context) {
	go func() {
		if _, err := s.Pipeline.RunPipeline(context.Background()); err != nil {
			log.Printf("❌ Manual run failed: %v", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "run started"})
}

// handleRetryPlatform re-publishes one platform for an existing post
// POST /api/posts/:id/retry/:platform
func (s *Server) handleRetryPlatform(c *gin.Context) {
	platform := types.Platform(c.Param("platform"))
	switch platform {
	case types.PlatformBlogger, types.PlatformDevto, types.PlatformTelegram, types.PlatformFacebook:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform"})
		return
	}

	postID := c.Param("id")
	go func() {
		if err := s.Pipeline.RunSinglePlatform(context.Background(), postID, platform); err != nil {
			log.Printf("❌ Retry of %s for post %s failed: %v", platform, postID, err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "retry started", "platform": platform})
}

// handleTestConnections probes every configured platform
// GET /api/connections/test
func (s *Server) handleTestConnections(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()
	c.JSON(http.StatusOK, s.Pipeline.TestAllConnections(ctx))
}

// handleSchedulerStatus reports the posting loop state
// GET /api/scheduler
func (s *Server) handleSchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.Scheduler.Status())
}

// handleSchedulerStart resumes scheduled posting
// POST /api/scheduler/start
func (s *Server) handleSchedulerStart(c *gin.Context) {
	if err := s.Scheduler.Start(context.Background()); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

// handleSchedulerStop pauses scheduled posting
// POST /api/scheduler/stop
func (s *Server) handleSchedulerStop(c *gin.Context) {
	s.Scheduler.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"contentorbit/store"
	"contentorbit/types"
)

func (s *Server) registerPostRoutes(g *gin.RouterGroup) {
	g.GET("/stats", s.handleStats)
	g.GET("/posts", s.handleRecentPosts)
	g.GET("/posts/:id", s.handleGetPost)
	g.GET("/logs", s.handleLogs)
	g.GET("/queue", s.handleQueueItems)
	g.POST("/queue", s.handleEnqueue)
}

// handleStats returns the dashboard counters
// GET /api/stats
func (s *Server) handleStats(c *gin.Context) {
	cfg := s.Config.Get()
	stats, err := s.DB.Stats(time.Now(), cfg.Schedule.Location())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":     stats,
		"sections":  cfg.Status(),
		"scheduler": s.Scheduler.Status(),
	})
}

// handleRecentPosts lists the newest posts
// GET /api/posts?limit=20
func (s *Server) handleRecentPosts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	posts, err := s.DB.RecentPosts(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

// handleGetPost fetches one post by ID
// GET /api/posts/:id
func (s *Server) handleGetPost(c *gin.Context) {
	post, err := s.DB.GetPost(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	c.JSON(http.StatusOK, post)
}

// handleLogs returns filtered system logs, newest first
// GET /api/logs?level=error&component=blogger&limit=100
func (s *Server) handleLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	filter := store.LogFilter{
		Level:     c.Query("level"),
		Component: c.Query("component"),
		Limit:     limit,
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		filter.Since = t
	}

	logs, err := s.DB.Logs(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

// handleQueueItems lists the content queue, pending first
// GET /api/queue?limit=50
func (s *Server) handleQueueItems(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	items, err := s.DB.QueueItems(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// handleEnqueue pushes an article URL ahead of the feed selection; the
// next pipeline cycle publishes it first
// POST /api/queue
func (s *Server) handleEnqueue(c *gin.Context) {
	var item types.QueueItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid queue payload: " + err.Error()})
		return
	}
	if item.ArticleURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article_url is required"})
		return
	}
	if err := s.DB.Enqueue(&item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, item)
}

package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contentorbit/rssfeeds"
	"contentorbit/types"
)

func (s *Server) registerFeedRoutes(g *gin.RouterGroup) {
	g.GET("/feeds", s.handleListFeeds)
	g.POST("/feeds", s.handleAddFeed)
	g.PUT("/feeds/:name", s.handleUpdateFeed)
	g.DELETE("/feeds/:name", s.handleRemoveFeed)
	g.POST("/feeds/validate", s.handleValidateFeed)
}

// handleListFeeds returns the configured sources
// GET /api/feeds
func (s *Server) handleListFeeds(c *gin.Context) {
	feeds := s.Config.Feeds()
	c.JSON(http.StatusOK, gin.H{"feeds": feeds, "count": len(feeds)})
}

// handleAddFeed registers a new source
// POST /api/feeds
func (s *Server) handleAddFeed(c *gin.Context) {
	var feed types.Feed
	if err := c.ShouldBindJSON(&feed); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feed payload: " + err.Error()})
		return
	}
	if strings.TrimSpace(feed.Name) == "" || strings.TrimSpace(feed.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and url are required"})
		return
	}
	if err := s.Config.AddFeed(feed); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, feed)
}

// handleUpdateFeed replaces an existing source
// PUT /api/feeds/:name
func (s *Server) handleUpdateFeed(c *gin.Context) {
	var feed types.Feed
	if err := c.ShouldBindJSON(&feed); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feed payload: " + err.Error()})
		return
	}
	if err := s.Config.UpdateFeed(c.Param("name"), feed); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, feed)
}

// handleRemoveFeed deletes a source
// DELETE /api/feeds/:name
func (s *Server) handleRemoveFeed(c *gin.Context) {
	if err := s.Config.RemoveFeed(c.Param("name")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": c.Param("name")})
}

// handleValidateFeed fetches a URL and reports whether it parses as a
// feed, returning its title on success
// POST /api/feeds/validate
func (s *Server) handleValidateFeed(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	title, err := rssfeeds.ValidateFeed(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "title": title})
}

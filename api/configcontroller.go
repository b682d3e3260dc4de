package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contentorbit/config"
)

func (s *Server) registerConfigRoutes(g *gin.RouterGroup) {
	g.GET("/config", s.handleGetConfig)
	g.PUT("/config", s.handleUpdateConfig)
}

// handleGetConfig returns the config with secrets masked
// GET /api/config
func (s *Server) handleGetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.Config.Get().Redacted())
}

// handleUpdateConfig merges the submitted config over the current one.
// Masked secrets coming back from the dashboard keep their stored
// values instead of overwriting them with asterisks.
// PUT /api/config
func (s *Server) handleUpdateConfig(c *gin.Context) {
	current := s.Config.Get()
	next := *current
	if err := c.ShouldBindJSON(&next); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config payload: " + err.Error()})
		return
	}
	restoreMaskedSecrets(&next, current)

	if err := s.Config.Update(func(cfg *config.AppConfig) { *cfg = next }); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.Config.Get().Redacted())
}

// restoreMaskedSecrets swaps still-masked fields back to stored values
func restoreMaskedSecrets(next, current *config.AppConfig) {
	keep := func(incoming *string, stored string) {
		if strings.Contains(*incoming, "****") {
			*incoming = stored
		}
	}
	keep(&next.Telegram.BotToken, current.Telegram.BotToken)
	keep(&next.Blogger.ClientSecret, current.Blogger.ClientSecret)
	keep(&next.Blogger.RefreshToken, current.Blogger.RefreshToken)
	keep(&next.Devto.APIKey, current.Devto.APIKey)
	keep(&next.Facebook.PageAccessToken, current.Facebook.PageAccessToken)
	keep(&next.Cohere.APIKey, current.Cohere.APIKey)
	keep(&next.Redis.Password, current.Redis.Password)
	keep(&next.System.DashboardPassword, current.System.DashboardPassword)
}

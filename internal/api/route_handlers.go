package api

import (
	"net/http"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/care-router-mcp-server/internal/pipeline"
	"github.com/gin-gonic/gin"
)

// handleRoute runs the optimization pipeline for free-text symptoms
func (s *Server) handleRoute(c *gin.Context) {
	var req pipeline.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, bindError(err))
		return
	}

	result, err := s.deps.Optimizer.Optimize(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleAlternatives lists every alternative care option flagged for the level
func (s *Server) handleAlternatives(c *gin.Context) {
	level, err := domain.ParseUrgencyLevel(c.Param("level"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"urgency_level": level,
		"alternatives":  pipeline.AllAlternatives(level),
	})
}

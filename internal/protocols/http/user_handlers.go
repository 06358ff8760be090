package http

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"missionhub/pkg/models"
)

// getUserMissions returns the active missions the user may participate
// in, merged with their current progress
func (s *Server) getUserMissions(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(400, gin.H{"error": "user_id is required"})
		return
	}

	views, err := s.trackerSvc.GetActiveMissionsForUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			c.JSON(404, gin.H{"error": "user not found"})
			return
		}
		c.JSON(500, gin.H{"error": "failed to get missions"})
		return
	}

	c.JSON(200, gin.H{"data": views})
}

// getUserPoints returns the user's points and level summary
func (s *Server) getUserPoints(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(400, gin.H{"error": "user_id is required"})
		return
	}

	view, err := s.pointsSvc.GetLedger(c.Request.Context(), userID)
	if err != nil {
		c.JSON(500, gin.H{"error": "failed to get points"})
		return
	}

	c.JSON(200, view)
}

// getUserActions returns the user's recent action log entries
func (s *Server) getUserActions(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(400, gin.H{"error": "user_id is required"})
		return
	}

	page := 1
	limit := 50
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	feed, err := s.actionsSvc.GetUserFeed(c.Request.Context(), userID, limit, (page-1)*limit)
	if err != nil {
		c.JSON(500, gin.H{"error": "failed to get action feed"})
		return
	}

	c.JSON(200, feed)
}

// getLeaderboard returns the top users by total points
func (s *Server) getLeaderboard(c *gin.Context) {
	limit := 20
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	entries, err := s.pointsSvc.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		c.JSON(500, gin.H{"error": "failed to get leaderboard"})
		return
	}

	c.JSON(200, gin.H{"data": entries})
}

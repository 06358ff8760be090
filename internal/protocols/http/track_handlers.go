package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"missionhub/pkg/models"
)

// trackTimeout bounds the detached tracking work after the response
const trackTimeout = 15 * time.Second

// trackAction is the inbound trigger. The caller's primary operation has
// already succeeded, so tracking is fire-and-forget: the request gets a
// 202 immediately and the engine runs on a detached context that
// survives a client disconnect. Engine errors never reach the caller.
func (s *Server) trackAction(c *gin.Context) {
	var req models.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}
	if req.UserID == "" || req.ActionType == "" {
		c.JSON(400, gin.H{"error": "user_id and action_type are required"})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
		defer cancel()
		s.trackerSvc.TrackAction(ctx, &req)
	}()

	c.JSON(202, models.APIResponse{
		Success:   true,
		Message:   "action accepted",
		Timestamp: time.Now(),
	})
}

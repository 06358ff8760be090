package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"missionhub/pkg/models"
)

// listMissions returns the full catalog for the admin surface
func (s *Server) listMissions(c *gin.Context) {
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

	missions, total, err := s.catalogSvc.ListMissions(c.Request.Context(), limit, (page-1)*limit)
	if err != nil {
		c.JSON(500, gin.H{"error": "failed to list missions"})
		return
	}

	c.JSON(200, gin.H{
		"data": missions,
		"meta": models.NewPaginationMeta(total, limit, (page-1)*limit),
	})
}

// getMission returns a single mission definition
func (s *Server) getMission(c *gin.Context) {
	mission, err := s.catalogSvc.GetMission(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrMissionNotFound) {
			c.JSON(404, gin.H{"error": "mission not found"})
			return
		}
		c.JSON(500, gin.H{"error": "failed to get mission"})
		return
	}
	c.JSON(200, mission)
}

// createMission validates and creates a mission definition
func (s *Server) createMission(c *gin.Context) {
	var input models.MissionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}

	mission, err := s.catalogSvc.CreateMission(c.Request.Context(), &input)
	if err != nil {
		status, message := catalogErrorResponse(err)
		c.JSON(status, gin.H{"error": message})
		return
	}
	c.JSON(201, mission)
}

// updateMission validates and rewrites a mission definition
func (s *Server) updateMission(c *gin.Context) {
	var input models.MissionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}

	mission, err := s.catalogSvc.UpdateMission(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		status, message := catalogErrorResponse(err)
		c.JSON(status, gin.H{"error": message})
		return
	}
	c.JSON(200, mission)
}

// deleteMission removes a mission and its progress rows
func (s *Server) deleteMission(c *gin.Context) {
	err := s.catalogSvc.DeleteMission(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrMissionNotFound) {
			c.JSON(404, gin.H{"error": "mission not found"})
			return
		}
		c.JSON(500, gin.H{"error": "failed to delete mission"})
		return
	}
	c.JSON(200, models.APIResponse{
		Success:   true,
		Message:   "mission deleted",
		Timestamp: time.Now(),
	})
}

// runSweep triggers both maintenance sweeps on demand
func (s *Server) runSweep(c *gin.Context) {
	result, err := s.sweeperSvc.RunAll(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error(), "partial": result})
		return
	}
	c.JSON(200, result)
}

// catalogErrorResponse maps catalog mutation errors to HTTP responses.
// Validation failures are synchronous admin feedback and propagate.
func catalogErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrMissionNotFound):
		return 404, "mission not found"
	case errors.Is(err, models.ErrInvalidTargetCount),
		errors.Is(err, models.ErrInvalidRewardPoints),
		errors.Is(err, models.ErrInvalidActiveWindow),
		errors.Is(err, models.ErrInvalidMissionKind),
		errors.Is(err, models.ErrInvalidTrigger),
		errors.Is(err, models.ErrInvalidInput):
		return 400, err.Error()
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		status := appErr.StatusCode
		if status == 0 {
			status = 500
		}
		return status, appErr.Message
	}

	return 500, "failed to save mission"
}

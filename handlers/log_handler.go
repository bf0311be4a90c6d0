package handlers

import (
	"net/http"
	"strconv"

	"rubricscore-backend/models"
	"rubricscore-backend/repository"

	"github.com/gin-gonic/gin"
)

// LogHandler handles HTTP requests for evaluation logs
type LogHandler struct {
	logRepo *repository.EvaluationLogRepository
}

// NewLogHandler creates a new log handler
func NewLogHandler(logRepo *repository.EvaluationLogRepository) *LogHandler {
	return &LogHandler{logRepo: logRepo}
}

// ListLogs handles GET /api/v1/logs?count=N
func (h *LogHandler) ListLogs(c *gin.Context) {
	count := 0
	if raw := c.Query("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_COUNT",
					"message": "count must be a non-negative integer",
				},
			})
			return
		}
		count = parsed
	}

	entries, err := h.logRepo.ListRecent(c.Request.Context(), count)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}
	if entries == nil {
		entries = []*models.EvaluationLog{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"logs": entries,
		},
	})
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"compliance-backend/models"
	"compliance-backend/service"

	"github.com/gin-gonic/gin"
)

// UpdateHandler handles HTTP requests for regulatory update tracking
type UpdateHandler struct {
	updateService *service.UpdateService
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(updateService *service.UpdateService) *UpdateHandler {
	return &UpdateHandler{updateService: updateService}
}

// CheckUpdates handles POST /api/updates/check
func (h *UpdateHandler) CheckUpdates(c *gin.Context) {
	var reqBody struct {
		Frameworks []string `json:"frameworks"`
	}
	// Body is optional, an empty one sweeps every framework
	if err := c.ShouldBindJSON(&reqBody); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Malformed request body",
			},
		})
		return
	}

	result, err := h.updateService.CheckFrameworks(c.Request.Context(), reqBody.Frameworks)
	if err != nil {
		status := http.StatusInternalServerError
		code := "CHECK_FAILED"
		switch {
		case errors.Is(err, service.ErrSerperNotConfigured):
			status = http.StatusServiceUnavailable
			code = "SEARCH_NOT_CONFIGURED"
		case errors.Is(err, service.ErrInvalidFramework):
			status = http.StatusBadRequest
			code = "INVALID_FRAMEWORK"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// ListUpdates handles GET /api/updates
func (h *UpdateHandler) ListUpdates(c *gin.Context) {
	framework := c.Query("framework")
	minSeverity := models.UpdateSeverity(strings.ToLower(c.Query("severity")))
	if minSeverity != "" && models.SeverityRank(minSeverity) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SEVERITY",
				"message": "Severity must be one of: critical, high, medium, low",
			},
		})
		return
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	updates, err := h.updateService.ListUpdates(c.Request.Context(), framework, minSeverity, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"count":   len(updates),
			"updates": updates,
		},
	})
}

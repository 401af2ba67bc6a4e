package handlers

import (
	"errors"
	"net/http"
	"strings"

	"compliance-backend/kb"

	"github.com/gin-gonic/gin"
)

// RequirementHandler exposes the regulatory knowledge base over HTTP
type RequirementHandler struct {
	kb *kb.KnowledgeBase
}

// NewRequirementHandler creates a new requirement handler
func NewRequirementHandler(knowledgeBase *kb.KnowledgeBase) *RequirementHandler {
	return &RequirementHandler{kb: knowledgeBase}
}

// ListFrameworks handles GET /api/frameworks
func (h *RequirementHandler) ListFrameworks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"frameworks": kb.Frameworks,
			"statistics": h.kb.Statistics(),
		},
	})
}

// ListRequirements handles GET /api/frameworks/:framework/requirements
func (h *RequirementHandler) ListRequirements(c *gin.Context) {
	framework := strings.ToUpper(c.Param("framework"))

	var err error
	requirements, err := h.kb.Requirements(framework)
	if err != nil {
		if errors.Is(err, kb.ErrUnknownFramework) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNKNOWN_FRAMEWORK",
					"message": "Unknown framework: " + c.Param("framework"),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	// Optional clause_type and keyword filters narrow the listing
	if clauseType := c.Query("clause_type"); clauseType != "" {
		requirements = h.kb.ByClauseType(clauseType, framework)
	} else if keyword := c.Query("keyword"); keyword != "" {
		requirements = h.kb.SearchKeyword(keyword, framework)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"framework":    framework,
			"count":        len(requirements),
			"requirements": requirements,
		},
	})
}

// GetRequirement handles GET /api/requirements/:id
func (h *RequirementHandler) GetRequirement(c *gin.Context) {
	req, err := h.kb.ByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Requirement not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    req,
	})
}

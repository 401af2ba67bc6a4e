package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"compliance-backend/repository"
	"compliance-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AnalysisHandler handles HTTP requests for compliance analysis
type AnalysisHandler struct {
	analysisService *service.AnalysisService
	batchService    *service.BatchService
	sheetsService   *service.SheetsService
	reportRepo      *repository.ReportRepository
	docRepo         *repository.DocumentRepository
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(
	analysisService *service.AnalysisService,
	batchService *service.BatchService,
	sheetsService *service.SheetsService,
	reportRepo *repository.ReportRepository,
	docRepo *repository.DocumentRepository,
) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		batchService:    batchService,
		sheetsService:   sheetsService,
		reportRepo:      reportRepo,
		docRepo:         docRepo,
	}
}

// StartAnalysis handles POST /api/documents/:id/analyze
func (h *AnalysisHandler) StartAnalysis(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid document ID format",
			},
		})
		return
	}

	var reqBody struct {
		Frameworks []string `json:"frameworks" binding:"required"`
	}
	if err := c.ShouldBindJSON(&reqBody); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Field 'frameworks' is required",
			},
		})
		return
	}

	result, err := h.analysisService.StartAnalysis(c.Request.Context(), service.StartAnalysisRequest{
		DocumentID: docID,
		Frameworks: reqBody.Frameworks,
	})
	if err != nil {
		status := http.StatusInternalServerError
		code := "ANALYSIS_FAILED"
		switch {
		case errors.Is(err, service.ErrDocumentNotFound):
			status = http.StatusNotFound
			code = "NOT_FOUND"
		case errors.Is(err, service.ErrInvalidFramework), errors.Is(err, service.ErrNoFrameworks):
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

	// Spawn background goroutine for actual processing
	// Use background context (not request context) to avoid cancellation
	go func() {
		bgCtx := context.Background()
		if err := h.analysisService.ProcessAnalysis(bgCtx, result.JobID); err != nil {
			// Error is logged and stored in job.ErrorMessage
			// No need to return to HTTP client (they'll poll status)
			log.Printf("Analysis job %s failed: %v", result.JobID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"job_id":  result.JobID,
			"status":  "pending",
			"message": "Analysis job created. Poll /api/jobs/:id for updates.",
		},
	})
}

// GetJobStatus handles GET /api/jobs/:id
func (h *AnalysisHandler) GetJobStatus(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid job ID format",
			},
		})
		return
	}

	result, err := h.analysisService.GetJobStatus(c.Request.Context(), service.GetJobStatusRequest{
		JobID: id,
	})
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Analysis job not found",
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

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Job,
	})
}

// GetReport handles GET /api/reports/:id
func (h *AnalysisHandler) GetReport(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid report ID format",
			},
		})
		return
	}

	report, err := h.reportRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Report not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// GetDocumentReport handles GET /api/documents/:id/report, returning the
// latest report for a document.
func (h *AnalysisHandler) GetDocumentReport(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid document ID format",
			},
		})
		return
	}

	report, err := h.reportRepo.GetByDocumentID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "No report found for document",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// ExportReport handles GET /api/reports/:id/export?format=json|csv|pdf
func (h *AnalysisHandler) ExportReport(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid report ID format",
			},
		})
		return
	}

	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "json")))

	report, err := h.reportRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Report not found",
			},
		})
		return
	}

	data, contentType, filename, err := service.Export(report, format)
	if err != nil {
		status := http.StatusInternalServerError
		code := "EXPORT_FAILED"
		if errors.Is(err, service.ErrUnsupportedExportFormat) {
			status = http.StatusBadRequest
			code = "INVALID_FORMAT"
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

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, contentType, data)
}

// BatchAnalyze handles POST /api/batch/analyze
func (h *AnalysisHandler) BatchAnalyze(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Multipart form with 'files' is required",
			},
		})
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILES",
				"message": "At least one file is required",
			},
		})
		return
	}

	frameworks := form.Value["frameworks"]
	if len(frameworks) == 1 && strings.Contains(frameworks[0], ",") {
		frameworks = strings.Split(frameworks[0], ",")
	}

	var files []service.BatchFile
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FILE_OPEN_ERROR",
					"message": err.Error(),
				},
			})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FILE_READ_ERROR",
					"message": err.Error(),
				},
			})
			return
		}
		files = append(files, service.BatchFile{
			Filename: fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}

	result, err := h.batchService.AnalyzeBatch(c.Request.Context(), files, frameworks)
	if err != nil {
		status := http.StatusInternalServerError
		code := "BATCH_FAILED"
		switch {
		case errors.Is(err, service.ErrTooManyFiles):
			status = http.StatusBadRequest
			code = "TOO_MANY_FILES"
		case errors.Is(err, service.ErrInvalidFramework), errors.Is(err, service.ErrNoFrameworks):
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

// SyncReportToSheets handles POST /api/reports/:id/sync/sheets
func (h *AnalysisHandler) SyncReportToSheets(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid report ID format",
			},
		})
		return
	}

	if h.sheetsService == nil || !h.sheetsService.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SHEETS_NOT_CONFIGURED",
				"message": "Google Sheets integration is not configured",
			},
		})
		return
	}

	report, err := h.reportRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Report not found",
			},
		})
		return
	}

	filename := report.DocumentID.String()
	if doc, err := h.docRepo.GetByID(c.Request.Context(), report.DocumentID); err == nil {
		filename = doc.Filename
	}

	if err := h.sheetsService.SyncReport(c.Request.Context(), report, filename); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SYNC_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"report_id": id,
			"synced":    true,
		},
	})
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"compliance-backend/config"
	"compliance-backend/models"
	"compliance-backend/repository"
	"compliance-backend/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BatchService analyzes several contracts in one request with bounded
// concurrency.
type BatchService struct {
	docRepo    *repository.DocumentRepository
	reportRepo *repository.ReportRepository
	analysis   *AnalysisService
	store      storage.Storage
	params     config.Analysis
}

// BatchServiceOption is a functional option for BatchService
type BatchServiceOption func(*BatchService)

// BatchWithDocumentRepository sets the document repository
func BatchWithDocumentRepository(repo *repository.DocumentRepository) BatchServiceOption {
	return func(s *BatchService) {
		s.docRepo = repo
	}
}

// BatchWithReportRepository sets the report repository
func BatchWithReportRepository(repo *repository.ReportRepository) BatchServiceOption {
	return func(s *BatchService) {
		s.reportRepo = repo
	}
}

// BatchWithAnalysisService sets the analysis service
func BatchWithAnalysisService(analysis *AnalysisService) BatchServiceOption {
	return func(s *BatchService) {
		s.analysis = analysis
	}
}

// BatchWithStorage sets the document storage backend
func BatchWithStorage(store storage.Storage) BatchServiceOption {
	return func(s *BatchService) {
		s.store = store
	}
}

// BatchWithParams sets the analysis parameters
func BatchWithParams(params config.Analysis) BatchServiceOption {
	return func(s *BatchService) {
		s.params = params
	}
}

// NewBatchService creates a new batch analysis service
func NewBatchService(opts ...BatchServiceOption) *BatchService {
	s := &BatchService{params: config.DefaultAnalysis()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var ErrTooManyFiles = errors.New("too many files in batch")

// batchAllowedMimeTypes mirrors the single-upload allowlist
var batchAllowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"text/plain":      true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// BatchFile is one uploaded file in a batch request
type BatchFile struct {
	Filename string
	MimeType string
	Data     []byte
}

// BatchFileResult is the outcome of analyzing one file in a batch
type BatchFileResult struct {
	Filename   string                   `json:"filename"`
	Success    bool                     `json:"success"`
	DocumentID uuid.UUID                `json:"document_id,omitempty"`
	Report     *models.ComplianceReport `json:"report,omitempty"`
	Error      string                   `json:"error,omitempty"`
	Elapsed    string                   `json:"elapsed"`
}

// BatchMetrics aggregates outcomes across a batch
type BatchMetrics struct {
	TotalFiles    int     `json:"total_files"`
	Succeeded     int     `json:"succeeded"`
	Failed        int     `json:"failed"`
	AverageScore  float64 `json:"average_score"`
	TotalIssues   int     `json:"total_issues"`
	HighRiskCount int     `json:"high_risk_count"`
	WallTime      string  `json:"wall_time"`
}

// BatchResult is the full response for a batch analysis
type BatchResult struct {
	Results []BatchFileResult `json:"results"`
	Metrics BatchMetrics      `json:"metrics"`
}

// AnalyzeBatch runs the full pipeline over each file using a bounded worker
// pool. One file failing never aborts the others.
func (s *BatchService) AnalyzeBatch(ctx context.Context, files []BatchFile, frameworks []string) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, errors.New("no files provided")
	}
	if len(files) > s.params.MaxBatchFiles {
		return nil, fmt.Errorf("%w: %d files exceeds limit of %d", ErrTooManyFiles, len(files), s.params.MaxBatchFiles)
	}
	if _, err := normalizeFrameworks(frameworks); err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]BatchFileResult, len(files))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.params.BatchWorkers)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			result := s.analyzeOne(gctx, file, frameworks)
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; per-file failures live in their results
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics := BatchMetrics{
		TotalFiles: len(files),
		WallTime:   time.Since(start).Round(time.Millisecond).String(),
	}
	var scoreSum float64
	for _, r := range results {
		if !r.Success {
			metrics.Failed++
			continue
		}
		metrics.Succeeded++
		scoreSum += r.Report.OverallScore
		metrics.TotalIssues += r.Report.Summary.NonCompliantClauses + r.Report.Summary.PartialClauses + len(r.Report.MissingRequirements)
		metrics.HighRiskCount += len(r.Report.HighRiskItems)
	}
	if metrics.Succeeded > 0 {
		metrics.AverageScore = round2(scoreSum / float64(metrics.Succeeded))
	}

	log.Printf("Batch analysis finished: %d/%d succeeded in %s", metrics.Succeeded, metrics.TotalFiles, metrics.WallTime)
	return &BatchResult{Results: results, Metrics: metrics}, nil
}

// validateFile applies the same size cap and MIME allowlist as a single
// upload, so batch files never reach storage when they would have been
// rejected at the upload endpoint.
func (s *BatchService) validateFile(file BatchFile) error {
	if int64(len(file.Data)) > s.params.MaxFileSize {
		return fmt.Errorf("file exceeds maximum size of %d bytes", s.params.MaxFileSize)
	}

	mimeType := batchMimeType(file)
	if !batchAllowedMimeTypes[mimeType] && !strings.HasPrefix(mimeType, "text/") {
		return fmt.Errorf("unsupported file type: %s", mimeType)
	}
	return nil
}

// batchMimeType falls back to extension sniffing when the multipart part
// carried no usable Content-Type.
func batchMimeType(file BatchFile) string {
	if file.MimeType != "" && file.MimeType != "application/octet-stream" {
		return file.MimeType
	}

	lower := strings.ToLower(file.Filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(lower, ".txt"):
		return "text/plain"
	case strings.HasSuffix(lower, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

// analyzeOne uploads a single file, runs the analysis pipeline to completion
// and loads the resulting report.
func (s *BatchService) analyzeOne(ctx context.Context, file BatchFile, frameworks []string) BatchFileResult {
	start := time.Now()
	result := BatchFileResult{Filename: file.Filename}

	fail := func(err error) BatchFileResult {
		result.Error = err.Error()
		result.Elapsed = time.Since(start).Round(time.Millisecond).String()
		return result
	}

	// Reject oversized or disallowed files before touching storage
	if err := s.validateFile(file); err != nil {
		return fail(err)
	}

	doc := &models.Document{
		ID:       uuid.New(),
		Filename: file.Filename,
		MimeType: batchMimeType(file),
		Size:     int64(len(file.Data)),
		Source:   models.SourceUpload,
	}

	storagePath, err := s.store.Upload(ctx, doc.ID, file.Filename, doc.MimeType, bytes.NewReader(file.Data))
	if err != nil {
		return fail(fmt.Errorf("failed to store file: %w", err))
	}
	doc.StoragePath = storagePath

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return fail(fmt.Errorf("failed to save document: %w", err))
	}
	result.DocumentID = doc.ID

	started, err := s.analysis.StartAnalysis(ctx, StartAnalysisRequest{
		DocumentID: doc.ID,
		Frameworks: frameworks,
	})
	if err != nil {
		return fail(err)
	}

	// Batch runs the pipeline synchronously inside the worker pool
	if err := s.analysis.ProcessAnalysis(ctx, started.JobID); err != nil {
		return fail(err)
	}

	report, err := s.reportRepo.GetByDocumentID(ctx, doc.ID)
	if err != nil {
		return fail(fmt.Errorf("failed to load report: %w", err))
	}

	result.Success = true
	result.Report = report
	result.Elapsed = time.Since(start).Round(time.Millisecond).String()
	return result
}

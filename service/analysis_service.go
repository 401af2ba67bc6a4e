package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"compliance-backend/config"
	"compliance-backend/kb"
	"compliance-backend/models"
	"compliance-backend/repository"
	"compliance-backend/storage"

	"github.com/google/uuid"
)

// AnalysisService runs compliance analysis over contract documents
type AnalysisService struct {
	docRepo    *repository.DocumentRepository
	jobRepo    *repository.AnalysisJobRepository
	reportRepo *repository.ReportRepository
	reqRepo    *repository.RequirementRepository
	kb         *kb.KnowledgeBase
	gemini     *GeminiClient
	store      storage.Storage
	notifier   *SlackNotifier
	params     config.Analysis
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithDocumentRepository sets the document repository
func AnalysisWithDocumentRepository(repo *repository.DocumentRepository) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.docRepo = repo
	}
}

// AnalysisWithJobRepository sets the analysis job repository
func AnalysisWithJobRepository(repo *repository.AnalysisJobRepository) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.jobRepo = repo
	}
}

// AnalysisWithReportRepository sets the report repository
func AnalysisWithReportRepository(repo *repository.ReportRepository) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.reportRepo = repo
	}
}

// AnalysisWithRequirementRepository sets the requirement repository
func AnalysisWithRequirementRepository(repo *repository.RequirementRepository) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.reqRepo = repo
	}
}

// AnalysisWithKnowledgeBase sets the regulatory knowledge base
func AnalysisWithKnowledgeBase(knowledgeBase *kb.KnowledgeBase) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.kb = knowledgeBase
	}
}

// AnalysisWithGeminiClient sets the Gemini API client
func AnalysisWithGeminiClient(client *GeminiClient) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.gemini = client
	}
}

// AnalysisWithStorage sets the document storage backend
func AnalysisWithStorage(store storage.Storage) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.store = store
	}
}

// AnalysisWithNotifier sets the Slack notifier
func AnalysisWithNotifier(notifier *SlackNotifier) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.notifier = notifier
	}
}

// AnalysisWithParams sets the analysis parameters
func AnalysisWithParams(params config.Analysis) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.params = params
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{params: config.DefaultAnalysis()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrJobNotFound      = errors.New("analysis job not found")
	ErrInvalidFramework = errors.New("invalid framework")
	ErrNoFrameworks     = errors.New("at least one framework is required")
	ErrJobCreationFailed = errors.New("failed to create analysis job")
)

// StartAnalysisRequest represents a request to analyze a document
type StartAnalysisRequest struct {
	DocumentID uuid.UUID
	Frameworks []string
}

// StartAnalysisResult represents the result of creating an analysis job
type StartAnalysisResult struct {
	JobID uuid.UUID
}

// GetJobStatusRequest represents a request to get job status
type GetJobStatusRequest struct {
	JobID uuid.UUID
}

// GetJobStatusResult represents the result of getting job status
type GetJobStatusResult struct {
	Job *models.AnalysisJob
}

// StartAnalysis creates an analysis job and returns immediately.
// The actual work happens in ProcessAnalysis, run from a goroutine.
func (s *AnalysisService) StartAnalysis(
	ctx context.Context,
	req StartAnalysisRequest,
) (*StartAnalysisResult, error) {
	if s.docRepo == nil {
		return nil, errors.New("document repository not set")
	}
	if s.jobRepo == nil {
		return nil, errors.New("analysis job repository not set")
	}

	frameworks, err := normalizeFrameworks(req.Frameworks)
	if err != nil {
		return nil, err
	}

	if _, err := s.docRepo.GetByID(ctx, req.DocumentID); err != nil {
		return nil, ErrDocumentNotFound
	}

	job := &models.AnalysisJob{
		DocumentID: req.DocumentID,
		Frameworks: frameworks,
		Status:     models.JobStatusPending,
		Steps:      initializeSteps(frameworks),
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, ErrJobCreationFailed
	}

	return &StartAnalysisResult{JobID: job.ID}, nil
}

// GetJobStatus retrieves the status of an analysis job
func (s *AnalysisService) GetJobStatus(
	ctx context.Context,
	req GetJobStatusRequest,
) (*GetJobStatusResult, error) {
	if s.jobRepo == nil {
		return nil, errors.New("analysis job repository not set")
	}

	job, err := s.jobRepo.GetByID(ctx, req.JobID)
	if err != nil {
		return nil, ErrJobNotFound
	}

	return &GetJobStatusResult{Job: job}, nil
}

// normalizeFrameworks uppercases framework names and validates them
// against the knowledge base's supported set.
func normalizeFrameworks(frameworks []string) ([]string, error) {
	if len(frameworks) == 0 {
		return nil, ErrNoFrameworks
	}

	supported := make(map[string]bool, len(kb.Frameworks))
	for _, fw := range kb.Frameworks {
		supported[fw] = true
	}

	seen := make(map[string]bool)
	var normalized []string
	for _, fw := range frameworks {
		name := strings.ToUpper(strings.TrimSpace(fw))
		if !supported[name] {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFramework, fw)
		}
		if !seen[name] {
			seen[name] = true
			normalized = append(normalized, name)
		}
	}
	return normalized, nil
}

const (
	stepExtract    = "Extracting Text"
	stepSegment    = "Segmenting Clauses"
	stepClassify   = "Classifying Clauses"
	stepScore      = "Scoring Compliance"
	stepRecommend  = "Generating Recommendations"
	stepSaveReport = "Saving Report"
)

func matchStepName(framework string) string {
	return "Checking " + framework + " Compliance"
}

// initializeSteps creates the initial analysis steps for the job
func initializeSteps(frameworks []string) models.AnalysisSteps {
	steps := models.AnalysisSteps{
		{Name: stepExtract, Status: "pending"},
		{Name: stepSegment, Status: "pending"},
		{Name: stepClassify, Status: "pending"},
	}

	for _, fw := range frameworks {
		steps = append(steps, models.AnalysisStep{
			Name:   matchStepName(fw),
			Status: "pending",
		})
	}

	steps = append(steps,
		models.AnalysisStep{Name: stepScore, Status: "pending"},
		models.AnalysisStep{Name: stepRecommend, Status: "pending"},
		models.AnalysisStep{Name: stepSaveReport, Status: "pending"},
	)
	return steps
}

// ProcessAnalysis performs the actual analysis work in the background.
// This method runs in a goroutine and can take tens of seconds for a
// long contract.
func (s *AnalysisService) ProcessAnalysis(ctx context.Context, jobID uuid.UUID) error {
	if s.jobRepo == nil {
		return errors.New("analysis job repository not set")
	}
	if s.docRepo == nil {
		return errors.New("document repository not set")
	}

	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load analysis job: %w", err)
	}

	doc, err := s.docRepo.GetByID(ctx, job.DocumentID)
	if err != nil {
		s.markJobFailed(ctx, jobID, "failed to load document: "+err.Error())
		return err
	}

	if err := s.jobRepo.UpdateStatus(ctx, jobID, models.JobStatusInProgress); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	// 1. Extract text
	if err := s.updateStepStatus(ctx, jobID, stepExtract, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	reader, err := s.store.Download(ctx, doc.StoragePath)
	if err != nil {
		s.markJobFailed(ctx, jobID, "failed to download document: "+err.Error())
		return err
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		s.markJobFailed(ctx, jobID, "failed to read document: "+err.Error())
		return err
	}

	text, err := ExtractText(doc.Filename, data)
	if err != nil {
		s.markJobFailed(ctx, jobID, "failed to extract text: "+err.Error())
		return err
	}

	if err := s.updateStepStatus(ctx, jobID, stepExtract, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	// 2. Segment clauses
	if err := s.updateStepStatus(ctx, jobID, stepSegment, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	clauses := SegmentClauses(text, s.params.MinClauseLength)
	if len(clauses) == 0 {
		s.markJobFailed(ctx, jobID, "document contains no clauses to analyze")
		return errors.New("document contains no clauses to analyze")
	}
	log.Printf("Segmented document %s into %d clauses", doc.ID, len(clauses))

	if err := s.updateStepStatus(ctx, jobID, stepSegment, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	// 3. Classify clauses and generate embeddings
	if err := s.updateStepStatus(ctx, jobID, stepClassify, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	analyses, err := s.classifyClauses(ctx, clauses)
	if err != nil {
		s.markJobFailed(ctx, jobID, "failed to classify clauses: "+err.Error())
		return err
	}

	if err := s.updateStepStatus(ctx, jobID, stepClassify, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	// 4. Match against each framework
	var allResults models.ClauseResults
	var allMissing models.MissingRequirements

	for _, framework := range job.Frameworks {
		stepName := matchStepName(framework)
		if err := s.updateStepStatus(ctx, jobID, stepName, "in_progress"); err != nil {
			s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
			return err
		}

		results, missing, err := s.matchFramework(ctx, analyses, framework)
		if err != nil {
			s.markJobFailed(ctx, jobID, fmt.Sprintf("failed to match %s requirements: %v", framework, err))
			return fmt.Errorf("failed to match %s requirements: %w", framework, err)
		}
		allResults = append(allResults, results...)
		allMissing = append(allMissing, missing...)

		if err := s.updateStepStatus(ctx, jobID, stepName, "completed"); err != nil {
			s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
			return err
		}
	}

	// 5. Score
	if err := s.updateStepStatus(ctx, jobID, stepScore, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	overallScore := OverallScore(allResults, allMissing)
	frameworkScores := make(models.FrameworkScores, len(job.Frameworks))
	for _, fw := range job.Frameworks {
		frameworkScores[fw] = FrameworkScore(allResults, allMissing, fw)
	}

	if err := s.updateStepStatus(ctx, jobID, stepScore, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	// 6. Recommendations
	if err := s.updateStepStatus(ctx, jobID, stepRecommend, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	s.addRecommendations(ctx, allResults, allMissing)

	if err := s.updateStepStatus(ctx, jobID, stepRecommend, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	// 7. Save report
	if err := s.updateStepStatus(ctx, jobID, stepSaveReport, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	report := &models.ComplianceReport{
		DocumentID:          doc.ID,
		FrameworksChecked:   job.Frameworks,
		OverallScore:        overallScore,
		FrameworkScores:     frameworkScores,
		ClauseResults:       allResults,
		MissingRequirements: allMissing,
		HighRiskItems:       HighRiskItems(allResults),
		PriorityIssues:      PriorityIssues(allResults, defaultPriorityTopN),
		Summary:             Summarize(allResults),
	}

	if err := s.reportRepo.Create(ctx, report); err != nil {
		s.markJobFailed(ctx, jobID, "failed to save report: "+err.Error())
		return err
	}

	if err := s.updateStepStatus(ctx, jobID, stepSaveReport, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	if err := s.jobRepo.Complete(ctx, jobID, report.ID); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	if s.notifier != nil {
		s.notifier.LogAndNotifyAnalysis(report, doc.Filename)
	}

	log.Printf("Analysis job %s completed: score %.2f, %d clauses, %d missing requirements",
		jobID, overallScore, len(clauses), len(allMissing))
	return nil
}

// classifyClauses classifies each clause and generates its embedding
func (s *AnalysisService) classifyClauses(ctx context.Context, clauses []models.Clause) ([]models.ClauseAnalysis, error) {
	analyses := make([]models.ClauseAnalysis, 0, len(clauses))

	for _, clause := range clauses {
		clauseType, confidence, _ := ClassifyClause(clause.Text, 3)
		regType, applicable := RegulatoryType(clauseType)

		analysis := models.ClauseAnalysis{
			Clause:         clause,
			ClauseType:     clauseType,
			RegulatoryType: regType,
			Confidence:     confidence,
		}

		// Metadata clauses never match requirements, so skip the
		// embedding call for them.
		if applicable {
			embedding, err := s.gemini.EmbedText(ctx, clause.Text, "RETRIEVAL_QUERY")
			if err != nil {
				return nil, fmt.Errorf("embedding failed for %s: %w", clause.ID, err)
			}
			analysis.Embedding = embedding
		}

		analyses = append(analyses, analysis)
	}

	return analyses, nil
}

// matchFramework matches all clauses against one framework's requirements
// and identifies missing mandatory requirements.
func (s *AnalysisService) matchFramework(
	ctx context.Context,
	analyses []models.ClauseAnalysis,
	framework string,
) (models.ClauseResults, models.MissingRequirements, error) {
	results := make(models.ClauseResults, 0, len(analyses))
	covered := make(map[string]bool)

	for _, analysis := range analyses {
		if analysis.Embedding == nil {
			results = append(results, models.ClauseResult{
				ClauseID:   analysis.Clause.ID,
				ClauseText: analysis.Clause.Text,
				ClauseType: analysis.ClauseType,
				Framework:  framework,
				Status:     models.StatusNotApplicable,
				RiskLevel:  models.RiskLow,
				Confidence: analysis.Confidence,
			})
			continue
		}

		// A wider search feeds the coverage check; the top matches
		// feed the clause result.
		matches, err := s.searchRequirements(ctx, analysis, framework, s.params.CoverageTopK)
		if err != nil {
			return nil, nil, err
		}

		for _, m := range matches {
			covered[m.requirement.RequirementID] = true
		}

		if len(matches) > s.params.TopKMatches {
			matches = matches[:s.params.TopKMatches]
		}

		results = append(results, s.buildClauseResult(analysis, framework, matches))
	}

	var missing models.MissingRequirements
	mandatory, err := s.kb.Mandatory(framework)
	if err != nil {
		return nil, nil, err
	}
	for _, req := range mandatory {
		if !covered[req.RequirementID] {
			missing = append(missing, models.MissingRequirement{Requirement: req})
		}
	}

	return results, missing, nil
}

type requirementMatch struct {
	requirement models.Requirement
	similarity  float64
}

// searchRequirements finds requirements matching a clause, first within its
// regulatory clause type, then across the whole framework when the type has
// no requirements. Matches below the similarity threshold are dropped.
func (s *AnalysisService) searchRequirements(
	ctx context.Context,
	analysis models.ClauseAnalysis,
	framework string,
	limit int,
) ([]requirementMatch, error) {
	reqs, err := s.reqRepo.Search(ctx, analysis.Embedding, framework, analysis.RegulatoryType, limit)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		reqs, err = s.reqRepo.Search(ctx, analysis.Embedding, framework, "", limit)
		if err != nil {
			return nil, err
		}
	}

	var matches []requirementMatch
	for _, req := range reqs {
		similarity := 1.0 - req.Distance
		if similarity < 0 {
			similarity = 0
		}
		if similarity > 1 {
			similarity = 1
		}
		if similarity < s.params.MatchThreshold {
			continue
		}
		matches = append(matches, requirementMatch{requirement: req, similarity: similarity})
	}
	return matches, nil
}

// buildClauseResult buckets a clause into a compliance status based on its
// best match similarity.
func (s *AnalysisService) buildClauseResult(
	analysis models.ClauseAnalysis,
	framework string,
	matches []requirementMatch,
) models.ClauseResult {
	result := models.ClauseResult{
		ClauseID:   analysis.Clause.ID,
		ClauseText: analysis.Clause.Text,
		ClauseType: analysis.ClauseType,
		Framework:  framework,
		Confidence: analysis.Confidence,
	}

	if len(matches) == 0 {
		result.Status = models.StatusNotApplicable
		result.RiskLevel = models.RiskLow
		return result
	}

	for _, m := range matches {
		result.Matches = append(result.Matches, models.RequirementMatch{
			RequirementID:    m.requirement.RequirementID,
			ArticleReference: m.requirement.ArticleReference,
			Similarity:       round2(m.similarity),
		})
	}

	best := matches[0]
	switch {
	case best.similarity >= s.params.CompliantThreshold:
		result.Status = models.StatusCompliant
		result.RiskLevel = models.RiskLow
	case best.similarity >= s.params.PartialThreshold:
		result.Status = models.StatusPartial
		result.RiskLevel = best.requirement.RiskLevel
	default:
		result.Status = models.StatusNonCompliant
		result.RiskLevel = best.requirement.RiskLevel
	}

	return result
}

// addRecommendations fills in recommendations for non-compliant results and
// missing requirements. Gemini writes them when available; a template
// fallback keeps the pipeline going when generation fails.
func (s *AnalysisService) addRecommendations(
	ctx context.Context,
	results models.ClauseResults,
	missing models.MissingRequirements,
) {
	for i := range results {
		if results[i].Status != models.StatusNonCompliant && results[i].Status != models.StatusPartial {
			continue
		}
		if len(results[i].Matches) == 0 {
			continue
		}

		req, err := s.kb.ByID(results[i].Matches[0].RequirementID)
		if err != nil {
			continue
		}
		results[i].Recommendation = s.recommendClauseFix(ctx, results[i].ClauseText, req)
	}

	for i := range missing {
		missing[i].Recommendation = s.recommendMissingClause(ctx, missing[i].Requirement)
	}
}

func (s *AnalysisService) recommendClauseFix(ctx context.Context, clauseText string, req models.Requirement) string {
	prompt := fmt.Sprintf(
		"You are a contracts compliance reviewer. The following contract clause only partially satisfies %s %s (%s).\n\n"+
			"Clause:\n%s\n\n"+
			"Requirement: %s\n\n"+
			"Write a single short paragraph recommending how to revise the clause. Be specific about missing elements: %s.",
		req.Framework, req.ArticleReference, req.ClauseType,
		clauseText,
		req.Description,
		strings.Join(req.MandatoryElements, "; "),
	)

	if s.gemini != nil {
		text, err := s.gemini.GenerateText(ctx, prompt, 0.3)
		if err == nil {
			return strings.TrimSpace(text)
		}
		log.Printf("Warning: recommendation generation failed, falling back to template: %v", err)
	}

	return fmt.Sprintf(
		"Revise this clause to fully satisfy %s %s: %s. Ensure it covers: %s.",
		req.Framework, req.ArticleReference, req.Description,
		strings.Join(req.MandatoryElements, "; "),
	)
}

func (s *AnalysisService) recommendMissingClause(ctx context.Context, req models.Requirement) string {
	prompt := fmt.Sprintf(
		"You are a contracts compliance reviewer. The contract under review has no clause covering %s %s.\n\n"+
			"Requirement: %s\n\n"+
			"Write a single short paragraph recommending what clause to add. Mention the required elements: %s.",
		req.Framework, req.ArticleReference,
		req.Description,
		strings.Join(req.MandatoryElements, "; "),
	)

	if s.gemini != nil {
		text, err := s.gemini.GenerateText(ctx, prompt, 0.3)
		if err == nil {
			return strings.TrimSpace(text)
		}
		log.Printf("Warning: recommendation generation failed, falling back to template: %v", err)
	}

	return fmt.Sprintf(
		"Add a clause addressing %s %s: %s. Include: %s.",
		req.Framework, req.ArticleReference, req.Description,
		strings.Join(req.MandatoryElements, "; "),
	)
}

// updateStepStatus updates the status of a specific step in the analysis job
func (s *AnalysisService) updateStepStatus(ctx context.Context, jobID uuid.UUID, stepName, status string) error {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	steps := job.Steps
	var currentStep string
	if job.CurrentStep != nil {
		currentStep = *job.CurrentStep
	}

	for i := range steps {
		if steps[i].Name == stepName {
			steps[i].Status = status
			if status == "in_progress" {
				currentStep = stepName
			}
			break
		}
	}

	return s.jobRepo.UpdateProgress(ctx, jobID, currentStep, steps)
}

// markJobFailed marks a job as failed with an error message
func (s *AnalysisService) markJobFailed(ctx context.Context, jobID uuid.UUID, errorMessage string) {
	if err := s.jobRepo.Fail(ctx, jobID, errorMessage); err != nil {
		log.Printf("Warning: failed to mark job %s as failed: %v", jobID, err)
	}
}

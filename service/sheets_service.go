package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"compliance-backend/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var ErrSheetsNotConfigured = errors.New("Google Sheets integration not configured")

// SheetsService syncs compliance reports into a Google Spreadsheet using a
// service account.
type SheetsService struct {
	credentialsPath string
	spreadsheetID   string
	sheetsService   *sheets.Service
}

// NewSheetsService creates a Sheets sync service from environment variables.
// GOOGLE_SHEETS_CREDENTIALS points at the service-account JSON key and
// GOOGLE_SHEETS_SPREADSHEET_ID names the target spreadsheet.
func NewSheetsService() *SheetsService {
	return &SheetsService{
		credentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS"),
		spreadsheetID:   os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"),
	}
}

// Enabled reports whether the integration is configured
func (s *SheetsService) Enabled() bool {
	return s.credentialsPath != "" && s.spreadsheetID != ""
}

func (s *SheetsService) service(ctx context.Context) (*sheets.Service, error) {
	if !s.Enabled() {
		return nil, ErrSheetsNotConfigured
	}
	if s.sheetsService != nil {
		return s.sheetsService, nil
	}

	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(s.credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Sheets client: %w", err)
	}
	s.sheetsService = svc
	return svc, nil
}

// SyncReport writes a report's clause results and missing requirements as
// two tabs of the configured spreadsheet, then appends a row to the running
// Sync Log tab.
func (s *SheetsService) SyncReport(ctx context.Context, report *models.ComplianceReport, filename string) error {
	svc, err := s.service(ctx)
	if err != nil {
		return err
	}

	resultsTab := fmt.Sprintf("Results %s", report.ID.String()[:8])
	missingTab := fmt.Sprintf("Missing %s", report.ID.String()[:8])

	if err := s.ensureSheets(ctx, svc, resultsTab, missingTab, "Sync Log"); err != nil {
		return err
	}

	resultRows := [][]interface{}{
		{"Clause ID", "Framework", "Clause Type", "Status", "Risk Level", "Confidence", "Recommendation"},
	}
	for _, r := range report.ClauseResults {
		resultRows = append(resultRows, []interface{}{
			r.ClauseID, r.Framework, r.ClauseType, string(r.Status),
			string(r.RiskLevel), fmt.Sprintf("%.2f", r.Confidence), r.Recommendation,
		})
	}
	if err := s.writeRange(ctx, svc, resultsTab, resultRows); err != nil {
		return fmt.Errorf("failed to write clause results: %w", err)
	}

	missingRows := [][]interface{}{
		{"Requirement ID", "Framework", "Article", "Description", "Risk Level", "Recommendation"},
	}
	for _, m := range report.MissingRequirements {
		missingRows = append(missingRows, []interface{}{
			m.Requirement.RequirementID, m.Requirement.Framework,
			m.Requirement.ArticleReference, m.Requirement.Description,
			string(m.Requirement.RiskLevel), m.Recommendation,
		})
	}
	if err := s.writeRange(ctx, svc, missingTab, missingRows); err != nil {
		return fmt.Errorf("failed to write missing requirements: %w", err)
	}

	logRow := [][]interface{}{{
		time.Now().Format(time.RFC3339),
		report.ID.String(),
		filename,
		fmt.Sprintf("%.1f", report.OverallScore),
		len(report.HighRiskItems),
		len(report.MissingRequirements),
	}}
	appendReq := &sheets.ValueRange{Values: logRow}
	_, err = svc.Spreadsheets.Values.
		Append(s.spreadsheetID, "Sync Log!A:F", appendReq).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append sync log row: %w", err)
	}

	return nil
}

// ensureSheets adds any missing tabs to the spreadsheet
func (s *SheetsService) ensureSheets(ctx context.Context, svc *sheets.Service, titles ...string) error {
	spreadsheet, err := svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to load spreadsheet: %w", err)
	}

	existing := make(map[string]bool)
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			existing[sheet.Properties.Title] = true
		}
	}

	var requests []*sheets.Request
	for _, title := range titles {
		if existing[title] {
			continue
		}
		requests = append(requests, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		})
	}

	if len(requests) == 0 {
		return nil
	}

	_, err = svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to add sheets: %w", err)
	}
	return nil
}

func (s *SheetsService) writeRange(ctx context.Context, svc *sheets.Service, tab string, values [][]interface{}) error {
	valueRange := &sheets.ValueRange{Values: values}
	_, err := svc.Spreadsheets.Values.
		Update(s.spreadsheetID, fmt.Sprintf("%s!A1", tab), valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"compliance-backend/models"

	"github.com/go-pdf/fpdf"
)

// ExportFormat identifies a report export format
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
	FormatPDF  ExportFormat = "pdf"
)

var ErrUnsupportedExportFormat = errors.New("unsupported export format")

// Export renders a compliance report in the requested format and returns the
// payload with its content type and a download filename.
func Export(report *models.ComplianceReport, format ExportFormat) ([]byte, string, string, error) {
	base := fmt.Sprintf("compliance-report-%s", report.ID)

	switch format {
	case FormatJSON:
		data, err := exportJSON(report)
		return data, "application/json", base + ".json", err
	case FormatCSV:
		data, err := exportCSV(report)
		return data, "text/csv", base + ".csv", err
	case FormatPDF:
		data, err := exportPDF(report)
		return data, "application/pdf", base + ".pdf", err
	default:
		return nil, "", "", fmt.Errorf("%w: %s", ErrUnsupportedExportFormat, format)
	}
}

func exportJSON(report *models.ComplianceReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

func exportCSV(report *models.ComplianceReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"clause_id", "framework", "clause_type", "status", "risk_level", "confidence", "matched_requirements", "recommendation"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, result := range report.ClauseResults {
		var matched []string
		for _, m := range result.Matches {
			matched = append(matched, fmt.Sprintf("%s (%.2f)", m.RequirementID, m.Similarity))
		}
		record := []string{
			result.ClauseID,
			result.Framework,
			result.ClauseType,
			string(result.Status),
			string(result.RiskLevel),
			fmt.Sprintf("%.2f", result.Confidence),
			strings.Join(matched, "; "),
			result.Recommendation,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	for _, missing := range report.MissingRequirements {
		record := []string{
			missing.Requirement.RequirementID,
			missing.Requirement.Framework,
			missing.Requirement.ClauseType,
			"missing",
			string(missing.Requirement.RiskLevel),
			"",
			missing.Requirement.ArticleReference,
			missing.Recommendation,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportPDF(report *models.ComplianceReport) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Title block
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Compliance Analysis Report")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Report %s - generated %s", report.ID, report.CreatedAt.Format("2006-01-02 15:04")))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Frameworks: "+strings.Join(report.FrameworksChecked, ", "))
	pdf.Ln(12)

	// Score summary
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, fmt.Sprintf("Overall Score: %.1f / 100", report.OverallScore))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(60, 7, "Framework", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Score", "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, fw := range report.FrameworksChecked {
		pdf.CellFormat(60, 7, fw, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.1f", report.FrameworkScores[fw]), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	// Summary counts
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf(
		"Clauses: %d total, %d compliant, %d partial, %d non-compliant, %d not applicable",
		report.Summary.TotalClauses,
		report.Summary.CompliantClauses,
		report.Summary.PartialClauses,
		report.Summary.NonCompliantClauses,
		report.Summary.NotApplicable,
	))
	pdf.Ln(10)

	// High-risk items
	if len(report.HighRiskItems) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, fmt.Sprintf("High-Risk Items (%d)", len(report.HighRiskItems)))
		pdf.Ln(9)

		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(30, 7, "Framework", "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 7, "Clause Type", "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, "Status", "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, "Confidence", "1", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, item := range report.HighRiskItems {
			pdf.CellFormat(30, 7, item.Framework, "1", 0, "L", false, 0, "")
			pdf.CellFormat(70, 7, item.ClauseType, "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 7, string(item.Status), "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 7, fmt.Sprintf("%.2f", item.Confidence), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	// Missing requirements
	if len(report.MissingRequirements) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, fmt.Sprintf("Missing Requirements (%d)", len(report.MissingRequirements)))
		pdf.Ln(9)

		pdf.SetFont("Helvetica", "", 9)
		for _, missing := range report.MissingRequirements {
			req := missing.Requirement
			pdf.SetFont("Helvetica", "B", 9)
			pdf.MultiCell(0, 5, fmt.Sprintf("%s %s (%s)", req.Framework, req.ArticleReference, req.RequirementID), "", "L", false)
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 5, req.Description, "", "L", false)
			if missing.Recommendation != "" {
				pdf.MultiCell(0, 5, "Recommendation: "+missing.Recommendation, "", "L", false)
			}
			pdf.Ln(3)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

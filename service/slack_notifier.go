package service

import (
	"fmt"
	"log"
	"os"
	"strings"

	"compliance-backend/models"

	"github.com/slack-go/slack"
)

// slackPostWebhook is a var so tests can stub the webhook call
var slackPostWebhook = slack.PostWebhook

// SlackNotifier posts analysis and regulatory events to a Slack incoming
// webhook. A notifier with no webhook URL silently drops everything, so the
// pipeline never depends on Slack being configured.
type SlackNotifier struct {
	webhookURL  string
	minSeverity models.UpdateSeverity
}

// NewSlackNotifier creates a notifier from SLACK_WEBHOOK_URL and
// SLACK_MIN_SEVERITY environment variables.
func NewSlackNotifier() *SlackNotifier {
	minSeverity := models.UpdateSeverity(strings.ToLower(os.Getenv("SLACK_MIN_SEVERITY")))
	if models.SeverityRank(minSeverity) == 0 {
		minSeverity = models.SeverityHigh
	}

	return &SlackNotifier{
		webhookURL:  os.Getenv("SLACK_WEBHOOK_URL"),
		minSeverity: minSeverity,
	}
}

// Enabled reports whether a webhook URL is configured
func (n *SlackNotifier) Enabled() bool {
	return n.webhookURL != ""
}

// NotifyAnalysisComplete posts a summary of a finished compliance report
func (n *SlackNotifier) NotifyAnalysisComplete(report *models.ComplianceReport, filename string) error {
	if !n.Enabled() {
		return nil
	}

	color := "good"
	if report.OverallScore < 50 {
		color = "danger"
	} else if report.OverallScore < 75 {
		color = "warning"
	}

	fields := []slack.AttachmentField{
		{Title: "Overall Score", Value: fmt.Sprintf("%.1f / 100", report.OverallScore), Short: true},
		{Title: "Frameworks", Value: strings.Join(report.FrameworksChecked, ", "), Short: true},
		{Title: "High-Risk Items", Value: fmt.Sprintf("%d", len(report.HighRiskItems)), Short: true},
		{Title: "Missing Requirements", Value: fmt.Sprintf("%d", len(report.MissingRequirements)), Short: true},
	}

	for fw, score := range report.FrameworkScores {
		fields = append(fields, slack.AttachmentField{
			Title: fw,
			Value: fmt.Sprintf("%.1f", score),
			Short: true,
		})
	}

	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("Compliance analysis completed for *%s*", filename),
		Attachments: []slack.Attachment{{
			Color:  color,
			Fields: fields,
			Footer: "compliance-backend",
		}},
	}

	if err := slackPostWebhook(n.webhookURL, msg); err != nil {
		return fmt.Errorf("failed to post analysis notification: %w", err)
	}
	return nil
}

// NotifyHighRiskFindings posts the most severe clause findings of a report
func (n *SlackNotifier) NotifyHighRiskFindings(report *models.ComplianceReport, filename string) error {
	if !n.Enabled() || len(report.HighRiskItems) == 0 {
		return nil
	}

	var lines []string
	for i, item := range report.HighRiskItems {
		if i == 5 {
			lines = append(lines, fmt.Sprintf("...and %d more", len(report.HighRiskItems)-5))
			break
		}
		lines = append(lines, fmt.Sprintf("• [%s] %s (%s)", item.Framework, item.ClauseType, item.Status))
	}

	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf(":warning: %d high-risk findings in *%s*", len(report.HighRiskItems), filename),
		Attachments: []slack.Attachment{{
			Color: "danger",
			Text:  strings.Join(lines, "\n"),
		}},
	}

	if err := slackPostWebhook(n.webhookURL, msg); err != nil {
		return fmt.Errorf("failed to post high-risk notification: %w", err)
	}
	return nil
}

// NotifyRegulatoryUpdate posts a regulatory update when its severity reaches
// the configured floor.
func (n *SlackNotifier) NotifyRegulatoryUpdate(update *models.RegulatoryUpdate) error {
	if !n.Enabled() {
		return nil
	}
	if models.SeverityRank(update.Severity) < models.SeverityRank(n.minSeverity) {
		return nil
	}

	color := "warning"
	if update.Severity == models.SeverityCritical {
		color = "danger"
	}

	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf(":rotating_light: %s regulatory update (%s)", update.Framework, update.Severity),
		Attachments: []slack.Attachment{{
			Color:     color,
			Title:     update.Title,
			TitleLink: update.Link,
			Text:      update.Snippet,
			Fields: []slack.AttachmentField{
				{Title: "Type", Value: string(update.UpdateType), Short: true},
				{Title: "Urgency", Value: fmt.Sprintf("%.0f", update.UrgencyScore), Short: true},
			},
			Footer: update.Source,
		}},
	}

	if err := slackPostWebhook(n.webhookURL, msg); err != nil {
		return fmt.Errorf("failed to post update notification: %w", err)
	}
	return nil
}

// LogAndNotifyAnalysis sends completion and high-risk notifications, logging
// failures rather than surfacing them to the pipeline.
func (n *SlackNotifier) LogAndNotifyAnalysis(report *models.ComplianceReport, filename string) {
	if err := n.NotifyAnalysisComplete(report, filename); err != nil {
		log.Printf("Warning: slack notification failed: %v", err)
	}
	if err := n.NotifyHighRiskFindings(report, filename); err != nil {
		log.Printf("Warning: slack notification failed: %v", err)
	}
}

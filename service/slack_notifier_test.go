package service

import (
	"testing"

	"compliance-backend/models"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubWebhook(t *testing.T) *[]*slack.WebhookMessage {
	t.Helper()

	var posted []*slack.WebhookMessage
	old := slackPostWebhook
	slackPostWebhook = func(url string, msg *slack.WebhookMessage) error {
		posted = append(posted, msg)
		return nil
	}
	t.Cleanup(func() { slackPostWebhook = old })
	return &posted
}

func TestNotifierDisabledWithoutWebhookURL(t *testing.T) {
	posted := stubWebhook(t)

	n := &SlackNotifier{webhookURL: "", minSeverity: models.SeverityHigh}

	assert.False(t, n.Enabled())
	require.NoError(t, n.NotifyAnalysisComplete(sampleReport(), "contract.pdf"))
	require.NoError(t, n.NotifyRegulatoryUpdate(&models.RegulatoryUpdate{Severity: models.SeverityCritical}))
	assert.Empty(t, *posted)
}

func TestNotifyAnalysisComplete(t *testing.T) {
	posted := stubWebhook(t)

	n := &SlackNotifier{webhookURL: "https://hooks.slack.com/test", minSeverity: models.SeverityHigh}
	require.NoError(t, n.NotifyAnalysisComplete(sampleReport(), "contract.pdf"))

	require.Len(t, *posted, 1)
	msg := (*posted)[0]
	assert.Contains(t, msg.Text, "contract.pdf")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "warning", msg.Attachments[0].Color) // score 72.5
}

func TestNotifyRegulatoryUpdateSeverityFloor(t *testing.T) {
	posted := stubWebhook(t)

	n := &SlackNotifier{webhookURL: "https://hooks.slack.com/test", minSeverity: models.SeverityHigh}

	require.NoError(t, n.NotifyRegulatoryUpdate(&models.RegulatoryUpdate{
		Framework: "GDPR",
		Title:     "Minor clarification",
		Severity:  models.SeverityMedium,
	}))
	assert.Empty(t, *posted)

	require.NoError(t, n.NotifyRegulatoryUpdate(&models.RegulatoryUpdate{
		Framework: "GDPR",
		Title:     "Enforcement deadline",
		Severity:  models.SeverityCritical,
	}))
	require.Len(t, *posted, 1)
	assert.Contains(t, (*posted)[0].Text, "GDPR")
}

func TestNotifyHighRiskFindingsSkipsCleanReports(t *testing.T) {
	posted := stubWebhook(t)

	n := &SlackNotifier{webhookURL: "https://hooks.slack.com/test", minSeverity: models.SeverityHigh}

	clean := sampleReport()
	clean.HighRiskItems = nil
	require.NoError(t, n.NotifyHighRiskFindings(clean, "contract.pdf"))
	assert.Empty(t, *posted)

	require.NoError(t, n.NotifyHighRiskFindings(sampleReport(), "contract.pdf"))
	assert.Len(t, *posted, 1)
}

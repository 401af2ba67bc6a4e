package kb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-backend/models"
)

func TestLoadEmbedded(t *testing.T) {
	kb, err := Load()
	require.NoError(t, err)

	for _, fw := range Frameworks {
		reqs, err := kb.Requirements(fw)
		require.NoError(t, err)
		assert.NotEmpty(t, reqs, "expected requirements for %s", fw)
		for _, req := range reqs {
			assert.Equal(t, fw, req.Framework)
			assert.NotEmpty(t, req.RequirementID)
			assert.NotEmpty(t, req.Description)
			assert.NotEmpty(t, req.Keywords)
		}
	}
}

func TestRequirementsUnknownFramework(t *testing.T) {
	kb, err := Load()
	require.NoError(t, err)

	_, err = kb.Requirements("PCI-DSS")
	assert.ErrorIs(t, err, ErrUnknownFramework)
}

func TestByClauseType(t *testing.T) {
	kb, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name       string
		clauseType string
		framework  string
		wantEmpty  bool
	}{
		{name: "gdpr breach notification", clauseType: "Breach Notification", framework: "GDPR"},
		{name: "case insensitive", clauseType: "breach notification", framework: "GDPR"},
		{name: "whitespace trimmed", clauseType: "  Breach Notification  ", framework: "GDPR"},
		{name: "all frameworks", clauseType: "Security Safeguards", framework: ""},
		{name: "no match", clauseType: "Source Code Escrow", framework: "GDPR", wantEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kb.ByClauseType(tt.clauseType, tt.framework)
			if tt.wantEmpty {
				assert.Empty(t, got)
				return
			}
			assert.NotEmpty(t, got)
			if tt.framework != "" {
				for _, req := range got {
					assert.Equal(t, tt.framework, req.Framework)
				}
			}
		})
	}
}

func TestByID(t *testing.T) {
	kb, err := Load()
	require.NoError(t, err)

	req, err := kb.ByID("GDPR_ART33_01")
	require.NoError(t, err)
	assert.Equal(t, "GDPR", req.Framework)
	assert.Equal(t, "Breach Notification", req.ClauseType)
	assert.True(t, req.Mandatory)

	_, err = kb.ByID("DOES_NOT_EXIST")
	assert.ErrorIs(t, err, ErrRequirementNotFound)
}

func TestMandatory(t *testing.T) {
	kb, err := Load()
	require.NoError(t, err)

	mandatory, err := kb.Mandatory("CCPA")
	require.NoError(t, err)
	assert.NotEmpty(t, mandatory)
	for _, req := range mandatory {
		assert.True(t, req.Mandatory)
	}

	all, err := kb.Requirements("CCPA")
	require.NoError(t, err)
	assert.Less(t, len(mandatory), len(all), "CCPA has at least one optional requirement")
}

func TestSearchKeyword(t *testing.T) {
	kb, err := Load()
	require.NoError(t, err)

	matches := kb.SearchKeyword("encryption", "")
	assert.NotEmpty(t, matches)

	gdprOnly := kb.SearchKeyword("encryption", "GDPR")
	for _, req := range gdprOnly {
		assert.Equal(t, "GDPR", req.Framework)
	}
	assert.LessOrEqual(t, len(gdprOnly), len(matches))
}

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		in   string
		want models.RiskLevel
	}{
		{"High", models.RiskHigh},
		{"Critical", models.RiskHigh},
		{"Medium", models.RiskMedium},
		{"Low", models.RiskLow},
		{"low ", models.RiskLow},
		{"", models.RiskMedium},
		{"Unknown", models.RiskMedium},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseRiskLevel(tt.in), "input %q", tt.in)
	}
}

func TestStatistics(t *testing.T) {
	kb, err := Load()
	require.NoError(t, err)

	stats := kb.Statistics()
	require.Contains(t, stats, "SOX")
	s := stats["SOX"]
	assert.Equal(t, s.Total, s.Mandatory+s.Optional)
	assert.Greater(t, s.Total, 0)
}

package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validReportJSON() string {
	return `{
		"case_summary": "Customer disputes a £500 fee.",
		"frl_compliance_checks": [
			{"item": "Clarity", "compliant": true, "reason": "Plain language."},
			{"item": "Timeliness", "compliant": false, "reason": "Sent after 8 weeks."}
		],
		"historical_precedent_analysis": ["DRN0060527 shows similar fee disputes were upheld."],
		"key_risk_indicators": ["Late final response."],
		"predicted_fos_outcome": {"outcome": "Likely to be Upheld", "confidence": "85%"},
		"financial_impact_assessment": {"low_estimate": "£500", "high_estimate": "£750"},
		"recommendations": "Refund the fee and apologise.",
		"executive_summary": "High risk. Fee dispute. Precedents favour the customer."
	}`
}

func TestParseReport_PureJSON(t *testing.T) {
	report, err := ParseReport(validReportJSON())
	require.NoError(t, err)
	assert.Equal(t, "Customer disputes a £500 fee.", report.CaseSummary)
	assert.Len(t, report.ComplianceChecks, 2)
	assert.False(t, report.ComplianceChecks[1].Compliant)
	assert.Equal(t, "Likely to be Upheld", report.PredictedOutcome.Outcome)
	assert.Equal(t, "85%", report.PredictedOutcome.Confidence)
	assert.Equal(t, "£750", report.FinancialImpact.HighEstimate)
}

func TestParseReport_SurroundingNoise(t *testing.T) {
	// Models wrap output in prose and markdown fences; the parser must
	// recover the object between the first '{' and the last '}'.
	tests := []struct {
		name string
		raw  string
	}{
		{"markdown fences", "```json\n" + validReportJSON() + "\n```"},
		{"leading prose", "Here is the report you asked for:\n" + validReportJSON()},
		{"trailing prose", validReportJSON() + "\nLet me know if you need anything else."},
		{"both sides", "noise" + validReportJSON() + "noise"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := ParseReport(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, "Likely to be Upheld", report.PredictedOutcome.Outcome)
		})
	}
}

func TestParseReport_RoundTrip(t *testing.T) {
	// Property from the wire contract: noise{json}noise parses back to the
	// same keys, given no stray braces in the noise.
	var original map[string]any
	require.NoError(t, json.Unmarshal([]byte(validReportJSON()), &original))

	raw := fmt.Sprintf("Sure! %s Hope that helps.", validReportJSON())
	report, err := ParseReport(raw)
	require.NoError(t, err)

	encoded, err := json.Marshal(report)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(encoded, &parsed))

	for key := range original {
		assert.Contains(t, parsed, key)
	}
}

func TestParseReport_NoBraces(t *testing.T) {
	_, err := ParseReport("I am unable to analyse these documents.")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}

func TestParseReport_InvalidJSON(t *testing.T) {
	_, err := ParseReport("{this is not json}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}

func TestParseReport_MissingKeys(t *testing.T) {
	_, err := ParseReport(`{"case_summary": "only one key"}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}

func TestParseReport_MissingPredictedOutcome(t *testing.T) {
	// A syntactically valid report without the mandatory prediction must be
	// rejected rather than persisted as COMPLETE.
	raw := `{
		"case_summary": "s",
		"frl_compliance_checks": [],
		"historical_precedent_analysis": [],
		"key_risk_indicators": [],
		"financial_impact_assessment": {"low_estimate": "£0", "high_estimate": "£0"},
		"recommendations": "r",
		"executive_summary": "e"
	}`
	_, err := ParseReport(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}

func TestParseReport_BareStringOutcome(t *testing.T) {
	// A bare-string outcome is accepted and normalized into the struct.
	raw := `{
		"case_summary": "s",
		"frl_compliance_checks": [],
		"historical_precedent_analysis": [],
		"key_risk_indicators": [],
		"predicted_fos_outcome": "Likely to be Rejected",
		"financial_impact_assessment": {"low_estimate": "£0", "high_estimate": "£0"},
		"recommendations": "r",
		"executive_summary": "e"
	}`
	report, err := ParseReport(raw)
	require.NoError(t, err)
	assert.Equal(t, "Likely to be Rejected", report.PredictedOutcome.Outcome)
	assert.Empty(t, report.PredictedOutcome.Confidence)
}

func TestParseReport_EmptyOutcome(t *testing.T) {
	raw := `{
		"case_summary": "s",
		"frl_compliance_checks": [],
		"historical_precedent_analysis": [],
		"key_risk_indicators": [],
		"predicted_fos_outcome": {"outcome": "", "confidence": "50%"},
		"financial_impact_assessment": {},
		"recommendations": "r",
		"executive_summary": "e"
	}`
	_, err := ParseReport(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictedOutcome_UnmarshalObject(t *testing.T) {
	var p PredictedOutcome
	err := json.Unmarshal([]byte(`{"outcome": "Likely to be Upheld", "confidence": "85%"}`), &p)
	require.NoError(t, err)
	assert.Equal(t, "Likely to be Upheld", p.Outcome)
	assert.Equal(t, "85%", p.Confidence)
}

func TestPredictedOutcome_UnmarshalBareString(t *testing.T) {
	// Models sometimes emit the outcome as a plain string; it must normalize
	// into the struct so consumers never branch on shape.
	var p PredictedOutcome
	err := json.Unmarshal([]byte(`"Likely to be Rejected"`), &p)
	require.NoError(t, err)
	assert.Equal(t, "Likely to be Rejected", p.Outcome)
	assert.Empty(t, p.Confidence)
}

func TestFinancialImpact_CoercesNumbers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLow  string
		wantHigh string
	}{
		{
			name:     "strings",
			input:    `{"low_estimate": "£500", "high_estimate": "£1,200"}`,
			wantLow:  "£500",
			wantHigh: "£1,200",
		},
		{
			name:     "numbers",
			input:    `{"low_estimate": 500, "high_estimate": 1200.50}`,
			wantLow:  "500",
			wantHigh: "1200.50",
		},
		{
			name:     "missing high",
			input:    `{"low_estimate": "£0"}`,
			wantLow:  "£0",
			wantHigh: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FinancialImpact
			require.NoError(t, json.Unmarshal([]byte(tt.input), &f))
			assert.Equal(t, tt.wantLow, f.LowEstimate)
			assert.Equal(t, tt.wantHigh, f.HighEstimate)
		})
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusProcessing.Terminal())
	assert.True(t, JobStatusComplete.Terminal())
	assert.True(t, JobStatusError.Terminal())
}

package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/veritylabs/fosight/internal/models"
)

// reportSchema validates the eight required report keys. The prompt treats
// predicted_fos_outcome as mandatory, so the parser enforces it too instead
// of letting a semantically incomplete object persist as COMPLETE.
const reportSchema = `{
	"type": "object",
	"required": [
		"case_summary",
		"frl_compliance_checks",
		"historical_precedent_analysis",
		"key_risk_indicators",
		"predicted_fos_outcome",
		"financial_impact_assessment",
		"recommendations",
		"executive_summary"
	],
	"properties": {
		"case_summary": {"type": "string"},
		"frl_compliance_checks": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["item", "compliant", "reason"],
				"properties": {
					"item": {"type": "string"},
					"compliant": {"type": "boolean"},
					"reason": {"type": "string"}
				}
			}
		},
		"historical_precedent_analysis": {"type": "array", "items": {"type": "string"}},
		"key_risk_indicators": {"type": "array", "items": {"type": "string"}},
		"predicted_fos_outcome": {
			"oneOf": [
				{"type": "string", "minLength": 1},
				{
					"type": "object",
					"required": ["outcome"],
					"properties": {
						"outcome": {"type": "string", "minLength": 1},
						"confidence": {"type": "string"}
					}
				}
			]
		},
		"financial_impact_assessment": {"type": "object"},
		"recommendations": {"type": "string"},
		"executive_summary": {"type": "string"}
	}
}`

var compiledReportSchema = mustCompileSchema(reportSchema)

func mustCompileSchema(src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("report.json", strings.NewReader(src)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("report.json")
}

// ParseReport extracts a Report from raw generative output.
//
// The model is prompted to emit pure JSON, but outputs routinely arrive
// wrapped in prose or markdown fences. The substring between the first '{'
// and the last '}' is treated as the candidate document; everything outside
// it is discarded. Failures wrap ErrParse and carry a truncated copy of the
// raw text for diagnostics.
func ParseReport(raw string) (*models.Report, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON object found in output: %q", ErrParse, snippet(raw))
	}
	candidate := []byte(raw[start : end+1])

	var generic any
	if err := json.Unmarshal(candidate, &generic); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v: %q", ErrParse, err, snippet(raw))
	}

	if err := compiledReportSchema.Validate(generic); err != nil {
		return nil, fmt.Errorf("%w: report schema violation: %v", ErrParse, err)
	}

	dec := json.NewDecoder(bytes.NewReader(candidate))
	dec.UseNumber()
	var report models.Report
	if err := dec.Decode(&report); err != nil {
		return nil, fmt.Errorf("%w: decode report: %v", ErrParse, err)
	}

	if strings.TrimSpace(report.PredictedOutcome.Outcome) == "" {
		return nil, fmt.Errorf("%w: predicted_fos_outcome is empty", ErrParse)
	}

	return &report, nil
}

// snippet truncates raw model output for error messages.
func snippet(raw string) string {
	const maxLen = 500
	raw = strings.TrimSpace(raw)
	if len(raw) <= maxLen {
		return raw
	}
	return raw[:maxLen] + "..."
}

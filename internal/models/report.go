package models

import "encoding/json"

// Report is the structured 8-field output of a successful analysis.
type Report struct {
	CaseSummary       string            `json:"case_summary"`
	ComplianceChecks  []ComplianceCheck `json:"frl_compliance_checks"`
	PrecedentAnalysis []string          `json:"historical_precedent_analysis"`
	KeyRiskIndicators []string          `json:"key_risk_indicators"`
	PredictedOutcome  PredictedOutcome  `json:"predicted_fos_outcome"`
	FinancialImpact   FinancialImpact   `json:"financial_impact_assessment"`
	Recommendations   string            `json:"recommendations"`
	ExecutiveSummary  string            `json:"executive_summary"`
}

// ComplianceCheck is one FRL compliance line item.
type ComplianceCheck struct {
	Item      string `json:"item"`
	Compliant bool   `json:"compliant"`
	Reason    string `json:"reason"`
}

// PredictedOutcome is the mandatory FOS outcome prediction.
type PredictedOutcome struct {
	Outcome    string `json:"outcome"`
	Confidence string `json:"confidence"`
}

// UnmarshalJSON accepts either the nested object form or a bare string, so
// downstream consumers never branch on shape. Models occasionally emit the
// outcome as a plain string despite the schema instruction.
func (p *PredictedOutcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Outcome = s
		p.Confidence = ""
		return nil
	}

	type alias PredictedOutcome
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = PredictedOutcome(a)
	return nil
}

// FinancialImpact holds the low/high estimate of potential financial impact.
// Estimates are kept as free-form strings ("£500", "£1,200 plus 8% interest").
type FinancialImpact struct {
	LowEstimate  string `json:"low_estimate"`
	HighEstimate string `json:"high_estimate"`
}

// UnmarshalJSON tolerates numeric estimates by coercing them to strings.
func (f *FinancialImpact) UnmarshalJSON(data []byte) error {
	var raw struct {
		LowEstimate  json.RawMessage `json:"low_estimate"`
		HighEstimate json.RawMessage `json:"high_estimate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.LowEstimate = coerceString(raw.LowEstimate)
	f.HighEstimate = coerceString(raw.HighEstimate)
	return nil
}

func coerceString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

package analysis

import (
	"fmt"
	"strings"

	"github.com/veritylabs/fosight/internal/models"
)

// precedentSeparator delimits precedent blocks inside the master prompt.
const precedentSeparator = "\n\n---\n\n"

// BuildMasterPrompt assembles the analysis instruction from the complaint,
// the firm's final response letter, and the retrieved precedents. The prompt
// enumerates all eight report keys with their expected shapes and forbids
// omitting or nulling the outcome prediction.
func BuildMasterPrompt(complaintText, frlText string, precedents []models.PrecedentMatch) string {
	blocks := make([]string, 0, len(precedents))
	for _, p := range precedents {
		blocks = append(blocks, fmt.Sprintf("Precedent Case ID: %s\n\n%s", p.CaseID, p.FullText))
	}
	precedentContext := strings.Join(blocks, precedentSeparator)

	return fmt.Sprintf(`**Role:** You are an expert Financial Ombudsman Service (FOS) case analyst. Your task is to provide a detailed, structured compliance and risk assessment report.

**Input Documents:**
1. **Customer Complaint:**
`+"```"+`
%s
`+"```"+`

2. **Firm's Final Response Letter (FRL):**
`+"```"+`
%s
`+"```"+`

3. **Relevant Historical Precedents:**
`+"```"+`
%s
`+"```"+`

**Task:**
Analyze the provided documents and generate a JSON object with the following 8 keys. Do not include any text outside of the JSON object.

1. `+"`case_summary`"+`: A concise summary of the customer's complaint as a single string.
2. `+"`frl_compliance_checks`"+`: An array of objects, each with 'item' (e.g., "Clarity", "Timeliness"), 'compliant' (true/false), and a 'reason' string.
3. `+"`historical_precedent_analysis`"+`: An array of strings. Each string must be a single bullet point. For each point, you MUST cite the relevant Case ID (e.g., "DRN0060527") that supports your analysis.
4. `+"`key_risk_indicators`"+`: An array of strings. Each string must be a single, concise bullet point identifying a key compliance or conduct risk.
5. `+"`predicted_fos_outcome`"+`: This field is MANDATORY. You MUST provide a prediction. Generate an object with two keys: an 'outcome' string (e.g., "Likely to be Upheld", "Likely to be Rejected", "50/50 - Unclear") and a 'confidence' string (e.g., "85%%", "70%%", "50%%"). Do NOT return "Not predicted" or "N/A".
6. `+"`financial_impact_assessment`"+`: An object with a 'low_estimate' and 'high_estimate' of the potential financial impact.
7. `+"`recommendations`"+`: A single string with specific, actionable steps the firm should take.
8. `+"`executive_summary`"+`: A high-level, 3-sentence summary as a single string.

**Output Format:** Respond with only a valid JSON object.`, complaintText, frlText, precedentContext)
}

// BuildExplanationPrompt asks the model to explain an existing prediction in
// three bullet points, given the stored texts and the serialized report.
func BuildExplanationPrompt(complaintText, frlText, reportJSON string) string {
	return fmt.Sprintf(`**Context:**
An AI model previously analyzed a customer complaint and a firm's Final Response Letter (FRL).
The model's final analysis was: %s

**Original Complaint:**
%s

**Original FRL:**
%s

**Task:**
Based on all the provided context, explain IN THREE CONCISE BULLET POINTS the primary reasons for the 'predicted_fos_outcome'. Focus on the most critical factors.
Start each point with a hyphen (-).

**Output:**
Return ONLY the three bullet points as a single string, with each point separated by a newline character.`, reportJSON, complaintText, frlText)
}

// BuildConfidencePrompt asks the model to justify the confidence score it
// previously assigned to an outcome prediction.
func BuildConfidencePrompt(complaintText, frlText, outcome, confidence string) string {
	return fmt.Sprintf(`**Context:**
An AI model previously analyzed a customer complaint and a firm's Final Response Letter (FRL).
The model predicted the FOS outcome would be %q with a confidence score of %q.

**Original Complaint:**
%s

**Original FRL:**
%s

**Task:**
Based on all the provided context, explain in three concise bullet points the primary reasons you assigned the confidence score of %q.
Focus on factors of certainty or uncertainty (e.g., "Confidence is high because of a clear precedent match," or "Confidence is moderate due to conflicting evidence.").
Start each point with a hyphen (-).

**Output:**
Return ONLY the three bullet points as a single string, with each point separated by a newline character.`, outcome, confidence, complaintText, frlText, confidence)
}

// SplitBulletPoints splits a bullet-point response into trimmed points.
func SplitBulletPoints(raw string) []string {
	parts := strings.Split(raw, "-")
	points := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			points = append(points, trimmed)
		}
	}
	return points
}

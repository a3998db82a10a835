package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Precedent is a historical FOS decision stored in the corpus.
type Precedent struct {
	ID surrealmodels.RecordID `json:"id"`

	CaseID      string   `json:"case_id"`
	FirmName    string   `json:"firm_name,omitempty"`
	ProductType string   `json:"product_type"`
	KeyThemes   []string `json:"key_themes"`
	FOSOutcome  string   `json:"fos_outcome"`
	FullText    string   `json:"full_text"`

	CompensationAwarded float64 `json:"compensation_awarded,omitempty"`
	RedressAmount       float64 `json:"redress_amount,omitempty"`

	Embedding []float32 `json:"embedding"`
	CreatedAt time.Time `json:"created_at"`
}

// PrecedentMatch is a retrieved similar case, most-similar first.
// Read-only to the pipeline; owned by the precedent store.
type PrecedentMatch struct {
	CaseID     string  `json:"case_id"`
	FullText   string  `json:"full_text"`
	FOSOutcome string  `json:"fos_outcome,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

// CaseFilters carries coarse categorical hints for narrowing similarity
// search. Zero values degrade to pure vector similarity.
type CaseFilters struct {
	ProductType string
	KeyThemes   []string
}

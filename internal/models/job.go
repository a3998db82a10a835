// Package models defines data structures for the fosight case-analysis store.
package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// JobStatus represents the externally visible state of an analysis job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusComplete   JobStatus = "COMPLETE"
	JobStatusError      JobStatus = "ERROR"
)

// Terminal reports whether the status is a terminal state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusComplete || s == JobStatusError
}

// Job is one analysis request tracked through its lifecycle.
// Created PENDING at submission and mutated only by the analysis pipeline.
type Job struct {
	ID     surrealmodels.RecordID `json:"id"`
	Status JobStatus              `json:"status"`

	// Extracted document texts, persisted as soon as extraction succeeds so
	// the explanation endpoints work even when a later stage fails.
	ComplaintText string `json:"complaint_text,omitempty"`
	FRLText       string `json:"frl_text,omitempty"`

	// Report is present only when Status is COMPLETE.
	Report *Report `json:"report,omitempty"`

	// ErrorMessage is present only when Status is ERROR.
	ErrorMessage *string `json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// JobID extracts the string job ID from the record ID.
func (j *Job) JobID() string {
	if s, ok := j.ID.ID.(string); ok {
		return s
	}
	return ""
}

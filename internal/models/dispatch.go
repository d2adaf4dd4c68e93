package models

import "github.com/google/uuid"

type ResultStatus string

const (
	ResultStatusSuccess ResultStatus = "success"
	ResultStatusError   ResultStatus = "error"
)

// DispatchOptions narrows a dispatcher run. A non-nil SubmissionID selects
// single-submission mode: the due check is bypassed and the send is treated
// as the immediate first send.
type DispatchOptions struct {
	SubmissionID *uuid.UUID
}

// SubmissionResult is the outcome of one submission in a run.
type SubmissionResult struct {
	SubmissionID uuid.UUID    `json:"submission_id"`
	Status       ResultStatus `json:"status"`
	Error        string       `json:"error,omitempty"`
}

// DispatchResult is the response of one dispatcher run.
type DispatchResult struct {
	Success   bool               `json:"success"`
	Processed int                `json:"processed"`
	Results   []SubmissionResult `json:"results"`
	Error     string             `json:"error,omitempty"`
}

// ProcessResult is the response of one chunking run.
type ProcessResult struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message,omitempty"`
	Processed []SubmissionResult `json:"processed,omitempty"`
	Error     string             `json:"error,omitempty"`
}

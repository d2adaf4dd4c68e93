package models

import "errors"

var (
	// ErrEmptyContent is returned when a source produced no deliverable chunks.
	ErrEmptyContent = errors.New("no content was extracted from the provided source")
	// ErrTransport marks a rejected or failed send at the message provider.
	ErrTransport = errors.New("message transport error")
	// ErrStore marks any persistence failure.
	ErrStore = errors.New("store error")
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	ErrCursorConflict         = errors.New("submission cursor moved concurrently")
	ErrAlreadyChunked         = errors.New("submission already has a message chain")
	ErrSubmissionNotReady     = errors.New("submission has no message chain yet")
	ErrInvalidTimezone        = errors.New("invalid timezone")
	ErrInvalidCadence         = errors.New("invalid cadence")
	ErrInvalidRepeat          = errors.New("invalid repeat policy")
	ErrMissingSource          = errors.New("submission has no text or files")
	ErrSubmissionLimitReached = errors.New("submission limit reached")
	ErrUnsupportedSource      = errors.New("unsupported content source")
)

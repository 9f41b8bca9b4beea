package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSessionBusy indicates the session already has a query in flight
	ErrSessionBusy = errors.New("session busy")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnsupportedFormat indicates no extractor handles the file format
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtraction indicates text extraction failed; terminal for the document
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbedding indicates the embedding provider failed for a call
	ErrEmbedding = errors.New("embedding failed")

	// ErrDimensionMismatch indicates embedder and index dimensions differ.
	// This is a configuration error and fatal at startup.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndex indicates vector index corruption or IO failure
	ErrIndex = errors.New("index failure")

	// ErrRetrievalTimeout indicates a provider was too slow during retrieval
	ErrRetrievalTimeout = errors.New("retrieval timed out")

	// ErrAugmentation indicates the augmentation provider failed;
	// always recoverable by the retrieval-only fallback
	ErrAugmentation = errors.New("augmentation failed")

	// ErrTranscription indicates transcription failed; fatal for that one request
	ErrTranscription = errors.New("transcription failed")

	// ErrTranslation indicates translation failed; the text answer still stands
	ErrTranslation = errors.New("translation failed")

	// ErrSynthesis indicates speech synthesis failed; the text answer still stands
	ErrSynthesis = errors.New("speech synthesis failed")
)

// Failure is a structured, client-safe failure with a stable code.
// It is what a session receives instead of a raw error chain.
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// failureCodes maps sentinel errors to stable codes.
var failureCodes = []struct {
	err  error
	code string
}{
	{ErrSessionBusy, "session_busy"},
	{ErrSessionNotFound, "session_not_found"},
	{ErrNotFound, "not_found"},
	{ErrInvalidInput, "invalid_input"},
	{ErrUnsupportedFormat, "unsupported_format"},
	{ErrExtraction, "extraction_failed"},
	{ErrEmbedding, "embedding_failed"},
	{ErrDimensionMismatch, "dimension_mismatch"},
	{ErrIndex, "index_failure"},
	{ErrRetrievalTimeout, "retrieval_timeout"},
	{ErrAugmentation, "augmentation_failed"},
	{ErrTranscription, "transcription_failed"},
	{ErrTranslation, "translation_failed"},
	{ErrSynthesis, "synthesis_failed"},
}

// FailureFrom converts any error into a Failure with a stable code.
// Unknown errors map to "internal" with a generic message so raw error
// chains never leak to clients.
func FailureFrom(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	for _, fc := range failureCodes {
		if errors.Is(err, fc.err) {
			return &Failure{Code: fc.code, Message: fc.err.Error()}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Code: "timeout", Message: "operation timed out"}
	}
	return &Failure{Code: "internal", Message: "internal error"}
}

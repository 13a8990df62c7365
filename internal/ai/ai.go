package ai

import (
	"context"
	"errors"
	"fmt"
)

// ChapterSummary is one chapter or major section of an analyzed document.
type ChapterSummary struct {
	ChapterNumber string   `json:"chapterNumber" validate:"required"`
	Title         string   `json:"title" validate:"required"`
	Summary       string   `json:"summary" validate:"required"`
	KeyPoints     []string `json:"keyPoints" validate:"required"`
}

// AnalysisResult is the structured summary returned by the model.
type AnalysisResult struct {
	Title          string           `json:"title" validate:"required"`
	OverallSummary string           `json:"overallSummary" validate:"required"`
	Chapters       []ChapterSummary `json:"chapters" validate:"required,dive"`
}

// Analyzer turns a base64-encoded PDF into an AnalysisResult.
type Analyzer interface {
	Analyze(ctx context.Context, base64Document, credential string) (AnalysisResult, error)
}

var (
	ErrMissingCredential = errors.New("missing API key")
	ErrEmptyResponse     = errors.New("empty response from model")
	ErrMalformedResponse = errors.New("malformed response from model")
	ErrRemote            = errors.New("remote model call failed")
)

// RemoteError carries a transport, authentication or quota failure reported
// by the remote service. It is not classified any further.
type RemoteError struct {
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%v: %v", ErrRemote, e.Err)
}

func (e *RemoteError) Unwrap() []error { return []error{ErrRemote, e.Err} }

package types

import "time"

// Status is the outcome of one extraction attempt
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "error"
)

// ExtractionResult is the record published for one extraction attempt. It is
// built once and not modified afterwards; a success carries both output
// paths, a failure carries neither and has Message set. ThumbnailPath
// mirrors FullPath for consumers of the original event payload.
type ExtractionResult struct {
	Status        Status            `json:"status"`
	OriginalFile  string            `json:"original_file"`
	ThumbnailPath string            `json:"thumbnail_path,omitempty"`
	SmallPath     string            `json:"thumbnail_small_path,omitempty"`
	FullPath      string            `json:"thumbnail_full_path,omitempty"`
	Timestamp     int64             `json:"timestamp"`
	Message       string            `json:"message,omitempty"`
	AttemptID     string            `json:"attempt_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewSuccessResult builds a success record for source with both output paths
func NewSuccessResult(attemptID, source, fullPath, smallPath string, at time.Time, metadata map[string]string) *ExtractionResult {
	return &ExtractionResult{
		Status:        StatusSuccess,
		OriginalFile:  source,
		ThumbnailPath: fullPath,
		SmallPath:     smallPath,
		FullPath:      fullPath,
		Timestamp:     at.Unix(),
		AttemptID:     attemptID,
		Metadata:      metadata,
	}
}

// NewFailureResult builds a failure record carrying err's message
func NewFailureResult(attemptID, source string, at time.Time, err error) *ExtractionResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &ExtractionResult{
		Status:       StatusFailure,
		OriginalFile: source,
		Timestamp:    at.Unix(),
		Message:      msg,
		AttemptID:    attemptID,
	}
}

// Succeeded reports whether the attempt produced both images
func (r *ExtractionResult) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}

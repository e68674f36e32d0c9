package common

import (
	"errors"
	"fmt"
)

// Error kinds produced by the extraction pipeline and the watch session
var (
	ErrInputNotFound     = errors.New("input file not found")
	ErrSignatureNotFound = errors.New("embedded store signature not found")
	ErrStoreOpen         = errors.New("embedded store could not be opened")
	ErrNoPreviewFound    = errors.New("no preview image found in embedded store")
	ErrDecode            = errors.New("failed to decode preview image")
	ErrWrite             = errors.New("failed to write output image")
	ErrWatchSetup        = errors.New("failed to set up file system monitor")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInputNotFound, "input_not_found"},
	{ErrSignatureNotFound, "signature_not_found"},
	{ErrStoreOpen, "store_open"},
	{ErrNoPreviewFound, "no_preview_found"},
	{ErrDecode, "decode"},
	{ErrWrite, "write"},
	{ErrWatchSetup, "watch_setup"},
}

// KindOf maps an error to a short stable label, "unknown" for errors outside
// the pipeline kinds and "" for nil.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "unknown"
}

// ErrorUtils provides common error handling utilities
type ErrorUtils struct{}

// NewErrorUtils creates a new ErrorUtils instance
func NewErrorUtils() *ErrorUtils {
	return &ErrorUtils{}
}

// WrapError wraps an error with additional context
func (eu *ErrorUtils) WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	context := fmt.Sprintf(message, args...)
	return fmt.Errorf("%s: %w", context, err)
}

// WrapKind attaches a pipeline error kind to a cause so both match errors.Is.
func (eu *ErrorUtils) WrapKind(kind error, err error, message string, args ...interface{}) error {
	context := fmt.Sprintf(message, args...)
	if err == nil {
		return fmt.Errorf("%w: %s", kind, context)
	}
	return fmt.Errorf("%w: %s: %w", kind, context, err)
}

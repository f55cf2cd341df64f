package ingest

import "errors"

var (
	// ErrExtractorRequired indicates that a keyword extractor is required.
	ErrExtractorRequired = errors.New("keyword extractor is required")

	// ErrIndexRequired indicates that a project index is required.
	ErrIndexRequired = errors.New("project index is required")
)

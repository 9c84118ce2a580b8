package domain

import "errors"

var (
	// ErrTemplateNotFound is returned when the resolved template source cannot be read
	ErrTemplateNotFound = errors.New("template file not found")

	// ErrUpstreamUnavailable is returned when the inference backend cannot be
	// reached or drops the connection mid-stream
	ErrUpstreamUnavailable = errors.New("inference backend unavailable")

	// ErrUpstreamTimeout is returned when the whole upstream exchange exceeds
	// the configured time budget
	ErrUpstreamTimeout = errors.New("inference backend timed out")
)

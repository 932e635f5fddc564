package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("resource not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNotReady          = errors.New("document is not processed yet")
	ErrJobEnqueue        = errors.New("ingest job enqueue failed")
)

package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrNoKeywords          = errors.New("no keywords extracted")
	ErrTooFewKeywords      = errors.New("too few keywords")
	ErrUnsupportedFormat   = errors.New("unsupported format")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrInvalidConfig       = errors.New("invalid configuration")
)

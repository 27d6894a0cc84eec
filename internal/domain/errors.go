package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrTopicRequired     = errors.New("topic is required")
	ErrAPIKeyRequired    = errors.New("api key is required")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNoResult          = errors.New("no image returned")
	ErrInvalidColor      = errors.New("invalid hex color")
	ErrProviderFailure   = errors.New("provider failure")
	ErrUnsupportedUpload = errors.New("unsupported upload type")
)

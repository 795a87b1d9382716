package llmclient

import "errors"

var (
	ErrEmptyResponse = errors.New("model returned no content")
	ErrNoImage       = errors.New("model returned no image")
)

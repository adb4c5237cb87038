package library

import "errors"

var (
	// ErrInvalidInput marks malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnprocessable marks requests that are well formed but cannot be
	// acted on, such as a PDF with no extractable text.
	ErrUnprocessable = errors.New("unprocessable content")

	// ErrMissingConfig marks operations that need configuration the server
	// was started without, such as an AI provider token.
	ErrMissingConfig = errors.New("missing configuration")
)

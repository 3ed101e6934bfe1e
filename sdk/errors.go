package sdk

import "errors"

// Common SDK errors that callers can check for specific error handling.
var (
	// ErrInvalidConfig indicates the client configuration is invalid or incomplete.
	ErrInvalidConfig = errors.New("invalid client configuration")

	// ErrUnauthorized indicates the provided token was rejected by the server.
	ErrUnauthorized = errors.New("unauthorized: invalid or revoked token")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimited indicates the request was rate limited by the server.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrServerError indicates an internal server error occurred.
	ErrServerError = errors.New("internal server error")

	// ErrBadRequest indicates the request was malformed or rejected as invalid.
	ErrBadRequest = errors.New("bad request")

	// ErrConflict indicates the request conflicts with existing state.
	ErrConflict = errors.New("conflict with existing resource")

	// ErrPrerequisiteMissing indicates the server lacks a prerequisite
	// (no CA, no IP pool) needed to service the request.
	ErrPrerequisiteMissing = errors.New("server prerequisite missing")
)

// Package common defines shared constants and sentinel errors used across
// client and server layers of suitesync. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Config errors. ErrConfigMissing is returned before any network call
	// when one of the required credentials is absent.
	ErrConfigMissing = errors.New("missing required configuration")

	// Path resolution errors.
	ErrPathTraversal = errors.New("path contains parent-directory segments")

	// Upload-side errors.
	ErrFileTooLarge       = errors.New("file exceeds size limit")
	ErrBuildOutputMissing = errors.New("build output file missing")

	// Transport errors. ErrNetwork covers connection and timeout failures,
	// ErrRemoteRejected covers non-2xx responses and success:false payloads,
	// ErrParse covers malformed response bodies.
	ErrNetwork        = errors.New("network error")
	ErrRemoteRejected = errors.New("rejected by remote")
	ErrParse          = errors.New("malformed response")

	// Auth errors.
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidSignature = errors.New("invalid request signature")
	ErrNonceReused      = errors.New("nonce already used")
	ErrStaleTimestamp   = errors.New("request timestamp outside allowed window")

	// Policy errors surfaced by the cabinet service.
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
)

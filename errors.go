package credo

import "errors"

var (
	// ErrNotFound is an exported constant or variable used by the identity engine.
	ErrNotFound = errors.New("record not found")
	// ErrWrongCredential is an exported constant or variable used by the identity engine.
	ErrWrongCredential = errors.New("wrong credential")
	// ErrUsernameTaken is an exported constant or variable used by the identity engine.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken is an exported constant or variable used by the identity engine.
	ErrEmailTaken = errors.New("email already in use")
	// ErrWeakCredential is an exported constant or variable used by the identity engine.
	ErrWeakCredential = errors.New("password does not meet minimum strength")
	// ErrInvalidIdentifier is an exported constant or variable used by the identity engine.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrDisabled is an exported constant or variable used by the identity engine.
	ErrDisabled = errors.New("account disabled")
	// ErrRateLimited is an exported constant or variable used by the identity engine.
	ErrRateLimited = errors.New("too many attempts")
	// ErrNetworkFailure is an exported constant or variable used by the identity engine.
	ErrNetworkFailure = errors.New("network failure")
	// ErrUnverified is an exported constant or variable used by the identity engine.
	ErrUnverified = errors.New("account unverified")
	// ErrUnknown is an exported constant or variable used by the identity engine.
	ErrUnknown = errors.New("unknown backend error")
	// ErrForbidden is an exported constant or variable used by the identity engine.
	ErrForbidden = errors.New("operation forbidden for acting role")
	// ErrUnsupported is an exported constant or variable used by the identity engine.
	ErrUnsupported = errors.New("operation not supported in this mode")
	// ErrEngineNotReady is an exported constant or variable used by the identity engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

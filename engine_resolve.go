package credo

import (
	"context"
	"strings"
)

// ResolveLoginEmail turns a user-facing login identifier into the email
// address the active backend authenticates with. Identifiers containing
// "@" pass through unchanged without an existence check; anything else is
// treated as a username and resolved case-insensitively against the
// backend, failing with ErrNotFound when no profile matches.
func (e *Engine) ResolveLoginEmail(ctx context.Context, identifier string) (string, error) {
	if e == nil || e.backend == nil {
		return "", ErrEngineNotReady
	}

	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", ErrInvalidIdentifier
	}

	if strings.Contains(identifier, "@") {
		return identifier, nil
	}

	profile, err := e.backend.findByUsername(ctx, strings.ToLower(identifier))
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", ErrNotFound
	}
	return profile.Email, nil
}

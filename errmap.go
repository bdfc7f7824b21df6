package credo

import "fmt"

// Raw failure codes understood by [MapCode]. Both backends report failures
// through these strings; the remote identity service emits them natively
// and the local directory backend synthesizes them so callers observe one
// taxonomy regardless of mode.
const (
	CodeUserNotFound        = "auth/user-not-found"
	CodeWrongPassword       = "auth/wrong-password"
	CodeInvalidCredential   = "auth/invalid-credential"
	CodeEmailInUse          = "auth/email-already-in-use"
	CodeUsernameTaken       = "auth/username-already-in-use"
	CodeWeakPassword        = "auth/weak-password"
	CodeInvalidEmail        = "auth/invalid-email"
	CodeUserDisabled        = "auth/user-disabled"
	CodeTooManyRequests     = "auth/too-many-requests"
	CodeNetworkFailed       = "auth/network-request-failed"
	CodeUnverifiedEmail     = "auth/unverified-email"
	CodeOperationNotAllowed = "auth/operation-not-allowed"
)

var codeToErr = map[string]error{
	CodeUserNotFound:        ErrNotFound,
	CodeWrongPassword:       ErrWrongCredential,
	CodeInvalidCredential:   ErrWrongCredential,
	CodeEmailInUse:          ErrEmailTaken,
	CodeUsernameTaken:       ErrUsernameTaken,
	CodeWeakPassword:        ErrWeakCredential,
	CodeInvalidEmail:        ErrInvalidIdentifier,
	CodeUserDisabled:        ErrDisabled,
	CodeTooManyRequests:     ErrRateLimited,
	CodeNetworkFailed:       ErrNetworkFailure,
	CodeUnverifiedEmail:     ErrUnverified,
	CodeOperationNotAllowed: ErrUnsupported,
}

// MapCode translates a backend-specific failure code into one of the
// package sentinel errors. Unmapped codes fall back to [ErrUnknown] with
// the raw code preserved in the message for logs. MapCode is pure and
// total: it never panics and always returns a non-nil error.
func MapCode(raw string) error {
	if mapped, ok := codeToErr[raw]; ok {
		return mapped
	}
	return fmt.Errorf("%w: %s", ErrUnknown, raw)
}

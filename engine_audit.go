package credo

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventSignInSuccess         = "sign_in_success"
	auditEventSignInFailure         = "sign_in_failure"
	auditEventSignInRateLimited     = "sign_in_rate_limited"
	auditEventSignInProvider        = "sign_in_provider"
	auditEventSignInCancelled       = "sign_in_cancelled"
	auditEventSignOut               = "sign_out"
	auditEventRegisterSuccess       = "register_success"
	auditEventRegisterFailure       = "register_failure"
	auditEventBootstrapCreated      = "bootstrap_profile_created"
	auditEventPasswordChangeSuccess = "password_change_success"
	auditEventPasswordChangeFailure = "password_change_failure"
	auditEventPasswordResetSent     = "password_reset_sent"
	auditEventPasswordResetFailure  = "password_reset_failure"
	auditEventTemporaryIssued       = "temporary_password_issued"
	auditEventTemporaryFailure      = "temporary_password_failure"
	auditEventOverridesSaved        = "permission_overrides_saved"
	auditEventOverridesReset        = "permission_overrides_reset"
	auditEventOverridesRejected     = "permission_overrides_rejected"
	auditEventRateLimitTriggered    = "rate_limit_triggered"
)

// AuditErrorCode defines a public type used by credo APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrNotFound          AuditErrorCode = "user_not_found"
	auditErrWrongCredential   AuditErrorCode = "wrong_credential"
	auditErrUsernameTaken     AuditErrorCode = "username_taken"
	auditErrEmailTaken        AuditErrorCode = "email_taken"
	auditErrWeakCredential    AuditErrorCode = "weak_credential"
	auditErrInvalidIdentifier AuditErrorCode = "invalid_identifier"
	auditErrDisabled          AuditErrorCode = "account_disabled"
	auditErrRateLimited       AuditErrorCode = "rate_limited"
	auditErrNetworkFailure    AuditErrorCode = "network_failure"
	auditErrUnverified        AuditErrorCode = "unverified"
	auditErrForbidden         AuditErrorCode = "forbidden"
	auditErrUnsupported       AuditErrorCode = "unsupported"
	auditErrInternal          AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	profileID string,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		ProfileID: profileID,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Mode:      e.backend.mode().String(),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope, identifier string) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", "", nil, func() map[string]string {
		return map[string]string{
			"scope":      scope,
			"identifier": identifier,
		}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrWrongCredential):
		return auditErrWrongCredential
	case errors.Is(err, ErrUsernameTaken):
		return auditErrUsernameTaken
	case errors.Is(err, ErrEmailTaken):
		return auditErrEmailTaken
	case errors.Is(err, ErrWeakCredential):
		return auditErrWeakCredential
	case errors.Is(err, ErrInvalidIdentifier):
		return auditErrInvalidIdentifier
	case errors.Is(err, ErrDisabled):
		return auditErrDisabled
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrNetworkFailure):
		return auditErrNetworkFailure
	case errors.Is(err, ErrUnverified):
		return auditErrUnverified
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrUnsupported):
		return auditErrUnsupported
	default:
		return auditErrInternal
	}
}

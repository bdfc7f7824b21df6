package credo

import (
	"context"
	"log"

	"github.com/iglesia-app/credo/password"
)

// ChangePassword re-verifies the current password for the signed-in user
// and only then applies the new one. The session stays authenticated with
// the refreshed profile.
func (e *Engine) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if e == nil || e.backend == nil {
		return ErrEngineNotReady
	}

	snapshot := e.Session()
	if snapshot.State != SessionAuthenticated {
		return e.passwordChangeFailure(ctx, "", ErrNotFound, "not_authenticated")
	}
	profile := snapshot.Profile

	if currentPassword == "" {
		return e.passwordChangeFailure(ctx, profile.ID, ErrWrongCredential, "empty_current")
	}
	if len(newPassword) < e.config.Password.MinLength {
		return e.passwordChangeFailure(ctx, profile.ID, ErrWeakCredential, "password_too_short")
	}

	updated, err := e.backend.changePassword(ctx, profile, currentPassword, newPassword)
	if err != nil {
		return e.passwordChangeFailure(ctx, profile.ID, err, "backend_rejected")
	}

	if err := e.backend.persistSession(ctx, &updated); err != nil {
		log.Print("credo: session persist failed after password change")
	}
	e.publishAuthenticated(updated)

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, profile.ID, profile.Email, nil, nil)
	return nil
}

func (e *Engine) passwordChangeFailure(ctx context.Context, profileID string, opErr error, reason string) error {
	e.metricInc(MetricPasswordChangeFailure)
	e.emitAudit(ctx, auditEventPasswordChangeFailure, false, profileID, "", opErr, func() map[string]string {
		return map[string]string{
			"reason": reason,
		}
	})
	return opErr
}

// IssueTemporaryPassword generates a temporary password for the profile
// with the given id and applies it through the active backend. Only an
// admin actor may call it. The cleartext is returned exactly once, for
// out-of-band delivery, and is never retrievable again in remote mode.
func (e *Engine) IssueTemporaryPassword(ctx context.Context, targetID string) (string, error) {
	if e == nil || e.backend == nil {
		return "", ErrEngineNotReady
	}

	if !e.actorIsAdmin(ctx) {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventTemporaryFailure, false, targetID, "", ErrForbidden, nil)
		return "", ErrForbidden
	}

	target, err := e.backend.getProfile(ctx, targetID)
	if err != nil {
		return "", err
	}
	if target == nil {
		e.emitAudit(ctx, auditEventTemporaryFailure, false, targetID, "", ErrNotFound, nil)
		return "", ErrNotFound
	}

	length := e.config.Password.TemporaryLength
	if length < password.MinTemporaryLength {
		length = password.MinTemporaryLength
	}
	temp, err := password.Temporary(length)
	if err != nil {
		return "", err
	}

	if err := e.backend.setUserPassword(ctx, *target, temp); err != nil {
		e.emitAudit(ctx, auditEventTemporaryFailure, false, target.ID, target.Email, err, nil)
		return "", err
	}

	e.metricInc(MetricTemporaryIssued)
	e.emitAudit(ctx, auditEventTemporaryIssued, true, target.ID, target.Email, nil, nil)
	return temp, nil
}

// SendForgotPasswordEmail asks the remote identity service to deliver a
// reset email. Local mode has no mail transport and fails with
// ErrUnsupported; callers should surface that as a mode limitation.
func (e *Engine) SendForgotPasswordEmail(ctx context.Context, email string) error {
	if e == nil || e.backend == nil {
		return ErrEngineNotReady
	}

	if err := e.backend.sendPasswordReset(ctx, email); err != nil {
		e.emitAudit(ctx, auditEventPasswordResetFailure, false, "", email, err, nil)
		return err
	}

	e.metricInc(MetricPasswordResetSent)
	e.emitAudit(ctx, auditEventPasswordResetSent, true, "", email, nil, nil)
	return nil
}

// actorIsAdmin resolves the acting role: an explicit WithActorRole value
// wins, otherwise the current session's role is used.
func (e *Engine) actorIsAdmin(ctx context.Context) bool {
	if role, ok := actorRoleFromContext(ctx); ok {
		return role == RoleAdmin
	}

	snapshot := e.Session()
	return snapshot.State == SessionAuthenticated && snapshot.Profile.Role == RoleAdmin
}

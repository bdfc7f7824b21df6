package credo

import (
	"context"

	"github.com/iglesia-app/credo/permission"
)

// EffectivePermissions resolves the module visibility map for role:
// static defaults overlaid with the stored sparse overrides. The admin
// role is unconditionally all-true and never consults the override store,
// so no stored state can restrict an admin.
func (e *Engine) EffectivePermissions(ctx context.Context, role Role) (map[string]bool, error) {
	if e == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}
	if !role.Valid() {
		return nil, ErrInvalidIdentifier
	}

	if role == RoleAdmin {
		return permission.AllGranted(), nil
	}

	defaults, ok := permission.Defaults(string(role))
	if !ok {
		return nil, ErrInvalidIdentifier
	}

	overrides, err := e.backend.loadOverrides(ctx, role)
	if err != nil {
		return nil, err
	}

	return permission.Merge(defaults, overrides), nil
}

// UpdateCustomPermissions merges partial into the stored override map for
// role. Only an admin actor may call it, the admin role itself can never
// be overridden, and every key must exist in the module catalog.
// Concurrent edits to the same role are last-write-wins on the whole map.
func (e *Engine) UpdateCustomPermissions(ctx context.Context, role Role, partial map[string]bool) error {
	if e == nil || e.backend == nil {
		return ErrEngineNotReady
	}

	if !e.actorIsAdmin(ctx) {
		return e.overridesRejected(ctx, role, ErrForbidden, "actor_not_admin")
	}
	if !role.Valid() {
		return e.overridesRejected(ctx, role, ErrInvalidIdentifier, "unknown_role")
	}
	if role == RoleAdmin {
		return e.overridesRejected(ctx, role, ErrForbidden, "admin_role_immutable")
	}
	for key := range partial {
		if !permission.Known(key) {
			return e.overridesRejected(ctx, role, ErrInvalidIdentifier, "unknown_module_key")
		}
	}
	if len(partial) == 0 {
		return nil
	}

	overrides, err := e.backend.loadOverrides(ctx, role)
	if err != nil {
		return err
	}
	if overrides == nil {
		overrides = make(map[string]bool, len(partial))
	}
	for key, granted := range partial {
		overrides[key] = granted
	}

	if err := e.backend.saveOverrides(ctx, role, overrides); err != nil {
		return err
	}

	e.metricInc(MetricOverridesSaved)
	e.emitAudit(ctx, auditEventOverridesSaved, true, "", "", nil, func() map[string]string {
		return map[string]string{
			"role": string(role),
		}
	})
	return nil
}

// ResetPermissionsToDefault deletes the entire override map for role,
// restoring pure defaults. Resetting the admin role is a no-op success;
// there is nothing stored for it to delete.
func (e *Engine) ResetPermissionsToDefault(ctx context.Context, role Role) error {
	if e == nil || e.backend == nil {
		return ErrEngineNotReady
	}

	if !e.actorIsAdmin(ctx) {
		return e.overridesRejected(ctx, role, ErrForbidden, "actor_not_admin")
	}
	if !role.Valid() {
		return e.overridesRejected(ctx, role, ErrInvalidIdentifier, "unknown_role")
	}
	if role == RoleAdmin {
		return nil
	}

	if err := e.backend.deleteOverrides(ctx, role); err != nil {
		return err
	}

	e.metricInc(MetricOverridesReset)
	e.emitAudit(ctx, auditEventOverridesReset, true, "", "", nil, func() map[string]string {
		return map[string]string{
			"role": string(role),
		}
	})
	return nil
}

func (e *Engine) overridesRejected(ctx context.Context, role Role, opErr error, reason string) error {
	e.metricInc(MetricOverridesRejected)
	e.emitAudit(ctx, auditEventOverridesRejected, false, "", "", opErr, func() map[string]string {
		return map[string]string{
			"role":   string(role),
			"reason": reason,
		}
	})
	return opErr
}

package credo

import "context"

type clientIPContextKey struct{}
type actorRoleContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine uses it
// for per-IP login throttling and audit logging.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithActorRole attaches the role of the caller performing an operation to
// ctx. Permission management operations require an admin actor; when no
// actor role is attached the current session's role is used instead.
func WithActorRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, actorRoleContextKey{}, role)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func actorRoleFromContext(ctx context.Context) (Role, bool) {
	if ctx == nil {
		return "", false
	}

	role, ok := ctx.Value(actorRoleContextKey{}).(Role)
	if !ok || role == "" {
		return "", false
	}

	return role, true
}

package credo

// SecurityReport summarizes the engine's security posture for startup
// logging and operational review. It contains no secrets.
type SecurityReport struct {
	Mode               Mode
	Argon2             PasswordConfigReport
	MinPasswordLength  int
	TemporaryLength    int
	UpgradeOnLogin     bool
	RateLimitingActive bool
	IPThrottleActive   bool
	AuditActive        bool
	MetricsActive      bool
}

// PasswordConfigReport defines a public type used by credo APIs.
//
// PasswordConfigReport instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// SecurityReport describes the securityreport operation and its observable behavior.
//
// SecurityReport may return an error when input validation, dependency calls, or security checks fail.
// SecurityReport does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	rateLimiting := e.rateLimiter != nil &&
		e.config.Security.MaxLoginAttempts > 0 &&
		e.config.Security.LoginCooldown > 0

	return SecurityReport{
		Mode: e.Mode(),
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
		MinPasswordLength:  e.config.Password.MinLength,
		TemporaryLength:    e.config.Password.TemporaryLength,
		UpgradeOnLogin:     e.config.Password.UpgradeOnLogin,
		RateLimitingActive: rateLimiting,
		IPThrottleActive:   rateLimiting && e.config.Security.EnableIPThrottle,
		AuditActive:        e.audit != nil,
		MetricsActive:      e.metrics.Enabled(),
	}
}

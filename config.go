package credo

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Mode identifies which backend verifies credentials. It is resolved once
// from configuration presence at [Builder.Build] and never changes for the
// life of the process.
type Mode uint8

const (
	// ModeLocal is an exported constant or variable used by the identity engine.
	ModeLocal Mode = iota
	// ModeRemote is an exported constant or variable used by the identity engine.
	ModeRemote
)

// String reports the lowercase mode name.
func (m Mode) String() string {
	if m == ModeRemote {
		return "remote"
	}
	return "local"
}

// Config defines a public type used by credo APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Remote    RemoteConfig
	Directory DirectoryConfig
	Password  PasswordConfig
	Bootstrap BootstrapConfig
	Security  SecurityConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// RemoteConfig identifies the remote identity service deployment. When
// both fields are non-empty the engine runs in remote mode; otherwise it
// falls back to the local directory.
type RemoteConfig struct {
	APIKey    string `env:"CREDO_REMOTE_API_KEY"`
	ProjectID string `env:"CREDO_REMOTE_PROJECT_ID"`
}

// Configured reports whether remote credentials are present.
func (r RemoteConfig) Configured() bool {
	return r.APIKey != "" && r.ProjectID != ""
}

// DirectoryConfig tunes the local directory store.
type DirectoryConfig struct {
	RedisPrefix string `env:"CREDO_DIRECTORY_PREFIX"`
}

// PasswordConfig defines a public type used by credo APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory          uint32 `env:"CREDO_PASSWORD_MEMORY_KB"` // in KB
	Time            uint32 `env:"CREDO_PASSWORD_TIME"`
	Parallelism     uint8  `env:"CREDO_PASSWORD_PARALLELISM"`
	SaltLength      uint32 `env:"CREDO_PASSWORD_SALT_LENGTH"`
	KeyLength       uint32 `env:"CREDO_PASSWORD_KEY_LENGTH"`
	MinLength       int    `env:"CREDO_PASSWORD_MIN_LENGTH"`
	TemporaryLength int    `env:"CREDO_PASSWORD_TEMP_LENGTH"`
	UpgradeOnLogin  bool   `env:"CREDO_PASSWORD_UPGRADE_ON_LOGIN"`
}

// BootstrapConfig names the well-known address that is granted the admin
// role at registration even when other profiles already exist.
type BootstrapConfig struct {
	AdminEmail string `env:"CREDO_BOOTSTRAP_ADMIN_EMAIL"`
}

// SecurityConfig defines a public type used by credo APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	EnableLoginThrottle bool          `env:"CREDO_LOGIN_THROTTLE"`
	EnableIPThrottle    bool          `env:"CREDO_IP_THROTTLE"`
	MaxLoginAttempts    int           `env:"CREDO_MAX_LOGIN_ATTEMPTS"`
	LoginCooldown       time.Duration `env:"CREDO_LOGIN_COOLDOWN"`
}

// AuditConfig defines a public type used by credo APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool `env:"CREDO_AUDIT_ENABLED"`
	BufferSize int  `env:"CREDO_AUDIT_BUFFER"`
	DropIfFull bool `env:"CREDO_AUDIT_DROP_IF_FULL"`
}

// MetricsConfig defines a public type used by credo APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool `env:"CREDO_METRICS_ENABLED"`
	EnableLatencyHistograms bool `env:"CREDO_METRICS_LATENCY"`
}

// Mode resolves the backend selection from configuration presence.
func (c Config) Mode() Mode {
	if c.Remote.Configured() {
		return ModeRemote
	}
	return ModeLocal
}

// DefaultConfig returns the configuration the engine starts from before
// any overrides: local mode, argon2id at 64MB/3/2, 8 character password
// minimum, login throttling at 5 attempts per minute, audit and metrics
// enabled.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Directory: DirectoryConfig{
			RedisPrefix: directoryKeyPrefix,
		},
		Password: PasswordConfig{
			Memory:          64 * 1024,
			Time:            3,
			Parallelism:     2,
			SaltLength:      16,
			KeyLength:       32,
			MinLength:       8,
			TemporaryLength: 12,
			UpgradeOnLogin:  true,
		},
		Security: SecurityConfig{
			EnableLoginThrottle: true,
			MaxLoginAttempts:    5,
			LoginCooldown:       time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// ConfigFromEnv returns the default configuration overlaid with
// CREDO_*-prefixed environment variables.
func ConfigFromEnv() (Config, error) {
	cfg := defaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if c.Password.MinLength < 8 {
		return errors.New("password minimum length must be >= 8")
	}
	if c.Password.TemporaryLength < 12 {
		return errors.New("temporary password length must be >= 12")
	}
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("login throttle requires MaxLoginAttempts > 0")
		}
		if c.Security.LoginCooldown <= 0 {
			return errors.New("login throttle requires LoginCooldown > 0")
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit requires BufferSize > 0")
	}
	return nil
}

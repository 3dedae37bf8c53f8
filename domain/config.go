package domain

import (
	"strings"
	"time"
)

// Component names understood out of the box.
const (
	ComponentDirect = "direct"
	ComponentLocal  = "local"
	ComponentGRPC   = "grpc"
)

// FaultTolerancePolicy configures the circuit breaker and bulkhead around one command.
// Timeout bounds one composed operation; MaxConcurrent is the bulkhead size;
// the circuit opens once RequestVolumeThreshold calls were seen in the rolling window and
// ErrorPercentThreshold of them failed, and stays open for SleepWindow.
type FaultTolerancePolicy struct {
	Timeout                time.Duration
	MaxConcurrent          int
	ErrorPercentThreshold  int
	RequestVolumeThreshold int
	SleepWindow            time.Duration
}

// FaultToleranceConfig holds the default policy and per-service overrides keyed by BeanKey.String().
type FaultToleranceConfig struct {
	Enabled  bool
	Default  FaultTolerancePolicy
	Services map[string]FaultTolerancePolicy
}

// PolicyFor returns the override for command or the default policy.
func (c FaultToleranceConfig) PolicyFor(command string) FaultTolerancePolicy {
	if p, ok := c.Services[command]; ok {
		return p
	}
	return c.Default
}

// Config is the runtime configuration of one application instance.
type Config struct {
	// RegistryURL is the base URL of the registry server; empty when the registry is supplied in process.
	RegistryURL string
	// LeaseDuration is the lease requested for every published entry.
	LeaseDuration time.Duration
	// RenewInterval is how often leases are renewed; must be shorter than LeaseDuration.
	RenewInterval time.Duration
	// BindInterval is the bean state worker period.
	BindInterval time.Duration
	// BindTimeout bounds a single bind attempt.
	BindTimeout time.Duration
	// Subsystem and Tag make up the zone of this instance.
	Subsystem string
	Tag       string
	// ApplicationInstanceID identifies the publisher and qualifies its ServiceAdministrator.
	ApplicationInstanceID string
	// PublishServices is the initial value of the blue/green publish flag.
	PublishServices bool
	// ServiceComponent is the component used to export services from this instance.
	ServiceComponent string
	// APIVersion is advertised with every exported service.
	APIVersion string
	// FaultTolerance configures the remoting fault-tolerance layer.
	FaultTolerance FaultToleranceConfig
}

// DefaultConfig returns a configuration with every interval set.
func DefaultConfig() Config {
	return Config{
		LeaseDuration:    60 * time.Second,
		RenewInterval:    30 * time.Second,
		BindInterval:     10 * time.Second,
		BindTimeout:      5 * time.Second,
		Subsystem:        "default",
		PublishServices:  true,
		ServiceComponent: ComponentDirect,
		APIVersion:       "1",
		FaultTolerance: FaultToleranceConfig{
			Enabled: true,
			Default: FaultTolerancePolicy{
				Timeout:                time.Second,
				MaxConcurrent:          10,
				ErrorPercentThreshold:  50,
				RequestVolumeThreshold: 20,
				SleepWindow:            5 * time.Second,
			},
		},
	}
}

// Zone returns the zone of this instance.
func (c Config) Zone() Zone {
	return Zone{Subsystem: c.Subsystem, Tag: c.Tag}
}

// ValidateConfig checks intervals, identity and fault-tolerance policies.
//
// Returns: nil when valid; *ConfigError naming the first offending field otherwise.
func ValidateConfig(c Config) error {
	if c.LeaseDuration <= 0 {
		return &ConfigError{Field: "lease_duration", Reason: "must be positive"}
	}
	if c.RenewInterval <= 0 {
		return &ConfigError{Field: "renew_interval", Reason: "must be positive"}
	}
	if c.RenewInterval >= c.LeaseDuration {
		return &ConfigError{Field: "renew_interval", Reason: "must be shorter than lease_duration"}
	}
	if c.BindInterval <= 0 {
		return &ConfigError{Field: "bind_interval", Reason: "must be positive"}
	}
	if c.BindTimeout <= 0 {
		return &ConfigError{Field: "bind_timeout", Reason: "must be positive"}
	}
	if strings.TrimSpace(c.Subsystem) == "" {
		return &ConfigError{Field: "subsystem", Reason: "must be non-empty"}
	}
	if strings.Contains(c.Subsystem, zoneSeparator) || strings.Contains(c.Tag, zoneSeparator) {
		return &ConfigError{Field: "subsystem", Reason: "subsystem and tag must not contain " + zoneSeparator}
	}
	if strings.TrimSpace(c.ApplicationInstanceID) == "" {
		return &ConfigError{Field: "application_instance_id", Reason: "must be non-empty"}
	}
	if c.ServiceComponent == "" {
		return &ConfigError{Field: "service_component", Reason: "must be non-empty"}
	}
	if c.FaultTolerance.Enabled {
		if err := validatePolicy("fault_tolerance.default", c.FaultTolerance.Default); err != nil {
			return err
		}
		for name, p := range c.FaultTolerance.Services {
			if err := validatePolicy("fault_tolerance.services."+name, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func validatePolicy(field string, p FaultTolerancePolicy) error {
	if p.Timeout <= 0 {
		return &ConfigError{Field: field + ".timeout", Reason: "must be positive"}
	}
	if p.MaxConcurrent <= 0 {
		return &ConfigError{Field: field + ".max_concurrent", Reason: "must be positive"}
	}
	if p.ErrorPercentThreshold <= 0 || p.ErrorPercentThreshold > 100 {
		return &ConfigError{Field: field + ".error_percent_threshold", Reason: "must be 1-100"}
	}
	if p.RequestVolumeThreshold <= 0 {
		return &ConfigError{Field: field + ".request_volume_threshold", Reason: "must be positive"}
	}
	if p.SleepWindow <= 0 {
		return &ConfigError{Field: field + ".sleep_window", Reason: "must be positive"}
	}
	return nil
}

// ConfigError is returned by ValidateConfig. Field is the yaml-style path of the offending setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "config " + e.Field + ": " + e.Reason
}

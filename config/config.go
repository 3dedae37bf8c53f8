// Package config loads domain.Config from a YAML file and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"myremoting/domain"

	"gopkg.in/yaml.v3"
)

// Env variable names. Environment values override the YAML file.
const (
	EnvConfigPath      = "MYREMOTING_CONFIG_PATH"
	EnvSubsystem       = "MYREMOTING_SUBSYSTEM"
	EnvTag             = "MYREMOTING_TAG"
	EnvRegistryURL     = "MYREMOTING_REGISTRY_URL"
	EnvAppInstanceID   = "MYREMOTING_APP_INSTANCE_ID"
	EnvPublishServices = "MYREMOTING_PUBLISH_SERVICES"
)

// yamlConfig is the root struct for YAML unmarshalling. Durations are milliseconds; zero or absent
// values keep the defaults of domain.DefaultConfig.
type yamlConfig struct {
	RegistryURL           string              `yaml:"registry_url"`
	LeaseMs               int                 `yaml:"lease_ms"`
	RenewIntervalMs       int                 `yaml:"renew_interval_ms"`
	BindIntervalMs        int                 `yaml:"bind_interval_ms"`
	BindTimeoutMs         int                 `yaml:"bind_timeout_ms"`
	Subsystem             string              `yaml:"subsystem"`
	Tag                   string              `yaml:"tag"`
	ApplicationInstanceID string              `yaml:"application_instance_id"`
	PublishServices       *bool               `yaml:"publish_services"`
	ServiceComponent      string              `yaml:"service_component"`
	APIVersion            string              `yaml:"api_version"`
	FaultTolerance        *yamlFaultTolerance `yaml:"fault_tolerance"`
}

// yamlFaultTolerance holds the enabled flag, the default policy and per-service overrides keyed by
// bean key (e.g. "myapp/api.AccountPerformance[eu]").
type yamlFaultTolerance struct {
	Enabled  *bool                 `yaml:"enabled"`
	Default  yamlPolicy            `yaml:"default"`
	Services map[string]yamlPolicy `yaml:"services"`
}

type yamlPolicy struct {
	TimeoutMs              int `yaml:"timeout_ms"`
	MaxConcurrent          int `yaml:"max_concurrent"`
	ErrorPercentThreshold  int `yaml:"error_percent_threshold"`
	RequestVolumeThreshold int `yaml:"request_volume_threshold"`
	SleepWindowMs          int `yaml:"sleep_window_ms"`
}

// loadYAMLConfig reads the YAML file at path and unmarshals it into yamlConfig.
func loadYAMLConfig(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out yamlConfig
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadFromEnv loads the file named by MYREMOTING_CONFIG_PATH (optional) and applies the environment.
func LoadFromEnv() (domain.Config, error) {
	return Load(strings.TrimSpace(os.Getenv(EnvConfigPath)))
}

// Load builds a configuration: domain.DefaultConfig, overlaid with the YAML file at path (skipped when
// path is empty), overlaid with environment variables, then validated with domain.ValidateConfig.
//
// Returns: (config, nil) on success; (zero, error) on read or parse failure, an invalid environment
// value, or a validation failure wrapping *domain.ConfigError.
//
// Called from application main functions at startup.
func Load(path string) (domain.Config, error) {
	cfg := domain.DefaultConfig()
	if path != "" {
		if !filepath.IsAbs(path) {
			abs, err := filepath.Abs(path)
			if err != nil {
				return domain.Config{}, err
			}
			path = abs
		}
		raw, err := loadYAMLConfig(path)
		if err != nil {
			return domain.Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		applyYAML(&cfg, raw)
	}
	if err := applyEnv(&cfg); err != nil {
		return domain.Config{}, err
	}
	if err := domain.ValidateConfig(cfg); err != nil {
		return domain.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func millis(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func orString(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func applyYAML(cfg *domain.Config, raw *yamlConfig) {
	cfg.RegistryURL = orString(raw.RegistryURL, cfg.RegistryURL)
	cfg.LeaseDuration = millis(raw.LeaseMs, cfg.LeaseDuration)
	cfg.RenewInterval = millis(raw.RenewIntervalMs, cfg.RenewInterval)
	if raw.LeaseMs > 0 && raw.RenewIntervalMs <= 0 {
		cfg.RenewInterval = cfg.LeaseDuration / 2
	}
	cfg.BindInterval = millis(raw.BindIntervalMs, cfg.BindInterval)
	cfg.BindTimeout = millis(raw.BindTimeoutMs, cfg.BindTimeout)
	cfg.Subsystem = orString(raw.Subsystem, cfg.Subsystem)
	cfg.Tag = orString(raw.Tag, cfg.Tag)
	cfg.ApplicationInstanceID = orString(raw.ApplicationInstanceID, cfg.ApplicationInstanceID)
	if raw.PublishServices != nil {
		cfg.PublishServices = *raw.PublishServices
	}
	cfg.ServiceComponent = orString(raw.ServiceComponent, cfg.ServiceComponent)
	cfg.APIVersion = orString(raw.APIVersion, cfg.APIVersion)

	if ft := raw.FaultTolerance; ft != nil {
		if ft.Enabled != nil {
			cfg.FaultTolerance.Enabled = *ft.Enabled
		}
		cfg.FaultTolerance.Default = overlayPolicy(cfg.FaultTolerance.Default, ft.Default)
		if len(ft.Services) > 0 {
			cfg.FaultTolerance.Services = make(map[string]domain.FaultTolerancePolicy, len(ft.Services))
			for name, p := range ft.Services {
				cfg.FaultTolerance.Services[name] = overlayPolicy(cfg.FaultTolerance.Default, p)
			}
		}
	}
}

// overlayPolicy returns base with every non-zero field of p applied.
func overlayPolicy(base domain.FaultTolerancePolicy, p yamlPolicy) domain.FaultTolerancePolicy {
	return domain.FaultTolerancePolicy{
		Timeout:                millis(p.TimeoutMs, base.Timeout),
		MaxConcurrent:          orInt(p.MaxConcurrent, base.MaxConcurrent),
		ErrorPercentThreshold:  orInt(p.ErrorPercentThreshold, base.ErrorPercentThreshold),
		RequestVolumeThreshold: orInt(p.RequestVolumeThreshold, base.RequestVolumeThreshold),
		SleepWindow:            millis(p.SleepWindowMs, base.SleepWindow),
	}
}

func applyEnv(cfg *domain.Config) error {
	cfg.Subsystem = orString(os.Getenv(EnvSubsystem), cfg.Subsystem)
	cfg.Tag = orString(os.Getenv(EnvTag), cfg.Tag)
	cfg.RegistryURL = orString(os.Getenv(EnvRegistryURL), cfg.RegistryURL)
	cfg.ApplicationInstanceID = orString(os.Getenv(EnvAppInstanceID), cfg.ApplicationInstanceID)
	if v := strings.TrimSpace(os.Getenv(EnvPublishServices)); v != "" {
		publish, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPublishServices, err)
		}
		cfg.PublishServices = publish
	}
	return nil
}

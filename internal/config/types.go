package config

import "time"

// Config is the complete migrationmcp configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Stage        StageConfig        `yaml:"stage"`
	Dependencies DependenciesConfig `yaml:"dependencies"`
	Remediation  RemediationConfig  `yaml:"remediation"`
	Confirmation ConfirmationConfig `yaml:"confirmation"`
	Resolver     ResolverConfig     `yaml:"resolver"`
	Analysis     AnalysisConfig     `yaml:"analysis"`
	Auth         AuthConfig         `yaml:"auth"`
	AWS          AWSConfig          `yaml:"aws"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig selects the MCP transport and where it listens.
type ServerConfig struct {
	Transport    string `yaml:"transport" validate:"oneof=streamable-http sse stdio"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port" validate:"gte=0,lte=65535"`
	BaseURL      string `yaml:"baseURL" validate:"omitempty,url"`
	EndpointPath string `yaml:"endpointPath" validate:"startswith=/"`
}

// StageConfig holds the stage defaults. Override is only set from MCP_STAGE.
type StageConfig struct {
	Default  string `yaml:"default"`
	Override string `yaml:"-"`
}

// DependenciesConfig controls the dependency probe.
type DependenciesConfig struct {
	Markers  []string `yaml:"markers" validate:"min=1,dive,required"`
	Manifest string   `yaml:"manifest" validate:"required"`
}

// RemediationConfig controls what happens after an install is confirmed.
type RemediationConfig struct {
	// Mode is "launch" to start the command or "instruct" to only return it.
	Mode     string            `yaml:"mode" validate:"oneof=launch instruct"`
	Command  string            `yaml:"command" validate:"required"`
	Terminal []string          `yaml:"terminal"`
	Cooldown time.Duration     `yaml:"cooldown" validate:"gte=0"`
	Env      map[string]string `yaml:"env"`
}

// ConfirmationConfig controls how install confirmations are asked.
type ConfirmationConfig struct {
	// Mode is "ticket" (answer in a follow-up call), "terminal" (prompt on the
	// controlling terminal) or "none" (report missing dependencies only).
	Mode    string        `yaml:"mode" validate:"oneof=ticket terminal none"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// ResolverConfig controls the configuration resolution command.
type ResolverConfig struct {
	Command string            `yaml:"command" validate:"required"`
	Timeout time.Duration     `yaml:"timeout" validate:"gt=0"`
	Env     map[string]string `yaml:"env"`
}

// AnalysisConfig controls the database reference scan.
type AnalysisConfig struct {
	Prefixes []string `yaml:"prefixes" validate:"dive,required"`
}

// AuthConfig controls the GitHub access gate on the HTTP transports.
type AuthConfig struct {
	Enabled       bool          `yaml:"enabled"`
	AllowedDomain string        `yaml:"allowedDomain"`
	CacheTTL      time.Duration `yaml:"cacheTTL" validate:"gte=0"`
	GitHubBaseURL string        `yaml:"githubBaseURL" validate:"omitempty,url"`
}

// AWSConfig controls the AWS credential diagnostics.
type AWSConfig struct {
	Diagnostics bool   `yaml:"diagnostics"`
	Profile     string `yaml:"profile"`
	Region      string `yaml:"region"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

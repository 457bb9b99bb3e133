package config

import "time"

// GetDefaultConfig returns the configuration used when no file overrides it.
func GetDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Transport:    "streamable-http",
			Host:         "0.0.0.0",
			Port:         8000,
			EndpointPath: "/mcp",
		},
		Stage: StageConfig{
			Default: "TEST",
		},
		Dependencies: DependenciesConfig{
			Markers:  []string{"node_modules"},
			Manifest: "package.json",
		},
		Remediation: RemediationConfig{
			Mode:     "launch",
			Command:  "npm i --dd",
			Cooldown: 2 * time.Minute,
		},
		Confirmation: ConfirmationConfig{
			Mode:    "ticket",
			Timeout: 5 * time.Minute,
		},
		Resolver: ResolverConfig{
			Command: "npx serverless print --format yaml",
			Timeout: 60 * time.Second,
		},
		Analysis: AnalysisConfig{
			Prefixes: []string{"AX", "AE", "SAS", "RSA"},
		},
		Auth: AuthConfig{
			AllowedDomain: "@rimac.com.pe",
			CacheTTL:      10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

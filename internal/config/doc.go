// Package config provides configuration management for migrationmcp.
//
// Configuration is loaded and merged in the following order, later sources
// overriding earlier ones:
//
//  1. Default configuration (embedded in the binary)
//  2. User configuration (~/.config/migrationmcp/config.yaml)
//  3. Project configuration (./.migrationmcp/config.yaml)
//  4. The file named by --config, if any
//  5. Environment: MCP_STAGE, MCP_HOST, MCP_PORT, MCP_TRANSPORT, MCP_BASE_URL, MCP_LOG_LEVEL
//
// MCP_STAGE does not replace stage.default; it is kept separately and wins
// over it whenever a call does not name a stage.
//
// # Example
//
//	server:
//	  transport: streamable-http
//	  port: 8000
//	stage:
//	  default: TEST
//	remediation:
//	  mode: launch
//	  command: npm i --dd
//	  terminal: ["tmux", "new-window", "-c", "{project}"]
//	  cooldown: 2m
//	confirmation:
//	  mode: ticket
//	  timeout: 5m
//	resolver:
//	  command: npx serverless print --format yaml
//	  timeout: 60s
//	analysis:
//	  prefixes: [AX, AE, SAS, RSA]
//	auth:
//	  enabled: true
//	  allowedDomain: "@rimac.com.pe"
//	aws:
//	  diagnostics: true
//	  profile: default
//	logging:
//	  level: info
//	  format: text
package config

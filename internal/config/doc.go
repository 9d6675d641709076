// Package config loads the excellia configuration.
//
// Values are merged in this order, later sources winning:
//
//  1. Built-in defaults (Default)
//  2. A TOML file: --config, $EXCELLIA_CONFIG, or ./excellia.toml
//  3. A .env file in the working directory (never overrides the process environment)
//  4. EXCELLIA_* environment variables
//
// # File Format
//
//	listen           = ":3000"
//	upstream         = "http://localhost:8888"
//	prefix           = "/proxy"
//	error_mode       = "unified"   # or "compat"
//	upstream_timeout = "0s"
//	allowed_origins  = ["http://localhost:3000"]
//	metrics          = true
//	rate_limit       = 0
//	rate_window      = "1m"
//	audit_log        = "/var/log/excellia/relay.jsonl"
//	state_dir        = "~/.excellia"
//
//	[api]
//	base_url          = "http://localhost:3000/proxy"
//	students_path     = "api/students"
//	scholarships_path = "gestion-bourse-condidature-service/api/bourses"
//	timeout           = "30s"
//
// Validate reports every problem in one error.
package config

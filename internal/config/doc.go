// Package config handles configuration loading for feedlog.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from FEEDLOG_CONFIG environment variable
//  2. ./config.yaml (current directory)
//  3. ~/.config/feedlog/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${FEEDLOG_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Database:
//
//	database:
//	  path: "/var/lib/feedlog/feedlog.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${FEEDLOG_JWT_SECRET}"  # Required for the JSON API
//	  secure_cookies: true                 # Enable behind HTTPS
//	  registration: "open"                 # open, closed
//
// Web UI:
//
//	web:
//	  base_url: "https://feedlog.example.com"
//
// Tailscale:
//
//	tailscale:
//	  enabled: false
//	  hostname: "feedlog"
//	  auth_key: "${TS_AUTHKEY}"
//	  funnel: false
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load configuration from a specific path:
//
//	cfg, err := config.Load("/etc/feedlog/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

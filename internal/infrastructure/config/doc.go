// Package config loads and validates tommy-core configuration.
//
// Configuration comes from a YAML file with environment variable overrides
// (TOMMY_* pattern). The TOMMY hub host and MQTT port are mandatory; every
// other setting has a working default so a minimal config file is just:
//
//	tommy:
//	  host: "192.168.1.50"
//
// Validation runs at load time and reports every problem in one error,
// naming the offending keys, so misconfiguration fails the process at
// startup rather than surfacing mid-pipeline.
package config

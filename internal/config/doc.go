// Package config provides configuration management for deployer.
//
// Settings are loaded from a single directory. The default directory is
// ~/.config/deployer, and commands accept --config-path to point elsewhere.
//
// # Configuration Directory
//
// The directory contains config.yaml. A missing file is not an error; the
// defaults from GetDefaultConfig are used instead.
//
// # Environment Overrides
//
// After the file is read, the following variables override it:
//
//	DEPLOYER_LOG_LEVEL          logLevel
//	DEPLOYER_LOG_FORMAT         logFormat
//	DEPLOYER_METRICS_ADDR       metrics.address
//	DEPLOYER_FANOUT             orchestrator.fanOut
//	DEPLOYER_SCOPE_CONNECTIONS  orchestrator.scopeConnectionsToGroup
//
// # Example config.yaml
//
//	logLevel: info
//	logFormat: text
//	metrics:
//	  address: ":9464"
//	orchestrator:
//	  fanOut: all
//	  scopeConnectionsToGroup: false
//	packages: [ocl]
//	services: [marshalling, scripting]
//	componentTypes:
//	  - name: Sensor
//	    package: ocl
//	    ports:
//	      - {name: out, direction: output}
//	    properties:
//	      rate: 10
//
// # Errors
//
// ConfigurationError and ConfigurationErrorCollection carry every problem found
// while reading settings or deployment documents, so that a single pass
// reports all of them. ValidationErrors collects field level problems of a
// single settings value.
package config

// Package config defines the bankmesh-server configuration.
//
//   - spec.go: koanf-tagged configuration structure
//   - default.go: built-in defaults, also fed to the loader as a map
//   - verify.go: startup validation
//   - sanitize.go: a copy that is safe to log
package config

package config

import "path/filepath"

// Sanitize returns a copy of the config that is safe to log. Only the
// private key file's base name is kept.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	if sanitized.Keys.PrivateKeyFile != "" {
		sanitized.Keys.PrivateKeyFile = ".../" + filepath.Base(sanitized.Keys.PrivateKeyFile)
	}
	return &sanitized
}

package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
	"github.com/yndnr/bankmesh-go/internal/storage"
	"github.com/yndnr/bankmesh-go/internal/telemetry/logger"
)

// maxMessageCeiling bounds server.max_message_size.
const maxMessageCeiling = 1 << 20

// Verify validates the configuration. Failures are domain.ErrConfig.
func Verify(cfg *ServerConfig) error {
	checks := []func(*ServerConfig) error{
		verifyServer,
		verifyKeys,
		verifyStorage,
		verifyAdmin,
		verifyLog,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return domain.ErrConfig.WithCause(err)
		}
	}
	return nil
}

func verifyServer(cfg *ServerConfig) error {
	s := cfg.Server
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", s.Port)
	}
	switch strings.ToLower(s.Framing) {
	case FramingRaw, FramingLength:
	default:
		return fmt.Errorf("server.framing must be %q or %q, got %q", FramingRaw, FramingLength, s.Framing)
	}
	if s.MaxMessageSize < 1 || s.MaxMessageSize > maxMessageCeiling {
		return fmt.Errorf("server.max_message_size must be between 1 and %d", maxMessageCeiling)
	}
	if s.AcceptRate < 0 {
		return fmt.Errorf("server.accept_rate must not be negative")
	}
	if s.AcceptRate > 0 && s.AcceptBurst < 1 {
		return fmt.Errorf("server.accept_burst must be at least 1 when accept_rate is set")
	}
	if s.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}
	return nil
}

func verifyKeys(cfg *ServerConfig) error {
	if cfg.Keys.PrivateKeyFile == "" {
		return fmt.Errorf("keys.private_key_file is required")
	}
	return nil
}

func verifyStorage(cfg *ServerConfig) error {
	s := cfg.Storage
	if s.CredentialFile == "" {
		return fmt.Errorf("storage.credential_file is required")
	}
	switch s.Driver {
	case storage.DriverFile:
		if s.BalanceFile == "" {
			return fmt.Errorf("storage.balance_file is required for the file driver")
		}
	case storage.DriverBadger:
		if s.Badger.Dir == "" {
			return fmt.Errorf("storage.badger.dir is required for the badger driver")
		}
		if s.Badger.GCInterval != "" {
			if _, err := time.ParseDuration(s.Badger.GCInterval); err != nil {
				return fmt.Errorf("storage.badger.gc_interval: %w", err)
			}
		}
		if s.Badger.GCThreshold < 0 || s.Badger.GCThreshold >= 1 {
			return fmt.Errorf("storage.badger.gc_threshold must be in [0, 1)")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", s.Driver)
	}
	return nil
}

func verifyAdmin(cfg *ServerConfig) error {
	if cfg.Admin.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Admin.Addr); err != nil {
		return fmt.Errorf("admin.addr: %w", err)
	}
	if cfg.Admin.Addr == cfg.Server.Addr() {
		return fmt.Errorf("admin.addr must differ from the bank listener address")
	}
	return nil
}

func verifyLog(cfg *ServerConfig) error {
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "text", "json":
		return nil
	default:
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}
}

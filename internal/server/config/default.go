package config

import (
	"time"

	"github.com/yndnr/bankmesh-go/internal/storage"
)

// Default configuration values.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8888
	DefaultFraming         = "raw"
	DefaultMaxMessageSize  = 1024
	DefaultAcceptBurst     = 16
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPrivateKeyFile = "private_key.pem"
	DefaultPublicKeyFile  = "public_key.pem"

	DefaultStorageDriver  = storage.DriverFile
	DefaultBalanceFile    = "balance"
	DefaultCredentialFile = "password"
	DefaultBadgerDir      = "data/badger"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Framing modes.
const (
	FramingRaw    = "raw"
	FramingLength = "length"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	badger := storage.DefaultBadgerConfig(DefaultBadgerDir)
	return &ServerConfig{
		Server: ServerSection{
			Host:            DefaultHost,
			Port:            DefaultPort,
			Framing:         DefaultFraming,
			MaxMessageSize:  DefaultMaxMessageSize,
			AcceptBurst:     DefaultAcceptBurst,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Keys: KeySection{
			PrivateKeyFile: DefaultPrivateKeyFile,
			PublicKeyFile:  DefaultPublicKeyFile,
		},
		Storage: StorageSection{
			Driver:         DefaultStorageDriver,
			BalanceFile:    DefaultBalanceFile,
			CredentialFile: DefaultCredentialFile,
			Badger: BadgerSection{
				Dir:         badger.Dir,
				GCInterval:  badger.GCInterval,
				GCThreshold: badger.GCThreshold,
				SyncWrites:  badger.SyncWrites,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// DefaultMap returns Default() keyed by dotted koanf path, for use as the
// loader's lowest-priority layer.
func DefaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"server.host":                 d.Server.Host,
		"server.port":                 d.Server.Port,
		"server.framing":              d.Server.Framing,
		"server.max_message_size":     d.Server.MaxMessageSize,
		"server.accept_rate":          d.Server.AcceptRate,
		"server.accept_burst":         d.Server.AcceptBurst,
		"server.shutdown_timeout":     d.Server.ShutdownTimeout.String(),
		"keys.private_key_file":       d.Keys.PrivateKeyFile,
		"keys.public_key_file":        d.Keys.PublicKeyFile,
		"storage.driver":              d.Storage.Driver,
		"storage.balance_file":        d.Storage.BalanceFile,
		"storage.credential_file":     d.Storage.CredentialFile,
		"storage.badger.dir":          d.Storage.Badger.Dir,
		"storage.badger.gc_interval":  d.Storage.Badger.GCInterval,
		"storage.badger.gc_threshold": d.Storage.Badger.GCThreshold,
		"storage.badger.sync_writes":  d.Storage.Badger.SyncWrites,
		"admin.addr":                  d.Admin.Addr,
		"log.level":                   d.Log.Level,
		"log.format":                  d.Log.Format,
	}
}

// StorageConfig converts the section to the storage package's config.
func (s StorageSection) StorageConfig() storage.Config {
	return storage.Config{
		Driver:         s.Driver,
		BalanceFile:    s.BalanceFile,
		CredentialFile: s.CredentialFile,
		Badger: storage.BadgerConfig{
			Dir:         s.Badger.Dir,
			GCInterval:  s.Badger.GCInterval,
			GCThreshold: s.Badger.GCThreshold,
			SyncWrites:  s.Badger.SyncWrites,
		},
	}
}

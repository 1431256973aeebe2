package config

import (
	"net"
	"strconv"
	"time"
)

// ServerConfig is the root configuration for bankmesh-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Keys    KeySection     `koanf:"keys"`
	Storage StorageSection `koanf:"storage"`
	Admin   AdminSection   `koanf:"admin"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the bank protocol listener.
type ServerSection struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Framing is "raw" (one read is one message) or "length"
	// (4-byte big-endian length prefix).
	Framing string `koanf:"framing"`

	// MaxMessageSize bounds a single inbound message in bytes.
	MaxMessageSize int `koanf:"max_message_size"`

	// AcceptRate limits accepted connections per second. 0 disables it.
	AcceptRate  float64 `koanf:"accept_rate"`
	AcceptBurst int     `koanf:"accept_burst"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerSection) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// KeySection locates the RSA key pair.
type KeySection struct {
	PrivateKeyFile string `koanf:"private_key_file"`
	// PublicKeyFile is optional; the public key is derived when empty.
	PublicKeyFile string `koanf:"public_key_file"`
}

// StorageSection configures account persistence.
type StorageSection struct {
	Driver         string        `koanf:"driver"`
	BalanceFile    string        `koanf:"balance_file"`
	CredentialFile string        `koanf:"credential_file"`
	Badger         BadgerSection `koanf:"badger"`
}

// BadgerSection configures the Badger balance store.
type BadgerSection struct {
	Dir         string  `koanf:"dir"`
	GCInterval  string  `koanf:"gc_interval"`
	GCThreshold float64 `koanf:"gc_threshold"`
	SyncWrites  bool    `koanf:"sync_writes"`
}

// AdminSection configures the admin HTTP endpoint. Empty Addr disables it.
type AdminSection struct {
	Addr string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

package storage

// Backend drivers.
const (
	DriverFile   = "file"
	DriverBadger = "badger"
)

// Config selects and configures a balance backend.
type Config struct {
	// Driver is DriverFile or DriverBadger.
	Driver string

	// BalanceFile is the text balance file. With DriverBadger it seeds
	// an empty database.
	BalanceFile string

	// CredentialFile is the text credential file.
	CredentialFile string

	// Badger-specific configuration
	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// Dir is the database directory.
	Dir string

	// GCInterval is the interval between automatic value-log GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// SyncWrites fsyncs every commit. A transfer is reported successful
	// only once persisted, so this stays on outside tests.
	// Default: true
	SyncWrites bool

	// InMemory runs Badger without touching disk (tests only).
	InMemory bool
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:         dir,
		GCInterval:  "10m",
		GCThreshold: 0.5,
		SyncWrites:  true,
	}
}

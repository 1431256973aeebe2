package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
	"github.com/yndnr/bankmesh-go/internal/core/service"
	"github.com/yndnr/bankmesh-go/internal/storage/textfile"
)

// Backend bundles the repositories used by the services.
type Backend struct {
	Balances    service.BalanceRepository
	Credentials service.CredentialRepository

	badger *BadgerBalanceStore
}

// Open builds the backend described by cfg. With DriverBadger an empty
// database is seeded from cfg.BalanceFile when that file is set.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CredentialFile == "" {
		return nil, domain.ErrConfig.WithDetails("credential file is required")
	}

	b := &Backend{
		Credentials: textfile.NewCredentialFile(cfg.CredentialFile),
	}

	switch cfg.Driver {
	case "", DriverFile:
		if cfg.BalanceFile == "" {
			return nil, domain.ErrConfig.WithDetails("balance file is required")
		}
		b.Balances = textfile.NewBalanceFile(cfg.BalanceFile)

	case DriverBadger:
		store, err := NewBadgerBalanceStore(cfg.Badger, logger)
		if err != nil {
			return nil, domain.ErrDataFile.WithCause(err)
		}
		if cfg.BalanceFile != "" {
			if _, err := store.Seed(ctx, textfile.NewBalanceFile(cfg.BalanceFile)); err != nil {
				store.Close()
				return nil, err
			}
		}
		b.Balances = store
		b.badger = store

	default:
		return nil, domain.ErrConfig.WithDetails(fmt.Sprintf("unknown storage driver %q", cfg.Driver))
	}

	return b, nil
}

// RegisterMetrics registers backend-specific collectors with reg.
func (b *Backend) RegisterMetrics(reg prometheus.Registerer) error {
	if b.badger == nil {
		return nil
	}
	return b.badger.RegisterMetrics(reg)
}

// Close releases backend resources.
func (b *Backend) Close() error {
	if b.badger == nil {
		return nil
	}
	return b.badger.Close()
}

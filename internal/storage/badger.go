package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
	"github.com/yndnr/bankmesh-go/internal/core/service"
)

// Key layout:
//
//	acct/<8-digit position> -> JSON accountRecord
var accountPrefix = []byte("acct/")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("badger store closed")

// accountRecord is the stored form of one account.
type accountRecord struct {
	ID       string `json:"id"`
	Savings  string `json:"savings"`
	Checking string `json:"checking"`
}

// BadgerBalanceStore implements service.BalanceRepository on Badger v3.
type BadgerBalanceStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger
	closed atomic.Bool

	lastGCTime atomic.Int64 // Unix milliseconds

	// Prometheus metrics
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge

	stopCh chan struct{}
	doneCh chan struct{}
}

var _ service.BalanceRepository = (*BadgerBalanceStore)(nil)

// NewBadgerBalanceStore opens (or creates) a Badger database.
func NewBadgerBalanceStore(cfg BadgerConfig, logger *slog.Logger) (*BadgerBalanceStore, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	s := &BadgerBalanceStore{
		db:     db,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go s.gcLoop()

	logger.Info("badger balance store opened",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"sync_writes", cfg.SyncWrites)

	return s, nil
}

// Load returns every stored account in position order.
func (s *BadgerBalanceStore) Load(ctx context.Context) ([]*domain.Account, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var accounts []*domain.Account
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = accountPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var rec accountRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			a, err := domain.NewAccount(rec.ID, rec.Savings, rec.Checking)
			if err != nil {
				return err
			}
			accounts = append(accounts, a)
		}
		return nil
	})
	if err != nil {
		return nil, domain.ErrDataFile.WithDetails(s.cfg.Dir).WithCause(err)
	}

	return accounts, nil
}

// Save replaces the stored balance set in a single transaction.
func (s *BadgerBalanceStore) Save(ctx context.Context, accounts []*domain.Account) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := deletePrefix(txn, accountPrefix); err != nil {
			return err
		}
		for i, a := range accounts {
			raw, err := json.Marshal(accountRecord{
				ID:       a.ID,
				Savings:  a.Savings.String(),
				Checking: a.Checking.String(),
			})
			if err != nil {
				return err
			}
			if err := txn.Set(accountKey(i), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// Seed copies the accounts held by from into the store when the store is
// empty. It returns the number of accounts copied.
func (s *BadgerBalanceStore) Seed(ctx context.Context, from service.BalanceRepository) (int, error) {
	existing, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	accounts, err := from.Load(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.Save(ctx, accounts); err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}

	s.logger.Info("badger balance store seeded", "accounts", len(accounts))
	return len(accounts), nil
}

// GC runs value-log garbage collection until nothing is left to rewrite.
func (s *BadgerBalanceStore) GC(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
				break
			}
			return fmt.Errorf("gc: %w", err)
		}
	}
	s.lastGCTime.Store(time.Now().UnixMilli())
	return nil
}

// Close stops background work and closes the database.
func (s *BadgerBalanceStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(s.stopCh)
	<-s.doneCh

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	s.logger.Info("badger balance store closed")
	return nil
}

// RegisterMetrics registers Badger size gauges with reg.
func (s *BadgerBalanceStore) RegisterMetrics(reg prometheus.Registerer) error {
	s.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bankmesh",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	s.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bankmesh",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	s.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bankmesh",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	})

	for _, c := range []prometheus.Collector{s.metricsLSMSize, s.metricsValueLogSize, s.metricsLastGCTime} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	s.updateMetrics()
	return nil
}

func (s *BadgerBalanceStore) updateMetrics() {
	if s.metricsLSMSize == nil || s.closed.Load() {
		return
	}
	lsm, vlog := s.db.Size()
	s.metricsLSMSize.Set(float64(lsm))
	s.metricsValueLogSize.Set(float64(vlog))
	if last := s.lastGCTime.Load(); last > 0 {
		s.metricsLastGCTime.Set(float64(last) / 1000.0)
	}
}

// gcLoop runs periodic garbage collection and refreshes metrics.
func (s *BadgerBalanceStore) gcLoop() {
	defer close(s.doneCh)

	interval, err := time.ParseDuration(s.cfg.GCInterval)
	if err != nil || interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if err := s.GC(ctx); err != nil {
				s.logger.Error("auto gc failed", "error", err)
			}
			cancel()
			s.updateMetrics()

		case <-s.stopCh:
			return
		}
	}
}

func accountKey(i int) []byte {
	return []byte(fmt.Sprintf("%s%08d", accountPrefix, i))
}

func deletePrefix(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

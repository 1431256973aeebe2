package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/yndnr/bankmesh-go/internal/core/service"
	"github.com/yndnr/bankmesh-go/internal/infra/buildinfo"
	"github.com/yndnr/bankmesh-go/internal/infra/confloader"
	"github.com/yndnr/bankmesh-go/internal/infra/shutdown"
	"github.com/yndnr/bankmesh-go/internal/server/adminserver"
	"github.com/yndnr/bankmesh-go/internal/server/bankserver"
	"github.com/yndnr/bankmesh-go/internal/server/config"
	"github.com/yndnr/bankmesh-go/internal/storage"
	"github.com/yndnr/bankmesh-go/internal/telemetry/logger"
	"github.com/yndnr/bankmesh-go/internal/telemetry/metric"
	"github.com/yndnr/bankmesh-go/pkg/crypto/keypair"
)

// loadConfig merges defaults, the optional file and BANKMESH_ env vars,
// then applies the positional host and port.
func loadConfig(configFile, host, port string) (*confloader.Loader, *config.ServerConfig, error) {
	opts := []confloader.Option{confloader.WithDefaults(config.DefaultMap())}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)

	cfg := &config.ServerConfig{}
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}

	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid port %q", port)
	}
	cfg.Server.Host = host
	cfg.Server.Port = p

	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return loader, cfg, nil
}

// daemon owns every long-lived component of the server process.
type daemon struct {
	cfg      *config.ServerConfig
	log      logger.Logger
	backend  *storage.Backend
	bank     *bankserver.Server
	admin    *adminserver.Server
	shutdown *shutdown.Handler
	watcher  *confloader.Watcher
}

// newDaemon loads keys and data and binds the listeners. Any failure here
// is fatal at startup.
func newDaemon(ctx context.Context, cfg *config.ServerConfig, out io.Writer) (*daemon, error) {
	slogger, err := logger.NewSlog(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  out,
		Service: "bankmesh-server",
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.Wrap(slogger)
	logger.SetDefault(log)

	log.Info("starting bankmesh-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", config.Sanitize(cfg))

	keys, err := keypair.Load(cfg.Keys.PrivateKeyFile, cfg.Keys.PublicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("load keys: %w", err)
	}

	backend, err := storage.Open(ctx, cfg.Storage.StorageConfig(), slogger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	d := &daemon{
		cfg:      cfg,
		log:      log,
		backend:  backend,
		shutdown: shutdown.NewHandler(cfg.Server.ShutdownTimeout),
	}
	if err := d.init(ctx, keys, slogger); err != nil {
		backend.Close()
		return nil, err
	}
	return d, nil
}

func (d *daemon) init(ctx context.Context, keys *keypair.KeyPair, slogger *slog.Logger) error {
	auth, err := service.LoadCredentialService(ctx, d.backend.Credentials)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	ledger, err := service.NewLedgerService(ctx, d.backend.Balances)
	if err != nil {
		return fmt.Errorf("load balances: %w", err)
	}
	d.log.Info("data loaded", "credentials", auth.Len(), "accounts", ledger.Len())

	metrics := metric.NewRegistry()
	if err := d.backend.RegisterMetrics(metrics.Registerer()); err != nil {
		return fmt.Errorf("register storage metrics: %w", err)
	}

	srv := d.cfg.Server
	d.bank, err = bankserver.New(&bankserver.Config{
		Address:        srv.Addr(),
		Framing:        srv.Framing,
		MaxMessageSize: srv.MaxMessageSize,
		AcceptRate:     srv.AcceptRate,
		AcceptBurst:    srv.AcceptBurst,
	}, keys, auth, ledger, metrics, d.log)
	if err != nil {
		return err
	}
	if err := d.bank.Listen(); err != nil {
		return fmt.Errorf("bind %s: %w", srv.Addr(), err)
	}

	if d.cfg.Admin.Addr != "" {
		d.admin = adminserver.New(d.cfg.Admin.Addr, adminserver.NewRouter(&adminserver.RouterConfig{
			Metrics:  metrics.Handler(),
			Ledger:   ledger,
			Sessions: d.bank,
			Logger:   slogger,
		}))
		if err := d.admin.Listen(); err != nil {
			d.bank.Shutdown(ctx)
			return fmt.Errorf("bind admin %s: %w", d.cfg.Admin.Addr, err)
		}
	}
	return nil
}

// watchConfig reloads log.level when the config file changes.
func (d *daemon) watchConfig(loader *confloader.Loader) {
	path := loader.FilePath()
	if path == "" {
		return
	}
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(d.log))
	if err != nil {
		d.log.Warn("config watcher disabled", "error", err)
		return
	}
	if err := w.Watch(path); err != nil {
		d.log.Warn("config watcher disabled", "error", err)
		w.Stop()
		return
	}
	w.OnChange(func(string) {
		next := &config.ServerConfig{}
		if err := loader.Reload(next); err != nil {
			d.log.Warn("config reload failed", "error", err)
			return
		}
		if next.Log.Level == logger.GetLevel() {
			return
		}
		if err := logger.SetLevel(next.Log.Level); err != nil {
			d.log.Warn("log level not changed", "error", err)
			return
		}
		d.log.Info("log level changed", "level", logger.GetLevel())
	})
	w.StartAsync()
	d.watcher = w
}

// run serves until a signal or a listener failure, then shuts down.
// Hooks run in reverse: listeners stop before storage closes.
func (d *daemon) run() error {
	d.shutdown.OnShutdown(func(context.Context) error {
		d.log.Info("closing storage")
		return d.backend.Close()
	})
	if d.watcher != nil {
		d.shutdown.OnShutdown(func(context.Context) error {
			return d.watcher.Stop()
		})
	}
	d.shutdown.OnShutdown(func(ctx context.Context) error {
		d.log.Info("stopping bank listener", "active_sessions", d.bank.ActiveSessions())
		return d.bank.Shutdown(ctx)
	})

	errCh := make(chan error, 2)
	go func() {
		errCh <- d.bank.Serve(context.Background())
	}()

	if d.admin != nil {
		d.shutdown.OnShutdown(func(ctx context.Context) error {
			return d.admin.Shutdown(ctx)
		})
		go func() {
			d.log.Info("admin server listening", "addr", d.admin.Addr().String())
			errCh <- d.admin.Serve()
		}()
	}

	failed := make(chan error, 1)
	go func() {
		select {
		case err := <-errCh:
			if err != nil {
				d.log.Error("listener failed", "error", err)
				failed <- err
			}
			d.shutdown.Trigger()
		case <-d.shutdown.Done():
		}
	}()

	err := d.shutdown.Wait()
	select {
	case serveErr := <-failed:
		err = errors.Join(serveErr, err)
	default:
	}
	d.log.Info("server stopped")
	return err
}

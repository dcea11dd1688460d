package cli

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"clientcore/internal/config"
	"clientcore/internal/core"
	"clientcore/internal/infra/metrics"
	"clientcore/internal/platform/logger"
)

// app is the wired service graph shared by the commands.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	store   core.OpenedStore
	service *core.Service
	metrics http.Handler
	trace   io.Closer
}

func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	policy, err := cfg.ParsedPolicy()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}
	opts := []core.Option{core.WithPolicy(policy), core.WithLogger(log)}
	if cfg.Metrics.Enabled {
		switch cfg.Metrics.Driver {
		case config.MetricsExpvar:
			opts = append(opts, core.WithMetricsRecorder(core.NewExpvarMetricsRecorder("")))
			a.metrics = expvar.Handler()
		default:
			rec := metrics.NewRecorder()
			opts = append(opts, core.WithMetricsRecorder(rec))
			a.metrics = rec.Handler()
		}
	}
	if cfg.Trace.Enabled {
		w, err := openTraceOutput(cfg.Trace.Path)
		if err != nil {
			return nil, fmt.Errorf("open trace output: %w", err)
		}
		a.trace = w
		opts = append(opts, core.WithTracer(core.NewJSONTracer(w)))
	}
	store, err := core.OpenSnapshotStore(ctx, cfg.StorageOptions())
	if err != nil {
		a.closeTrace()
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}
	a.store = store
	a.service = core.NewService(store, opts...)
	log.Info("service ready", "storage", string(store.Driver), "policy", string(policy), "metrics", cfg.Metrics.Driver, "trace", cfg.Trace.Enabled)
	return a, nil
}

// openTraceOutput appends span lines to path, or to stderr when path is empty.
func openTraceOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stderr}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func (a *app) closeTrace() {
	if a.trace != nil {
		_ = a.trace.Close()
	}
}

func (a *app) Close() error {
	err := a.store.Close()
	a.closeTrace()
	a.log.Sync()
	if err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

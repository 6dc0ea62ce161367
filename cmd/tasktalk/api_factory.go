package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ShayCichocki/tasktalk/internal/checkpoint"
	"github.com/ShayCichocki/tasktalk/internal/config"
	"github.com/ShayCichocki/tasktalk/internal/metrics"
	"github.com/ShayCichocki/tasktalk/internal/oracle"
	"github.com/ShayCichocki/tasktalk/internal/orchestrator"
	"github.com/ShayCichocki/tasktalk/internal/state"
	"github.com/ShayCichocki/tasktalk/internal/taskstore"
)

// runtime is everything a session needs, with the closers to release it.
type runtime struct {
	cfg       *config.Config
	assistant *orchestrator.Assistant
	oracle    *oracle.Oracle
	store     taskstore.Store
	metrics   *metrics.Provider
	events    *orchestrator.EventEmitter
	logger    *orchestrator.DebugLogger

	closers []func() error
}

func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type runtimeOptions struct {
	withEvents bool
	verbose    bool
}

// newRuntime wires the configured provider, stores and logger into an
// Assistant.
func newRuntime(ctx context.Context, cfg *config.Config, opts runtimeOptions) (*runtime, error) {
	rt := &runtime{cfg: cfg}

	logger, err := openLogger(cfg, opts.verbose)
	if err != nil {
		return nil, err
	}
	rt.logger = logger
	rt.closers = append(rt.closers, logger.Close)

	provider, err := createProvider(ctx, cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.oracle = oracle.New(provider, oracle.Config{
		Timeout:     cfg.Oracle.Timeout,
		MaxAttempts: uint(cfg.Oracle.MaxAttempts),
	})

	rt.metrics = metrics.New(prometheus.NewRegistry())
	rt.oracle.SetObserver(rt.metrics)

	openDB := sqliteOpener(cfg, rt)

	store, err := createStore(ctx, cfg, openDB, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.store = store

	saver, err := createSaver(cfg, openDB, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}

	assistantOpts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithRecorder(rt.metrics),
		orchestrator.WithDescriptionAttempts(cfg.Oracle.DescriptionAttempts),
	}
	if opts.withEvents {
		rt.events = orchestrator.NewEventEmitter(100)
		rt.closers = append(rt.closers, func() error { rt.events.Close(); return nil })
		assistantOpts = append(assistantOpts, orchestrator.WithEvents(rt.events))
	}

	a, err := orchestrator.New(orchestrator.RequiredConfig{
		Oracle:      rt.oracle,
		Store:       store,
		Checkpoints: saver,
	}, assistantOpts...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.assistant = a
	return rt, nil
}

// createProvider builds the language model backend named in the config.
func createProvider(ctx context.Context, cfg *config.Config) (oracle.Provider, error) {
	provider := cfg.Oracle.Provider

	if provider == config.ProviderAnthropic && cfg.Anthropic.UseBedrock {
		return oracle.NewAnthropicProvider(ctx, oracle.AnthropicConfig{
			Model:         cfg.Oracle.Model,
			UseAWSBedrock: true,
			AWSRegion:     os.Getenv("AWS_REGION"),
			AWSProfile:    os.Getenv("AWS_PROFILE"),
		})
	}

	key, _, err := config.GetAPIKey(cfg, provider)
	if err != nil {
		return nil, fmt.Errorf("%w (set it with 'tasktalk config %s.api_key <key>' or the environment)", err, provider)
	}
	if err := config.ValidateAPIKey(provider, key); err != nil {
		return nil, fmt.Errorf("%s: %w", provider, err)
	}

	switch provider {
	case config.ProviderAnthropic:
		return oracle.NewAnthropicProvider(ctx, oracle.AnthropicConfig{Model: cfg.Oracle.Model, APIKey: key})
	case config.ProviderGemini:
		return oracle.NewGeminiProvider(ctx, oracle.GeminiConfig{Model: cfg.Oracle.Model, APIKey: key})
	case config.ProviderOpenAI:
		return oracle.NewOpenAIProvider(oracle.OpenAIConfig{Model: cfg.Oracle.Model, APIKey: key, BaseURL: cfg.OpenAI.BaseURL})
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", provider)
	}
}

func createStore(ctx context.Context, cfg *config.Config, openDB func() (*state.DB, error), rt *runtime) (taskstore.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return taskstore.NewMemoryStore(), nil
	case config.StoreMongo:
		s, err := taskstore.NewMongoStore(ctx, cfg.Store.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect task store: %w", err)
		}
		rt.closers = append(rt.closers, func() error { return s.Close(context.Background()) })
		return s, nil
	default:
		db, err := openDB()
		if err != nil {
			return nil, fmt.Errorf("open task store: %w", err)
		}
		return db, nil
	}
}

func createSaver(cfg *config.Config, openDB func() (*state.DB, error), rt *runtime) (checkpoint.Saver, error) {
	switch cfg.Checkpoint.Backend {
	case config.CheckpointMemory:
		s, err := checkpoint.NewMemorySaver(cfg.Checkpoint.Capacity, cfg.Checkpoint.TTL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, s.Close)
		return s, nil
	case config.CheckpointBolt:
		path := cfg.Checkpoint.BoltPath
		if path == "" {
			path = filepath.Join(filepath.Dir(state.DefaultDBPath()), "threads.db")
		}
		s, err := checkpoint.OpenBolt(path)
		if err != nil {
			return nil, fmt.Errorf("open checkpoints: %w", err)
		}
		rt.closers = append(rt.closers, s.Close)
		return s, nil
	default:
		db, err := openDB()
		if err != nil {
			return nil, fmt.Errorf("open checkpoints: %w", err)
		}
		return db.Checkpoints(), nil
	}
}

// openLogger opens the rotating debug log. Without --verbose the log is
// disabled.
func openLogger(cfg *config.Config, verbose bool) (*orchestrator.DebugLogger, error) {
	if !verbose {
		return orchestrator.NopLogger(), nil
	}
	path := cfg.Log.DebugPath
	if path == "" {
		path = orchestrator.DefaultLogPath()
	}
	logger, err := orchestrator.NewDebugLogger(path)
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}
	return logger, nil
}

// Package app wires all Lector subsystems into a running HTTP server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves until the context ends, and Shutdown tears
// everything down in order.
//
// For testing, inject doubles via functional options (WithSentenceCache,
// WithMetrics). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/lectorhq/lector/internal/cache"
	"github.com/lectorhq/lector/internal/config"
	"github.com/lectorhq/lector/internal/gateway"
	"github.com/lectorhq/lector/internal/health"
	"github.com/lectorhq/lector/internal/observe"
	"github.com/lectorhq/lector/internal/resilience"
	"github.com/lectorhq/lector/pkg/provider/tokenize"
	"github.com/lectorhq/lector/pkg/provider/vocab"
)

// shutdownGrace bounds the drain of in-flight requests when Run's context
// ends.
const shutdownGrace = 10 * time.Second

// Providers holds one interface value per provider slot. Nil Tokenizer means
// tokenized pages degrade to whitespace segmentation. Populated by main.go
// via the config registry.
type Providers struct {
	Vocab     vocab.Provider
	Tokenizer tokenize.Tokenizer
}

// App owns all subsystem lifetimes and serves the Lector reading gateway.
type App struct {
	cfg       *config.Config
	providers *Providers

	cache   *cache.SentenceCache
	metrics *observe.Metrics
	gateway *gateway.Handler
	srv     *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithSentenceCache injects a sentence cache instead of opening one from
// config.
func WithSentenceCache(c *cache.SentenceCache) Option {
	return func(a *App) { a.cache = c }
}

// WithMetrics injects a metrics instance instead of initialising the global
// telemetry providers.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry).
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.Vocab == nil {
		return nil, errors.New("app: a vocabulary provider is required")
	}

	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	if err := a.initTelemetry(ctx); err != nil {
		return nil, fmt.Errorf("app: init telemetry: %w", err)
	}
	if err := a.initCache(); err != nil {
		return nil, fmt.Errorf("app: init cache: %w", err)
	}

	guarded := a.initVocab()

	if err := a.initServer(guarded); err != nil {
		return nil, fmt.Errorf("app: init server: %w", err)
	}

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initTelemetry registers the global OTel providers with the Prometheus
// bridge, unless a metrics instance was injected.
func (a *App) initTelemetry(ctx context.Context) error {
	if a.metrics != nil {
		return nil
	}

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "lector",
	})
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error {
		return shutdown(context.Background())
	})

	a.metrics = observe.DefaultMetrics()
	return nil
}

// initCache opens the sentence-translation cache when configured. A missing
// cache is not an error; translation just loses cross-click reuse.
func (a *App) initCache() error {
	if a.cache != nil || a.cfg.Cache.Path == "" {
		return nil
	}

	c, err := cache.Open(a.cfg.Cache.Path)
	if err != nil {
		return err
	}
	a.cache = c
	a.closers = append(a.closers, c.Close)
	slog.Info("sentence cache open", "path", a.cfg.Cache.Path)
	return nil
}

// initVocab wraps the vocabulary backend in a circuit-breaker fallback group
// so one failing backend cannot hammer the network on every click.
func (a *App) initVocab() vocab.Provider {
	name := a.cfg.Vocab.Name
	if name == "" {
		name = "vocab"
	}
	return resilience.NewVocabFallback(a.providers.Vocab, name, resilience.FallbackConfig{})
}

// initServer assembles the HTTP mux: websocket gateway, Prometheus metrics,
// health endpoints, all behind the tracing middleware.
func (a *App) initServer(provider vocab.Provider) error {
	gw, err := gateway.NewHandler(gateway.Config{
		Provider:   provider,
		Tokenizer:  a.providers.Tokenizer,
		Cache:      a.cache,
		Metrics:    a.metrics,
		SourceLang: a.cfg.Reading.SourceLang,
		TargetLang: a.cfg.Reading.TargetLang,
	})
	if err != nil {
		return err
	}
	a.gateway = gw

	checkers := []health.Checker{
		{Name: "vocab", Check: func(ctx context.Context) error {
			_, err := provider.Languages(ctx)
			return err
		}},
	}
	if a.cache != nil {
		checkers = append(checkers, health.Checker{Name: "cache", Check: func(ctx context.Context) error {
			_, _, err := a.cache.Get(ctx, "", "", "")
			return err
		}})
	}

	mux := http.NewServeMux()
	gw.Register(mux)
	health.New(checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	a.srv = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           observe.Middleware(a.metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Handler returns the fully assembled HTTP handler. Exposed for tests.
func (a *App) Handler() http.Handler {
	return a.srv.Handler
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
// It returns context.Canceled on a clean signal-driven stop.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			slog.Info("listening", "addr", a.srv.Addr, "tls", true)
			err = a.srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			slog.Info("listening", "addr", a.srv.Addr)
			err = a.srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()

		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := a.srv.Shutdown(drainCtx); err != nil {
			slog.Warn("forcing server close", "error", err)
			a.srv.Close()
		}
		return ctx.Err()
	})

	return g.Wait()
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems. It respects the context deadline: if
// ctx expires before all closers finish, remaining closers are skipped and
// the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

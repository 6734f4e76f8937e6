// Command lector is the main entry point for the Lector reading assistant
// server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lectorhq/lector/internal/app"
	"github.com/lectorhq/lector/internal/config"
	"github.com/lectorhq/lector/pkg/provider/tokenize"
	"github.com/lectorhq/lector/pkg/provider/tokenize/kagome"
	"github.com/lectorhq/lector/pkg/provider/vocab"
	vocabrest "github.com/lectorhq/lector/pkg/provider/vocab/rest"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "lector: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "lector: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	level.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("lector starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	// ── Instantiate providers ─────────────────────────────────────────────────
	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Config watcher: log level reloads without restart ─────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		diff := config.Diff(old, new)
		if diff.LogLevelChanged {
			level.Set(slogLevel(diff.NewLogLevel))
			slog.Info("log level changed", "level", diff.NewLogLevel)
		}
		if diff.ReadingChanged {
			slog.Info("default language pair changed; applies to new connections",
				"source", diff.NewReading.SourceLang, "target", diff.NewReading.TargetLang)
		}
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	application, err := app.New(ctx, cfg, providers)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires the provider factories that ship with
// Lector into reg.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterVocab("rest", func(entry config.ProviderEntry) (vocab.Provider, error) {
		var opts []vocabrest.Option
		if entry.Timeout > 0 {
			opts = append(opts, vocabrest.WithTimeout(entry.Timeout))
		}
		return vocabrest.New(entry.BaseURL, opts...)
	})

	reg.RegisterTokenizer("kagome", func(_ config.TokenizerConfig) (tokenize.Tokenizer, error) {
		return kagome.New()
	})
}

// buildProviders instantiates the providers named in cfg using the registry.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}

	p, err := reg.CreateVocab(cfg.Vocab)
	if err != nil {
		return nil, fmt.Errorf("create vocab provider %q: %w", cfg.Vocab.Name, err)
	}
	ps.Vocab = p
	slog.Info("provider created", "kind", "vocab", "name", cfg.Vocab.Name)

	if name := cfg.Tokenizer.Name; name != "" {
		tk, err := reg.CreateTokenizer(cfg.Tokenizer)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Warn("unknown tokenizer — tokenized pages disabled", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create tokenizer %q: %w", name, err)
		} else {
			ps.Tokenizer = tk
			slog.Info("provider created", "kind", "tokenizer", "name", name)
		}
	}

	return ps, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║          Lector — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printSetting("Vocab backend", cfg.Vocab.Name)
	printSetting("Tokenizer", cfg.Tokenizer.Name)
	printSetting("Sentence cache", cfg.Cache.Path)
	printSetting("Languages", cfg.Reading.SourceLang+" → "+cfg.Reading.TargetLang)
	printSetting("Listen addr", cfg.Server.ListenAddr)
	if cfg.Server.TLS != nil {
		printSetting("TLS", "enabled")
	} else {
		printSetting("TLS", "")
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printSetting(name, value string) {
	if value == "" || value == " → " {
		value = "(not configured)"
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-14s  : %-19s ║\n", name, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

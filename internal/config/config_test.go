package config_test

import (
	"errors"
	"testing"

	"github.com/lectorhq/lector/internal/config"
	"github.com/lectorhq/lector/pkg/provider/tokenize"
	"github.com/lectorhq/lector/pkg/provider/vocab"
	vocabmock "github.com/lectorhq/lector/pkg/provider/vocab/mock"
)

func TestLogLevelIsValid(t *testing.T) {
	t.Parallel()

	valid := []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError}
	for _, l := range valid {
		if !l.IsValid() {
			t.Errorf("%q reported invalid", l)
		}
	}
	for _, l := range []config.LogLevel{"", "verbose", "trace"} {
		if l.IsValid() {
			t.Errorf("%q reported valid", l)
		}
	}
}

func TestRegistry_Vocab(t *testing.T) {
	t.Parallel()

	r := config.NewRegistry()

	var gotEntry config.ProviderEntry
	r.RegisterVocab("rest", func(e config.ProviderEntry) (vocab.Provider, error) {
		gotEntry = e
		return &vocabmock.Provider{}, nil
	})

	entry := config.ProviderEntry{Name: "rest", BaseURL: "http://localhost:5000"}
	p, err := r.CreateVocab(entry)
	if err != nil {
		t.Fatalf("CreateVocab: %v", err)
	}
	if p == nil {
		t.Fatal("CreateVocab returned nil provider")
	}
	if gotEntry.BaseURL != entry.BaseURL {
		t.Errorf("factory received %+v", gotEntry)
	}

	if _, err := r.CreateVocab(config.ProviderEntry{Name: "nope"}); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("err = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_Tokenizer(t *testing.T) {
	t.Parallel()

	r := config.NewRegistry()
	r.RegisterTokenizer("kagome", func(config.TokenizerConfig) (tokenize.Tokenizer, error) {
		return tokenize.Func(nil), nil
	})

	if _, err := r.CreateTokenizer(config.TokenizerConfig{Name: "kagome"}); err != nil {
		t.Fatalf("CreateTokenizer: %v", err)
	}
	if _, err := r.CreateTokenizer(config.TokenizerConfig{Name: "mecab"}); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("err = %v, want ErrProviderNotRegistered", err)
	}
}

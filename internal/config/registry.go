package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lectorhq/lector/pkg/provider/tokenize"
	"github.com/lectorhq/lector/pkg/provider/vocab"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	vocab     map[string]func(ProviderEntry) (vocab.Provider, error)
	tokenizer map[string]func(TokenizerConfig) (tokenize.Tokenizer, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		vocab:     make(map[string]func(ProviderEntry) (vocab.Provider, error)),
		tokenizer: make(map[string]func(TokenizerConfig) (tokenize.Tokenizer, error)),
	}
}

// RegisterVocab registers a vocabulary backend factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterVocab(name string, factory func(ProviderEntry) (vocab.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vocab[name] = factory
}

// RegisterTokenizer registers a tokenizer factory under name.
func (r *Registry) RegisterTokenizer(name string, factory func(TokenizerConfig) (tokenize.Tokenizer, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokenizer[name] = factory
}

// CreateVocab instantiates a vocabulary backend using the factory registered
// under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for that name.
func (r *Registry) CreateVocab(entry ProviderEntry) (vocab.Provider, error) {
	r.mu.RLock()
	factory, ok := r.vocab[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: vocab/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateTokenizer instantiates a tokenizer using the factory registered under
// cfg.Name.
func (r *Registry) CreateTokenizer(cfg TokenizerConfig) (tokenize.Tokenizer, error) {
	r.mu.RLock()
	factory, ok := r.tokenizer[cfg.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: tokenizer/%q", ErrProviderNotRegistered, cfg.Name)
	}
	return factory(cfg)
}

// Package cache stores sentence translations in a local sqlite database so
// repeated clicks inside the same sentence do not re-translate it.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS sentence_translations (
	sentence    TEXT NOT NULL,
	source_lang TEXT NOT NULL,
	target_lang TEXT NOT NULL,
	translation TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (sentence, source_lang, target_lang)
);`

// SentenceCache is a persistent sentence-translation cache keyed by
// (sentence, source language, target language). Safe for concurrent use.
type SentenceCache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*SentenceCache, error) {
	if path == "" {
		return nil, errors.New("cache: path must not be empty")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}
	return &SentenceCache{db: db}, nil
}

// Get returns the cached translation for the sentence and language pair.
// The second return value reports whether a cached entry exists.
func (c *SentenceCache) Get(ctx context.Context, sentence, sourceLang, targetLang string) (string, bool, error) {
	var translation string
	err := c.db.QueryRowContext(ctx,
		`SELECT translation FROM sentence_translations
		 WHERE sentence = ? AND source_lang = ? AND target_lang = ?`,
		sentence, sourceLang, targetLang,
	).Scan(&translation)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: lookup sentence: %w", err)
	}
	return translation, true, nil
}

// Put stores a translation, replacing any previous entry for the same
// sentence and language pair.
func (c *SentenceCache) Put(ctx context.Context, sentence, sourceLang, targetLang, translation string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO sentence_translations (sentence, source_lang, target_lang, translation)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(sentence, source_lang, target_lang)
		 DO UPDATE SET translation = excluded.translation`,
		sentence, sourceLang, targetLang, translation,
	)
	if err != nil {
		return fmt.Errorf("cache: store sentence: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (c *SentenceCache) Close() error {
	return c.db.Close()
}

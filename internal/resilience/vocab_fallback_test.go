package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/lectorhq/lector/pkg/provider/vocab"
	vocabmock "github.com/lectorhq/lector/pkg/provider/vocab/mock"
)

func TestVocabFallback_Translate_PrimarySuccess(t *testing.T) {
	primary := &vocabmock.Provider{
		TranslateResult: vocab.Translation{Translation: "cat"},
	}
	secondary := &vocabmock.Provider{
		TranslateResult: vocab.Translation{Translation: "feline"},
	}

	fb := NewVocabFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	tr, err := fb.Translate(context.Background(), vocab.TranslateRequest{Word: "gato"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Translation != "cat" {
		t.Fatalf("translation = %q, want %q", tr.Translation, "cat")
	}
	if len(primary.TranslateCalls) != 1 {
		t.Fatalf("primary called %d times, want 1", len(primary.TranslateCalls))
	}
	if len(secondary.TranslateCalls) != 0 {
		t.Fatalf("secondary called %d times, want 0", len(secondary.TranslateCalls))
	}
}

func TestVocabFallback_Translate_Failover(t *testing.T) {
	primary := &vocabmock.Provider{
		TranslateError: errors.New("primary down"),
	}
	secondary := &vocabmock.Provider{
		TranslateResult: vocab.Translation{Translation: "cat"},
	}

	fb := NewVocabFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	tr, err := fb.Translate(context.Background(), vocab.TranslateRequest{Word: "gato"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Translation != "cat" {
		t.Fatalf("translation = %q, want %q", tr.Translation, "cat")
	}
}

func TestVocabFallback_Translate_AllFail(t *testing.T) {
	primary := &vocabmock.Provider{TranslateError: errors.New("primary down")}
	secondary := &vocabmock.Provider{TranslateError: errors.New("secondary down")}

	fb := NewVocabFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	_, err := fb.Translate(context.Background(), vocab.TranslateRequest{Word: "gato"})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestVocabFallback_Statuses_Failover(t *testing.T) {
	primary := &vocabmock.Provider{
		StatusesError: errors.New("primary down"),
	}
	secondary := &vocabmock.Provider{
		StatusesResult: map[string]vocab.Status{"gato": vocab.StatusLearning},
	}

	fb := NewVocabFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	statuses, err := fb.Statuses(context.Background(), vocab.StatusRequest{
		Words: []string{"gato"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if statuses["gato"] != vocab.StatusLearning {
		t.Fatalf("status = %q, want %q", statuses["gato"], vocab.StatusLearning)
	}
}

func TestVocabFallback_UpdateStatus_Failover(t *testing.T) {
	primary := &vocabmock.Provider{
		UpdateStatusError: errors.New("primary down"),
	}
	secondary := &vocabmock.Provider{}

	fb := NewVocabFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	upd := vocab.StatusUpdate{Word: "gato", Status: vocab.StatusKnown}
	if err := fb.UpdateStatus(context.Background(), upd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(secondary.UpdateStatusCalls) != 1 {
		t.Fatalf("secondary called %d times, want 1", len(secondary.UpdateStatusCalls))
	}
}

func TestVocabFallback_OpenBreakerSkipsPrimary(t *testing.T) {
	primary := &vocabmock.Provider{
		LanguagesError: errors.New("primary down"),
	}
	secondary := &vocabmock.Provider{
		LanguagesResult: []vocab.Language{{Code: "es", Name: "Spanish"}},
	}

	fb := NewVocabFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 2},
	})
	fb.AddFallback("secondary", secondary)

	// Trip the primary's breaker, then verify it is no longer consulted.
	for range 3 {
		if _, err := fb.Languages(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	callsAfterTrip := primary.CallCountLanguages
	if _, err := fb.Languages(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primary.CallCountLanguages != callsAfterTrip {
		t.Fatalf("primary consulted while breaker open: %d calls, want %d",
			primary.CallCountLanguages, callsAfterTrip)
	}
}

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingModel struct {
	calls int
	err   error
}

func (m *countingModel) Complete(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return "ok:" + prompt, nil
}

func TestGuardModel_OpensAfterThreshold(t *testing.T) {
	inner := &countingModel{err: errors.New("boom")}
	model := GuardModel(inner, NewBreaker("test", 2, time.Minute))

	for i := 0; i < 2; i++ {
		if _, err := model.Complete(context.Background(), "p"); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}

	_, err := model.Complete(context.Background(), "p")
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected open breaker error, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected inner model to be skipped while open, calls=%d", inner.calls)
	}
}

func TestGuardModel_PassesThrough(t *testing.T) {
	model := GuardModel(&countingModel{}, NewBreaker("ok", 1, time.Minute))
	got, err := model.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok:hello" {
		t.Fatalf("got %q", got)
	}
}

func TestGuardModel_CancellationDoesNotTrip(t *testing.T) {
	b := NewBreaker("cancel", 1, time.Minute)
	model := GuardModel(&countingModel{err: context.Canceled}, b)
	_, _ = model.Complete(context.Background(), "p")
	_, _ = model.Complete(context.Background(), "p")
	if b.State() != "closed" {
		t.Fatalf("expected closed breaker, got %s", b.State())
	}
}

package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
)

// recordingRepo records upserts. Only UpsertCatalog is exercised.
type recordingRepo struct {
	ports.BookRepository
	mu      sync.Mutex
	upserts []string
	block   chan struct{}
}

func (r *recordingRepo) UpsertCatalog(ctx context.Context, b domain.Book) (domain.Book, error) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts = append(r.upserts, b.ExternalID)
	return b, nil
}

func (r *recordingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.upserts)
}

func TestPool_UpsertsSubmittedBooks(t *testing.T) {
	repo := &recordingRepo{}
	p := NewPool(repo, 10)
	p.Start(2)

	for _, id := range []string{"a", "b", "c"} {
		if !p.Submit(domain.Book{ExternalID: id}) {
			t.Fatalf("submit %s: dropped", id)
		}
	}
	p.Submit(domain.Book{})
	p.Stop()

	if got := repo.count(); got != 3 {
		t.Errorf("expected 3 upserts, got %d", got)
	}
}

func TestPool_DropsWhenFull(t *testing.T) {
	repo := &recordingRepo{block: make(chan struct{})}
	p := NewPool(repo, 1)

	// No workers yet: the first job fills the queue.
	if !p.Submit(domain.Book{ExternalID: "a"}) {
		t.Fatal("first submit should be queued")
	}
	if p.Submit(domain.Book{ExternalID: "b"}) {
		t.Fatal("second submit should be dropped")
	}

	p.Start(1)
	close(repo.block)
	p.Stop()

	if got := repo.count(); got != 1 {
		t.Errorf("expected 1 upsert, got %d", got)
	}
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := NewPool(&recordingRepo{}, 1)
	p.Start(1)
	p.Stop()
	p.Stop()

	if p.Submit(domain.Book{ExternalID: "late"}) {
		t.Error("submit after stop should report false")
	}
}

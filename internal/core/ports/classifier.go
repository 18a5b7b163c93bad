package ports

import (
	"context"
	"time"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

// LanguageModel completes a single prompt and returns the raw text answer.
type LanguageModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ClassificationStrategy is one step of the classifier cascade.
type ClassificationStrategy interface {
	Name() string
	Classify(ctx context.Context, book domain.Book) (domain.Classification, error)
}

// ClassificationCache stores classifications by key. A miss returns ok=false
// with a nil error.
type ClassificationCache interface {
	Get(ctx context.Context, key string) (domain.Classification, bool, error)
	Set(ctx context.Context, key string, c domain.Classification, ttl time.Duration) error
}

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
	"github.com/ewilliams-labs/shelfsound/internal/logging"
	"github.com/ewilliams-labs/shelfsound/internal/metrics"
)

// LanguageModelStrategy classifies a book by prompting a language model and
// decoding the first JSON object in its answer.
type LanguageModelStrategy struct {
	name  string
	model ports.LanguageModel
}

var _ ports.ClassificationStrategy = (*LanguageModelStrategy)(nil)

// NewLanguageModelStrategy wraps model as a strategy reported under name.
func NewLanguageModelStrategy(name string, model ports.LanguageModel) *LanguageModelStrategy {
	return &LanguageModelStrategy{name: name, model: model}
}

// Name reports the provider name recorded as the classification source.
func (s *LanguageModelStrategy) Name() string { return s.name }

// modelAnswer accepts any JSON shape for every field so that a wrongly typed
// value degrades to its default instead of discarding the whole answer.
type modelAnswer struct {
	Mood                    json.RawMessage `json:"mood"`
	Energy                  json.RawMessage `json:"energy"`
	Tempo                   json.RawMessage `json:"tempo"`
	Instrumentation         json.RawMessage `json:"instrumentation"`
	SpotifySearchTerms      json.RawMessage `json:"spotifySearchTerms"`
	Reasoning               json.RawMessage `json:"reasoning"`
	SpecificRecommendations json.RawMessage `json:"specificRecommendations"`
}

// Classify prompts the model and decodes its answer. Transport failures and
// answers without a JSON object are errors so the cascade moves on.
func (s *LanguageModelStrategy) Classify(ctx context.Context, book domain.Book) (domain.Classification, error) {
	text, err := s.model.Complete(ctx, BuildPrompt(book))
	if err != nil {
		return domain.Classification{}, fmt.Errorf("%s: %w", s.name, err)
	}
	c, err := parseModelAnswer(text)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("%s: %w", s.name, err)
	}
	c.Source = s.name
	return c, nil
}

func parseModelAnswer(text string) (domain.Classification, error) {
	obj, err := extractJSONObject(text)
	if err != nil {
		return domain.Classification{}, err
	}
	var ans modelAnswer
	if err := json.Unmarshal([]byte(obj), &ans); err != nil {
		return domain.Classification{}, fmt.Errorf("decode model answer: %w", err)
	}
	c := domain.Classification{
		Mood:                    domain.Mood(stringField(ans.Mood)),
		Energy:                  domain.Energy(stringField(ans.Energy)),
		Tempo:                   domain.Tempo(stringField(ans.Tempo)),
		Instrumentation:         stringList(ans.Instrumentation),
		SearchTerms:             stringList(ans.SpotifySearchTerms),
		Reasoning:               stringField(ans.Reasoning),
		SpecificRecommendations: stringList(ans.SpecificRecommendations),
	}
	return c.Normalize(), nil
}

// stringField yields "" for anything but a JSON string.
func stringField(raw json.RawMessage) string {
	var v string
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

func stringList(raw json.RawMessage) []string {
	var items []any
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// Classifier runs strategies in order until one succeeds. It never fails:
// when every strategy errors the default classification is returned.
type Classifier struct {
	strategies []ports.ClassificationStrategy
	cache      ports.ClassificationCache
	ttl        time.Duration
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithClassificationCache caches successful results for ttl.
func WithClassificationCache(cache ports.ClassificationCache, ttl time.Duration) ClassifierOption {
	return func(c *Classifier) {
		c.cache = cache
		c.ttl = ttl
	}
}

// NewClassifier runs strategies in the given order.
func NewClassifier(strategies []ports.ClassificationStrategy, opts ...ClassifierOption) *Classifier {
	c := &Classifier{strategies: strategies}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the cached or first successful strategy result.
func (c *Classifier) Classify(ctx context.Context, book domain.Book) domain.Classification {
	logger := logging.With("classifier")
	key := classificationKey(book)

	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			logger.Warn().Err(err).Str("book", book.ExternalID).Msg("classification cache read failed")
		} else if ok {
			return cached.Normalize()
		}
	}

	for _, s := range c.strategies {
		if ctx.Err() != nil {
			break
		}
		result, err := s.Classify(ctx, book)
		if err != nil {
			logger.Warn().Err(err).Str("strategy", s.Name()).Str("book", book.ExternalID).Msg("classification strategy failed, falling through")
			continue
		}
		result = result.Normalize()
		if result.Source == "" {
			result.Source = s.Name()
		}
		metrics.RecordClassification(result.Source)
		c.store(ctx, key, result)
		return result
	}

	metrics.RecordClassification(domain.SourceDefault)
	return domain.DefaultClassification()
}

// store caches model-produced results only.
func (c *Classifier) store(ctx context.Context, key string, result domain.Classification) {
	if c.cache == nil || result.Source == domain.SourceRules {
		return
	}
	if err := c.cache.Set(ctx, key, result, c.ttl); err != nil {
		logging.With("classifier").Warn().Err(err).Msg("classification cache write failed")
	}
}

// classificationKey identifies a book's content so that catalog edits
// invalidate stale classifications.
func classificationKey(book domain.Book) string {
	h := sha256.New()
	h.Write([]byte(book.Title))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(book.Authors, ",")))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(book.Categories, ",")))
	h.Write([]byte{0})
	h.Write([]byte(book.Description))
	id := book.ExternalID
	if id == "" {
		id = book.ID
	}
	return id + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

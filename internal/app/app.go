// Package app wires configuration into adapters and services. It is shared by
// the API server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ewilliams-labs/shelfsound/internal/adapters/gemini"
	"github.com/ewilliams-labs/shelfsound/internal/adapters/googlebooks"
	"github.com/ewilliams-labs/shelfsound/internal/adapters/mongo"
	"github.com/ewilliams-labs/shelfsound/internal/adapters/ollama"
	"github.com/ewilliams-labs/shelfsound/internal/adapters/openai"
	"github.com/ewilliams-labs/shelfsound/internal/adapters/redis"
	"github.com/ewilliams-labs/shelfsound/internal/adapters/spotify"
	"github.com/ewilliams-labs/shelfsound/internal/adapters/sqlite"
	"github.com/ewilliams-labs/shelfsound/internal/cache"
	"github.com/ewilliams-labs/shelfsound/internal/config"
	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
	"github.com/ewilliams-labs/shelfsound/internal/core/services"
	"github.com/ewilliams-labs/shelfsound/internal/logging"
	"github.com/ewilliams-labs/shelfsound/internal/resilience"
	"github.com/ewilliams-labs/shelfsound/internal/worker"
)

// Store is a repository for books and reviews.
type Store interface {
	ports.BookRepository
	ports.ReviewRepository
}

// App holds the wired services. Close releases everything Build opened.
type App struct {
	Orchestrator *services.Orchestrator
	Reviews      *services.ReviewService
	Classifier   *services.Classifier
	Catalog      *googlebooks.Client
	Music        *spotify.Client
	Store        Store

	closers []func(context.Context) error
}

// Build opens storage and the cache and constructs every adapter. The worker
// pool is started when withWorker is set.
func Build(ctx context.Context, cfg *config.Config, withWorker bool) (*App, error) {
	logger := logging.With("app")
	a := &App{}

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.Store = store.repo
	a.closers = append(a.closers, store.close)

	classCache, err := a.openCache(ctx, cfg.Cache)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	a.Catalog = googlebooks.NewClient(googlebooks.Options{
		APIKey:         cfg.GoogleBooks.APIKey,
		BaseURL:        cfg.GoogleBooks.BaseURL,
		RequestsPerSec: cfg.GoogleBooks.RequestsPerSec,
		MaxRetries:     cfg.GoogleBooks.MaxRetries,
	})
	a.Music = spotify.NewClient(spotify.Options{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		BaseURL:      cfg.Spotify.BaseURL,
		AuthURL:      cfg.Spotify.AuthURL,
		Market:       cfg.Spotify.Market,
		MaxRetries:   cfg.Spotify.MaxRetries,
		BaseBackoff:  cfg.Spotify.BaseBackoff,
	})
	if a.Music.FallbackMode() {
		logger.Warn().Msg("spotify credentials missing, serving curated fallback tracks")
	}

	var classifierOpts []services.ClassifierOption
	if classCache != nil {
		classifierOpts = append(classifierOpts, services.WithClassificationCache(classCache, cfg.Cache.TTL))
	}
	a.Classifier = services.NewClassifier(strategies(cfg), classifierOpts...)

	orchOpts := []services.OrchestratorOption{services.WithSearchDeadline(cfg.Server.RequestDeadline)}
	if withWorker {
		pool := worker.NewPool(a.Store, cfg.Worker.Queue)
		pool.Start(cfg.Worker.Workers)
		a.closers = append(a.closers, func(context.Context) error {
			pool.Stop()
			return nil
		})
		orchOpts = append(orchOpts, services.WithRefresher(pool))
	}

	a.Orchestrator = services.NewOrchestrator(a.Catalog, a.Store, a.Music, a.Classifier, orchOpts...)
	a.Reviews = services.NewReviewService(a.Store, a.Store)
	return a, nil
}

// Close runs the closers in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

type openedStore struct {
	repo  Store
	close func(context.Context) error
}

func openStore(ctx context.Context, cfg config.StorageConfig) (openedStore, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.NewAdapter(cfg.SQLitePath)
		if err != nil {
			return openedStore{}, fmt.Errorf("app: open sqlite: %w", err)
		}
		return openedStore{repo: db, close: func(context.Context) error { return db.Close() }}, nil
	case "mongo":
		s, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return openedStore{}, fmt.Errorf("app: open mongo: %w", err)
		}
		return openedStore{repo: s, close: s.Close}, nil
	default:
		return openedStore{}, fmt.Errorf("app: unknown storage driver %q", cfg.Driver)
	}
}

// openCache returns nil when caching is disabled. An unreachable redis
// degrades to the in-memory cache.
func (a *App) openCache(ctx context.Context, cfg config.CacheConfig) (ports.ClassificationCache, error) {
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "memory":
		return cache.NewMemory(), nil
	case "redis":
		c, err := redis.Connect(ctx, redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			logging.With("app").Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using in-memory cache")
			return cache.NewMemory(), nil
		}
		a.closers = append(a.closers, func(context.Context) error { return c.Close() })
		return c, nil
	default:
		return nil, fmt.Errorf("app: unknown cache driver %q", cfg.Driver)
	}
}

// strategies builds the classification cascade: every configured language
// model behind its own breaker, then the keyword rules.
func strategies(cfg *config.Config) []ports.ClassificationStrategy {
	guard := func(name string, model ports.LanguageModel) ports.ClassificationStrategy {
		breaker := resilience.NewBreaker(name, cfg.Breaker.Threshold, cfg.Breaker.Timeout)
		return services.NewLanguageModelStrategy(name, resilience.GuardModel(model, breaker))
	}

	var out []ports.ClassificationStrategy
	if cfg.OpenAI.APIKey != "" {
		out = append(out, guard(domain.SourceOpenAI, openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)))
	}
	if cfg.Gemini.APIKey != "" {
		out = append(out, guard(domain.SourceGemini, gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL)))
	}
	if cfg.Ollama.Host != "" {
		out = append(out, guard(domain.SourceOllama, ollama.NewClient(cfg.Ollama.Host, cfg.Ollama.Model)))
	}
	return append(out, services.NewRuleEngine(services.DefaultKeywordGroups()))
}

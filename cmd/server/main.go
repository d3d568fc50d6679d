// Package main is the entry point for the recommendation and courier
// ranking service.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and an
//     optional config file (Koanf v2)
//  2. Logging: Initialize zerolog with the configured level/format
//  3. Collaborators: Product repository, embedding service, sentiment
//     service, vector index, and the tolerance-aware fingerprint cache
//  4. Seed: Populate the standalone in-memory repository and vector index
//     with a fixture catalog
//  5. Pipelines: Wire Core A's recommendation pipeline and Core B's courier
//     ranking pipeline behind a single orchestrator
//  6. Task Runner: Start the async worker pool under the supervisor tree
//  7. HTTP Server: Mount the chi router (recommendations, sentiment,
//     courier ranking, tasks, admin) under the same supervisor tree
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, an optional config.yaml, and
// built-in defaults.
//
// # Auth Modes
//
//   - AUTH_MODE=jwt (default): every non-health route requires a valid
//     bearer token; /admin/* additionally requires the "admin" role.
//   - AUTH_MODE=none: authentication is skipped outside /admin/*, which
//     always requires an admin-role JWT. Intended for local development
//     only.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM, draining
// in-flight HTTP requests before the process exits.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/recoship/ranking/internal/api"
	"github.com/recoship/ranking/internal/auth"
	"github.com/recoship/ranking/internal/bootstrap"
	"github.com/recoship/ranking/internal/cache"
	"github.com/recoship/ranking/internal/config"
	"github.com/recoship/ranking/internal/embedding"
	"github.com/recoship/ranking/internal/logging"
	appmiddleware "github.com/recoship/ranking/internal/middleware"
	"github.com/recoship/ranking/internal/orchestrator"
	"github.com/recoship/ranking/internal/ranker"
	"github.com/recoship/ranking/internal/recommend"
	"github.com/recoship/ranking/internal/repository"
	"github.com/recoship/ranking/internal/sentiment"
	"github.com/recoship/ranking/internal/supervisor"
	"github.com/recoship/ranking/internal/taskrunner"
	"github.com/recoship/ranking/internal/vectorindex"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("environment", cfg.Server.Environment).Str("auth_mode", cfg.Security.AuthMode).Msg("starting recommendation and courier ranking service")

	if cfg.Security.AuthMode == "none" {
		logging.Warn().Msg("AUTH_MODE=none: authentication disabled outside /admin. Do not use in production.")
	}

	records := bootstrap.SeedRecords()
	repo, embedder, sentimentSvc, index, fpCache := buildCollaborators(cfg, records)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bootstrap.SeedIndex(ctx, records, embedder, index); err != nil {
		logging.Warn().Err(err).Msg("failed to seed vector index, recommendations may be empty until /admin/vectorize is called")
	}

	pipeline := &recommend.Pipeline{
		Cache:      fpCache,
		Repository: repo,
		Embedder:   embedder,
		Index:      index,
		Weights: ranker.Weights{
			Similarity:   cfg.Ranking.SimilarityWeight,
			Availability: ranker.DefaultWeights().Availability,
			Reputation:   cfg.Ranking.ReputationWeight,
		},
		RankOpts: ranker.Options{
			AvailabilityBoost: cfg.Ranking.AvailabilityBoost,
			MinimumScore:      cfg.Ranking.MinimumScore,
		},
	}

	runner := taskrunner.New(cfg.TaskRunner)
	orch := orchestrator.New(pipeline, sentimentSvc, runner, cfg.Cache.TTL)

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize JWT manager")
	}

	perf := appmiddleware.NewPerformanceMonitor(1000)

	router := api.NewRouter(api.Deps{
		Orchestrator: orch,
		JWTManager:   jwtManager,
		Security:     cfg.Security,
		Performance:  perf,
	})

	mux := http.NewServeMux()
	mux.Handle("/", router)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddMessagingService(runner)
	tree.AddAPIService(supervisor.NewHTTPServerService(server, 10*time.Second))

	go runner.RunHealthChecks(ctx, func() []byte { return nil })

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
	}

	logging.Info().Msg("service stopped gracefully")
}

func buildCollaborators(cfg *config.Config, records []repository.ProductRecord) (repository.Repository, embedding.Service, sentiment.Service, vectorindex.Index, *cache.FingerprintCache) {
	repo := repository.New(cfg.Repository, cfg.Breaker, records)
	embedder := embedding.New(cfg.Embedding, cfg.Breaker, "")
	sentimentSvc := sentiment.New(cfg.Sentiment, cfg.Breaker, cfg.Sentiment.ModelClasses)

	var index vectorindex.Index
	if cfg.VectorIdx.Backend == "badger" {
		badgerIdx, err := vectorindex.NewBadgerIndex(cfg.VectorIdx, cfg.VectorIdx.BadgerPath)
		if err != nil {
			logging.Warn().Err(err).Msg("failed to open badger vector index, falling back to in-memory")
			index = vectorindex.New(cfg.VectorIdx)
		} else {
			index = badgerIdx
		}
	} else {
		index = vectorindex.New(cfg.VectorIdx)
	}

	var backend cache.Cacher
	if cfg.Cache.Backend == "badger" {
		badgerCacher, err := cache.NewBadgerCacher(cfg.Cache.BadgerPath, cfg.Cache.TTL)
		if err != nil {
			logging.Warn().Err(err).Msg("failed to open badger cache, falling back to in-memory")
			backend = cache.New(cfg.Cache.TTL)
		} else {
			backend = badgerCacher
		}
	} else {
		backend = cache.New(cfg.Cache.TTL)
	}
	fpCache := cache.NewFingerprintCache(backend, cfg.Cache.SentimentBucket, int(cfg.Cache.BloomExpected), cfg.Cache.BloomFalsePosRate)

	return repo, embedder, sentimentSvc, index, fpCache
}

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kellyjoo3/pickandcook/internal/adapters/repo"
	"github.com/kellyjoo3/pickandcook/internal/adapters/structurer"
	"github.com/kellyjoo3/pickandcook/internal/adapters/youtube"
	"github.com/kellyjoo3/pickandcook/internal/infra/config"
	"github.com/kellyjoo3/pickandcook/internal/infra/db"
	"github.com/kellyjoo3/pickandcook/internal/infra/gemini"
	applog "github.com/kellyjoo3/pickandcook/internal/infra/log"
	"github.com/kellyjoo3/pickandcook/internal/infra/metrics"
	"github.com/kellyjoo3/pickandcook/internal/usecase/ingest"
)

// collector 는 한 번의 배치 실행으로 신규 영상 수집과 pending/failed
// 영상 분석을 순서대로 수행한다.
func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv).With().Str("component", "collector").Logger()

	if cfg.YouTube.APIKey == "" {
		logger.Fatal().Msg("collector: YOUTUBE_API_KEY 가 설정되지 않음")
	}
	if cfg.Gemini.APIKey == "" {
		logger.Fatal().Msg("collector: GEMINI_API_KEY 가 설정되지 않음")
	}
	if cfg.PGDSN == "" {
		logger.Fatal().Msg("collector: PG_DSN 이 설정되지 않음")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("collector: DB 연결 실패")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	catalog, err := youtube.NewCatalog(ctx, cfg.YouTube.APIKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("collector: YouTube API 연결 실패")
	}

	geminiClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Timeout)
	structurerAdapter := structurer.NewRetrying(
		structurer.NewGemini(geminiClient, cfg.Gemini.Model, cfg.Gemini.Timeout),
		cfg.Structuring.Attempts,
		cfg.Structuring.BackoffMin,
		cfg.Structuring.BackoffMax,
		logger.With().Str("component", "structurer").Logger(),
	)

	service := ingest.NewService(repoAdapter, repoAdapter, catalog, structurerAdapter, ingest.Options{
		MaxDurationSeconds: cfg.Ingest.MaxDurationSeconds,
		RecentWindow:       cfg.Ingest.RecentWindow,
		BackfillPageSize:   cfg.Ingest.BackfillPageSize,
	}, logger)

	logger.Info().Msg("collector: 작업 시작")
	if err := service.DiscoverRecent(ctx); err != nil {
		logger.Error().Err(err).Msg("collector: 신규 영상 수집 실패")
	}
	if err := service.ProcessPending(ctx); err != nil {
		logger.Error().Err(err).Msg("collector: 영상 분석 실패")
	}
	logger.Info().Msg("collector: 작업 완료")
}

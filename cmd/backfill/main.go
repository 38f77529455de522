package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kellyjoo3/pickandcook/internal/adapters/repo"
	"github.com/kellyjoo3/pickandcook/internal/adapters/youtube"
	"github.com/kellyjoo3/pickandcook/internal/infra/config"
	"github.com/kellyjoo3/pickandcook/internal/infra/db"
	applog "github.com/kellyjoo3/pickandcook/internal/infra/log"
	"github.com/kellyjoo3/pickandcook/internal/infra/metrics"
	"github.com/kellyjoo3/pickandcook/internal/usecase/ingest"
)

// backfill 은 활성 채널의 업로드 재생목록 전체를 순회해 과거 영상을
// pending 으로 등록한다. 분석은 collector 실행에 맡긴다.
func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv).With().Str("component", "backfill").Logger()

	if cfg.YouTube.APIKey == "" {
		logger.Fatal().Msg("backfill: YOUTUBE_API_KEY 가 설정되지 않음")
	}
	if cfg.PGDSN == "" {
		logger.Fatal().Msg("backfill: PG_DSN 이 설정되지 않음")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("backfill: DB 연결 실패")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	catalog, err := youtube.NewCatalog(ctx, cfg.YouTube.APIKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("backfill: YouTube API 연결 실패")
	}

	service := ingest.NewService(repoAdapter, repoAdapter, catalog, nil, ingest.Options{
		MaxDurationSeconds: cfg.Ingest.MaxDurationSeconds,
		RecentWindow:       cfg.Ingest.RecentWindow,
		BackfillPageSize:   cfg.Ingest.BackfillPageSize,
	}, logger)

	logger.Info().Msg("backfill: 작업 시작")
	if err := service.BackfillAll(ctx); err != nil {
		logger.Error().Err(err).Msg("backfill: 백필 실패")
	}
	logger.Info().Msg("backfill: 작업 완료")
}

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/kellyjoo3/pickandcook/internal/adapters/repo"
	"github.com/kellyjoo3/pickandcook/internal/infra/config"
	"github.com/kellyjoo3/pickandcook/internal/infra/db"
	applog "github.com/kellyjoo3/pickandcook/internal/infra/log"
)

// initdb 는 존재하지 않는 테이블과 인덱스만 새로 생성한다. 기존
// 데이터는 보존된다.
func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv).With().Str("component", "initdb").Logger()

	if cfg.PGDSN == "" {
		logger.Fatal().Msg("initdb: PG_DSN 이 설정되지 않음")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("initdb: DB 연결 실패")
	}
	defer pool.Close()

	logger.Info().Msg("initdb: 스키마 확인/생성 시작")
	if err := repo.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("initdb: 스키마 적용 실패")
	}
	logger.Info().Msg("initdb: 스키마 확인/생성 완료")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/kellyjoo3/pickandcook/internal/adapters/repo"
	"github.com/kellyjoo3/pickandcook/internal/infra/config"
	"github.com/kellyjoo3/pickandcook/internal/infra/db"
	applog "github.com/kellyjoo3/pickandcook/internal/infra/log"
)

// logs 는 최근 검색/클릭 사용 로그를 터미널에 출력한다.
func main() {
	limit := flag.Int("limit", 20, "항목별 출력 건수")
	flag.Parse()

	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv).With().Str("component", "logs").Logger()

	if cfg.PGDSN == "" {
		logger.Fatal().Msg("logs: PG_DSN 이 설정되지 않음")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("logs: DB 연결 실패")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	searchLogs, err := repoAdapter.ListRecentSearchLogs(ctx, *limit)
	if err != nil {
		logger.Fatal().Err(err).Msg("logs: 검색 로그 조회 실패")
	}
	fmt.Printf("--- 최근 검색 로그 (%d건) ---\n", len(searchLogs))
	for _, l := range searchLogs {
		fmt.Printf("[%s] session=%s keyword=%q channel=%s results=%d\n",
			l.Timestamp.Format("2006-01-02 15:04:05"), l.SessionID, l.Keyword, l.ChannelIDFilter, l.ResultCount)
	}

	clickLogs, err := repoAdapter.ListRecentClickLogs(ctx, *limit)
	if err != nil {
		logger.Fatal().Err(err).Msg("logs: 클릭 로그 조회 실패")
	}
	fmt.Printf("--- 최근 클릭 로그 (%d건) ---\n", len(clickLogs))
	for _, l := range clickLogs {
		fmt.Printf("[%s] session=%s video=%s section=%s\n",
			l.Timestamp.Format("2006-01-02 15:04:05"), l.SessionID, l.VideoID, l.SourceSection)
	}
}

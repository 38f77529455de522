package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/kellyjoo3/pickandcook/internal/adapters/repo"
	"github.com/kellyjoo3/pickandcook/internal/domain"
	"github.com/kellyjoo3/pickandcook/internal/infra/cache"
	"github.com/kellyjoo3/pickandcook/internal/infra/config"
	"github.com/kellyjoo3/pickandcook/internal/infra/db"
	httpinfra "github.com/kellyjoo3/pickandcook/internal/infra/http"
	applog "github.com/kellyjoo3/pickandcook/internal/infra/log"
	"github.com/kellyjoo3/pickandcook/internal/infra/metrics"
	searchusecase "github.com/kellyjoo3/pickandcook/internal/usecase/search"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv).With().Str("component", "api").Logger()

	if cfg.PGDSN == "" {
		logger.Fatal().Msg("api: PG_DSN 이 설정되지 않음")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: DB 연결 실패")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	var respCache domain.Cache
	if cfg.RedisAddr != "" {
		respCache = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	searchService := searchusecase.NewService(repoAdapter, repoAdapter, repoAdapter, respCache, logger)

	r := httpinfra.NewRouter()

	r.Get("/api/channels", func(w http.ResponseWriter, req *http.Request) {
		channels, err := searchService.ActiveChannels(req.Context())
		if err != nil {
			logger.Error().Err(err).Msg("api: 채널 목록 조회 실패")
			writeError(w, http.StatusInternalServerError, "채널 목록 조회 중 오류 발생")
			return
		}
		writeJSON(w, channels)
	})

	r.Get("/api/search", func(w http.ResponseWriter, req *http.Request) {
		query := req.URL.Query()
		sessionID := sessionOrNew(query.Get("session_id"))
		cards, err := searchService.Search(req.Context(), sessionID, query.Get("keyword"), query.Get("channel_id"))
		if err != nil {
			logger.Error().Err(err).Msg("api: 검색 실패")
			writeError(w, http.StatusInternalServerError, "검색 중 오류 발생")
			return
		}
		writeJSON(w, cardsOrEmpty(cards))
	})

	r.Get("/api/recommendations", func(w http.ResponseWriter, req *http.Request) {
		cards, err := searchService.Recommendations(req.Context())
		if err != nil {
			logger.Error().Err(err).Msg("api: 추천 조회 실패")
			writeError(w, http.StatusInternalServerError, "추천 목록 조회 중 오류 발생")
			return
		}
		writeJSON(w, cardsOrEmpty(cards))
	})

	r.Post("/api/log-click", func(w http.ResponseWriter, req *http.Request) {
		defer req.Body.Close()
		var body clickLogRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "잘못된 요청 본문")
			return
		}
		if body.VideoID == "" {
			writeError(w, http.StatusBadRequest, "video_id 는 필수")
			return
		}
		err := searchService.LogClick(req.Context(), domain.ClickLog{
			SessionID:     sessionOrNew(body.SessionID),
			VideoID:       body.VideoID,
			SourceSection: body.SourceSection,
		})
		if err != nil {
			logger.Error().Err(err).Msg("api: 클릭 로그 기록 실패")
			writeError(w, http.StatusInternalServerError, "클릭 로그 저장 실패")
			return
		}
		writeJSON(w, map[string]string{"status": "success"})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("api: 시작")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api: 서버 중단")
		}
	}()
	<-ctx.Done()
	logger.Info().Msg("api: 종료")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

type clickLogRequest struct {
	SessionID     string `json:"session_id"`
	VideoID       string `json:"video_id"`
	SourceSection string `json:"source_section"`
}

// sessionOrNew 는 클라이언트가 세션 토큰을 보내지 않으면 새로 발급한다.
func sessionOrNew(sessionID string) string {
	if sessionID != "" {
		return sessionID
	}
	return uuid.NewString()
}

func cardsOrEmpty(cards []domain.RecipeCard) []domain.RecipeCard {
	if cards == nil {
		return []domain.RecipeCard{}
	}
	return cards
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}

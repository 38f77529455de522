package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kellyjoo3/pickandcook/internal/domain"
	"github.com/kellyjoo3/pickandcook/internal/infra/metrics"
)

const (
	channelListCacheKey = "api:channels"
	channelListCacheTTL = time.Minute

	defaultSearchLimit       = 50
	defaultRecommendationCnt = 3
)

// ChannelInfo 는 API 가 노출하는 채널 요약이다.
type ChannelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Service 는 검색/추천 조회와 사용 로그 적재를 담당한다.
type Service struct {
	recipes  domain.RecipeQueryRepo
	channels domain.ChannelRepo
	logs     domain.UsageLogRepo
	cache    domain.Cache
	log      zerolog.Logger
}

// NewService 는 검색 서비스를 생성한다. cache 는 nil 이어도 된다.
func NewService(recipes domain.RecipeQueryRepo, channels domain.ChannelRepo, logs domain.UsageLogRepo, cache domain.Cache, logger zerolog.Logger) *Service {
	return &Service{recipes: recipes, channels: channels, logs: logs, cache: cache, log: logger}
}

// ActiveChannels 는 활성 채널 목록을 반환한다. 짧은 TTL 캐시를 거치며
// 캐시 오류는 조회 실패로 이어지지 않는다.
func (s *Service) ActiveChannels(ctx context.Context) ([]ChannelInfo, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(channelListCacheKey); err == nil {
			var cached []ChannelInfo
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	channels, err := s.channels.ListActiveChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("채널 목록 조회: %w", err)
	}
	infos := make([]ChannelInfo, 0, len(channels))
	for _, ch := range channels {
		infos = append(infos, ChannelInfo{ID: ch.ID, Name: ch.Name})
	}

	if s.cache != nil {
		if data, err := json.Marshal(infos); err == nil {
			if err := s.cache.Set(channelListCacheKey, data, channelListCacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("채널 목록 캐시 저장 실패")
			}
		}
	}
	return infos, nil
}

// Search 는 키워드 검색을 수행하고 결과 건수와 함께 검색 로그를 남긴다.
// 로그 적재 실패는 검색 실패로 전파하지 않는다.
func (s *Service) Search(ctx context.Context, sessionID, keyword, channelID string) ([]domain.RecipeCard, error) {
	metrics.SearchRequestsTotal.Inc()

	cards, err := s.recipes.SearchRecipes(ctx, domain.SearchParams{
		Keyword:   keyword,
		ChannelID: channelID,
		Limit:     defaultSearchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("레시피 검색: %w", err)
	}

	if err := s.logs.InsertSearchLog(ctx, domain.SearchLog{
		SessionID:       sessionID,
		Keyword:         keyword,
		ChannelIDFilter: channelID,
		ResultCount:     len(cards),
	}); err != nil {
		s.log.Error().Err(err).Str("keyword", keyword).Msg("검색 로그 기록 실패")
	}
	return cards, nil
}

// Recommendations 는 분석 완료 레시피 중 무작위 3건을 반환한다.
func (s *Service) Recommendations(ctx context.Context) ([]domain.RecipeCard, error) {
	cards, err := s.recipes.RandomRecommendations(ctx, defaultRecommendationCnt)
	if err != nil {
		return nil, fmt.Errorf("추천 조회: %w", err)
	}
	return cards, nil
}

// LogClick 은 썸네일 클릭 이벤트를 기록한다.
func (s *Service) LogClick(ctx context.Context, l domain.ClickLog) error {
	if err := s.logs.InsertClickLog(ctx, l); err != nil {
		return fmt.Errorf("클릭 로그 기록: %w", err)
	}
	return nil
}

package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kellyjoo3/pickandcook/internal/domain"
)

type stubRecipeRepo struct {
	lastParams domain.SearchParams
	cards      []domain.RecipeCard
	err        error
}

func (s *stubRecipeRepo) SearchRecipes(ctx context.Context, params domain.SearchParams) ([]domain.RecipeCard, error) {
	s.lastParams = params
	return s.cards, s.err
}

func (s *stubRecipeRepo) RandomRecommendations(ctx context.Context, limit int) ([]domain.RecipeCard, error) {
	if limit > len(s.cards) {
		limit = len(s.cards)
	}
	return s.cards[:limit], s.err
}

type stubChannelRepo struct {
	channels  []domain.Channel
	listCalls int
}

func (s *stubChannelRepo) UpsertChannel(ctx context.Context, ch domain.Channel) (domain.Channel, error) {
	return ch, nil
}

func (s *stubChannelRepo) ListActiveChannels(ctx context.Context) ([]domain.Channel, error) {
	s.listCalls++
	return s.channels, nil
}

func (s *stubChannelRepo) SetChannelActive(ctx context.Context, channelID string, active bool) error {
	return nil
}

type stubLogRepo struct {
	searchLogs []domain.SearchLog
	clickLogs  []domain.ClickLog
	insertErr  error
}

func (s *stubLogRepo) InsertSearchLog(ctx context.Context, l domain.SearchLog) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.searchLogs = append(s.searchLogs, l)
	return nil
}

func (s *stubLogRepo) InsertClickLog(ctx context.Context, l domain.ClickLog) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.clickLogs = append(s.clickLogs, l)
	return nil
}

func (s *stubLogRepo) ListRecentSearchLogs(ctx context.Context, limit int) ([]domain.SearchLog, error) {
	return s.searchLogs, nil
}

func (s *stubLogRepo) ListRecentClickLogs(ctx context.Context, limit int) ([]domain.ClickLog, error) {
	return s.clickLogs, nil
}

type mapCache struct {
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Set(key string, value []byte, ttl time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *mapCache) Get(key string) ([]byte, error) {
	v, ok := c.data[key]
	if !ok {
		return nil, errors.New("키 없음")
	}
	return v, nil
}

func TestSearchRecordsUsageLog(t *testing.T) {
	recipes := &stubRecipeRepo{cards: []domain.RecipeCard{
		{VideoID: "vid-1", Title: "제육볶음", AIIngredients: `{"title":"제육볶음","main":["돼지고기 200g"],"sauce":[]}`, ChannelName: "백주부"},
		{VideoID: "vid-2", Title: "김치제육", AIIngredients: `{"title":"김치제육","main":["돼지고기","김치"],"sauce":[]}`, ChannelName: "백주부"},
	}}
	logs := &stubLogRepo{}
	svc := NewService(recipes, &stubChannelRepo{}, logs, nil, zerolog.Nop())

	cards, err := svc.Search(context.Background(), "sess-1", "제육", "UCabcdefghijklmnopqrstuv")
	if err != nil {
		t.Fatalf("오류를 기대하지 않음: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("2건 결과를 기대, 실제: %d", len(cards))
	}
	if recipes.lastParams.Keyword != "제육" || recipes.lastParams.ChannelID != "UCabcdefghijklmnopqrstuv" {
		t.Fatalf("검색 조건이 그대로 전달되어야 함: %+v", recipes.lastParams)
	}
	if recipes.lastParams.Limit != 50 {
		t.Fatalf("기본 결과 상한 50 을 기대, 실제: %d", recipes.lastParams.Limit)
	}
	if len(logs.searchLogs) != 1 {
		t.Fatalf("검색 로그 1건을 기대, 실제: %d", len(logs.searchLogs))
	}
	if l := logs.searchLogs[0]; l.SessionID != "sess-1" || l.ResultCount != 2 {
		t.Fatalf("로그 내용이 결과와 일치해야 함: %+v", l)
	}
}

func TestSearchSurvivesLogFailure(t *testing.T) {
	recipes := &stubRecipeRepo{cards: []domain.RecipeCard{{VideoID: "vid-1"}}}
	logs := &stubLogRepo{insertErr: errors.New("로그 테이블 잠김")}
	svc := NewService(recipes, &stubChannelRepo{}, logs, nil, zerolog.Nop())

	cards, err := svc.Search(context.Background(), "sess-1", "계란", "")
	if err != nil {
		t.Fatalf("로그 실패는 검색 실패가 아님: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("검색 결과는 정상 반환되어야 함")
	}
}

func TestActiveChannelsUsesCache(t *testing.T) {
	channels := &stubChannelRepo{channels: []domain.Channel{
		{ID: "UCabcdefghijklmnopqrstuv", Name: "백주부", IsActive: true},
	}}
	cache := newMapCache()
	svc := NewService(&stubRecipeRepo{}, channels, &stubLogRepo{}, cache, zerolog.Nop())

	first, err := svc.ActiveChannels(context.Background())
	if err != nil {
		t.Fatalf("오류를 기대하지 않음: %v", err)
	}
	second, err := svc.ActiveChannels(context.Background())
	if err != nil {
		t.Fatalf("오류를 기대하지 않음: %v", err)
	}
	if channels.listCalls != 1 {
		t.Fatalf("두 번째 호출은 캐시를 사용해야 함, DB 조회: %d", channels.listCalls)
	}
	if len(first) != 1 || len(second) != 1 || second[0].Name != "백주부" {
		t.Fatalf("캐시 결과가 원본과 같아야 함: %+v", second)
	}
}

func TestActiveChannelsWorksWithoutCache(t *testing.T) {
	channels := &stubChannelRepo{channels: []domain.Channel{
		{ID: "UCabcdefghijklmnopqrstuv", Name: "백주부", IsActive: true},
	}}
	svc := NewService(&stubRecipeRepo{}, channels, &stubLogRepo{}, nil, zerolog.Nop())

	infos, err := svc.ActiveChannels(context.Background())
	if err != nil {
		t.Fatalf("캐시 없이도 동작해야 함: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("1건을 기대, 실제: %d", len(infos))
	}
}

func TestRecommendationsLimitedToThree(t *testing.T) {
	recipes := &stubRecipeRepo{cards: []domain.RecipeCard{
		{VideoID: "vid-1"}, {VideoID: "vid-2"}, {VideoID: "vid-3"}, {VideoID: "vid-4"},
	}}
	svc := NewService(recipes, &stubChannelRepo{}, &stubLogRepo{}, nil, zerolog.Nop())

	cards, err := svc.Recommendations(context.Background())
	if err != nil {
		t.Fatalf("오류를 기대하지 않음: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("추천은 3건이어야 함, 실제: %d", len(cards))
	}
}

func TestLogClick(t *testing.T) {
	logs := &stubLogRepo{}
	svc := NewService(&stubRecipeRepo{}, &stubChannelRepo{}, logs, nil, zerolog.Nop())

	err := svc.LogClick(context.Background(), domain.ClickLog{SessionID: "sess-1", VideoID: "vid-1", SourceSection: "search"})
	if err != nil {
		t.Fatalf("오류를 기대하지 않음: %v", err)
	}
	if len(logs.clickLogs) != 1 || logs.clickLogs[0].VideoID != "vid-1" {
		t.Fatalf("클릭 로그가 기록되어야 함: %+v", logs.clickLogs)
	}

	logs.insertErr = errors.New("연결 끊김")
	if err := svc.LogClick(context.Background(), domain.ClickLog{VideoID: "vid-2"}); err == nil {
		t.Fatalf("클릭 로그 실패는 호출자에게 전파되어야 함")
	}
}

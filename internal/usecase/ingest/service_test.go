package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kellyjoo3/pickandcook/internal/domain"
)

type stubCatalog struct {
	pages    map[string]domain.UploadsPage
	details  map[string]domain.VideoDetails
	comments map[string]string

	detailCalls int
}

func (s *stubCatalog) ListUploads(ctx context.Context, playlistID, pageToken string, pageSize int64) (domain.UploadsPage, error) {
	page, ok := s.pages[playlistID+"|"+pageToken]
	if !ok {
		return domain.UploadsPage{}, nil
	}
	return page, nil
}

func (s *stubCatalog) GetVideoDetails(ctx context.Context, videoID string) (domain.VideoDetails, error) {
	s.detailCalls++
	d, ok := s.details[videoID]
	if !ok {
		return domain.VideoDetails{}, errors.New("영상 없음: " + videoID)
	}
	return d, nil
}

func (s *stubCatalog) TopCommentText(ctx context.Context, videoID string) (string, error) {
	return s.comments[videoID], nil
}

type memChannelRepo struct {
	channels []domain.Channel
}

func (m *memChannelRepo) UpsertChannel(ctx context.Context, ch domain.Channel) (domain.Channel, error) {
	m.channels = append(m.channels, ch)
	return ch, nil
}

func (m *memChannelRepo) ListActiveChannels(ctx context.Context) ([]domain.Channel, error) {
	var out []domain.Channel
	for _, ch := range m.channels {
		if ch.IsActive {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (m *memChannelRepo) SetChannelActive(ctx context.Context, channelID string, active bool) error {
	for i := range m.channels {
		if m.channels[i].ID == channelID {
			m.channels[i].IsActive = active
			return nil
		}
	}
	return errors.New("채널 없음")
}

type memVideoRepo struct {
	videos  map[string]domain.Video
	order   []string
	inserts int
}

func newMemVideoRepo() *memVideoRepo {
	return &memVideoRepo{videos: map[string]domain.Video{}}
}

func (m *memVideoRepo) VideoExists(ctx context.Context, videoID string) (bool, error) {
	_, ok := m.videos[videoID]
	return ok, nil
}

func (m *memVideoRepo) InsertVideo(ctx context.Context, v domain.Video) error {
	if _, ok := m.videos[v.ID]; ok {
		return errors.New("중복 삽입: " + v.ID)
	}
	if v.AnalysisStatus == "" {
		v.AnalysisStatus = domain.StatusPending
	}
	m.videos[v.ID] = v
	m.order = append(m.order, v.ID)
	m.inserts++
	return nil
}

func (m *memVideoRepo) ListByStatus(ctx context.Context, statuses ...domain.AnalysisStatus) ([]domain.Video, error) {
	var out []domain.Video
	for _, id := range m.order {
		v := m.videos[id]
		for _, st := range statuses {
			if v.AnalysisStatus == st {
				out = append(out, v)
				break
			}
		}
	}
	return out, nil
}

func (m *memVideoRepo) CompleteAnalysis(ctx context.Context, videoID string, result domain.RecipeResult) error {
	v, ok := m.videos[videoID]
	if !ok {
		return errors.New("영상 없음")
	}
	encoded, err := domain.EncodeRecipeResult(result)
	if err != nil {
		return err
	}
	v.AITitle = result.Title
	v.AIIngredients = encoded
	v.AnalysisStatus = domain.StatusCompleted
	m.videos[videoID] = v
	return nil
}

func (m *memVideoRepo) FailAnalysis(ctx context.Context, videoID string) error {
	v, ok := m.videos[videoID]
	if !ok {
		return errors.New("영상 없음")
	}
	result := domain.AIErrorResult()
	encoded, err := domain.EncodeRecipeResult(result)
	if err != nil {
		return err
	}
	v.AITitle = result.Title
	v.AIIngredients = encoded
	v.AnalysisStatus = domain.StatusFailed
	m.videos[videoID] = v
	return nil
}

type mapStructurer struct {
	results map[string]domain.RecipeResult
	err     error
	calls   int
}

func (m *mapStructurer) Structure(ctx context.Context, text string) (domain.RecipeResult, error) {
	m.calls++
	if m.err != nil {
		return domain.RecipeResult{}, m.err
	}
	if r, ok := m.results[text]; ok {
		return r, nil
	}
	return domain.FailureResult(), nil
}

func testChannel() domain.Channel {
	return domain.Channel{
		ID:                "UCabcdefghijklmnopqrstuv",
		Name:              "백주부의 요리비책",
		UploadsPlaylistID: "UUabcdefghijklmnopqrstuv",
		RecipeSource:      domain.SourceDescription,
		IsActive:          true,
	}
}

func newTestService(channels *memChannelRepo, videos *memVideoRepo, catalog *stubCatalog, st domain.RecipeStructurer) *Service {
	return NewService(channels, videos, catalog, st, Options{}, zerolog.Nop())
}

func TestDiscoverRecentFiltersByDuration(t *testing.T) {
	ch := testChannel()
	channels := &memChannelRepo{channels: []domain.Channel{ch}}
	videos := newMemVideoRepo()
	catalog := &stubCatalog{
		pages: map[string]domain.UploadsPage{
			ch.UploadsPlaylistID + "|": {VideoIDs: []string{"vid-short", "vid-edge", "vid-long"}},
		},
		details: map[string]domain.VideoDetails{
			"vid-short": {ID: "vid-short", Title: "계란찜", Description: "재료: 계란 3개", DurationSeconds: 45},
			"vid-edge":  {ID: "vid-edge", Title: "경계값", Description: "재료: 두부 1모", DurationSeconds: 180},
			"vid-long":  {ID: "vid-long", Title: "긴 영상", Description: "재료: 갈비 1kg", DurationSeconds: 181},
		},
	}

	svc := newTestService(channels, videos, catalog, &mapStructurer{})
	if err := svc.DiscoverRecent(context.Background()); err != nil {
		t.Fatalf("오류를 기대하지 않음: %v", err)
	}

	if exists, _ := videos.VideoExists(context.Background(), "vid-short"); !exists {
		t.Fatalf("45초 영상은 등록되어야 함")
	}
	if exists, _ := videos.VideoExists(context.Background(), "vid-edge"); !exists {
		t.Fatalf("정확히 180초 영상은 등록되어야 함")
	}
	if exists, _ := videos.VideoExists(context.Background(), "vid-long"); exists {
		t.Fatalf("181초 영상은 제외되어야 함")
	}
	if v := videos.videos["vid-short"]; v.AnalysisStatus != domain.StatusPending {
		t.Fatalf("신규 영상은 pending 상태여야 함, 실제: %s", v.AnalysisStatus)
	}
	if v := videos.videos["vid-short"]; v.SourceText != "재료: 계란 3개" {
		t.Fatalf("description 소스는 설명란을 저장해야 함, 실제: %q", v.SourceText)
	}
}

func TestBackfillAllIsIdempotent(t *testing.T) {
	ch := testChannel()
	channels := &memChannelRepo{channels: []domain.Channel{ch}}
	videos := newMemVideoRepo()
	catalog := &stubCatalog{
		pages: map[string]domain.UploadsPage{
			ch.UploadsPlaylistID + "|":   {VideoIDs: []string{"vid-1", "vid-2"}, NextPageToken: "p2"},
			ch.UploadsPlaylistID + "|p2": {VideoIDs: []string{"vid-3"}},
		},
		details: map[string]domain.VideoDetails{
			"vid-1": {ID: "vid-1", Description: "재료: 계란", DurationSeconds: 30},
			"vid-2": {ID: "vid-2", Description: "재료: 두부", DurationSeconds: 30},
			"vid-3": {ID: "vid-3", Description: "재료: 대파", DurationSeconds: 30},
		},
	}

	svc := newTestService(channels, videos, catalog, &mapStructurer{})
	if err := svc.BackfillAll(context.Background()); err != nil {
		t.Fatalf("오류를 기대하지 않음: %v", err)
	}
	if videos.inserts != 3 {
		t.Fatalf("첫 실행은 3건 삽입을 기대, 실제: %d", videos.inserts)
	}

	detailCallsAfterFirst := catalog.detailCalls
	if err := svc.BackfillAll(context.Background()); err != nil {
		t.Fatalf("오류를 기대하지 않음: %v", err)
	}
	if videos.inserts != 3 {
		t.Fatalf("재실행은 삽입이 없어야 함, 총 삽입: %d", videos.inserts)
	}
	if catalog.detailCalls != detailCallsAfterFirst {
		t.Fatalf("기존 영상에 대한 상세 조회가 없어야 함")
	}
}

func TestProcessPendingTransitions(t *testing.T) {
	videos := newMemVideoRepo()
	mustInsert := func(v domain.Video) {
		if err := videos.InsertVideo(context.Background(), v); err != nil {
			t.Fatalf("준비 실패: %v", err)
		}
	}
	mustInsert(domain.Video{ID: "vid-ok", SourceText: "재료: 돼지고기 200g, 양파 1개", AnalysisStatus: domain.StatusPending})
	mustInsert(domain.Video{ID: "vid-empty", SourceText: "구독과 좋아요 부탁드려요", AnalysisStatus: domain.StatusPending})
	mustInsert(domain.Video{ID: "vid-retry", SourceText: "재료: 계란 3개", AnalysisStatus: domain.StatusFailed})

	st := &mapStructurer{results: map[string]domain.RecipeResult{
		"재료: 돼지고기 200g, 양파 1개": {Title: "제육볶음", Main: []string{"돼지고기 200g", "양파 1개"}, Sauce: []string{}},
		"재료: 계란 3개":            {Title: "계란찜", Main: []string{"계란 3개"}, Sauce: []string{}},
	}}
	svc := newTestService(&memChannelRepo{}, videos, &stubCatalog{}, st)

	if err := svc.ProcessPending(context.Background()); err != nil {
		t.Fatalf("오류를 기대하지 않음: %v", err)
	}

	if v := videos.videos["vid-ok"]; v.AnalysisStatus != domain.StatusCompleted || v.AITitle != "제육볶음" {
		t.Fatalf("성공 전이를 기대, 실제: %+v", v)
	}
	if v := videos.videos["vid-empty"]; v.AnalysisStatus != domain.StatusCompleted || v.AITitle != domain.TitleAnalysisFailed {
		t.Fatalf("빈 결과는 분석 실패 센티널과 함께 completed 여야 함, 실제: %+v", v)
	}
	if v := videos.videos["vid-retry"]; v.AnalysisStatus != domain.StatusCompleted || v.AITitle != "계란찜" {
		t.Fatalf("failed 영상은 재분석되어야 함, 실제: %+v", v)
	}
}

func TestProcessPendingRecordsCommunicationFailure(t *testing.T) {
	videos := newMemVideoRepo()
	if err := videos.InsertVideo(context.Background(), domain.Video{ID: "vid-1", SourceText: "재료: 계란", AnalysisStatus: domain.StatusPending}); err != nil {
		t.Fatalf("준비 실패: %v", err)
	}

	st := &mapStructurer{err: &domain.StructuringError{Attempts: 3, Err: errors.New("호출 한도 초과")}}
	svc := newTestService(&memChannelRepo{}, videos, &stubCatalog{}, st)

	if err := svc.ProcessPending(context.Background()); err != nil {
		t.Fatalf("항목 실패는 배치 오류가 아님: %v", err)
	}
	v := videos.videos["vid-1"]
	if v.AnalysisStatus != domain.StatusFailed {
		t.Fatalf("failed 전이를 기대, 실제: %s", v.AnalysisStatus)
	}
	if v.AITitle != domain.TitleAIError {
		t.Fatalf("통신 오류 센티널을 기대, 실제: %q", v.AITitle)
	}
}

func TestProcessPendingSkipsCompleted(t *testing.T) {
	videos := newMemVideoRepo()
	if err := videos.InsertVideo(context.Background(), domain.Video{ID: "vid-1", SourceText: "재료: 계란 3개", AnalysisStatus: domain.StatusPending}); err != nil {
		t.Fatalf("준비 실패: %v", err)
	}

	st := &mapStructurer{results: map[string]domain.RecipeResult{
		"재료: 계란 3개": {Title: "계란찜", Main: []string{"계란 3개"}, Sauce: []string{}},
	}}
	svc := newTestService(&memChannelRepo{}, videos, &stubCatalog{}, st)

	if err := svc.ProcessPending(context.Background()); err != nil {
		t.Fatalf("오류를 기대하지 않음: %v", err)
	}
	if st.calls != 1 {
		t.Fatalf("1회 호출을 기대, 실제: %d", st.calls)
	}

	if err := svc.ProcessPending(context.Background()); err != nil {
		t.Fatalf("오류를 기대하지 않음: %v", err)
	}
	if st.calls != 1 {
		t.Fatalf("completed 영상은 재분석되지 않아야 함, 호출 수: %d", st.calls)
	}
}

func TestPinnedCommentVideoFlowsToCompleted(t *testing.T) {
	ch := testChannel()
	ch.RecipeSource = domain.SourcePinnedComment
	channels := &memChannelRepo{channels: []domain.Channel{ch}}
	videos := newMemVideoRepo()
	catalog := &stubCatalog{
		pages: map[string]domain.UploadsPage{
			ch.UploadsPlaylistID + "|": {VideoIDs: []string{"vid-1"}},
		},
		details: map[string]domain.VideoDetails{
			"vid-1": {ID: "vid-1", Title: "오늘 저녁은 이거", Description: "구독과 좋아요 부탁드려요", DurationSeconds: 58},
		},
		comments: map[string]string{
			"vid-1": "재료: 돼지고기 200g, 양파 1개",
		},
	}
	st := &mapStructurer{results: map[string]domain.RecipeResult{
		"재료: 돼지고기 200g, 양파 1개": {Title: "제육볶음", Main: []string{"돼지고기 200g", "양파 1개"}, Sauce: []string{}},
	}}

	svc := newTestService(channels, videos, catalog, st)
	if err := svc.DiscoverRecent(context.Background()); err != nil {
		t.Fatalf("수집 오류를 기대하지 않음: %v", err)
	}
	if v := videos.videos["vid-1"]; v.AnalysisStatus != domain.StatusPending || v.SourceText != "재료: 돼지고기 200g, 양파 1개" {
		t.Fatalf("고정 댓글 텍스트로 pending 등록을 기대, 실제: %+v", v)
	}

	if err := svc.ProcessPending(context.Background()); err != nil {
		t.Fatalf("분석 오류를 기대하지 않음: %v", err)
	}
	v := videos.videos["vid-1"]
	if v.AnalysisStatus != domain.StatusCompleted || v.AITitle != "제육볶음" {
		t.Fatalf("completed / 제육볶음 을 기대, 실제: %+v", v)
	}
}

func TestProcessPendingRequiresStructurer(t *testing.T) {
	videos := newMemVideoRepo()
	if err := videos.InsertVideo(context.Background(), domain.Video{ID: "vid-1", SourceText: "재료: 계란", AnalysisStatus: domain.StatusPending}); err != nil {
		t.Fatalf("준비 실패: %v", err)
	}

	svc := newTestService(&memChannelRepo{}, videos, &stubCatalog{}, nil)
	if err := svc.ProcessPending(context.Background()); err == nil {
		t.Fatalf("구조화기 없이 분석을 시작하면 오류를 기대")
	}
	if v := videos.videos["vid-1"]; v.AnalysisStatus != domain.StatusPending {
		t.Fatalf("영상 상태가 변경되지 않아야 함, 실제: %s", v.AnalysisStatus)
	}
}

func TestIngestOneSurvivesDetailFailure(t *testing.T) {
	ch := testChannel()
	channels := &memChannelRepo{channels: []domain.Channel{ch}}
	videos := newMemVideoRepo()
	catalog := &stubCatalog{
		pages: map[string]domain.UploadsPage{
			ch.UploadsPlaylistID + "|": {VideoIDs: []string{"vid-missing", "vid-ok"}},
		},
		details: map[string]domain.VideoDetails{
			"vid-ok": {ID: "vid-ok", Description: "재료: 계란", DurationSeconds: 30},
		},
	}

	svc := newTestService(channels, videos, catalog, &mapStructurer{})
	if err := svc.DiscoverRecent(context.Background()); err != nil {
		t.Fatalf("항목 실패는 배치 오류가 아님: %v", err)
	}
	if exists, _ := videos.VideoExists(context.Background(), "vid-ok"); !exists {
		t.Fatalf("이후 영상은 계속 처리되어야 함")
	}
	if exists, _ := videos.VideoExists(context.Background(), "vid-missing"); exists {
		t.Fatalf("상세 조회 실패 영상은 삽입되지 않아야 함")
	}
}

package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kellyjoo3/pickandcook/internal/domain"
	"github.com/kellyjoo3/pickandcook/internal/infra/metrics"
)

// Postgres 는 pgxpool 기반으로 저장소 인터페이스를 구현한다.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.ChannelRepo     = (*Postgres)(nil)
	_ domain.VideoRepo       = (*Postgres)(nil)
	_ domain.RecipeQueryRepo = (*Postgres)(nil)
	_ domain.UsageLogRepo    = (*Postgres)(nil)
)

// NewPostgres 는 DB 어댑터를 생성한다.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// UpsertChannel 은 domain.ChannelRepo 를 구현한다.
func (p *Postgres) UpsertChannel(ctx context.Context, ch domain.Channel) (domain.Channel, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO channels (channel_id, channel_name, uploads_playlist_id, is_active, recipe_source)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (channel_id) DO UPDATE SET channel_name = EXCLUDED.channel_name, uploads_playlist_id = EXCLUDED.uploads_playlist_id, is_active = EXCLUDED.is_active, recipe_source = EXCLUDED.recipe_source
RETURNING channel_id, channel_name, uploads_playlist_id, is_active, recipe_source, created_at
`, ch.ID, ch.Name, ch.UploadsPlaylistID, ch.IsActive, string(ch.RecipeSource)).
		Scan(&ch.ID, &ch.Name, &ch.UploadsPlaylistID, &ch.IsActive, &ch.RecipeSource, &ch.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "channels_upsert", "channels", start, err)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("채널 저장: %w", err)
	}
	return ch, nil
}

// ListActiveChannels 는 활성 채널을 이름순으로 반환한다.
func (p *Postgres) ListActiveChannels(ctx context.Context) ([]domain.Channel, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT channel_id, channel_name, uploads_playlist_id, is_active, recipe_source, created_at
FROM channels
WHERE is_active
ORDER BY channel_name
`)
	metrics.ObserveNetworkRequest("postgres", "channels_list_active", "channels", start, err)
	if err != nil {
		return nil, fmt.Errorf("채널 목록 조회: %w", err)
	}
	defer rows.Close()

	var channels []domain.Channel
	for rows.Next() {
		var ch domain.Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.UploadsPlaylistID, &ch.IsActive, &ch.RecipeSource, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("채널 행 스캔: %w", err)
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// SetChannelActive 는 수집 대상 여부를 토글한다.
func (p *Postgres) SetChannelActive(ctx context.Context, channelID string, active bool) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `UPDATE channels SET is_active = $2 WHERE channel_id = $1`, channelID, active)
	metrics.ObserveNetworkRequest("postgres", "channels_set_active", "channels", start, err)
	if err != nil {
		return fmt.Errorf("채널 활성화 변경: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("채널 활성화 변경: %s 없음", channelID)
	}
	return nil
}

// VideoExists 는 영상 레코드 존재 여부를 확인한다.
func (p *Postgres) VideoExists(ctx context.Context, videoID string) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	var exists bool
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE video_id = $1)`, videoID).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "videos_exists", "videos", start, err)
	if err != nil {
		return false, fmt.Errorf("영상 존재 확인: %w", err)
	}
	return exists, nil
}

// InsertVideo 는 pending 영상 레코드를 삽입한다. 삽입 한 건이 독립된
// 트랜잭션이므로 중간에 중단된 수집 작업도 재실행으로 이어갈 수 있다.
func (p *Postgres) InsertVideo(ctx context.Context, v domain.Video) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	if v.AnalysisStatus == "" {
		v.AnalysisStatus = domain.StatusPending
	}
	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO videos (video_id, channel_id, title, source_text, published_at, analysis_status)
VALUES ($1, $2, $3, $4, $5, $6)
`, v.ID, v.ChannelID, v.Title, v.SourceText, v.PublishedAt, string(v.AnalysisStatus))
	metrics.ObserveNetworkRequest("postgres", "videos_insert", "videos", start, err)
	if err != nil {
		return fmt.Errorf("영상 삽입 (%s): %w", v.ID, err)
	}
	return nil
}

// ListByStatus 는 지정한 상태의 영상을 반환한다.
func (p *Postgres) ListByStatus(ctx context.Context, statuses ...domain.AnalysisStatus) ([]domain.Video, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT video_id, channel_id, title, COALESCE(source_text, ''), COALESCE(published_at, ''), analysis_status, COALESCE(ai_title, ''), COALESCE(ai_ingredients, ''), created_at
FROM videos
WHERE analysis_status = ANY($1)
ORDER BY created_at
`, values)
	metrics.ObserveNetworkRequest("postgres", "videos_list_by_status", "videos", start, err)
	if err != nil {
		return nil, fmt.Errorf("상태별 영상 조회: %w", err)
	}
	defer rows.Close()

	var videos []domain.Video
	for rows.Next() {
		var v domain.Video
		if err := rows.Scan(&v.ID, &v.ChannelID, &v.Title, &v.SourceText, &v.PublishedAt, &v.AnalysisStatus, &v.AITitle, &v.AIIngredients, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("영상 행 스캔: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// CompleteAnalysis 는 후처리된 결과를 기록하고 completed 로 전이한다.
func (p *Postgres) CompleteAnalysis(ctx context.Context, videoID string, result domain.RecipeResult) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	encoded, err := domain.EncodeRecipeResult(result)
	if err != nil {
		return err
	}
	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE videos SET ai_title = $2, ai_ingredients = $3, analysis_status = $4 WHERE video_id = $1
`, videoID, result.Title, encoded, string(domain.StatusCompleted))
	metrics.ObserveNetworkRequest("postgres", "videos_complete", "videos", start, err)
	if err != nil {
		return fmt.Errorf("분석 결과 기록 (%s): %w", videoID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("분석 결과 기록 (%s): 대상 없음", videoID)
	}
	return nil
}

// FailAnalysis 는 통신 오류 센티널을 기록하고 failed 로 전이한다.
func (p *Postgres) FailAnalysis(ctx context.Context, videoID string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	result := domain.AIErrorResult()
	encoded, err := domain.EncodeRecipeResult(result)
	if err != nil {
		return err
	}
	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE videos SET ai_title = $2, ai_ingredients = $3, analysis_status = $4 WHERE video_id = $1
`, videoID, result.Title, encoded, string(domain.StatusFailed))
	metrics.ObserveNetworkRequest("postgres", "videos_fail", "videos", start, err)
	if err != nil {
		return fmt.Errorf("분석 실패 기록 (%s): %w", videoID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("분석 실패 기록 (%s): 대상 없음", videoID)
	}
	return nil
}

// buildSearchQuery 는 검색 조건을 SQL 과 매개변수로 조립한다. 검색어는
// 공백으로 분리되어 단어별 (제목 OR 재료) 조건이 AND 로 결합된다.
func buildSearchQuery(params domain.SearchParams) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`
SELECT v.video_id, v.ai_title, COALESCE(v.ai_ingredients, ''), c.channel_name
FROM videos v
JOIN channels c ON c.channel_id = v.channel_id
WHERE v.analysis_status = $1 AND v.ai_title <> $2 AND v.ai_title <> $3`)
	args := []any{string(domain.StatusCompleted), domain.TitleAnalysisFailed, domain.TitleAIError}

	if params.ChannelID != "" {
		args = append(args, params.ChannelID)
		fmt.Fprintf(&sb, " AND v.channel_id = $%d", len(args))
	}
	for _, term := range strings.Fields(params.Keyword) {
		args = append(args, "%"+term+"%")
		fmt.Fprintf(&sb, " AND (v.ai_title ILIKE $%d OR v.ai_ingredients ILIKE $%d)", len(args), len(args))
	}
	args = append(args, params.Limit)
	fmt.Fprintf(&sb, " ORDER BY v.published_at DESC LIMIT $%d", len(args))
	return sb.String(), args
}

// SearchRecipes 는 분석 완료 레시피를 키워드로 검색한다.
func (p *Postgres) SearchRecipes(ctx context.Context, params domain.SearchParams) ([]domain.RecipeCard, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	if params.Limit <= 0 {
		params.Limit = 50
	}
	query, args := buildSearchQuery(params)

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "recipes_search", "videos", start, err)
	if err != nil {
		return nil, fmt.Errorf("레시피 검색: %w", err)
	}
	defer rows.Close()
	return scanRecipeCards(rows)
}

// RandomRecommendations 는 분석 완료 레시피 중 무작위 limit 건을 반환한다.
func (p *Postgres) RandomRecommendations(ctx context.Context, limit int) ([]domain.RecipeCard, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 3
	}
	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT v.video_id, v.ai_title, COALESCE(v.ai_ingredients, ''), c.channel_name
FROM videos v
JOIN channels c ON c.channel_id = v.channel_id
WHERE v.analysis_status = $1 AND v.ai_title <> $2 AND v.ai_title <> $3
ORDER BY random()
LIMIT $4
`, string(domain.StatusCompleted), domain.TitleAnalysisFailed, domain.TitleAIError, limit)
	metrics.ObserveNetworkRequest("postgres", "recipes_random", "videos", start, err)
	if err != nil {
		return nil, fmt.Errorf("추천 조회: %w", err)
	}
	defer rows.Close()
	return scanRecipeCards(rows)
}

type cardRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecipeCards(rows cardRows) ([]domain.RecipeCard, error) {
	var cards []domain.RecipeCard
	for rows.Next() {
		var card domain.RecipeCard
		if err := rows.Scan(&card.VideoID, &card.Title, &card.AIIngredients, &card.ChannelName); err != nil {
			return nil, fmt.Errorf("레시피 행 스캔: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// InsertSearchLog 는 검색 로그를 추가한다.
func (p *Postgres) InsertSearchLog(ctx context.Context, l domain.SearchLog) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var channelFilter sql.NullString
	if l.ChannelIDFilter != "" {
		channelFilter = sql.NullString{String: l.ChannelIDFilter, Valid: true}
	}
	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO search_logs (session_id, keyword, channel_id_filter, result_count)
VALUES ($1, $2, $3, $4)
`, l.SessionID, l.Keyword, channelFilter, l.ResultCount)
	metrics.ObserveNetworkRequest("postgres", "search_logs_insert", "search_logs", start, err)
	if err != nil {
		return fmt.Errorf("검색 로그 기록: %w", err)
	}
	return nil
}

// InsertClickLog 는 클릭 로그를 추가한다.
func (p *Postgres) InsertClickLog(ctx context.Context, l domain.ClickLog) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO click_logs (session_id, video_id, source_section)
VALUES ($1, $2, $3)
`, l.SessionID, l.VideoID, l.SourceSection)
	metrics.ObserveNetworkRequest("postgres", "click_logs_insert", "click_logs", start, err)
	if err != nil {
		return fmt.Errorf("클릭 로그 기록: %w", err)
	}
	return nil
}

// ListRecentSearchLogs 는 최근 검색 로그를 최신순으로 반환한다.
func (p *Postgres) ListRecentSearchLogs(ctx context.Context, limit int) ([]domain.SearchLog, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}
	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, COALESCE(session_id, ''), COALESCE(keyword, ''), COALESCE(channel_id_filter, ''), result_count, ts
FROM search_logs
ORDER BY ts DESC
LIMIT $1
`, limit)
	metrics.ObserveNetworkRequest("postgres", "search_logs_list", "search_logs", start, err)
	if err != nil {
		return nil, fmt.Errorf("검색 로그 조회: %w", err)
	}
	defer rows.Close()

	var logs []domain.SearchLog
	for rows.Next() {
		var l domain.SearchLog
		if err := rows.Scan(&l.ID, &l.SessionID, &l.Keyword, &l.ChannelIDFilter, &l.ResultCount, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("검색 로그 스캔: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ListRecentClickLogs 는 최근 클릭 로그를 최신순으로 반환한다.
func (p *Postgres) ListRecentClickLogs(ctx context.Context, limit int) ([]domain.ClickLog, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}
	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, COALESCE(session_id, ''), COALESCE(video_id, ''), COALESCE(source_section, ''), ts
FROM click_logs
ORDER BY ts DESC
LIMIT $1
`, limit)
	metrics.ObserveNetworkRequest("postgres", "click_logs_list", "click_logs", start, err)
	if err != nil {
		return nil, fmt.Errorf("클릭 로그 조회: %w", err)
	}
	defer rows.Close()

	var logs []domain.ClickLog
	for rows.Next() {
		var l domain.ClickLog
		if err := rows.Scan(&l.ID, &l.SessionID, &l.VideoID, &l.SourceSection, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("클릭 로그 스캔: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

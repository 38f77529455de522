package domain

import (
	"context"
	"time"
)

// UploadsPage 는 업로드 재생목록의 한 페이지다.
type UploadsPage struct {
	VideoIDs      []string
	NextPageToken string
}

// VideoDetails 는 카탈로그 제공자의 영상 상세 스냅샷이다.
// TopCommentText 는 목록 응답에 고정 댓글이 포함된 경우에만 채워진다.
type VideoDetails struct {
	ID              string
	Title           string
	Description     string
	PublishedAt     string
	TopCommentText  string
	DurationSeconds int
}

// VideoCatalog 는 외부 영상 카탈로그 제공자다.
type VideoCatalog interface {
	ListUploads(ctx context.Context, playlistID, pageToken string, pageSize int64) (UploadsPage, error)
	GetVideoDetails(ctx context.Context, videoID string) (VideoDetails, error)
	// TopCommentText 는 영상의 최상단 댓글 텍스트를 조회한다.
	// 댓글이 없거나 비활성화된 경우 빈 문자열을 반환한다.
	TopCommentText(ctx context.Context, videoID string) (string, error)
}

// RecipeStructurer 는 자유 텍스트를 레시피 구조로 변환하는 외부 능력이다.
type RecipeStructurer interface {
	Structure(ctx context.Context, text string) (RecipeResult, error)
}

// ChannelRepo 는 채널을 관리한다.
type ChannelRepo interface {
	UpsertChannel(ctx context.Context, ch Channel) (Channel, error)
	ListActiveChannels(ctx context.Context) ([]Channel, error)
	SetChannelActive(ctx context.Context, channelID string, active bool) error
}

// VideoRepo 는 영상과 분석 결과를 관리한다. 쓰기 메서드는 각각 독립된
// 트랜잭션으로 커밋되어 한 영상의 실패가 다른 영상을 되돌리지 않는다.
type VideoRepo interface {
	VideoExists(ctx context.Context, videoID string) (bool, error)
	InsertVideo(ctx context.Context, v Video) error
	ListByStatus(ctx context.Context, statuses ...AnalysisStatus) ([]Video, error)
	// CompleteAnalysis 는 결과를 기록하고 상태를 completed 로 전이한다.
	CompleteAnalysis(ctx context.Context, videoID string, result RecipeResult) error
	// FailAnalysis 는 통신 오류 센티널을 기록하고 상태를 failed 로 전이한다.
	FailAnalysis(ctx context.Context, videoID string) error
}

// SearchParams 는 레시피 검색 조건이다.
type SearchParams struct {
	Keyword   string
	ChannelID string
	Limit     int
}

// RecipeQueryRepo 는 분석 완료 레시피의 조회 전용 뷰다.
type RecipeQueryRepo interface {
	SearchRecipes(ctx context.Context, params SearchParams) ([]RecipeCard, error)
	RandomRecommendations(ctx context.Context, limit int) ([]RecipeCard, error)
}

// UsageLogRepo 는 추가 전용 사용 로그를 관리한다.
type UsageLogRepo interface {
	InsertSearchLog(ctx context.Context, l SearchLog) error
	InsertClickLog(ctx context.Context, l ClickLog) error
	ListRecentSearchLogs(ctx context.Context, limit int) ([]SearchLog, error)
	ListRecentClickLogs(ctx context.Context, limit int) ([]ClickLog, error)
}

// Cache 는 단순 TTL 저장소다.
type Cache interface {
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}

package domain

import "time"

// RecipeSource 는 채널별 레시피 텍스트 소스 설정이다.
type RecipeSource string

const (
	// SourceDescription 은 영상 설명란을 소스로 사용한다.
	SourceDescription RecipeSource = "description"
	// SourcePinnedComment 는 영상 고정 댓글을 소스로 사용한다.
	SourcePinnedComment RecipeSource = "pinned_comment"
)

// AnalysisStatus 는 영상의 분석 상태다.
type AnalysisStatus string

const (
	// StatusPending 은 수집만 되고 아직 분석되지 않은 상태다.
	StatusPending AnalysisStatus = "pending"
	// StatusCompleted 는 분석 시도가 결과를 남긴 종료 상태다.
	StatusCompleted AnalysisStatus = "completed"
	// StatusFailed 는 구조화 호출 자체가 실패한 상태다. 재분석 대상이 된다.
	StatusFailed AnalysisStatus = "failed"
)

// ShortFormMaxSeconds 는 수집 대상 숏폼 영상의 최대 길이(초)다.
const ShortFormMaxSeconds = 180

// Channel 은 수집 대상으로 등록된 유튜브 채널이다.
type Channel struct {
	ID                string
	Name              string
	UploadsPlaylistID string
	IsActive          bool
	RecipeSource      RecipeSource
	CreatedAt         time.Time
}

// Video 는 수집된 숏폼 영상 한 건이다. SourceText 는 분석 대상으로
// 확정된 원문 텍스트이며, AITitle/AIIngredients 는 completed 상태에서만
// 채워진다.
type Video struct {
	ID             string
	ChannelID      string
	Title          string
	SourceText     string
	PublishedAt    string
	AnalysisStatus AnalysisStatus
	AITitle        string
	AIIngredients  string
	CreatedAt      time.Time
}

// RecipeCard 는 검색/추천 API 가 반환하는 조회 전용 행이다.
type RecipeCard struct {
	VideoID       string `json:"video_id"`
	Title         string `json:"title"`
	AIIngredients string `json:"ai_ingredients"`
	ChannelName   string `json:"channel_name"`
}

// SearchLog 는 검색 요청 한 건의 사용 로그다. 삽입 후 변경되지 않는다.
type SearchLog struct {
	ID              int64
	SessionID       string
	Keyword         string
	ChannelIDFilter string
	ResultCount     int
	Timestamp       time.Time
}

// ClickLog 는 썸네일 클릭 한 건의 사용 로그다. 삽입 후 변경되지 않는다.
type ClickLog struct {
	ID            int64
	SessionID     string
	VideoID       string
	SourceSection string
	Timestamp     time.Time
}

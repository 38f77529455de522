package youtube

import (
	"context"
	"fmt"
	"time"

	"github.com/sosodev/duration"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/kellyjoo3/pickandcook/internal/domain"
	"github.com/kellyjoo3/pickandcook/internal/infra/metrics"
)

// Catalog 는 domain.VideoCatalog 를 YouTube Data API v3 로 구현한다.
type Catalog struct {
	svc *yt.Service
}

// NewCatalog 는 API 키 인증으로 카탈로그 어댑터를 생성한다.
func NewCatalog(ctx context.Context, apiKey string) (*Catalog, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube: api key is empty")
	}
	svc, err := yt.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube: create service: %w", err)
	}
	return &Catalog{svc: svc}, nil
}

// ListUploads 는 업로드 재생목록의 한 페이지를 조회한다.
func (c *Catalog) ListUploads(ctx context.Context, playlistID, pageToken string, pageSize int64) (domain.UploadsPage, error) {
	call := c.svc.PlaylistItems.List([]string{"contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(pageSize)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	start := time.Now()
	resp, err := call.Context(ctx).Do()
	metrics.ObserveNetworkRequest("youtube", "playlist_items_list", playlistID, start, err)
	if err != nil {
		return domain.UploadsPage{}, fmt.Errorf("업로드 목록 조회 (%s): %w", playlistID, err)
	}
	page := domain.UploadsPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
			continue
		}
		page.VideoIDs = append(page.VideoIDs, item.ContentDetails.VideoId)
	}
	return page, nil
}

// GetVideoDetails 는 영상 한 건의 스니펫과 길이를 조회한다.
// videos.list 응답에는 고정 댓글이 실리지 않으므로 TopCommentText 는
// 비워 두고 리졸버가 댓글 스레드 보조 호출로 복구하게 한다.
func (c *Catalog) GetVideoDetails(ctx context.Context, videoID string) (domain.VideoDetails, error) {
	call := c.svc.Videos.List([]string{"snippet", "contentDetails"}).Id(videoID)
	start := time.Now()
	resp, err := call.Context(ctx).Do()
	metrics.ObserveNetworkRequest("youtube", "videos_list", videoID, start, err)
	if err != nil {
		return domain.VideoDetails{}, fmt.Errorf("영상 상세 조회 (%s): %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return domain.VideoDetails{}, fmt.Errorf("영상 상세 조회 (%s): 응답에 항목 없음", videoID)
	}
	v := resp.Items[0]
	details := domain.VideoDetails{ID: videoID}
	if v.Snippet != nil {
		details.Title = v.Snippet.Title
		details.Description = v.Snippet.Description
		details.PublishedAt = v.Snippet.PublishedAt
	}
	if v.ContentDetails != nil && v.ContentDetails.Duration != "" {
		seconds, err := parseISODurationSeconds(v.ContentDetails.Duration)
		if err != nil {
			return domain.VideoDetails{}, fmt.Errorf("영상 길이 파싱 (%s): %w", videoID, err)
		}
		details.DurationSeconds = seconds
	}
	return details, nil
}

// TopCommentText 는 관련성 순 상위 1개 댓글 스레드의 최상위 댓글
// 텍스트를 조회한다. 스레드가 없거나 댓글이 비활성화된 영상이면 빈
// 문자열을 반환한다.
func (c *Catalog) TopCommentText(ctx context.Context, videoID string) (string, error) {
	call := c.svc.CommentThreads.List([]string{"snippet"}).
		VideoId(videoID).
		MaxResults(1).
		Order("relevance").
		TextFormat("plainText")
	start := time.Now()
	resp, err := call.Context(ctx).Do()
	metrics.ObserveNetworkRequest("youtube", "comment_threads_list", videoID, start, err)
	if err != nil {
		return "", fmt.Errorf("댓글 스레드 조회 (%s): %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	snippet := resp.Items[0].Snippet
	if snippet == nil || snippet.TopLevelComment == nil || snippet.TopLevelComment.Snippet == nil {
		return "", nil
	}
	return snippet.TopLevelComment.Snippet.TextDisplay, nil
}

func parseISODurationSeconds(iso string) (int, error) {
	d, err := duration.Parse(iso)
	if err != nil {
		return 0, err
	}
	return int(d.ToTimeDuration() / time.Second), nil
}

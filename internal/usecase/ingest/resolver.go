package ingest

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/kellyjoo3/pickandcook/internal/domain"
)

// Resolver 는 채널 설정에 따라 영상의 분석 대상 텍스트를 확정한다.
type Resolver struct {
	catalog domain.VideoCatalog
	log     zerolog.Logger
}

// NewResolver 는 리졸버를 생성한다.
func NewResolver(catalog domain.VideoCatalog, logger zerolog.Logger) *Resolver {
	return &Resolver{catalog: catalog, log: logger}
}

// Resolve 는 항상 문자열을 반환한다(빈 문자열 가능).
//
// description 소스는 스니펫 설명란이 그대로 최종 결과다.
// pinned_comment 소스는 3단 폴백을 거친다: 목록 응답에 포함된 고정 댓글
// 텍스트 → 댓글 스레드 보조 호출 → 설명란. 보조 호출의 실패(네트워크
// 오류, 스레드 없음, 댓글 비활성화)는 "텍스트 없음"으로 취급하고
// 다음 단계로 넘어간다.
func (r *Resolver) Resolve(ctx context.Context, videoID string, details domain.VideoDetails, source domain.RecipeSource) string {
	if source != domain.SourcePinnedComment {
		return details.Description
	}

	if details.TopCommentText != "" {
		r.log.Info().Str("video_id", videoID).Msg("목록 응답의 고정 댓글 텍스트 사용")
		return details.TopCommentText
	}

	text, err := r.catalog.TopCommentText(ctx, videoID)
	if err != nil {
		r.log.Warn().Err(err).Str("video_id", videoID).Msg("댓글 스레드 보조 호출 실패")
		text = ""
	}
	if text != "" {
		r.log.Info().Str("video_id", videoID).Msg("댓글 스레드 호출로 고정 댓글 텍스트 복구")
		return text
	}

	r.log.Warn().Str("video_id", videoID).Msg("고정 댓글 추출 실패, 설명란으로 폴백")
	return details.Description
}

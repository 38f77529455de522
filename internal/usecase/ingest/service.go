package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kellyjoo3/pickandcook/internal/domain"
	"github.com/kellyjoo3/pickandcook/internal/infra/metrics"
)

// Options 는 수집 파이프라인의 운영 파라미터다.
type Options struct {
	MaxDurationSeconds int
	RecentWindow       int64
	BackfillPageSize   int64
}

func (o Options) withDefaults() Options {
	if o.MaxDurationSeconds <= 0 {
		o.MaxDurationSeconds = domain.ShortFormMaxSeconds
	}
	if o.RecentWindow <= 0 {
		o.RecentWindow = 10
	}
	if o.BackfillPageSize <= 0 {
		o.BackfillPageSize = 50
	}
	return o
}

// Service 는 수집/분석 파이프라인의 오케스트레이터다.
//
// 단일 인스턴스의 순차 배치 실행을 전제로 하며 영상별 클레임 잠금은
// 제공하지 않는다. 동시 실행이 필요해지면 claim-then-process 방식의
// 잠금이 먼저 필요하다. 항목 단위 커밋 덕분에 중단된 실행은 재실행으로
// 이어서 처리된다.
type Service struct {
	channels   domain.ChannelRepo
	videos     domain.VideoRepo
	catalog    domain.VideoCatalog
	structurer domain.RecipeStructurer
	resolver   *Resolver
	opts       Options
	log        zerolog.Logger
}

// NewService 는 오케스트레이터를 생성한다. structurer 는 수집만 수행하는
// 실행(백필 등)에서는 nil 이어도 되고, 그 경우 ProcessPending 은 오류를
// 반환한다.
func NewService(channels domain.ChannelRepo, videos domain.VideoRepo, catalog domain.VideoCatalog, structurer domain.RecipeStructurer, opts Options, logger zerolog.Logger) *Service {
	return &Service{
		channels:   channels,
		videos:     videos,
		catalog:    catalog,
		structurer: structurer,
		resolver:   NewResolver(catalog, logger),
		opts:       opts.withDefaults(),
		log:        logger,
	}
}

// DiscoverRecent 는 활성 채널별 최신 업로드 한 페이지를 확인해 신규
// 영상을 pending 으로 등록한다. 항목 단위 실패는 기록 후 건너뛴다.
func (s *Service) DiscoverRecent(ctx context.Context) error {
	channels, err := s.channels.ListActiveChannels(ctx)
	if err != nil {
		return fmt.Errorf("활성 채널 조회: %w", err)
	}
	if len(channels) == 0 {
		s.log.Warn().Msg("수집 대상 채널이 없음")
		return nil
	}

	for _, channel := range channels {
		chLog := s.log.With().Str("channel_id", channel.ID).Str("channel_name", channel.Name).Logger()
		chLog.Info().Str("recipe_source", string(channel.RecipeSource)).Msg("신규 영상 확인 시작")

		page, err := s.catalog.ListUploads(ctx, channel.UploadsPlaylistID, "", s.opts.RecentWindow)
		if err != nil {
			chLog.Error().Err(err).Msg("업로드 목록 조회 실패, 채널 건너뜀")
			metrics.IngestErrors.Inc()
			continue
		}
		if len(page.VideoIDs) == 0 {
			chLog.Info().Msg("새로운 영상 없음")
			continue
		}
		for _, videoID := range page.VideoIDs {
			s.ingestOne(ctx, channel, videoID, chLog)
		}
		chLog.Info().Msg("신규 영상 확인 완료")
	}
	return nil
}

// BackfillAll 은 활성 채널의 업로드 재생목록 전체를 페이지 토큰 루프로
// 순회하며 신규 영상을 pending 으로 등록한다. 상세 조회 전에 존재
// 여부를 먼저 확인해 과거 영상에 대한 불필요한 호출을 줄인다.
func (s *Service) BackfillAll(ctx context.Context) error {
	channels, err := s.channels.ListActiveChannels(ctx)
	if err != nil {
		return fmt.Errorf("활성 채널 조회: %w", err)
	}

	for _, channel := range channels {
		chLog := s.log.With().Str("channel_id", channel.ID).Str("channel_name", channel.Name).Logger()
		chLog.Info().Msg("백필 시작")

		pageToken := ""
		for {
			page, err := s.catalog.ListUploads(ctx, channel.UploadsPlaylistID, pageToken, s.opts.BackfillPageSize)
			if err != nil {
				chLog.Error().Err(err).Msg("업로드 페이지 조회 실패, 채널 중단")
				metrics.IngestErrors.Inc()
				break
			}
			for _, videoID := range page.VideoIDs {
				s.ingestOne(ctx, channel, videoID, chLog)
			}
			if page.NextPageToken == "" {
				break
			}
			pageToken = page.NextPageToken
		}
		chLog.Info().Msg("백필 완료")
	}
	return nil
}

// ingestOne 은 영상 한 건의 중복 확인, 상세 조회, 길이 필터, 텍스트
// 확정, 삽입을 수행한다. 실패는 항목 단위로 흡수된다.
func (s *Service) ingestOne(ctx context.Context, channel domain.Channel, videoID string, chLog zerolog.Logger) {
	exists, err := s.videos.VideoExists(ctx, videoID)
	if err != nil {
		chLog.Error().Err(err).Str("video_id", videoID).Msg("존재 확인 실패, 건너뜀")
		metrics.IngestErrors.Inc()
		return
	}
	if exists {
		chLog.Debug().Str("video_id", videoID).Msg("이미 등록된 영상")
		return
	}

	details, err := s.catalog.GetVideoDetails(ctx, videoID)
	if err != nil {
		chLog.Error().Err(err).Str("video_id", videoID).Msg("상세 조회 실패, 건너뜀")
		metrics.IngestErrors.Inc()
		return
	}
	if details.DurationSeconds > s.opts.MaxDurationSeconds {
		chLog.Debug().Str("video_id", videoID).Int("duration_sec", details.DurationSeconds).Msg("숏폼 길이 초과, 제외")
		metrics.SkippedLongVideos.Inc()
		return
	}

	sourceText := s.resolver.Resolve(ctx, videoID, details, channel.RecipeSource)

	video := domain.Video{
		ID:             videoID,
		ChannelID:      channel.ID,
		Title:          details.Title,
		SourceText:     sourceText,
		PublishedAt:    details.PublishedAt,
		AnalysisStatus: domain.StatusPending,
	}
	if err := s.videos.InsertVideo(ctx, video); err != nil {
		chLog.Error().Err(err).Str("video_id", videoID).Msg("영상 삽입 실패, 건너뜀")
		metrics.IngestErrors.Inc()
		return
	}
	metrics.IngestedVideos.WithLabelValues(channel.ID).Inc()
	chLog.Info().Str("video_id", videoID).Msg("신규 영상 등록")
}

// ProcessPending 은 pending/failed 영상 전체를 순차 분석한다.
// 영상별 결과가 독립적으로 커밋되므로 한 건의 실패가 다른 건의 성공을
// 되돌리지 않는다.
func (s *Service) ProcessPending(ctx context.Context) error {
	if s.structurer == nil {
		return fmt.Errorf("구조화기가 설정되지 않음")
	}
	videos, err := s.videos.ListByStatus(ctx, domain.StatusPending, domain.StatusFailed)
	if err != nil {
		return fmt.Errorf("분석 대상 조회: %w", err)
	}
	if len(videos) == 0 {
		s.log.Info().Msg("분석할 pending/failed 영상 없음")
		return nil
	}
	s.log.Info().Int("count", len(videos)).Msg("영상 분석 시작")

	for _, video := range videos {
		vLog := s.log.With().Str("video_id", video.ID).Str("status", string(video.AnalysisStatus)).Logger()
		start := time.Now()

		result, err := s.structurer.Structure(ctx, video.SourceText)
		if err != nil {
			vLog.Error().Err(err).Msg("구조화 호출 최종 실패")
			if failErr := s.videos.FailAnalysis(ctx, video.ID); failErr != nil {
				vLog.Error().Err(failErr).Msg("실패 상태 기록 실패")
			}
			metrics.AnalysisResults.WithLabelValues(string(domain.StatusFailed)).Inc()
			metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
			continue
		}

		result = domain.Reconcile(result)
		if err := s.videos.CompleteAnalysis(ctx, video.ID, result); err != nil {
			vLog.Error().Err(err).Msg("분석 결과 기록 실패")
			metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
			continue
		}
		metrics.AnalysisResults.WithLabelValues(string(domain.StatusCompleted)).Inc()
		metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
		vLog.Info().Str("ai_title", result.Title).Msg("분석 완료")
	}
	s.log.Info().Msg("영상 분석 종료")
	return nil
}

package register

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kellyjoo3/pickandcook/internal/domain"
)

var (
	// ErrChannelIDInvalid 는 채널 ID 형식 오류다.
	ErrChannelIDInvalid = errors.New("올바르지 않은 채널 ID")
	// ErrNameRequired 는 관리용 채널 이름 누락 오류다.
	ErrNameRequired = errors.New("채널 이름이 비어 있음")
	// ErrSourceInvalid 는 알 수 없는 레시피 소스 오류다.
	ErrSourceInvalid = errors.New("올바르지 않은 레시피 소스")
)

var channelIDRegex = regexp.MustCompile(`^UC[0-9A-Za-z_-]{22}$`)

// DeriveUploadsPlaylistID 는 'UC...' 채널 ID 에서 'UU...' 업로드 재생목록
// ID 를 유도한다.
func DeriveUploadsPlaylistID(channelID string) string {
	if len(channelID) < 2 {
		return channelID
	}
	return "UU" + channelID[2:]
}

// Params 는 채널 등록 입력이다. UploadsPlaylistID 를 비워 두면 채널
// ID 에서 자동 유도한다.
type Params struct {
	ChannelID         string
	Name              string
	UploadsPlaylistID string
	Source            domain.RecipeSource
}

// Service 는 채널 등록 정책을 구현한다.
type Service struct {
	repo domain.ChannelRepo
}

// NewService 는 등록 서비스를 생성한다.
func NewService(repo domain.ChannelRepo) *Service {
	return &Service{repo: repo}
}

// Register 는 입력을 검증해 채널을 활성 상태로 등록한다.
func (s *Service) Register(ctx context.Context, params Params) (domain.Channel, error) {
	channelID := strings.TrimSpace(params.ChannelID)
	if !channelIDRegex.MatchString(channelID) {
		return domain.Channel{}, ErrChannelIDInvalid
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return domain.Channel{}, ErrNameRequired
	}
	uploadsID := strings.TrimSpace(params.UploadsPlaylistID)
	if uploadsID == "" {
		uploadsID = DeriveUploadsPlaylistID(channelID)
	}
	source := params.Source
	if source == "" {
		source = domain.SourceDescription
	}
	if source != domain.SourceDescription && source != domain.SourcePinnedComment {
		return domain.Channel{}, ErrSourceInvalid
	}

	channel, err := s.repo.UpsertChannel(ctx, domain.Channel{
		ID:                channelID,
		Name:              name,
		UploadsPlaylistID: uploadsID,
		IsActive:          true,
		RecipeSource:      source,
	})
	if err != nil {
		return domain.Channel{}, fmt.Errorf("채널 등록: %w", err)
	}
	return channel, nil
}

// Deactivate 는 채널을 수집 대상에서 제외한다.
func (s *Service) Deactivate(ctx context.Context, channelID string) error {
	return s.repo.SetChannelActive(ctx, channelID, false)
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kellyjoo3/pickandcook/internal/adapters/repo"
	"github.com/kellyjoo3/pickandcook/internal/domain"
	"github.com/kellyjoo3/pickandcook/internal/infra/config"
	"github.com/kellyjoo3/pickandcook/internal/infra/db"
	applog "github.com/kellyjoo3/pickandcook/internal/infra/log"
	"github.com/kellyjoo3/pickandcook/internal/usecase/register"
)

// addchannel 은 수집 대상 채널을 대화형으로 등록하는 운영자용 CLI 다.
func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv).With().Str("component", "addchannel").Logger()

	if cfg.PGDSN == "" {
		logger.Fatal().Msg("addchannel: PG_DSN 이 설정되지 않음")
	}

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("addchannel: DB 연결 실패")
	}
	defer pool.Close()

	service := register.NewService(repo.NewPostgres(pool))
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("--- 새 유튜버 채널을 등록합니다 ---")

	channelID := prompt(reader, "1. 채널 ID 를 입력하세요 (예: UC...): ")
	name := prompt(reader, "2. 채널 이름을 입력하세요 (관리용): ")

	defaultUploadsID := register.DeriveUploadsPlaylistID(channelID)
	uploadsID := prompt(reader, fmt.Sprintf("3. 업로드 재생목록 ID 를 입력하세요 (자동완성: %s): ", defaultUploadsID))
	if uploadsID == "" {
		fmt.Printf("   (자동 입력됨: %s)\n", defaultUploadsID)
	}

	fmt.Println("4. 레시피 데이터 소스를 선택하세요.")
	fmt.Println("   (1) 영상 설명란 (description)")
	fmt.Println("   (2) 영상 고정 댓글 (pinned_comment)")
	sourceChoice := prompt(reader, "   선택 (기본값 1): ")

	source := domain.SourceDescription
	if sourceChoice == "2" {
		source = domain.SourcePinnedComment
		fmt.Println("   (소스: '고정 댓글'로 설정)")
	} else {
		fmt.Println("   (소스: '설명란'으로 설정)")
	}

	channel, err := service.Register(context.Background(), register.Params{
		ChannelID:         channelID,
		Name:              name,
		UploadsPlaylistID: uploadsID,
		Source:            source,
	})
	if err != nil {
		fmt.Printf("\n[오류] 채널 등록에 실패했습니다: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n[성공] '%s' 채널을 등록했습니다. (uploads: %s)\n", channel.Name, channel.UploadsPlaylistID)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

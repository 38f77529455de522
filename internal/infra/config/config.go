package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig 는 서비스 구성을 기술한다.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	YouTube struct {
		APIKey string `envconfig:"YOUTUBE_API_KEY"`
	} `envconfig:""`

	Gemini struct {
		APIKey  string        `envconfig:"GEMINI_API_KEY"`
		Model   string        `envconfig:"GEMINI_MODEL" default:"models/gemini-2.5-flash-lite"`
		BaseURL string        `envconfig:"GEMINI_BASE_URL"`
		Timeout time.Duration `envconfig:"GEMINI_TIMEOUT" default:"60s"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Ingest struct {
		MaxDurationSeconds int   `envconfig:"SHORTFORM_MAX_SECONDS" default:"180"`
		RecentWindow       int64 `envconfig:"RECENT_UPLOADS_WINDOW" default:"10"`
		BackfillPageSize   int64 `envconfig:"BACKFILL_PAGE_SIZE" default:"50"`
	} `envconfig:""`

	Structuring struct {
		Attempts   int           `envconfig:"STRUCTURING_ATTEMPTS" default:"3"`
		BackoffMin time.Duration `envconfig:"STRUCTURING_BACKOFF_MIN" default:"4s"`
		BackoffMax time.Duration `envconfig:"STRUCTURING_BACKOFF_MAX" default:"10s"`
	} `envconfig:""`
}

// Load 는 환경 변수에서 구성을 읽는다.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("구성 로드 실패: %v", err)
	}
	return cfg
}

package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements 는 멱등 스키마 정의다. 이미 존재하는 테이블과
// 데이터는 그대로 둔다.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS channels (
	channel_id TEXT PRIMARY KEY,
	channel_name TEXT NOT NULL,
	uploads_playlist_id TEXT NOT NULL UNIQUE,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	recipe_source TEXT NOT NULL DEFAULT 'description',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS videos (
	video_id TEXT PRIMARY KEY,
	channel_id TEXT NOT NULL REFERENCES channels (channel_id),
	title TEXT NOT NULL,
	source_text TEXT,
	published_at TEXT,
	analysis_status TEXT NOT NULL DEFAULT 'pending',
	ai_title TEXT,
	ai_ingredients TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_analysis_status ON videos (analysis_status)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_channel_id ON videos (channel_id)`,
	`CREATE TABLE IF NOT EXISTS search_logs (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT,
	keyword TEXT,
	channel_id_filter TEXT,
	result_count INT NOT NULL DEFAULT 0,
	ts TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_search_logs_session_id ON search_logs (session_id)`,
	`CREATE TABLE IF NOT EXISTS click_logs (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT,
	video_id TEXT,
	source_section TEXT,
	ts TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_click_logs_session_id ON click_logs (session_id)`,
}

// EnsureSchema 는 필요한 테이블과 인덱스를 생성한다.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("스키마 적용: %w", err)
		}
	}
	return nil
}

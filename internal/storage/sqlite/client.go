package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/word-munch/backend/internal/storage/models"
	"github.com/word-munch/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cognitive_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		data TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cognitive_user ON cognitive_records(user_id);
	CREATE INDEX IF NOT EXISTS idx_cognitive_timestamp ON cognitive_records(timestamp);
	CREATE INDEX IF NOT EXISTS idx_cognitive_expires ON cognitive_records(expires_at);

	CREATE TABLE IF NOT EXISTS analysis_history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		overall_similarity REAL NOT NULL,
		segment_count INTEGER NOT NULL,
		escalated INTEGER DEFAULT 0,
		context_used INTEGER DEFAULT 0,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_user ON analysis_history(user_id);
	CREATE INDEX IF NOT EXISTS idx_history_created ON analysis_history(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertCognitiveRecord(ctx context.Context, id, userID string, timestamp int64, data []byte, expiresAt int64) error {
	query := `INSERT INTO cognitive_records (id, user_id, timestamp, data, expires_at) VALUES (?, ?, ?, ?, ?)`

	_, err := c.db.ExecContext(ctx, query, id, userID, timestamp, string(data), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert cognitive record: %w", err)
	}

	logger.Debug("Cognitive record inserted", zap.String("record_id", id), zap.String("user_id", userID))
	return nil
}

// QueryUserRecords returns record bodies for one user with timestamp at or
// after cutoff, newest first.
func (c *Client) QueryUserRecords(ctx context.Context, userID string, cutoff int64) ([][]byte, error) {
	query := `SELECT data FROM cognitive_records WHERE user_id = ? AND timestamp >= ? ORDER BY timestamp DESC`

	rows, err := c.db.QueryContext(ctx, query, userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query cognitive records: %w", err)
	}
	defer rows.Close()

	var records [][]byte
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan cognitive record: %w", err)
		}
		records = append(records, []byte(data))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cognitive records: %w", err)
	}

	return records, nil
}

// PurgeExpired removes records past their retention window.
func (c *Client) PurgeExpired(ctx context.Context, now int64) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM cognitive_records WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired records: %w", err)
	}

	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged records: %w", err)
	}

	if purged > 0 {
		logger.Info("Expired cognitive records purged", zap.Int64("count", purged))
	}
	return purged, nil
}

func (c *Client) InsertAnalysisRecord(ctx context.Context, record *models.AnalysisRecord) error {
	query := `
		INSERT INTO analysis_history (id, user_id, overall_similarity, segment_count, escalated, context_used, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	escalated := 0
	if record.Escalated {
		escalated = 1
	}
	contextUsed := 0
	if record.ContextUsed {
		contextUsed = 1
	}

	_, err := c.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.UserID,
		record.OverallSimilarity,
		record.SegmentCount,
		escalated,
		contextUsed,
		record.LatencyMS,
		record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis record: %w", err)
	}

	return nil
}

func (c *Client) GetRecentAnalyses(ctx context.Context, userID string, limit int) ([]*models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, user_id, overall_similarity, segment_count, escalated, context_used, latency_ms, created_at
		FROM analysis_history
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis history: %w", err)
	}
	defer rows.Close()

	var records []*models.AnalysisRecord
	for rows.Next() {
		var record models.AnalysisRecord
		var escalated, contextUsed int
		var latencyMS sql.NullInt64
		var createdAt int64

		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.OverallSimilarity,
			&record.SegmentCount,
			&escalated,
			&contextUsed,
			&latencyMS,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis record: %w", err)
		}

		record.Escalated = escalated == 1
		record.ContextUsed = contextUsed == 1
		record.LatencyMS = int(latencyMS.Int64)
		record.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read analysis history: %w", err)
	}

	return records, nil
}

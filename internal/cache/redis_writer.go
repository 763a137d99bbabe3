package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
	"github.com/redis/go-redis/v9"
)

// SchemaVersion is embedded in every analysis key. Bumping it orphans
// analyses cached by older engine semantics instead of serving them.
const SchemaVersion = "v2"

// TTL constants
const (
	DefaultAnalysisTTL = 30 * 24 * time.Hour
	ScoreboardTTL      = 5 * time.Minute
)

// RedisWriter handles reading and writing analysis results to Redis
type RedisWriter struct {
	client      *redis.Client
	analysisTTL time.Duration
}

// NewRedisWriter creates a new Redis writer
func NewRedisWriter(client *redis.Client, analysisTTL time.Duration) *RedisWriter {
	if analysisTTL <= 0 {
		analysisTTL = DefaultAnalysisTTL
	}
	return &RedisWriter{
		client:      client,
		analysisTTL: analysisTTL,
	}
}

// analysisKey separates expanded and table-only payloads so a cached
// table-only result never masks the richer one.
func analysisKey(gameID string, expanded bool) string {
	variant := "tables"
	if expanded {
		variant = "expanded"
	}
	return fmt.Sprintf("nfl:game:%s:analysis:%s:%s", gameID, SchemaVersion, variant)
}

// WriteAnalysis stores a final game's analysis payload
func (w *RedisWriter) WriteAnalysis(ctx context.Context, payload *models.AnalysisPayload, expanded bool) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling analysis: %w", err)
	}
	return w.client.Set(ctx, analysisKey(payload.GameID, expanded), data, w.analysisTTL).Err()
}

// ReadAnalysis retrieves a cached analysis payload. A cache miss
// returns (nil, nil).
func (w *RedisWriter) ReadAnalysis(ctx context.Context, gameID string, expanded bool) (*models.AnalysisPayload, error) {
	data, err := w.client.Get(ctx, analysisKey(gameID, expanded)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var payload models.AnalysisPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("unmarshaling analysis: %w", err)
	}
	payload.FromCache = true
	return &payload, nil
}

// WriteScoreboard stores the week's scoreboard briefly to absorb
// repeated lookups between poll cycles.
func (w *RedisWriter) WriteScoreboard(ctx context.Context, week, seasonType int, board *models.Scoreboard) error {
	data, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("marshaling scoreboard: %w", err)
	}
	return w.client.Set(ctx, scoreboardKey(week, seasonType), data, ScoreboardTTL).Err()
}

// ReadScoreboard retrieves a cached scoreboard. A cache miss returns
// (nil, nil).
func (w *RedisWriter) ReadScoreboard(ctx context.Context, week, seasonType int) (*models.Scoreboard, error) {
	data, err := w.client.Get(ctx, scoreboardKey(week, seasonType)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var board models.Scoreboard
	if err := json.Unmarshal([]byte(data), &board); err != nil {
		return nil, fmt.Errorf("unmarshaling scoreboard: %w", err)
	}
	return &board, nil
}

func scoreboardKey(week, seasonType int) string {
	if week <= 0 || seasonType <= 0 {
		return "nfl:scoreboard:current"
	}
	return fmt.Sprintf("nfl:scoreboard:%d:%d", seasonType, week)
}

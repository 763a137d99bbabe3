package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
	_ "github.com/lib/pq"
)

// ArchiveDB defines the interface for the season archive operations
type ArchiveDB interface {
	InitSchema(ctx context.Context) error
	UpsertGameRows(ctx context.Context, game GameKey, variant string, rows []models.TeamStatRow) error
	SeasonReport(ctx context.Context, filters SeasonFilters) ([]SeasonTeamRow, error)
	Close() error
	Ping(ctx context.Context) error
}

// GameKey identifies one archived game.
type GameKey struct {
	GameID     string
	Season     int
	Week       int
	SeasonType int
}

// SeasonFilters contains filters for the season report
type SeasonFilters struct {
	Season  int
	Week    int
	Variant string // competitive or full
	Team    string
}

// SeasonTeamRow is one team's aggregate line across archived games.
type SeasonTeamRow struct {
	Team              string  `json:"team"`
	Games             int     `json:"games"`
	AvgSuccessRate    float64 `json:"avgSuccessRate"`
	AvgExplosiveRate  float64 `json:"avgExplosiveRate"`
	AvgYardsPerPlay   float64 `json:"avgYardsPerPlay"`
	AvgPointsPerDrive float64 `json:"avgPointsPerDrive"`
	TotalPoints       int     `json:"totalPoints"`
	Turnovers         int     `json:"turnovers"`
	TurnoverMargin    int     `json:"turnoverMargin"`
}

// Client implements ArchiveDB against Postgres
type Client struct {
	db *sql.DB
}

// NewClient creates a new archive DB client
func NewClient(dsn string) (*Client, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db}, nil
}

// InitSchema creates the archive table when it does not exist
func (c *Client) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS nfl_game_stats (
			game_id              TEXT NOT NULL,
			team                 TEXT NOT NULL,
			variant              TEXT NOT NULL,
			season               INT  NOT NULL,
			season_type          INT  NOT NULL,
			week                 INT  NOT NULL,
			score                INT  NOT NULL,
			plays                INT  NOT NULL,
			turnovers            INT  NOT NULL,
			total_yards          INT  NOT NULL,
			yards_per_play       DOUBLE PRECISION NOT NULL,
			success_rate         DOUBLE PRECISION NOT NULL,
			explosive_plays      INT  NOT NULL,
			explosive_play_rate  DOUBLE PRECISION NOT NULL,
			points_per_trip      DOUBLE PRECISION NOT NULL,
			drives               INT  NOT NULL,
			turnover_margin      INT  NOT NULL,
			points_per_drive     DOUBLE PRECISION NOT NULL,
			penalty_count        INT  NOT NULL,
			penalty_yards        INT  NOT NULL,
			non_offensive_points INT  NOT NULL,
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (game_id, team, variant)
		)
	`
	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// UpsertGameRows archives one variant's stat rows for a game. Re-runs
// of the same game overwrite the previous rows.
func (c *Client) UpsertGameRows(ctx context.Context, game GameKey, variant string, rows []models.TeamStatRow) error {
	query := `
		INSERT INTO nfl_game_stats (
			game_id, team, variant, season, season_type, week,
			score, plays, turnovers, total_yards, yards_per_play,
			success_rate, explosive_plays, explosive_play_rate,
			points_per_trip, drives, turnover_margin, points_per_drive,
			penalty_count, penalty_yards, non_offensive_points, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, NOW()
		)
		ON CONFLICT (game_id, team, variant) DO UPDATE SET
			season = EXCLUDED.season,
			season_type = EXCLUDED.season_type,
			week = EXCLUDED.week,
			score = EXCLUDED.score,
			plays = EXCLUDED.plays,
			turnovers = EXCLUDED.turnovers,
			total_yards = EXCLUDED.total_yards,
			yards_per_play = EXCLUDED.yards_per_play,
			success_rate = EXCLUDED.success_rate,
			explosive_plays = EXCLUDED.explosive_plays,
			explosive_play_rate = EXCLUDED.explosive_play_rate,
			points_per_trip = EXCLUDED.points_per_trip,
			drives = EXCLUDED.drives,
			turnover_margin = EXCLUDED.turnover_margin,
			points_per_drive = EXCLUDED.points_per_drive,
			penalty_count = EXCLUDED.penalty_count,
			penalty_yards = EXCLUDED.penalty_yards,
			non_offensive_points = EXCLUDED.non_offensive_points,
			updated_at = NOW()
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, query,
			game.GameID, r.Team, variant, game.Season, game.SeasonType, game.Week,
			r.Score, r.Plays, r.Turnovers, r.TotalYards, r.YardsPerPlay,
			r.SuccessRate, r.ExplosivePlays, r.ExplosivePlayRate,
			r.PointsPerTrip, r.Drives, r.TurnoverMargin, r.PointsPerDrive,
			r.PenaltyCount, r.PenaltyYards, r.NonOffensivePoints,
		); err != nil {
			return fmt.Errorf("upsert game row: %w", err)
		}
	}

	return tx.Commit()
}

// SeasonReport aggregates archived rows into per-team season lines
func (c *Client) SeasonReport(ctx context.Context, filters SeasonFilters) ([]SeasonTeamRow, error) {
	variant := filters.Variant
	if variant == "" {
		variant = "competitive"
	}

	query := `
		SELECT team, COUNT(*) AS games,
		       AVG(success_rate), AVG(explosive_play_rate),
		       AVG(yards_per_play), AVG(points_per_drive),
		       SUM(score), SUM(turnovers), SUM(turnover_margin)
		FROM nfl_game_stats
		WHERE variant = $1
	`
	args := []interface{}{variant}
	argIdx := 2

	if filters.Season > 0 {
		query += fmt.Sprintf(" AND season = $%d", argIdx)
		args = append(args, filters.Season)
		argIdx++
	}

	if filters.Week > 0 {
		query += fmt.Sprintf(" AND week = $%d", argIdx)
		args = append(args, filters.Week)
		argIdx++
	}

	if filters.Team != "" {
		query += fmt.Sprintf(" AND team = $%d", argIdx)
		args = append(args, filters.Team)
	}

	query += " GROUP BY team ORDER BY AVG(success_rate) DESC"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query season report: %w", err)
	}
	defer rows.Close()

	var report []SeasonTeamRow
	for rows.Next() {
		var r SeasonTeamRow
		if err := rows.Scan(
			&r.Team, &r.Games, &r.AvgSuccessRate, &r.AvgExplosiveRate,
			&r.AvgYardsPerPlay, &r.AvgPointsPerDrive,
			&r.TotalPoints, &r.Turnovers, &r.TurnoverMargin,
		); err != nil {
			return nil, fmt.Errorf("scan season row: %w", err)
		}
		report = append(report, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate season report: %w", err)
	}

	return report, nil
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping checks database connectivity
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/analysis"
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
)

// Provider is the upstream feed surface the analyzer needs.
type Provider interface {
	FetchPlayByPlay(ctx context.Context, gameID string) (*models.GamePackage, error)
	FetchProbabilities(ctx context.Context, gameID string) ([]models.ProbabilitySample, error)
	FetchPregameWinProbability(ctx context.Context, gameID string) (models.PregameProbability, error)
	FetchScoreboard(ctx context.Context, week, seasonType int) (*models.Scoreboard, error)
}

// Cache stores finished analyses and short-lived scoreboards.
type Cache interface {
	ReadAnalysis(ctx context.Context, gameID string, expanded bool) (*models.AnalysisPayload, error)
	WriteAnalysis(ctx context.Context, payload *models.AnalysisPayload, expanded bool) error
	ReadScoreboard(ctx context.Context, week, seasonType int) (*models.Scoreboard, error)
	WriteScoreboard(ctx context.Context, week, seasonType int, board *models.Scoreboard) error
}

// Publisher pushes finished analyses to downstream consumers.
type Publisher interface {
	PublishAnalysis(ctx context.Context, payload *models.AnalysisPayload) error
}

// Analyzer orchestrates feed fetching, the analysis engine, caching,
// and publishing for one game at a time.
type Analyzer struct {
	provider  Provider
	cache     Cache
	publisher Publisher

	threshold       float64
	completionDelay time.Duration
}

// NewAnalyzer creates an analyzer. cache and publisher may be nil; the
// analyzer then skips those stages.
func NewAnalyzer(provider Provider, cache Cache, publisher Publisher, threshold float64, completionDelay time.Duration) *Analyzer {
	if threshold <= 0 {
		threshold = analysis.DefaultCompetitiveThreshold
	}
	return &Analyzer{
		provider:        provider,
		cache:           cache,
		publisher:       publisher,
		threshold:       threshold,
		completionDelay: completionDelay,
	}
}

// AnalyzeGame produces the full analysis payload for a game, consulting
// the cache first and filling it when the game is safely final.
func (a *Analyzer) AnalyzeGame(ctx context.Context, gameID string, expanded bool) (*models.AnalysisPayload, error) {
	if a.cache != nil {
		cached, err := a.cache.ReadAnalysis(ctx, gameID, expanded)
		if err != nil {
			log.Printf("cache read failed for game %s: %v", gameID, err)
		}
		if cached != nil {
			metrics.AnalysesTotal.WithLabelValues("cache_hit").Inc()
			return cached, nil
		}
	}

	start := time.Now()
	payload, err := a.analyze(ctx, gameID, expanded)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.AnalysesTotal.WithLabelValues("ok").Inc()

	if a.cache != nil && a.cacheEligible(payload) {
		if err := a.cache.WriteAnalysis(ctx, payload, expanded); err != nil {
			log.Printf("cache write failed for game %s: %v", gameID, err)
		}
	}
	return payload, nil
}

// analyze fetches the three feeds concurrently and runs the engine.
// Only the play-by-play is required; probability feeds degrade to the
// unfiltered view when they fail.
func (a *Analyzer) analyze(ctx context.Context, gameID string, expanded bool) (*models.AnalysisPayload, error) {
	var (
		wg sync.WaitGroup

		game    *models.GamePackage
		gameErr error

		samples    []models.ProbabilitySample
		samplesErr error

		pregame    models.PregameProbability
		pregameErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		game, gameErr = a.provider.FetchPlayByPlay(ctx, gameID)
		observeFeed("playbyplay", gameErr)
	}()
	go func() {
		defer wg.Done()
		samples, samplesErr = a.provider.FetchProbabilities(ctx, gameID)
		observeFeed("probabilities", samplesErr)
	}()
	go func() {
		defer wg.Done()
		pregame, pregameErr = a.provider.FetchPregameWinProbability(ctx, gameID)
		observeFeed("summary", pregameErr)
	}()
	wg.Wait()

	if gameErr != nil {
		return nil, fmt.Errorf("analyze game %s: %w", gameID, gameErr)
	}
	if samplesErr != nil {
		log.Printf("probability feed unavailable for game %s: %v", gameID, samplesErr)
		samples = nil
	}
	if pregameErr != nil {
		log.Printf("pregame probability unavailable for game %s: %v", gameID, pregameErr)
		pregame = models.EvenPregame()
	}

	index := analysis.NewIndex(samples, pregame)
	stats, err := analysis.ProcessGame(game, index, analysis.Options{
		Expanded:  expanded,
		Threshold: a.threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze game %s: %w", gameID, err)
	}

	return a.assemblePayload(gameID, game, stats, expanded), nil
}

func observeFeed(feed string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.ProviderRequestsTotal.WithLabelValues(feed, outcome).Inc()
}

// PublishFinal pushes a final game's payload to the stream. No-op for
// games still in progress.
func (a *Analyzer) PublishFinal(ctx context.Context, payload *models.AnalysisPayload) error {
	if a.publisher == nil || payload.Status != "post" {
		return nil
	}
	return a.publisher.PublishAnalysis(ctx, payload)
}

// Scoreboard returns the league scoreboard, cached briefly between
// calls.
func (a *Analyzer) Scoreboard(ctx context.Context, week, seasonType int) (*models.Scoreboard, error) {
	if a.cache != nil {
		board, err := a.cache.ReadScoreboard(ctx, week, seasonType)
		if err != nil {
			log.Printf("scoreboard cache read failed: %v", err)
		}
		if board != nil {
			return board, nil
		}
	}

	board, err := a.provider.FetchScoreboard(ctx, week, seasonType)
	observeFeed("scoreboard", err)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.WriteScoreboard(ctx, week, seasonType, board); err != nil {
			log.Printf("scoreboard cache write failed: %v", err)
		}
	}
	return board, nil
}

// cacheEligible holds caching back until a game is final and the
// provider's post-game stat corrections have had time to land.
func (a *Analyzer) cacheEligible(payload *models.AnalysisPayload) bool {
	if payload.Status != "post" {
		return false
	}
	if a.completionDelay <= 0 || payload.LastPlayTime == "" {
		return true
	}
	lastPlay, err := time.Parse(time.RFC3339, payload.LastPlayTime)
	if err != nil {
		return true
	}
	return time.Since(lastPlay) >= a.completionDelay
}

func (a *Analyzer) assemblePayload(gameID string, game *models.GamePackage, stats *models.GameStats, expanded bool) *models.AnalysisPayload {
	payload := &models.AnalysisPayload{
		GameID: gameID,
		WPFilter: models.WPFilter{
			Enabled:   true,
			Threshold: a.threshold,
			Description: fmt.Sprintf("Filtered tables exclude plays after either team's win probability exceeded %.1f%%",
				a.threshold*100),
		},
		AdvancedTable:     stats.Competitive.Rows,
		AdvancedTableFull: stats.Full.Rows,
		Diagnostics:       stats.Diagnostics,
	}
	for _, r := range stats.Competitive.Rows {
		payload.SummaryTable = append(payload.SummaryTable, r.Summary())
	}
	for _, r := range stats.Full.Rows {
		payload.SummaryTableFull = append(payload.SummaryTableFull, r.Summary())
	}
	if expanded {
		payload.ExpandedDetails = stats.Competitive.Details
		payload.ExpandedDetailsFull = stats.Full.Details
	}

	fillGameContext(payload, game)
	payload.Analysis = buildAnalysisText(stats.Competitive.Rows)
	return payload
}

// fillGameContext copies identity, status, and clock information from
// the payload header.
func fillGameContext(payload *models.AnalysisPayload, game *models.GamePackage) {
	var home, away *models.Competitor
	for i := range game.Header.Competitions {
		comp := &game.Header.Competitions[i]
		payload.Status = comp.Status.Type.State
		if comp.Status.Type.State == "in" {
			payload.GameClock = &models.GameClock{
				Quarter:      comp.Status.Period,
				Clock:        comp.Status.DisplayClock,
				DisplayValue: fmt.Sprintf("Q%d %s", comp.Status.Period, comp.Status.DisplayClock),
			}
		}
		for j := range comp.Competitors {
			c := &comp.Competitors[j]
			meta := models.TeamMeta{
				ID:       c.Team.ID,
				Abbr:     c.Team.Abbreviation,
				Name:     c.Team.DisplayName,
				HomeAway: c.HomeAway,
			}
			if meta.ID == "" {
				meta.ID = c.ID
			}
			payload.TeamMeta = append(payload.TeamMeta, meta)
			switch c.HomeAway {
			case "home":
				home = c
			case "away":
				away = c
			}
		}
	}
	if home != nil && away != nil {
		payload.Label = fmt.Sprintf("%s @ %s", away.Team.Abbreviation, home.Team.Abbreviation)
	}

	drives := game.AllDrives()
	for i := len(drives) - 1; i >= 0 && payload.LastPlayTime == ""; i-- {
		for j := len(drives[i].Plays) - 1; j >= 0; j-- {
			p := &drives[i].Plays[j]
			if p.Wallclock != "" {
				payload.LastPlayTime = p.Wallclock
				break
			}
			if p.Modified != "" {
				payload.LastPlayTime = p.Modified
				break
			}
		}
	}
}

// buildAnalysisText renders a short human-readable readout of the
// competitive tables: efficiency edge, explosives, and the turnover
// battle.
func buildAnalysisText(rows []models.TeamStatRow) string {
	if len(rows) != 2 {
		return ""
	}
	sorted := make([]models.TeamStatRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SuccessRate > sorted[j].SuccessRate })
	leader, trailer := sorted[0], sorted[1]

	var parts []string
	if leader.SuccessRate > trailer.SuccessRate {
		parts = append(parts, fmt.Sprintf("%s leads in efficiency (%.1f%% vs %.1f%% success rate)",
			leader.Team, leader.SuccessRate*100, trailer.SuccessRate*100))
	} else {
		parts = append(parts, fmt.Sprintf("%s and %s are even in efficiency (%.1f%% success rate)",
			leader.Team, trailer.Team, leader.SuccessRate*100))
	}

	if leader.ExplosivePlays != trailer.ExplosivePlays {
		eLeader, eTrailer := leader, trailer
		if eTrailer.ExplosivePlays > eLeader.ExplosivePlays {
			eLeader, eTrailer = eTrailer, eLeader
		}
		parts = append(parts, fmt.Sprintf("%s has the explosive edge (%d to %d)",
			eLeader.Team, eLeader.ExplosivePlays, eTrailer.ExplosivePlays))
	}

	for _, r := range rows {
		if r.TurnoverMargin > 0 {
			parts = append(parts, fmt.Sprintf("%s is +%d in the turnover battle", r.Team, r.TurnoverMargin))
			break
		}
	}

	return strings.Join(parts, ". ") + "."
}

package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/store"
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
)

// Analyzer is the analysis surface the poller drives.
type Analyzer interface {
	AnalyzeGame(ctx context.Context, gameID string, expanded bool) (*models.AnalysisPayload, error)
	PublishFinal(ctx context.Context, payload *models.AnalysisPayload) error
	Scoreboard(ctx context.Context, week, seasonType int) (*models.Scoreboard, error)
}

// Broadcaster pushes fresh payloads to connected clients.
type Broadcaster interface {
	Broadcast(payload *models.AnalysisPayload)
}

// Archive persists final stat rows. May be nil when no database is
// configured.
type Archive interface {
	UpsertGameRows(ctx context.Context, game store.GameKey, variant string, rows []models.TeamStatRow) error
}

// trackedGame is the poller's view of one scoreboard game.
type trackedGame struct {
	key      store.GameKey
	state    string
	archived bool
}

// Poller discovers games from the scoreboard and keeps live games
// re-analyzed until they finish.
type Poller struct {
	analyzer  Analyzer
	hub       Broadcaster
	archive   Archive
	boardTick time.Duration
	liveTick  time.Duration

	mu    sync.Mutex
	games map[string]*trackedGame
}

// NewPoller creates a poller. hub and archive may be nil.
func NewPoller(analyzer Analyzer, hub Broadcaster, archive Archive, boardInterval, liveInterval time.Duration) *Poller {
	if boardInterval <= 0 {
		boardInterval = 5 * time.Minute
	}
	if liveInterval <= 0 {
		liveInterval = 30 * time.Second
	}
	return &Poller{
		analyzer:  analyzer,
		hub:       hub,
		archive:   archive,
		boardTick: boardInterval,
		liveTick:  liveInterval,
		games:     make(map[string]*trackedGame),
	}
}

// Run starts the polling loop. Blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	log.Printf("Starting poller (scoreboard every %s, live games every %s)", p.boardTick, p.liveTick)

	boardTicker := time.NewTicker(p.boardTick)
	liveTicker := time.NewTicker(p.liveTick)
	defer boardTicker.Stop()
	defer liveTicker.Stop()

	p.discover(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping poller")
			return
		case <-boardTicker.C:
			p.discover(ctx)
		case <-liveTicker.C:
			p.pollLive(ctx)
		}
	}
}

// discover refreshes the tracked game set from the current scoreboard.
func (p *Poller) discover(ctx context.Context) {
	board, err := p.analyzer.Scoreboard(ctx, 0, 0)
	if err != nil {
		log.Printf("Error fetching scoreboard: %v", err)
		metrics.PollCyclesTotal.WithLabelValues("error").Inc()
		return
	}

	var finals []string

	p.mu.Lock()
	for _, event := range board.Events {
		g, ok := p.games[event.ID]
		if !ok {
			g = &trackedGame{
				key: store.GameKey{
					GameID:     event.ID,
					Season:     board.Season.Year,
					Week:       board.Week.Number,
					SeasonType: board.Season.Type,
				},
			}
			p.games[event.ID] = g
			log.Printf("Tracking game %s (%s)", event.ID, event.ShortName)
		}
		g.state = event.Status.Type.State
		if g.state == "post" && !g.archived {
			finals = append(finals, event.ID)
		}
	}
	p.mu.Unlock()

	for _, gameID := range finals {
		p.finalize(ctx, gameID)
	}

	metrics.PollCyclesTotal.WithLabelValues("success").Inc()
}

// pollLive re-analyzes every in-progress game and broadcasts the result.
func (p *Poller) pollLive(ctx context.Context) {
	p.mu.Lock()
	var live []string
	for id, g := range p.games {
		if g.state == "in" {
			live = append(live, id)
		}
	}
	p.mu.Unlock()

	for _, gameID := range live {
		payload, err := p.analyzer.AnalyzeGame(ctx, gameID, false)
		if err != nil {
			log.Printf("Error analyzing live game %s: %v", gameID, err)
			metrics.PollCyclesTotal.WithLabelValues("error").Inc()
			continue
		}

		if p.hub != nil {
			p.hub.Broadcast(payload)
		}

		// The play-by-play feed can show a final before the
		// scoreboard does.
		if payload.Status == "post" {
			p.markState(gameID, "post")
			p.finalize(ctx, gameID)
		}
	}
}

// finalize runs the closing analysis for a finished game: broadcast,
// publish to the stream, and archive both stat variants.
func (p *Poller) finalize(ctx context.Context, gameID string) {
	p.mu.Lock()
	g, ok := p.games[gameID]
	if !ok || g.archived {
		p.mu.Unlock()
		return
	}
	key := g.key
	p.mu.Unlock()

	payload, err := p.analyzer.AnalyzeGame(ctx, gameID, false)
	if err != nil {
		log.Printf("Error analyzing final game %s: %v", gameID, err)
		metrics.PollCyclesTotal.WithLabelValues("error").Inc()
		return
	}

	if p.hub != nil {
		p.hub.Broadcast(payload)
	}

	if err := p.analyzer.PublishFinal(ctx, payload); err != nil {
		log.Printf("Error publishing final for game %s: %v", gameID, err)
	}

	if p.archive != nil {
		if err := p.archive.UpsertGameRows(ctx, key, "competitive", payload.AdvancedTable); err != nil {
			log.Printf("Error archiving competitive rows for game %s: %v", gameID, err)
			return
		}
		if err := p.archive.UpsertGameRows(ctx, key, "full", payload.AdvancedTableFull); err != nil {
			log.Printf("Error archiving full rows for game %s: %v", gameID, err)
			return
		}
	}

	p.mu.Lock()
	g.archived = true
	p.mu.Unlock()

	log.Printf("Finalized game %s", gameID)
}

func (p *Poller) markState(gameID, state string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if g, ok := p.games[gameID]; ok {
		g.state = state
	}
}

// TrackedGames returns the IDs currently being tracked.
func (p *Poller) TrackedGames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.games))
	for id := range p.games {
		ids = append(ids, id)
	}
	return ids
}

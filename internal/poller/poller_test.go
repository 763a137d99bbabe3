package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/store"
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
)

type mockAnalyzer struct {
	mu        sync.Mutex
	board     *models.Scoreboard
	boardErr  error
	payloads  map[string]*models.AnalysisPayload
	analyzed  []string
	published []string
}

func (m *mockAnalyzer) AnalyzeGame(ctx context.Context, gameID string, expanded bool) (*models.AnalysisPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyzed = append(m.analyzed, gameID)
	payload, ok := m.payloads[gameID]
	if !ok {
		return nil, errors.New("no payload for " + gameID)
	}
	return payload, nil
}

func (m *mockAnalyzer) PublishFinal(ctx context.Context, payload *models.AnalysisPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, payload.GameID)
	return nil
}

func (m *mockAnalyzer) Scoreboard(ctx context.Context, week, seasonType int) (*models.Scoreboard, error) {
	return m.board, m.boardErr
}

func (m *mockAnalyzer) analyzeCount(gameID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range m.analyzed {
		if id == gameID {
			n++
		}
	}
	return n
}

type mockHub struct {
	mu       sync.Mutex
	payloads []*models.AnalysisPayload
}

func (m *mockHub) Broadcast(payload *models.AnalysisPayload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
}

type upsert struct {
	key     store.GameKey
	variant string
	rows    int
}

type mockArchive struct {
	mu      sync.Mutex
	upserts []upsert
	err     error
}

func (m *mockArchive) UpsertGameRows(ctx context.Context, game store.GameKey, variant string, rows []models.TeamStatRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.upserts = append(m.upserts, upsert{key: game, variant: variant, rows: len(rows)})
	return nil
}

func testBoard(states map[string]string) *models.Scoreboard {
	board := &models.Scoreboard{}
	board.Week.Number = 15
	board.Season.Year = 2025
	board.Season.Type = 2
	for id, state := range states {
		event := models.ScoreboardEvent{ID: id, ShortName: "WSH @ PHI"}
		event.Status.Type.State = state
		board.Events = append(board.Events, event)
	}
	return board
}

func TestDiscoverTracksGames(t *testing.T) {
	analyzer := &mockAnalyzer{
		board:    testBoard(map[string]string{"401": "pre", "402": "in"}),
		payloads: map[string]*models.AnalysisPayload{},
	}
	p := NewPoller(analyzer, nil, nil, time.Minute, time.Second)

	p.discover(context.Background())

	if n := len(p.TrackedGames()); n != 2 {
		t.Fatalf("tracked %d games, want 2", n)
	}
	if len(analyzer.analyzed) != 0 {
		t.Errorf("discovery should not analyze pre/live games, got %v", analyzer.analyzed)
	}
}

func TestDiscoverFinalizesOnce(t *testing.T) {
	analyzer := &mockAnalyzer{
		board: testBoard(map[string]string{"401": "post"}),
		payloads: map[string]*models.AnalysisPayload{
			"401": {
				GameID:            "401",
				Status:            "post",
				AdvancedTable:     []models.TeamStatRow{{Team: "PHI"}, {Team: "WSH"}},
				AdvancedTableFull: []models.TeamStatRow{{Team: "PHI"}, {Team: "WSH"}},
			},
		},
	}
	hub := &mockHub{}
	archive := &mockArchive{}
	p := NewPoller(analyzer, hub, archive, time.Minute, time.Second)

	p.discover(context.Background())
	p.discover(context.Background())

	if n := analyzer.analyzeCount("401"); n != 1 {
		t.Errorf("final game analyzed %d times, want 1", n)
	}
	if len(analyzer.published) != 1 || analyzer.published[0] != "401" {
		t.Errorf("published = %v", analyzer.published)
	}
	if len(hub.payloads) != 1 {
		t.Errorf("broadcasts = %d, want 1", len(hub.payloads))
	}

	if len(archive.upserts) != 2 {
		t.Fatalf("upserts = %d, want 2", len(archive.upserts))
	}
	first := archive.upserts[0]
	if first.variant != "competitive" || first.rows != 2 {
		t.Errorf("first upsert = %+v", first)
	}
	if first.key.Season != 2025 || first.key.Week != 15 || first.key.SeasonType != 2 {
		t.Errorf("game key = %+v", first.key)
	}
	if archive.upserts[1].variant != "full" {
		t.Errorf("second upsert variant = %s", archive.upserts[1].variant)
	}
}

func TestPollLiveBroadcasts(t *testing.T) {
	analyzer := &mockAnalyzer{
		board: testBoard(map[string]string{"402": "in"}),
		payloads: map[string]*models.AnalysisPayload{
			"402": {GameID: "402", Status: "in"},
		},
	}
	hub := &mockHub{}
	p := NewPoller(analyzer, hub, nil, time.Minute, time.Second)

	p.discover(context.Background())
	p.pollLive(context.Background())
	p.pollLive(context.Background())

	if n := analyzer.analyzeCount("402"); n != 2 {
		t.Errorf("live game analyzed %d times, want 2", n)
	}
	if len(hub.payloads) != 2 {
		t.Errorf("broadcasts = %d, want 2", len(hub.payloads))
	}
	if len(analyzer.published) != 0 {
		t.Errorf("live game should not publish finals, got %v", analyzer.published)
	}
}

func TestPollLiveDetectsFinal(t *testing.T) {
	analyzer := &mockAnalyzer{
		board: testBoard(map[string]string{"402": "in"}),
		payloads: map[string]*models.AnalysisPayload{
			"402": {GameID: "402", Status: "post"},
		},
	}
	p := NewPoller(analyzer, nil, nil, time.Minute, time.Second)

	p.discover(context.Background())
	p.pollLive(context.Background())

	if len(analyzer.published) != 1 {
		t.Fatalf("published = %v, want final for 402", analyzer.published)
	}

	// No longer live, so the next cycle does nothing
	before := analyzer.analyzeCount("402")
	p.pollLive(context.Background())
	if analyzer.analyzeCount("402") != before {
		t.Error("finalized game still polled as live")
	}
}

func TestFinalizeRetriesAfterArchiveError(t *testing.T) {
	analyzer := &mockAnalyzer{
		board: testBoard(map[string]string{"401": "post"}),
		payloads: map[string]*models.AnalysisPayload{
			"401": {GameID: "401", Status: "post"},
		},
	}
	archive := &mockArchive{err: errors.New("db down")}
	p := NewPoller(analyzer, nil, archive, time.Minute, time.Second)

	p.discover(context.Background())
	if analyzer.analyzeCount("401") != 1 {
		t.Fatal("expected finalize attempt")
	}

	// Archive recovered, next scoreboard pass retries
	archive.mu.Lock()
	archive.err = nil
	archive.mu.Unlock()

	p.discover(context.Background())
	if analyzer.analyzeCount("401") != 2 {
		t.Error("finalize not retried after archive failure")
	}
	if len(archive.upserts) != 2 {
		t.Errorf("upserts = %d, want 2", len(archive.upserts))
	}
}

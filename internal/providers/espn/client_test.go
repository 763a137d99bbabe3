package espn

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(srv *httptest.Server) *Client {
	return &Client{
		httpClient: srv.Client(),
		userAgent:  "test",
		siteBase:   srv.URL,
		cdnBase:    srv.URL,
		coreBase:   srv.URL,
	}
}

func TestFetchPlayByPlayUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/playbyplay" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("xhr") != "1" || r.URL.Query().Get("gameId") != "401671234" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("rand") == "" {
			t.Error("cache buster missing")
		}
		fmt.Fprint(w, `{"gamepackageJSON":{"drives":{"previous":[{"team":{"id":"21"},"plays":[{"id":"p1","text":"test play"}]}]}}}`)
	}))
	defer srv.Close()

	game, err := testClient(srv).FetchPlayByPlay(context.Background(), "401671234")
	if err != nil {
		t.Fatal(err)
	}
	if len(game.Drives.Previous) != 1 || game.Drives.Previous[0].Plays[0].ID != "p1" {
		t.Errorf("unexpected payload: %+v", game.Drives)
	}
}

func TestFetchProbabilitiesFollowsPagination(t *testing.T) {
	var pagesServed []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pagesServed = append(pagesServed, page)
		switch page {
		case "1":
			fmt.Fprint(w, `{"pageIndex":1,"pageCount":2,"items":[
				{"play":{"$ref":"http://x/plays/101?lang=en"},"homeWinPercentage":0.6,"awayWinPercentage":0.4}
			]}`)
		case "2":
			fmt.Fprint(w, `{"pageIndex":2,"pageCount":2,"items":[
				{"play":{"$ref":"http://x/plays/102"},"homeWinPercentage":0.7,"awayWinPercentage":0.3,"tiePercentage":0}
			]}`)
		default:
			t.Errorf("unexpected page %q", page)
		}
	}))
	defer srv.Close()

	samples, err := testClient(srv).FetchProbabilities(context.Background(), "401671234")
	if err != nil {
		t.Fatal(err)
	}
	if len(pagesServed) != 2 {
		t.Fatalf("pages served = %v, want both", pagesServed)
	}
	if len(samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(samples))
	}
	if samples[0].PlayID != "101" || samples[1].PlayID != "102" {
		t.Errorf("play ids = %s/%s, want 101/102", samples[0].PlayID, samples[1].PlayID)
	}
	if samples[1].HomeWinPercentage != 0.7 {
		t.Errorf("home wp = %v, want 0.7", samples[1].HomeWinPercentage)
	}
}

func TestFetchProbabilitiesEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pageIndex":1,"pageCount":1,"items":[]}`)
	}))
	defer srv.Close()

	samples, err := testClient(srv).FetchProbabilities(context.Background(), "401671234")
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 0 {
		t.Errorf("samples = %d, want none", len(samples))
	}
}

func TestFetchPregameWinProbability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("event") != "401671234" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"winprobability":[{"homeWinPercentage":0.62},{"homeWinPercentage":0.65}]}`)
	}))
	defer srv.Close()

	pregame, err := testClient(srv).FetchPregameWinProbability(context.Background(), "401671234")
	if err != nil {
		t.Fatal(err)
	}
	if pregame.Home != 0.62 || pregame.Away != 0.38 {
		t.Errorf("pregame = %+v, want 0.62/0.38", pregame)
	}
}

func TestFetchPregameWinProbabilityAbsentDefaultsEven(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"winprobability":[]}`)
	}))
	defer srv.Close()

	pregame, err := testClient(srv).FetchPregameWinProbability(context.Background(), "401671234")
	if err != nil {
		t.Fatal(err)
	}
	if pregame.Home != 0.5 || pregame.Away != 0.5 {
		t.Errorf("pregame = %+v, want even", pregame)
	}
}

func TestFetchScoreboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("week") != "5" || r.URL.Query().Get("seasontype") != "2" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"week":{"number":5},"season":{"type":2,"year":2025},"events":[{"id":"401671234","shortName":"WSH @ PHI"}]}`)
	}))
	defer srv.Close()

	board, err := testClient(srv).FetchScoreboard(context.Background(), 5, 2)
	if err != nil {
		t.Fatal(err)
	}
	if board.Week.Number != 5 || len(board.Events) != 1 {
		t.Errorf("board = %+v", board)
	}
	if board.Events[0].ID != "401671234" {
		t.Errorf("event id = %s", board.Events[0].ID)
	}
}

func TestFetchSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv).FetchPlayByPlay(context.Background(), "401671234")
	if err == nil {
		t.Fatal("no error for 502")
	}
	if !strings.Contains(err.Error(), "status=502") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestPlayIDFromRef(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"http://x/plays/4016712341?lang=en", "4016712341"},
		{"http://x/plays/4016712341", "4016712341"},
		{"http://x/plays/4016712341/", "4016712341"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := playIDFromRef(tt.ref); got != tt.want {
			t.Errorf("playIDFromRef(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

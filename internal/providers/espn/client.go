package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
)

const (
	defaultSiteBase = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"
	defaultCdnBase  = "https://cdn.espn.com/core/nfl"
	defaultCoreBase = "https://sports.core.api.espn.com/v2/sports/football/leagues/nfl"

	// The cdn endpoint rejects obvious bot agents, so the client
	// presents a regular browser string.
	browserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

	probabilityPageSize = 300
)

// Client handles ESPN NFL API requests across the site, cdn, and core
// hosts.
type Client struct {
	httpClient *http.Client
	userAgent  string

	siteBase string
	cdnBase  string
	coreBase string
}

// New creates a new ESPN API client
func New() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent: browserAgent,
		siteBase:  defaultSiteBase,
		cdnBase:   defaultCdnBase,
		coreBase:  defaultCoreBase,
	}
}

// FetchPlayByPlay fetches the full play-by-play package for a game.
// The cdn wraps the payload in an envelope and caches aggressively, so
// the request carries a nanosecond cache buster.
func (c *Client) FetchPlayByPlay(ctx context.Context, gameID string) (*models.GamePackage, error) {
	url := fmt.Sprintf("%s/playbyplay?xhr=1&gameId=%s&rand=%d", c.cdnBase, gameID, time.Now().UnixNano())

	var envelope struct {
		Gamepackage models.GamePackage `json:"gamepackageJSON"`
	}
	if err := c.fetch(ctx, url, &envelope); err != nil {
		return nil, fmt.Errorf("fetching play-by-play for game %s: %w", gameID, err)
	}
	return &envelope.Gamepackage, nil
}

// probabilityItem is one reading of the paginated probabilities feed.
// The play is referenced by URL only; its id is the last path segment.
type probabilityItem struct {
	Play struct {
		Ref string `json:"$ref"`
	} `json:"play"`
	HomeWinPercentage float64 `json:"homeWinPercentage"`
	AwayWinPercentage float64 `json:"awayWinPercentage"`
	TiePercentage     float64 `json:"tiePercentage"`
}

type probabilityPage struct {
	PageIndex int               `json:"pageIndex"`
	PageCount int               `json:"pageCount"`
	Items     []probabilityItem `json:"items"`
}

// FetchProbabilities fetches every win-probability sample for a game,
// following the feed's pagination. Games without a probability model
// return an empty slice, not an error.
func (c *Client) FetchProbabilities(ctx context.Context, gameID string) ([]models.ProbabilitySample, error) {
	var samples []models.ProbabilitySample
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/events/%s/competitions/%s/probabilities?limit=%d&page=%d",
			c.coreBase, gameID, gameID, probabilityPageSize, page)

		var body probabilityPage
		if err := c.fetch(ctx, url, &body); err != nil {
			return nil, fmt.Errorf("fetching probabilities page %d for game %s: %w", page, gameID, err)
		}
		for _, item := range body.Items {
			playID := playIDFromRef(item.Play.Ref)
			if playID == "" {
				continue
			}
			samples = append(samples, models.ProbabilitySample{
				PlayID:            playID,
				HomeWinPercentage: item.HomeWinPercentage,
				AwayWinPercentage: item.AwayWinPercentage,
				TiePercentage:     item.TiePercentage,
			})
		}
		if page >= body.PageCount {
			break
		}
	}
	return samples, nil
}

// FetchPregameWinProbability fetches the model's pregame reading from
// the game summary. Games without one get the even default.
func (c *Client) FetchPregameWinProbability(ctx context.Context, gameID string) (models.PregameProbability, error) {
	url := fmt.Sprintf("%s/summary?event=%s", c.siteBase, gameID)

	var body struct {
		WinProbability []struct {
			HomeWinPercentage float64 `json:"homeWinPercentage"`
		} `json:"winprobability"`
	}
	if err := c.fetch(ctx, url, &body); err != nil {
		return models.PregameProbability{}, fmt.Errorf("fetching summary for game %s: %w", gameID, err)
	}
	if len(body.WinProbability) == 0 {
		return models.EvenPregame(), nil
	}
	home := body.WinProbability[0].HomeWinPercentage
	return models.PregameProbability{Home: home, Away: 1 - home}, nil
}

// FetchScoreboard fetches the league scoreboard. Zero week/seasonType
// fetch whatever the provider considers current.
func (c *Client) FetchScoreboard(ctx context.Context, week, seasonType int) (*models.Scoreboard, error) {
	url := fmt.Sprintf("%s/scoreboard", c.siteBase)
	if week > 0 && seasonType > 0 {
		url = fmt.Sprintf("%s?week=%d&seasontype=%d", url, week, seasonType)
	}

	var board models.Scoreboard
	if err := c.fetch(ctx, url, &board); err != nil {
		return nil, fmt.Errorf("fetching scoreboard: %w", err)
	}
	return &board, nil
}

// fetch makes an HTTP GET request and decodes the JSON response into out
func (c *Client) fetch(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ESPN API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// playIDFromRef extracts the play id from a $ref URL like
// ".../plays/4016712341?lang=en".
func playIDFromRef(ref string) string {
	if ref == "" {
		return ""
	}
	if i := strings.IndexByte(ref, '?'); i >= 0 {
		ref = ref[:i]
	}
	ref = strings.TrimRight(ref, "/")
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

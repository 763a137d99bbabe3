package models

// Types for the ESPN NFL play-by-play payload ("gamepackageJSON").
// Field names mirror the provider's JSON so the whole package decodes
// directly; the analysis engine only reads from these, it never mutates
// a payload.

// TeamRef identifies a team inside a play, drive, or scoring play.
type TeamRef struct {
	ID           string `json:"id,omitempty"`
	Abbreviation string `json:"abbreviation,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
}

// Period holds the quarter (5+ means overtime).
type Period struct {
	Number int `json:"number"`
}

// Clock is the display clock at the snap.
type Clock struct {
	DisplayValue string `json:"displayValue"`
}

// PlayType is the provider's free-form play category text,
// e.g. "Pass Reception", "Rush", "Fumble Recovery (Opponent)".
type PlayType struct {
	Text string `json:"text"`
}

// Situation describes the ball at the start or end of a play.
// YardsToEndzone is a pointer because 0 (goal line) and absent must be
// distinguishable.
type Situation struct {
	Down             int     `json:"down,omitempty"`
	Distance         int     `json:"distance,omitempty"`
	YardsToEndzone   *int    `json:"yardsToEndzone,omitempty"`
	Team             TeamRef `json:"team,omitempty"`
	PossessionText   string  `json:"possessionText,omitempty"`
	DownDistanceText string  `json:"downDistanceText,omitempty"`
}

// PenaltySlug is a typed penalty attribute ({slug, text} pairs).
type PenaltySlug struct {
	Slug string `json:"slug,omitempty"`
	Text string `json:"text,omitempty"`
}

// PenaltyInfo is the structured penalty block ESPN attaches to some
// penalty plays. Often absent even when the play text mentions one.
type PenaltyInfo struct {
	Team   TeamRef      `json:"team,omitempty"`
	Yards  int          `json:"yards,omitempty"`
	Type   *PenaltySlug `json:"type,omitempty"`
	Status *PenaltySlug `json:"status,omitempty"`
}

// PlayStatType identifies a statistic credited on a play (e.g. passing
// yards, rushing attempt). The classifier uses these as typed hints
// before falling back to text matching.
type PlayStatType struct {
	Text         string `json:"text,omitempty"`
	Abbreviation string `json:"abbreviation,omitempty"`
}

// PlayStat is one statistics entry on a play.
type PlayStat struct {
	Type PlayStatType `json:"type"`
}

// Play is one snap or special-teams event.
type Play struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Type        PlayType     `json:"type"`
	StatYardage int          `json:"statYardage"`
	Period      Period       `json:"period"`
	Clock       Clock        `json:"clock"`
	Start       Situation    `json:"start"`
	End         Situation    `json:"end"`
	Team        TeamRef      `json:"team,omitempty"`
	ScoringPlay bool         `json:"scoringPlay,omitempty"`
	ScoreValue  int          `json:"scoreValue,omitempty"`
	Penalty     *PenaltyInfo `json:"penalty,omitempty"`
	HasPenalty  bool         `json:"hasPenalty,omitempty"`
	Statistics  []PlayStat   `json:"statistics,omitempty"`
	HomeScore   int          `json:"homeScore,omitempty"`
	AwayScore   int          `json:"awayScore,omitempty"`
	Wallclock   string       `json:"wallclock,omitempty"`
	Modified    string       `json:"modified,omitempty"`
}

// DriveBoundary is the start (or end) block of a drive.
type DriveBoundary struct {
	YardsToEndzone *int   `json:"yardsToEndzone,omitempty"`
	Text           string `json:"text,omitempty"`
	YardLine       string `json:"yardLine,omitempty"`
}

// Drive is one team's possession: an ordered list of plays.
type Drive struct {
	Team   TeamRef       `json:"team"`
	Start  DriveBoundary `json:"start"`
	Result string        `json:"result,omitempty"`
	Plays  []Play        `json:"plays"`
}

// Drives splits completed possessions from the in-progress one.
type Drives struct {
	Previous []Drive `json:"previous"`
	Current  *Drive  `json:"current,omitempty"`
}

// ScoringPlay is one entry of the game-level scoring ledger. Home/away
// scores are running totals after the play, which is how per-play point
// values are recovered.
type ScoringPlay struct {
	ID          string       `json:"id"`
	Team        TeamRef      `json:"team"`
	HomeScore   int          `json:"homeScore"`
	AwayScore   int          `json:"awayScore"`
	Text        string       `json:"text,omitempty"`
	Type        PlayType     `json:"type,omitempty"`
	ScoringType *PenaltySlug `json:"scoringType,omitempty"`
	Period      Period       `json:"period,omitempty"`
	Clock       Clock        `json:"clock,omitempty"`
}

// TeamStatEntry is a boxscore team statistic like "totalPenaltiesYards"
// with a displayValue of the form "7-65".
type TeamStatEntry struct {
	Name         string `json:"name"`
	DisplayValue string `json:"displayValue"`
}

// BoxscoreTeam carries team identity plus its boxscore statistics.
type BoxscoreTeam struct {
	Team       TeamRef         `json:"team"`
	Statistics []TeamStatEntry `json:"statistics,omitempty"`
}

// Boxscore holds the per-team boxscore blocks.
type Boxscore struct {
	Teams []BoxscoreTeam `json:"teams"`
}

// Competitor is one side of the header competition. Score is a string
// in the provider payload.
type Competitor struct {
	ID       string  `json:"id"`
	HomeAway string  `json:"homeAway"`
	Score    string  `json:"score,omitempty"`
	Team     TeamRef `json:"team"`
}

// CompetitionStatus mirrors the header status block.
type CompetitionStatus struct {
	Period       int    `json:"period,omitempty"`
	DisplayClock string `json:"displayClock,omitempty"`
	Type         struct {
		State     string `json:"state,omitempty"`
		Completed bool   `json:"completed,omitempty"`
	} `json:"type"`
}

// Competition is the header's game record.
type Competition struct {
	Competitors []Competitor      `json:"competitors"`
	Status      CompetitionStatus `json:"status"`
}

// Header wraps the competitions list.
type Header struct {
	Competitions []Competition `json:"competitions"`
}

// GamePackage is the full play-by-play payload for one game.
type GamePackage struct {
	Header       Header        `json:"header"`
	Boxscore     Boxscore      `json:"boxscore"`
	Drives       Drives        `json:"drives"`
	ScoringPlays []ScoringPlay `json:"scoringPlays,omitempty"`
}

// AllDrives returns completed drives followed by the in-progress drive,
// which is how live games expose their most recent plays.
func (g *GamePackage) AllDrives() []Drive {
	if g.Drives.Current == nil {
		return g.Drives.Previous
	}
	out := make([]Drive, 0, len(g.Drives.Previous)+1)
	out = append(out, g.Drives.Previous...)
	out = append(out, *g.Drives.Current)
	return out
}

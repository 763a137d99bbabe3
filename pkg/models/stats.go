package models

// Output models produced by the analysis engine. These are the sole
// contract with renderers and API consumers: rates are 0..1 floats
// (never pre-multiplied), field position strings use the "Own N" /
// "Opp N" convention.

// Expanded detail category names, keyed exactly as consumers see them.
const (
	CategoryTurnovers          = "Turnovers"
	CategoryExplosivePlays     = "Explosive Plays"
	CategoryNonOffensiveScores = "Non-Offensive Scores"
	CategoryNonOffensivePoints = "Non-Offensive Points"
	CategoryPointsPerTrip      = "Points Per Trip (Inside 40)"
	CategoryPenaltyYards       = "Penalty Yards"
	CategoryDriveStarts        = "Drive Starts"
	CategoryAllPlays           = "All Plays"
)

// DetailCategories lists every category in display order.
var DetailCategories = []string{
	CategoryTurnovers,
	CategoryExplosivePlays,
	CategoryNonOffensiveScores,
	CategoryNonOffensivePoints,
	CategoryPointsPerTrip,
	CategoryPenaltyYards,
	CategoryDriveStarts,
}

// TeamStatRow is one team's aggregated line for a single game.
type TeamStatRow struct {
	Team               string  `json:"team"`
	Score              int     `json:"score"`
	Plays              int     `json:"plays"`
	Turnovers          int     `json:"turnovers"`
	TotalYards         int     `json:"totalYards"`
	YardsPerPlay       float64 `json:"yardsPerPlay"`
	SuccessRate        float64 `json:"successRate"`
	ExplosivePlays     int     `json:"explosivePlays"`
	ExplosivePlayRate  float64 `json:"explosivePlayRate"`
	PointsPerTrip      float64 `json:"pointsPerTrip"`
	AvgStartFieldPos   string  `json:"avgStartFieldPos"`
	Drives             int     `json:"drives"`
	TurnoverMargin     int     `json:"turnoverMargin"`
	PointsPerDrive     float64 `json:"pointsPerDrive"`
	NetPunting         float64 `json:"netPunting"`
	NetKickoff         float64 `json:"netKickoff"`
	PenaltyCount       int     `json:"penaltyCount"`
	PenaltyYards       int     `json:"penaltyYards"`
	NonOffensivePoints int     `json:"nonOffensivePoints"`
}

// SummaryRow is the short scoreboard-style row.
type SummaryRow struct {
	Team       string `json:"team"`
	Score      int    `json:"score"`
	TotalYards int    `json:"totalYards"`
	Drives     int    `json:"drives"`
}

// Summary projects the stat row onto its scoreboard columns.
func (r TeamStatRow) Summary() SummaryRow {
	return SummaryRow{Team: r.Team, Score: r.Score, TotalYards: r.TotalYards, Drives: r.Drives}
}

// PlayDetail is one categorized play in the expanded output. The
// probability snapshot lets consumers rank entries by WP impact.
type PlayDetail struct {
	Type        string               `json:"type"`
	Text        string               `json:"text"`
	Yards       int                  `json:"yards,omitempty"`
	Points      int                  `json:"points,omitempty"`
	Quarter     int                  `json:"quarter,omitempty"`
	Clock       string               `json:"clock,omitempty"`
	StartPos    string               `json:"startPos,omitempty"`
	EndPos      string               `json:"endPos,omitempty"`
	Reason      string               `json:"reason,omitempty"`
	Probability *ProbabilitySnapshot `json:"probability,omitempty"`
}

// TeamDetails maps team id -> category -> detail entries.
type TeamDetails map[string]map[string][]PlayDetail

// VariantStats is one full view of a game: either the
// competitive-window variant or the unfiltered full-game variant.
type VariantStats struct {
	Rows    []TeamStatRow `json:"rows"`
	Details TeamDetails   `json:"details,omitempty"`
}

// Diagnostics counts data-quality problems absorbed during a run.
// Nonzero values mean partial results, never failure.
type Diagnostics struct {
	SkippedPlays       int `json:"skippedPlays"`
	SkippedDrives      int `json:"skippedDrives"`
	MissingProbability int `json:"missingProbability"`
}

// GameStats is the engine's result: both variants produced by the same
// single pass over drives and plays.
type GameStats struct {
	Competitive VariantStats `json:"competitive"`
	Full        VariantStats `json:"full"`
	Diagnostics Diagnostics  `json:"diagnostics"`
}

// TeamMeta identifies one team of the analyzed game.
type TeamMeta struct {
	ID       string `json:"id"`
	Abbr     string `json:"abbr"`
	Name     string `json:"name"`
	HomeAway string `json:"homeAway"`
}

// GameClock reports quarter/clock for in-progress games.
type GameClock struct {
	Quarter      int    `json:"quarter"`
	Clock        string `json:"clock"`
	DisplayValue string `json:"displayValue"`
}

// WPFilter documents the competitive-window cutoff applied to the
// filtered tables.
type WPFilter struct {
	Enabled     bool    `json:"enabled"`
	Threshold   float64 `json:"threshold"`
	Description string  `json:"description"`
}

// AnalysisPayload is the API response for one analyzed game.
type AnalysisPayload struct {
	GameID              string        `json:"gameId"`
	Label               string        `json:"label"`
	Status              string        `json:"status"`
	GameClock           *GameClock    `json:"gameClock,omitempty"`
	LastPlayTime        string        `json:"lastPlayTime,omitempty"`
	WPFilter            WPFilter      `json:"wpFilter"`
	TeamMeta            []TeamMeta    `json:"teamMeta"`
	SummaryTable        []SummaryRow  `json:"summaryTable"`
	AdvancedTable       []TeamStatRow `json:"advancedTable"`
	SummaryTableFull    []SummaryRow  `json:"summaryTableFull"`
	AdvancedTableFull   []TeamStatRow `json:"advancedTableFull"`
	ExpandedDetails     TeamDetails   `json:"expandedDetails,omitempty"`
	ExpandedDetailsFull TeamDetails   `json:"expandedDetailsFull,omitempty"`
	Diagnostics         Diagnostics   `json:"diagnostics"`
	Analysis            string        `json:"analysis,omitempty"`
	FromCache           bool          `json:"fromCache,omitempty"`
}

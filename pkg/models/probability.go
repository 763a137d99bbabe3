package models

// ProbabilitySample is one win-probability reading from the provider's
// probabilities feed, keyed to a play id. Percentages are 0..1 and
// home + away (+ tie) sums to 1 within floating tolerance.
type ProbabilitySample struct {
	PlayID            string  `json:"playId"`
	HomeWinPercentage float64 `json:"homeWinPercentage"`
	AwayWinPercentage float64 `json:"awayWinPercentage"`
	TiePercentage     float64 `json:"tiePercentage,omitempty"`
}

// PregameProbability seeds the win-probability walk before any play is
// processed. It comes from a different feed (summary winprobability)
// than the in-game samples.
type PregameProbability struct {
	Home float64 `json:"home"`
	Away float64 `json:"away"`
}

// EvenPregame is the neutral seed used when no pregame feed is
// available.
func EvenPregame() PregameProbability {
	return PregameProbability{Home: 0.5, Away: 0.5}
}

// ProbabilitySnapshot is the per-play view the aggregator attaches to
// detail entries: the win percentages after the play plus the change
// against the last known sample.
type ProbabilitySnapshot struct {
	HomeWinPercentage float64 `json:"homeWinPercentage"`
	AwayWinPercentage float64 `json:"awayWinPercentage"`
	TiePercentage     float64 `json:"tiePercentage"`
	HomeDelta         float64 `json:"homeDelta"`
	AwayDelta         float64 `json:"awayDelta"`
}

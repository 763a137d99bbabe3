package analysis

import (
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
)

// Index holds the game's win-probability samples keyed by play id plus
// the pregame seed. Samples come from a separate feed than the
// play-by-play and may be missing entirely; every consumer tolerates an
// empty index.
type Index struct {
	samples map[string]models.ProbabilitySample
	pregame models.PregameProbability
}

// NewIndex builds the lookup. A later sample for the same play id wins,
// matching the paginated feed where corrections re-emit the play.
func NewIndex(samples []models.ProbabilitySample, pregame models.PregameProbability) *Index {
	idx := &Index{
		samples: make(map[string]models.ProbabilitySample, len(samples)),
		pregame: pregame,
	}
	for _, s := range samples {
		if s.PlayID == "" {
			continue
		}
		idx.samples[s.PlayID] = s
	}
	return idx
}

// EmptyIndex is the no-feed index: trackers seeded from it report an
// even pregame and produce no snapshots.
func EmptyIndex() *Index {
	return NewIndex(nil, models.EvenPregame())
}

// Len reports how many play samples the index holds.
func (x *Index) Len() int { return len(x.samples) }

// Sample returns the win-probability reading for a play id.
func (x *Index) Sample(playID string) (models.ProbabilitySample, bool) {
	s, ok := x.samples[playID]
	return s, ok
}

// Tracker walks plays in game order and reports win probability at the
// start of each play plus the change the play produced. When the feed
// has no sample for a play the tracker carries the last known values
// forward, so deltas are always measured against the most recent real
// sample rather than a gap.
type Tracker struct {
	idx      *Index
	prevHome float64
	prevAway float64
}

// NewTracker starts a walk seeded with the pregame probabilities.
func (x *Index) NewTracker() *Tracker {
	return &Tracker{
		idx:      x,
		prevHome: clampUnit(x.pregame.Home),
		prevAway: clampUnit(x.pregame.Away),
	}
}

// Current returns the win probabilities as of the start of the next
// play, i.e. the last advanced sample or the pregame seed.
func (t *Tracker) Current() (home, away float64) {
	return t.prevHome, t.prevAway
}

// Snapshot returns the post-play probabilities and deltas for playID,
// or nil when the feed has no sample for it. It does not advance the
// walk; call Advance after consuming the snapshot.
func (t *Tracker) Snapshot(playID string) *models.ProbabilitySnapshot {
	s, ok := t.idx.Sample(playID)
	if !ok {
		return nil
	}
	home := clampUnit(s.HomeWinPercentage)
	away := clampUnit(s.AwayWinPercentage)
	return &models.ProbabilitySnapshot{
		HomeWinPercentage: home,
		AwayWinPercentage: away,
		TiePercentage:     clampUnit(s.TiePercentage),
		HomeDelta:         home - t.prevHome,
		AwayDelta:         away - t.prevAway,
	}
}

// Advance moves the walk past playID. With no sample the previous
// values persist.
func (t *Tracker) Advance(playID string) {
	s, ok := t.idx.Sample(playID)
	if !ok {
		return
	}
	t.prevHome = clampUnit(s.HomeWinPercentage)
	t.prevAway = clampUnit(s.AwayWinPercentage)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

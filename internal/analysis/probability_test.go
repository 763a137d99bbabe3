package analysis

import (
	"math"
	"testing"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestTrackerWalk(t *testing.T) {
	idx := NewIndex([]models.ProbabilitySample{
		{PlayID: "p1", HomeWinPercentage: 0.60, AwayWinPercentage: 0.40},
		{PlayID: "p3", HomeWinPercentage: 0.80, AwayWinPercentage: 0.20},
	}, models.PregameProbability{Home: 0.55, Away: 0.45})

	tr := idx.NewTracker()
	if h, a := tr.Current(); !almostEqual(h, 0.55) || !almostEqual(a, 0.45) {
		t.Fatalf("pregame = %v/%v, want 0.55/0.45", h, a)
	}

	snap := tr.Snapshot("p1")
	if snap == nil {
		t.Fatal("no snapshot for p1")
	}
	if !almostEqual(snap.HomeWinPercentage, 0.60) || !almostEqual(snap.HomeDelta, 0.05) {
		t.Errorf("p1 snapshot = %+v, want home 0.60 delta +0.05", snap)
	}
	if !almostEqual(snap.AwayDelta, -0.05) {
		t.Errorf("p1 away delta = %v, want -0.05", snap.AwayDelta)
	}
	tr.Advance("p1")

	// Feed gap: no sample for p2, values carry forward.
	if snap := tr.Snapshot("p2"); snap != nil {
		t.Errorf("snapshot for missing play = %+v, want nil", snap)
	}
	tr.Advance("p2")
	if h, _ := tr.Current(); !almostEqual(h, 0.60) {
		t.Errorf("carry-forward home = %v, want 0.60", h)
	}

	// Delta measured against the last known sample, not the gap.
	snap = tr.Snapshot("p3")
	if snap == nil {
		t.Fatal("no snapshot for p3")
	}
	if !almostEqual(snap.HomeDelta, 0.20) {
		t.Errorf("p3 home delta = %v, want +0.20", snap.HomeDelta)
	}
}

func TestTrackerClampsOutOfRangeSamples(t *testing.T) {
	idx := NewIndex([]models.ProbabilitySample{
		{PlayID: "p1", HomeWinPercentage: 1.2, AwayWinPercentage: -0.2},
	}, models.EvenPregame())
	tr := idx.NewTracker()
	snap := tr.Snapshot("p1")
	if snap == nil {
		t.Fatal("no snapshot")
	}
	if snap.HomeWinPercentage != 1 || snap.AwayWinPercentage != 0 {
		t.Errorf("clamped = %v/%v, want 1/0", snap.HomeWinPercentage, snap.AwayWinPercentage)
	}
}

func TestEmptyIndex(t *testing.T) {
	idx := EmptyIndex()
	if idx.Len() != 0 {
		t.Fatalf("Len = %d, want 0", idx.Len())
	}
	tr := idx.NewTracker()
	if h, a := tr.Current(); !almostEqual(h, 0.5) || !almostEqual(a, 0.5) {
		t.Errorf("empty index pregame = %v/%v, want even", h, a)
	}
	if snap := tr.Snapshot("anything"); snap != nil {
		t.Errorf("snapshot from empty index = %+v, want nil", snap)
	}
}

func TestIndexLaterSampleWins(t *testing.T) {
	idx := NewIndex([]models.ProbabilitySample{
		{PlayID: "p1", HomeWinPercentage: 0.50, AwayWinPercentage: 0.50},
		{PlayID: "p1", HomeWinPercentage: 0.70, AwayWinPercentage: 0.30},
	}, models.EvenPregame())
	s, ok := idx.Sample("p1")
	if !ok || !almostEqual(s.HomeWinPercentage, 0.70) {
		t.Errorf("sample = %+v, %v; want the corrected 0.70 reading", s, ok)
	}
}

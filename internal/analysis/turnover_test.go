package analysis

import (
	"testing"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
)

func testTeams() *TeamIndex {
	return NewTeamIndex(&models.GamePackage{
		Boxscore: models.Boxscore{Teams: []models.BoxscoreTeam{
			{Team: models.TeamRef{ID: "21", Abbreviation: "PHI"}},
			{Team: models.TeamRef{ID: "28", Abbreviation: "WSH"}},
		}},
	})
}

func TestDetectTurnoversInterception(t *testing.T) {
	teams := testTeams()
	play := models.Play{
		Text:  "J.Daniels pass deep middle INTERCEPTED by C.Gardner-Johnson at the PHI 30.",
		Type:  models.PlayType{Text: "Pass Interception Return"},
		Start: models.Situation{Team: models.TeamRef{ID: "28"}},
		End:   models.Situation{Team: models.TeamRef{ID: "21"}},
	}
	got := DetectTurnovers(&play, "28", teams)
	if len(got.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(got.Events))
	}
	if got.Events[0].TeamID != "28" || got.Events[0].Reason != ReasonInterception {
		t.Errorf("event = %+v, want interception charged to 28", got.Events[0])
	}
	if !got.Interception {
		t.Error("Interception flag not set")
	}
}

func TestDetectTurnoversOwnRecoveryIsNotTurnover(t *testing.T) {
	teams := testTeams()
	play := models.Play{
		Text:  "S.Barkley up the middle for 4 yards. FUMBLES, recovered by PHI-L.Johnson at the PHI 38.",
		Type:  models.PlayType{Text: "Fumble Recovery (Own)"},
		Start: models.Situation{Team: models.TeamRef{ID: "21"}},
		End:   models.Situation{Team: models.TeamRef{ID: "21"}},
	}
	got := DetectTurnovers(&play, "21", teams)
	if got.Turnover() {
		t.Errorf("own recovery charged as turnover: %+v", got.Events)
	}
	if !got.FumblePhrase {
		t.Error("FumblePhrase not set")
	}
}

func TestDetectTurnoversFumbleLost(t *testing.T) {
	teams := testTeams()
	tests := []struct {
		name string
		play models.Play
	}{
		{
			name: "typed opponent recovery",
			play: models.Play{
				Text:  "S.Barkley right end for 2 yards. FUMBLES, recovered at the PHI 40.",
				Type:  models.PlayType{Text: "Fumble Recovery (Opponent)"},
				Start: models.Situation{Team: models.TeamRef{ID: "21"}},
				End:   models.Situation{Team: models.TeamRef{ID: "28"}},
			},
		},
		{
			name: "recovered-by abbreviation",
			play: models.Play{
				Text:  "J.Hurts sacked for loss of 6 yards. FUMBLES, RECOVERED by WSH-D.Payne at the PHI 22.",
				Type:  models.PlayType{Text: "Sack"},
				Start: models.Situation{Team: models.TeamRef{ID: "21"}},
			},
		},
		{
			name: "legacy abbreviation alias",
			play: models.Play{
				Text:  "S.Barkley left tackle for 1 yard. FUMBLES, recovered by WAS-B.St-Juste.",
				Type:  models.PlayType{Text: "Rush"},
				Start: models.Situation{Team: models.TeamRef{ID: "21"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectTurnovers(&tt.play, "21", teams)
			if len(got.Events) != 1 {
				t.Fatalf("events = %d, want 1 (%+v)", len(got.Events), got.Events)
			}
			if got.Events[0].TeamID != "21" || got.Events[0].Reason != ReasonFumble {
				t.Errorf("event = %+v, want fumble charged to 21", got.Events[0])
			}
		})
	}
}

func TestDetectTurnoversReplayReversalClearsInterception(t *testing.T) {
	teams := testTeams()
	play := models.Play{
		Text:  "J.Hurts pass INTERCEPTED by Q.Martin. The play was REVERSED. J.Hurts pass incomplete deep right.",
		Type:  models.PlayType{Text: "Pass Incompletion"},
		Start: models.Situation{Team: models.TeamRef{ID: "21"}},
	}
	got := DetectTurnovers(&play, "21", teams)
	if got.Turnover() || got.Interception {
		t.Errorf("reversed interception still charged: %+v", got)
	}
}

func TestDetectTurnoversTwoPointExemption(t *testing.T) {
	teams := testTeams()
	play := models.Play{
		Text:  "TWO-POINT CONVERSION ATTEMPT. J.Hurts pass is intercepted. ATTEMPT FAILS.",
		Type:  models.PlayType{Text: "Two Point Pass"},
		Start: models.Situation{Team: models.TeamRef{ID: "21"}},
	}
	got := DetectTurnovers(&play, "21", teams)
	if got.Turnover() {
		t.Errorf("two-point interception charged as turnover: %+v", got.Events)
	}
	if !got.TwoPointAttempt {
		t.Error("TwoPointAttempt not set")
	}
}

func TestDetectTurnoversMuffedPunt(t *testing.T) {
	teams := testTeams()
	play := models.Play{
		Text:  "B.Mann punts 48 yards to WSH 12. J.McKissic MUFFS the catch, RECOVERED by PHI-B.Covey.",
		Type:  models.PlayType{Text: "Punt"},
		Start: models.Situation{Team: models.TeamRef{ID: "21"}},
		End:   models.Situation{Team: models.TeamRef{ID: "21"}},
	}
	got := DetectTurnovers(&play, "21", teams)
	if len(got.Events) != 1 {
		t.Fatalf("events = %d, want 1 (%+v)", len(got.Events), got.Events)
	}
	if got.Events[0].TeamID != "28" || got.Events[0].Reason != ReasonMuffedKick {
		t.Errorf("event = %+v, want muffed kick charged to the receiving team 28", got.Events[0])
	}
}

func TestDetectTurnoversKickoffReturnFumble(t *testing.T) {
	teams := testTeams()
	// The drive belongs to the receiving team even though the play's
	// start team is the kicker.
	play := models.Play{
		Text:  "J.Elliott kickoff, returned by A.Gibson for 18 yards. FUMBLES, recovered by PHI-K.Ringo.",
		Type:  models.PlayType{Text: "Kickoff Return"},
		Start: models.Situation{Team: models.TeamRef{ID: "21"}},
		End:   models.Situation{Team: models.TeamRef{ID: "21"}},
	}
	got := DetectTurnovers(&play, "28", teams)
	if len(got.Events) != 1 {
		t.Fatalf("events = %d, want 1 (%+v)", len(got.Events), got.Events)
	}
	if got.Events[0].TeamID != "28" || got.Events[0].Reason != ReasonFumble {
		t.Errorf("event = %+v, want fumble charged to the returning team 28", got.Events[0])
	}
}

func TestDetectTurnoversOnsideKickLost(t *testing.T) {
	teams := testTeams()
	play := models.Play{
		Text:  "J.Elliott onside kick, RECOVERED by PHI-Z.Baun at the PHI 47.",
		Type:  models.PlayType{Text: "Kickoff"},
		Start: models.Situation{Team: models.TeamRef{ID: "21"}},
		End:   models.Situation{Team: models.TeamRef{ID: "21"}},
	}
	got := DetectTurnovers(&play, "28", teams)
	if len(got.Events) != 1 {
		t.Fatalf("events = %d, want 1 (%+v)", len(got.Events), got.Events)
	}
	if got.Events[0].TeamID != "28" || got.Events[0].Reason != ReasonOnsideKickLost {
		t.Errorf("event = %+v, want onside kick loss charged to 28", got.Events[0])
	}
}

package analysis

import (
	"regexp"
	"strings"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
)

// TurnoverReason names why a possession change was charged.
type TurnoverReason string

const (
	ReasonInterception   TurnoverReason = "interception"
	ReasonFumble         TurnoverReason = "fumble"
	ReasonMuffedKick     TurnoverReason = "muffed_kick"
	ReasonOnsideKickLost TurnoverReason = "onside_kick_lost"
)

// TurnoverEvent charges one turnover to a team.
type TurnoverEvent struct {
	TeamID string
	Reason TurnoverReason
}

// TurnoverResult carries the detected events plus the raw flags the
// yardage-correction rules need.
type TurnoverResult struct {
	Events          []TurnoverEvent
	Interception    bool
	FumblePhrase    bool
	TwoPointAttempt bool
}

// Turnover reports whether any event was charged.
func (r TurnoverResult) Turnover() bool { return len(r.Events) > 0 }

var recoveredByAbbrRe = regexp.MustCompile(`(?i)\brecovered by\s+([a-z]{2,4})\b`)

// Play text can use older abbreviations than the boxscore metadata.
var teamAbbrAliases = map[string]string{
	"was": "wsh",
}

// DetectTurnovers inspects one play's final text for possession-change
// markers. A play is a turnover only when the recovering/intercepting
// team differs from the team that held possession at that point of the
// play; own-team recoveries are never turnovers, and interceptions on
// two-point conversion attempts are exempt because no possession change
// results.
func DetectTurnovers(play *models.Play, driveTeamID string, teams *TeamIndex) TurnoverResult {
	eventText := FinalPlayText(play.Text)
	eventLower := strings.ToLower(eventText)
	hasReplayReversal := eventText != play.Text
	typeLower := strings.ToLower(play.Type.Text)

	if strings.Contains(eventLower, "two-point") ||
		strings.Contains(eventLower, "2-point") ||
		strings.Contains(eventLower, "conversion attempt") {
		return TurnoverResult{TwoPointAttempt: true}
	}

	startTeamID := play.Start.Team.ID
	if startTeamID == "" {
		startTeamID = driveTeamID
	}
	endTeamID := play.End.Team.ID
	opponentID := teams.Opponent(startTeamID)

	offenseAbbr := strings.ToLower(play.Team.Abbreviation)
	if offenseAbbr == "" {
		offenseAbbr = strings.ToLower(teams.Abbr(driveTeamID))
	}

	// Text forms vary: "muffed punt", "MUFFS the catch", typed muff plays.
	kickPlay := strings.Contains(eventLower, "punt") || strings.Contains(eventLower, "kickoff") ||
		strings.Contains(typeLower, "punt") || strings.Contains(typeLower, "kickoff")
	muffedKick := strings.Contains(typeLower, "muff") ||
		strings.Contains(eventLower, "muffed punt") ||
		strings.Contains(eventLower, "muffed kick") ||
		(kickPlay && strings.Contains(eventLower, "muff"))

	interception := strings.Contains(typeLower, "interception") || strings.Contains(eventLower, "intercept")
	if hasReplayReversal && !strings.Contains(eventLower, "intercept") {
		// The replay re-statement no longer mentions the pick: the
		// original ruling was overturned.
		interception = false
	}

	fumblePhrase := strings.Contains(eventLower, "fumble")
	fumbleRecoveryOwn := strings.Contains(typeLower, "fumble recovery (own)")
	fumbleRecoveryOpp := strings.Contains(typeLower, "fumble recovery (opponent)") ||
		strings.Contains(typeLower, "sack opp fumble recovery")
	touchback := strings.Contains(eventLower, "touchback")

	var events []TurnoverEvent
	currentPossessor := startTeamID
	currentOffAbbr := offenseAbbr

	passPossessionTo := func(teamID string) {
		currentPossessor = teamID
		currentOffAbbr = strings.ToLower(teams.Abbr(teamID))
	}

	// Once a punt is in the air the receiving team owns the possession
	// context for any later fumble/recovery in the same play text.
	if strings.Contains(eventLower, "punts") && opponentID != "" && (fumblePhrase || muffedKick) {
		passPossessionTo(opponentID)
	}

	// Onside kicks: on kickoffs the drive belongs to the receiving team,
	// so a kicking-team recovery charges the drive team with the loss.
	onsideKick := strings.Contains(eventLower, "onside") && strings.Contains(eventLower, "kick")
	kickingTeamRecoveredOnside := false
	if onsideKick {
		explicitStart := play.Start.Team.ID
		kickingTeamRecoveredOnside = endTeamID != "" && endTeamID != driveTeamID &&
			strings.Contains(eventLower, "recovered") &&
			(explicitStart == "" || endTeamID == explicitStart)
		if kickingTeamRecoveredOnside {
			events = append(events, TurnoverEvent{TeamID: driveTeamID, Reason: ReasonOnsideKickLost})
		}
	}

	if muffedKick && opponentID != "" {
		passPossessionTo(opponentID)
	}

	// Kickoff return fumbles belong to the receiving team even though
	// the play's start team is the kicking team.
	kickoffPlay := strings.Contains(typeLower, "kickoff") || strings.Contains(eventLower, "kickoff")
	if kickoffPlay && fumblePhrase && opponentID != "" && !onsideKick && !muffedKick {
		passPossessionTo(opponentID)
	}

	if interception {
		events = append(events, TurnoverEvent{TeamID: currentPossessor, Reason: ReasonInterception})
		if opponentID != "" {
			passPossessionTo(opponentID)
		}
	}

	fumbleTurnover := false
	if fumblePhrase {
		recoveredTeamID := ""
		switch {
		case fumbleRecoveryOwn:
			recoveredTeamID = currentPossessor
		case fumbleRecoveryOpp && opponentID != "":
			recoveredTeamID = opponentID
		default:
			if m := recoveredByAbbrRe.FindStringSubmatch(eventLower); m != nil {
				abbr := strings.ToLower(m[1])
				if alias, ok := teamAbbrAliases[abbr]; ok {
					abbr = alias
				}
				recoveredTeamID = teams.ID(abbr)
				if recoveredTeamID == "" {
					recoveredTeamID = endTeamID
				}
			} else if strings.Contains(eventLower, "and recovers") || strings.Contains(eventLower, "recovers at") {
				recoveredTeamID = currentPossessor
			} else {
				recoveredTeamID = endTeamID
			}
		}

		switch {
		case recoveredTeamID != "" && currentPossessor != "":
			fumbleTurnover = recoveredTeamID != currentPossessor
		case strings.Contains(eventLower, "recovered by"):
			// End team missing: treat as a turnover unless it explicitly
			// reads as an own-team recovery.
			fumbleTurnover = !(currentOffAbbr != "" &&
				strings.Contains(eventLower, "recovered by "+currentOffAbbr))
		case strings.Contains(eventLower, "and recovers"), strings.Contains(eventLower, "recovers at"):
			fumbleTurnover = false
		}

		if touchback {
			fumbleTurnover = true
		}
	}
	if fumbleTurnover && !muffedKick {
		events = append(events, TurnoverEvent{TeamID: currentPossessor, Reason: ReasonFumble})
	}

	if muffedKick && !kickingTeamRecoveredOnside {
		events = append(events, TurnoverEvent{TeamID: currentPossessor, Reason: ReasonMuffedKick})
	}

	return TurnoverResult{
		Events:       events,
		Interception: interception,
		FumblePhrase: fumblePhrase,
	}
}

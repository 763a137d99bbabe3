package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
)

// Category is the offensive classification of a single play.
type Category string

const (
	CategoryRun           Category = "run"
	CategoryPassDropback  Category = "pass_dropback"
	CategorySpecialTeams  Category = "special_teams"
	CategoryPenaltyNoPlay Category = "penalty_noplay"
	CategorySpikeKneel    Category = "spike_kneel"
	// CategoryUnclassified is the neutral fallback for plays whose text
	// matches no known pattern. Such plays stay offense-credited but are
	// never successful or explosive.
	CategoryUnclassified Category = "unclassified"
)

// Classification is the derived view of one play. OffenseCredit marks
// plays that count toward snap/yardage totals and the success-rate
// denominator; IsRun/IsPass bucket the play for explosive thresholds,
// with scrambles and sacks unified under pass (dropbacks).
type Classification struct {
	Category      Category
	OffenseCredit bool
	IsRun         bool
	IsPass        bool
}

// ESPN replay notes are inconsistent about punctuation/spacing:
// "play was REVERSED.(Shotgun) ..." or "play was REVERSED (Shotgun) ...".
var (
	replayDecisionRe = regexp.MustCompile(`(?i)\b(reversed|overturned)\b[.:]?[\s]*`)
	yardsForRe       = regexp.MustCompile(`(?i)\bfor (-?\d+) yards\b`)
	yardsLossRe      = regexp.MustCompile(`(?i)\bfor loss of (\d+) yards\b`)
)

// rush direction phrases that mark a handoff when the type text is
// unhelpful.
var rushPatterns = []string{
	"up the middle", "left end", "right end", "left tackle",
	"right tackle", "left guard", "right guard", "middle for",
	"around left", "around right",
}

var specialTeamsKeywords = []string{
	"punt", "kickoff", "field goal", "extra point", "xp", "fg", "onside",
}

// FinalPlayText returns the portion of a play description that reflects
// the final ruling. When a replay re-statement follows a
// "REVERSED."/"OVERTURNED." marker, event detection must use the
// re-stated text, not the original call.
func FinalPlayText(text string) string {
	if text == "" {
		return ""
	}
	locs := replayDecisionRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	candidate := strings.TrimLeft(text[locs[len(locs)-1][1]:], " \t")
	if candidate == "" {
		return text
	}
	return candidate
}

// CreditedYardsBeforeFumble recovers the official gain/loss on a fumble
// play. The provider's statYardage can reflect the net outcome
// including the recovery, while offense yards are credited up to the
// fumble: use the last "for X yards" mention before the first "fumble"
// in the final play text.
func CreditedYardsBeforeFumble(eventText string) (int, bool) {
	lower := strings.ToLower(eventText)
	idx := strings.Index(lower, "fumble")
	if idx < 0 {
		return 0, false
	}
	prefix := lower[:idx]

	if m := yardsForRe.FindAllStringSubmatch(prefix, -1); len(m) > 0 {
		n, err := strconv.Atoi(m[len(m)-1][1])
		if err != nil {
			return 0, false
		}
		return n, true
	}
	if strings.Contains(prefix, "for no gain") || strings.Contains(prefix, "for no loss") {
		return 0, true
	}
	if m := yardsLossRe.FindStringSubmatch(prefix); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		return -n, true
	}
	return 0, false
}

// Success applies the down-dependent success thresholds: 40% of the
// distance on 1st down, 60% on 2nd, full conversion on 3rd and 4th.
// Unknown downs never succeed.
func Success(down, distance, yardsGained int) bool {
	switch down {
	case 1:
		return float64(yardsGained) >= 0.4*float64(distance)
	case 2:
		return float64(yardsGained) >= 0.6*float64(distance)
	case 3, 4:
		return yardsGained >= distance
	}
	return false
}

// Explosive reports whether an offense-credited play clears the
// explosive thresholds: 10+ yard runs, 20+ yard passes.
func Explosive(isRun, isPass bool, yards int) bool {
	return (isRun && yards >= 10) || (isPass && yards >= 20)
}

// anyStatContains checks the play's credited statistics for typed
// run/pass/sack hints before text matching is attempted.
func anyStatContains(play *models.Play, needles ...string) bool {
	for _, stat := range play.Statistics {
		abbr := strings.ToLower(stat.Type.Abbreviation)
		text := strings.ToLower(stat.Type.Text)
		for _, n := range needles {
			if strings.Contains(abbr, n) || strings.Contains(text, n) {
				return true
			}
		}
	}
	return false
}

// IsNullified detects plays that did not happen (nullified, no play).
func IsNullified(textLower string) bool {
	return strings.Contains(textLower, "nullified") || strings.Contains(textLower, "no play")
}

// IsPenaltyNoPlay detects accepted penalties that wiped the snap out.
// Declined and offsetting penalties leave the play on the books.
func IsPenaltyNoPlay(play *models.Play, textLower, typeLower string) bool {
	if strings.Contains(textLower, "declined") {
		return false
	}
	if strings.Contains(textLower, "offsetting") {
		return false
	}
	if (play.Penalty != nil || play.HasPenalty) && strings.Contains(textLower, "no play") {
		return true
	}
	if strings.Contains(textLower, "no play") &&
		(strings.Contains(textLower, "penalty") || strings.Contains(typeLower, "penalty")) {
		return true
	}
	return false
}

// IsSpikeOrKneel detects clock-management plays.
func IsSpikeOrKneel(textLower, typeLower string) bool {
	if strings.Contains(textLower, "spike") || strings.Contains(typeLower, "spike") {
		return true
	}
	return strings.Contains(textLower, "kneel") || strings.Contains(typeLower, "kneel")
}

// IsSpecialTeams identifies punts, kickoffs, FGs and XPs. Touchdown
// text overrides the keywords so offensive TDs described with e.g.
// "field goal range" language are not filtered out.
func IsSpecialTeams(textLower, typeLower string) bool {
	if strings.Contains(textLower, "touchdown") || strings.Contains(typeLower, "touchdown") {
		return false
	}
	for _, k := range specialTeamsKeywords {
		if strings.Contains(textLower, k) || strings.Contains(typeLower, k) {
			return true
		}
	}
	return false
}

func isKickoffReturn(textLower, typeLower string) bool {
	return (strings.Contains(textLower, "kickoff") || strings.Contains(typeLower, "kickoff")) &&
		strings.Contains(typeLower, "return")
}

func isPuntReturn(textLower, typeLower string) bool {
	return (strings.Contains(textLower, "punt") || strings.Contains(typeLower, "punt")) &&
		strings.Contains(typeLower, "return")
}

func passHint(play *models.Play, textLower, typeLower string) bool {
	return anyStatContains(play, "pass", "sack") ||
		strings.Contains(typeLower, "pass") || strings.Contains(typeLower, "sack") ||
		strings.Contains(typeLower, "scramble") || strings.Contains(textLower, "pass") ||
		strings.Contains(textLower, "sack") || strings.Contains(textLower, "scramble")
}

func rushHint(play *models.Play, textLower, typeLower string) bool {
	if anyStatContains(play, "rush") || strings.Contains(typeLower, "rush") ||
		strings.Contains(textLower, "run") {
		return true
	}
	for _, p := range rushPatterns {
		if strings.Contains(textLower, p) {
			return true
		}
	}
	return false
}

// Classify decides whether a play counts toward offensive efficiency
// stats and which bucket it lands in. Pure function of the single play
// record; never fails — unmatched plays fall into the neutral
// unclassified bucket.
func Classify(play *models.Play) Classification {
	textLower := strings.ToLower(play.Text)
	typeLower := strings.ToLower(play.Type.Text)
	if typeLower == "" {
		typeLower = "unknown"
	}

	switch {
	case IsNullified(textLower), IsPenaltyNoPlay(play, textLower, typeLower):
		return Classification{Category: CategoryPenaltyNoPlay}
	case IsSpikeOrKneel(textLower, typeLower):
		return Classification{Category: CategorySpikeKneel}
	case IsSpecialTeams(textLower, typeLower),
		isKickoffReturn(textLower, typeLower),
		isPuntReturn(textLower, typeLower):
		return Classification{Category: CategorySpecialTeams}
	}

	isPass := passHint(play, textLower, typeLower)
	isRun := rushHint(play, textLower, typeLower)

	// Scrambles are pass dropbacks, never runs, even when the text also
	// trips a rush phrase.
	if isPass && isRun &&
		(strings.Contains(textLower, "scramble") || strings.Contains(typeLower, "scramble")) {
		isRun = false
	}

	c := Classification{OffenseCredit: true, IsRun: isRun, IsPass: isPass}
	switch {
	case isPass:
		c.Category = CategoryPassDropback
		c.IsRun = false
	case isRun:
		c.Category = CategoryRun
	default:
		c.Category = CategoryUnclassified
	}
	return c
}

// ClassifyTotalOffense mirrors Classify but follows the provider's
// total-offense accounting: spikes and kneels stay in, special teams
// and returns stay out. Used for Total Yards reconciliation only.
func ClassifyTotalOffense(play *models.Play) Classification {
	textLower := strings.ToLower(play.Text)
	typeLower := strings.ToLower(play.Type.Text)
	if typeLower == "" {
		typeLower = "unknown"
	}

	switch {
	case IsNullified(textLower), IsPenaltyNoPlay(play, textLower, typeLower):
		return Classification{Category: CategoryPenaltyNoPlay}
	case IsSpecialTeams(textLower, typeLower),
		isKickoffReturn(textLower, typeLower),
		isPuntReturn(textLower, typeLower):
		return Classification{Category: CategorySpecialTeams}
	}

	if IsSpikeOrKneel(textLower, typeLower) {
		return Classification{
			Category:      CategorySpikeKneel,
			OffenseCredit: true,
			IsRun:         strings.Contains(textLower, "kneel") || strings.Contains(typeLower, "kneel"),
			IsPass:        strings.Contains(textLower, "spike") || strings.Contains(typeLower, "spike"),
		}
	}

	isPass := passHint(play, textLower, typeLower)
	isRun := rushHint(play, textLower, typeLower)

	// Aborted snaps count as rush attempts in official stats.
	if strings.Contains(textLower, "aborted") && strings.Contains(textLower, "fumble") {
		isRun = true
	}
	if isPass && isRun &&
		(strings.Contains(textLower, "scramble") || strings.Contains(typeLower, "scramble")) {
		isRun = false
	}

	c := Classification{OffenseCredit: true, IsRun: isRun, IsPass: isPass}
	switch {
	case isPass:
		c.Category = CategoryPassDropback
	case isRun:
		c.Category = CategoryRun
	default:
		c.Category = CategoryUnclassified
	}
	return c
}

// isIntentionalGrounding reports an accepted intentional-grounding
// penalty; those plays are recorded as zero offensive yards.
func isIntentionalGrounding(play *models.Play, textLower string) bool {
	if play.Penalty != nil && play.Penalty.Status != nil && play.Penalty.Type != nil {
		if play.Penalty.Status.Slug == "accepted" && play.Penalty.Type.Slug == "intentional-grounding" {
			return true
		}
	}
	return strings.Contains(textLower, "intentional grounding")
}

var enforcedAtSpotRe = regexp.MustCompile(`(?i)\benforced at(?: the)?\s+([A-Za-z]{2,3})\s+(\d{1,2})\b`)

// enforcedAtYardsToEndzone parses "enforced at XXX NN" and converts the
// enforcement spot to yards-to-endzone relative to the offense. Lets
// accepted-penalty plays credit offensive yards without folding the
// penalty yardage into Total Yards.
func enforcedAtYardsToEndzone(eventText, offenseAbbrev string) (int, bool) {
	if eventText == "" || offenseAbbrev == "" {
		return 0, false
	}
	m := enforcedAtSpotRe.FindStringSubmatch(eventText)
	if m == nil {
		return 0, false
	}
	yard, err := strconv.Atoi(m[2])
	if err != nil || yard < 0 || yard > 50 {
		return 0, false
	}
	if yard == 50 {
		return 50, true
	}
	if strings.EqualFold(m[1], offenseAbbrev) {
		return 100 - yard, true
	}
	return yard, true
}

// isDeclinedOnlyPenalty reports a penalty that was declined with no
// enforced companion, which should not appear in penalty play lists.
// The provider often embeds "declined" in text even when a second,
// accepted penalty was enforced on the same play.
func isDeclinedOnlyPenalty(textLower string, penalty *models.PenaltyInfo) bool {
	statusSlug := ""
	if penalty != nil && penalty.Status != nil {
		statusSlug = penalty.Status.Slug
	}
	if !strings.Contains(textLower, "declined") {
		return statusSlug == "declined"
	}
	if statusSlug != "" && statusSlug != "declined" {
		return false
	}
	if strings.Contains(textLower, "enforced") || strings.Contains(textLower, "accepted") ||
		strings.Contains(textLower, "no play") {
		return false
	}
	return true
}

package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
)

// DefaultCompetitiveThreshold is the win-probability cutoff beyond
// which the game stops counting toward the competitive tables.
const DefaultCompetitiveThreshold = 0.975

// Options tunes one ProcessGame run.
type Options struct {
	// Expanded populates per-category play details on both variants.
	Expanded bool
	// Threshold overrides DefaultCompetitiveThreshold when > 0.
	Threshold float64
}

// ProcessGame walks every drive and play of the payload once and
// produces both the competitive-window and full-game stat views.
//
// The competitive window is a one-way gate: it starts open, and once
// either team's win probability exceeds the threshold it locks for the
// remainder of the game. The play that crosses the threshold is still
// included, because inclusion is decided from the probability at the
// start of the play. With no probability feed the gate never locks and
// both variants are identical.
func ProcessGame(game *models.GamePackage, wp *Index, opts Options) (*models.GameStats, error) {
	if game == nil {
		return nil, fmt.Errorf("process game: nil payload")
	}
	if wp == nil {
		wp = EmptyIndex()
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultCompetitiveThreshold
	}

	teams := NewTeamIndex(game)
	if len(teams.IDs()) != 2 {
		return nil, fmt.Errorf("process game: expected 2 teams, found %d", len(teams.IDs()))
	}

	run := &gameRun{
		game:      game,
		teams:     teams,
		tracker:   wp.NewTracker(),
		wpKnown:   wp.Len() > 0,
		threshold: threshold,
		ledger:    buildScoringLedger(game),
		full:      newVariantAcc(teams, opts.Expanded),
		comp:      newVariantAcc(teams, opts.Expanded),
	}

	// Pregame seed can already be past the threshold (huge favorites).
	run.evaluateGate()

	prevResult := ""
	drives := game.AllDrives()
	for i := range drives {
		drive := &drives[i]
		if ok := run.processDrive(drive, prevResult); !ok {
			run.diag.SkippedDrives++
		}
		if drive.Result != "" {
			prevResult = drive.Result
		}
	}

	stats := &models.GameStats{
		Competitive: run.comp.finish(run),
		Full:        run.full.finish(run),
		Diagnostics: run.diag,
	}
	return stats, nil
}

type scoreEvent struct {
	teamID string
	points int
	// nonOffensive marks safeties and kick/punt-return touchdowns,
	// which never count as the drive offense's points even though the
	// scoring team can match the drive team (ESPN attributes kickoff
	// drives to the receiving team).
	nonOffensive bool
}

// buildScoringLedger recovers per-play point values from the scoring
// ledger's running totals.
func buildScoringLedger(game *models.GamePackage) map[string]scoreEvent {
	ledger := make(map[string]scoreEvent, len(game.ScoringPlays))
	prevHome, prevAway := 0, 0
	for _, sp := range game.ScoringPlays {
		pts := (sp.HomeScore - prevHome) + (sp.AwayScore - prevAway)
		prevHome, prevAway = sp.HomeScore, sp.AwayScore
		if sp.ID == "" || pts <= 0 {
			continue
		}

		scoringType := ""
		if sp.ScoringType != nil {
			scoringType = strings.ToLower(sp.ScoringType.Text + " " + sp.ScoringType.Slug)
		}
		safety, returnTD := nonOffensiveKind(strings.ToLower(sp.Text), strings.ToLower(sp.Type.Text), scoringType)
		if safety {
			pts = 2
		}
		ledger[sp.ID] = scoreEvent{teamID: sp.Team.ID, points: pts, nonOffensive: safety || returnTD}
	}
	return ledger
}

// nonOffensiveKind flags the score shapes that bypass the offense:
// safeties and touchdowns scored on a kickoff or punt return.
func nonOffensiveKind(textLower, typeLower, scoringTypeLower string) (safety, returnTD bool) {
	has := func(s string) bool {
		return strings.Contains(textLower, s) || strings.Contains(typeLower, s) ||
			strings.Contains(scoringTypeLower, s)
	}
	safety = has("safety")
	touchdown := has("touchdown")
	kickReturnTD := touchdown &&
		(strings.Contains(textLower, "kickoff") || strings.Contains(typeLower, "kickoff"))
	puntReturnTD := touchdown &&
		(strings.Contains(textLower, "punt") || strings.Contains(typeLower, "punt")) &&
		(strings.Contains(textLower, "return") || strings.Contains(typeLower, "return"))
	return safety, kickReturnTD || puntReturnTD
}

type teamAcc struct {
	plays         int
	successes     int
	totalYards    int
	explosives    int
	turnovers     int
	nonOffPoints  int
	trips40       int
	points40      int
	drives        int
	drivePoints   int
	startCoordSum int
	startCoordN   int
	puntCount     int
	puntNet       int
	kickoffCount  int
	kickoffNet    int
	penaltyCount  int
	penaltyYards  int
}

type variantAcc struct {
	teams   map[string]*teamAcc
	details models.TeamDetails
}

func newVariantAcc(teams *TeamIndex, expanded bool) *variantAcc {
	v := &variantAcc{teams: make(map[string]*teamAcc, 2)}
	if expanded {
		v.details = make(models.TeamDetails, 2)
	}
	for _, id := range teams.IDs() {
		v.teams[id] = &teamAcc{}
		if expanded {
			cats := make(map[string][]models.PlayDetail, len(models.DetailCategories)+1)
			for _, c := range models.DetailCategories {
				cats[c] = []models.PlayDetail{}
			}
			cats[models.CategoryAllPlays] = []models.PlayDetail{}
			v.details[id] = cats
		}
	}
	return v
}

func (v *variantAcc) addDetail(teamID, category string, d models.PlayDetail) {
	if v.details == nil {
		return
	}
	if cats, ok := v.details[teamID]; ok {
		cats[category] = append(cats[category], d)
	}
}

// variantDrive is the per-drive state one variant tracks while the
// drive's plays are applied to it.
type variantDrive struct {
	active     bool
	counted    bool
	points     int
	crossed40  bool
	startCoord int
	hasStart   bool
}

type gameRun struct {
	game      *models.GamePackage
	teams     *TeamIndex
	tracker   *Tracker
	wpKnown   bool
	threshold float64
	locked    bool
	ledger    map[string]scoreEvent
	full      *variantAcc
	comp      *variantAcc
	diag      models.Diagnostics
}

func (r *gameRun) evaluateGate() {
	if r.locked || !r.wpKnown {
		return
	}
	home, away := r.tracker.Current()
	if home > r.threshold || away > r.threshold {
		r.locked = true
	}
}

// playFacts is everything derived from a single play, computed once and
// applied identically to whichever variants include the play.
type playFacts struct {
	play       *models.Play
	cls        Classification
	totalCls   Classification
	turnover   TurnoverResult
	yards      int
	totalYards int
	success    bool
	explosive  bool
	score      *scoreEvent
	snapshot   *models.ProbabilitySnapshot
	eventText  string
	textLower  string
	typeLower  string
	isPunt     bool
	isKickoff  bool
	stNet      int
	stKickTeam string
	penTeamID  string
	penYards   int
	hasPenalty bool
}

func (r *gameRun) processDrive(drive *models.Drive, prevResult string) bool {
	driveTeamID := drive.Team.ID
	if driveTeamID == "" && len(drive.Plays) > 0 {
		driveTeamID = drive.Plays[0].Team.ID
	}
	if driveTeamID == "" {
		return false
	}
	offAbbr := r.teams.Abbr(driveTeamID)

	fullDS := &variantDrive{}
	compDS := &variantDrive{}
	r.resolveDriveStart(drive, offAbbr, fullDS)
	*compDS = *fullDS

	for i := range drive.Plays {
		play := &drive.Plays[i]
		if play.Text == "" && play.Type.Text == "" {
			r.diag.SkippedPlays++
			continue
		}

		includeComp := !r.locked
		facts := r.derivePlay(play, driveTeamID, offAbbr)
		if facts.snapshot == nil && r.wpKnown {
			r.diag.MissingProbability++
		}

		r.apply(r.full, fullDS, drive, driveTeamID, offAbbr, facts)
		if includeComp {
			r.apply(r.comp, compDS, drive, driveTeamID, offAbbr, facts)
		}

		r.tracker.Advance(play.ID)
		r.evaluateGate()
	}

	r.closeDrive(r.full, fullDS, drive, driveTeamID, prevResult)
	r.closeDrive(r.comp, compDS, drive, driveTeamID, prevResult)
	return true
}

func (r *gameRun) resolveDriveStart(drive *models.Drive, offAbbr string, ds *variantDrive) {
	if drive.Start.YardsToEndzone != nil {
		ds.startCoord = 100 - *drive.Start.YardsToEndzone
		ds.hasStart = true
		return
	}
	if len(drive.Plays) > 0 {
		if c, ok := YardlineToCoord(drive.Plays[0].Start.PossessionText, offAbbr); ok {
			ds.startCoord = c
			ds.hasStart = true
		}
	}
}

func (r *gameRun) derivePlay(play *models.Play, driveTeamID, offAbbr string) playFacts {
	f := playFacts{
		play:      play,
		textLower: strings.ToLower(play.Text),
		typeLower: strings.ToLower(play.Type.Text),
		eventText: FinalPlayText(play.Text),
		cls:       Classify(play),
		totalCls:  ClassifyTotalOffense(play),
	}
	f.turnover = DetectTurnovers(play, driveTeamID, r.teams)
	f.snapshot = r.tracker.Snapshot(play.ID)

	if ev, ok := r.ledger[play.ID]; ok {
		f.score = &ev
	} else if play.ScoringPlay && play.ScoreValue > 0 {
		teamID := play.Team.ID
		if teamID == "" {
			teamID = driveTeamID
		}
		safety, returnTD := nonOffensiveKind(f.textLower, f.typeLower, "")
		pts := play.ScoreValue
		if safety {
			pts = 2
		}
		f.score = &scoreEvent{teamID: teamID, points: pts, nonOffensive: safety || returnTD}
	}

	f.yards, f.totalYards = r.resolveYards(play, &f, offAbbr)

	down, distance := play.Start.Down, play.Start.Distance
	if down == 0 {
		down = 1
	}
	if distance == 0 {
		distance = 10
	}
	f.success = Success(down, distance, f.yards)
	if !f.success && f.score != nil && f.score.teamID == driveTeamID && f.score.points >= 6 {
		// A touchdown converts the series no matter the distance math.
		f.success = true
	}
	f.explosive = f.cls.OffenseCredit && Explosive(f.cls.IsRun, f.cls.IsPass, f.yards)

	if f.cls.Category == CategorySpecialTeams {
		f.isPunt = strings.Contains(f.typeLower, "punt") ||
			(strings.Contains(f.textLower, " punts ") && !strings.Contains(f.typeLower, "fake"))
		f.isKickoff = !f.isPunt && strings.Contains(f.typeLower, "kickoff")
		if f.isPunt || f.isKickoff {
			f.stKickTeam = play.Start.Team.ID
			if f.stKickTeam == "" {
				f.stKickTeam = driveTeamID
			}
			f.stNet = specialTeamsNet(play, f.stKickTeam)
		}
	}

	if (play.Penalty != nil || play.HasPenalty || strings.Contains(f.textLower, "penalty")) &&
		!isDeclinedOnlyPenalty(f.textLower, play.Penalty) {
		f.hasPenalty = true
		if play.Penalty != nil {
			f.penTeamID = play.Penalty.Team.ID
			f.penYards = play.Penalty.Yards
		}
		if f.penTeamID == "" {
			f.penTeamID = r.penaltyTeamFromText(f.textLower, driveTeamID)
		}
	}
	return f
}

// penaltyTeamFromText attributes a penalty when the structured block is
// absent: "penalty on <abbr>" names the committing team directly, "on
// defense" points at the drive's opponent, and anything else falls to
// the offense.
func (r *gameRun) penaltyTeamFromText(textLower, driveTeamID string) string {
	for _, id := range r.teams.IDs() {
		abbr := strings.ToLower(r.teams.Abbr(id))
		if abbr != "" && strings.Contains(textLower, "penalty on "+abbr) {
			return id
		}
	}
	if strings.Contains(textLower, "on defense") {
		if opp := r.teams.Opponent(driveTeamID); opp != "" {
			return opp
		}
	}
	return driveTeamID
}

// resolveYards turns the provider's statYardage into the two credited
// yardages: the offensive gain used by success/explosive, and the total
// offense contribution. Both zero out intentional grounding. A turnover
// zeroes the offensive gain, keeping only the yards credited before a
// lost fumble; an interception contributes nothing to total offense
// either, and a lost fumble contributes its credited gain. Spot-enforced
// penalties correct the total from the enforcement spot.
func (r *gameRun) resolveYards(play *models.Play, f *playFacts, offAbbr string) (yards, total int) {
	grounding := isIntentionalGrounding(play, f.textLower)
	credited, creditedOK := 0, false
	if f.turnover.FumblePhrase {
		credited, creditedOK = CreditedYardsBeforeFumble(f.eventText)
	}

	yards = play.StatYardage
	if grounding {
		yards = 0
	}
	switch {
	case f.turnover.Turnover():
		yards = 0
		if f.turnover.FumblePhrase && !f.turnover.Interception && creditedOK {
			yards = credited
		}
	case f.turnover.FumblePhrase && creditedOK:
		yards = credited
	}

	total = play.StatYardage
	if grounding {
		total = 0
	}
	if !f.turnover.TwoPointAttempt {
		if f.turnover.Interception {
			total = 0
		} else if f.turnover.FumblePhrase && creditedOK {
			total = credited
		}
	}
	if (play.Penalty != nil || play.HasPenalty) && play.Start.YardsToEndzone != nil {
		if spotYTE, ok := enforcedAtYardsToEndzone(f.eventText, offAbbr); ok {
			total = *play.Start.YardsToEndzone - spotYTE
		}
	}
	return yards, total
}

// specialTeamsNet measures a kick's net yardage from the kicking team's
// perspective using the field coordinates, falling back to the
// provider's stat yardage when either endpoint is missing.
func specialTeamsNet(play *models.Play, kickTeamID string) int {
	s, e := play.Start.YardsToEndzone, play.End.YardsToEndzone
	if s == nil || e == nil {
		return play.StatYardage
	}
	end := *e
	if play.End.Team.ID != "" && play.End.Team.ID != kickTeamID {
		end = 100 - end
	}
	return *s - end
}

func (r *gameRun) apply(v *variantAcc, ds *variantDrive, drive *models.Drive, driveTeamID, offAbbr string, f playFacts) {
	ds.active = true
	acc := v.teams[driveTeamID]
	if acc == nil {
		return
	}
	if !ds.counted {
		ds.counted = true
		acc.drives++
		if ds.hasStart {
			acc.startCoordSum += ds.startCoord
			acc.startCoordN++
		}
	}

	detail := func() models.PlayDetail { return r.makeDetail(f, offAbbr) }
	v.addDetail(driveTeamID, models.CategoryAllPlays, detail())

	for _, ev := range f.turnover.Events {
		if ta := v.teams[ev.TeamID]; ta != nil {
			ta.turnovers++
		}
		d := detail()
		d.Reason = string(ev.Reason)
		v.addDetail(ev.TeamID, models.CategoryTurnovers, d)
	}

	if f.cls.OffenseCredit {
		acc.plays++
		if f.success {
			acc.successes++
		}
		if f.explosive {
			acc.explosives++
			v.addDetail(driveTeamID, models.CategoryExplosivePlays, detail())
		}
	}
	if f.totalCls.OffenseCredit {
		acc.totalYards += f.totalYards
	}

	if f.isPunt || f.isKickoff {
		if ka := v.teams[f.stKickTeam]; ka != nil {
			if f.isPunt {
				ka.puntCount++
				ka.puntNet += f.stNet
			} else {
				ka.kickoffCount++
				ka.kickoffNet += f.stNet
			}
		}
	}

	if f.score != nil {
		if !f.score.nonOffensive && f.score.teamID == driveTeamID {
			ds.points += f.score.points
		} else if sa := v.teams[f.score.teamID]; sa != nil {
			sa.nonOffPoints += f.score.points
			d := detail()
			d.Points = f.score.points
			v.addDetail(f.score.teamID, models.CategoryNonOffensivePoints, d)
			d.Probability = nil
			v.addDetail(f.score.teamID, models.CategoryNonOffensiveScores, d)
		}
	}

	if f.hasPenalty {
		penTeam := f.penTeamID
		if ta := v.teams[penTeam]; ta != nil {
			ta.penaltyCount++
			ta.penaltyYards += f.penYards
			d := detail()
			// Detail yardage is impact, always negative for the
			// committing team.
			d.Yards = -abs(f.penYards)
			v.addDetail(penTeam, models.CategoryPenaltyYards, d)
		}
	}

	// Trip inside the 40 opens at the moment the ball reaches the
	// opponent 40 on an offensive snap; points are credited when the
	// drive closes.
	if f.cls.OffenseCredit && !ds.crossed40 {
		yte := f.play.End.YardsToEndzone
		if yte == nil {
			yte = f.play.Start.YardsToEndzone
		}
		if yte != nil && *yte <= 40 {
			ds.crossed40 = true
			acc.trips40++
		}
	}
}

func (r *gameRun) closeDrive(v *variantAcc, ds *variantDrive, drive *models.Drive, driveTeamID, prevResult string) {
	if !ds.active {
		return
	}
	acc := v.teams[driveTeamID]
	if acc == nil {
		return
	}
	acc.drivePoints += ds.points
	if ds.crossed40 {
		acc.points40 += ds.points
		v.addDetail(driveTeamID, models.CategoryPointsPerTrip, models.PlayDetail{
			Type:   drive.Result,
			Text:   drive.Start.Text,
			Points: ds.points,
		})
	}
	if ds.hasStart {
		v.addDetail(driveTeamID, models.CategoryDriveStarts, models.PlayDetail{
			Type:     drive.Result,
			StartPos: FormatFieldPos(ds.startCoord),
			Reason:   prevResult,
		})
	}
}

func (r *gameRun) makeDetail(f playFacts, offAbbr string) models.PlayDetail {
	d := models.PlayDetail{
		Type:        f.play.Type.Text,
		Text:        f.play.Text,
		Yards:       f.yards,
		Quarter:     f.play.Period.Number,
		Clock:       f.play.Clock.DisplayValue,
		Probability: f.snapshot,
	}
	if c, ok := YardlineToCoord(f.play.Start.PossessionText, offAbbr); ok {
		d.StartPos = FormatFieldPos(c)
	}
	if c, ok := YardlineToCoord(f.play.End.PossessionText, offAbbr); ok {
		d.EndPos = FormatFieldPos(c)
	}
	return d
}

// finish builds the variant's ordered stat rows.
func (v *variantAcc) finish(r *gameRun) models.VariantStats {
	scores := r.headerScores()
	penCounts, penYards := r.boxscorePenalties()

	ids := r.teams.IDs()
	rows := make([]models.TeamStatRow, 0, len(ids))
	for _, id := range ids {
		acc := v.teams[id]
		opp := r.teams.Opponent(id)
		oppTurnovers := 0
		if oa := v.teams[opp]; oa != nil {
			oppTurnovers = oa.turnovers
		}

		row := models.TeamStatRow{
			Team:               r.teams.Abbr(id),
			Score:              scores[id],
			Plays:              acc.plays,
			Turnovers:          acc.turnovers,
			TotalYards:         acc.totalYards,
			YardsPerPlay:       round2(float64(acc.totalYards) / float64(max1(acc.plays))),
			SuccessRate:        round3(float64(acc.successes) / float64(max1(acc.plays))),
			ExplosivePlays:     acc.explosives,
			ExplosivePlayRate:  round3(float64(acc.explosives) / float64(max1(acc.plays))),
			PointsPerTrip:      round2(float64(acc.points40) / float64(max1(acc.trips40))),
			Drives:             acc.drives,
			TurnoverMargin:     oppTurnovers - acc.turnovers,
			PointsPerDrive:     round2(float64(acc.drivePoints) / float64(max1(acc.drives))),
			NetPunting:         round1(float64(acc.puntNet) / float64(max1(acc.puntCount))),
			NetKickoff:         round1(float64(acc.kickoffNet) / float64(max1(acc.kickoffCount))),
			PenaltyCount:       acc.penaltyCount,
			PenaltyYards:       acc.penaltyYards,
			NonOffensivePoints: acc.nonOffPoints,
		}
		if row.Team == "" {
			row.Team = id
		}
		if acc.startCoordN > 0 {
			avg := int(math.Round(float64(acc.startCoordSum) / float64(acc.startCoordN)))
			row.AvgStartFieldPos = FormatFieldPos(avg)
		}
		// Boxscore totals are authoritative for penalties when present.
		if c, ok := penCounts[id]; ok {
			row.PenaltyCount = c
			row.PenaltyYards = penYards[id]
		}
		rows = append(rows, row)
	}
	return models.VariantStats{Rows: rows, Details: v.details}
}

func (r *gameRun) headerScores() map[string]int {
	scores := make(map[string]int, 2)
	for _, comp := range r.game.Header.Competitions {
		for _, c := range comp.Competitors {
			id := c.Team.ID
			if id == "" {
				id = c.ID
			}
			if n, err := strconv.Atoi(c.Score); err == nil {
				scores[id] = n
			}
		}
	}
	return scores
}

// boxscorePenalties parses the "totalPenaltiesYards" entries, which use
// a "count-yards" display form like "7-65".
func (r *gameRun) boxscorePenalties() (counts, yards map[string]int) {
	counts = make(map[string]int, 2)
	yards = make(map[string]int, 2)
	for _, bt := range r.game.Boxscore.Teams {
		for _, st := range bt.Statistics {
			if st.Name != "totalPenaltiesYards" {
				continue
			}
			parts := strings.SplitN(st.DisplayValue, "-", 2)
			if len(parts) != 2 {
				continue
			}
			c, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
			y, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err1 != nil || err2 != nil {
				continue
			}
			counts[bt.Team.ID] = c
			yards[bt.Team.ID] = y
		}
	}
	return counts, yards
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

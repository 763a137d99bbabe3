package analysis

import (
	"strings"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
)

// TeamIndex resolves between the two competitors' ids and abbreviations.
// Built once per game from boxscore metadata, with header competitors as
// the fallback when the boxscore is sparse.
type TeamIndex struct {
	ids      []string
	idToAbbr map[string]string
	abbrToID map[string]string
}

// NewTeamIndex builds the index from the payload's team metadata. The
// returned id order is home first when home/away is known, otherwise
// feed order.
func NewTeamIndex(game *models.GamePackage) *TeamIndex {
	idx := &TeamIndex{
		idToAbbr: make(map[string]string, 2),
		abbrToID: make(map[string]string, 2),
	}
	add := func(id, abbr string) {
		if id == "" {
			return
		}
		if _, seen := idx.idToAbbr[id]; seen {
			return
		}
		idx.ids = append(idx.ids, id)
		idx.idToAbbr[id] = abbr
		if abbr != "" {
			idx.abbrToID[strings.ToLower(abbr)] = id
		}
	}

	var home, away *models.Competitor
	for i := range game.Header.Competitions {
		comp := &game.Header.Competitions[i]
		for j := range comp.Competitors {
			c := &comp.Competitors[j]
			switch c.HomeAway {
			case "home":
				home = c
			case "away":
				away = c
			}
		}
	}
	for _, c := range []*models.Competitor{home, away} {
		if c == nil {
			continue
		}
		id := c.Team.ID
		if id == "" {
			id = c.ID
		}
		add(id, c.Team.Abbreviation)
	}

	for i := range game.Boxscore.Teams {
		t := &game.Boxscore.Teams[i]
		add(t.Team.ID, t.Team.Abbreviation)
	}
	return idx
}

// IDs returns the team ids in stable order.
func (x *TeamIndex) IDs() []string { return x.ids }

// Abbr returns the abbreviation for a team id, or "".
func (x *TeamIndex) Abbr(teamID string) string { return x.idToAbbr[teamID] }

// ID resolves a lowercase abbreviation to a team id, or "".
func (x *TeamIndex) ID(abbrLower string) string { return x.abbrToID[abbrLower] }

// Opponent returns the other competitor's id, or "" when teamID is not
// one of the two teams.
func (x *TeamIndex) Opponent(teamID string) string {
	if len(x.ids) != 2 {
		return ""
	}
	switch teamID {
	case x.ids[0]:
		return x.ids[1]
	case x.ids[1]:
		return x.ids[0]
	}
	return ""
}

package analysis

import (
	"fmt"
	"strconv"
	"strings"
)

// YardlineToCoord converts a possession text like "SEA 24" into a 0-100
// coordinate measured from teamAbbr's own goal line. Returns false when
// the text is absent or not in the two-token "ABBR NN" form.
func YardlineToCoord(posText, teamAbbr string) (int, bool) {
	if posText == "" || teamAbbr == "" {
		return 0, false
	}
	parts := strings.Fields(strings.TrimSpace(posText))
	if len(parts) != 2 {
		return 0, false
	}
	yard, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	if strings.EqualFold(parts[0], teamAbbr) {
		return yard, true
	}
	return 100 - yard, true
}

// FormatFieldPos renders a 0-100 own-goal coordinate in the standard
// "Own N" / "Opp N" convention. Midfield is "Own 50".
func FormatFieldPos(coord int) string {
	if coord <= 50 {
		return fmt.Sprintf("Own %d", coord)
	}
	return fmt.Sprintf("Opp %d", 100-coord)
}

package models

// Scoreboard types for the league scoreboard feed.

// ScoreboardEvent is one game on the scoreboard.
type ScoreboardEvent struct {
	ID           string        `json:"id"`
	Name         string        `json:"name,omitempty"`
	ShortName    string        `json:"shortName,omitempty"`
	Date         string        `json:"date,omitempty"`
	Competitions []Competition `json:"competitions,omitempty"`
	Status       struct {
		Period       int    `json:"period,omitempty"`
		DisplayClock string `json:"displayClock,omitempty"`
		Type         struct {
			State       string `json:"state,omitempty"`
			Completed   bool   `json:"completed,omitempty"`
			Description string `json:"description,omitempty"`
			ShortDetail string `json:"shortDetail,omitempty"`
		} `json:"type"`
	} `json:"status"`
}

// Scoreboard is the league scoreboard payload.
type Scoreboard struct {
	Week struct {
		Number int `json:"number"`
	} `json:"week"`
	Season struct {
		Type int `json:"type"`
		Year int `json:"year"`
	} `json:"season"`
	Events []ScoreboardEvent `json:"events"`
}

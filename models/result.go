package models

import "time"

// Result существует только у матчей в статусах RESULT_SUBMITTED,
// CONFIRMED и DISPUTED (1:1 с Match).
type Result struct {
	ID        int  `json:"id" db:"id"`
	MatchID   int  `json:"match_id" db:"match_id"`
	HomeScore int  `json:"home_score" db:"home_score"`
	AwayScore int  `json:"away_score" db:"away_score"`
	ExtraTime bool `json:"extra_time" db:"extra_time"`
	Penalties bool `json:"penalties" db:"penalties"`
	// PenaltyWinnerTeamID задаётся при ничейном счёте в плей-офф,
	// когда победитель определён по пенальти.
	PenaltyWinnerTeamID *int `json:"penalty_winner_team_id,omitempty" db:"penalty_winner_team_id"`

	HomeConfirmed     bool `json:"home_confirmed" db:"home_confirmed"`
	AwayConfirmed     bool `json:"away_confirmed" db:"away_confirmed"`
	SubmittedByTeamID int  `json:"submitted_by_team_id" db:"submitted_by_team_id"`

	ScreenshotKey *string `json:"-" db:"screenshot_key"`
	ScreenshotURL *string `json:"screenshot_url,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ConfirmedBy сообщает, подтверждена ли сторона команды teamID
// (teamID должен быть одной из сторон матча).
func (r *Result) ConfirmedBy(m *Match, teamID int) bool {
	if teamID == m.HomeTeamID {
		return r.HomeConfirmed
	}
	if teamID == m.AwayTeamID {
		return r.AwayConfirmed
	}
	return false
}

// Winner возвращает ID победившей команды или nil при ничьей
// (групповой этап).
func (r *Result) Winner(m *Match) *int {
	switch {
	case r.HomeScore > r.AwayScore:
		return &m.HomeTeamID
	case r.AwayScore > r.HomeScore:
		return &m.AwayTeamID
	default:
		return r.PenaltyWinnerTeamID
	}
}

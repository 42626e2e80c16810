package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled       MatchStatus = "SCHEDULED"
	MatchStatusResultSubmitted MatchStatus = "RESULT_SUBMITTED"
	MatchStatusConfirmed       MatchStatus = "CONFIRMED"
	MatchStatusDisputed        MatchStatus = "DISPUTED"
)

type MatchStage string

const (
	StageGroup        MatchStage = "GROUP"
	StageRoundOf16    MatchStage = "RO16"
	StageQuarterFinal MatchStage = "QUARTER"
	StageSemiFinal    MatchStage = "SEMI"
	StageFinal        MatchStage = "FINAL"
)

// IsKnockout сообщает, относится ли стадия к плей-офф.
func (s MatchStage) IsKnockout() bool {
	return s != StageGroup
}

type Match struct {
	ID           int        `json:"id" db:"id"`
	Slug         string     `json:"slug" db:"slug"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	Stage        MatchStage `json:"stage" db:"stage"`
	// GroupNum заполняется только для матчей группового этапа.
	GroupNum   *int        `json:"group_num,omitempty" db:"group_num"`
	HomeTeamID int         `json:"home_team_id" db:"home_team_id"`
	AwayTeamID int         `json:"away_team_id" db:"away_team_id"`
	MatchDate  time.Time   `json:"match_date" db:"match_date"`
	Status     MatchStatus `json:"status" db:"status"`

	// Итоговый счёт копируется из Result при подтверждении.
	HomeScore    *int  `json:"home_score,omitempty" db:"home_score"`
	AwayScore    *int  `json:"away_score,omitempty" db:"away_score"`
	ExtraTime    bool  `json:"extra_time" db:"extra_time"`
	Penalties    bool  `json:"penalties" db:"penalties"`
	WinnerTeamID *int  `json:"winner_team_id,omitempty" db:"winner_team_id"`
	Version      int64 `json:"-" db:"version"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	HomeTeam *Team   `json:"home_team,omitempty" db:"-"`
	AwayTeam *Team   `json:"away_team,omitempty" db:"-"`
	Result   *Result `json:"result,omitempty" db:"-"`
}

// Involves сообщает, играет ли команда в этом матче.
func (m *Match) Involves(teamID int) bool {
	return m.HomeTeamID == teamID || m.AwayTeamID == teamID
}

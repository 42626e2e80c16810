package models

import "time"

// Доменные события, рассылаемые наружу при переходах состояний матча.

type MatchConfirmedEvent struct {
	MatchID      int       `json:"match_id"`
	TournamentID int       `json:"tournament_id"`
	HomeScore    int       `json:"home_score"`
	AwayScore    int       `json:"away_score"`
	Timestamp    time.Time `json:"timestamp"`
}

type MatchDisputedEvent struct {
	MatchID      int `json:"match_id"`
	TournamentID int `json:"tournament_id"`
	DisputerID   int `json:"disputer_id"`
}

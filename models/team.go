package models

import "time"

type Team struct {
	ID           int       `json:"id" db:"id"`
	Slug         string    `json:"slug" db:"slug"`
	Name         string    `json:"name" db:"name"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	ManagerID    int       `json:"manager_id" db:"manager_id"`
	PlayerCount  int       `json:"player_count" db:"player_count"`
	// RegistrationComplete является производным от PlayerCount и
	// пересчитывается при каждом изменении состава.
	RegistrationComplete bool `json:"registration_complete" db:"registration_complete"`
	// GroupNum назначается при старте группового этапа.
	GroupNum  *int      `json:"group_num,omitempty" db:"group_num"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Players []Player `json:"players,omitempty" db:"-"`
}

type Player struct {
	ID        int       `json:"id" db:"id"`
	TeamID    int       `json:"team_id" db:"team_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

package models

import "time"

// TournamentStatus соответствует ENUM tournament_status в БД.
type TournamentStatus string

const (
	TournamentStatusRegistration TournamentStatus = "REGISTRATION"
	TournamentStatusGroupStage   TournamentStatus = "GROUP_STAGE"
	TournamentStatusKnockout     TournamentStatus = "KNOCKOUT"
	TournamentStatusCompleted    TournamentStatus = "COMPLETED"
)

type Tournament struct {
	ID             int              `json:"id" db:"id"`
	Slug           string           `json:"slug" db:"slug"`
	Name           string           `json:"name" db:"name"`
	OrganizerID    int              `json:"organizer_id" db:"organizer_id"`
	StartDate      time.Time        `json:"start_date" db:"start_date"`
	NumberOfGroups int              `json:"number_of_groups" db:"number_of_groups"`
	TeamsPerGroup  int              `json:"teams_per_group" db:"teams_per_group"`
	Status         TournamentStatus `json:"status" db:"status"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Teams []Team `json:"teams,omitempty" db:"-"`
}

// Capacity возвращает требуемое число команд для старта группового этапа.
func (t *Tournament) Capacity() int {
	return t.NumberOfGroups * t.TeamsPerGroup
}

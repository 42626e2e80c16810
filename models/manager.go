package models

import "time"

// Manager — менеджер команды, действующее лицо всех операций движка.
type Manager struct {
	ID        int       `json:"id" db:"id"`
	Nickname  string    `json:"nickname" db:"nickname"`
	Email     string    `json:"email" db:"email"`
	PSNID     *string   `json:"psn_id,omitempty" db:"psn_id"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

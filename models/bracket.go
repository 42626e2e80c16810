package models

import "time"

type BracketNodeState string

const (
	// Источники узла ещё не определили обе команды.
	NodeStatePending BracketNodeState = "PENDING"
	// Обе команды известны, матч можно играть.
	NodeStateReady BracketNodeState = "READY"
	// Матч подтверждён, победитель передан родителю.
	NodeStateDecided BracketNodeState = "DECIDED"
)

// BracketNode — слот плей-офф сетки. Узлы хранятся ареной и ссылаются
// друг на друга по индексу, а не по указателю; корень арены — финал.
type BracketNode struct {
	ID           int              `json:"id" db:"id"`
	TournamentID int              `json:"tournament_id" db:"tournament_id"`
	Index        int              `json:"index" db:"node_index"`
	Round        int              `json:"round" db:"round"`
	Position     int              `json:"position" db:"position"`
	State        BracketNodeState `json:"state" db:"state"`

	// TeamID для листьев заполняется посевом, для внутренних узлов —
	// продвижением победителя; nil, пока не определён.
	TeamID *int `json:"team_id,omitempty" db:"team_id"`

	// Индексы дочерних узлов в арене; NoSource у посеянных листьев.
	SourceLeft  int `json:"source_left" db:"source_left"`
	SourceRight int `json:"source_right" db:"source_right"`

	// Матч, разыгрываемый между победителями источников.
	MatchID *int `json:"match_id,omitempty" db:"match_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NoSource отмечает отсутствие дочернего узла (посеянный лист).
const NoSource = -1

// IsLeaf сообщает, является ли узел посеянным листом.
func (n *BracketNode) IsLeaf() bool {
	return n.SourceLeft == NoSource && n.SourceRight == NoSource
}

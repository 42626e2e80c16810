package brackets

import (
	"github.com/joegr/fcdreams/models"
)

// Fixture — сгенерированная пара команд внутри группы, ещё не
// сохранённая как матч.
type Fixture struct {
	GroupNum     int
	HomeTeamID   int
	AwayTeamID   int
	OrderInGroup int
}

// Seed — команда, прошедшая в плей-офф: из какой группы и с каким
// местом она вышла.
type Seed struct {
	TeamID   int
	GroupNum int
	// Rank — место в группе, начиная с 1.
	Rank int
}

// FixtureGenerator порождает расписание матчей для набора команд
// одной группы.
type FixtureGenerator interface {
	GenerateFixtures(groupNum int, teams []*models.Team) ([]Fixture, error)

	GetName() string
}

package brackets

import (
	"fmt"

	"github.com/joegr/fcdreams/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() FixtureGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateFixtures строит однокруговое расписание: каждая команда
// группы играет с каждой ровно один раз. Хозяином назначается команда,
// стоящая раньше в переданном порядке.
func (g *RoundRobinGenerator) GenerateFixtures(groupNum int, teams []*models.Team) ([]Fixture, error) {
	if len(teams) < 2 {
		return nil, fmt.Errorf("RoundRobinGenerator: not enough teams in group %d (found %d, min 2 required)", groupNum, len(teams))
	}

	fixtures := make([]Fixture, 0, len(teams)*(len(teams)-1)/2)
	order := 0

	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			order++
			fixtures = append(fixtures, Fixture{
				GroupNum:     groupNum,
				HomeTeamID:   teams[i].ID,
				AwayTeamID:   teams[j].ID,
				OrderInGroup: order,
			})
		}
	}

	return fixtures, nil
}

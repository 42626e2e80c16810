package brackets

import (
	"errors"
	"math/bits"
	"sort"

	"github.com/joegr/fcdreams/models"
)

var ErrNotEnoughSeeds = errors.New("not enough seeds to build a knockout bracket (minimum 2)")

// SeedKnockout строит арену узлов плей-офф из команд, вышедших из
// групп. Листья (round 0) сразу DECIDED, матчи первого раунда READY,
// остальные PENDING. Узлы ссылаются друг на друга индексами арены;
// корень арены — финал.
//
// Посев, не дотягивающий до полной сетки, дополняется пустыми
// листьями: лучшие по рейтингу команды получают бай и проходят первый
// раунд без игры. Пары первого раунда полной сетки составляются
// кросс-группово (победитель группы против второго места соседней
// группы), чтобы команды одной группы не встречались в первом же
// раунде.
func SeedKnockout(tournamentID int, seeds []Seed) ([]*models.BracketNode, error) {
	n := len(seeds)
	if n < 2 {
		return nil, ErrNotEnoughSeeds
	}

	numRounds := bits.Len(uint(n - 1))
	size := 1 << numRounds
	slots := orderSlots(seeds, size)

	nodes := make([]*models.BracketNode, 0, 2*size-1)

	// Листья: посеянные команды; nil-слот — бай.
	for i, seed := range slots {
		node := &models.BracketNode{
			TournamentID: tournamentID,
			Index:        i,
			Round:        0,
			Position:     i,
			State:        models.NodeStateDecided,
			SourceLeft:   models.NoSource,
			SourceRight:  models.NoSource,
		}
		if seed != nil {
			teamID := seed.TeamID
			node.TeamID = &teamID
		}
		nodes = append(nodes, node)
	}

	// Внутренние узлы раунд за раундом; дети раунда r-1 лежат подряд,
	// узел p забирает детей 2p и 2p+1. Состояние выводится из детей:
	// оба решены с командами — READY, решённый сосед бая проходит
	// дальше сразу DECIDED.
	prevOffset := 0
	prevCount := size
	for r := 1; r <= numRounds; r++ {
		count := prevCount / 2
		offset := len(nodes)
		for p := 0; p < count; p++ {
			left := nodes[prevOffset+2*p]
			right := nodes[prevOffset+2*p+1]
			node := &models.BracketNode{
				TournamentID: tournamentID,
				Index:        offset + p,
				Round:        r,
				Position:     p,
				State:        models.NodeStatePending,
				SourceLeft:   left.Index,
				SourceRight:  right.Index,
			}
			if left.State == models.NodeStateDecided && right.State == models.NodeStateDecided {
				switch {
				case left.TeamID == nil:
					node.State = models.NodeStateDecided
					node.TeamID = right.TeamID
				case right.TeamID == nil:
					node.State = models.NodeStateDecided
					node.TeamID = left.TeamID
				default:
					node.State = models.NodeStateReady
				}
			}
			nodes = append(nodes, node)
		}
		prevOffset = offset
		prevCount = count
	}

	return nodes, nil
}

// orderSlots раскладывает посев по size листьям. Полная сетка отдаётся
// orderSeeds; неполная сеется змейкой по общему рейтингу, и пустые
// позиции (баи) достаются сильнейшим — бай никогда не встречает бай.
func orderSlots(seeds []Seed, size int) []*Seed {
	if len(seeds) == size {
		ordered := orderSeeds(seeds)
		slots := make([]*Seed, size)
		for i := range ordered {
			slots[i] = &ordered[i]
		}
		return slots
	}

	ranked := make([]Seed, len(seeds))
	copy(ranked, seeds)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Rank != ranked[j].Rank {
			return ranked[i].Rank < ranked[j].Rank
		}
		return ranked[i].GroupNum < ranked[j].GroupNum
	})

	seedAt := func(i int) *Seed {
		if i >= len(ranked) {
			return nil
		}
		return &ranked[i]
	}

	slots := make([]*Seed, 0, size)
	for i := 0; i < size/2; i++ {
		slots = append(slots, seedAt(i), seedAt(size-1-i))
	}
	return slots
}

// orderSeeds выкладывает посев в порядок листьев. Для двух выходящих
// из группы и чётного числа групп пары соседних групп скрещиваются:
// A1–B2, B1–A2. В остальных случаях используется змейка по общему
// рейтингу (лучший против худшего).
func orderSeeds(seeds []Seed) []Seed {
	byGroup := make(map[int][]Seed)
	groups := make([]int, 0)
	for _, s := range seeds {
		if _, ok := byGroup[s.GroupNum]; !ok {
			groups = append(groups, s.GroupNum)
		}
		byGroup[s.GroupNum] = append(byGroup[s.GroupNum], s)
	}
	sort.Ints(groups)
	for _, g := range groups {
		group := byGroup[g]
		sort.Slice(group, func(i, j int) bool { return group[i].Rank < group[j].Rank })
	}

	perGroup := len(seeds) / len(groups)
	if perGroup == 2 && len(groups)%2 == 0 {
		ordered := make([]Seed, 0, len(seeds))
		for i := 0; i < len(groups); i += 2 {
			g1 := byGroup[groups[i]]
			g2 := byGroup[groups[i+1]]
			ordered = append(ordered, g1[0], g2[1], g2[0], g1[1])
		}
		return ordered
	}

	ranked := make([]Seed, len(seeds))
	copy(ranked, seeds)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Rank != ranked[j].Rank {
			return ranked[i].Rank < ranked[j].Rank
		}
		return ranked[i].GroupNum < ranked[j].GroupNum
	})

	ordered := make([]Seed, 0, len(seeds))
	for i := 0; i < len(ranked)/2; i++ {
		ordered = append(ordered, ranked[i], ranked[len(ranked)-1-i])
	}
	return ordered
}

// FindParent возвращает узел, для которого idx является источником,
// или nil для корня.
func FindParent(nodes []*models.BracketNode, idx int) *models.BracketNode {
	for _, n := range nodes {
		if n.SourceLeft == idx || n.SourceRight == idx {
			return n
		}
	}
	return nil
}

// NumRounds возвращает номер раунда корня арены.
func NumRounds(nodes []*models.BracketNode) int {
	max := 0
	for _, n := range nodes {
		if n.Round > max {
			max = n.Round
		}
	}
	return max
}

// StageForRound переводит раунд арены в стадию матча; последний раунд
// всегда финал.
func StageForRound(round, totalRounds int) models.MatchStage {
	switch totalRounds - round {
	case 0:
		return models.StageFinal
	case 1:
		return models.StageSemiFinal
	case 2:
		return models.StageQuarterFinal
	default:
		return models.StageRoundOf16
	}
}

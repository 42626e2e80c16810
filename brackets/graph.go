// Структурная проверка арены плей-офф поверх модуля graph.
package brackets

import (
	"errors"
	"fmt"

	"github.com/dominikbraun/graph"
	"github.com/joegr/fcdreams/models"
)

var (
	ErrBracketCyclic        = errors.New("bracket arena contains a cycle")
	ErrBracketMultipleRoots = errors.New("bracket arena must have exactly one root")
	ErrBracketBrokenPath    = errors.New("bracket node must feed exactly one parent")
	ErrBracketDuplicateSeed = errors.New("team occupies more than one bracket leaf")
)

// Validate проверяет инварианты арены: ацикличность, единственный
// корень, ровно один путь от каждого узла к корню и отсутствие
// команды на двух листьях.
func Validate(nodes []*models.BracketNode) error {
	g := graph.New(graph.IntHash, graph.Directed(), graph.PreventCycles())

	for _, n := range nodes {
		if err := g.AddVertex(n.Index); err != nil {
			return fmt.Errorf("bracket node %d: %w", n.Index, err)
		}
	}

	// Рёбра направлены от источника к родителю — по пути продвижения
	// победителя.
	for _, n := range nodes {
		for _, src := range []int{n.SourceLeft, n.SourceRight} {
			if src == models.NoSource {
				continue
			}
			if err := g.AddEdge(src, n.Index); err != nil {
				if errors.Is(err, graph.ErrEdgeCreatesCycle) {
					return fmt.Errorf("%w: edge %d -> %d", ErrBracketCyclic, src, n.Index)
				}
				return fmt.Errorf("bracket edge %d -> %d: %w", src, n.Index, err)
			}
		}
	}

	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return err
	}

	roots := 0
	for _, n := range nodes {
		outDegree := len(adjacency[n.Index])
		switch outDegree {
		case 0:
			roots++
		case 1:
			// Единственный путь наверх.
		default:
			return fmt.Errorf("%w: node %d feeds %d parents", ErrBracketBrokenPath, n.Index, outDegree)
		}
	}
	if roots != 1 {
		return fmt.Errorf("%w: found %d", ErrBracketMultipleRoots, roots)
	}

	seen := make(map[int]int)
	for _, n := range nodes {
		if !n.IsLeaf() || n.TeamID == nil {
			continue
		}
		if prev, ok := seen[*n.TeamID]; ok {
			return fmt.Errorf("%w: team %d on leaves %d and %d", ErrBracketDuplicateSeed, *n.TeamID, prev, n.Index)
		}
		seen[*n.TeamID] = n.Index
	}

	return nil
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joegr/fcdreams/brackets"
	"github.com/joegr/fcdreams/config"
	"github.com/joegr/fcdreams/models"
	"github.com/joegr/fcdreams/repositories"
)

// BracketService сеет плей-офф сетку из итоговых таблиц групп и
// продвигает победителей по ней.
type BracketService interface {
	SeedFromStandings(ctx context.Context, tournamentID int) ([]*models.BracketNode, error)
	AdvanceWinner(ctx context.Context, match *models.Match) error
	GetBracket(ctx context.Context, tournamentID int) ([]*models.BracketNode, error)
}

type bracketService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	standingRepo   repositories.StandingRepository
	bracketRepo    repositories.BracketRepository
	rules          config.Rules
	logger         *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	bracketRepo repositories.BracketRepository,
	rules config.Rules,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		db:             db,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		standingRepo:   standingRepo,
		bracketRepo:    bracketRepo,
		rules:          rules,
		logger:         logger,
	}
}

// SeedFromStandings строит сетку из топ-N каждой группы. Допустимо
// только после подтверждения всех матчей группового этапа.
func (s *bracketService) SeedFromStandings(ctx context.Context, tournamentID int) ([]*models.BracketNode, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	unconfirmed, err := s.matchRepo.CountUnconfirmedGroupMatches(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if unconfirmed > 0 {
		return nil, fmt.Errorf("%w: %d group matches unconfirmed", ErrGroupStageIncomplete, unconfirmed)
	}

	seeds := make([]brackets.Seed, 0, tournament.NumberOfGroups*s.rules.QualifiersPerGroup)
	for groupNum := 1; groupNum <= tournament.NumberOfGroups; groupNum++ {
		rows, err := s.standingRepo.ListByGroup(ctx, tournamentID, groupNum)
		if err != nil {
			return nil, err
		}
		if len(rows) < s.rules.QualifiersPerGroup {
			return nil, fmt.Errorf("%w: group %d has %d ranked teams", ErrGroupStageIncomplete, groupNum, len(rows))
		}
		for _, row := range rows[:s.rules.QualifiersPerGroup] {
			seeds = append(seeds, brackets.Seed{
				TeamID:   row.TeamID,
				GroupNum: groupNum,
				Rank:     row.Rank,
			})
		}
	}

	nodes, err := brackets.SeedKnockout(tournamentID, seeds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if err := brackets.Validate(nodes); err != nil {
		return nil, err
	}

	// Матчи первого раунда создаются сразу: оба источника у READY
	// узлов уже определены.
	totalRounds := brackets.NumRounds(nodes)
	err = withTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		for _, node := range nodes {
			if node.State != models.NodeStateReady {
				continue
			}
			match, err := s.createNodeMatch(ctx, exec, nodes, node, totalRounds)
			if err != nil {
				return err
			}
			node.MatchID = &match.ID
		}
		return s.bracketRepo.ReplaceAll(ctx, exec, tournamentID, nodes)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bracket seeded",
		slog.Int("tournament_id", tournamentID),
		slog.Int("seeds", len(seeds)),
		slog.Int("rounds", totalRounds),
	)
	return nodes, nil
}

// AdvanceWinner продвигает победителя подтверждённого матча плей-офф
// на один уровень вверх: узел матча становится DECIDED, родитель
// получает команду и, когда решены оба источника, матч.
func (s *bracketService) AdvanceWinner(ctx context.Context, match *models.Match) error {
	if match.WinnerTeamID == nil {
		return ErrNoWinnerDeterminable
	}

	nodes, err := s.bracketRepo.ListByTournament(ctx, match.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrBracketNotSeeded) {
			return ErrBracketIncomplete
		}
		return err
	}

	var node *models.BracketNode
	for _, n := range nodes {
		if n.MatchID != nil && *n.MatchID == match.ID {
			node = n
			break
		}
	}
	if node == nil {
		return fmt.Errorf("%w: match %d has no bracket node", ErrInvalidState, match.ID)
	}
	if node.State == models.NodeStateDecided {
		// Повтор продвижения того же матча — no-op.
		return nil
	}

	node.State = models.NodeStateDecided
	node.TeamID = match.WinnerTeamID

	parent := brackets.FindParent(nodes, node.Index)
	totalRounds := brackets.NumRounds(nodes)

	return withTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		if err := s.bracketRepo.Update(ctx, exec, node); err != nil {
			return err
		}
		if parent == nil {
			// Финал решён; завершение турнира — забота вызывающего.
			return nil
		}

		left, right := nodeByIndex(nodes, parent.SourceLeft), nodeByIndex(nodes, parent.SourceRight)
		if left == nil || right == nil {
			return fmt.Errorf("%w: node %d has missing sources", ErrInvalidState, parent.Index)
		}
		if left.State != models.NodeStateDecided || right.State != models.NodeStateDecided {
			return nil
		}

		parent.State = models.NodeStateReady
		parentMatch, err := s.createNodeMatch(ctx, exec, nodes, parent, totalRounds)
		if err != nil {
			return err
		}
		parent.MatchID = &parentMatch.ID
		return s.bracketRepo.Update(ctx, exec, parent)
	})
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID int) ([]*models.BracketNode, error) {
	nodes, err := s.bracketRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrBracketNotSeeded) {
			return nil, ErrBracketIncomplete
		}
		return nil, err
	}
	return nodes, nil
}

// createNodeMatch создаёт матч плей-офф между победителями источников
// узла. Узел обязан быть READY.
func (s *bracketService) createNodeMatch(ctx context.Context, exec repositories.SQLExecutor, nodes []*models.BracketNode, node *models.BracketNode, totalRounds int) (*models.Match, error) {
	left, right := nodeByIndex(nodes, node.SourceLeft), nodeByIndex(nodes, node.SourceRight)
	if left == nil || right == nil || left.TeamID == nil || right.TeamID == nil {
		return nil, fmt.Errorf("%w: node %d is not ready for a match", ErrInvalidState, node.Index)
	}

	stage := brackets.StageForRound(node.Round, totalRounds)
	match := &models.Match{
		Slug:         models.NewSlug("match", string(stage)),
		TournamentID: node.TournamentID,
		Stage:        stage,
		HomeTeamID:   *left.TeamID,
		AwayTeamID:   *right.TeamID,
		MatchDate:    time.Now().UTC().Add(time.Duration(node.Round) * 24 * time.Hour),
		Status:       models.MatchStatusScheduled,
	}
	if err := s.matchRepo.Create(ctx, exec, match); err != nil {
		return nil, mapMatchRepoError(err)
	}
	return match, nil
}

func nodeByIndex(nodes []*models.BracketNode, idx int) *models.BracketNode {
	if idx == models.NoSource {
		return nil
	}
	for _, n := range nodes {
		if n.Index == idx {
			return n
		}
	}
	return nil
}

package services

import (
	"context"
	"sort"

	"github.com/joegr/fcdreams/models"
	"github.com/joegr/fcdreams/repositories"
)

// MatchService — запросы менеджера по его матчам.
type MatchService interface {
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	// ListPendingConfirmations возвращает матчи, ожидающие
	// подтверждения именно со стороны этого менеджера.
	ListPendingConfirmations(ctx context.Context, managerID int) ([]*models.Match, error)
	ListUpcomingMatches(ctx context.Context, managerID int) ([]*models.Match, error)
}

type matchService struct {
	matchRepo  repositories.MatchRepository
	resultRepo repositories.ResultRepository
	teamRepo   repositories.TeamRepository
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	resultRepo repositories.ResultRepository,
	teamRepo repositories.TeamRepository,
) MatchService {
	return &matchService{
		matchRepo:  matchRepo,
		resultRepo: resultRepo,
		teamRepo:   teamRepo,
	}
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	if match.Status != models.MatchStatusScheduled {
		result, err := s.resultRepo.GetByMatch(ctx, matchID)
		if err == nil {
			match.Result = result
		}
	}
	return match, nil
}

func (s *matchService) ListPendingConfirmations(ctx context.Context, managerID int) ([]*models.Match, error) {
	teams, err := s.teamRepo.ListByManager(ctx, managerID)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}
	if len(teams) == 0 {
		return nil, nil
	}

	matches, err := s.matchRepo.ListByTeams(ctx, teamIDs(teams), models.MatchStatusResultSubmitted)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}

	mine := make(map[int]bool, len(teams))
	for _, t := range teams {
		mine[t.ID] = true
	}

	pending := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		result, err := s.resultRepo.GetByMatch(ctx, m.ID)
		if err != nil {
			continue
		}
		// Матч ждёт менеджера, если его сторона ещё не подтвердила.
		waiting := (mine[m.HomeTeamID] && !result.HomeConfirmed) ||
			(mine[m.AwayTeamID] && !result.AwayConfirmed)
		if waiting {
			m.Result = result
			pending = append(pending, m)
		}
	}
	return pending, nil
}

func (s *matchService) ListUpcomingMatches(ctx context.Context, managerID int) ([]*models.Match, error) {
	teams, err := s.teamRepo.ListByManager(ctx, managerID)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}
	if len(teams) == 0 {
		return nil, nil
	}

	matches, err := s.matchRepo.ListByTeams(ctx, teamIDs(teams), models.MatchStatusScheduled)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].MatchDate.Before(matches[j].MatchDate)
	})
	return matches, nil
}

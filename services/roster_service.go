package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/joegr/fcdreams/config"
	"github.com/joegr/fcdreams/models"
	"github.com/joegr/fcdreams/repositories"
)

// RosterService ведёт заявку команды: добавление и удаление игроков
// с поддержанием производного флага завершённости регистрации.
type RosterService interface {
	RegisterPlayer(ctx context.Context, teamID, actorID int, playerName string) (*models.Player, error)
	RemovePlayer(ctx context.Context, teamID, actorID, playerID int) error
	IsRegistrationComplete(ctx context.Context, teamID int) (bool, error)
	ListRoster(ctx context.Context, teamID int) ([]*models.Player, error)
}

type rosterService struct {
	teamRepo   repositories.TeamRepository
	playerRepo repositories.PlayerRepository
	rules      config.Rules
}

func NewRosterService(
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	rules config.Rules,
) RosterService {
	return &rosterService{
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		rules:      rules,
	}
}

func (s *rosterService) RegisterPlayer(ctx context.Context, teamID, actorID int, playerName string) (*models.Player, error) {
	if playerName == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrValidationFailed)
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}
	if team.ManagerID != actorID {
		return nil, ErrNotTeamManager
	}

	if team.PlayerCount >= s.rules.RosterMax {
		return nil, fmt.Errorf("%w: maximum is %d players", ErrRosterFull, s.rules.RosterMax)
	}

	player := &models.Player{TeamID: teamID, Name: playerName}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, err
	}

	if err := s.syncRoster(ctx, team, team.PlayerCount+1); err != nil {
		return nil, err
	}
	return player, nil
}

func (s *rosterService) RemovePlayer(ctx context.Context, teamID, actorID, playerID int) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return mapTeamRepoError(err)
	}
	if team.ManagerID != actorID {
		return ErrNotTeamManager
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}
	if player.TeamID != teamID {
		return ErrPlayerNotFound
	}

	if err := s.playerRepo.Delete(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}

	return s.syncRoster(ctx, team, team.PlayerCount-1)
}

func (s *rosterService) IsRegistrationComplete(ctx context.Context, teamID int) (bool, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return false, mapTeamRepoError(err)
	}
	return team.RegistrationComplete, nil
}

func (s *rosterService) ListRoster(ctx context.Context, teamID int) ([]*models.Player, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		return nil, mapTeamRepoError(err)
	}
	return s.playerRepo.ListByTeam(ctx, teamID)
}

// syncRoster записывает новый размер заявки вместе с производным
// флагом завершённости (RosterMin <= count <= RosterMax).
func (s *rosterService) syncRoster(ctx context.Context, team *models.Team, newCount int) error {
	complete := newCount >= s.rules.RosterMin && newCount <= s.rules.RosterMax
	if err := s.teamRepo.UpdateRoster(ctx, team.ID, newCount, complete); err != nil {
		return mapTeamRepoError(err)
	}
	team.PlayerCount = newCount
	team.RegistrationComplete = complete
	return nil
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joegr/fcdreams/brackets"
	"github.com/joegr/fcdreams/config"
	"github.com/joegr/fcdreams/models"
	"github.com/joegr/fcdreams/repositories"
)

// TournamentService ведёт жизненный цикл турнира:
// REGISTRATION -> GROUP_STAGE -> KNOCKOUT -> COMPLETED.
type TournamentService interface {
	CreateTournament(ctx context.Context, organizerID int, name string, startDate time.Time, numberOfGroups, teamsPerGroup int) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error)
	// StartGroupStage распределяет команды по группам и создаёт все
	// матчи группового этапа.
	StartGroupStage(ctx context.Context, tournamentID, actorID int) error

	ProgressionHandler
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	standings      StandingsService
	bracket        BracketService
	fixtureGen     brackets.FixtureGenerator
	rules          config.Rules
	logger         *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	standings StandingsService,
	bracket BracketService,
	fixtureGen brackets.FixtureGenerator,
	rules config.Rules,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		standings:      standings,
		bracket:        bracket,
		fixtureGen:     fixtureGen,
		rules:          rules,
		logger:         logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, organizerID int, name string, startDate time.Time, numberOfGroups, teamsPerGroup int) (*models.Tournament, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if numberOfGroups < 1 || teamsPerGroup < 2 {
		return nil, fmt.Errorf("%w: need at least 1 group of 2 teams", ErrValidationFailed)
	}

	tournament := &models.Tournament{
		Slug:           models.NewSlug("tournament", name),
		Name:           name,
		OrganizerID:    organizerID,
		StartDate:      startDate,
		NumberOfGroups: numberOfGroups,
		TeamsPerGroup:  teamsPerGroup,
		Status:         models.TournamentStatusRegistration,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentSlugConflict) {
			return nil, fmt.Errorf("%w: tournament slug already taken", ErrValidationFailed)
		}
		return nil, err
	}
	s.logger.Info("tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.String("slug", tournament.Slug),
	)
	return tournament, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error) {
	return s.tournamentRepo.List(ctx, status)
}

func (s *tournamentService) StartGroupStage(ctx context.Context, tournamentID, actorID int) error {
	tournament, err := s.GetTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.OrganizerID != actorID {
		return ErrNotTournamentOwner
	}
	if tournament.Status != models.TournamentStatusRegistration {
		return fmt.Errorf("%w: tournament is %s", ErrTournamentWrongStatus, tournament.Status)
	}

	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID, true)
	if err != nil {
		return mapTeamRepoError(err)
	}
	if len(teams) != tournament.Capacity() {
		return fmt.Errorf("%w: %d of %d complete teams registered",
			ErrGroupStageNotReady, len(teams), tournament.Capacity())
	}

	// Жеребьёвка детерминирована турниром: повторный вызов после сбоя
	// даёт те же группы.
	brackets.SeededShuffle(teams, int64(tournament.ID))

	err = withTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		for i, team := range teams {
			groupNum := i/tournament.TeamsPerGroup + 1
			if err := s.teamRepo.AssignGroup(ctx, exec, team.ID, groupNum); err != nil {
				return mapTeamRepoError(err)
			}
			num := groupNum
			team.GroupNum = &num
		}

		for groupNum := 1; groupNum <= tournament.NumberOfGroups; groupNum++ {
			groupTeams := make([]*models.Team, 0, tournament.TeamsPerGroup)
			for _, team := range teams {
				if team.GroupNum != nil && *team.GroupNum == groupNum {
					groupTeams = append(groupTeams, team)
				}
			}
			fixtures, err := s.fixtureGen.GenerateFixtures(groupNum, groupTeams)
			if err != nil {
				return err
			}
			for _, fx := range fixtures {
				num := fx.GroupNum
				match := &models.Match{
					Slug:         models.NewSlug("match", fmt.Sprintf("group%d", fx.GroupNum)),
					TournamentID: tournamentID,
					Stage:        models.StageGroup,
					GroupNum:     &num,
					HomeTeamID:   fx.HomeTeamID,
					AwayTeamID:   fx.AwayTeamID,
					MatchDate:    tournament.StartDate.Add(time.Duration(fx.OrderInGroup) * 24 * time.Hour),
					Status:       models.MatchStatusScheduled,
				}
				if err := s.matchRepo.Create(ctx, exec, match); err != nil {
					return mapMatchRepoError(err)
				}
			}
		}

		return s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.TournamentStatusGroupStage)
	})
	if err != nil {
		return err
	}

	s.logger.Info("group stage started",
		slog.Int("tournament_id", tournamentID),
		slog.Int("groups", tournament.NumberOfGroups),
		slog.String("generator", s.fixtureGen.GetName()),
	)
	return nil
}

// HandleConfirmedMatch — единая точка прогрессии турнира после
// подтверждения матча: пересчёт таблицы, посев сетки по завершении
// группового этапа, продвижение победителя в плей-офф.
func (s *tournamentService) HandleConfirmedMatch(ctx context.Context, match *models.Match, result *models.Result) error {
	if match.Stage == models.StageGroup {
		return s.handleConfirmedGroupMatch(ctx, match)
	}

	if err := s.bracket.AdvanceWinner(ctx, match); err != nil {
		return err
	}
	if match.Stage == models.StageFinal {
		if err := s.tournamentRepo.UpdateStatus(ctx, nil, match.TournamentID, models.TournamentStatusCompleted); err != nil {
			return err
		}
		s.logger.Info("tournament completed",
			slog.Int("tournament_id", match.TournamentID),
			slog.Any("winner_team_id", match.WinnerTeamID),
		)
	}
	return nil
}

func (s *tournamentService) handleConfirmedGroupMatch(ctx context.Context, match *models.Match) error {
	if match.GroupNum == nil {
		return fmt.Errorf("%w: group match %d has no group", ErrInvalidState, match.ID)
	}
	if err := s.standings.RecomputeGroup(ctx, match.TournamentID, *match.GroupNum); err != nil {
		return err
	}

	unconfirmed, err := s.matchRepo.CountUnconfirmedGroupMatches(ctx, match.TournamentID)
	if err != nil {
		return err
	}
	if unconfirmed > 0 {
		return nil
	}

	// Последний матч группового этапа: сеем плей-офф.
	if _, err := s.bracket.SeedFromStandings(ctx, match.TournamentID); err != nil {
		return err
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, nil, match.TournamentID, models.TournamentStatusKnockout); err != nil {
		return err
	}
	s.logger.Info("knockout stage started", slog.Int("tournament_id", match.TournamentID))
	return nil
}

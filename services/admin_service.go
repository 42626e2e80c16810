package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/joegr/fcdreams/config"
	"github.com/joegr/fcdreams/models"
	"github.com/joegr/fcdreams/repositories"
)

// AdminService — разбор оспоренных матчей. Операции доступны только
// менеджерам с правами администратора.
type AdminService interface {
	// ReopenMatch сбрасывает DISPUTED матч в SCHEDULED: результат
	// удаляется, стороны отправляют счёт заново.
	ReopenMatch(ctx context.Context, matchID, actorID int) error
	// ForceConfirm закрывает спор решением администратора: матч
	// подтверждается с указанным счётом и проходит обычный путь
	// пересчёта.
	ForceConfirm(ctx context.Context, matchID, actorID int, submission ResultSubmission) (*models.Match, error)
}

type adminService struct {
	db          *sql.DB
	matchRepo   repositories.MatchRepository
	resultRepo  repositories.ResultRepository
	managerRepo repositories.ManagerRepository
	locks       *KeyedLock
	rules       config.Rules
	notifier    Notifier
	progression ProgressionHandler
	logger      *slog.Logger
}

func NewAdminService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	resultRepo repositories.ResultRepository,
	managerRepo repositories.ManagerRepository,
	locks *KeyedLock,
	rules config.Rules,
	notifier Notifier,
	progression ProgressionHandler,
	logger *slog.Logger,
) AdminService {
	return &adminService{
		db:          db,
		matchRepo:   matchRepo,
		resultRepo:  resultRepo,
		managerRepo: managerRepo,
		locks:       locks,
		rules:       rules,
		notifier:    notifier,
		progression: progression,
		logger:      logger,
	}
}

func (s *adminService) requireAdmin(ctx context.Context, actorID int) error {
	manager, err := s.managerRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrManagerNotFound) {
			return ErrManagerNotFound
		}
		return err
	}
	if !manager.IsAdmin {
		return ErrAdminOnly
	}
	return nil
}

func (s *adminService) ReopenMatch(ctx context.Context, matchID, actorID int) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}

	release, err := s.locks.Acquire(ctx, matchID, s.rules.LockTimeout)
	if err != nil {
		return err
	}
	defer release()

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return mapMatchRepoError(err)
	}
	if match.Status != models.MatchStatusDisputed {
		return ErrMatchNotDisputed
	}

	err = withTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		if err := s.resultRepo.DeleteByMatch(ctx, exec, matchID); err != nil {
			return err
		}
		return s.matchRepo.UpdateStatus(ctx, exec, matchID, match.Version, models.MatchStatusScheduled)
	})
	if err != nil {
		return mapMatchRepoError(err)
	}

	s.logger.Info("match reopened",
		slog.Int("match_id", matchID),
		slog.Int("admin_id", actorID),
	)
	return nil
}

func (s *adminService) ForceConfirm(ctx context.Context, matchID, actorID int, submission ResultSubmission) (*models.Match, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, matchID, s.rules.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	if match.Status != models.MatchStatusDisputed {
		return nil, ErrMatchNotDisputed
	}

	if err := validateSubmission(s.rules, match, submission); err != nil {
		return nil, err
	}

	// Спорный результат заменяется решением администратора; обе
	// стороны считаются подтверждёнными.
	result := &models.Result{
		MatchID:             matchID,
		HomeScore:           submission.HomeScore,
		AwayScore:           submission.AwayScore,
		ExtraTime:           submission.ExtraTime,
		Penalties:           submission.Penalties,
		PenaltyWinnerTeamID: submission.PenaltyWinnerTeamID,
		HomeConfirmed:       true,
		AwayConfirmed:       true,
		SubmittedByTeamID:   match.HomeTeamID,
	}

	match.HomeScore = &result.HomeScore
	match.AwayScore = &result.AwayScore
	match.ExtraTime = result.ExtraTime
	match.Penalties = result.Penalties
	match.WinnerTeamID = result.Winner(match)

	err = withTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		if err := s.resultRepo.DeleteByMatch(ctx, exec, matchID); err != nil {
			return err
		}
		if err := s.resultRepo.Create(ctx, exec, result); err != nil {
			return err
		}
		return s.matchRepo.Confirm(ctx, exec, match)
	})
	if err != nil {
		return nil, mapMatchRepoError(err)
	}

	if s.progression != nil {
		if err := s.progression.HandleConfirmedMatch(ctx, match, result); err != nil {
			return nil, err
		}
	}

	notifyConfirmed(s.notifier, models.MatchConfirmedEvent{
		MatchID:      match.ID,
		TournamentID: match.TournamentID,
		HomeScore:    result.HomeScore,
		AwayScore:    result.AwayScore,
		Timestamp:    time.Now().UTC(),
	})

	s.logger.Warn("match force-confirmed",
		slog.Int("match_id", matchID),
		slog.Int("admin_id", actorID),
	)
	return match, nil
}

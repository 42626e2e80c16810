package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/joegr/fcdreams/config"
	"github.com/joegr/fcdreams/models"
	"github.com/joegr/fcdreams/repositories"
	"github.com/joegr/fcdreams/storage"
)

// ResultSubmission — счёт, заявленный менеджером одной из сторон.
type ResultSubmission struct {
	HomeScore int  `json:"home_score"`
	AwayScore int  `json:"away_score"`
	ExtraTime bool `json:"extra_time"`
	Penalties bool `json:"penalties"`
	// PenaltyWinnerTeamID обязателен при ничейном счёте в плей-офф.
	PenaltyWinnerTeamID *int `json:"penalty_winner_team_id,omitempty"`
}

// ScoreClaim — счёт, который подтверждающая сторона считает верным.
// Несовпадение с сохранённым результатом отклоняется: счёт неизменяем
// после отправки, несогласие выражается диспутом.
type ScoreClaim struct {
	HomeScore int `json:"home_score"`
	AwayScore int `json:"away_score"`
}

// ProgressionHandler вызывается ровно один раз на каждый переход
// матча в CONFIRMED, до возврата из подтверждающей операции.
type ProgressionHandler interface {
	HandleConfirmedMatch(ctx context.Context, match *models.Match, result *models.Result) error
}

// ResultService реализует конечный автомат подтверждения результата:
// SCHEDULED -> RESULT_SUBMITTED -> CONFIRMED с веткой DISPUTED.
type ResultService interface {
	SubmitResult(ctx context.Context, matchID, actorID int, submission ResultSubmission) (*models.Result, error)
	ConfirmResult(ctx context.Context, matchID, actorID int, claim *ScoreClaim) (*models.Match, error)
	DisputeResult(ctx context.Context, matchID, actorID int) error
	AttachScreenshot(ctx context.Context, matchID, actorID int, contentType string, data io.Reader) (*models.Result, error)
}

type resultService struct {
	db          *sql.DB
	matchRepo   repositories.MatchRepository
	resultRepo  repositories.ResultRepository
	teamRepo    repositories.TeamRepository
	locks       *KeyedLock
	rules       config.Rules
	notifier    Notifier
	progression ProgressionHandler
	uploader    storage.FileUploader
	logger      *slog.Logger
}

func NewResultService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	resultRepo repositories.ResultRepository,
	teamRepo repositories.TeamRepository,
	locks *KeyedLock,
	rules config.Rules,
	notifier Notifier,
	progression ProgressionHandler,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		db:          db,
		matchRepo:   matchRepo,
		resultRepo:  resultRepo,
		teamRepo:    teamRepo,
		locks:       locks,
		rules:       rules,
		notifier:    notifier,
		progression: progression,
		uploader:    uploader,
		logger:      logger,
	}
}

func (s *resultService) SubmitResult(ctx context.Context, matchID, actorID int, submission ResultSubmission) (*models.Result, error) {
	release, err := s.locks.Acquire(ctx, matchID, s.rules.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}

	switch match.Status {
	case models.MatchStatusScheduled:
		// Единственный допустимый статус для отправки.
	case models.MatchStatusDisputed:
		return nil, ErrMatchDisputed
	default:
		return nil, ErrMatchNotScheduled
	}

	submitter, err := managedSide(ctx, s.teamRepo, match, actorID)
	if err != nil {
		return nil, err
	}

	if err := validateSubmission(s.rules, match, submission); err != nil {
		return nil, err
	}

	submitterConfirmed := !s.rules.RequireBothConfirmations
	result := &models.Result{
		MatchID:             matchID,
		HomeScore:           submission.HomeScore,
		AwayScore:           submission.AwayScore,
		ExtraTime:           submission.ExtraTime,
		Penalties:           submission.Penalties,
		PenaltyWinnerTeamID: submission.PenaltyWinnerTeamID,
		HomeConfirmed:       submitterConfirmed && submitter.ID == match.HomeTeamID,
		AwayConfirmed:       submitterConfirmed && submitter.ID == match.AwayTeamID,
		SubmittedByTeamID:   submitter.ID,
	}

	err = withTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		if err := s.resultRepo.Create(ctx, exec, result); err != nil {
			return err
		}
		return s.matchRepo.UpdateStatus(ctx, exec, matchID, match.Version, models.MatchStatusResultSubmitted)
	})
	if err != nil {
		return nil, mapMatchRepoError(err)
	}

	s.logger.Info("result submitted",
		slog.Int("match_id", matchID),
		slog.Int("team_id", submitter.ID),
		slog.Int("home_score", submission.HomeScore),
		slog.Int("away_score", submission.AwayScore),
	)
	return result, nil
}

func (s *resultService) ConfirmResult(ctx context.Context, matchID, actorID int, claim *ScoreClaim) (*models.Match, error) {
	release, err := s.locks.Acquire(ctx, matchID, s.rules.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}

	confirmer, err := managedSide(ctx, s.teamRepo, match, actorID)
	if err != nil {
		return nil, err
	}

	result, err := s.resultRepo.GetByMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return nil, ErrMatchNotPending
		}
		return nil, err
	}

	// Расхождение заявленного счёта с сохранённым — ошибка и для уже
	// подтверждённого матча: молчаливый успех скрыл бы рассинхрон.
	if claim != nil && (claim.HomeScore != result.HomeScore || claim.AwayScore != result.AwayScore) {
		return nil, fmt.Errorf("%w: submitted %d-%d", ErrScoreMismatch, result.HomeScore, result.AwayScore)
	}

	// Повторное подтверждение уже подтверждённого матча той же
	// стороной — идемпотентный no-op.
	if match.Status == models.MatchStatusConfirmed {
		if result.ConfirmedBy(match, confirmer.ID) {
			return match, nil
		}
		return nil, ErrMatchNotPending
	}
	if match.Status != models.MatchStatusResultSubmitted {
		return nil, ErrMatchNotPending
	}

	if result.ConfirmedBy(match, confirmer.ID) {
		// Сторона уже подтверждала; ждём оппонента.
		return match, nil
	}

	homeConfirmed := result.HomeConfirmed || confirmer.ID == match.HomeTeamID
	awayConfirmed := result.AwayConfirmed || confirmer.ID == match.AwayTeamID

	if !(homeConfirmed && awayConfirmed) {
		if err := s.resultRepo.UpdateConfirmations(ctx, nil, result.ID, homeConfirmed, awayConfirmed); err != nil {
			return nil, err
		}
		result.HomeConfirmed = homeConfirmed
		result.AwayConfirmed = awayConfirmed
		return match, nil
	}

	// Обе стороны согласны: флаги и переход в CONFIRMED фиксируются
	// одной транзакцией.
	match.HomeScore = &result.HomeScore
	match.AwayScore = &result.AwayScore
	match.ExtraTime = result.ExtraTime
	match.Penalties = result.Penalties
	match.WinnerTeamID = result.Winner(match)

	err = withTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		if err := s.resultRepo.UpdateConfirmations(ctx, exec, result.ID, true, true); err != nil {
			return err
		}
		return s.matchRepo.Confirm(ctx, exec, match)
	})
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	result.HomeConfirmed = true
	result.AwayConfirmed = true

	// Пересчёт производного состояния завершается до возврата —
	// читатели таблиц и сетки не увидят устаревших данных.
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

	s.logger.Info("match confirmed",
		slog.Int("match_id", match.ID),
		slog.Int("tournament_id", match.TournamentID),
		slog.String("stage", string(match.Stage)),
	)
	return match, nil
}

func (s *resultService) DisputeResult(ctx context.Context, matchID, actorID int) error {
	release, err := s.locks.Acquire(ctx, matchID, s.rules.LockTimeout)
	if err != nil {
		return err
	}
	defer release()

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return mapMatchRepoError(err)
	}
	if match.Status != models.MatchStatusResultSubmitted {
		return ErrMatchNotPending
	}

	disputer, err := managedSide(ctx, s.teamRepo, match, actorID)
	if err != nil {
		return err
	}

	result, err := s.resultRepo.GetByMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return ErrMatchNotPending
		}
		return err
	}
	if result.SubmittedByTeamID == disputer.ID {
		return ErrCannotDisputeOwnSide
	}

	// Результат сохраняется для разбирательства, статус блокирует
	// дальнейшие подтверждения и повторные отправки.
	if err := s.matchRepo.UpdateStatus(ctx, nil, matchID, match.Version, models.MatchStatusDisputed); err != nil {
		return mapMatchRepoError(err)
	}

	notifyDisputed(s.notifier, models.MatchDisputedEvent{
		MatchID:      match.ID,
		TournamentID: match.TournamentID,
		DisputerID:   actorID,
	})

	s.logger.Warn("match disputed",
		slog.Int("match_id", match.ID),
		slog.Int("disputer_id", actorID),
	)
	return nil
}

func (s *resultService) AttachScreenshot(ctx context.Context, matchID, actorID int, contentType string, data io.Reader) (*models.Result, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	if _, err := managedSide(ctx, s.teamRepo, match, actorID); err != nil {
		return nil, err
	}

	result, err := s.resultRepo.GetByMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return nil, ErrMatchNotPending
		}
		return nil, err
	}

	ext, err := extensionForContentType(contentType)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("results/%d/screenshot%s", matchID, ext)
	uploaded, err := s.uploader.Upload(ctx, key, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload screenshot for match %d: %w", matchID, err)
	}

	if err := s.resultRepo.UpdateScreenshotKey(ctx, result.ID, uploaded.Key); err != nil {
		return nil, err
	}
	result.ScreenshotKey = &uploaded.Key
	url := s.uploader.GetPublicURL(uploaded.Key)
	if url != "" {
		result.ScreenshotURL = &url
	}
	return result, nil
}

// validateSubmission проверяет согласованность счёта и флагов до
// любой записи; общая для обычной отправки и административного
// закрытия спора.
func validateSubmission(rules config.Rules, match *models.Match, sub ResultSubmission) error {
	if sub.HomeScore < 0 || sub.AwayScore < 0 {
		return ErrNegativeScore
	}

	tied := sub.HomeScore == sub.AwayScore

	if sub.Penalties {
		if !sub.ExtraTime {
			return fmt.Errorf("%w: penalties follow extra time", ErrValidationFailed)
		}
		if rules.RequireTieForPenalties && !tied {
			return ErrPenaltiesRequireTie
		}
	}

	if sub.PenaltyWinnerTeamID != nil {
		if !sub.Penalties {
			return fmt.Errorf("%w: penalty winner given without penalties flag", ErrValidationFailed)
		}
		if !match.Involves(*sub.PenaltyWinnerTeamID) {
			return ErrPenaltyWinnerInvalid
		}
	}

	// В плей-офф у матча обязан определяться победитель.
	if match.Stage.IsKnockout() && tied {
		if !sub.Penalties || sub.PenaltyWinnerTeamID == nil {
			return ErrNoWinnerDeterminable
		}
	}

	return nil
}

func extensionForContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrScreenshotTypeInvalid, contentType)
	}
}

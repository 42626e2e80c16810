package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/joegr/fcdreams/models"
	"github.com/lib/pq"
)

var (
	ErrResultNotFound      = errors.New("result not found")
	ErrResultAlreadyExists = errors.New("result already exists for this match")
)

type ResultRepository interface {
	Create(ctx context.Context, exec SQLExecutor, result *models.Result) error
	GetByMatch(ctx context.Context, matchID int) (*models.Result, error)
	UpdateConfirmations(ctx context.Context, exec SQLExecutor, id int, homeConfirmed, awayConfirmed bool) error
	UpdateScreenshotKey(ctx context.Context, id int, key string) error
	DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresResultRepository) Create(ctx context.Context, exec SQLExecutor, result *models.Result) error {
	query := `
		INSERT INTO results
			(match_id, home_score, away_score, extra_time, penalties, penalty_winner_team_id,
			 home_confirmed, away_confirmed, submitted_by_team_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		result.MatchID, result.HomeScore, result.AwayScore,
		result.ExtraTime, result.Penalties, result.PenaltyWinnerTeamID,
		result.HomeConfirmed, result.AwayConfirmed, result.SubmittedByTeamID,
	).Scan(&result.ID, &result.CreatedAt, &result.UpdatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrResultAlreadyExists
	}
	return err
}

func (r *postgresResultRepository) GetByMatch(ctx context.Context, matchID int) (*models.Result, error) {
	query := `
		SELECT id, match_id, home_score, away_score, extra_time, penalties, penalty_winner_team_id,
		       home_confirmed, away_confirmed, submitted_by_team_id, screenshot_key, created_at, updated_at
		FROM results
		WHERE match_id = $1`

	res := &models.Result{}
	err := r.db.QueryRowContext(ctx, query, matchID).Scan(
		&res.ID, &res.MatchID, &res.HomeScore, &res.AwayScore,
		&res.ExtraTime, &res.Penalties, &res.PenaltyWinnerTeamID,
		&res.HomeConfirmed, &res.AwayConfirmed, &res.SubmittedByTeamID,
		&res.ScreenshotKey, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *postgresResultRepository) UpdateConfirmations(ctx context.Context, exec SQLExecutor, id int, homeConfirmed, awayConfirmed bool) error {
	query := `
		UPDATE results SET home_confirmed = $1, away_confirmed = $2, updated_at = NOW()
		WHERE id = $3`

	result, err := r.executor(exec).ExecContext(ctx, query, homeConfirmed, awayConfirmed, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrResultNotFound)
}

func (r *postgresResultRepository) UpdateScreenshotKey(ctx context.Context, id int, key string) error {
	query := `UPDATE results SET screenshot_key = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, key, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrResultNotFound)
}

func (r *postgresResultRepository) DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error {
	result, err := r.executor(exec).ExecContext(ctx, `DELETE FROM results WHERE match_id = $1`, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrResultNotFound)
}

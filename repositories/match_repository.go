package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/joegr/fcdreams/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchTeamInvalid     = errors.New("match team conflict or invalid")
	ErrMatchVersionConflict = errors.New("match was modified concurrently")
)

// MatchFilter ограничивает выборку ListByTournament; nil-поля не
// фильтруют.
type MatchFilter struct {
	Stage    *models.MatchStage
	Status   *models.MatchStatus
	GroupNum *int
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, filter MatchFilter) ([]*models.Match, error)
	ListByTeams(ctx context.Context, teamIDs []int, status models.MatchStatus) ([]*models.Match, error)
	// UpdateStatus переводит матч в новый статус с проверкой версии;
	// при несовпадении версии возвращает ErrMatchVersionConflict.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, fromVersion int64, status models.MatchStatus) error
	// Confirm фиксирует итоговый счёт и победителя вместе с переходом
	// в CONFIRMED, также под проверкой версии.
	Confirm(ctx context.Context, exec SQLExecutor, match *models.Match) error
	CountUnconfirmedGroupMatches(ctx context.Context, tournamentID int) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, slug, tournament_id, stage, group_num, home_team_id, away_team_id, match_date,
		status, home_score, away_score, extra_time, penalties, winner_team_id, version, created_at`

func scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	err := rowScanner.Scan(
		&m.ID, &m.Slug, &m.TournamentID, &m.Stage, &m.GroupNum,
		&m.HomeTeamID, &m.AwayTeamID, &m.MatchDate, &m.Status,
		&m.HomeScore, &m.AwayScore, &m.ExtraTime, &m.Penalties,
		&m.WinnerTeamID, &m.Version, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (slug, tournament_id, stage, group_num, home_team_id, away_team_id, match_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, version, created_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		match.Slug, match.TournamentID, match.Stage, match.GroupNum,
		match.HomeTeamID, match.AwayTeamID, match.MatchDate, match.Status,
	).Scan(&match.ID, &match.Version, &match.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		return ErrMatchTeamInvalid
	}
	return err
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, filter MatchFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if filter.Stage != nil {
		queryBuilder.WriteString(" AND stage = $" + strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Stage)
		placeholderIndex++
	}
	if filter.Status != nil {
		queryBuilder.WriteString(" AND status = $" + strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Status)
		placeholderIndex++
	}
	if filter.GroupNum != nil {
		queryBuilder.WriteString(" AND group_num = $" + strconv.Itoa(placeholderIndex))
		args = append(args, *filter.GroupNum)
		placeholderIndex++
	}

	queryBuilder.WriteString(" ORDER BY match_date ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMatches(rows)
}

func (r *postgresMatchRepository) ListByTeams(ctx context.Context, teamIDs []int, status models.MatchStatus) ([]*models.Match, error) {
	if len(teamIDs) == 0 {
		return []*models.Match{}, nil
	}

	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE status = $1 AND (home_team_id = ANY($2) OR away_team_id = ANY($2))
		ORDER BY match_date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, status, pq.Array(teamIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMatches(rows)
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, fromVersion int64, status models.MatchStatus) error {
	query := `
		UPDATE matches SET status = $1, version = version + 1
		WHERE id = $2 AND version = $3`

	result, err := r.executor(exec).ExecContext(ctx, query, status, id, fromVersion)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchVersionConflict)
}

func (r *postgresMatchRepository) Confirm(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches SET
			status = $1, home_score = $2, away_score = $3,
			extra_time = $4, penalties = $5, winner_team_id = $6,
			version = version + 1
		WHERE id = $7 AND version = $8`

	result, err := r.executor(exec).ExecContext(ctx, query,
		models.MatchStatusConfirmed, match.HomeScore, match.AwayScore,
		match.ExtraTime, match.Penalties, match.WinnerTeamID,
		match.ID, match.Version,
	)
	if err != nil {
		return err
	}
	if err := checkAffectedRows(result, ErrMatchVersionConflict); err != nil {
		return err
	}
	match.Status = models.MatchStatusConfirmed
	match.Version++
	return nil
}

func (r *postgresMatchRepository) CountUnconfirmedGroupMatches(ctx context.Context, tournamentID int) (int, error) {
	query := `
		SELECT COUNT(*) FROM matches
		WHERE tournament_id = $1 AND stage = $2 AND status <> $3`

	var count int
	err := r.db.QueryRowContext(ctx, query, tournamentID, models.StageGroup, models.MatchStatusConfirmed).Scan(&count)
	return count, err
}

func collectMatches(rows *sql.Rows) ([]*models.Match, error) {
	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

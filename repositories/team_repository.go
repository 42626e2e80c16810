package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/joegr/fcdreams/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound          = errors.New("team not found")
	ErrTeamNameConflict      = errors.New("team name already taken in this tournament")
	ErrTeamTournamentInvalid = errors.New("team tournament conflict or invalid")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByTournament(ctx context.Context, tournamentID int, onlyComplete bool) ([]*models.Team, error)
	ListByManager(ctx context.Context, managerID int) ([]*models.Team, error)
	// UpdateRoster атомарно записывает новый размер заявки и
	// производный флаг завершённости регистрации.
	UpdateRoster(ctx context.Context, id int, playerCount int, registrationComplete bool) error
	AssignGroup(ctx context.Context, exec SQLExecutor, id int, groupNum int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `id, slug, name, tournament_id, manager_id, player_count, registration_complete, group_num, created_at`

func scanTeam(rowScanner interface{ Scan(...interface{}) error }) (*models.Team, error) {
	var t models.Team
	err := rowScanner.Scan(
		&t.ID, &t.Slug, &t.Name, &t.TournamentID, &t.ManagerID,
		&t.PlayerCount, &t.RegistrationComplete, &t.GroupNum, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (slug, name, tournament_id, manager_id, player_count, registration_complete)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		team.Slug, team.Name, team.TournamentID, team.ManagerID,
		team.PlayerCount, team.RegistrationComplete,
	).Scan(&team.ID, &team.CreatedAt)

	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	return scanTeam(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, tournamentID int, onlyComplete bool) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE tournament_id = $1`
	if onlyComplete {
		query += ` AND registration_complete = TRUE`
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTeams(rows)
}

func (r *postgresTeamRepository) ListByManager(ctx context.Context, managerID int) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE manager_id = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTeams(rows)
}

func (r *postgresTeamRepository) UpdateRoster(ctx context.Context, id int, playerCount int, registrationComplete bool) error {
	query := `UPDATE teams SET player_count = $1, registration_complete = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, playerCount, registrationComplete, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) AssignGroup(ctx context.Context, exec SQLExecutor, id int, groupNum int) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}

	query := `UPDATE teams SET group_num = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, groupNum, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func collectTeams(rows *sql.Rows) ([]*models.Team, error) {
	teams := make([]*models.Team, 0)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ErrTeamNameConflict
		case "23503": // foreign_key_violation
			return ErrTeamTournamentInvalid
		}
	}
	return err
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/joegr/fcdreams/models"
)

var ErrStandingsNotFound = errors.New("standings not found for group")

type StandingRepository interface {
	// ReplaceGroup целиком заменяет кеш таблицы группы новым набором
	// строк в одной транзакции.
	ReplaceGroup(ctx context.Context, tournamentID, groupNum int, rows []*models.StandingsRow) error
	ListByGroup(ctx context.Context, tournamentID, groupNum int) ([]*models.StandingsRow, error)
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) ReplaceGroup(ctx context.Context, tournamentID, groupNum int, rows []*models.StandingsRow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ReplaceGroup failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM standings WHERE tournament_id = $1 AND group_num = $2`,
		tournamentID, groupNum,
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("ReplaceGroup failed to clear group %d: %w", groupNum, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO standings
			(tournament_id, group_num, team_id, played, wins, draws, losses,
			 goals_for, goals_against, goal_difference, points, rank, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("ReplaceGroup failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, row := range rows {
		if row.UpdatedAt.IsZero() {
			row.UpdatedAt = now
		}
		_, err = stmt.ExecContext(ctx,
			row.TournamentID, row.GroupNum, row.TeamID, row.Played,
			row.Wins, row.Draws, row.Losses, row.GoalsFor, row.GoalsAgainst,
			row.GoalDifference, row.Points, row.Rank, row.UpdatedAt,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("ReplaceGroup failed for team %d: %w", row.TeamID, err)
		}
	}

	return tx.Commit()
}

func (r *postgresStandingRepository) ListByGroup(ctx context.Context, tournamentID, groupNum int) ([]*models.StandingsRow, error) {
	query := `
		SELECT id, tournament_id, group_num, team_id, played, wins, draws, losses,
		       goals_for, goals_against, goal_difference, points, rank, updated_at
		FROM standings
		WHERE tournament_id = $1 AND group_num = $2
		ORDER BY rank ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID, groupNum)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]*models.StandingsRow, 0)
	for rows.Next() {
		var s models.StandingsRow
		if scanErr := rows.Scan(
			&s.ID, &s.TournamentID, &s.GroupNum, &s.TeamID, &s.Played,
			&s.Wins, &s.Draws, &s.Losses, &s.GoalsFor, &s.GoalsAgainst,
			&s.GoalDifference, &s.Points, &s.Rank, &s.UpdatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		standings = append(standings, &s)
	}
	return standings, rows.Err()
}

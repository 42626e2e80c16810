package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joegr/fcdreams/models"
)

var (
	ErrBracketNodeNotFound = errors.New("bracket node not found")
	ErrBracketNotSeeded    = errors.New("bracket has not been seeded for tournament")
)

type BracketRepository interface {
	// ReplaceAll записывает арену узлов целиком (посев сетки).
	// С nil exec открывает собственную транзакцию.
	ReplaceAll(ctx context.Context, exec SQLExecutor, tournamentID int, nodes []*models.BracketNode) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.BracketNode, error)
	Update(ctx context.Context, exec SQLExecutor, node *models.BracketNode) error
}

type postgresBracketRepository struct {
	db *sql.DB
}

func NewPostgresBracketRepository(db *sql.DB) BracketRepository {
	return &postgresBracketRepository{db: db}
}

func (r *postgresBracketRepository) ReplaceAll(ctx context.Context, exec SQLExecutor, tournamentID int, nodes []*models.BracketNode) error {
	if exec != nil {
		// Посев идёт в объемлющей транзакции вместе с матчами первого
		// раунда, на которые ссылаются узлы.
		return r.replaceAll(ctx, exec, tournamentID, nodes)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("bracket ReplaceAll failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := r.replaceAll(ctx, tx, tournamentID, nodes); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *postgresBracketRepository) replaceAll(ctx context.Context, exec SQLExecutor, tournamentID int, nodes []*models.BracketNode) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM bracket_nodes WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("bracket ReplaceAll failed to clear tournament %d: %w", tournamentID, err)
	}

	query := `
		INSERT INTO bracket_nodes
			(tournament_id, node_index, round, position, state, team_id, source_left, source_right, match_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	for _, node := range nodes {
		err := exec.QueryRowContext(ctx, query,
			node.TournamentID, node.Index, node.Round, node.Position, node.State,
			node.TeamID, node.SourceLeft, node.SourceRight, node.MatchID,
		).Scan(&node.ID)
		if err != nil {
			return fmt.Errorf("bracket ReplaceAll failed for node %d: %w", node.Index, err)
		}
	}
	return nil
}

func (r *postgresBracketRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.BracketNode, error) {
	query := `
		SELECT id, tournament_id, node_index, round, position, state, team_id, source_left, source_right, match_id, created_at
		FROM bracket_nodes
		WHERE tournament_id = $1
		ORDER BY node_index ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nodes := make([]*models.BracketNode, 0)
	for rows.Next() {
		var n models.BracketNode
		if scanErr := rows.Scan(
			&n.ID, &n.TournamentID, &n.Index, &n.Round, &n.Position,
			&n.State, &n.TeamID, &n.SourceLeft, &n.SourceRight, &n.MatchID, &n.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		nodes = append(nodes, &n)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return nil, ErrBracketNotSeeded
	}
	return nodes, nil
}

func (r *postgresBracketRepository) Update(ctx context.Context, exec SQLExecutor, node *models.BracketNode) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}

	query := `
		UPDATE bracket_nodes SET state = $1, team_id = $2, match_id = $3
		WHERE tournament_id = $4 AND node_index = $5`

	result, err := executor.ExecContext(ctx, query,
		node.State, node.TeamID, node.MatchID, node.TournamentID, node.Index,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrBracketNodeNotFound)
}

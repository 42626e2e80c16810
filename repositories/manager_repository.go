package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/joegr/fcdreams/models"
)

var ErrManagerNotFound = errors.New("manager not found")

type ManagerRepository interface {
	GetByID(ctx context.Context, id int) (*models.Manager, error)
}

type postgresManagerRepository struct {
	db *sql.DB
}

func NewPostgresManagerRepository(db *sql.DB) ManagerRepository {
	return &postgresManagerRepository{db: db}
}

func (r *postgresManagerRepository) GetByID(ctx context.Context, id int) (*models.Manager, error) {
	query := `SELECT id, nickname, email, psn_id, is_admin, created_at FROM managers WHERE id = $1`

	m := &models.Manager{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.Nickname, &m.Email, &m.PSNID, &m.IsAdmin, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrManagerNotFound
		}
		return nil, err
	}
	return m, nil
}

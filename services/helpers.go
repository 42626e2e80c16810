package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joegr/fcdreams/models"
	"github.com/joegr/fcdreams/repositories"
)

// withTx выполняет fn внутри транзакции, если сервису передан
// *sql.DB; без него (юнит-тесты на репозиториях в памяти) fn
// получает nil-экзекьютор и репозитории работают напрямую.
func withTx(ctx context.Context, db *sql.DB, fn func(exec repositories.SQLExecutor) error) error {
	if db == nil {
		return fn(nil)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// managedSide возвращает команду матча, которой управляет actorID.
func managedSide(ctx context.Context, teamRepo repositories.TeamRepository, match *models.Match, actorID int) (*models.Team, error) {
	home, err := teamRepo.GetByID(ctx, match.HomeTeamID)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}
	if home.ManagerID == actorID {
		return home, nil
	}

	away, err := teamRepo.GetByID(ctx, match.AwayTeamID)
	if err != nil {
		return nil, mapTeamRepoError(err)
	}
	if away.ManagerID == actorID {
		return away, nil
	}

	return nil, ErrNotMatchParticipant
}

func mapTeamRepoError(err error) error {
	if errors.Is(err, repositories.ErrTeamNotFound) {
		return ErrTeamNotFound
	}
	return err
}

func mapMatchRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchVersionConflict):
		return fmt.Errorf("%w: %v", ErrContention, err)
	default:
		return err
	}
}

func teamIDs(teams []*models.Team) []int {
	ids := make([]int, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	return ids
}

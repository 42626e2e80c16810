package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joegr/fcdreams/config"
	"github.com/joegr/fcdreams/models"
)

func newRosterFixture(t *testing.T) (RosterService, *fakeTeamRepo, *fakePlayerRepo, *models.Team) {
	t.Helper()
	teamRepo := newFakeTeamRepo()
	playerRepo := newFakePlayerRepo()
	svc := NewRosterService(teamRepo, playerRepo, config.DefaultRules())

	team := &models.Team{Name: "FC Dreams", TournamentID: 1, ManagerID: 10}
	require.NoError(t, teamRepo.Create(context.Background(), team))
	return svc, teamRepo, playerRepo, team
}

func TestRegisterPlayer(t *testing.T) {
	svc, _, playerRepo, team := newRosterFixture(t)
	ctx := context.Background()

	player, err := svc.RegisterPlayer(ctx, team.ID, team.ManagerID, "Lev Yashin")
	require.NoError(t, err)
	assert.NotZero(t, player.ID)
	assert.Equal(t, team.ID, player.TeamID)

	count, err := playerRepo.CountByTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegisterPlayerValidation(t *testing.T) {
	svc, _, _, team := newRosterFixture(t)
	ctx := context.Background()

	_, err := svc.RegisterPlayer(ctx, team.ID, team.ManagerID, "")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.RegisterPlayer(ctx, team.ID, 99, "Impostor")
	assert.ErrorIs(t, err, ErrNotTeamManager)

	_, err = svc.RegisterPlayer(ctx, 404, team.ManagerID, "Nobody")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestRegisterPlayerRosterFull(t *testing.T) {
	svc, _, _, team := newRosterFixture(t)
	ctx := context.Background()

	rules := config.DefaultRules()
	for i := 0; i < rules.RosterMax; i++ {
		_, err := svc.RegisterPlayer(ctx, team.ID, team.ManagerID, fmt.Sprintf("Player %d", i+1))
		require.NoError(t, err)
	}

	_, err := svc.RegisterPlayer(ctx, team.ID, team.ManagerID, "One Too Many")
	assert.ErrorIs(t, err, ErrRosterFull)
}

func TestRegistrationCompleteThresholds(t *testing.T) {
	svc, _, _, team := newRosterFixture(t)
	ctx := context.Background()

	rules := config.DefaultRules()

	// До минимума заявка неполная.
	for i := 0; i < rules.RosterMin-1; i++ {
		_, err := svc.RegisterPlayer(ctx, team.ID, team.ManagerID, fmt.Sprintf("Player %d", i+1))
		require.NoError(t, err)
	}
	complete, err := svc.IsRegistrationComplete(ctx, team.ID)
	require.NoError(t, err)
	assert.False(t, complete, "roster of %d should be incomplete", rules.RosterMin-1)

	// Ровно минимум — полная.
	_, err = svc.RegisterPlayer(ctx, team.ID, team.ManagerID, "Threshold Player")
	require.NoError(t, err)
	complete, err = svc.IsRegistrationComplete(ctx, team.ID)
	require.NoError(t, err)
	assert.True(t, complete)

	// До максимума остаётся полной.
	for i := rules.RosterMin; i < rules.RosterMax; i++ {
		_, err := svc.RegisterPlayer(ctx, team.ID, team.ManagerID, fmt.Sprintf("Player %d", i+1))
		require.NoError(t, err)
	}
	complete, err = svc.IsRegistrationComplete(ctx, team.ID)
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestRemovePlayer(t *testing.T) {
	svc, teamRepo, _, team := newRosterFixture(t)
	ctx := context.Background()

	player, err := svc.RegisterPlayer(ctx, team.ID, team.ManagerID, "Lev Yashin")
	require.NoError(t, err)

	require.NoError(t, svc.RemovePlayer(ctx, team.ID, team.ManagerID, player.ID))

	stored, err := teamRepo.GetByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.PlayerCount)

	// Повторное удаление — игрока уже нет.
	err = svc.RemovePlayer(ctx, team.ID, team.ManagerID, player.ID)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestRemovePlayerFromWrongTeam(t *testing.T) {
	svc, teamRepo, _, team := newRosterFixture(t)
	ctx := context.Background()

	other := &models.Team{Name: "Rivals", TournamentID: 1, ManagerID: 20}
	require.NoError(t, teamRepo.Create(ctx, other))

	player, err := svc.RegisterPlayer(ctx, team.ID, team.ManagerID, "Lev Yashin")
	require.NoError(t, err)

	// Игрок принадлежит другой команде.
	err = svc.RemovePlayer(ctx, other.ID, other.ManagerID, player.ID)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestListRoster(t *testing.T) {
	svc, _, _, team := newRosterFixture(t)
	ctx := context.Background()

	_, err := svc.RegisterPlayer(ctx, team.ID, team.ManagerID, "First")
	require.NoError(t, err)
	_, err = svc.RegisterPlayer(ctx, team.ID, team.ManagerID, "Second")
	require.NoError(t, err)

	players, err := svc.ListRoster(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "First", players[0].Name)
	assert.Equal(t, "Second", players[1].Name)
}

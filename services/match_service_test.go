package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joegr/fcdreams/config"
	"github.com/joegr/fcdreams/models"
)

func TestListPendingConfirmations(t *testing.T) {
	f := newResultFixture(t, models.StageGroup, config.DefaultRules())
	svc := NewMatchService(f.matchRepo, f.resultRepo, f.teamRepo)
	ctx := context.Background()

	_, err := f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{HomeScore: 2, AwayScore: 0})
	require.NoError(t, err)

	// Матч ждёт гостевую сторону, не отправившую результат.
	pending, err := svc.ListPendingConfirmations(ctx, f.away.ManagerID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, f.match.ID, pending[0].ID)
	require.NotNil(t, pending[0].Result)

	// Отправившая сторона уже подтвердила — её список пуст.
	pending, err = svc.ListPendingConfirmations(ctx, f.home.ManagerID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Чужой менеджер ничего не видит.
	pending, err = svc.ListPendingConfirmations(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// После подтверждения список пустеет.
	_, err = f.svc.ConfirmResult(ctx, f.match.ID, f.away.ManagerID, nil)
	require.NoError(t, err)
	pending, err = svc.ListPendingConfirmations(ctx, f.away.ManagerID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestListUpcomingMatchesSortedByDate(t *testing.T) {
	f := newResultFixture(t, models.StageGroup, config.DefaultRules())
	svc := NewMatchService(f.matchRepo, f.resultRepo, f.teamRepo)
	ctx := context.Background()

	later := &models.Match{
		TournamentID: 1,
		Stage:        models.StageGroup,
		HomeTeamID:   f.away.ID,
		AwayTeamID:   f.home.ID,
		MatchDate:    f.match.MatchDate.Add(48 * time.Hour),
		Status:       models.MatchStatusScheduled,
	}
	require.NoError(t, f.matchRepo.Create(ctx, nil, later))

	matches, err := svc.ListUpcomingMatches(ctx, f.home.ManagerID)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, f.match.ID, matches[0].ID)
	assert.Equal(t, later.ID, matches[1].ID)
}

func TestGetMatchIncludesResult(t *testing.T) {
	f := newResultFixture(t, models.StageGroup, config.DefaultRules())
	svc := NewMatchService(f.matchRepo, f.resultRepo, f.teamRepo)
	ctx := context.Background()

	match, err := svc.GetMatch(ctx, f.match.ID)
	require.NoError(t, err)
	assert.Nil(t, match.Result)

	_, err = f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{HomeScore: 2, AwayScore: 0})
	require.NoError(t, err)

	match, err = svc.GetMatch(ctx, f.match.ID)
	require.NoError(t, err)
	require.NotNil(t, match.Result)
	assert.Equal(t, 2, match.Result.HomeScore)

	_, err = svc.GetMatch(ctx, 404)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

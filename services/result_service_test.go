package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joegr/fcdreams/config"
	"github.com/joegr/fcdreams/models"
)

type fakeProgression struct {
	mu      sync.Mutex
	handled []int
	err     error
}

func (p *fakeProgression) HandleConfirmedMatch(ctx context.Context, match *models.Match, result *models.Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.handled = append(p.handled, match.ID)
	return nil
}

type resultFixture struct {
	svc         ResultService
	matchRepo   *fakeMatchRepo
	resultRepo  *fakeResultRepo
	teamRepo    *fakeTeamRepo
	locks       *KeyedLock
	notifier    *fakeNotifier
	progression *fakeProgression
	uploader    *fakeUploader
	home        *models.Team
	away        *models.Team
	match       *models.Match
}

func newResultFixture(t *testing.T, stage models.MatchStage, rules config.Rules) *resultFixture {
	t.Helper()
	ctx := context.Background()

	f := &resultFixture{
		matchRepo:   newFakeMatchRepo(),
		resultRepo:  newFakeResultRepo(),
		teamRepo:    newFakeTeamRepo(),
		locks:       NewKeyedLock(),
		notifier:    &fakeNotifier{},
		progression: &fakeProgression{},
		uploader:    newFakeUploader(),
	}

	f.home = &models.Team{Name: "Home United", TournamentID: 1, ManagerID: 10}
	f.away = &models.Team{Name: "Away Rovers", TournamentID: 1, ManagerID: 20}
	require.NoError(t, f.teamRepo.Create(ctx, f.home))
	require.NoError(t, f.teamRepo.Create(ctx, f.away))

	f.match = &models.Match{
		Slug:         "m1",
		TournamentID: 1,
		Stage:        stage,
		HomeTeamID:   f.home.ID,
		AwayTeamID:   f.away.ID,
		MatchDate:    time.Now(),
		Status:       models.MatchStatusScheduled,
	}
	if stage == models.StageGroup {
		group := 1
		f.match.GroupNum = &group
	}
	require.NoError(t, f.matchRepo.Create(ctx, nil, f.match))

	f.svc = NewResultService(nil, f.matchRepo, f.resultRepo, f.teamRepo, f.locks,
		rules, f.notifier, f.progression, f.uploader, slog.Default())
	return f
}

func TestSubmitResultAutoConfirmsSubmitter(t *testing.T) {
	f := newResultFixture(t, models.StageGroup, config.DefaultRules())
	ctx := context.Background()

	result, err := f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{HomeScore: 3, AwayScore: 1})
	require.NoError(t, err)

	assert.True(t, result.HomeConfirmed)
	assert.False(t, result.AwayConfirmed)
	assert.Equal(t, f.home.ID, result.SubmittedByTeamID)

	match, err := f.matchRepo.GetByID(ctx, f.match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusResultSubmitted, match.Status)
	assert.Nil(t, match.HomeScore, "score lands on the match only after confirmation")
}

func TestSubmitResultBothConfirmationsPolicy(t *testing.T) {
	rules := config.DefaultRules()
	rules.RequireBothConfirmations = true
	f := newResultFixture(t, models.StageGroup, rules)

	result, err := f.svc.SubmitResult(context.Background(), f.match.ID, f.home.ManagerID, ResultSubmission{HomeScore: 1, AwayScore: 0})
	require.NoError(t, err)
	assert.False(t, result.HomeConfirmed)
	assert.False(t, result.AwayConfirmed)
}

func TestSubmitResultValidation(t *testing.T) {
	f := newResultFixture(t, models.StageGroup, config.DefaultRules())
	ctx := context.Background()

	_, err := f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{HomeScore: -1, AwayScore: 0})
	assert.ErrorIs(t, err, ErrNegativeScore)

	_, err = f.svc.SubmitResult(ctx, f.match.ID, 99, ResultSubmission{HomeScore: 1, AwayScore: 0})
	assert.ErrorIs(t, err, ErrNotMatchParticipant)

	// Пенальти при незавершённой ничьей.
	_, err = f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{
		HomeScore: 2, AwayScore: 1, ExtraTime: true, Penalties: true,
	})
	assert.ErrorIs(t, err, ErrPenaltiesRequireTie)

	// Пенальти без дополнительного времени.
	_, err = f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{
		HomeScore: 2, AwayScore: 2, Penalties: true,
	})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestSubmitResultKnockoutTieNeedsWinner(t *testing.T) {
	f := newResultFixture(t, models.StageSemiFinal, config.DefaultRules())
	ctx := context.Background()

	// 2-2 без серии пенальти отклоняется.
	_, err := f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{HomeScore: 2, AwayScore: 2})
	assert.ErrorIs(t, err, ErrNoWinnerDeterminable)

	// Победитель серии должен быть стороной матча.
	outsider := 999
	_, err = f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{
		HomeScore: 2, AwayScore: 2, ExtraTime: true, Penalties: true, PenaltyWinnerTeamID: &outsider,
	})
	assert.ErrorIs(t, err, ErrPenaltyWinnerInvalid)

	winner := f.away.ID
	result, err := f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{
		HomeScore: 2, AwayScore: 2, ExtraTime: true, Penalties: true, PenaltyWinnerTeamID: &winner,
	})
	require.NoError(t, err)
	assert.Equal(t, f.away.ID, *result.PenaltyWinnerTeamID)
}

func TestConfirmResultByOpponent(t *testing.T) {
	f := newResultFixture(t, models.StageGroup, config.DefaultRules())
	ctx := context.Background()

	_, err := f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{HomeScore: 3, AwayScore: 1})
	require.NoError(t, err)

	match, err := f.svc.ConfirmResult(ctx, f.match.ID, f.away.ManagerID, nil)
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusConfirmed, match.Status)
	require.NotNil(t, match.HomeScore)
	assert.Equal(t, 3, *match.HomeScore)
	assert.Equal(t, 1, *match.AwayScore)
	require.NotNil(t, match.WinnerTeamID)
	assert.Equal(t, f.home.ID, *match.WinnerTeamID)

	// Прогрессия и событие — ровно один раз.
	assert.Equal(t, []int{f.match.ID}, f.progression.handled)
	require.Len(t, f.notifier.confirmed, 1)
	assert.Equal(t, f.match.ID, f.notifier.confirmed[0].MatchID)
}

func TestConfirmResultDrawHasNoWinner(t *testing.T) {
	f := newResultFixture(t, models.StageGroup, config.DefaultRules())
	ctx := context.Background()

	_, err := f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{HomeScore: 1, AwayScore: 1})
	require.NoError(t, err)

	match, err := f.svc.ConfirmResult(ctx, f.match.ID, f.away.ManagerID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusConfirmed, match.Status)
	assert.Nil(t, match.WinnerTeamID)
}

func TestConfirmResultIdempotent(t *testing.T) {
	f := newResultFixture(t, models.StageGroup, config.DefaultRules())
	ctx := context.Background()

	_, err := f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{HomeScore: 3, AwayScore: 1})
	require.NoError(t, err)

	// Повторное подтверждение отправившей стороны ничего не меняет.
	match, err := f.svc.ConfirmResult(ctx, f.match.ID, f.home.ManagerID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusResultSubmitted, match.Status)
	assert.Empty(t, f.progression.handled)

	_, err = f.svc.ConfirmResult(ctx, f.match.ID, f.away.ManagerID, nil)
	require.NoError(t, err)

	// Подтверждение уже подтверждённого матча — no-op успех.
	match, err = f.svc.ConfirmResult(ctx, f.match.ID, f.away.ManagerID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusConfirmed, match.Status)
	assert.Len(t, f.progression.handled, 1)
	assert.Len(t, f.notifier.confirmed, 1)
}

func TestConfirmResultScoreMismatch(t *testing.T) {
	f := newResultFixture(t, models.StageGroup, config.DefaultRules())
	ctx := context.Background()

	_, err := f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{HomeScore: 3, AwayScore: 1})
	require.NoError(t, err)

	// Счёт неизменяем: подтверждение с другим счётом отклоняется.
	_, err = f.svc.ConfirmResult(ctx, f.match.ID, f.away.ManagerID, &ScoreClaim{HomeScore: 2, AwayScore: 1})
	assert.ErrorIs(t, err, ErrScoreMismatch)

	// С совпадающим счётом проходит.
	match, err := f.svc.ConfirmResult(ctx, f.match.ID, f.away.ManagerID, &ScoreClaim{HomeScore: 3, AwayScore: 1})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusConfirmed, match.Status)

	// Расхождение счёта ловится и на уже подтверждённом матче: такой
	// повтор не маскируется под идемпотентный успех.
	_, err = f.svc.ConfirmResult(ctx, f.match.ID, f.away.ManagerID, &ScoreClaim{HomeScore: 0, AwayScore: 0})
	assert.ErrorIs(t, err, ErrScoreMismatch)

	// Верный счёт по-прежнему идемпотентен.
	match, err = f.svc.ConfirmResult(ctx, f.match.ID, f.away.ManagerID, &ScoreClaim{HomeScore: 3, AwayScore: 1})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusConfirmed, match.Status)
}

func TestConfirmResultWithoutSubmission(t *testing.T) {
	f := newResultFixture(t, models.StageGroup, config.DefaultRules())

	_, err := f.svc.ConfirmResult(context.Background(), f.match.ID, f.away.ManagerID, nil)
	assert.ErrorIs(t, err, ErrMatchNotPending)
}

func TestDisputeResult(t *testing.T) {
	f := newResultFixture(t, models.StageGroup, config.DefaultRules())
	ctx := context.Background()

	_, err := f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{HomeScore: 3, AwayScore: 1})
	require.NoError(t, err)

	// Отправившая сторона не может оспорить свой же результат.
	err = f.svc.DisputeResult(ctx, f.match.ID, f.home.ManagerID)
	assert.ErrorIs(t, err, ErrCannotDisputeOwnSide)

	require.NoError(t, f.svc.DisputeResult(ctx, f.match.ID, f.away.ManagerID))

	match, err := f.matchRepo.GetByID(ctx, f.match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusDisputed, match.Status)

	// Результат сохранён для разбирательства.
	_, err = f.resultRepo.GetByMatch(ctx, f.match.ID)
	require.NoError(t, err)

	require.Len(t, f.notifier.disputed, 1)
	assert.Equal(t, f.away.ManagerID, f.notifier.disputed[0].DisputerID)

	// Спорный матч блокирует повторную отправку и подтверждение.
	_, err = f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{HomeScore: 2, AwayScore: 1})
	assert.ErrorIs(t, err, ErrMatchDisputed)
	_, err = f.svc.ConfirmResult(ctx, f.match.ID, f.away.ManagerID, nil)
	assert.ErrorIs(t, err, ErrMatchNotPending)
}

func TestSubmitResultContention(t *testing.T) {
	rules := config.DefaultRules()
	rules.LockTimeout = 50 * time.Millisecond
	f := newResultFixture(t, models.StageGroup, rules)
	ctx := context.Background()

	// Блокировка матча удерживается конкурентом.
	release, err := f.locks.Acquire(ctx, f.match.ID, time.Second)
	require.NoError(t, err)
	defer release()

	_, err = f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{HomeScore: 1, AwayScore: 0})
	assert.ErrorIs(t, err, ErrContention)
}

func TestAttachScreenshot(t *testing.T) {
	f := newResultFixture(t, models.StageGroup, config.DefaultRules())
	ctx := context.Background()

	_, err := f.svc.SubmitResult(ctx, f.match.ID, f.home.ManagerID, ResultSubmission{HomeScore: 3, AwayScore: 1})
	require.NoError(t, err)

	_, err = f.svc.AttachScreenshot(ctx, f.match.ID, f.home.ManagerID, "text/html", strings.NewReader("nope"))
	assert.ErrorIs(t, err, ErrScreenshotTypeInvalid)

	result, err := f.svc.AttachScreenshot(ctx, f.match.ID, f.home.ManagerID, "image/png", strings.NewReader("fake png"))
	require.NoError(t, err)
	require.NotNil(t, result.ScreenshotKey)
	assert.Contains(t, *result.ScreenshotKey, ".png")
	assert.Contains(t, f.uploader.uploaded, *result.ScreenshotKey)
}

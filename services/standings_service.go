package services

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/joegr/fcdreams/config"
	"github.com/joegr/fcdreams/models"
	"github.com/joegr/fcdreams/repositories"
)

// StandingsService пересчитывает турнирные таблицы. Таблица — чистая
// свёртка подтверждённых матчей группы: пересчёт из одного и того же
// множества матчей всегда даёт одинаковые строки.
type StandingsService interface {
	GetStandings(ctx context.Context, tournamentID, groupNum int) ([]*models.StandingsRow, error)
	RecomputeGroup(ctx context.Context, tournamentID, groupNum int) error
	RecomputeAllGroups(ctx context.Context, tournamentID int) error
}

type standingsService struct {
	matchRepo    repositories.MatchRepository
	teamRepo     repositories.TeamRepository
	standingRepo repositories.StandingRepository
	rules        config.Rules
	groupLocks   *KeyedLock
	logger       *slog.Logger
}

func NewStandingsService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	standingRepo repositories.StandingRepository,
	rules config.Rules,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		matchRepo:    matchRepo,
		teamRepo:     teamRepo,
		standingRepo: standingRepo,
		rules:        rules,
		groupLocks:   NewKeyedLock(),
		logger:       logger,
	}
}

func (s *standingsService) GetStandings(ctx context.Context, tournamentID, groupNum int) ([]*models.StandingsRow, error) {
	rows, err := s.standingRepo.ListByGroup(ctx, tournamentID, groupNum)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		team, err := s.teamRepo.GetByID(ctx, row.TeamID)
		if err != nil {
			return nil, mapTeamRepoError(err)
		}
		row.Team = team
	}
	return rows, nil
}

// RecomputeGroup перестраивает таблицу группы с нуля. Пересчёты одной
// группы сериализуются; разные группы считаются параллельно.
func (s *standingsService) RecomputeGroup(ctx context.Context, tournamentID, groupNum int) error {
	release, err := s.groupLocks.Acquire(ctx, tournamentID*1000+groupNum, s.rules.LockTimeout)
	if err != nil {
		return err
	}
	defer release()

	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID, true)
	if err != nil {
		return mapTeamRepoError(err)
	}

	rowsByTeam := make(map[int]*models.StandingsRow)
	for _, team := range teams {
		if team.GroupNum == nil || *team.GroupNum != groupNum {
			continue
		}
		rowsByTeam[team.ID] = &models.StandingsRow{
			TournamentID: tournamentID,
			GroupNum:     groupNum,
			TeamID:       team.ID,
		}
	}

	confirmed := models.MatchStatusConfirmed
	groupStage := models.StageGroup
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, repositories.MatchFilter{
		Stage:    &groupStage,
		Status:   &confirmed,
		GroupNum: &groupNum,
	})
	if err != nil {
		return mapMatchRepoError(err)
	}

	for _, m := range matches {
		s.applyMatch(rowsByTeam, m)
	}

	rows := make([]*models.StandingsRow, 0, len(rowsByTeam))
	for _, row := range rowsByTeam {
		rows = append(rows, row)
	}
	s.sortRows(rows, matches)
	for i, row := range rows {
		row.Rank = i + 1
	}

	if err := s.standingRepo.ReplaceGroup(ctx, tournamentID, groupNum, rows); err != nil {
		return err
	}

	s.logger.Debug("standings recomputed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("group_num", groupNum),
		slog.Int("teams", len(rows)),
		slog.Int("matches", len(matches)),
	)
	return nil
}

func (s *standingsService) RecomputeAllGroups(ctx context.Context, tournamentID int) error {
	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID, true)
	if err != nil {
		return mapTeamRepoError(err)
	}

	groups := make(map[int]struct{})
	for _, team := range teams {
		if team.GroupNum != nil {
			groups[*team.GroupNum] = struct{}{}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for groupNum := range groups {
		groupNum := groupNum
		g.Go(func() error {
			return s.RecomputeGroup(gctx, tournamentID, groupNum)
		})
	}
	return g.Wait()
}

func (s *standingsService) applyMatch(rowsByTeam map[int]*models.StandingsRow, m *models.Match) {
	if m.HomeScore == nil || m.AwayScore == nil {
		return
	}
	home, away := rowsByTeam[m.HomeTeamID], rowsByTeam[m.AwayTeamID]
	if home == nil || away == nil {
		return
	}
	hs, as := *m.HomeScore, *m.AwayScore

	home.Played++
	away.Played++
	home.GoalsFor += hs
	home.GoalsAgainst += as
	away.GoalsFor += as
	away.GoalsAgainst += hs
	home.GoalDifference = home.GoalsFor - home.GoalsAgainst
	away.GoalDifference = away.GoalsFor - away.GoalsAgainst

	switch {
	case hs > as:
		home.Wins++
		away.Losses++
		home.Points += s.rules.PointsWin
		away.Points += s.rules.PointsLoss
	case as > hs:
		away.Wins++
		home.Losses++
		away.Points += s.rules.PointsWin
		home.Points += s.rules.PointsLoss
	default:
		home.Draws++
		away.Draws++
		home.Points += s.rules.PointsDraw
		away.Points += s.rules.PointsDraw
	}
}

// sortRows упорядочивает строки: очки, разница мячей, забитые, ID
// команды. При политике head_to_head пара, равная по всем трём
// критериям, дополнительно сравнивается по очным встречам; группы из
// трёх и более равных команд остаются в порядке по ID (очные сравнения
// в цикле нетранзитивны).
func (s *standingsService) sortRows(rows []*models.StandingsRow, matches []*models.Match) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.TeamID < b.TeamID
	})

	if s.rules.TieBreak != config.TieBreakHeadToHead {
		return
	}
	for i := 0; i < len(rows)-1; {
		j := i + 1
		for j < len(rows) && tiedRows(rows[i], rows[j]) {
			j++
		}
		if j-i == 2 && headToHead(matches, rows[i+1].TeamID, rows[i].TeamID) > 0 {
			rows[i], rows[i+1] = rows[i+1], rows[i]
		}
		i = j
	}
}

func tiedRows(a, b *models.StandingsRow) bool {
	return a.Points == b.Points && a.GoalDifference == b.GoalDifference && a.GoalsFor == b.GoalsFor
}

// headToHead возвращает >0, если a набрала больше очков в личных
// встречах с b, <0 — если меньше, 0 — при равенстве.
func headToHead(matches []*models.Match, a, b int) int {
	diff := 0
	for _, m := range matches {
		if m.HomeScore == nil || m.AwayScore == nil {
			continue
		}
		if !(m.HomeTeamID == a && m.AwayTeamID == b) && !(m.HomeTeamID == b && m.AwayTeamID == a) {
			continue
		}
		hs, as := *m.HomeScore, *m.AwayScore
		switch {
		case hs == as:
		case (hs > as) == (m.HomeTeamID == a):
			diff++
		default:
			diff--
		}
	}
	return diff
}

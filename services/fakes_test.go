package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/joegr/fcdreams/models"
	"github.com/joegr/fcdreams/repositories"
	"github.com/joegr/fcdreams/storage"
)

// In-memory репозитории для тестов сервисного слоя. Семантика
// (версии, копии, ошибки) повторяет postgres-реализации.

type fakeTeamRepo struct {
	mu     sync.Mutex
	teams  map[int]*models.Team
	nextID int
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int]*models.Team), nextID: 1}
}

func (r *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team.ID = r.nextID
	r.nextID++
	cp := *team
	r.teams[team.ID] = &cp
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	cp := *team
	return &cp, nil
}

func (r *fakeTeamRepo) ListByTournament(ctx context.Context, tournamentID int, onlyComplete bool) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Team, 0)
	for _, team := range r.teams {
		if team.TournamentID != tournamentID {
			continue
		}
		if onlyComplete && !team.RegistrationComplete {
			continue
		}
		cp := *team
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTeamRepo) ListByManager(ctx context.Context, managerID int) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Team, 0)
	for _, team := range r.teams {
		if team.ManagerID == managerID {
			cp := *team
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTeamRepo) UpdateRoster(ctx context.Context, id int, playerCount int, registrationComplete bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.PlayerCount = playerCount
	team.RegistrationComplete = registrationComplete
	return nil
}

func (r *fakeTeamRepo) AssignGroup(ctx context.Context, exec repositories.SQLExecutor, id int, groupNum int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	num := groupNum
	team.GroupNum = &num
	return nil
}

type fakePlayerRepo struct {
	mu      sync.Mutex
	players map[int]*models.Player
	nextID  int
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: make(map[int]*models.Player), nextID: 1}
}

func (r *fakePlayerRepo) Create(ctx context.Context, player *models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	player.ID = r.nextID
	r.nextID++
	cp := *player
	r.players[player.ID] = &cp
	return nil
}

func (r *fakePlayerRepo) GetByID(ctx context.Context, id int) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	player, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	cp := *player
	return &cp, nil
}

func (r *fakePlayerRepo) ListByTeam(ctx context.Context, teamID int) ([]*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Player, 0)
	for _, player := range r.players {
		if player.TeamID == teamID {
			cp := *player
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePlayerRepo) CountByTeam(ctx context.Context, teamID int) (int, error) {
	players, _ := r.ListByTeam(ctx, teamID)
	return len(players), nil
}

func (r *fakePlayerRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(r.players, id)
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[int]*models.Match
	nextID  int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match), nextID: 1}
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match.ID = r.nextID
	r.nextID++
	cp := *match
	r.matches[match.ID] = &cp
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *match
	return &cp, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int, filter repositories.MatchFilter) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if filter.Stage != nil && m.Stage != *filter.Stage {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if filter.GroupNum != nil && (m.GroupNum == nil || *m.GroupNum != *filter.GroupNum) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) ListByTeams(ctx context.Context, teamIDs []int, status models.MatchStatus) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[int]bool, len(teamIDs))
	for _, id := range teamIDs {
		ids[id] = true
	}
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.Status != status {
			continue
		}
		if ids[m.HomeTeamID] || ids[m.AwayTeamID] {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, fromVersion int64, status models.MatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if match.Version != fromVersion {
		return repositories.ErrMatchVersionConflict
	}
	match.Status = status
	match.Version++
	return nil
}

func (r *fakeMatchRepo) Confirm(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.matches[match.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if stored.Version != match.Version {
		return repositories.ErrMatchVersionConflict
	}
	stored.Status = models.MatchStatusConfirmed
	stored.HomeScore = match.HomeScore
	stored.AwayScore = match.AwayScore
	stored.ExtraTime = match.ExtraTime
	stored.Penalties = match.Penalties
	stored.WinnerTeamID = match.WinnerTeamID
	stored.Version++
	match.Status = models.MatchStatusConfirmed
	match.Version++
	return nil
}

func (r *fakeMatchRepo) CountUnconfirmedGroupMatches(ctx context.Context, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.matches {
		if m.TournamentID == tournamentID && m.Stage == models.StageGroup && m.Status != models.MatchStatusConfirmed {
			count++
		}
	}
	return count, nil
}

type fakeResultRepo struct {
	mu      sync.Mutex
	results map[int]*models.Result // ключ — match_id
	nextID  int
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{results: make(map[int]*models.Result), nextID: 1}
}

func (r *fakeResultRepo) Create(ctx context.Context, exec repositories.SQLExecutor, result *models.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.results[result.MatchID]; ok {
		return repositories.ErrResultAlreadyExists
	}
	result.ID = r.nextID
	r.nextID++
	cp := *result
	r.results[result.MatchID] = &cp
	return nil
}

func (r *fakeResultRepo) GetByMatch(ctx context.Context, matchID int) (*models.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result, ok := r.results[matchID]
	if !ok {
		return nil, repositories.ErrResultNotFound
	}
	cp := *result
	return &cp, nil
}

func (r *fakeResultRepo) UpdateConfirmations(ctx context.Context, exec repositories.SQLExecutor, id int, homeConfirmed, awayConfirmed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, result := range r.results {
		if result.ID == id {
			result.HomeConfirmed = homeConfirmed
			result.AwayConfirmed = awayConfirmed
			return nil
		}
	}
	return repositories.ErrResultNotFound
}

func (r *fakeResultRepo) UpdateScreenshotKey(ctx context.Context, id int, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, result := range r.results {
		if result.ID == id {
			k := key
			result.ScreenshotKey = &k
			return nil
		}
	}
	return repositories.ErrResultNotFound
}

func (r *fakeResultRepo) DeleteByMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.results[matchID]; !ok {
		return repositories.ErrResultNotFound
	}
	delete(r.results, matchID)
	return nil
}

type groupKey struct {
	tournamentID int
	groupNum     int
}

type fakeStandingRepo struct {
	mu     sync.Mutex
	groups map[groupKey][]*models.StandingsRow
}

func newFakeStandingRepo() *fakeStandingRepo {
	return &fakeStandingRepo{groups: make(map[groupKey][]*models.StandingsRow)}
}

func (r *fakeStandingRepo) ReplaceGroup(ctx context.Context, tournamentID, groupNum int, rows []*models.StandingsRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]*models.StandingsRow, 0, len(rows))
	for _, row := range rows {
		cp := *row
		stored = append(stored, &cp)
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].Rank < stored[j].Rank })
	r.groups[groupKey{tournamentID, groupNum}] = stored
	return nil
}

func (r *fakeStandingRepo) ListByGroup(ctx context.Context, tournamentID, groupNum int) ([]*models.StandingsRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.groups[groupKey{tournamentID, groupNum}]
	out := make([]*models.StandingsRow, 0, len(rows))
	for _, row := range rows {
		cp := *row
		out = append(out, &cp)
	}
	return out, nil
}

type fakeBracketRepo struct {
	mu    sync.Mutex
	nodes map[int][]*models.BracketNode // ключ — tournament_id
}

func newFakeBracketRepo() *fakeBracketRepo {
	return &fakeBracketRepo{nodes: make(map[int][]*models.BracketNode)}
}

func (r *fakeBracketRepo) ReplaceAll(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, nodes []*models.BracketNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]*models.BracketNode, 0, len(nodes))
	for _, node := range nodes {
		cp := *node
		stored = append(stored, &cp)
	}
	r.nodes[tournamentID] = stored
	return nil
}

func (r *fakeBracketRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.BracketNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	nodes, ok := r.nodes[tournamentID]
	if !ok || len(nodes) == 0 {
		return nil, repositories.ErrBracketNotSeeded
	}
	out := make([]*models.BracketNode, 0, len(nodes))
	for _, node := range nodes {
		cp := *node
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeBracketRepo) Update(ctx context.Context, exec repositories.SQLExecutor, node *models.BracketNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, stored := range r.nodes[node.TournamentID] {
		if stored.Index == node.Index {
			cp := *node
			r.nodes[node.TournamentID][i] = &cp
			return nil
		}
	}
	return repositories.ErrBracketNodeNotFound
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
	nextID      int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament), nextID: 1}
}

func (r *fakeTournamentRepo) Create(ctx context.Context, tournament *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tournament.ID = r.nextID
	r.nextID++
	cp := *tournament
	r.tournaments[tournament.ID] = &cp
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tournament, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *tournament
	return &cp, nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tournament, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.Status = status
	return nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Tournament, 0)
	for _, tournament := range r.tournaments {
		if status != nil && tournament.Status != *status {
			continue
		}
		cp := *tournament
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeManagerRepo struct {
	managers map[int]*models.Manager
}

func newFakeManagerRepo() *fakeManagerRepo {
	return &fakeManagerRepo{managers: make(map[int]*models.Manager)}
}

func (r *fakeManagerRepo) GetByID(ctx context.Context, id int) (*models.Manager, error) {
	manager, ok := r.managers[id]
	if !ok {
		return nil, repositories.ErrManagerNotFound
	}
	cp := *manager
	return &cp, nil
}

type fakeUploader struct {
	mu       sync.Mutex
	uploaded map[string]string // key -> content type
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploaded: make(map[string]string)}
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploaded[key] = contentType
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.uploaded, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return fmt.Sprintf("https://cdn.test/%s", key)
}

type fakeNotifier struct {
	mu        sync.Mutex
	confirmed []models.MatchConfirmedEvent
	disputed  []models.MatchDisputedEvent
}

func (n *fakeNotifier) MatchConfirmed(event models.MatchConfirmedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, event)
}

func (n *fakeNotifier) MatchDisputed(event models.MatchDisputedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disputed = append(n.disputed, event)
}

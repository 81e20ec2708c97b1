package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/repositories"
	"github.com/Dosada05/league-rating-system/store"
)

// fakeEnv is a shared in-memory backing store for the repository fakes.
// It has no transaction semantics; tests that need a failing write set
// one of the fail hooks instead.
type fakeEnv struct {
	users         map[int]*models.User
	leagues       map[int]*models.League
	rosters       map[int]*models.RosterEntry
	matches       map[int]*models.Match
	sets          map[int][]models.SetScore
	history       []models.RatingHistoryEntry
	notifications []*models.Notification

	nextMatchID int

	failApplyMatchID int
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		users:       make(map[int]*models.User),
		leagues:     make(map[int]*models.League),
		rosters:     make(map[int]*models.RosterEntry),
		matches:     make(map[int]*models.Match),
		sets:        make(map[int][]models.SetScore),
		nextMatchID: 1,
	}
}

func (e *fakeEnv) addUser(id int, role models.UserRole) *models.User {
	u := &models.User{ID: id, Nickname: "user", Role: role}
	e.users[id] = u
	return u
}

func (e *fakeEnv) addRoster(id, leagueID int, userID int, rating int, isAdmin bool) *models.RosterEntry {
	uid := userID
	r := &models.RosterEntry{ID: id, LeagueID: leagueID, UserID: &uid, DisplayName: "player", Rating: rating, IsAdmin: isAdmin}
	e.rosters[id] = r
	return r
}

func (e *fakeEnv) addLeague(id int, mode models.RatingUpdateMode) *models.League {
	l := &models.League{ID: id, Name: "league", RatingUpdateMode: mode}
	e.leagues[id] = l
	return l
}

func (e *fakeEnv) addMatch(m *models.Match) *models.Match {
	m.ID = e.nextMatchID
	e.nextMatchID++
	clone := *m
	e.matches[clone.ID] = &clone
	return &clone
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(ex store.Executor) error) error {
	return fn(nil)
}

type fakeUserRepo struct{ env *fakeEnv }

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == 0 {
		user.ID = len(r.env.users) + 1
	}
	clone := *user
	r.env.users[clone.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	u, ok := r.env.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.env.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeLeagueRepo struct{ env *fakeEnv }

func (r *fakeLeagueRepo) Create(ctx context.Context, ex store.Executor, league *models.League) error {
	league.ID = len(r.env.leagues) + 1
	r.env.leagues[league.ID] = league
	return nil
}

func (r *fakeLeagueRepo) GetByID(ctx context.Context, id int) (*models.League, error) {
	l, ok := r.env.leagues[id]
	if !ok {
		return nil, repositories.ErrLeagueNotFound
	}
	return l, nil
}

func (r *fakeLeagueRepo) List(ctx context.Context) ([]*models.League, error) {
	out := make([]*models.League, 0, len(r.env.leagues))
	for _, l := range r.env.leagues {
		out = append(out, l)
	}
	return out, nil
}

type fakeRosterRepo struct{ env *fakeEnv }

func (r *fakeRosterRepo) Create(ctx context.Context, ex store.Executor, entry *models.RosterEntry) error {
	for _, existing := range r.env.rosters {
		if existing.LeagueID == entry.LeagueID && existing.UserID != nil && entry.UserID != nil && *existing.UserID == *entry.UserID {
			return repositories.ErrRosterMemberConflict
		}
	}
	entry.ID = len(r.env.rosters) + 1000
	r.env.rosters[entry.ID] = entry
	return nil
}

func (r *fakeRosterRepo) GetByID(ctx context.Context, ex store.Executor, id int) (*models.RosterEntry, error) {
	entry, ok := r.env.rosters[id]
	if !ok {
		return nil, repositories.ErrRosterNotFound
	}
	clone := *entry
	return &clone, nil
}

func (r *fakeRosterRepo) GetByLeagueAndUser(ctx context.Context, leagueID, userID int) (*models.RosterEntry, error) {
	for _, entry := range r.env.rosters {
		if entry.LeagueID == leagueID && entry.UserID != nil && *entry.UserID == userID {
			return entry, nil
		}
	}
	return nil, repositories.ErrRosterNotFound
}

func (r *fakeRosterRepo) ListByLeague(ctx context.Context, leagueID int) ([]*models.RosterEntry, error) {
	var out []*models.RosterEntry
	for _, entry := range r.env.rosters {
		if entry.LeagueID == leagueID {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out, nil
}

func (r *fakeRosterRepo) UpdateRating(ctx context.Context, ex store.Executor, rosterID, ratingValue int) error {
	entry, ok := r.env.rosters[rosterID]
	if !ok {
		return repositories.ErrRosterNotFound
	}
	entry.Rating = ratingValue
	return nil
}

type fakeMatchRepo struct{ env *fakeEnv }

func (r *fakeMatchRepo) Create(ctx context.Context, ex store.Executor, match *models.Match) error {
	match.ID = r.env.nextMatchID
	r.env.nextMatchID++
	clone := *match
	r.env.matches[clone.ID] = &clone
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, ok := r.env.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *fakeMatchRepo) ListByLeague(ctx context.Context, leagueID int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.env.matches {
		if m.LeagueID == leagueID {
			clone := *m
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) ListPendingByLeague(ctx context.Context, leagueID, limit int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.env.matches {
		if m.LeagueID == leagueID && m.State == models.StateAcceptedPending {
			clone := *m
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].AcceptedAt, out[j].AcceptedAt
		if ti.Equal(*tj) {
			return out[i].ID < out[j].ID
		}
		return ti.Before(*tj)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeMatchRepo) UpdateResult(ctx context.Context, ex store.Executor, match *models.Match) error {
	stored, ok := r.env.matches[match.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if stored.State != models.StateSubmitted {
		return repositories.ErrMatchStateConflict
	}
	clone := *match
	r.env.matches[clone.ID] = &clone
	return nil
}

func (r *fakeMatchRepo) MarkAccepted(ctx context.Context, ex store.Executor, id int, state models.MatchState, acceptedAt time.Time, ratingAppliedAt *time.Time) error {
	stored, ok := r.env.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if stored.State != models.StateSubmitted {
		return repositories.ErrMatchStateConflict
	}
	stored.State = state
	stored.AcceptedAt = &acceptedAt
	stored.RatingAppliedAt = ratingAppliedAt
	return nil
}

func (r *fakeMatchRepo) ApplyConsolidation(ctx context.Context, ex store.Executor, match *models.Match) error {
	if r.env.failApplyMatchID != 0 && match.ID == r.env.failApplyMatchID {
		return context.DeadlineExceeded
	}
	stored, ok := r.env.matches[match.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if stored.State != models.StateAcceptedPending {
		return repositories.ErrMatchStateConflict
	}
	clone := *match
	clone.State = models.StateAcceptedApplied
	r.env.matches[clone.ID] = &clone
	return nil
}

func (r *fakeMatchRepo) Delete(ctx context.Context, ex store.Executor, id int) error {
	if _, ok := r.env.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.env.matches, id)
	return nil
}

type fakeSetScoreRepo struct{ env *fakeEnv }

func (r *fakeSetScoreRepo) ReplaceForMatch(ctx context.Context, ex store.Executor, matchID int, sets []models.SetScore) error {
	r.env.sets[matchID] = sets
	return nil
}

func (r *fakeSetScoreRepo) ListByMatch(ctx context.Context, matchID int) ([]models.SetScore, error) {
	return r.env.sets[matchID], nil
}

func (r *fakeSetScoreRepo) DeleteForMatch(ctx context.Context, ex store.Executor, matchID int) error {
	delete(r.env.sets, matchID)
	return nil
}

type fakeHistoryRepo struct{ env *fakeEnv }

func (r *fakeHistoryRepo) Create(ctx context.Context, ex store.Executor, entry *models.RatingHistoryEntry) error {
	r.env.history = append(r.env.history, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByRoster(ctx context.Context, rosterID int) ([]*models.RatingHistoryEntry, error) {
	var out []*models.RatingHistoryEntry
	for i := range r.env.history {
		if r.env.history[i].RosterID == rosterID {
			out = append(out, &r.env.history[i])
		}
	}
	return out, nil
}

type fakeNotifier struct{ env *fakeEnv }

func (n *fakeNotifier) NotifyTx(ctx context.Context, ex store.Executor, userID *int, typ models.NotificationType, title, message string, relatedID int) error {
	if userID == nil {
		return nil
	}
	n.env.notifications = append(n.env.notifications, &models.Notification{
		UserID:  *userID,
		Type:    typ,
		Title:   title,
		Message: message,
	})
	return nil
}

type fakeBroadcaster struct {
	events []string
}

func (b *fakeBroadcaster) Publish(leagueID int, eventType string, payload interface{}) {
	b.events = append(b.events, eventType)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

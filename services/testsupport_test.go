package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AnderssonProgramming/code-arena-rt/models"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// fakeClock lets tests control the service clocks.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{t: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// memUserStore is an in-memory UserStore.
type memUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]models.User)}
}

func (m *memUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.NewError(models.KindNotFound, "user not found")
	}
	cp := u
	return &cp, nil
}

func (m *memUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}
	return nil, models.NewError(models.KindNotFound, "user not found")
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, models.NewError(models.KindNotFound, "user not found")
}

func (m *memUserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserStore) SearchByUsername(_ context.Context, query string, limit int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0)
	for _, u := range m.users {
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(query)) {
			out = append(out, u)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memUserStore) ListActive(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0)
	for _, u := range m.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUserStore) Save(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	return nil
}

// memChallengeStore is an in-memory ChallengeStore with deterministic
// insertion order.
type memChallengeStore struct {
	mu         sync.Mutex
	order      []string
	challenges map[string]models.Challenge
}

func newMemChallengeStore() *memChallengeStore {
	return &memChallengeStore{challenges: make(map[string]models.Challenge)}
}

func (m *memChallengeStore) FindByID(_ context.Context, id string) (*models.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[id]
	if !ok {
		return nil, models.NewError(models.KindNotFound, "challenge not found")
	}
	cp := c
	return &cp, nil
}

func (m *memChallengeStore) FindByDifficultyActive(_ context.Context, difficulty models.Difficulty) ([]models.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Challenge, 0)
	for _, id := range m.order {
		c := m.challenges[id]
		if c.IsActive && c.Difficulty == difficulty {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memChallengeStore) ListActive(_ context.Context) ([]models.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Challenge, 0)
	for _, id := range m.order {
		c := m.challenges[id]
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memChallengeStore) Search(_ context.Context, query string, limit int) ([]models.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Challenge, 0)
	for _, id := range m.order {
		c := m.challenges[id]
		if c.IsActive && strings.Contains(strings.ToLower(c.Title), strings.ToLower(query)) {
			out = append(out, c)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memChallengeStore) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.challenges)), nil
}

func (m *memChallengeStore) Save(_ context.Context, challenge *models.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.challenges[challenge.ID]; !ok {
		m.order = append(m.order, challenge.ID)
	}
	m.challenges[challenge.ID] = *challenge
	return nil
}

// memRoomStore and memGameStore record snapshot writes.
type memRoomStore struct {
	mu    sync.Mutex
	rooms map[string]*models.Room
}

func newMemRoomStore() *memRoomStore {
	return &memRoomStore{rooms: make(map[string]*models.Room)}
}

func (m *memRoomStore) Save(_ context.Context, room *models.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
	return nil
}

func (m *memRoomStore) FindByID(_ context.Context, id string) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil, models.NewError(models.KindNotFound, "room not found")
	}
	return room, nil
}

func (m *memRoomStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
	return nil
}

type memGameStore struct {
	mu    sync.Mutex
	games map[string]*models.Game
}

func newMemGameStore() *memGameStore {
	return &memGameStore{games: make(map[string]*models.Game)}
}

func (m *memGameStore) Save(_ context.Context, game *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[game.ID] = game
	return nil
}

func (m *memGameStore) FindByID(_ context.Context, id string) (*models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	game, ok := m.games[id]
	if !ok {
		return nil, models.NewError(models.KindNotFound, "game not found")
	}
	return game, nil
}

// recordBroadcaster captures every notification.
type recordBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordBroadcaster) record(event string) {
	b.mu.Lock()
	b.events = append(b.events, event)
	b.mu.Unlock()
}

func (b *recordBroadcaster) all() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	copy(out, b.events)
	return out
}

func (b *recordBroadcaster) count(event string) int {
	n := 0
	for _, e := range b.all() {
		if e == event {
			n++
		}
	}
	return n
}

func (b *recordBroadcaster) RoomUpdated(eventType string, _ *models.Room, _, _ string) {
	b.record(eventType)
}
func (b *recordBroadcaster) RoomDeleted(string) { b.record("ROOM_CLOSED") }
func (b *recordBroadcaster) GameStarted(string, *models.Challenge) {
	b.record("GAME_STARTED")
}
func (b *recordBroadcaster) GameUpdated(eventType, _, _, _ string) { b.record(eventType) }
func (b *recordBroadcaster) RoundStarted(string, int, *models.Challenge) {
	b.record("ROUND_STARTED")
}
func (b *recordBroadcaster) AnswerResult(string, models.PlayerAnswer) { b.record("ANSWER_RESULT") }
func (b *recordBroadcaster) GameFinished(string, *models.GameResults) { b.record("GAME_FINISHED") }
func (b *recordBroadcaster) ErrorTo(_, eventType, _ string)           { b.record(eventType) }

// stubStats records finalization write-backs.
type statsCall struct {
	UserID      string
	Won         bool
	Score       int
	PlaySeconds int64
}

type stubStats struct {
	mu    sync.Mutex
	calls []statsCall
}

func (s *stubStats) RecordGameResult(_ context.Context, userID string, won bool, score int, playSeconds int64) error {
	s.mu.Lock()
	s.calls = append(s.calls, statsCall{UserID: userID, Won: won, Score: score, PlaySeconds: playSeconds})
	s.mu.Unlock()
	return nil
}

func (s *stubStats) all() []statsCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]statsCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// zeroSource makes a rand.Rand draw the same candidate forever.
type zeroSource struct{}

func (zeroSource) Int63() int64 { return 0 }
func (zeroSource) Seed(int64)   {}

// stubSelector returns a fixed challenge draw.
type stubSelector struct {
	challenges []models.Challenge
	err        error
}

func (s *stubSelector) SelectForGame(context.Context, models.Difficulty, int) ([]models.Challenge, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.challenges, nil
}

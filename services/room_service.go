package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/AnderssonProgramming/code-arena-rt/models"
)

const (
	roomCodeLength   = 6
	roomCodeAttempts = 20
	minRoomPlayers   = 2
	maxRoomPlayers   = 8
)

// RoomService is the room registry. The in-memory map is authoritative;
// every mutating operation serializes on the per-room mutex, and the
// durable snapshot write to the store happens inside that critical
// section so readers of the store never see a torn room.
type RoomService struct {
	mu     sync.RWMutex
	rooms  map[string]*roomEntry
	byCode map[string]string // room code -> room id

	users UserStore
	store RoomStore
	games *GameService
	bc    Broadcaster
	log   *zap.SugaredLogger
	now   func() time.Time
	ttl   time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand

	sweeper *cron.Cron
}

type roomEntry struct {
	mu   sync.Mutex
	room *models.Room
}

func NewRoomService(users UserStore, store RoomStore, games *GameService, bc Broadcaster, ttl time.Duration, log *zap.SugaredLogger) *RoomService {
	return &RoomService{
		rooms:  make(map[string]*roomEntry),
		byCode: make(map[string]string),
		users:  users,
		store:  store,
		games:  games,
		bc:     bc,
		log:    log,
		now:    time.Now,
		ttl:    ttl,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type CreateRoomRequest struct {
	Name             string             `json:"name" binding:"required"`
	MaxPlayers       int                `json:"max_players" binding:"required,min=2,max=8"`
	Difficulty       models.Difficulty  `json:"difficulty" binding:"required"`
	GameMode         models.GameMode    `json:"game_mode"`
	ScoringMode      models.ScoringMode `json:"scoring_mode"`
	TimePerChallenge int                `json:"time_per_challenge" binding:"min=0,max=300"`
	TotalChallenges  int                `json:"total_challenges" binding:"min=0,max=20"`
	IsPublic         bool               `json:"is_public"`
	Password         string             `json:"password"`
}

// CreateRoom builds a room with a fresh unique code and the host
// auto-joined and ready.
func (s *RoomService) CreateRoom(ctx context.Context, hostID string, req *CreateRoomRequest) (*models.Room, error) {
	host, err := s.users.FindByID(ctx, hostID)
	if err != nil {
		return nil, err
	}

	roomID := uuid.New().String()
	code, err := s.claimRoomCode(roomID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	config := models.RoomConfig{
		MaxPlayers:       req.MaxPlayers,
		Difficulty:       req.Difficulty,
		GameMode:         req.GameMode,
		ScoringMode:      req.ScoringMode,
		TimePerChallenge: req.TimePerChallenge,
		TotalChallenges:  req.TotalChallenges,
		IsPublic:         req.IsPublic,
		Password:         req.Password,
	}
	if config.GameMode == "" {
		config.GameMode = models.ModeClassic
	}
	if config.ScoringMode == "" {
		config.ScoringMode = models.ScoringStandard
	}
	if config.TimePerChallenge == 0 {
		config.TimePerChallenge = 60
	}
	if config.TotalChallenges == 0 {
		config.TotalChallenges = 5
	}

	room := &models.Room{
		ID:       roomID,
		RoomCode: code,
		Name:     req.Name,
		HostID:   hostID,
		Players: []models.RoomPlayer{{
			UserID:    hostID,
			Username:  host.Username,
			IsReady:   true,
			Connected: true,
			JoinedAt:  now,
		}},
		Config:    config,
		Status:    models.RoomWaiting,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.rooms[room.ID] = &roomEntry{room: room}
	s.mu.Unlock()

	s.saveSnapshot(ctx, room)
	s.log.Infow("room created", "room_id", room.ID, "code", code, "host", hostID)
	return room.Clone(), nil
}

// JoinRoom appends the player to a WAITING, non-full room they are not
// already in. Failures never mutate the room.
func (s *RoomService) JoinRoom(ctx context.Context, userID, roomCode, password string) (*models.Room, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry, err := s.entryByCode(roomCode)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	room := entry.room
	if room.Status != models.RoomWaiting {
		entry.mu.Unlock()
		return nil, models.NewError(models.KindInvalidState, "room is not accepting new players")
	}
	if room.IsFull() {
		entry.mu.Unlock()
		return nil, models.NewError(models.KindFull, "room is full")
	}
	if room.HasPlayer(userID) {
		entry.mu.Unlock()
		return nil, models.NewError(models.KindAlreadyMember, "already in this room")
	}
	if !room.Config.IsPublic && room.Config.Password != "" && room.Config.Password != password {
		entry.mu.Unlock()
		return nil, models.NewError(models.KindForbidden, "invalid room password")
	}

	room.Players = append(room.Players, models.RoomPlayer{
		UserID:    userID,
		Username:  user.Username,
		Connected: true,
		JoinedAt:  s.now(),
	})
	room.UpdatedAt = s.now()
	s.saveSnapshot(ctx, room)
	snapshot := room.Clone()
	entry.mu.Unlock()

	s.bc.RoomUpdated("PLAYER_JOINED", snapshot, user.Username, fmt.Sprintf("%s joined the room", user.Username))
	return snapshot, nil
}

// LeaveRoom removes the player. The host role moves to the
// earliest-joined remaining player; an emptied room is deleted. The
// returned bool reports deletion.
func (s *RoomService) LeaveRoom(ctx context.Context, userID, roomID string) (*models.Room, bool, error) {
	entry, err := s.entry(roomID)
	if err != nil {
		return nil, false, err
	}

	entry.mu.Lock()
	room := entry.room
	if room.Status != models.RoomWaiting {
		entry.mu.Unlock()
		return nil, false, models.NewError(models.KindInvalidState, "room membership is frozen once the game starts")
	}

	idx := -1
	for i, p := range room.Players {
		if p.UserID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		entry.mu.Unlock()
		return nil, false, models.NewError(models.KindNotFound, "player not in room")
	}
	username := room.Players[idx].Username
	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
	room.UpdatedAt = s.now()

	if len(room.Players) == 0 {
		entry.mu.Unlock()
		s.deleteRoom(ctx, room)
		s.bc.RoomDeleted(room.ID)
		return nil, true, nil
	}

	// Players are kept in join order, so index 0 is the earliest
	// remaining joiner.
	if room.HostID == userID {
		room.HostID = room.Players[0].UserID
	}

	s.saveSnapshot(ctx, room)
	snapshot := room.Clone()
	entry.mu.Unlock()

	s.bc.RoomUpdated("PLAYER_LEFT", snapshot, username, fmt.Sprintf("%s left the room", username))
	return snapshot, false, nil
}

// ToggleReady flips the ready flag for that player only.
func (s *RoomService) ToggleReady(ctx context.Context, userID, roomID string) (*models.Room, error) {
	entry, err := s.entry(roomID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	room := entry.room
	if room.Status != models.RoomWaiting {
		entry.mu.Unlock()
		return nil, models.NewError(models.KindInvalidState, "room is not in the lobby phase")
	}

	var username string
	found := false
	for i := range room.Players {
		if room.Players[i].UserID == userID {
			room.Players[i].IsReady = !room.Players[i].IsReady
			username = room.Players[i].Username
			found = true
			break
		}
	}
	if !found {
		entry.mu.Unlock()
		return nil, models.NewError(models.KindNotFound, "player not in room")
	}

	room.UpdatedAt = s.now()
	s.saveSnapshot(ctx, room)
	snapshot := room.Clone()
	entry.mu.Unlock()

	s.bc.RoomUpdated("PLAYER_READY_CHANGED", snapshot, username, fmt.Sprintf("%s changed ready state", username))
	return snapshot, nil
}

// StartGame is host-only and requires every member ready with at least
// two present. On success the room becomes read-only and the created
// game is returned in STARTING state.
func (s *RoomService) StartGame(ctx context.Context, userID, roomID string) (*models.Game, error) {
	entry, err := s.entry(roomID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	room := entry.room
	if room.Status != models.RoomWaiting {
		entry.mu.Unlock()
		return nil, models.NewError(models.KindInvalidState, "room has already started")
	}
	if !room.IsHost(userID) {
		entry.mu.Unlock()
		return nil, models.NewError(models.KindForbidden, "only the host can start the game")
	}
	if !room.CanStart() {
		entry.mu.Unlock()
		return nil, models.NewError(models.KindInvalidState, "cannot start: need at least 2 players, all ready")
	}

	game, err := s.games.CreateGame(ctx, room.Clone())
	if err != nil {
		entry.mu.Unlock()
		return nil, err
	}

	room.Status = models.RoomInGame
	room.GameID = game.ID
	room.UpdatedAt = s.now()
	s.saveSnapshot(ctx, room)
	snapshot := room.Clone()
	entry.mu.Unlock()

	s.bc.RoomUpdated("GAME_STARTING", snapshot, userID, "game is starting")
	s.log.Infow("room started game", "room_id", roomID, "game_id", game.ID)
	return game, nil
}

func (s *RoomService) GetRoomByID(roomID string) (*models.Room, error) {
	entry, err := s.entry(roomID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.room.Clone(), nil
}

func (s *RoomService) GetRoomByCode(roomCode string) (*models.Room, error) {
	entry, err := s.entryByCode(roomCode)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.room.Clone(), nil
}

// ListPublicRooms returns the public lobbies still accepting players.
func (s *RoomService) ListPublicRooms() []*models.Room {
	s.mu.RLock()
	entries := make([]*roomEntry, 0, len(s.rooms))
	for _, e := range s.rooms {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	rooms := make([]*models.Room, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if e.room.Config.IsPublic && e.room.Status == models.RoomWaiting {
			rooms = append(rooms, e.room.Clone())
		}
		e.mu.Unlock()
	}
	return rooms
}

// ListUserRooms returns the waiting rooms the user belongs to.
func (s *RoomService) ListUserRooms(userID string) []*models.Room {
	s.mu.RLock()
	entries := make([]*roomEntry, 0, len(s.rooms))
	for _, e := range s.rooms {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	rooms := make([]*models.Room, 0)
	for _, e := range entries {
		e.mu.Lock()
		if e.room.Status == models.RoomWaiting && e.room.HasPlayer(userID) {
			rooms = append(rooms, e.room.Clone())
		}
		e.mu.Unlock()
	}
	return rooms
}

// StartExpirySweeper runs the periodic cleanup of expired rooms.
func (s *RoomService) StartExpirySweeper() {
	s.sweeper = cron.New()
	s.sweeper.AddFunc("@every 1m", func() {
		s.SweepExpired(context.Background())
	})
	s.sweeper.Start()
}

func (s *RoomService) StopExpirySweeper() {
	if s.sweeper != nil {
		s.sweeper.Stop()
	}
}

// SweepExpired deletes rooms past their TTL that never started a game.
func (s *RoomService) SweepExpired(ctx context.Context) int {
	s.mu.RLock()
	entries := make([]*roomEntry, 0, len(s.rooms))
	for _, e := range s.rooms {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	removed := 0
	for _, e := range entries {
		e.mu.Lock()
		expired := e.room.Status == models.RoomWaiting && e.room.IsExpired(s.now())
		room := e.room
		e.mu.Unlock()
		if expired {
			s.deleteRoom(ctx, room)
			s.bc.RoomDeleted(room.ID)
			removed++
		}
	}
	if removed > 0 {
		s.log.Infow("swept expired rooms", "count", removed)
	}
	return removed
}

func (s *RoomService) entry(roomID string) (*roomEntry, error) {
	s.mu.RLock()
	entry, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if !ok {
		return nil, models.NewError(models.KindNotFound, "room not found")
	}
	return entry, nil
}

func (s *RoomService) entryByCode(roomCode string) (*roomEntry, error) {
	s.mu.RLock()
	roomID, ok := s.byCode[roomCode]
	entry := s.rooms[roomID]
	s.mu.RUnlock()
	if !ok || entry == nil {
		return nil, models.NewError(models.KindNotFound, "room not found")
	}
	return entry, nil
}

func (s *RoomService) deleteRoom(ctx context.Context, room *models.Room) {
	s.mu.Lock()
	delete(s.rooms, room.ID)
	delete(s.byCode, room.RoomCode)
	s.mu.Unlock()

	if err := s.store.Delete(ctx, room.ID); err != nil {
		s.log.Warnw("failed to delete room snapshot", "room_id", room.ID, "error", err)
	}
	s.log.Infow("room deleted", "room_id", room.ID)
}

// claimRoomCode draws 6-digit candidates and reserves the first free one
// for the room. Check and reservation happen in one critical section, so
// two concurrent creates can never claim the same code. The retry loop
// is bounded so a pathological collision run cannot spin forever.
func (s *RoomService) claimRoomCode(roomID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for attempt := 0; attempt < roomCodeAttempts; attempt++ {
		s.rngMu.Lock()
		n := s.rng.Intn(1000000)
		s.rngMu.Unlock()
		code := fmt.Sprintf("%0*d", roomCodeLength, n)

		if _, taken := s.byCode[code]; !taken {
			s.byCode[code] = roomID
			return code, nil
		}
	}
	return "", models.NewError(models.KindInternal, "could not allocate a unique room code after %d attempts", roomCodeAttempts)
}

func (s *RoomService) saveSnapshot(ctx context.Context, room *models.Room) {
	if err := s.store.Save(ctx, room.Clone()); err != nil {
		s.log.Warnw("failed to persist room snapshot", "room_id", room.ID, "error", err)
	}
}

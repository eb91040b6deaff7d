package models

import (
	"time"
)

type RoomStatus string

const (
	RoomWaiting RoomStatus = "WAITING"
	RoomInGame  RoomStatus = "IN_GAME"
	RoomClosed  RoomStatus = "CLOSED"
)

type GameMode string

const (
	ModeClassic    GameMode = "CLASSIC"
	ModeBlitz      GameMode = "BLITZ"
	ModePractice   GameMode = "PRACTICE"
	ModeTournament GameMode = "TOURNAMENT"
)

type ScoringMode string

const (
	ScoringStandard    ScoringMode = "STANDARD"
	ScoringTimeBased   ScoringMode = "TIME_BASED"
	ScoringStreakBonus ScoringMode = "STREAK_BONUS"
	ScoringElimination ScoringMode = "ELIMINATION"
)

// Room is the pre-game lobby. The player slice is ordered by join time
// and is owned exclusively by the room.
type Room struct {
	ID        string       `json:"id"`
	RoomCode  string       `json:"room_code"`
	Name      string       `json:"name"`
	HostID    string       `json:"host_id"`
	Players   []RoomPlayer `json:"players"`
	Config    RoomConfig   `json:"config"`
	Status    RoomStatus   `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	ExpiresAt time.Time    `json:"expires_at"`
	GameID    string       `json:"game_id,omitempty"`
}

type RoomPlayer struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	IsReady   bool      `json:"is_ready"`
	Connected bool      `json:"is_connected"`
	JoinedAt  time.Time `json:"joined_at"`
}

type RoomConfig struct {
	MaxPlayers       int         `json:"max_players"`
	Difficulty       Difficulty  `json:"difficulty"`
	GameMode         GameMode    `json:"game_mode"`
	ScoringMode      ScoringMode `json:"scoring_mode"`
	TimePerChallenge int         `json:"time_per_challenge"` // seconds
	TotalChallenges  int         `json:"total_challenges"`
	IsPublic         bool        `json:"is_public"`
	Password         string      `json:"-"`
}

func (r *Room) IsFull() bool {
	return len(r.Players) >= r.Config.MaxPlayers
}

func (r *Room) HasPlayer(userID string) bool {
	for _, p := range r.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func (r *Room) IsHost(userID string) bool {
	return r.HostID == userID
}

// CanStart holds when at least two members are present and everyone is
// ready. The host alone can never start a game.
func (r *Room) CanStart() bool {
	if len(r.Players) < 2 {
		return false
	}
	for _, p := range r.Players {
		if !p.IsReady {
			return false
		}
	}
	return true
}

func (r *Room) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Clone deep-copies the room so callers can hold a snapshot outside the
// registry lock.
func (r *Room) Clone() *Room {
	cp := *r
	cp.Players = make([]RoomPlayer, len(r.Players))
	copy(cp.Players, r.Players)
	return &cp
}

package models

import (
	"time"
)

type GameStatus string

const (
	GameWaiting    GameStatus = "WAITING"
	GameStarting   GameStatus = "STARTING"
	GameInProgress GameStatus = "IN_PROGRESS"
	GameFinished   GameStatus = "FINISHED"
	GameCancelled  GameStatus = "CANCELLED"
)

// statusOrder encodes the monotonic lifecycle. Transitions may only
// move to a strictly larger rank.
var statusOrder = map[GameStatus]int{
	GameWaiting:    0,
	GameStarting:   1,
	GameInProgress: 2,
	GameFinished:   3,
	GameCancelled:  3,
}

// CanTransition reports whether moving from to next respects the
// forward-only lifecycle.
func (s GameStatus) CanTransition(next GameStatus) bool {
	return statusOrder[next] > statusOrder[s]
}

// Game is one playthrough. Rounds and per-player state are owned
// exclusively by the game; challenges are referenced by id only.
type Game struct {
	ID           string       `json:"id"`
	RoomID       string       `json:"room_id"`
	HostID       string       `json:"host_id"`
	Players      []GamePlayer `json:"players"`
	Rounds       []Round      `json:"rounds"`
	Config       RoomConfig   `json:"config"`
	Status       GameStatus   `json:"status"`
	CurrentRound int          `json:"current_round"`
	CreatedAt    time.Time    `json:"created_at"`
	StartedAt    *time.Time   `json:"started_at"`
	FinishedAt   *time.Time   `json:"finished_at"`
	Results      *GameResults `json:"results,omitempty"`
}

type GamePlayer struct {
	UserID         string     `json:"user_id"`
	Username       string     `json:"username"`
	Score          int        `json:"score"`
	TotalAnswers   int        `json:"total_answers"`
	CorrectAnswers int        `json:"correct_answers"`
	CurrentStreak  int        `json:"current_streak"`
	BestStreak     int        `json:"best_streak"`
	AvgResponseMs  float64    `json:"avg_response_ms"`
	HasAnswered    bool       `json:"has_answered"`
	Connected      bool       `json:"is_connected"`
	Eliminated     bool       `json:"is_eliminated"`
	LastAnswerAt   *time.Time `json:"last_answer_at"`
	JoinedAt       time.Time  `json:"joined_at"`
}

// Round is one challenge's active window. Exactly one round is open at
// a time: the one at the game's CurrentRound index, until Completed.
type Round struct {
	ChallengeID string         `json:"challenge_id"`
	StartedAt   time.Time      `json:"started_at"`
	Duration    int            `json:"duration"` // seconds
	Answers     []PlayerAnswer `json:"answers"`
	Completed   bool           `json:"is_completed"`
}

func (r *Round) HasAnswerFrom(userID string) bool {
	for _, a := range r.Answers {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

func (r *Round) Expired(now time.Time) bool {
	return !now.Before(r.StartedAt.Add(time.Duration(r.Duration) * time.Second))
}

// PlayerAnswer is the immutable record of a single submission.
type PlayerAnswer struct {
	UserID      string    `json:"user_id"`
	ChallengeID string    `json:"challenge_id"`
	Answer      string    `json:"answer"`
	IsCorrect   bool      `json:"is_correct"`
	ResponseMs  int64     `json:"response_ms"`
	Points      int       `json:"points"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type GameResults struct {
	PlayerResults []PlayerResult   `json:"player_results"`
	WinnerID      string           `json:"winner_id,omitempty"`
	TotalRounds   int              `json:"total_rounds"`
	Stats         GameStatsSummary `json:"stats"`
}

type PlayerResult struct {
	UserID         string  `json:"user_id"`
	Username       string  `json:"username"`
	Rank           int     `json:"rank"`
	Score          int     `json:"score"`
	CorrectAnswers int     `json:"correct_answers"`
	TotalAnswers   int     `json:"total_answers"`
	AvgResponseMs  float64 `json:"avg_response_ms"`
}

type GameStatsSummary struct {
	AverageScore    float64 `json:"average_score"`
	FastestAnswerMs int64   `json:"fastest_answer_ms"`
}

func (g *Game) PlayerIndex(userID string) int {
	for i := range g.Players {
		if g.Players[i].UserID == userID {
			return i
		}
	}
	return -1
}

// OpenRound returns the round at the current index if it is still
// collecting answers, or nil.
func (g *Game) OpenRound() *Round {
	if g.CurrentRound < 0 || g.CurrentRound >= len(g.Rounds) {
		return nil
	}
	r := &g.Rounds[g.CurrentRound]
	if r.Completed {
		return nil
	}
	return r
}

// Clone deep-copies the game so snapshots can leave the session lock.
func (g *Game) Clone() *Game {
	cp := *g
	cp.Players = make([]GamePlayer, len(g.Players))
	copy(cp.Players, g.Players)
	cp.Rounds = make([]Round, len(g.Rounds))
	for i, r := range g.Rounds {
		rc := r
		rc.Answers = make([]PlayerAnswer, len(r.Answers))
		copy(rc.Answers, r.Answers)
		cp.Rounds[i] = rc
	}
	if g.Results != nil {
		res := *g.Results
		res.PlayerResults = make([]PlayerResult, len(g.Results.PlayerResults))
		copy(res.PlayerResults, g.Results.PlayerResults)
		cp.Results = &res
	}
	return &cp
}

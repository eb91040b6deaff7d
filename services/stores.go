package services

import (
	"context"

	"github.com/AnderssonProgramming/code-arena-rt/models"
)

// Collaborator contracts. Services depend on these interfaces; the
// repository package provides the concrete Postgres/Redis adapters.

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	SearchByUsername(ctx context.Context, query string, limit int) ([]models.User, error)
	ListActive(ctx context.Context) ([]models.User, error)
	Save(ctx context.Context, user *models.User) error
}

type ChallengeStore interface {
	FindByID(ctx context.Context, id string) (*models.Challenge, error)
	FindByDifficultyActive(ctx context.Context, difficulty models.Difficulty) ([]models.Challenge, error)
	ListActive(ctx context.Context) ([]models.Challenge, error)
	Search(ctx context.Context, query string, limit int) ([]models.Challenge, error)
	Count(ctx context.Context) (int64, error)
	Save(ctx context.Context, challenge *models.Challenge) error
}

type RoomStore interface {
	Save(ctx context.Context, room *models.Room) error
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Delete(ctx context.Context, id string) error
}

type GameStore interface {
	Save(ctx context.Context, game *models.Game) error
	FindByID(ctx context.Context, id string) (*models.Game, error)
}

// ChallengeSelector draws the ordered challenge set for a new game.
type ChallengeSelector interface {
	SelectForGame(ctx context.Context, difficulty models.Difficulty, count int) ([]models.Challenge, error)
}

// StatsRecorder receives per-player outcomes once a game finishes.
type StatsRecorder interface {
	RecordGameResult(ctx context.Context, userID string, won bool, score int, playSeconds int64) error
}

// Broadcaster translates core mutations into outbound notifications.
// Implementations never mutate core state.
type Broadcaster interface {
	RoomUpdated(eventType string, room *models.Room, actor, message string)
	RoomDeleted(roomID string)
	GameStarted(gameID string, challenge *models.Challenge)
	GameUpdated(eventType, gameID, actor, message string)
	RoundStarted(gameID string, roundIndex int, challenge *models.Challenge)
	AnswerResult(userID string, answer models.PlayerAnswer)
	GameFinished(gameID string, results *models.GameResults)
	ErrorTo(userID, eventType, message string)
}

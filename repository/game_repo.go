package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnderssonProgramming/code-arena-rt/models"
)

const gameKeyPrefix = "arena:game:"

// GameRepository keeps TTL'd JSON snapshots of games in Redis, written
// after every state transition under the session lock.
type GameRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGameRepository(client *redis.Client, ttl time.Duration) *GameRepository {
	return &GameRepository{client: client, ttl: ttl}
}

func (r *GameRepository) Save(ctx context.Context, game *models.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return models.NewError(models.KindInternal, "failed to marshal game: %v", err)
	}
	return r.client.Set(ctx, gameKeyPrefix+game.ID, data, r.ttl).Err()
}

func (r *GameRepository) FindByID(ctx context.Context, id string) (*models.Game, error) {
	data, err := r.client.Get(ctx, gameKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, models.NewError(models.KindNotFound, "game not found")
	}
	if err != nil {
		return nil, models.NewError(models.KindInternal, "failed to load game: %v", err)
	}
	var game models.Game
	if err := json.Unmarshal([]byte(data), &game); err != nil {
		return nil, models.NewError(models.KindInternal, "failed to unmarshal game: %v", err)
	}
	return &game, nil
}

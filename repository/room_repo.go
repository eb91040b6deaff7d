package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnderssonProgramming/code-arena-rt/models"
)

const roomKeyPrefix = "arena:room:"

// RoomRepository keeps TTL'd JSON snapshots of rooms in Redis. The
// in-memory registry is authoritative; these snapshots back reconnect
// state sync and survive a short outage.
type RoomRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomRepository(client *redis.Client, ttl time.Duration) *RoomRepository {
	return &RoomRepository{client: client, ttl: ttl}
}

func (r *RoomRepository) Save(ctx context.Context, room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return models.NewError(models.KindInternal, "failed to marshal room: %v", err)
	}
	return r.client.Set(ctx, roomKeyPrefix+room.ID, data, r.ttl).Err()
}

func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	data, err := r.client.Get(ctx, roomKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, models.NewError(models.KindNotFound, "room not found")
	}
	if err != nil {
		return nil, models.NewError(models.KindInternal, "failed to load room: %v", err)
	}
	var room models.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		return nil, models.NewError(models.KindInternal, "failed to unmarshal room: %v", err)
	}
	return &room, nil
}

func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, roomKeyPrefix+id).Err()
}

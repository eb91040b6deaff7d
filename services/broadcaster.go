package services

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/AnderssonProgramming/code-arena-rt/models"
)

// NatsPublisher mirrors notifications onto a message broker so other
// instances (or external consumers) can observe game traffic.
type NatsPublisher interface {
	Publish(subject string, data []byte) error
}

// EventBroadcaster is the stateless adapter between the core services
// and the transport layer. It only observes: every method takes a
// snapshot and never mutates core state.
type EventBroadcaster struct {
	hub  *Hub
	nats NatsPublisher // optional
	log  *zap.SugaredLogger
}

func NewEventBroadcaster(hub *Hub, nats NatsPublisher, log *zap.SugaredLogger) *EventBroadcaster {
	return &EventBroadcaster{hub: hub, nats: nats, log: log}
}

func (b *EventBroadcaster) RoomUpdated(eventType string, room *models.Room, actor, message string) {
	b.publish("room."+room.ID, Message{
		Type: eventType,
		Payload: map[string]interface{}{
			"room":    room,
			"player":  actor,
			"message": message,
		},
	})
}

func (b *EventBroadcaster) RoomDeleted(roomID string) {
	b.publish("room."+roomID, Message{
		Type: "ROOM_CLOSED",
		Payload: map[string]interface{}{
			"room_id": roomID,
			"message": "room has been closed",
		},
	})
}

func (b *EventBroadcaster) GameStarted(gameID string, challenge *models.Challenge) {
	b.publish("game."+gameID, Message{
		Type: "GAME_STARTED",
		Payload: map[string]interface{}{
			"game_id":   gameID,
			"challenge": challenge,
			"message":   "Game started! Good luck!",
		},
	})
}

func (b *EventBroadcaster) GameUpdated(eventType, gameID, actor, message string) {
	b.publish("game."+gameID, Message{
		Type: eventType,
		Payload: map[string]interface{}{
			"game_id": gameID,
			"player":  actor,
			"message": message,
		},
	})
}

func (b *EventBroadcaster) RoundStarted(gameID string, roundIndex int, challenge *models.Challenge) {
	b.publish("game."+gameID, Message{
		Type: "ROUND_STARTED",
		Payload: map[string]interface{}{
			"game_id":     gameID,
			"round_index": roundIndex,
			"challenge":   challenge,
		},
	})
}

// AnswerResult goes to the submitting player only; correctness is
// never broadcast while a round is live.
func (b *EventBroadcaster) AnswerResult(userID string, answer models.PlayerAnswer) {
	b.hub.SendToUser(userID, Message{
		Type: "ANSWER_RESULT",
		Payload: map[string]interface{}{
			"is_correct":  answer.IsCorrect,
			"points":      answer.Points,
			"response_ms": answer.ResponseMs,
		},
	})
}

func (b *EventBroadcaster) GameFinished(gameID string, results *models.GameResults) {
	b.publish("game."+gameID, Message{
		Type: "GAME_FINISHED",
		Payload: map[string]interface{}{
			"game_id": gameID,
			"results": results,
			"message": "Game over! Here are the final results:",
		},
	})
}

func (b *EventBroadcaster) ErrorTo(userID, eventType, message string) {
	b.hub.SendToUser(userID, Message{
		Type: "ERROR",
		Payload: map[string]interface{}{
			"error_type": eventType,
			"message":    message,
		},
	})
}

func (b *EventBroadcaster) publish(topic string, msg Message) {
	b.hub.BroadcastToTopic(topic, msg)

	if b.nats == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		b.log.Errorw("failed to marshal nats event", "topic", topic, "error", err)
		return
	}
	if err := b.nats.Publish("arena."+topic, data); err != nil {
		b.log.Warnw("failed to mirror event to nats", "topic", topic, "error", err)
	}
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskhub/internal/worker"
	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes domain events on a Redis channel.
type RedisPublisher struct {
	rdb     redis.UniversalClient
	channel string
}

var _ EventEmitter = (*RedisPublisher)(nil)

// NewRedisPublisher creates a RedisPublisher.
func NewRedisPublisher(rdb redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// EmitEvent publishes event as JSON.
func (p *RedisPublisher) EmitEvent(ctx context.Context, event *DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.ID, err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}
	return nil
}

// JobQueue accepts background jobs without blocking.
type JobQueue interface {
	Enqueue(job worker.Job) error
}

// RedisSubscriber receives domain events from a Redis channel and queues one
// job per event that passes it to handler.
type RedisSubscriber struct {
	rdb     redis.UniversalClient
	channel string
	queue   JobQueue
	handler EventHandler
	logger  *slog.Logger
}

// NewRedisSubscriber creates a RedisSubscriber.
func NewRedisSubscriber(
	rdb redis.UniversalClient,
	channel string,
	queue JobQueue,
	handler EventHandler,
	logger *slog.Logger,
) *RedisSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisSubscriber{
		rdb:     rdb,
		channel: channel,
		queue:   queue,
		handler: handler,
		logger:  logger.With("component", "redis_event_subscriber", "channel", channel),
	}
}

// Run subscribes to the channel and queues incoming events until ctx is done.
// It returns nil when ctx is cancelled and an error if the subscription could
// not be established or was lost.
func (s *RedisSubscriber) Run(ctx context.Context) error {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	defer func() {
		_ = pubsub.Close()
	}()

	// Wait for the subscription confirmation so setup errors surface here.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}
	s.logger.Info("subscribed to domain events")

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("event subscription stopped")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.New("event subscription channel closed")
			}
			s.accept(msg.Payload)
		}
	}
}

// accept decodes a published event and queues its handling. Undecodable
// messages and events that do not fit in the queue are logged and dropped.
func (s *RedisSubscriber) accept(payload string) {
	var event DomainEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil || event.Type == "" {
		s.logger.Warn("dropping undecodable event", "size", len(payload))
		return
	}

	job := worker.NewJob(event.Type, func(ctx context.Context) error {
		return s.handler.HandleEvent(ctx, &event)
	})
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Error("dropping event, job queue rejected it",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		return
	}
	s.logger.Debug("event queued",
		"event_id", event.ID,
		"event_type", event.Type)
}

package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/line-ec-lea/influ-discord-bot"
)

const relayChannelPrefix = "relay:"

// SignalService fans relayed-page events out over redis pub/sub, one redis
// channel per Discord channel.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event influ.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, relayChannelPrefix+event.ChannelID, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Realtime streams events for the requested Discord channels until ctx is
// cancelled or request is closed. Each value received on request replaces the
// current subscription set.
func (s *SignalService) Realtime(ctx context.Context, request <-chan []string, output chan<- influ.Event) {
	pubsub := s.rdb.Subscribe(ctx)
	defer pubsub.Close()

	events := pubsub.Channel()

	var subscribed []string
	for {
		select {
		case <-ctx.Done():
			return
		case channels, ok := <-request:
			if !ok {
				return
			}

			if len(subscribed) > 0 {
				err := pubsub.Unsubscribe(ctx, subscribed...)
				if err != nil {
					slog.ErrorContext(
						ctx, "Failed to unsubscribe",
						slog.String("error", err.Error()),
						slog.String("module", "signal"),
					)
				}
			}

			subscribed = subscribed[:0]
			for _, channelID := range channels {
				subscribed = append(subscribed, relayChannelPrefix+channelID)
			}

			if len(subscribed) > 0 {
				err := pubsub.Subscribe(ctx, subscribed...)
				if err != nil {
					slog.ErrorContext(
						ctx, "Failed to subscribe",
						slog.String("error", err.Error()),
						slog.String("module", "signal"),
					)
				}
			}
		case message, ok := <-events:
			if !ok {
				return
			}

			var event influ.Event
			err := json.Unmarshal([]byte(message.Payload), &event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Failed to decode relay event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}

			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

package usecase

import (
	"context"

	"github.com/line-ec-lea/influ-discord-bot"
)

// MemberResolver maps a record-store user id onto the messaging system.
// An empty id with a nil error means no mapping exists.
type MemberResolver interface {
	Resolve(ctx context.Context, notionUserID string) (string, error)
}

// Messenger delivers rendered content to one channel.
type Messenger interface {
	Send(ctx context.Context, channelID string, content string) error
}

// EventPublisher fans a relayed-page event out to listeners.
type EventPublisher interface {
	Publish(ctx context.Context, event influ.Event) error
}

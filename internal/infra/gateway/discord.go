package gateway

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/line-ec-lea/influ-discord-bot/discord"
)

var tracer = otel.Tracer("gateway")

// DiscordGateway delivers rendered content through the Discord REST API.
type DiscordGateway struct {
	client *discord.Client
}

func NewDiscordGateway(client *discord.Client) *DiscordGateway {
	return &DiscordGateway{
		client: client,
	}
}

func (g *DiscordGateway) Send(ctx context.Context, channelID string, content string) error {
	ctx, span := tracer.Start(ctx, "Gateway.Discord.Send")
	defer span.End()

	err := g.client.SendMessage(ctx, channelID, content)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to send discord message")
	}

	return nil
}

package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/line-ec-lea/influ-discord-bot"
)

// RelayInput is the validated input for relaying one changed page.
type RelayInput struct {
	ChannelID string
	Title     string
	Page      influ.Page
}

// RelayUsecase renders a page and forwards it to one channel. Rendering is
// all-or-nothing: when any field fails to resolve, nothing is sent.
type RelayUsecase struct {
	render    *RenderUsecase
	messenger Messenger
	events    EventPublisher
}

// NewRelayUsecase wires the relay. events may be nil when no signal bus is
// configured.
func NewRelayUsecase(render *RenderUsecase, messenger Messenger, events EventPublisher) *RelayUsecase {
	return &RelayUsecase{
		render:    render,
		messenger: messenger,
		events:    events,
	}
}

func (uc *RelayUsecase) Relay(ctx context.Context, input RelayInput) error {
	lines, err := uc.render.RenderPage(ctx, input.Page)
	if err != nil {
		return errors.Wrap(err, "failed to render page")
	}

	properties := strings.Join(lines, "\n")
	if properties == "" {
		properties = "[No properties to display]"
	}

	parts := make([]string, 0, 3)
	if input.Title != "" {
		parts = append(parts, input.Title)
	}
	parts = append(parts, properties)
	if input.Page.URL != "" {
		parts = append(parts, input.Page.URL)
	}
	content := strings.Join(parts, "\n")

	if err := uc.messenger.Send(ctx, input.ChannelID, content); err != nil {
		return errors.Wrap(err, "failed to send message")
	}

	if uc.events != nil {
		event := influ.Event{
			ChannelID: input.ChannelID,
			PageID:    input.Page.ID,
			Content:   content,
			RelayedAt: time.Now().UTC(),
		}
		// the relay already succeeded; a lost event is only logged
		if err := uc.events.Publish(ctx, event); err != nil {
			slog.WarnContext(
				ctx, "failed to publish relay event",
				slog.String("pageId", input.Page.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

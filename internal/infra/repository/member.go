package repository

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/line-ec-lea/influ-discord-bot"
	"github.com/line-ec-lea/influ-discord-bot/internal/domain"
	"github.com/line-ec-lea/influ-discord-bot/internal/infra/database"
	"github.com/line-ec-lea/influ-discord-bot/notion"
)

var tracer = otel.Tracer("member")

const memberKeyPrefix = "member:"

// MemberRepository resolves record-store users to messaging-system ids with
// a cache-then-directory lookup. Concurrent misses for the same id are not
// deduplicated; each may hit the directory and the writes are idempotent.
type MemberRepository struct {
	kv     database.KV
	client *notion.Client
	config domain.Config
}

func NewMemberRepository(kv database.KV, client *notion.Client, config domain.Config) *MemberRepository {
	return &MemberRepository{
		kv:     kv,
		client: client,
		config: config,
	}
}

// Resolve returns the mapped id for notionUserID, or "" when no valid
// mapping exists. Directory anomalies degrade to "no mapping" with a
// warning; only a failing external call is an error.
func (r *MemberRepository) Resolve(ctx context.Context, notionUserID string) (string, error) {
	ctx, span := tracer.Start(ctx, "Member.Repository.Resolve")
	defer span.End()

	key := memberKeyPrefix + notionUserID
	cached, err := r.kv.Get(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		span.RecordError(err)
		return "", errors.Wrap(err, "failed to read member cache")
	}

	resp, err := r.client.QueryDatabase(ctx, r.config.MemberDatabaseID, notion.QueryRequest{
		PageSize: 2,
		Filter: &notion.Filter{
			Property: r.config.MemberProperty,
			People:   &notion.ContainsFilter{Contains: notionUserID},
		},
	})
	if err != nil {
		span.RecordError(err)
		return "", errors.Wrap(err, "failed to query member database")
	}

	if len(resp.Results) != 1 {
		slog.WarnContext(
			ctx, "expected exactly 1 member page",
			slog.String("notionUserId", notionUserID),
			slog.Int("got", len(resp.Results)),
		)
	}
	if len(resp.Results) == 0 {
		return "", nil
	}

	page := resp.Results[0]
	prop, ok := page.Properties.Get(r.config.DiscordIDProperty)
	if !ok {
		return "", nil
	}
	if prop.Type != influ.PropertyTypeRichText {
		slog.WarnContext(
			ctx, "member database property is not rich_text",
			slog.String("property", r.config.DiscordIDProperty),
			slog.String("type", prop.Type),
		)
		return "", nil
	}
	if len(prop.RichText) == 0 {
		return "", nil
	}

	discordID := prop.RichText[0].PlainText
	if discordID == "" {
		return "", nil
	}
	if err := domain.ValidateDiscordID(discordID); err != nil {
		slog.WarnContext(
			ctx, "member discord id is invalid",
			slog.String("notionUserId", notionUserID),
			slog.String("error", err.Error()),
		)
		return "", nil
	}

	// cache write is best effort
	if err := r.kv.Set(ctx, key, discordID, domain.MemberMappingTTL); err != nil {
		slog.WarnContext(
			ctx, "failed to cache member mapping",
			slog.String("notionUserId", notionUserID),
			slog.String("error", err.Error()),
		)
	}

	return discordID, nil
}

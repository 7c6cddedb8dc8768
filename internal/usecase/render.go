package usecase

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/line-ec-lea/influ-discord-bot"
)

// maxRollupDepth caps rollup-array recursion. The data itself is acyclic,
// this only guards against pathological nesting.
const maxRollupDepth = 64

// RenderUsecase converts page properties into display text. Every known
// kind renders to a non-empty string; unknown or malformed data degrades to
// a bracketed placeholder instead of failing the page. Only a failing
// member resolution is an error.
type RenderUsecase struct {
	resolver MemberResolver
}

func NewRenderUsecase(resolver MemberResolver) *RenderUsecase {
	return &RenderUsecase{resolver: resolver}
}

// RenderPage renders every property of the page as a "name: value" line,
// concurrently, preserving the page's original property order.
func (uc *RenderUsecase) RenderPage(ctx context.Context, page influ.Page) ([]string, error) {
	entries := page.Properties.Entries()
	lines := make([]string, len(entries))

	eg, ctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		eg.Go(func() error {
			value, err := uc.RenderProperty(ctx, entry.Value)
			if err != nil {
				return err
			}
			lines[i] = entry.Key + ": " + value
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return lines, nil
}

func (uc *RenderUsecase) RenderProperty(ctx context.Context, property influ.Property) (string, error) {
	return uc.renderProperty(ctx, property, 0)
}

func (uc *RenderUsecase) renderProperty(ctx context.Context, property influ.Property, depth int) (string, error) {
	switch property.Type {
	case influ.PropertyTypeTitle:
		return uc.renderRichTexts(ctx, property.Title, "[Empty Title]")
	case influ.PropertyTypeRichText:
		return uc.renderRichTexts(ctx, property.RichText, "[Empty Text]")
	case influ.PropertyTypeURL:
		return orPlaceholder(property.URL, "[No URL]"), nil
	case influ.PropertyTypeSelect:
		if property.Select == nil || property.Select.Name == "" {
			return "[No Selection]", nil
		}
		return property.Select.Name, nil
	case influ.PropertyTypeMultiSelect:
		names := make([]string, len(property.MultiSelect))
		for i, option := range property.MultiSelect {
			names[i] = option.Name
		}
		return joinOr(names, "[No Selections]"), nil
	case influ.PropertyTypeDate:
		return formatDate(property.Date), nil
	case influ.PropertyTypeCheckbox:
		if property.Checkbox != nil && *property.Checkbox {
			return "✅", nil
		}
		return "❌", nil
	case influ.PropertyTypeEmail:
		return orPlaceholder(property.Email, "[No Email]"), nil
	case influ.PropertyTypePhoneNumber:
		return orPlaceholder(property.PhoneNumber, "[No Phone]"), nil
	case influ.PropertyTypeNumber:
		if property.Number == nil {
			return "[No Number]", nil
		}
		return influ.FormatNumber(*property.Number), nil
	case influ.PropertyTypeStatus:
		if property.Status == nil || property.Status.Name == "" {
			return "[No Status]", nil
		}
		return property.Status.Name, nil
	case influ.PropertyTypeCreatedTime:
		return orPlaceholder(property.CreatedTime, "[No Time]"), nil
	case influ.PropertyTypeLastEditedTime:
		return orPlaceholder(property.LastEditedTime, "[No Time]"), nil
	case influ.PropertyTypeCreatedBy:
		if property.CreatedBy == nil {
			return renderUnknown(property), nil
		}
		return uc.formatPerson(ctx, *property.CreatedBy)
	case influ.PropertyTypeLastEditedBy:
		if property.LastEditedBy == nil {
			return renderUnknown(property), nil
		}
		return uc.formatPerson(ctx, *property.LastEditedBy)
	case influ.PropertyTypeUniqueID:
		if property.UniqueID == nil || property.UniqueID.Number == nil {
			return "[No ID]", nil
		}
		number := influ.FormatNumber(*property.UniqueID.Number)
		if property.UniqueID.Prefix == nil {
			return number, nil
		}
		return *property.UniqueID.Prefix + "-" + number, nil
	case influ.PropertyTypeRelation:
		ids := make([]string, len(property.Relation))
		for i, relation := range property.Relation {
			ids[i] = relation.ID
		}
		return joinOr(ids, "[No Relations]"), nil
	case influ.PropertyTypePeople:
		names := make([]string, len(property.People))
		for i, person := range property.People {
			name, err := uc.formatPerson(ctx, person)
			if err != nil {
				return "", err
			}
			names[i] = name
		}
		return joinOr(names, "[No People]"), nil
	case influ.PropertyTypeFormula:
		if property.Formula == nil {
			return renderUnknown(property), nil
		}
		return uc.renderFormula(property.Formula), nil
	case influ.PropertyTypeFiles:
		links := make([]string, len(property.Files))
		for i, file := range property.Files {
			links[i] = renderFile(file)
		}
		return joinOr(links, "[No Files]"), nil
	case influ.PropertyTypeRollup:
		if property.Rollup == nil {
			return renderUnknown(property), nil
		}
		return uc.renderRollup(ctx, property.Rollup, depth)
	case influ.PropertyTypeVerification:
		return renderVerification(property.Verification), nil
	case influ.PropertyTypeButton:
		return "[Button]", nil
	default:
		return renderUnknown(property), nil
	}
}

func (uc *RenderUsecase) renderFormula(formula *influ.FormulaValue) string {
	switch formula.Type {
	case "string":
		return orPlaceholder(formula.String, "[No Formula String]")
	case "number":
		if formula.Number == nil {
			return "[No Formula Number]"
		}
		return influ.FormatNumber(*formula.Number)
	case "boolean":
		// tri-state: a formula with no value is neither true nor false
		if formula.Boolean == nil {
			return "[No Formula Boolean]"
		}
		if *formula.Boolean {
			return "✅"
		}
		return "❌"
	case "date":
		return formatDate(formula.Date)
	default:
		return "[Unsupported Formula Type]"
	}
}

func (uc *RenderUsecase) renderRollup(ctx context.Context, rollup *influ.RollupValue, depth int) (string, error) {
	switch rollup.Type {
	case "number":
		if rollup.Number == nil {
			return "[No Rollup Number]", nil
		}
		return influ.FormatNumber(*rollup.Number), nil
	case "date":
		return formatDate(rollup.Date), nil
	case "array":
		if depth >= maxRollupDepth {
			return "[Unsupported Rollup Type]", nil
		}
		values := make([]string, len(rollup.Array))
		for i, element := range rollup.Array {
			value, err := uc.renderProperty(ctx, element, depth+1)
			if err != nil {
				return "", err
			}
			values[i] = value
		}
		return joinOr(values, "[Empty Rollup Array]"), nil
	default:
		return "[Unsupported Rollup Type]", nil
	}
}

func (uc *RenderUsecase) renderRichTexts(ctx context.Context, spans []influ.RichText, empty string) (string, error) {
	var sb strings.Builder
	for _, span := range spans {
		rendered, err := uc.renderRichText(ctx, span)
		if err != nil {
			return "", err
		}
		sb.WriteString(rendered)
	}
	if sb.Len() == 0 {
		return empty, nil
	}
	return sb.String(), nil
}

func (uc *RenderUsecase) renderRichText(ctx context.Context, span influ.RichText) (string, error) {
	switch span.Type {
	case "text":
		if span.Text == nil {
			return span.PlainText, nil
		}
		if span.Text.Link != nil {
			return fmt.Sprintf("[%s](%s)", span.Text.Content, span.Text.Link.URL), nil
		}
		return span.Text.Content, nil
	case "mention":
		return uc.renderMention(ctx, span)
	case "equation":
		return span.PlainText, nil
	default:
		return fmt.Sprintf("[Unsupported Rich Text Type: %s]", influ.DiagnosticDump(span.Raw, span)), nil
	}
}

func (uc *RenderUsecase) renderMention(ctx context.Context, span influ.RichText) (string, error) {
	mention := span.Mention
	if mention == nil {
		return "[Unsupported Mention Type]", nil
	}

	switch mention.Type {
	case "user":
		if mention.User == nil {
			return "[Unsupported Mention Type]", nil
		}
		return uc.formatPerson(ctx, *mention.User)
	case "date":
		return formatDate(mention.Date), nil
	case "link_preview":
		if mention.LinkPreview == nil {
			return "[Unsupported Mention Type]", nil
		}
		return fmt.Sprintf("[%s](%s)", span.PlainText, mention.LinkPreview.URL), nil
	case "template_mention":
		return span.PlainText, nil
	case "page":
		if mention.Page == nil {
			return "[Unsupported Mention Type]", nil
		}
		return fmt.Sprintf("[%s](%s)", span.PlainText, influ.CanonicalPageURL(mention.Page.ID)), nil
	case "database":
		if mention.Database == nil {
			return "[Unsupported Mention Type]", nil
		}
		return fmt.Sprintf("[%s](%s)", span.PlainText, influ.CanonicalPageURL(mention.Database.ID)), nil
	case "link_mention":
		if mention.LinkMention == nil {
			return "[Unsupported Mention Type]", nil
		}
		title := span.PlainText
		if mention.LinkMention.Title != nil {
			title = *mention.LinkMention.Title
		}
		return fmt.Sprintf("[%s](%s)", title, mention.LinkMention.Href), nil
	case "custom_emoji":
		if mention.CustomEmoji == nil {
			return "[Unsupported Mention Type]", nil
		}
		return fmt.Sprintf("[%s](%s)", mention.CustomEmoji.Name, mention.CustomEmoji.URL), nil
	default:
		return "[Unsupported Mention Type]", nil
	}
}

// formatPerson renders one person reference. A bare reference (no type
// discriminator) is returned as its raw id without a directory lookup.
func (uc *RenderUsecase) formatPerson(ctx context.Context, person influ.User) (string, error) {
	if person.Type == "" {
		return person.ID, nil
	}

	discordID, err := uc.resolver.Resolve(ctx, person.ID)
	if err != nil {
		return "", err
	}
	if discordID == "" {
		if person.Name != nil {
			return *person.Name, nil
		}
		return person.ID, nil
	}

	return fmt.Sprintf("<@%s>", discordID), nil
}

func formatDate(date *influ.DateValue) string {
	if date == nil {
		return "[No Date]"
	}

	dateStr := date.Start
	if date.End != nil {
		dateStr = date.Start + " - " + *date.End
	}

	if date.TimeZone != nil {
		return fmt.Sprintf("%s (%s)", dateStr, *date.TimeZone)
	}

	return dateStr
}

func renderFile(file influ.FileValue) string {
	if file.File != nil {
		return fmt.Sprintf("[%s](%s)", file.Name, file.File.URL)
	}
	if file.External != nil {
		return fmt.Sprintf("[%s](%s)", file.Name, file.External.URL)
	}
	return file.Name
}

func renderVerification(verification *influ.Verification) string {
	if verification == nil {
		return "[No Verification]"
	}
	switch verification.State {
	case "unverified":
		return "🔴 未認証"
	case "expired":
		return "🟡 有効期限切れ"
	default:
		return "🟢 認証済み"
	}
}

func renderUnknown(property influ.Property) string {
	return fmt.Sprintf("[Unsupported Type: %s]", influ.DiagnosticDump(property.Raw, property))
}

func orPlaceholder(value *string, placeholder string) string {
	if value == nil || *value == "" {
		return placeholder
	}
	return *value
}

// joinOr joins with ", ", falling back to the placeholder when the result
// would be blank.
func joinOr(values []string, placeholder string) string {
	joined := strings.Join(values, ", ")
	if joined == "" {
		return placeholder
	}
	return joined
}

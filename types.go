package influ

import (
	"encoding/json"
	"time"

	"github.com/line-ec-lea/influ-discord-bot/internal/utils"
)

// Property kind discriminators as they appear on the wire.
const (
	PropertyTypeTitle          = "title"
	PropertyTypeRichText       = "rich_text"
	PropertyTypeURL            = "url"
	PropertyTypeSelect         = "select"
	PropertyTypeMultiSelect    = "multi_select"
	PropertyTypeDate           = "date"
	PropertyTypeCheckbox       = "checkbox"
	PropertyTypeEmail          = "email"
	PropertyTypePhoneNumber    = "phone_number"
	PropertyTypeNumber         = "number"
	PropertyTypeStatus         = "status"
	PropertyTypeCreatedTime    = "created_time"
	PropertyTypeLastEditedTime = "last_edited_time"
	PropertyTypeCreatedBy      = "created_by"
	PropertyTypeLastEditedBy   = "last_edited_by"
	PropertyTypeUniqueID       = "unique_id"
	PropertyTypeRelation       = "relation"
	PropertyTypePeople         = "people"
	PropertyTypeFormula        = "formula"
	PropertyTypeFiles          = "files"
	PropertyTypeRollup         = "rollup"
	PropertyTypeVerification   = "verification"
	PropertyTypeButton         = "button"
)

// Property is one named value of a page. Exactly one payload field is set,
// selected by Type. Raw keeps the undecoded bytes so unknown kinds can still
// be reported verbatim.
type Property struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`

	Title          []RichText      `json:"title,omitempty"`
	RichText       []RichText      `json:"rich_text,omitempty"`
	URL            *string         `json:"url,omitempty"`
	Select         *SelectOption   `json:"select,omitempty"`
	MultiSelect    []SelectOption  `json:"multi_select,omitempty"`
	Date           *DateValue      `json:"date,omitempty"`
	Checkbox       *bool           `json:"checkbox,omitempty"`
	Email          *string         `json:"email,omitempty"`
	PhoneNumber    *string         `json:"phone_number,omitempty"`
	Number         *float64        `json:"number,omitempty"`
	Status         *SelectOption   `json:"status,omitempty"`
	CreatedTime    *string         `json:"created_time,omitempty"`
	LastEditedTime *string         `json:"last_edited_time,omitempty"`
	CreatedBy      *User           `json:"created_by,omitempty"`
	LastEditedBy   *User           `json:"last_edited_by,omitempty"`
	UniqueID       *UniqueID       `json:"unique_id,omitempty"`
	Relation       []PageReference `json:"relation,omitempty"`
	People         []User          `json:"people,omitempty"`
	Formula        *FormulaValue   `json:"formula,omitempty"`
	Files          []FileValue     `json:"files,omitempty"`
	Rollup         *RollupValue    `json:"rollup,omitempty"`
	Verification   *Verification   `json:"verification,omitempty"`

	Raw json.RawMessage `json:"-"`
}

func (p *Property) UnmarshalJSON(b []byte) error {
	type alias Property
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*p = Property(a)
	p.Raw = append(json.RawMessage(nil), b...)
	return nil
}

type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type DateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end,omitempty"`
	TimeZone *string `json:"time_zone,omitempty"`
}

// User is a person reference. A bare reference carries only the id; a full
// one has Type set ("person" or "bot") and usually a display name.
type User struct {
	Object string  `json:"object,omitempty"`
	ID     string  `json:"id"`
	Type   string  `json:"type,omitempty"`
	Name   *string `json:"name,omitempty"`
}

type UniqueID struct {
	Number *float64 `json:"number"`
	Prefix *string  `json:"prefix"`
}

type PageReference struct {
	ID string `json:"id"`
}

type FormulaValue struct {
	Type    string     `json:"type"`
	String  *string    `json:"string,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	Boolean *bool      `json:"boolean,omitempty"`
	Date    *DateValue `json:"date,omitempty"`
}

type FileValue struct {
	Name     string        `json:"name"`
	Type     string        `json:"type,omitempty"`
	File     *HostedFile   `json:"file,omitempty"`
	External *ExternalFile `json:"external,omitempty"`
}

type HostedFile struct {
	URL        string `json:"url"`
	ExpiryTime string `json:"expiry_time,omitempty"`
}

type ExternalFile struct {
	URL string `json:"url"`
}

// RollupValue aggregates related pages. The array variant nests full
// properties, so rendering it recurses.
type RollupValue struct {
	Type     string     `json:"type"`
	Function string     `json:"function,omitempty"`
	Number   *float64   `json:"number,omitempty"`
	Date     *DateValue `json:"date,omitempty"`
	Array    []Property `json:"array,omitempty"`
}

type Verification struct {
	State string     `json:"state"`
	Date  *DateValue `json:"date,omitempty"`
}

// RichText is one inline span of a text-bearing property.
type RichText struct {
	Type      string     `json:"type"`
	PlainText string     `json:"plain_text"`
	Href      *string    `json:"href,omitempty"`
	Text      *TextValue `json:"text,omitempty"`
	Mention   *Mention   `json:"mention,omitempty"`
	Equation  *Equation  `json:"equation,omitempty"`

	Raw json.RawMessage `json:"-"`
}

func (rt *RichText) UnmarshalJSON(b []byte) error {
	type alias RichText
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*rt = RichText(a)
	rt.Raw = append(json.RawMessage(nil), b...)
	return nil
}

type TextValue struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

type Link struct {
	URL string `json:"url"`
}

type Equation struct {
	Expression string `json:"expression"`
}

type Mention struct {
	Type string `json:"type"`

	User            *User            `json:"user,omitempty"`
	Date            *DateValue       `json:"date,omitempty"`
	LinkPreview     *LinkPreview     `json:"link_preview,omitempty"`
	TemplateMention *json.RawMessage `json:"template_mention,omitempty"`
	Page            *PageReference   `json:"page,omitempty"`
	Database        *PageReference   `json:"database,omitempty"`
	LinkMention     *LinkMention     `json:"link_mention,omitempty"`
	CustomEmoji     *CustomEmoji     `json:"custom_emoji,omitempty"`
}

type LinkPreview struct {
	URL string `json:"url"`
}

type LinkMention struct {
	Href  string  `json:"href"`
	Title *string `json:"title,omitempty"`
}

type CustomEmoji struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Page is one record from the store. Properties preserve the order they
// appeared in on the wire so the rendered message matches the source layout.
type Page struct {
	Object     string                       `json:"object,omitempty"`
	ID         string                       `json:"id"`
	URL        string                       `json:"url,omitempty"`
	Properties utils.OrderedKVMap[Property] `json:"properties"`
}

// WebhookPayload is the envelope posted by the record-store automation.
type WebhookPayload struct {
	Data Page `json:"data"`
}

// Event is emitted on the signal bus after a page has been relayed.
type Event struct {
	ChannelID string    `json:"channelId"`
	PageID    string    `json:"pageId"`
	Content   string    `json:"content"`
	RelayedAt time.Time `json:"relayedAt"`
}

package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/line-ec-lea/influ-discord-bot"
)

type mockMessenger struct {
	channelID string
	content   string
	calls     int
	err       error
}

func (m *mockMessenger) Send(ctx context.Context, channelID string, content string) error {
	m.calls++
	m.channelID = channelID
	m.content = content
	return m.err
}

type mockPublisher struct {
	events []influ.Event
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, event influ.Event) error {
	m.events = append(m.events, event)
	return m.err
}

func parsePage(t *testing.T, payload string) influ.Page {
	t.Helper()
	var page influ.Page
	if err := json.Unmarshal([]byte(payload), &page); err != nil {
		t.Fatal(err)
	}
	return page
}

func TestRelayAssemblesMessage(t *testing.T) {
	render, _ := newRender(nil)
	messenger := &mockMessenger{}
	uc := NewRelayUsecase(render, messenger, nil)

	page := parsePage(t, `{
		"id": "page-1",
		"url": "https://www.notion.so/page-1",
		"properties": {
			"名前": {"type": "title", "title": [{"type": "text", "text": {"content": "週報"}}]},
			"済": {"type": "checkbox", "checkbox": true}
		}
	}`)

	err := uc.Relay(context.Background(), RelayInput{
		ChannelID: "chan-1",
		Title:     "ページが更新されました",
		Page:      page,
	})
	if err != nil {
		t.Fatalf("relay failed: %v", err)
	}

	if messenger.channelID != "chan-1" {
		t.Errorf("unexpected channel: %q", messenger.channelID)
	}
	expected := "ページが更新されました\n名前: 週報\n済: ✅\nhttps://www.notion.so/page-1"
	if messenger.content != expected {
		t.Errorf("expected %q got %q", expected, messenger.content)
	}
}

func TestRelayWithoutTitleAndURL(t *testing.T) {
	render, _ := newRender(nil)
	messenger := &mockMessenger{}
	uc := NewRelayUsecase(render, messenger, nil)

	page := parsePage(t, `{
		"id": "page-1",
		"properties": {
			"x": {"type": "number", "number": 1}
		}
	}`)

	if err := uc.Relay(context.Background(), RelayInput{ChannelID: "chan-1", Page: page}); err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	if messenger.content != "x: 1" {
		t.Errorf("expected bare property line, got %q", messenger.content)
	}
}

func TestRelayEmptyPage(t *testing.T) {
	render, _ := newRender(nil)
	messenger := &mockMessenger{}
	uc := NewRelayUsecase(render, messenger, nil)

	page := parsePage(t, `{"id": "page-1", "properties": {}}`)

	if err := uc.Relay(context.Background(), RelayInput{ChannelID: "chan-1", Page: page}); err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	if messenger.content != "[No properties to display]" {
		t.Errorf("expected empty-page placeholder, got %q", messenger.content)
	}
}

func TestRelayRenderFailureSendsNothing(t *testing.T) {
	resolver := &mockResolver{err: errors.New("directory down")}
	render := NewRenderUsecase(resolver)
	messenger := &mockMessenger{}
	uc := NewRelayUsecase(render, messenger, nil)

	page := parsePage(t, `{
		"id": "page-1",
		"properties": {
			"担当": {"type": "people", "people": [{"id": "u1", "type": "person"}]}
		}
	}`)

	err := uc.Relay(context.Background(), RelayInput{ChannelID: "chan-1", Page: page})
	if err == nil {
		t.Fatal("expected render failure to propagate")
	}
	if messenger.calls != 0 {
		t.Errorf("nothing must be sent on render failure, got %d sends", messenger.calls)
	}
}

func TestRelaySendFailure(t *testing.T) {
	render, _ := newRender(nil)
	messenger := &mockMessenger{err: errors.New("discord is down")}
	publisher := &mockPublisher{}
	uc := NewRelayUsecase(render, messenger, publisher)

	page := parsePage(t, `{"id": "page-1", "properties": {"x": {"type": "number", "number": 1}}}`)

	err := uc.Relay(context.Background(), RelayInput{ChannelID: "chan-1", Page: page})
	if err == nil {
		t.Fatal("expected send failure to propagate")
	}
	if !strings.Contains(err.Error(), "discord is down") {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if len(publisher.events) != 0 {
		t.Errorf("no event must be published on send failure, got %d", len(publisher.events))
	}
}

func TestRelayPublishesEvent(t *testing.T) {
	render, _ := newRender(nil)
	messenger := &mockMessenger{}
	publisher := &mockPublisher{}
	uc := NewRelayUsecase(render, messenger, publisher)

	page := parsePage(t, `{"id": "page-1", "properties": {"x": {"type": "number", "number": 1}}}`)

	if err := uc.Relay(context.Background(), RelayInput{ChannelID: "chan-1", Page: page}); err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.ChannelID != "chan-1" || event.PageID != "page-1" || event.Content != "x: 1" {
		t.Errorf("unexpected event: %+v", event)
	}
	if event.RelayedAt.IsZero() {
		t.Error("event timestamp not set")
	}
}

func TestRelayEventFailureIsSwallowed(t *testing.T) {
	render, _ := newRender(nil)
	messenger := &mockMessenger{}
	publisher := &mockPublisher{err: errors.New("redis is down")}
	uc := NewRelayUsecase(render, messenger, publisher)

	page := parsePage(t, `{"id": "page-1", "properties": {"x": {"type": "number", "number": 1}}}`)

	if err := uc.Relay(context.Background(), RelayInput{ChannelID: "chan-1", Page: page}); err != nil {
		t.Errorf("publish failure must not fail the relay: %v", err)
	}
	if messenger.calls != 1 {
		t.Errorf("expected 1 send, got %d", messenger.calls)
	}
}

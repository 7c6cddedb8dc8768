package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/line-ec-lea/influ-discord-bot"
	"github.com/line-ec-lea/influ-discord-bot/internal/domain"
	"github.com/line-ec-lea/influ-discord-bot/internal/service"
	"github.com/line-ec-lea/influ-discord-bot/internal/usecase"
)

// --- mocks ---

type mockResolver struct {
	mapping map[string]string
}

func (m *mockResolver) Resolve(ctx context.Context, notionUserID string) (string, error) {
	return m.mapping[notionUserID], nil
}

type mockMessenger struct {
	channelID string
	content   string
	calls     int
}

func (m *mockMessenger) Send(ctx context.Context, channelID string, content string) error {
	m.calls++
	m.channelID = channelID
	m.content = content
	return nil
}

func newEcho(config domain.Config, messenger *mockMessenger, signal *service.SignalService) *echo.Echo {
	render := usecase.NewRenderUsecase(&mockResolver{})
	var events usecase.EventPublisher
	if signal != nil {
		events = signal
	}
	relay := usecase.NewRelayUsecase(render, messenger, events)
	h := NewHandler(config, relay, signal)

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

const hookBody = `{
	"data": {
		"id": "page-1",
		"url": "https://www.notion.so/page-1",
		"properties": {
			"名前": {"type": "title", "title": [{"type": "text", "text": {"content": "週報"}}]}
		}
	}
}`

// --- tests ---

func TestHandleHealth(t *testing.T) {
	e := newEcho(domain.Config{}, &mockMessenger{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), `"message":"ok"`) {
		t.Errorf("unexpected body: %s", res.Body.String())
	}
}

func TestHandleHook(t *testing.T) {
	messenger := &mockMessenger{}
	e := newEcho(domain.Config{}, messenger, nil)

	req := httptest.NewRequest(http.MethodPost, "/hook/chan-1?title=updated", strings.NewReader(hookBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d: %s", res.Code, res.Body.String())
	}
	if messenger.channelID != "chan-1" {
		t.Errorf("unexpected channel: %q", messenger.channelID)
	}
	expected := "updated\n名前: 週報\nhttps://www.notion.so/page-1"
	if messenger.content != expected {
		t.Errorf("expected %q got %q", expected, messenger.content)
	}
}

func TestHandleHookInvalidPayload(t *testing.T) {
	messenger := &mockMessenger{}
	e := newEcho(domain.Config{}, messenger, nil)

	cases := []struct {
		name string
		body string
	}{
		{"broken json", `{`},
		{"no page", `{"data": {}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/hook/chan-1", strings.NewReader(tc.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			res := httptest.NewRecorder()
			e.ServeHTTP(res, req)

			if res.Code != http.StatusBadRequest {
				t.Errorf("expected 400 got %d", res.Code)
			}
		})
	}
	if messenger.calls != 0 {
		t.Errorf("no message must be sent for rejected payloads, got %d", messenger.calls)
	}
}

func TestHandleHookSecret(t *testing.T) {
	messenger := &mockMessenger{}
	e := newEcho(domain.Config{HookSecret: "s3cret"}, messenger, nil)

	req := httptest.NewRequest(http.MethodPost, "/hook/chan-1", strings.NewReader(hookBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", res.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/hook/chan-1", strings.NewReader(hookBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("authorization", "Bearer wrong")
	res = httptest.NewRecorder()
	e.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong secret, got %d", res.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/hook/chan-1", strings.NewReader(hookBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("authorization", "Bearer s3cret")
	res = httptest.NewRecorder()
	e.ServeHTTP(res, req)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with secret, got %d", res.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/hook/chan-1?token=s3cret", strings.NewReader(hookBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res = httptest.NewRecorder()
	e.ServeHTTP(res, req)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with query token, got %d", res.Code)
	}
}

func realtimeServer(t *testing.T) (*service.SignalService, *httptest.Server, *websocket.Conn) {
	t.Helper()

	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rdb.Close() })
	signal := service.NewSignalService(rdb)

	e := newEcho(domain.Config{}, &mockMessenger{}, signal)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/realtime"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return signal, server, ws
}

func TestHandleRealtime(t *testing.T) {
	signal, _, ws := realtimeServer(t)
	defer ws.Close()

	err := ws.WriteJSON(Request{Type: "listen", Channels: []string{"chan-1"}})
	if err != nil {
		t.Fatal(err)
	}

	// the subscription settles asynchronously, so publish until delivery
	done := make(chan influ.Event, 1)
	go func() {
		var event influ.Event
		if err := ws.ReadJSON(&event); err == nil {
			done <- event
		}
	}()

	ctx := context.Background()
	deadline := time.After(3 * time.Second)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case event := <-done:
			if event.ChannelID != "chan-1" || event.PageID != "page-1" {
				t.Errorf("unexpected event: %+v", event)
			}
			return
		case <-ticker.C:
			err := signal.Publish(ctx, influ.Event{ChannelID: "chan-1", PageID: "page-1", Content: "x"})
			if err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for realtime event")
		}
	}
}

func TestHandleRealtimeDisconnectDuringDelivery(t *testing.T) {
	signal, server, ws := realtimeServer(t)

	if err := ws.WriteJSON(Request{Type: "listen", Channels: []string{"chan-1"}}); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	// wait for the subscription to go live
	received := make(chan struct{})
	go func() {
		var event influ.Event
		if err := ws.ReadJSON(&event); err == nil {
			close(received)
		}
	}()

	deadline := time.After(3 * time.Second)
	ticker := time.NewTicker(10 * time.Millisecond)
	live := false
	for !live {
		select {
		case <-received:
			live = true
		case <-ticker.C:
			if err := signal.Publish(ctx, influ.Event{ChannelID: "chan-1", PageID: "page-1"}); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for subscription")
		}
	}
	ticker.Stop()

	// drop the client while deliveries are still flowing; the server side
	// must tear down without sending on a dead channel
	for i := 0; i < 10; i++ {
		if err := signal.Publish(ctx, influ.Event{ChannelID: "chan-1", PageID: "page-1"}); err != nil {
			t.Fatal(err)
		}
	}
	ws.Close()
	for i := 0; i < 10; i++ {
		if err := signal.Publish(ctx, influ.Event{ChannelID: "chan-1", PageID: "page-1"}); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	// the relay must still be serving
	res, err := http.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("health check failed after disconnect: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected 200 after disconnect, got %d", res.StatusCode)
	}
}

package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/line-ec-lea/influ-discord-bot"
	"github.com/line-ec-lea/influ-discord-bot/internal/domain"
	"github.com/line-ec-lea/influ-discord-bot/internal/present/rest/middleware"
	"github.com/line-ec-lea/influ-discord-bot/internal/present/rest/presenter"
	"github.com/line-ec-lea/influ-discord-bot/internal/service"
	"github.com/line-ec-lea/influ-discord-bot/internal/usecase"
)

type Handler struct {
	config domain.Config
	relay  *usecase.RelayUsecase
	signal *service.SignalService
}

func NewHandler(
	config domain.Config,
	relay *usecase.RelayUsecase,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		config: config,
		relay:  relay,
		signal: signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	auth := middleware.NewAuthMiddleware(h.config)

	e.GET("/", h.handleHealth)
	e.POST("/hook/:channelId", h.handleHook, auth.VerifyHookSecret)
	if h.signal != nil {
		e.GET("/realtime", h.handleRealtime)
	}
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, echo.Map{"message": "ok"})
}

func (h *Handler) handleHook(c echo.Context) error {
	ctx := c.Request().Context()

	channelID := c.Param("channelId")
	if channelID == "" {
		return presenter.BadRequestMessage(c, "channelId is required")
	}

	var payload influ.WebhookPayload
	err := c.Bind(&payload)
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	if payload.Data.ID == "" {
		return presenter.BadRequestMessage(c, "payload has no page")
	}

	err = h.relay.Relay(ctx, usecase.RelayInput{
		ChannelID: channelID,
		Title:     c.QueryParam("title"),
		Page:      payload.Data,
	})
	if err != nil {
		return presenter.InternalError(c, err)
	}

	return presenter.NoContent(c)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Request struct {
	Type     string   `json:"type"`
	Channels []string `json:"channels"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	// cancellation is the only teardown signal: the channels are never
	// closed here, since Realtime may still be sending on output
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	input := make(chan []string)
	output := make(chan influ.Event)

	go h.signal.Realtime(ctx, input, output)

	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			var req Request
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				return
			}

			switch req.Type {
			case "listen":
				select {
				case input <- req.Channels:
				case <-ctx.Done():
					return
				}
				slog.DebugContext(
					ctx, fmt.Sprintf("Socket subscribe: %s", req.Channels),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/line-ec-lea/influ-discord-bot/discord"
	"github.com/line-ec-lea/influ-discord-bot/internal/config"
	"github.com/line-ec-lea/influ-discord-bot/internal/domain"
	"github.com/line-ec-lea/influ-discord-bot/internal/infra/database"
	"github.com/line-ec-lea/influ-discord-bot/internal/infra/gateway"
	"github.com/line-ec-lea/influ-discord-bot/internal/infra/repository"
	"github.com/line-ec-lea/influ-discord-bot/internal/infra/telemetry"
	"github.com/line-ec-lea/influ-discord-bot/internal/present/rest"
	"github.com/line-ec-lea/influ-discord-bot/internal/service"
	"github.com/line-ec-lea/influ-discord-bot/internal/usecase"
	"github.com/line-ec-lea/influ-discord-bot/notion"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	registerCommands := flag.Bool("register", false, "register slash commands and exit")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	discordClient := discord.New(conf.Relay.DiscordBotToken)

	if *registerCommands {
		err := register(discordClient, conf)
		if err != nil {
			slog.Error("Failed to register commands", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println("commands registered")
		return
	}

	if conf.Server.EnableTrace {
		cleanup, err := telemetry.SetupTraceProvider(conf.Server.TraceEndpoint, "influ-discord-bot")
		if err != nil {
			slog.Error("Failed to setup trace provider", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer cleanup()
	}

	domainConf := domain.Config{
		MemberDatabaseID:     conf.Relay.MemberDatabaseID,
		MemberProperty:       conf.Relay.MemberProperty,
		DiscordIDProperty:    conf.Relay.DiscordIDProperty,
		DiscordApplicationID: conf.Relay.DiscordApplicationID,
		HookSecret:           conf.Relay.HookSecret,
	}

	var kv database.KV
	var signal *service.SignalService

	switch conf.Server.CacheBackend {
	case "redis":
		rdb, err := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
		if err != nil {
			slog.Error("Failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		kv = database.NewRedisKV(rdb)
		signal = service.NewSignalService(rdb)
	case "memcached":
		mc, err := database.NewMemcached(conf.Server.MemcachedAddr)
		if err != nil {
			slog.Error("Failed to connect to memcached", slog.String("error", err.Error()))
			os.Exit(1)
		}
		kv = database.NewMemcacheKV(mc)
	case "memory":
		kv = database.NewLocalKV()
	default:
		slog.Error("Unknown cache backend", slog.String("backend", conf.Server.CacheBackend))
		os.Exit(1)
	}

	notionClient := notion.New(conf.Relay.NotionAPIKey)
	memberRepo := repository.NewMemberRepository(kv, notionClient, domainConf)

	renderUC := usecase.NewRenderUsecase(memberRepo)
	messenger := gateway.NewDiscordGateway(discordClient)

	var events usecase.EventPublisher
	if signal != nil {
		events = signal
	}
	relayUC := usecase.NewRelayUsecase(renderUC, messenger, events)

	handler := rest.NewHandler(domainConf, relayUC, signal)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("influ-discord-bot"))
	}

	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.ListenAddr))
}

func register(client *discord.Client, conf config.Config) error {
	if conf.Relay.DiscordApplicationID == "" {
		return fmt.Errorf("discordApplicationId is not configured")
	}

	commands := []discord.Command{
		{Name: "in", Description: "出勤する（in）", NameLocalizations: map[string]string{"ja": "出勤"}},
		{Name: "out", Description: "退勤する（out）", NameLocalizations: map[string]string{"ja": "退勤"}},
		{Name: "bi", Description: "休憩を開始する（bi）", NameLocalizations: map[string]string{"ja": "休憩開始"}},
		{Name: "bo", Description: "休憩を終了する（bo）", NameLocalizations: map[string]string{"ja": "休憩終了"}},
	}

	return client.RegisterCommands(context.Background(), conf.Relay.DiscordApplicationID, commands)
}

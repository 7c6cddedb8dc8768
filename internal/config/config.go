package config

import (
	"os"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"
)

type Config struct {
	Relay  Relay  `yaml:"relay"`
	Server Server `yaml:"server"`
}

type Relay struct {
	NotionAPIKey         string `yaml:"notionApiKey"`
	MemberDatabaseID     string `yaml:"memberDatabaseId"`
	MemberProperty       string `yaml:"memberProperty"`
	DiscordIDProperty    string `yaml:"discordIdProperty"`
	DiscordBotToken      string `yaml:"discordBotToken"`
	DiscordApplicationID string `yaml:"discordApplicationId"`
	HookSecret           string `yaml:"hookSecret"`
}

type Server struct {
	ListenAddr    string `yaml:"listenAddr"`
	CacheBackend  string `yaml:"cacheBackend"` // redis, memcached, memory
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	// secrets may come from the environment instead of the file
	if config.Relay.NotionAPIKey == "" {
		config.Relay.NotionAPIKey = os.Getenv("NOTION_API_KEY")
	}
	if config.Relay.DiscordBotToken == "" {
		config.Relay.DiscordBotToken = os.Getenv("DISCORD_BOT_TOKEN")
	}
	if config.Relay.HookSecret == "" {
		config.Relay.HookSecret = os.Getenv("HOOK_SECRET")
	}

	if config.Relay.MemberProperty == "" {
		config.Relay.MemberProperty = "ユーザー"
	}
	if config.Relay.DiscordIDProperty == "" {
		config.Relay.DiscordIDProperty = "Discord ID"
	}
	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = ":8000"
	}
	if config.Server.CacheBackend == "" {
		config.Server.CacheBackend = "memory"
	}

	if config.Relay.NotionAPIKey == "" {
		return Config{}, errors.New("notionApiKey is not configured")
	}
	if config.Relay.DiscordBotToken == "" {
		return Config{}, errors.New("discordBotToken is not configured")
	}
	if config.Relay.MemberDatabaseID == "" {
		return Config{}, errors.New("memberDatabaseId is not configured")
	}

	return config, nil
}

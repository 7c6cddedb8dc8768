package domain

// Config carries the relay settings shared across layers.
type Config struct {
	MemberDatabaseID     string `yaml:"memberDatabaseId"`
	MemberProperty       string `yaml:"memberProperty"`
	DiscordIDProperty    string `yaml:"discordIdProperty"`
	DiscordApplicationID string `yaml:"discordApplicationId"`
	HookSecret           string `yaml:"hookSecret"`
}

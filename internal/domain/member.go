package domain

import (
	"fmt"
	"regexp"
	"time"
)

// MemberMappingTTL bounds how long a resolved user mapping is served from
// cache before the directory is consulted again.
const MemberMappingTTL = time.Hour

// Member maps a record-store user onto the messaging system.
type Member struct {
	NotionUserID  string `json:"notionUserId"`
	DiscordUserID string `json:"discordUserId"`
}

// Discord ids are numeric but 17-19 digits long, past float64 precision,
// so they are carried as strings end to end.
var discordIDPattern = regexp.MustCompile(`^[0-9]{17,19}$`)

// ValidateDiscordID rejects anything that is not a plausible Discord
// snowflake. A malformed id must never reach a mention token.
func ValidateDiscordID(id string) error {
	if !discordIDPattern.MatchString(id) {
		return fmt.Errorf("discord id %q is not a 17-19 digit number", id)
	}
	return nil
}

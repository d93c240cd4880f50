package config

import (
	"log"
	"os"
)

type Config struct {
	MySQLDSN           string
	RedisURL           string
	GuildID            string
	DiscordClientID    string
	DiscordSecret      string
	DiscordCallbackURL string
	SessionSecret      string
	WebhookURL         string
	LeaderboardPingURL string
	UploadDir          string
	Port               string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func optenv(key string) string { return os.Getenv(key) }

func Load() Config {
	return Config{
		MySQLDSN:           getenv("MYSQL_DSN", ""),
		RedisURL:           getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		GuildID:            getenv("GUILD_ID", ""),
		DiscordClientID:    getenv("DISCORD_CLIENT_ID", ""),
		DiscordSecret:      getenv("DISCORD_CLIENT_SECRET", ""),
		DiscordCallbackURL: getenv("DISCORD_CALLBACK_URL", ""),
		SessionSecret:      getenv("SESSION_SECRET", "change-me"),
		WebhookURL:         optenv("WEBHOOK_URL"),
		LeaderboardPingURL: optenv("LEADERBOARD_PING_URL"),
		UploadDir:          getenv("UPLOAD_DIR", "uploads"),
		Port:               getenv("PORT", "3000"),
	}
}

package config

import (
	"os"
	"strconv"
)

// Config holds environment-driven configuration. Credential fields are
// secrets and must never be logged in full.
type Config struct {
	Addr       string
	SiteOrigin string

	// shared secret checked by the notification gateway
	GatewaySecret string

	// admin surface
	JWTSecret     string
	AdminEmail    string
	AdminPassword string

	// optional Postgres; the in-memory repositories serve when unset
	DatabaseURL string

	Discord DiscordConfig
	SMTP    SMTPConfig
}

type DiscordConfig struct {
	BotToken  string
	GuildID   string
	ChannelID string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Addr:          getEnv("MARKET_ADDR", ":8080"),
		SiteOrigin:    getEnv("MARKET_SITE_ORIGIN", "https://mythicmarket.example"),
		GatewaySecret: os.Getenv("MARKET_GATEWAY_SECRET"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Discord: DiscordConfig{
			BotToken:  os.Getenv("DISCORD_BOT_TOKEN"),
			GuildID:   os.Getenv("DISCORD_GUILD_ID"),
			ChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Session reuse policies.
const (
	ReusePolicyResume = "resume"
	ReusePolicyReset  = "reset"
)

// Config holds runtime configuration values for the interview coach service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	AllowOrigins       []string
	AIProvider         string
	AIModel            string
	AITimeout          time.Duration
	AIMaxRetries       int
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	SessionReusePolicy string
	SessionMirrorTTL   time.Duration
	RedisURL           string
	NATSURL            string
	DatabaseURL        string
	EventsChannel      string
	AccessLog          bool
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("COACH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Interview Coach API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8000")
	v.SetDefault("cors.allow_origins", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.model", "gpt-3.5-turbo")
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.max_retries", 2)
	v.SetDefault("session.reuse_policy", ReusePolicyResume)
	v.SetDefault("session.mirror_ttl", "1h")
	v.SetDefault("events.channel", "coach:interview")
	v.SetDefault("access_log", false)

	// The bare OPENAI_API_KEY used by the OpenAI tooling is honoured too.
	_ = v.BindEnv("openai_api_key", "COACH_OPENAI_API_KEY", "OPENAI_API_KEY")

	aiTimeout, err := parseDuration(v, "ai.timeout")
	if err != nil {
		return Config{}, err
	}

	mirrorTTL, err := parseDuration(v, "session.mirror_ttl")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		AllowOrigins:       splitList(v.GetString("cors.allow_origins")),
		AIProvider:         strings.ToLower(v.GetString("ai.provider")),
		AIModel:            v.GetString("ai.model"),
		AITimeout:          aiTimeout,
		AIMaxRetries:       v.GetInt("ai.max_retries"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		OpenAIBaseURL:      v.GetString("openai_base_url"),
		SessionReusePolicy: strings.ToLower(strings.TrimSpace(v.GetString("session.reuse_policy"))),
		SessionMirrorTTL:   mirrorTTL,
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		DatabaseURL:        v.GetString("database.url"),
		EventsChannel:      v.GetString("events.channel"),
		AccessLog:          v.GetBool("access_log"),
	}

	switch cfg.SessionReusePolicy {
	case ReusePolicyResume, ReusePolicyReset:
	default:
		return Config{}, fmt.Errorf("invalid session reuse policy %q", cfg.SessionReusePolicy)
	}

	if cfg.AITimeout <= 0 {
		return Config{}, fmt.Errorf("ai timeout must be positive")
	}

	if cfg.AIMaxRetries < 0 {
		cfg.AIMaxRetries = 0
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return duration, nil
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

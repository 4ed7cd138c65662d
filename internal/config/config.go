package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/dota2-results/internal/platform/logging"
)

const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreFile     = "file"
	StoreMemory   = "memory"

	AltTwitter  = "twitter"
	AltTelegram = "telegram"
)

// Config stores runtime configuration for the worker.
type Config struct {
	AppEnv         string `validate:"required,oneof=dev stage prod"`
	ServiceName    string `validate:"required"`
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       logging.Level

	SteamAPIKey                string
	SteamBaseURL               string `validate:"required,url"`
	SteamTimeout               time.Duration
	SteamMaxRetries            int     `validate:"gte=0"`
	SteamRatePerSec            float64 `validate:"gt=0"`
	SteamRateBurst             int     `validate:"gte=1"`
	SteamCircuitEnabled        bool
	SteamCircuitFailureCount   int `validate:"gte=1"`
	SteamCircuitOpenTimeout    time.Duration
	SteamCircuitHalfOpenMaxReq int `validate:"gte=1"`

	PollInterval          time.Duration
	PollDebounce          time.Duration
	LeagueRefreshInterval time.Duration
	HotLeagueWindow       time.Duration
	HistoryLookback       time.Duration
	DemoHistoryLookback   time.Duration
	DefaultStreamDelay    time.Duration
	LobbyStaleAfter       time.Duration
	SeriesStaleAfter      time.Duration
	MatchDetailsCacheTTL  time.Duration
	PollWorkers           int `validate:"gte=1"`

	BlacklistedLeagueIDs []int64
	AllowedLeagueIDs     []int64
	PrimaryMinTier       int `validate:"gte=0,lte=3"`

	StoreBackend            string `validate:"required,oneof=redis postgres file memory"`
	RedisURL                string `validate:"required_if=StoreBackend redis"`
	DBURL                   string `validate:"required_if=StoreBackend postgres"`
	DBDisablePreparedBinary bool
	StoreFileDir            string `validate:"required"`

	TwitterBaseURL        string `validate:"required,url"`
	TwitterAccessToken    string
	TwitterAltAccessToken string
	TwitterTimeout        time.Duration
	TwitterMaxLength      int `validate:"gte=2"`

	AltTransport     string `validate:"omitempty,oneof=twitter telegram"`
	TelegramBotToken string `validate:"required_if=AltTransport telegram"`
	TelegramChatID   int64

	SMTPAddr         string `validate:"omitempty,hostname_port"`
	SMTPUsername     string
	SMTPPassword     string
	SMTPFrom         string
	EmailSubscribers []string `validate:"dive,email"`

	TeamHandles map[int64]string

	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	PprofEnabled               bool
	PprofAddr                  string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("APP_SERVICE_NAME", "dota2-results"),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:       strings.TrimSpace(os.Getenv("APP_HTTP_ADDR")),
		LogLevel:       parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	if _, set := os.LookupEnv("APP_HTTP_ADDR"); !set {
		cfg.HTTPAddr = ":8080"
	}

	if cfg.ReadTimeout, err = getEnvAsDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsDuration("APP_WRITE_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}

	cfg.SteamAPIKey = strings.TrimSpace(getEnv("STEAM_API_KEY", ""))
	cfg.SteamBaseURL = strings.TrimSpace(getEnv("STEAM_BASE_URL", "https://api.steampowered.com"))
	if cfg.SteamTimeout, err = getEnvAsDuration("STEAM_TIMEOUT", "20s"); err != nil {
		return Config{}, err
	}
	cfg.SteamMaxRetries, err = getEnvAsInt("STEAM_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse STEAM_MAX_RETRIES: %w", err)
	}
	cfg.SteamRatePerSec, err = strconv.ParseFloat(getEnv("STEAM_RATE_PER_SEC", "1"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse STEAM_RATE_PER_SEC: %w", err)
	}
	cfg.SteamRateBurst, err = getEnvAsInt("STEAM_RATE_BURST", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse STEAM_RATE_BURST: %w", err)
	}
	cfg.SteamCircuitEnabled, err = strconv.ParseBool(getEnv("STEAM_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STEAM_CIRCUIT_ENABLED: %w", err)
	}
	cfg.SteamCircuitFailureCount, err = getEnvAsInt("STEAM_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse STEAM_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.SteamCircuitOpenTimeout, err = getEnvAsDuration("STEAM_CIRCUIT_OPEN_TIMEOUT", "30s"); err != nil {
		return Config{}, err
	}
	cfg.SteamCircuitHalfOpenMaxReq, err = getEnvAsInt("STEAM_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse STEAM_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	durations := []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"POLL_INTERVAL", "60s", &cfg.PollInterval},
		{"POLL_DEBOUNCE", "5s", &cfg.PollDebounce},
		{"LEAGUE_REFRESH_INTERVAL", "24h", &cfg.LeagueRefreshInterval},
		{"HOT_LEAGUE_WINDOW", "10m", &cfg.HotLeagueWindow},
		{"HISTORY_LOOKBACK", "168h", &cfg.HistoryLookback},
		{"DEMO_HISTORY_LOOKBACK", "8760h", &cfg.DemoHistoryLookback},
		{"DEFAULT_STREAM_DELAY", "120s", &cfg.DefaultStreamDelay},
		{"LOBBY_STALE_AFTER", "4h", &cfg.LobbyStaleAfter},
		{"SERIES_STALE_AFTER", "12h", &cfg.SeriesStaleAfter},
		{"MATCH_DETAILS_CACHE_TTL", "30m", &cfg.MatchDetailsCacheTTL},
		{"TWITTER_TIMEOUT", "15s", &cfg.TwitterTimeout},
		{"PYROSCOPE_UPLOAD_RATE", "15s", &cfg.PyroscopeUploadRate},
	}
	for _, d := range durations {
		if *d.dst, err = getEnvAsDuration(d.key, d.fallback); err != nil {
			return Config{}, err
		}
	}
	if cfg.PollWorkers, err = getEnvAsInt("POLL_WORKERS", 8); err != nil {
		return Config{}, fmt.Errorf("parse POLL_WORKERS: %w", err)
	}

	if cfg.BlacklistedLeagueIDs, err = parseIDList(getEnv("BLACKLISTED_LEAGUE_IDS", "")); err != nil {
		return Config{}, fmt.Errorf("parse BLACKLISTED_LEAGUE_IDS: %w", err)
	}
	if cfg.AllowedLeagueIDs, err = parseIDList(getEnv("ALLOWED_LEAGUE_IDS", "")); err != nil {
		return Config{}, fmt.Errorf("parse ALLOWED_LEAGUE_IDS: %w", err)
	}
	if cfg.PrimaryMinTier, err = getEnvAsInt("PRIMARY_MIN_TIER", 2); err != nil {
		return Config{}, fmt.Errorf("parse PRIMARY_MIN_TIER: %w", err)
	}

	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", getEnv("REDISCLOUD_URL", "")))
	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))
	cfg.StoreFileDir = strings.TrimSpace(getEnv("STORE_FILE_DIR", "/tmp/dota2results"))
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", defaultStoreBackend(cfg.RedisURL))))
	cfg.DBDisablePreparedBinary, err = strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cfg.TwitterBaseURL = strings.TrimSpace(getEnv("TWITTER_BASE_URL", "https://api.twitter.com"))
	cfg.TwitterAccessToken = strings.TrimSpace(getEnv("TWITTER_ACCESS_TOKEN", ""))
	cfg.TwitterAltAccessToken = strings.TrimSpace(getEnv("TWITTER_ALT_ACCESS_TOKEN", ""))
	if cfg.TwitterMaxLength, err = getEnvAsInt("TWITTER_MAX_LENGTH", 140); err != nil {
		return Config{}, fmt.Errorf("parse TWITTER_MAX_LENGTH: %w", err)
	}

	cfg.AltTransport = strings.ToLower(strings.TrimSpace(getEnv("ALT_TRANSPORT", "")))
	if cfg.AltTransport == "" && cfg.TwitterAltAccessToken != "" {
		cfg.AltTransport = AltTwitter
	}
	cfg.TelegramBotToken = strings.TrimSpace(getEnv("TELEGRAM_BOT_TOKEN", ""))
	if raw := strings.TrimSpace(getEnv("TELEGRAM_CHAT_ID", "")); raw != "" {
		cfg.TelegramChatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse TELEGRAM_CHAT_ID: %w", err)
		}
	}
	if cfg.AltTransport == AltTelegram && cfg.TelegramChatID == 0 {
		return Config{}, fmt.Errorf("TELEGRAM_CHAT_ID is required when ALT_TRANSPORT=telegram")
	}

	cfg.SMTPAddr = strings.TrimSpace(getEnv("SMTP_ADDR", ""))
	cfg.SMTPUsername = strings.TrimSpace(getEnv("SMTP_USERNAME", ""))
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SMTPFrom = strings.TrimSpace(getEnv("SMTP_FROM", ""))
	cfg.EmailSubscribers = splitCSV(getEnv("EMAIL_SUBSCRIBERS", ""))

	if cfg.TeamHandles, err = parseHandleMap(getEnv("TEAM_HANDLES", "")); err != nil {
		return Config{}, fmt.Errorf("parse TEAM_HANDLES: %w", err)
	}

	cfg.UptraceEnabled, err = strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	cfg.PyroscopeEnabled, err = strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))

	cfg.PprofEnabled, err = strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate applies the struct tag rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func defaultStoreBackend(redisURL string) string {
	if redisURL != "" {
		return StoreRedis
	}
	return StoreFile
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseIDList(raw string) ([]int64, error) {
	items := splitCSV(raw)
	out := make([]int64, 0, len(items))
	for _, item := range items {
		value, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", item, err)
		}
		if value <= 0 {
			return nil, fmt.Errorf("id must be > 0, got %q", item)
		}
		out = append(out, value)
	}
	return out, nil
}

// parseHandleMap reads "team_id:handle" pairs. An empty handle removes the
// built-in mapping for that team.
func parseHandleMap(raw string) (map[int64]string, error) {
	out := make(map[int64]string)
	for _, item := range splitCSV(raw) {
		segments := strings.SplitN(item, ":", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid map item %q, expected team_id:handle", item)
		}

		id, err := strconv.ParseInt(strings.TrimSpace(segments[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid team id in item %q: %w", item, err)
		}
		if id <= 0 {
			return nil, fmt.Errorf("team id must be > 0 in item %q", item)
		}

		out[id] = strings.TrimPrefix(strings.TrimSpace(segments[1]), "@")
	}
	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

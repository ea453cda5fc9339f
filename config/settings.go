package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings is everything the dashboard reads from the environment, resolved once at startup.
// The aggregation code never reads env itself; it is handed these values.
type Settings struct {
	Port               string
	Production         bool
	CorsAllowedOrigins string

	SheetsSpreadsheetID          string
	SheetsRange                  string
	SheetsAPIKey                 string
	SheetsPriorYearSpreadsheetID string
	SheetsPriorYearRange         string
	SheetsAutoConnect            bool
	SheetsCacheTTL               time.Duration
	SheetsRefreshTopic           string
	EnablePubSubPushEndpoint     bool

	// ACCOUNT_MAPPING="code=Display Name,..." overrides the built-in mapping.
	AccountMapping string
	// ACCOUNT_PREFIX_RULES="PFX=Display Name,..." for item-id prefix inference.
	AccountPrefixRules string
	// UPLOAD_RESOLUTION selects the resolver for uploaded files: mapping or prefix.
	UploadResolution string

	OtherAccountsLabel  string
	UnknownAccountLabel string

	RotationInterval time.Duration
	DefaultRangeDays int

	GCSBucket      string
	MaxUploadBytes int64

	RateLimitEnabled     bool
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
	SkipMigrations       bool
}

func LoadSettings() Settings {
	return Settings{
		Port:               firstNonEmpty(os.Getenv("PORT"), "8080"),
		Production:         strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production"),
		CorsAllowedOrigins: strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")),

		SheetsSpreadsheetID:          strings.TrimSpace(os.Getenv("SHEETS_SPREADSHEET_ID")),
		SheetsRange:                  firstNonEmpty(os.Getenv("SHEETS_RANGE"), "Sheet1!A:Z"),
		SheetsAPIKey:                 strings.TrimSpace(os.Getenv("SHEETS_API_KEY")),
		SheetsPriorYearSpreadsheetID: strings.TrimSpace(os.Getenv("SHEETS_PRIOR_YEAR_SPREADSHEET_ID")),
		SheetsPriorYearRange:         firstNonEmpty(os.Getenv("SHEETS_PRIOR_YEAR_RANGE"), os.Getenv("SHEETS_RANGE"), "Sheet1!A:Z"),
		SheetsAutoConnect:            envBoolDefault("SHEETS_AUTO_CONNECT", true),
		SheetsCacheTTL:               durationSecondsFromEnv("SHEETS_CACHE_TTL_SECONDS", 60),
		SheetsRefreshTopic:           firstNonEmpty(os.Getenv("SHEETS_REFRESH_TOPIC"), "sheets-refresh"),
		EnablePubSubPushEndpoint:     envBoolDefault("ENABLE_SHEETS_PUBSUB_PUSH_ENDPOINT", true),

		AccountMapping:     os.Getenv("ACCOUNT_MAPPING"),
		AccountPrefixRules: os.Getenv("ACCOUNT_PREFIX_RULES"),
		UploadResolution:   strings.ToLower(firstNonEmpty(os.Getenv("UPLOAD_RESOLUTION"), "prefix")),

		OtherAccountsLabel:  firstNonEmpty(os.Getenv("OTHER_ACCOUNTS_LABEL"), "Other accounts"),
		UnknownAccountLabel: firstNonEmpty(os.Getenv("UNKNOWN_ACCOUNT_LABEL"), "Unknown Account"),

		RotationInterval: durationSecondsFromEnv("ROTATION_INTERVAL_SECONDS", 5),
		DefaultRangeDays: intFromEnv("DEFAULT_RANGE_DAYS", 60),

		GCSBucket:      strings.TrimSpace(os.Getenv("GCS_BUCKET")),
		MaxUploadBytes: int64(intFromEnv("MAX_UPLOAD_BYTES", 10*1024*1024)),

		RateLimitEnabled:     envBoolDefault("RATE_LIMIT_ENABLED", false),
		RateLimitMaxRequests: intFromEnv("RATE_LIMIT_MAX_REQUESTS", 600),
		RateLimitWindow:      durationSecondsFromEnv("RATE_LIMIT_WINDOW_SECONDS", 60),
		SkipMigrations:       envBoolDefault("SKIP_MIGRATIONS", false),
	}
}

func envBoolDefault(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}

func durationSecondsFromEnv(key string, def int) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return time.Duration(def) * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return time.Duration(def) * time.Second
	}
	return time.Duration(n) * time.Second
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

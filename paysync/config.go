package paysync

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sigayyury-ai/crmtowfirma-sub012/utils"
)

// Config bounds the engine's external reads and staleness windows. All
// durations have operational defaults; envs override them for incident
// tuning without a deploy.
type Config struct {
	// ActiveSessionWindow is how fresh a locally-open second-instalment
	// session must be before we trust it enough to re-check the processor
	// instead of creating a new one.
	ActiveSessionWindow time.Duration `validate:"gt=0"`

	// RecentSessionWindow suppresses reminders and recreations when an open
	// session this recent already exists for the deal.
	RecentSessionWindow time.Duration `validate:"gt=0"`

	// ScannerLookback bounds how far back the expired-session scan reaches.
	ScannerLookback time.Duration `validate:"gt=0"`

	// ScannerPageSize and ScannerMaxPages cap the total records examined per
	// scan. The processor list API is the dominant latency cost of a run.
	ScannerPageSize int `validate:"gt=0,lte=100"`
	ScannerMaxPages int `validate:"gt=0,lte=100"`

	// SyntheticEmailFragments marks checkout sessions created by test
	// traffic; matching sessions are invisible to the engine.
	SyntheticEmailFragments []string `validate:"required,min=1"`

	// SyntheticSessionPrefixes marks fabricated session identifiers that must
	// never be resolved against the live processor.
	SyntheticSessionPrefixes []string `validate:"required,min=1"`
}

func DefaultConfig() Config {
	return Config{
		ActiveSessionWindow:      24 * time.Hour,
		RecentSessionWindow:      7 * 24 * time.Hour,
		ScannerLookback:          30 * 24 * time.Hour,
		ScannerPageSize:          100,
		ScannerMaxPages:          10,
		SyntheticEmailFragments:  []string{"+test@", "@example.com", "@test."},
		SyntheticSessionPrefixes: []string{"cs_test_", "test_"},
	}
}

// LoadConfig builds the config from env overrides on top of the defaults and
// validates it. Invalid overrides fail loudly rather than running with a
// half-applied config.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if hours := utils.IntFromEnv("PAYSYNC_ACTIVE_SESSION_HOURS", 0); hours > 0 {
		cfg.ActiveSessionWindow = time.Duration(hours) * time.Hour
	}
	if days := utils.IntFromEnv("PAYSYNC_RECENT_SESSION_DAYS", 0); days > 0 {
		cfg.RecentSessionWindow = time.Duration(days) * 24 * time.Hour
	}
	if days := utils.IntFromEnv("PAYSYNC_SCANNER_LOOKBACK_DAYS", 0); days > 0 {
		cfg.ScannerLookback = time.Duration(days) * 24 * time.Hour
	}
	if size := utils.IntFromEnv("PAYSYNC_SCANNER_PAGE_SIZE", 0); size > 0 {
		cfg.ScannerPageSize = size
	}
	if pages := utils.IntFromEnv("PAYSYNC_SCANNER_MAX_PAGES", 0); pages > 0 {
		cfg.ScannerMaxPages = pages
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

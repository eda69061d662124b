package driver

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/singer-io/tap-stripe/utils"
)

const (
	defaultDateWindowDays      = 30
	defaultEventDateWindowDays = 7
	defaultLookbackSeconds     = 600
	defaultRequestTimeoutSec   = 300
)

type Config struct {
	// Secret API key for the account
	ClientSecret string `json:"client_secret" validate:"required"`

	// Connected account id passed on every request
	AccountID string `json:"account_id" validate:"required"`

	// ISO-8601 date to sync from when no bookmark exists
	StartDate string `json:"start_date" validate:"required"`

	// Creation-pass window size in days
	DateWindowSize float64 `json:"date_window_size,omitempty"`

	// Update-pass window size in days
	EventDateWindowSize float64 `json:"event_date_window_size,omitempty"`

	// Seconds subtracted from the bookmark of eventually-consistent streams
	LookbackWindow int64 `json:"lookback_window,omitempty"`

	// Per-request timeout in seconds
	RequestTimeout int64 `json:"request_timeout,omitempty"`

	// JSON string mapping stream name to nested-field breadcrumbs retained
	// even when not selected
	WhitelistMap string `json:"whitelist_map,omitempty"`

	// Identification for outbound requests
	UserAgent string `json:"user_agent,omitempty"`

	startEpoch int64
	whitelist  map[string][]string
}

// Validate checks required keys, fills defaults and parses derived values.
func (c *Config) Validate() error {
	if c.ClientSecret == "" {
		c.ClientSecret = os.Getenv("TAP_STRIPE_CLIENT_SECRET")
	}

	if err := utils.Validate(c); err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}

	start, err := parseStartDate(c.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start_date %q: %s", c.StartDate, err)
	}
	c.startEpoch = start

	if c.DateWindowSize == 0 {
		c.DateWindowSize = defaultDateWindowDays
	}
	// the derived seconds drive window arithmetic; a value truncating to zero
	// would never advance a walk
	if c.WindowSeconds() < 1 {
		return fmt.Errorf("date_window_size must be at least one second, got %v days", c.DateWindowSize)
	}
	if c.EventDateWindowSize == 0 {
		c.EventDateWindowSize = defaultEventDateWindowDays
	}
	if c.EventWindowSeconds() < 1 {
		return fmt.Errorf("event_date_window_size must be at least one second, got %v days", c.EventDateWindowSize)
	}
	if c.LookbackWindow == 0 {
		c.LookbackWindow = defaultLookbackSeconds
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaultRequestTimeoutSec
	}

	c.whitelist = map[string][]string{}
	if c.WhitelistMap != "" {
		if err := json.Unmarshal([]byte(c.WhitelistMap), &c.whitelist); err != nil {
			return fmt.Errorf("invalid whitelist_map: %s", err)
		}
	}

	return nil
}

func (c *Config) StartEpoch() int64 {
	return c.startEpoch
}

func (c *Config) WindowSeconds() int64 {
	return int64(c.DateWindowSize * 24 * 60 * 60)
}

func (c *Config) EventWindowSeconds() int64 {
	return int64(c.EventDateWindowSize * 24 * 60 * 60)
}

func parseStartDate(value string) (int64, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z0700", "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Unix(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized timestamp layout")
}

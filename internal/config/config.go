// Package config loads settings for the UI test helpers and the fixture server.
// CLI flags cover the fixture server; environment variables select the page
// driver and the helper's lookup policy for test runs.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kuitang/uihelpers/internal/urlutil"
)

// Page drivers understood by the driver package.
const (
	DriverMemory     = "memory"
	DriverPlaywright = "playwright"
	DriverRod        = "rod"
	DriverChromedp   = "chromedp"
)

const (
	defaultListenAddr = ":8090"
	defaultTimeout    = 5 * time.Second
	maxTimeout        = 60 * time.Second
)

// Drivers lists every supported driver name.
var Drivers = []string{DriverMemory, DriverPlaywright, DriverRod, DriverChromedp}

// Config holds all helper and fixture server configuration.
type Config struct {
	// Fixture server
	ListenAddr string
	BaseURL    string

	// Page driver
	Driver     string        // memory, playwright, rod or chromedp
	Headless   bool          // launch browsers headless
	Timeout    time.Duration // per-operation timeout for browser drivers
	BrowserBin string        // optional explicit browser binary (rod, chromedp)

	// Helper behavior
	StrictLookup bool // fail loudly when an element id does not resolve
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// ParseFlags registers and parses --addr and --strict. Call before LoadConfig.
func ParseFlags() (addr string, strict bool) {
	flag.StringVar(&addr, "addr", "", "Listen address (default :8090, overrides LISTEN_ADDR env var)")
	flag.BoolVar(&strict, "strict", false, "Fail on missing elements instead of ignoring them")
	flag.Parse()
	return addr, strict
}

// LoadConfig loads configuration from environment variables and CLI flag values.
// A non-empty addr overrides LISTEN_ADDR; strict forces StrictLookup on.
func LoadConfig(addr string, strict bool) (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getEnvOrDefault("LISTEN_ADDR", defaultListenAddr)
	if addr != "" {
		cfg.ListenAddr = addr
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("BASE_URL")), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = urlutil.BaseFromListenAddr(cfg.ListenAddr)
	}

	cfg.Driver = strings.ToLower(getEnvOrDefault("UITEST_DRIVER", DriverMemory))
	cfg.Headless = parseBoolOrDefault("UITEST_HEADLESS", true)
	cfg.Timeout = parseDurationOrDefault("UITEST_TIMEOUT", defaultTimeout)
	cfg.BrowserBin = strings.TrimSpace(os.Getenv("UITEST_BROWSER_BIN"))
	cfg.StrictLookup = strict || parseBoolOrDefault("UITEST_STRICT_LOOKUP", false)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	var errs []string

	if c.ListenAddr == "" {
		errs = append(errs, "LISTEN_ADDR must not be empty")
	}
	if !IsKnownDriver(c.Driver) {
		errs = append(errs, fmt.Sprintf("UITEST_DRIVER must be one of %s (got %q)", strings.Join(Drivers, ", "), c.Driver))
	}
	if c.Timeout <= 0 {
		errs = append(errs, "UITEST_TIMEOUT must be positive")
	} else if c.Timeout > maxTimeout {
		errs = append(errs, fmt.Sprintf("UITEST_TIMEOUT must not exceed %s", maxTimeout))
	}
	if c.BrowserBin != "" && (c.Driver == DriverMemory || c.Driver == DriverPlaywright) {
		errs = append(errs, "UITEST_BROWSER_BIN is only used by the rod and chromedp drivers")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// IsKnownDriver reports whether name is a supported driver.
func IsKnownDriver(name string) bool {
	for _, d := range Drivers {
		if d == name {
			return true
		}
	}
	return false
}

// IsBrowserDriver reports whether the driver launches a real browser.
func (c *Config) IsBrowserDriver() bool {
	return c.Driver != DriverMemory
}

// TimeoutMS returns Timeout in milliseconds, the unit Playwright expects.
func (c *Config) TimeoutMS() float64 {
	return float64(c.Timeout.Milliseconds())
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

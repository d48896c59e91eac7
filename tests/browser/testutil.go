// Package browser runs the UI helpers against the fixture page with every
// page driver. Browser drivers skip when their browser cannot start.
//
// The memory driver always runs. Set UITEST_DRIVER to a browser driver to
// add it, or to "all" to add every browser driver.
package browser

import (
	"context"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kuitang/uihelpers/internal/config"
	"github.com/kuitang/uihelpers/internal/driver"
	"github.com/kuitang/uihelpers/internal/errs"
	"github.com/kuitang/uihelpers/internal/fixture"
	"github.com/kuitang/uihelpers/internal/obs"
	"github.com/kuitang/uihelpers/internal/uitest"
	"github.com/kuitang/uihelpers/internal/urlutil"
)

const (
	// Never introduce a larger timeout value anywhere in tests/browser.
	browserMaxTimeout = 5 * time.Second
)

var (
	browserFixtureMu     sync.Mutex
	browserSharedFixture *BrowserTestEnv
)

// BrowserTestEnv is the shared fixture server all browser tests load.
type BrowserTestEnv struct {
	Server  *httptest.Server
	BaseURL string
	Config  config.Config
}

// SetupBrowserTestEnv returns the shared fixture server, starting it on first use.
func SetupBrowserTestEnv(t *testing.T) *BrowserTestEnv {
	t.Helper()

	browserFixtureMu.Lock()
	defer browserFixtureMu.Unlock()
	if browserSharedFixture != nil {
		return browserSharedFixture
	}

	cfg := config.Config{
		ListenAddr: ":0",
		Driver:     config.DriverMemory,
		Headless:   os.Getenv("UITEST_HEADLESS") != "false",
		Timeout:    browserMaxTimeout,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Invalid browser test config: %v", err)
	}
	cfg.BrowserBin = browserBin

	server := httptest.NewServer(fixture.NewHandler())
	browserSharedFixture = &BrowserTestEnv{Server: server, BaseURL: server.URL, Config: cfg}
	return browserSharedFixture
}

var (
	browserBin      = strings.TrimSpace(os.Getenv("UITEST_BROWSER_BIN"))
	requestedDriver = strings.ToLower(strings.TrimSpace(os.Getenv("UITEST_DRIVER")))
)

func cleanupSharedBrowserTestEnv() {
	browserFixtureMu.Lock()
	defer browserFixtureMu.Unlock()
	if browserSharedFixture == nil {
		return
	}
	browserSharedFixture.Server.Close()
	browserSharedFixture = nil
}

func TestMain(m *testing.M) {
	code := m.Run()
	cleanupSharedBrowserTestEnv()
	os.Exit(code)
}

// Drivers lists the drivers this run exercises.
func Drivers() []string {
	drivers := []string{config.DriverMemory}
	switch {
	case requestedDriver == "all":
		for _, d := range config.Drivers {
			if d != config.DriverMemory {
				drivers = append(drivers, d)
			}
		}
	case requestedDriver != "" && requestedDriver != config.DriverMemory && config.IsKnownDriver(requestedDriver):
		drivers = append(drivers, requestedDriver)
	}
	return drivers
}

// ForEachDriver runs fn as a subtest per driver.
func ForEachDriver(t *testing.T, fn func(t *testing.T, driverName string)) {
	t.Helper()
	for _, d := range Drivers() {
		t.Run(d, func(t *testing.T) {
			fn(t, d)
		})
	}
}

// Session is one opened fixture page plus a helper over it.
type Session struct {
	Ctx    context.Context
	Handle *driver.Handle
	Helper *uitest.Helper
}

// OpenFixture loads the fixture page at path with driverName. Browser drivers
// skip the test when their browser is unavailable.
func (env *BrowserTestEnv) OpenFixture(t *testing.T, driverName, path string, strict bool) *Session {
	t.Helper()

	cfg := env.Config
	cfg.Driver = driverName
	cfg.StrictLookup = strict

	ctx, cancel := context.WithTimeout(context.Background(), 6*browserMaxTimeout)
	t.Cleanup(cancel)
	ctx = obs.WithTest(ctx, t.Name(), driverName)

	h, err := driver.Open(ctx, &cfg, urlutil.PageURL(env.BaseURL, path, nil))
	if err != nil {
		if errs.CodeOf(err) == errs.Unavailable && driverName != config.DriverMemory {
			t.Skipf("%s driver not available: %v", driverName, err)
		}
		t.Fatalf("Failed to open %s with %s: %v", path, driverName, err)
	}
	t.Cleanup(func() {
		if err := h.Close(); err != nil {
			t.Logf("close %s: %v", driverName, err)
		}
	})
	if h.DOM != nil {
		fixture.Attach(h.DOM)
	}
	return &Session{Ctx: ctx, Handle: h, Helper: uitest.FromConfig(h.Page, &cfg)}
}

// GenerateUniqueName returns prefix plus a random suffix for test isolation.
func GenerateUniqueName(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

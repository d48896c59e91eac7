// Package driver opens a page.Page with the backend named in config.
package driver

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/kuitang/uihelpers/internal/config"
	"github.com/kuitang/uihelpers/internal/errs"
	"github.com/kuitang/uihelpers/internal/obs"
	"github.com/kuitang/uihelpers/internal/page"
	"github.com/kuitang/uihelpers/internal/page/cdppage"
	"github.com/kuitang/uihelpers/internal/page/dompage"
	"github.com/kuitang/uihelpers/internal/page/pwpage"
	"github.com/kuitang/uihelpers/internal/page/rodpage"
)

// maxDocumentBytes caps what the memory driver will read from a server.
const maxDocumentBytes = 4 << 20

// Handle is an opened page and whatever owns it.
type Handle struct {
	Driver string
	Page   page.Page
	// DOM is set for the memory driver so callers can attach Go handlers.
	DOM *dompage.Page

	close func() error
}

// Close releases the browser, if any. It is safe to call more than once.
func (h *Handle) Close() error {
	if h == nil || h.close == nil {
		return nil
	}
	closeFn := h.close
	h.close = nil
	return closeFn()
}

// Open starts the configured driver and loads url.
// Browser drivers whose browser cannot start return an errs.Unavailable error.
func Open(ctx context.Context, cfg *config.Config, url string) (*Handle, error) {
	if cfg == nil {
		return nil, errs.New(errs.InvalidArgument, "driver config is required")
	}
	obs.From(ctx).With("pkg", "driver").Debug("page_open", "url", url, "page_driver", cfg.Driver)

	switch cfg.Driver {
	case config.DriverMemory:
		dom, err := Fetch(ctx, http.DefaultClient, url)
		if err != nil {
			return nil, err
		}
		return &Handle{Driver: cfg.Driver, Page: dom, DOM: dom}, nil

	case config.DriverPlaywright:
		s, err := pwpage.Launch(ctx, url, cfg.Headless, cfg.TimeoutMS())
		if err != nil {
			return nil, err
		}
		return &Handle{Driver: cfg.Driver, Page: s.Page, close: s.Close}, nil

	case config.DriverRod:
		s, err := rodpage.Launch(ctx, url, cfg.BrowserBin, cfg.Headless, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return &Handle{Driver: cfg.Driver, Page: s.Page, close: s.Close}, nil

	case config.DriverChromedp:
		s, err := cdppage.Launch(ctx, url, cfg.BrowserBin, cfg.Headless, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return &Handle{Driver: cfg.Driver, Page: s.Page, close: s.Close}, nil

	default:
		return nil, errs.New(errs.InvalidArgument, fmt.Sprintf("unknown driver %q", cfg.Driver))
	}
}

// Fetch downloads url and parses it into an in-memory page.
func Fetch(ctx context.Context, client *http.Client, url string) (*dompage.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "build page request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, fmt.Sprintf("fetch %s", url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.New(errs.FailedPrecondition, fmt.Sprintf("fetch %s: status %d", url, resp.StatusCode))
	}
	return dompage.Parse(io.LimitReader(resp.Body, maxDocumentBytes))
}

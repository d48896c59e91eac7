// Package pwpage adapts a Playwright page to page.Page.
package pwpage

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/uihelpers/internal/errs"
	"github.com/kuitang/uihelpers/internal/page"
)

// Page drives a live Playwright page.
type Page struct {
	pw        playwright.Page
	timeoutMS float64
}

var _ page.Page = (*Page)(nil)

// New wraps pw. timeoutMS bounds every element operation.
func New(pw playwright.Page, timeoutMS float64) *Page {
	return &Page{pw: pw, timeoutMS: timeoutMS}
}

// Playwright returns the wrapped page for callers that need the full API.
func (p *Page) Playwright() playwright.Page {
	return p.pw
}

// locate resolves id to exactly one locator, or a not_found error when the
// page has no such element right now. It does not wait for the element.
func (p *Page) locate(ctx context.Context, id string) (playwright.Locator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := page.ValidateID(id); err != nil {
		return nil, err
	}
	loc := p.pw.Locator(page.IDSelector(id))
	count, err := loc.Count()
	if err != nil {
		return nil, fmt.Errorf("count #%s: %w", id, err)
	}
	if count == 0 {
		return nil, page.ErrNotFound(id)
	}
	return loc.First(), nil
}

// SetValue fills the element, replacing any existing value.
func (p *Page) SetValue(ctx context.Context, id, text string) error {
	loc, err := p.locate(ctx, id)
	if err != nil {
		return err
	}
	if err := loc.Fill(text, playwright.LocatorFillOptions{
		Timeout: playwright.Float(p.timeoutMS),
	}); err != nil {
		return fmt.Errorf("fill #%s: %w", id, err)
	}
	return nil
}

// Value reads the element's input value.
func (p *Page) Value(ctx context.Context, id string) (string, error) {
	loc, err := p.locate(ctx, id)
	if err != nil {
		return "", err
	}
	value, err := loc.InputValue(playwright.LocatorInputValueOptions{
		Timeout: playwright.Float(p.timeoutMS),
	})
	if err != nil {
		return "", fmt.Errorf("read value of #%s: %w", id, err)
	}
	return value, nil
}

// Click clicks the element.
func (p *Page) Click(ctx context.Context, id string) error {
	loc, err := p.locate(ctx, id)
	if err != nil {
		return err
	}
	if err := loc.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(p.timeoutMS),
	}); err != nil {
		return fmt.Errorf("click #%s: %w", id, err)
	}
	return nil
}

// PressKey focuses the element and presses key.
func (p *Page) PressKey(ctx context.Context, id string, key page.Key) error {
	loc, err := p.locate(ctx, id)
	if err != nil {
		return err
	}
	if err := loc.Press(key.Combo(), playwright.LocatorPressOptions{
		Timeout: playwright.Float(p.timeoutMS),
	}); err != nil {
		return fmt.Errorf("press %s on #%s: %w", key.Combo(), id, err)
	}
	return nil
}

// IsVisible reports Playwright's visibility: a non-empty bounding box and no
// visibility:hidden.
func (p *Page) IsVisible(ctx context.Context, id string) (bool, error) {
	loc, err := p.locate(ctx, id)
	if err != nil {
		return false, err
	}
	visible, err := loc.IsVisible()
	if err != nil {
		return false, fmt.Errorf("check visibility of #%s: %w", id, err)
	}
	return visible, nil
}

// Session owns a Playwright driver, a browser and one page.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	Page    *Page
}

// Launch starts Playwright and Chromium and opens url in a new page.
// A missing Playwright install is reported as unavailable.
func Launch(ctx context.Context, url string, headless bool, timeoutMS float64) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "playwright not available", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, errs.Wrap(errs.Unavailable, "could not launch chromium", err)
	}
	s := &Session{pw: pw, browser: browser}

	pwPage, err := browser.NewPage()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	pwPage.SetDefaultTimeout(timeoutMS)
	pwPage.SetDefaultNavigationTimeout(timeoutMS)

	if _, err := pwPage.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(timeoutMS),
	}); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}
	s.Page = New(pwPage, timeoutMS)
	return s, nil
}

// Close releases the browser and stops the driver.
func (s *Session) Close() error {
	var firstErr error
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			firstErr = err
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

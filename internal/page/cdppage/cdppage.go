// Package cdppage adapts a chromedp browser context to page.Page.
package cdppage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/kuitang/uihelpers/internal/errs"
	"github.com/kuitang/uihelpers/internal/page"
)

// visibleJS mirrors the usual "is rendered" check: the element has a box and
// computed visibility is not hidden.
const visibleJS = `(() => {
	const el = document.getElementById(%s);
	if (!el) { return false; }
	const style = window.getComputedStyle(el);
	if (style.visibility === 'hidden' || style.visibility === 'collapse') { return false; }
	return !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length);
})()`

// Page drives the tab bound to a chromedp context.
type Page struct {
	tab     context.Context
	timeout time.Duration
}

var _ page.Page = (*Page)(nil)

// New wraps a context created by chromedp.NewContext.
func New(tab context.Context, timeout time.Duration) *Page {
	return &Page{tab: tab, timeout: timeout}
}

// run executes actions on the tab, bounded by both the caller's ctx and the
// per-operation timeout.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(p.tab, p.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// resolve checks that the element exists without waiting for it and returns
// a selector for it.
func (p *Page) resolve(ctx context.Context, id string) (string, error) {
	if err := page.ValidateID(id); err != nil {
		return "", err
	}
	quoted, err := json.Marshal(id)
	if err != nil {
		return "", errs.Wrap(errs.InvalidArgument, "encode element id", err)
	}
	var present bool
	if err := p.run(ctx, chromedp.Evaluate(fmt.Sprintf(`document.getElementById(%s) !== null`, quoted), &present)); err != nil {
		return "", fmt.Errorf("query #%s: %w", id, err)
	}
	if !present {
		return "", page.ErrNotFound(id)
	}
	return page.IDSelector(id), nil
}

// SetValue sets the value property of the element.
func (p *Page) SetValue(ctx context.Context, id, text string) error {
	sel, err := p.resolve(ctx, id)
	if err != nil {
		return err
	}
	if err := p.run(ctx, chromedp.SetValue(sel, text, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("set value of #%s: %w", id, err)
	}
	return nil
}

// Value reads the value property of the element.
func (p *Page) Value(ctx context.Context, id string) (string, error) {
	sel, err := p.resolve(ctx, id)
	if err != nil {
		return "", err
	}
	var value string
	if err := p.run(ctx, chromedp.Value(sel, &value, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read value of #%s: %w", id, err)
	}
	return value, nil
}

// Click clicks the element once it is visible.
func (p *Page) Click(ctx context.Context, id string) error {
	sel, err := p.resolve(ctx, id)
	if err != nil {
		return err
	}
	if err := p.run(ctx, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click #%s: %w", id, err)
	}
	return nil
}

// PressKey focuses the element and sends key.
func (p *Page) PressKey(ctx context.Context, id string, key page.Key) error {
	sel, err := p.resolve(ctx, id)
	if err != nil {
		return err
	}
	keys, err := cdpKeys(key)
	if err != nil {
		return err
	}
	if err := p.run(ctx, chromedp.SendKeys(sel, keys, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("press %s on #%s: %w", key.Combo(), id, err)
	}
	return nil
}

// IsVisible evaluates the rendered-and-not-hidden check in the page.
func (p *Page) IsVisible(ctx context.Context, id string) (bool, error) {
	if _, err := p.resolve(ctx, id); err != nil {
		return false, err
	}
	quoted, _ := json.Marshal(id)
	var visible bool
	if err := p.run(ctx, chromedp.Evaluate(fmt.Sprintf(visibleJS, quoted), &visible)); err != nil {
		return false, fmt.Errorf("check visibility of #%s: %w", id, err)
	}
	return visible, nil
}

func cdpKeys(key page.Key) (string, error) {
	if key.Ctrl || key.Alt || key.Shift {
		return "", errs.New(errs.InvalidArgument, fmt.Sprintf("chromedp driver does not support modified key %s", key.Combo()))
	}
	switch key.Name {
	case "Enter":
		return kb.Enter, nil
	case "Tab":
		return kb.Tab, nil
	case "Escape":
		return kb.Escape, nil
	}
	if len([]rune(key.Name)) != 1 {
		return "", errs.New(errs.InvalidArgument, fmt.Sprintf("chromedp driver cannot map key %q", key.Name))
	}
	return key.Name, nil
}

// Session owns an allocator and a tab.
type Session struct {
	cancel []context.CancelFunc
	Page   *Page
}

// Launch starts a browser through chromedp's exec allocator and navigates to url.
func Launch(ctx context.Context, url, bin string, headless bool, timeout time.Duration) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1280, 800),
	)
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tab, cancelTab := chromedp.NewContext(allocCtx)
	s := &Session{cancel: []context.CancelFunc{cancelAlloc, cancelTab}}

	// The first Run starts the browser.
	if err := chromedp.Run(tab); err != nil {
		s.Close()
		return nil, errs.Wrap(errs.Unavailable, "could not start browser for chromedp", err)
	}

	navCtx, cancelNav := context.WithTimeout(tab, timeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		s.Close()
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}
	s.Page = New(tab, timeout)
	return s, nil
}

// Close cancels the tab and the allocator, which stops the browser.
func (s *Session) Close() error {
	for i := len(s.cancel) - 1; i >= 0; i-- {
		s.cancel[i]()
	}
	return nil
}

// Package rodpage adapts a Rod page to page.Page.
package rodpage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/kuitang/uihelpers/internal/errs"
	"github.com/kuitang/uihelpers/internal/page"
)

// setValueJS assigns the value property and fires the events a user edit would.
const setValueJS = `(v) => {
	this.value = v;
	this.dispatchEvent(new Event('input', { bubbles: true }));
	this.dispatchEvent(new Event('change', { bubbles: true }));
}`

// Page drives a live Rod page.
type Page struct {
	rp      *rod.Page
	timeout time.Duration
}

var _ page.Page = (*Page)(nil)

// New wraps rp. timeout bounds every element operation.
func New(rp *rod.Page, timeout time.Duration) *Page {
	return &Page{rp: rp, timeout: timeout}
}

// Rod returns the wrapped page.
func (p *Page) Rod() *rod.Page {
	return p.rp
}

// element resolves id without waiting; an empty match is not_found.
// The returned page clone carries ctx and the per-operation timeout.
func (p *Page) element(ctx context.Context, id string) (*rod.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := page.ValidateID(id); err != nil {
		return nil, err
	}
	scoped := p.rp.Context(ctx).Timeout(p.timeout)
	els, err := scoped.Elements(page.IDSelector(id))
	if err != nil {
		return nil, fmt.Errorf("query #%s: %w", id, err)
	}
	if els.Empty() {
		return nil, page.ErrNotFound(id)
	}
	return els.First(), nil
}

// SetValue assigns the value property and fires input/change events.
func (p *Page) SetValue(ctx context.Context, id, text string) error {
	el, err := p.element(ctx, id)
	if err != nil {
		return err
	}
	if _, err := el.Eval(setValueJS, text); err != nil {
		return fmt.Errorf("set value of #%s: %w", id, err)
	}
	return nil
}

// Value reads the value property.
func (p *Page) Value(ctx context.Context, id string) (string, error) {
	el, err := p.element(ctx, id)
	if err != nil {
		return "", err
	}
	prop, err := el.Property("value")
	if err != nil {
		return "", fmt.Errorf("read value of #%s: %w", id, err)
	}
	if prop.Nil() {
		return "", nil
	}
	return prop.String(), nil
}

// Click left-clicks the element once.
func (p *Page) Click(ctx context.Context, id string) error {
	el, err := p.element(ctx, id)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click #%s: %w", id, err)
	}
	return nil
}

// PressKey focuses the element and types key. Enter, Tab, Escape and
// single-rune keys are supported, without modifiers.
func (p *Page) PressKey(ctx context.Context, id string, key page.Key) error {
	el, err := p.element(ctx, id)
	if err != nil {
		return err
	}
	k, err := rodKey(key)
	if err != nil {
		return err
	}
	if err := el.Type(k); err != nil {
		return fmt.Errorf("press %s on #%s: %w", key.Name, id, err)
	}
	return nil
}

// IsVisible reports Rod's visibility check (a non-empty box model and no
// visibility:hidden).
func (p *Page) IsVisible(ctx context.Context, id string) (bool, error) {
	el, err := p.element(ctx, id)
	if err != nil {
		return false, err
	}
	visible, err := el.Visible()
	if err != nil {
		return false, fmt.Errorf("check visibility of #%s: %w", id, err)
	}
	return visible, nil
}

func rodKey(key page.Key) (input.Key, error) {
	if key.Ctrl || key.Alt || key.Shift {
		return 0, errs.New(errs.InvalidArgument, fmt.Sprintf("rod driver does not support modified key %s", key.Combo()))
	}
	switch key.Name {
	case "Enter":
		return input.Enter, nil
	case "Tab":
		return input.Tab, nil
	case "Escape":
		return input.Escape, nil
	}
	runes := []rune(key.Name)
	if len(runes) != 1 {
		return 0, errs.New(errs.InvalidArgument, fmt.Sprintf("rod driver cannot map key %q", key.Name))
	}
	return input.Key(runes[0]), nil
}

// Session owns a launched browser and one page.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	Page     *Page
}

// Launch starts a browser (bin may be empty to let Rod find or fetch one)
// and opens url.
func Launch(ctx context.Context, url, bin string, headless bool, timeout time.Duration) (*Session, error) {
	l := launcher.New().Context(ctx).Headless(headless)
	if bin != "" {
		l = l.Bin(bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "could not launch browser for rod", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, errs.Wrap(errs.Unavailable, "could not connect to browser", err)
	}
	s := &Session{launcher: l, browser: browser}

	rp, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	if err := rp.Timeout(timeout).WaitLoad(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("wait for %s to load: %w", url, err)
	}
	s.Page = New(rp, timeout)
	return s, nil
}

// Close closes the browser and kills the launched process.
func (s *Session) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
	}
	return err
}

// Package dompage is an in-memory page.Page backed by a parsed HTML tree.
//
// There is no script engine: behavior is attached as Go handlers with On, and
// handlers run synchronously inside Click and PressKey, bubbling from the
// target through every ancestor that carries an id.
package dompage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kuitang/uihelpers/internal/errs"
	"github.com/kuitang/uihelpers/internal/page"
)

// Event types dispatched by the page.
const (
	EventClick    = "click"
	EventKeyPress = "keypress"
)

// Event is a synthetic DOM event delivered to handlers.
type Event struct {
	Type          string
	TargetID      string
	CurrentTarget string
	Key           string
	Which         int
	CtrlKey       bool
	ShiftKey      bool
	AltKey        bool
}

// Handler reacts to an event. It may call back into the page.
type Handler func(p *Page, ev Event)

type handlerKey struct {
	id    string
	event string
}

// Page is an in-memory HTML document.
type Page struct {
	mu       sync.Mutex
	doc      *html.Node
	handlers map[handlerKey][]Handler
	cleared  map[*html.Node]bool // selects whose value matched no option
}

var _ page.Page = (*Page)(nil)

// Parse reads an HTML document.
func Parse(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "parse html", err)
	}
	return &Page{
		doc:      doc,
		handlers: make(map[handlerKey][]Handler),
		cleared:  make(map[*html.Node]bool),
	}, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(doc string) (*Page, error) {
	return Parse(strings.NewReader(doc))
}

// On registers a handler for events of the given type reaching the element id.
func (p *Page) On(id, eventType string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := handlerKey{id: id, event: eventType}
	p.handlers[key] = append(p.handlers[key], h)
}

// SetValue implements page.Page.
func (p *Page) SetValue(ctx context.Context, id, text string) error {
	if err := checkCall(ctx, id); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.find(id)
	if n == nil {
		return page.ErrNotFound(id)
	}
	switch n.DataAtom {
	case atom.Textarea:
		replaceChildrenWithText(n, text)
	case atom.Select:
		p.cleared[n] = !selectOption(n, text)
	default:
		setAttr(n, "value", text)
	}
	return nil
}

// Value implements page.Page.
func (p *Page) Value(ctx context.Context, id string) (string, error) {
	if err := checkCall(ctx, id); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.find(id)
	if n == nil {
		return "", page.ErrNotFound(id)
	}
	switch n.DataAtom {
	case atom.Textarea:
		return textContent(n), nil
	case atom.Select:
		return selectedValue(n, p.cleared[n]), nil
	default:
		v, _ := getAttr(n, "value")
		return v, nil
	}
}

// Click implements page.Page. Disabled form controls swallow the click.
func (p *Page) Click(ctx context.Context, id string) error {
	if err := checkCall(ctx, id); err != nil {
		return err
	}
	return p.dispatch(id, Event{Type: EventClick}, true)
}

// PressKey implements page.Page.
func (p *Page) PressKey(ctx context.Context, id string, key page.Key) error {
	if err := checkCall(ctx, id); err != nil {
		return err
	}
	ev := Event{
		Type:     EventKeyPress,
		Key:      key.Name,
		Which:    key.Code,
		CtrlKey:  key.Ctrl,
		ShiftKey: key.Shift,
		AltKey:   key.Alt,
	}
	return p.dispatch(id, ev, false)
}

// IsVisible implements page.Page. An element is hidden when it or an
// ancestor carries the hidden attribute, an inline display:none or
// visibility:hidden, or is not rendered at all (head content, hidden inputs).
func (p *Page) IsVisible(ctx context.Context, id string) (bool, error) {
	if err := checkCall(ctx, id); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.find(id)
	if n == nil {
		return false, page.ErrNotFound(id)
	}
	return visible(n), nil
}

// Show removes hiding attributes and inline styles from the element.
func (p *Page) Show(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.find(id)
	if n == nil {
		return page.ErrNotFound(id)
	}
	removeAttr(n, "hidden")
	decls := parseStyle(n)
	decls.remove("display")
	decls.remove("visibility")
	writeStyle(n, decls)
	return nil
}

// Hide sets an inline display:none on the element.
func (p *Page) Hide(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.find(id)
	if n == nil {
		return page.ErrNotFound(id)
	}
	decls := parseStyle(n)
	decls.set("display", "none")
	writeStyle(n, decls)
	return nil
}

// SetText replaces the element's children with a text node.
func (p *Page) SetText(id, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.find(id)
	if n == nil {
		return page.ErrNotFound(id)
	}
	replaceChildrenWithText(n, text)
	return nil
}

// Text returns the element's text content.
func (p *Page) Text(id string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.find(id)
	if n == nil {
		return "", page.ErrNotFound(id)
	}
	return textContent(n), nil
}

// HTML renders the current document.
func (p *Page) HTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var buf bytes.Buffer
	if err := html.Render(&buf, p.doc); err != nil {
		return fmt.Sprintf("<!-- render failed: %v -->", err)
	}
	return buf.String()
}

// dispatch collects handlers under the lock and runs them after releasing it,
// so handlers may mutate the page.
func (p *Page) dispatch(id string, ev Event, honorDisabled bool) error {
	p.mu.Lock()
	n := p.find(id)
	if n == nil {
		p.mu.Unlock()
		return page.ErrNotFound(id)
	}
	if honorDisabled && isDisabled(n) {
		p.mu.Unlock()
		return nil
	}

	type call struct {
		current string
		fns     []Handler
	}
	var calls []call
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		curID, ok := getAttr(cur, "id")
		if !ok || curID == "" {
			continue
		}
		fns := p.handlers[handlerKey{id: curID, event: ev.Type}]
		if len(fns) > 0 {
			calls = append(calls, call{current: curID, fns: append([]Handler(nil), fns...)})
		}
	}
	p.mu.Unlock()

	ev.TargetID = id
	for _, c := range calls {
		ev.CurrentTarget = c.current
		for _, fn := range c.fns {
			fn(p, ev)
		}
	}
	return nil
}

// find returns the first element with the id, in document order. Caller holds mu.
func (p *Page) find(id string) *html.Node {
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if v, ok := getAttr(n, "id"); ok && v == id {
				found = n
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(p.doc)
	return found
}

func checkCall(ctx context.Context, id string) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return page.ValidateID(id)
}

func isDisabled(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Button, atom.Input, atom.Select, atom.Textarea:
		_, disabled := getAttr(n, "disabled")
		return disabled
	}
	return false
}

// Package page defines the page facility the UI test helpers drive.
//
// A Page resolves an element id to zero or one live element. Backends live in
// sub-packages: dompage (in-memory HTML), pwpage (Playwright), rodpage (Rod)
// and cdppage (chromedp). Every backend reports a missing element with an
// errs.NotFound coded error so callers can choose their own lookup policy.
package page

import (
	"context"
	"fmt"
	"strings"

	"github.com/kuitang/uihelpers/internal/errs"
)

// Page is a live page addressed by element id.
type Page interface {
	// SetValue sets the value of the element, as a form control's value property.
	SetValue(ctx context.Context, id, text string) error
	// Value reads the element's current value.
	Value(ctx context.Context, id string) (string, error)
	// Click dispatches a click on the element.
	Click(ctx context.Context, id string) error
	// PressKey dispatches a key press to the element.
	PressKey(ctx context.Context, id string, key Key) error
	// IsVisible reports whether the element is rendered and not hidden.
	IsVisible(ctx context.Context, id string) (bool, error)
}

// Key describes a synthetic key press.
type Key struct {
	Name  string // DOM KeyboardEvent.key, also the Playwright key name
	Code  int    // legacy keyCode / which
	Ctrl  bool
	Shift bool
	Alt   bool
}

// Enter is a non-modified Enter key press.
var Enter = Key{Name: "Enter", Code: 13}

// Combo returns the Playwright-style key combination, e.g. "Control+Enter".
func (k Key) Combo() string {
	parts := make([]string, 0, 4)
	if k.Ctrl {
		parts = append(parts, "Control")
	}
	if k.Alt {
		parts = append(parts, "Alt")
	}
	if k.Shift {
		parts = append(parts, "Shift")
	}
	return strings.Join(append(parts, k.Name), "+")
}

// IDSelector returns a CSS selector matching the element with the given id.
// An attribute selector is used so ids that are not valid CSS identifiers
// (leading digits, dots, colons) still resolve.
func IDSelector(id string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(id)
	return `[id="` + escaped + `"]`
}

// ErrNotFound returns the coded error every backend uses for a missing element.
func ErrNotFound(id string) error {
	return errs.New(errs.NotFound, fmt.Sprintf("no element with id %q", id))
}

// ValidateID rejects ids no backend can resolve.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errs.New(errs.InvalidArgument, "element id must not be empty")
	}
	if strings.HasPrefix(id, "#") {
		return errs.New(errs.InvalidArgument, fmt.Sprintf("element id %q must not include the # prefix", id))
	}
	return nil
}

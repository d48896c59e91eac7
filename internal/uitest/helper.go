// Package uitest provides small actions and assertions for UI test cases.
//
// A Helper wraps one page.Page. Actions (TypeText, ClickOn, PressEnter)
// mutate the live page; assertions report through a caller-owned Asserter and
// never fail the calling goroutine themselves. Operations share no state, so
// callers sequence actions whose effects later calls depend on.
package uitest

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/kuitang/uihelpers/internal/config"
	"github.com/kuitang/uihelpers/internal/errs"
	"github.com/kuitang/uihelpers/internal/logutil"
	"github.com/kuitang/uihelpers/internal/obs"
	"github.com/kuitang/uihelpers/internal/page"
)

const maxLoggedValueChars = 80

// whitespaceRun matches the same characters as the JavaScript \s class:
// ASCII whitespace including vertical tab, Unicode space separators and BOM.
var whitespaceRun = regexp.MustCompile(`[\s\x0B\p{Z}\x{FEFF}]+`)

// Options tune a Helper.
type Options struct {
	// StrictLookup makes actions on a missing element return a not_found
	// error instead of doing nothing.
	StrictLookup bool
	// Now supplies the clock for timestamps. Defaults to time.Now.
	Now func() time.Time
	// Location for timestamps. Defaults to time.Local.
	Location *time.Location
}

// Helper runs actions and assertions against one page.
type Helper struct {
	page page.Page
	opts Options
}

// New returns a Helper for p.
func New(p page.Page, opts Options) *Helper {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Helper{page: p, opts: opts}
}

// FromConfig returns a Helper whose lookup policy comes from cfg.
func FromConfig(p page.Page, cfg *config.Config) *Helper {
	return New(p, Options{StrictLookup: cfg != nil && cfg.StrictLookup})
}

// Page returns the page the helper drives.
func (h *Helper) Page() page.Page {
	return h.page
}

// TypeText sets the value of the element fieldID to text.
func (h *Helper) TypeText(ctx context.Context, fieldID, text string) error {
	err := h.page.SetValue(ctx, fieldID, text)
	return h.actionResult(ctx, "type_text", fieldID, err,
		"value", logutil.FieldValueForLog(fieldID, text, maxLoggedValueChars))
}

// ClickOn dispatches a click on buttonID. When the page runs handlers
// synchronously their effects are visible once ClickOn returns; otherwise
// they are only scheduled.
func (h *Helper) ClickOn(ctx context.Context, buttonID string) error {
	err := h.page.Click(ctx, buttonID)
	return h.actionResult(ctx, "click", buttonID, err)
}

// PressEnter dispatches a non-modified Enter key press to eltID.
func (h *Helper) PressEnter(ctx context.Context, eltID string) error {
	err := h.page.PressKey(ctx, eltID, page.Enter)
	return h.actionResult(ctx, "press_enter", eltID, err)
}

// actionResult applies the lookup policy: a missing element is ignored
// unless StrictLookup is set; every other fault propagates.
func (h *Helper) actionResult(ctx context.Context, action, id string, err error, attrs ...any) error {
	logger := h.log(ctx).With("action", action, "element_id", id)
	switch {
	case err == nil:
		logger.Debug("ui_action", attrs...)
		return nil
	case errs.IsNotFound(err) && !h.opts.StrictLookup:
		logger.Debug("ui_action_skipped", "reason", "element not found")
		return nil
	default:
		logger.Debug("ui_action_failed", "error", err.Error())
		return fmt.Errorf("%s #%s: %w", action, id, err)
	}
}

// CollapseWhitespace replaces every run of whitespace with a single space.
// Leading and trailing runs are collapsed, not trimmed.
func CollapseWhitespace(s string) string {
	return whitespaceRun.ReplaceAllString(s, " ")
}

// AssertStringEquals compares gotText with expText through a. With
// ignoreSpaces both sides are whitespace-collapsed first; otherwise the
// comparison is exact.
func (h *Helper) AssertStringEquals(a Asserter, message, gotText, expText string, ignoreSpaces bool) bool {
	if ignoreSpaces {
		gotText = CollapseWhitespace(gotText)
		expText = CollapseWhitespace(expText)
	}
	return a.Equal(gotText, expText, message)
}

// AssertElementIsVisible asserts through a that elementID is visible.
// A lookup or visibility fault, including a missing element, is reported as
// a failed assertion carrying the fault's description. caseDescr, when
// non-empty, is prepended to the message.
func (h *Helper) AssertElementIsVisible(ctx context.Context, a Asserter, elementID, caseDescr string) bool {
	message := fmt.Sprintf("Checking whether the element '%s' is visible.", elementID)
	if caseDescr != "" {
		message = caseDescr + "\n" + message
	}

	visible, err := h.checkVisible(ctx, elementID)
	if err != nil {
		h.log(ctx).Debug("visibility_check_failed", "element_id", elementID, "error", err.Error())
		message += fmt.Sprintf("\nThere was an error trying to determine visibility of element #%s\nError was: %v", elementID, err)
		return a.OK(false, message)
	}
	return a.OK(visible, message)
}

// checkVisible turns a panicking backend into an ordinary fault.
func (h *Helper) checkVisible(ctx context.Context, id string) (visible bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			visible = false
			err = errs.New(errs.Internal, fmt.Sprintf("visibility check panicked: %v", r))
		}
	}()
	return h.page.IsVisible(ctx, id)
}

func (h *Helper) log(ctx context.Context) *slog.Logger {
	return obs.From(ctx).With("pkg", "uitest")
}

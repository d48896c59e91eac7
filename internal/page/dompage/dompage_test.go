package dompage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kuitang/uihelpers/internal/errs"
	"github.com/kuitang/uihelpers/internal/page"
)

const testDoc = `<!DOCTYPE html>
<html>
<head><title>t</title></head>
<body>
  <form id="login-form">
    <input id="username" type="text" value="preset">
    <input id="csrf" type="hidden" value="tok">
    <textarea id="bio">old bio</textarea>
    <select id="lang">
      <option value="en">English</option>
      <option value="iu" selected>Inuktitut</option>
      <option>fr</option>
    </select>
    <button id="submitBtn" type="button">Go</button>
    <button id="disabledBtn" type="button" disabled>No</button>
  </form>
  <div id="greeting" style="display: none">hi</div>
  <div id="panel" hidden><span id="nested">inner</span></div>
  <div id="ghost" style="visibility:hidden"><p id="ghost-child">x</p><p id="revived" style="visibility: visible">y</p></div>
  <p id="plain">text</p>
  <p id="dup">first</p>
  <p id="dup">second</p>
</body>
</html>`

func newTestPage(t *testing.T) *Page {
	t.Helper()
	p, err := ParseString(testDoc)
	require.NoError(t, err)
	return p
}

func TestSetValue_ThenValue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newTestPage(t)

	got, err := p.Value(ctx, "username")
	require.NoError(t, err)
	assert.Equal(t, "preset", got)

	require.NoError(t, p.SetValue(ctx, "username", "alice"))
	got, err = p.Value(ctx, "username")
	require.NoError(t, err)
	assert.Equal(t, "alice", got)

	require.NoError(t, p.SetValue(ctx, "bio", "line one\nline two"))
	got, err = p.Value(ctx, "bio")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", got)
}

func TestSelectValue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newTestPage(t)

	got, err := p.Value(ctx, "lang")
	require.NoError(t, err)
	assert.Equal(t, "iu", got)

	require.NoError(t, p.SetValue(ctx, "lang", "fr"))
	got, err = p.Value(ctx, "lang")
	require.NoError(t, err)
	assert.Equal(t, "fr", got, "option without value attribute matches on text")

	require.NoError(t, p.SetValue(ctx, "lang", "de"))
	got, err = p.Value(ctx, "lang")
	require.NoError(t, err)
	assert.Equal(t, "", got, "unknown value clears the selection")
}

func testTypeThenRead(t *rapid.T) {
	p, err := ParseString(testDoc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	id := rapid.SampledFrom([]string{"username", "bio", "csrf"}).Draw(t, "id")
	text := rapid.String().Draw(t, "text")

	ctx := context.Background()
	if err := p.SetValue(ctx, id, text); err != nil {
		t.Fatalf("SetValue(%q): %v", id, err)
	}
	got, err := p.Value(ctx, id)
	if err != nil {
		t.Fatalf("Value(%q): %v", id, err)
	}
	if got != text {
		t.Fatalf("Value(%q) = %q, want %q", id, got, text)
	}
}

func TestTypeThenRead_Property(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testTypeThenRead)
}

func TestMissingElement_NotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newTestPage(t)

	checks := map[string]error{
		"SetValue":  p.SetValue(ctx, "nope", "x"),
		"Click":     p.Click(ctx, "nope"),
		"PressKey":  p.PressKey(ctx, "nope", page.Enter),
		"Show":      p.Show("nope"),
		"Hide":      p.Hide("nope"),
		"SetText":   p.SetText("nope", "x"),
		"IsVisible": func() error { _, err := p.IsVisible(ctx, "nope"); return err }(),
		"Value":     func() error { _, err := p.Value(ctx, "nope"); return err }(),
	}
	for name, err := range checks {
		assert.Truef(t, errs.IsNotFound(err), "%s: expected not_found, got %v", name, err)
		if err != nil {
			assert.Contains(t, err.Error(), "nope", name)
		}
	}
}

func TestInvalidID(t *testing.T) {
	t.Parallel()
	p := newTestPage(t)

	err := p.Click(context.Background(), "#submitBtn")
	require.Error(t, err)
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))

	err = p.SetValue(context.Background(), "  ", "x")
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()
	p := newTestPage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Click(ctx, "submitBtn"), context.Canceled)
}

func TestClick_RunsHandlersSynchronouslyAndBubbles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newTestPage(t)

	var order []string
	p.On("submitBtn", EventClick, func(p *Page, ev Event) {
		order = append(order, "button:"+ev.TargetID+":"+ev.CurrentTarget)
		require.NoError(t, p.Show("greeting"))
	})
	p.On("login-form", EventClick, func(_ *Page, ev Event) {
		order = append(order, "form:"+ev.TargetID+":"+ev.CurrentTarget)
	})

	require.NoError(t, p.Click(ctx, "submitBtn"))
	assert.Equal(t, []string{"button:submitBtn:submitBtn", "form:submitBtn:login-form"}, order)

	visible, err := p.IsVisible(ctx, "greeting")
	require.NoError(t, err)
	assert.True(t, visible, "handler side effect observed right after Click returns")
}

func TestClick_DisabledButtonSwallowed(t *testing.T) {
	t.Parallel()
	p := newTestPage(t)
	fired := false
	p.On("disabledBtn", EventClick, func(*Page, Event) { fired = true })

	require.NoError(t, p.Click(context.Background(), "disabledBtn"))
	assert.False(t, fired)
}

func TestPressKey_DeliversEnter(t *testing.T) {
	t.Parallel()
	p := newTestPage(t)
	var got Event
	p.On("username", EventKeyPress, func(_ *Page, ev Event) { got = ev })

	require.NoError(t, p.PressKey(context.Background(), "username", page.Enter))
	assert.Equal(t, EventKeyPress, got.Type)
	assert.Equal(t, "Enter", got.Key)
	assert.Equal(t, 13, got.Which)
	assert.False(t, got.CtrlKey)
}

func TestIsVisible(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newTestPage(t)

	cases := map[string]bool{
		"username":    true,
		"plain":       true,
		"csrf":        false,
		"greeting":    false,
		"panel":       false,
		"nested":      false,
		"ghost":       false,
		"ghost-child": false,
		"revived":     true,
	}
	for id, want := range cases {
		got, err := p.IsVisible(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, want, got, id)
	}
}

func TestShowHide(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := newTestPage(t)

	require.NoError(t, p.Show("panel"))
	visible, err := p.IsVisible(ctx, "nested")
	require.NoError(t, err)
	assert.True(t, visible)

	require.NoError(t, p.Hide("plain"))
	visible, err = p.IsVisible(ctx, "plain")
	require.NoError(t, err)
	assert.False(t, visible)
	assert.Contains(t, p.HTML(), `id="plain" style="display: none"`)
}

func TestText_DuplicateIDResolvesFirst(t *testing.T) {
	t.Parallel()
	p := newTestPage(t)

	got, err := p.Text("dup")
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	require.NoError(t, p.SetText("dup", "changed"))
	assert.True(t, strings.Contains(p.HTML(), "changed"))
}

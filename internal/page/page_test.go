package page

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/kuitang/uihelpers/internal/errs"
)

func TestKeyCombo(t *testing.T) {
	assert.Equal(t, "Enter", Enter.Combo())
	assert.Equal(t, "Control+Enter", Key{Name: "Enter", Ctrl: true}.Combo())
	assert.Equal(t, "Control+Alt+Shift+a", Key{Name: "a", Ctrl: true, Alt: true, Shift: true}.Combo())
}

func TestIDSelector(t *testing.T) {
	assert.Equal(t, `[id="submitBtn"]`, IDSelector("submitBtn"))
	assert.Equal(t, `[id="1.a:b"]`, IDSelector("1.a:b"))
	assert.Equal(t, `[id="q\"x\\y"]`, IDSelector(`q"x\y`))
}

func testIDSelectorStaysQuoted(t *rapid.T) {
	id := rapid.String().Draw(t, "id")
	sel := IDSelector(id)
	inner := strings.TrimSuffix(strings.TrimPrefix(sel, `[id="`), `"]`)
	// Every quote inside the attribute value is escaped.
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '\\':
			i++
		case '"':
			t.Fatalf("unescaped quote in %q", sel)
		}
	}
}

func TestIDSelector_EscapesQuotes(t *testing.T) {
	rapid.Check(t, testIDSelectorStaysQuoted)
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("username"))
	for _, bad := range []string{"", "   ", "#username"} {
		assert.Equal(t, errs.InvalidArgument, errs.CodeOf(ValidateID(bad)), "%q", bad)
	}
}

func TestErrNotFound(t *testing.T) {
	err := ErrNotFound("ghost")
	assert.True(t, errs.IsNotFound(err))
	assert.Equal(t, `no element with id "ghost"`, err.Error())
}

// Package fixture serves a small login page for exercising UI helpers
// against every page driver.
package fixture

import (
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/kuitang/uihelpers/internal/errs"
	"github.com/kuitang/uihelpers/internal/obs"
)

// Element ids on the login page.
const (
	UsernameID    = "username"
	PasswordID    = "password"
	SubmitID      = "submitBtn"
	GreetingID    = "greeting"
	HiddenPanelID = "hidden-panel"
	NestedID      = "nested"
	BannerID      = "banner"
)

const (
	greetingPrefix = "Hello, "
	anonymous      = "stranger"

	// MaxBannerBytes bounds the ?banner= query parameter.
	MaxBannerBytes = 2048
)

//go:embed login.html
var loginHTML string

var loginTmpl = template.Must(template.New("login").Parse(loginHTML))

type loginData struct {
	Title          string
	Banner         template.HTML
	GreetingPrefix string
	Anonymous      string
}

// Greeting is the text the page shows after submitting username.
func Greeting(username string) string {
	if username == "" {
		username = anonymous
	}
	return greetingPrefix + username + "!"
}

// RenderBanner turns markdown into sanitized HTML.
func RenderBanner(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank})
	out := markdown.ToHTML([]byte(src), p, r)
	return template.HTML(bluemonday.UGCPolicy().SanitizeBytes(out))
}

// Render writes the login page with banner rendered from markdown.
func Render(w http.ResponseWriter, banner string) error {
	if len(banner) > MaxBannerBytes {
		return errs.New(errs.InvalidArgument, fmt.Sprintf("banner exceeds %d bytes", MaxBannerBytes))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err := loginTmpl.Execute(w, loginData{
		Title:          "Sign in",
		Banner:         RenderBanner(banner),
		GreetingPrefix: greetingPrefix,
		Anonymous:      anonymous,
	})
	if err != nil {
		return errs.Wrap(errs.Internal, "render login page", err)
	}
	return nil
}

// NewHandler returns the fixture app wrapped in request correlation and
// access logging.
func NewHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handleLogin)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errs.New(errs.NotFound, "no such page"))
	})
	return obs.RequestContextMiddleware(obs.AccessLogMiddleware("fixture", mux))
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := Render(w, r.URL.Query().Get("banner")); err != nil {
		writeError(w, r, err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.CodeOf(err)
	status := errs.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		obs.From(r.Context()).With("pkg", "fixture").Error("request_failed", "path", r.URL.Path, "error", err.Error())
	}
	http.Error(w, errs.MessageOf(err), status)
}

// Package web serves the site's HTML pages and static assets.
//
// Templates are embedded so the binary is self-contained. Protected pages
// are composed with the session guard at route registration; unauthenticated
// visitors are redirected to the entry page.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"roundtable/internal/auth/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages renders the site's HTML pages.
type Pages struct {
	log *slog.Logger
	ts  *template.Template
}

// PageData is passed to every page template.
type PageData struct {
	Title         string
	Authenticated bool
}

// NewPages parses the embedded templates.
func NewPages(log *slog.Logger) (*Pages, error) {
	if log == nil {
		log = slog.Default()
	}
	ts, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Pages{log: log, ts: ts}, nil
}

// Register wires page and static-asset routes onto mux. Protected pages are
// wrapped with the session guard; "/" stays public as the entry page.
func (p *Pages) Register(mux *http.ServeMux) {
	mux.Handle("/static/", http.FileServer(http.FS(staticFS)))

	mux.HandleFunc("/", p.handleEntry)

	guard := session.RedirectOnFail("/")
	mux.Handle("/dashboard", session.Require(p.page("dashboard.html", "Dashboard"), guard))
	mux.Handle("/build-editor", session.Require(p.page("build_editor.html", "Build Editor"), guard))
	mux.Handle("/ai-chatbot", session.Require(p.page("ai_chatbot.html", "AI Chatbot"), guard))
	mux.Handle("/about", session.Require(p.page("about.html", "About"), guard))
}

// handleEntry serves the login/register entry page; an authenticated
// visitor goes straight to the dashboard.
func (p *Pages) handleEntry(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if _, ok := session.ClaimsFrom(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	p.render(w, r, "entry.html", PageData{Title: "Welcome, Tarnished"})
}

func (p *Pages) page(file, title string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := PageData{Title: title}
		if _, ok := session.ClaimsFrom(r.Context()); ok {
			data.Authenticated = true
		}
		p.render(w, r, file, data)
	})
}

// render executes the template into a buffer first so a template error
// yields a clean 500 instead of a half-written page.
func (p *Pages) render(w http.ResponseWriter, _ *http.Request, file string, data PageData) {
	buf := new(bytes.Buffer)
	if err := p.ts.ExecuteTemplate(buf, file, data); err != nil {
		p.log.Error("web.render.fail", "template", file, "err", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

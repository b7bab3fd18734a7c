// Package handler contains the HTTP handlers: the server-rendered pages and
// the JSON API behind them.
//
// Handlers parse the request, call a service or the browser's session entry,
// and write the response. Business rules live in service, intake and session.
package handler

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/goccy/go-yaml"

	"github.com/sakif/asynchire/internal/intake"
	"github.com/sakif/asynchire/internal/model"
	"github.com/sakif/asynchire/internal/service"
	"github.com/sakif/asynchire/internal/session"
	"github.com/sakif/asynchire/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed pages.yaml
var pagesYAML []byte

// StaticPage is one entry of pages.yaml.
type StaticPage struct {
	Title    string    `yaml:"title"`
	Updated  string    `yaml:"updated"`
	Sections []Section `yaml:"sections"`
}

type Section struct {
	Heading string `yaml:"heading"`
	Body    string `yaml:"body"`
}

// LoadStaticPages parses the embedded page catalog and checks that every
// path in view.StaticPages has an entry.
func LoadStaticPages() (map[string]StaticPage, error) {
	var catalog map[string]StaticPage
	if err := yaml.Unmarshal(pagesYAML, &catalog); err != nil {
		return nil, fmt.Errorf("parsing pages.yaml: %w", err)
	}
	for path, slug := range view.StaticPages {
		if _, ok := catalog[slug]; !ok {
			return nil, fmt.Errorf("pages.yaml: no entry %q for %s", slug, path)
		}
	}
	return catalog, nil
}

// page is what base.html reads.
type page struct {
	Title    string
	SignedIn bool
}

type landingData struct {
	page
	Error         string
	GitHubEnabled bool
}

type dashboardData struct {
	page
	Profile      *model.Profile
	HiringStatus model.HiringStatus
	Tabs         view.TabSet
	Tab          view.Tab
	Job          *model.JobPosting
	Jobs         []model.JobPosting
	Candidates   []model.Candidate
	Intake       *intake.View
}

type adminData struct {
	page
	Clients []model.ClientOverview
	Stats   *service.DashboardStats
}

type staticData struct {
	page
	Page StaticPage
}

// PageHandler renders the server-side pages. GET / shows whatever
// view.Select picks for the browser's session.
type PageHandler struct {
	templates     map[string]*template.Template
	catalog       map[string]StaticPage
	jobs          *service.JobService
	candidates    *service.CandidateService
	admin         *service.AdminService
	githubEnabled bool
	logger        *slog.Logger
}

func NewPageHandler(
	jobs *service.JobService,
	candidates *service.CandidateService,
	admin *service.AdminService,
	githubEnabled bool,
	logger *slog.Logger,
) (*PageHandler, error) {
	catalog, err := LoadStaticPages()
	if err != nil {
		return nil, err
	}

	// Each page is parsed with base.html into its own set, since every page
	// defines "content".
	templates := make(map[string]*template.Template)
	for _, name := range []string{"landing", "loading", "dashboard", "admin", "static"} {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		templates[name] = t
	}

	return &PageHandler{
		templates:     templates,
		catalog:       catalog,
		jobs:          jobs,
		candidates:    candidates,
		admin:         admin,
		githubEnabled: githubEnabled,
		logger:        logger,
	}, nil
}

// HandleIndex waits briefly for the session to settle, then renders the
// landing page, the loading page, the client dashboard or the admin view.
//
// HTTP: GET /
func (h *PageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	e, err := entryFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), settleTimeout)
	defer cancel()
	_ = e.Controller.WaitSettled(ctx)

	state := e.Controller.Snapshot()
	switch view.Select(state) {
	case view.Loading:
		h.render(w, "loading", page{Title: "Loading"})
	case view.Admin:
		h.renderAdmin(w, r, state)
	case view.ClientDashboard:
		h.renderDashboard(w, r, e)
	default:
		h.render(w, "landing", landingData{
			page:          page{Title: "Hire engineers"},
			Error:         r.URL.Query().Get("error"),
			GitHubEnabled: h.githubEnabled,
		})
	}
}

// HandleStatic returns the handler for one catalog page.
func (h *PageHandler) HandleStatic(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.catalog[slug]
		if !ok {
			http.NotFound(w, r)
			return
		}
		signedIn := false
		if e, ok := session.EntryFromContext(r.Context()); ok {
			signedIn = e.Controller.Snapshot().IsAuthenticated
		}
		h.render(w, "static", staticData{page: page{Title: p.Title, SignedIn: signedIn}, Page: p})
	}
}

func (h *PageHandler) renderDashboard(w http.ResponseWriter, r *http.Request, e *session.Entry) {
	// The admin may have moved the pipeline since the last render.
	e.Controller.RefreshProfile(r.Context())
	state := e.Controller.Snapshot()
	if state.User == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	jobs, err := h.jobs.ListForUser(r.Context(), state.User.ID)
	if err != nil {
		h.serverError(w, "listing jobs", err)
		return
	}
	job, candidates, err := h.candidates.ListForUser(r.Context(), state.User.ID)
	if err != nil {
		h.serverError(w, "listing candidates", err)
		return
	}

	tabs := view.Tabs(state.Profile, jobs, candidates)
	data := dashboardData{
		page:       page{Title: "Dashboard", SignedIn: true},
		Profile:    state.Profile,
		Tabs:       tabs,
		Tab:        tabs.Select(view.Tab(r.URL.Query().Get("tab"))),
		Job:        job,
		Jobs:       jobs,
		Candidates: candidates,
	}
	if state.Profile != nil {
		data.HiringStatus = state.Profile.HiringStatus
	}
	if data.Tab == view.TabIntake {
		e.Wizard.Claim(state.User.ID)
		v := e.Wizard.View()
		data.Intake = &v
	}
	h.render(w, "dashboard", data)
}

func (h *PageHandler) renderAdmin(w http.ResponseWriter, r *http.Request, state session.State) {
	clients, err := h.admin.ListClients(r.Context(), state.User.ID, defaultListOptions())
	if err != nil {
		h.serverError(w, "listing clients", err)
		return
	}
	stats, err := h.admin.Stats(r.Context(), state.User.ID)
	if err != nil {
		h.serverError(w, "loading stats", err)
		return
	}
	h.render(w, "admin", adminData{
		page:    page{Title: "Admin", SignedIn: true},
		Clients: clients,
		Stats:   stats,
	})
}

// render executes into a buffer first so a template error still produces a
// clean 500 instead of half a page.
func (h *PageHandler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates[name].ExecuteTemplate(&buf, "base", data); err != nil {
		h.serverError(w, "rendering "+name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (h *PageHandler) serverError(w http.ResponseWriter, what string, err error) {
	h.logger.Error("page failed", slog.String("step", what), slog.String("error", err.Error()))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

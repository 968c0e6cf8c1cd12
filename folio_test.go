package folio_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio"
	"github.com/eringen/folio/api"
	"github.com/eringen/folio/contact"
	"github.com/eringen/folio/views"
)

const (
	csrfToken  = "test-csrf-token"
	adminToken = "tok-admin"
)

// backend is a stub content API that records every call it receives.
type backend struct {
	srv *httptest.Server

	mu          sync.Mutex
	calls       []string
	auths       []string
	blogs       string
	projects    string
	admin       bool
	rejectToken bool
	forbid      bool
	down        bool
	created     map[string]any
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{blogs: `[]`, projects: `[]`, admin: true}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"message":"Invalid email or password"}`)
			return
		}
		b.mu.Lock()
		admin := b.admin
		b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"_id": "u1", "name": "Ada", "email": creds.Email, "isAdmin": admin, "token": adminToken,
		})
	})
	mux.HandleFunc("GET /blogs", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		io.WriteString(w, b.blogs)
	})
	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		io.WriteString(w, b.projects)
	})
	mux.HandleFunc("GET /blogs/{slug}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("slug") != "hello-go" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"Blog not found"}`)
			return
		}
		io.WriteString(w, `{"_id":"b1","title":"Hello Go","slug":"hello-go","content":"# Hi\n\n**bold**"}`)
	})
	mux.HandleFunc("POST /blogs", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.created = body
		b.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"_id":"new"}`)
	})
	mux.HandleFunc("DELETE /blogs/{id}", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message":"Blog removed"}`)
	})
	mux.HandleFunc("DELETE /projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message":"Project removed"}`)
	})

	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls = append(b.calls, r.Method+" "+r.URL.Path)
		b.auths = append(b.auths, r.Header.Get("Authorization"))
		reject := b.rejectToken && r.Header.Get("Authorization") != ""
		forbid := b.forbid && r.Method != http.MethodGet && r.URL.Path != "/auth/login"
		down := b.down
		b.mu.Unlock()
		switch {
		case down:
			w.WriteHeader(http.StatusServiceUnavailable)
		case reject:
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"message":"Not authorized, token failed"}`)
		case forbid:
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `{"message":"Not allowed to change this content"}`)
		default:
			mux.ServeHTTP(w, r)
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) set(fn func(b *backend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *backend) resetCalls() {
	b.set(func(b *backend) { b.calls, b.auths = nil, nil })
}

// callsMatching returns the Authorization header of every call to route.
func (b *backend) callsMatching(route string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for i, c := range b.calls {
		if c == route {
			out = append(out, b.auths[i])
		}
	}
	return out
}

func (b *backend) authenticatedCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, a := range b.auths {
		if a != "" {
			n++
		}
	}
	return n
}

func newTestApp(t *testing.T, apiURL string, opts ...folio.Option) *folio.App {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := folio.SiteConfig{
		Name:          "Folio",
		URL:           "https://example.com",
		APIURL:        apiURL,
		SessionSecret: "0123456789abcdef0123456789abcdef",
	}
	client := api.New(apiURL, 2*time.Second, api.WithLogger(log))
	opts = append([]folio.Option{
		folio.WithLogger(log),
		folio.WithStaticDir(t.TempDir()),
		folio.WithAPIClient(client),
	}, opts...)
	app := folio.New(cfg, views.Default(), opts...)
	require.NoError(t, app.Setup())
	t.Cleanup(func() { app.Close() })
	return app
}

// browser keeps cookies between requests like a real client would.
type browser struct {
	t       *testing.T
	app     *folio.App
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, app *folio.App) *browser {
	return &browser{t: t, app: app, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	req.Header.Set("X-CSRF-Token", csrfToken)
	req.AddCookie(&http.Cookie{Name: "_csrf", Value: csrfToken})
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	b.app.Echo.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		switch {
		case c.Name == "_csrf":
		case c.MaxAge < 0:
			delete(b.cookies, c.Name)
		default:
			b.cookies[c.Name] = c
		}
	}
	return rec
}

func (b *browser) login(email, password string) *httptest.ResponseRecorder {
	b.t.Helper()
	return b.do(http.MethodPost, "/login/", url.Values{"email": {email}, "password": {password}})
}

func TestLoginThenDashboardUsesBearerToken(t *testing.T) {
	be := newBackend(t)
	app := newTestApp(t, be.srv.URL)
	br := newBrowser(t, app)

	rec := br.login("ada@example.com", "secret")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/", rec.Header().Get(echo.HeaderLocation))

	rec = br.do(http.MethodGet, "/dashboard/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome back, Ada.")
	assert.Contains(t, rec.Body.String(), "Signed in as Ada.")
	assert.Equal(t, []string{"Bearer " + adminToken}, be.callsMatching("GET /blogs"))
	assert.Equal(t, []string{"Bearer " + adminToken}, be.callsMatching("GET /projects"))
}

func TestFailedLoginKeepsVisitorSignedOut(t *testing.T) {
	be := newBackend(t)
	app := newTestApp(t, be.srv.URL)
	br := newBrowser(t, app)

	rec := br.login("ada@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
	assert.Contains(t, rec.Body.String(), `value="ada@example.com"`)
	_, hasSession := br.cookies["folio_session"]
	assert.False(t, hasSession)

	rec = br.do(http.MethodGet, "/dashboard/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login/", rec.Header().Get(echo.HeaderLocation))
}

func TestDashboardRedirectsWithoutAuthenticatedFetch(t *testing.T) {
	be := newBackend(t)
	app := newTestApp(t, be.srv.URL)
	br := newBrowser(t, app)

	for _, path := range []string{"/dashboard/", "/dashboard/blogs/new/", "/dashboard/projects/p1/edit/"} {
		rec := br.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login/", rec.Header().Get(echo.HeaderLocation), path)
	}
	rec := br.do(http.MethodPost, "/dashboard/blogs/123/delete/", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	assert.Zero(t, be.authenticatedCalls())
	assert.Empty(t, be.callsMatching("DELETE /blogs/123"))
}

func TestDeleteBlogRemovesOnlyThatEntry(t *testing.T) {
	be := newBackend(t)
	// The list still contains the deleted post, as a lagging API would.
	be.set(func(b *backend) {
		b.blogs = `[{"_id":"123","title":"Doomed","slug":"doomed"},{"_id":"456","title":"Kept","slug":"kept"}]`
	})
	app := newTestApp(t, be.srv.URL)
	br := newBrowser(t, app)
	require.Equal(t, http.StatusSeeOther, br.login("ada@example.com", "secret").Code)
	be.resetCalls()

	rec := br.do(http.MethodPost, "/dashboard/blogs/123/delete/", url.Values{})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-id="456"`)
	assert.NotContains(t, body, `data-id="123"`)
	assert.Contains(t, body, "Blog post deleted.")
	assert.Equal(t, []string{"Bearer " + adminToken}, be.callsMatching("DELETE /blogs/123"))
	assert.Empty(t, be.callsMatching("DELETE /blogs/456"))
}

func TestDeleteViaHTTPMethod(t *testing.T) {
	be := newBackend(t)
	be.set(func(b *backend) { b.projects = `[{"_id":"p1","title":"Tool"},{"_id":"p2","title":"Lib"}]` })
	app := newTestApp(t, be.srv.URL)
	br := newBrowser(t, app)
	br.login("ada@example.com", "secret")

	rec := br.do(http.MethodDelete, "/dashboard/projects/p1/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `data-id="p1"`)
	assert.Contains(t, rec.Body.String(), `data-id="p2"`)
	assert.Len(t, be.callsMatching("DELETE /projects/p1"), 1)
}

func TestEmptyBlogListShowsEmptyState(t *testing.T) {
	be := newBackend(t)
	app := newTestApp(t, be.srv.URL)
	br := newBrowser(t, app)

	rec := br.do(http.MethodGet, "/blogs/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No blog posts available at the moment.")
	assert.NotContains(t, rec.Body.String(), "toast-error")
}

func TestAPIFailureRendersToast(t *testing.T) {
	be := newBackend(t)
	be.set(func(b *backend) { b.down = true })
	app := newTestApp(t, be.srv.URL)
	br := newBrowser(t, app)

	rec := br.do(http.MethodGet, "/projects/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "toast-error")
	assert.Contains(t, rec.Body.String(), "Failed to load projects.")
}

func TestBlogDetail(t *testing.T) {
	be := newBackend(t)
	app := newTestApp(t, be.srv.URL)
	br := newBrowser(t, app)

	rec := br.do(http.MethodGet, "/blogs/hello-go/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>bold</strong>")

	rec = br.do(http.MethodGet, "/blogs/missing/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not found")
}

func TestLogoutClearsSession(t *testing.T) {
	be := newBackend(t)
	app := newTestApp(t, be.srv.URL)
	br := newBrowser(t, app)
	br.login("ada@example.com", "secret")

	rec := br.do(http.MethodPost, "/logout/", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	_, hasSession := br.cookies["folio_session"]
	assert.False(t, hasSession)

	rec = br.do(http.MethodGet, "/dashboard/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login/", rec.Header().Get(echo.HeaderLocation))
}

func TestRejectedTokenExpiresSession(t *testing.T) {
	be := newBackend(t)
	app := newTestApp(t, be.srv.URL)
	br := newBrowser(t, app)
	br.login("ada@example.com", "secret")
	be.set(func(b *backend) { b.rejectToken = true })

	rec := br.do(http.MethodGet, "/dashboard/", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login/", rec.Header().Get(echo.HeaderLocation))

	rec = br.do(http.MethodGet, "/login/", nil)
	assert.Contains(t, rec.Body.String(), "Your session has expired. Please log in again.")
	assert.Contains(t, rec.Body.String(), `href="/login/"`)
}

func TestNonAdminCannotReachDashboard(t *testing.T) {
	be := newBackend(t)
	be.set(func(b *backend) { b.admin = false })
	app := newTestApp(t, be.srv.URL)
	br := newBrowser(t, app)

	rec := br.login("guest@example.com", "secret")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login/", rec.Header().Get(echo.HeaderLocation))

	rec = br.do(http.MethodGet, "/login/", nil)
	assert.Contains(t, rec.Body.String(), "This account does not have dashboard access.")

	be.resetCalls()
	rec = br.do(http.MethodGet, "/dashboard/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Zero(t, be.authenticatedCalls())
}

func TestCreateBlogDerivesSlug(t *testing.T) {
	be := newBackend(t)
	app := newTestApp(t, be.srv.URL)
	br := newBrowser(t, app)
	br.login("ada@example.com", "secret")

	rec := br.do(http.MethodPost, "/dashboard/blogs/", url.Values{
		"title":   {"Hello World"},
		"content": {"Some *markdown*"},
		"tags":    {"go, web, Go"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, []string{"Bearer " + adminToken}, be.callsMatching("POST /blogs"))

	be.mu.Lock()
	created := be.created
	be.mu.Unlock()
	assert.Equal(t, "hello-world", created["slug"])
	assert.Equal(t, []any{"go", "web"}, created["tags"])
}

func TestCreateBlogValidation(t *testing.T) {
	be := newBackend(t)
	app := newTestApp(t, be.srv.URL)
	br := newBrowser(t, app)
	br.login("ada@example.com", "secret")

	rec := br.do(http.MethodPost, "/dashboard/blogs/", url.Values{"title": {"Draft"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Content is required.")
	assert.Contains(t, rec.Body.String(), `value="Draft"`)
	assert.Empty(t, be.callsMatching("POST /blogs"))
}

func TestCSRFRequiredForWrites(t *testing.T) {
	be := newBackend(t)
	app := newTestApp(t, be.srv.URL)

	req := httptest.NewRequest(http.MethodPost, "/login/", strings.NewReader("email=a%40b.io&password=secret"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("X-CSRF-Token", "forged")
	req.AddCookie(&http.Cookie{Name: "_csrf", Value: csrfToken})
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, be.callsMatching("POST /auth/login"))
}

func TestContactFormStoresMessage(t *testing.T) {
	be := newBackend(t)
	store, err := contact.NewStore(filepath.Join(t.TempDir(), "contact.db"))
	require.NoError(t, err)
	defer store.Close()
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := contact.NewService(store, nil, log)
	app := newTestApp(t, be.srv.URL, folio.WithContact(svc))
	br := newBrowser(t, app)

	rec := br.do(http.MethodPost, "/contact/", url.Values{
		"name": {"Grace"}, "email": {"grace@example.com"}, "message": {"Hello!"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/#contact", rec.Header().Get(echo.HeaderLocation))

	rec = br.do(http.MethodPost, "/contact/", url.Values{
		"name": {"Grace"}, "email": {"nope"}, "message": {"Hello!"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter a valid email address.")

	msgs, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Grace", msgs[0].Name)
}

func TestSitemapAndFeedListBlogs(t *testing.T) {
	be := newBackend(t)
	be.set(func(b *backend) {
		b.blogs = `[{"_id":"1","title":"Hello Go","slug":"hello-go","excerpt":"Intro","publishedAt":"2024-03-01T10:00:00Z"}]`
	})
	app := newTestApp(t, be.srv.URL)
	br := newBrowser(t, app)

	rec := br.do(http.MethodGet, "/sitemap.xml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<loc>https://example.com/blogs/hello-go/</loc>")
	assert.Contains(t, rec.Body.String(), "<lastmod>2024-03-01</lastmod>")

	rec = br.do(http.MethodGet, "/feed.xml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Hello Go</title>")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/rss+xml")
}

func TestHomeShowsContactFormWhenInboxConfigured(t *testing.T) {
	be := newBackend(t)
	br := newBrowser(t, newTestApp(t, be.srv.URL))
	rec := br.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `action="/contact/"`)

	store, err := contact.NewStore(filepath.Join(t.TempDir(), "contact.db"))
	require.NoError(t, err)
	defer store.Close()
	log := logrus.New()
	log.SetOutput(io.Discard)
	app := newTestApp(t, be.srv.URL, folio.WithContact(contact.NewService(store, nil, log)))

	rec = newBrowser(t, app).do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/contact/"`)
}

func TestForbiddenWriteKeepsAdminSignedIn(t *testing.T) {
	be := newBackend(t)
	be.set(func(b *backend) { b.blogs = `[{"_id":"123","title":"Kept","slug":"kept"}]` })
	app := newTestApp(t, be.srv.URL)
	br := newBrowser(t, app)
	require.Equal(t, http.StatusSeeOther, br.login("ada@example.com", "secret").Code)
	be.set(func(b *backend) { b.forbid = true })

	rec := br.do(http.MethodPost, "/dashboard/blogs/123/delete/", url.Values{})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Not allowed to change this content")
	assert.Contains(t, body, `data-id="123"`)
	assert.NotContains(t, body, "Your session has expired")
	_, hasSession := br.cookies["folio_session"]
	assert.True(t, hasSession)

	rec = br.do(http.MethodGet, "/dashboard/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCustomRoutesAreRegistered(t *testing.T) {
	be := newBackend(t)
	app := newTestApp(t, be.srv.URL, folio.WithCustomRoutes(func(a *folio.App) {
		a.Echo.GET("/uses/", func(c echo.Context) error {
			return c.String(http.StatusOK, "editor: vim")
		})
	}))

	rec := newBrowser(t, app).do(http.MethodGet, "/uses/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "editor: vim", rec.Body.String())
}

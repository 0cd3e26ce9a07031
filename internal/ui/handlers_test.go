package ui

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mgruber/texpad/internal/config"
	"github.com/mgruber/texpad/internal/host"
)

// stubBackend is a canned-response host for handler tests.
type stubBackend struct {
	openResult *host.FileInfo
	compileRes *host.BuildResult
	dataURL    string
	debugText  string
}

func (b *stubBackend) OpenFile(ctx context.Context) (*host.FileInfo, error) {
	return b.openResult, nil
}
func (b *stubBackend) SaveFile(ctx context.Context, content string) error { return nil }
func (b *stubBackend) SaveFileAs(ctx context.Context, content string) (*host.FileInfo, error) {
	return nil, nil
}
func (b *stubBackend) InitWorkspace(ctx context.Context) (string, error) {
	return "/home/user/.local/share/texpad", nil
}
func (b *stubBackend) Compile(ctx context.Context) (*host.BuildResult, error) {
	return b.compileRes, nil
}
func (b *stubBackend) CheckRequirements(ctx context.Context) (*host.RequirementsStatus, error) {
	return &host.RequirementsStatus{PDFLaTeXAvailable: true, AllSatisfied: true}, nil
}
func (b *stubBackend) ReadPDFDataURL(ctx context.Context, path string) (string, error) {
	return b.dataURL, nil
}
func (b *stubBackend) DebugInfo(ctx context.Context) (string, error) { return b.debugText, nil }

func testServer(t *testing.T, backend Backend) *Server {
	t.Helper()
	cfg := config.Config{
		Addr:            "127.0.0.1:0",
		DevOrigin:       "http://localhost:5173",
		AutosaveEnabled: false,
		AutosaveDelayMS: 1000,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(cfg, backend, log)
	t.Cleanup(srv.registry.CloseAll)
	return srv
}

// startSession hits the page once to obtain a session cookie.
func startSession(t *testing.T, router chi.Router) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("page render: %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatal("page did not set a session cookie")
	return nil
}

func doJSON(router chi.Router, method, path string, cookie *http.Cookie, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPageCreatesSessionAndRendersChooser(t *testing.T) {
	srv := testServer(t, &stubBackend{})
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `data-phase="chooser"`) {
		t.Fatalf("satisfied requirements should land on the chooser:\n%s", body)
	}
}

func TestStateRequiresSession(t *testing.T) {
	srv := testServer(t, &stubBackend{})
	router := srv.Router()

	rec := doJSON(router, http.MethodGet, "/api/state", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %d", rec.Code)
	}
}

func TestOpenDirtyConfirmFlow(t *testing.T) {
	backend := &stubBackend{
		openResult: &host.FileInfo{Path: "/tmp/cv.tex", Name: "cv.tex", Content: "opened"},
	}
	srv := testServer(t, backend)
	router := srv.Router()
	cookie := startSession(t, router)

	// Start a blank document and dirty it.
	if rec := doJSON(router, http.MethodPost, "/api/file/new", cookie, "{}"); rec.Code != http.StatusOK {
		t.Fatalf("new: %d %s", rec.Code, rec.Body.String())
	}
	if rec := doJSON(router, http.MethodPost, "/api/edit", cookie, `{"content":"unsaved"}`); rec.Code != http.StatusOK {
		t.Fatalf("edit: %d", rec.Code)
	}

	// Unconfirmed open is rejected with a confirmation request.
	rec := doJSON(router, http.MethodPost, "/api/file/open", cookie, "{}")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d %s", rec.Code, rec.Body.String())
	}
	var conflict struct {
		ConfirmRequired bool `json:"confirm_required"`
	}
	json.Unmarshal(rec.Body.Bytes(), &conflict)
	if !conflict.ConfirmRequired {
		t.Fatalf("expected confirm_required, got %s", rec.Body.String())
	}

	// The document is unchanged after declining.
	rec = doJSON(router, http.MethodGet, "/api/state", cookie, "")
	var st stateResponse
	json.Unmarshal(rec.Body.Bytes(), &st)
	if !st.Dirty || st.FilePath != "" {
		t.Fatalf("declined open must change nothing: %+v", st)
	}

	// Confirming proceeds.
	rec = doJSON(router, http.MethodPost, "/api/file/open", cookie, `{"confirm":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirmed open: %d %s", rec.Code, rec.Body.String())
	}
	json.Unmarshal(rec.Body.Bytes(), &st)
	if st.FileName != "cv.tex" || st.Dirty {
		t.Fatalf("expected clean opened file, got %+v", st)
	}
}

func TestBuildReturnsPreviewState(t *testing.T) {
	backend := &stubBackend{
		openResult: &host.FileInfo{Path: "/tmp/cv.tex", Name: "cv.tex", Content: "x"},
		compileRes: &host.BuildResult{Success: true, PDFPath: "/tmp/cv.pdf", DurationMS: 300},
		dataURL:    "data:application/pdf;base64,JVBERi0=",
	}
	srv := testServer(t, backend)
	router := srv.Router()
	cookie := startSession(t, router)

	doJSON(router, http.MethodPost, "/api/file/open", cookie, "{}")
	rec := doJSON(router, http.MethodPost, "/api/build", cookie, "{}")
	if rec.Code != http.StatusOK {
		t.Fatalf("build: %d %s", rec.Code, rec.Body.String())
	}

	var st stateResponse
	json.Unmarshal(rec.Body.Bytes(), &st)
	if st.BuildStatus != "success" || st.PreviewDataURL == "" {
		t.Fatalf("expected successful build with preview, got %+v", st)
	}
}

func TestBuildFailureSurfacesLogPanel(t *testing.T) {
	backend := &stubBackend{
		openResult: &host.FileInfo{Path: "/tmp/cv.tex", Name: "cv.tex", Content: "x"},
		compileRes: &host.BuildResult{Success: false, Log: "! error", ErrorMessage: "Compilation failed"},
	}
	srv := testServer(t, backend)
	router := srv.Router()
	cookie := startSession(t, router)

	doJSON(router, http.MethodPost, "/api/file/open", cookie, "{}")
	rec := doJSON(router, http.MethodPost, "/api/build", cookie, "{}")
	if rec.Code != http.StatusOK {
		t.Fatalf("compiler failure is still a 200 state update: %d", rec.Code)
	}

	var st stateResponse
	json.Unmarshal(rec.Body.Bytes(), &st)
	if st.BuildStatus != "error" || !st.ShowLogPanel {
		t.Fatalf("expected error state with log panel, got %+v", st)
	}
}

func TestBuildWithoutFileIsBadRequest(t *testing.T) {
	srv := testServer(t, &stubBackend{})
	router := srv.Router()
	cookie := startSession(t, router)

	doJSON(router, http.MethodPost, "/api/file/new", cookie, "{}")
	rec := doJSON(router, http.MethodPost, "/api/build", cookie, "{}")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for build with no file, got %d", rec.Code)
	}
}

func TestAutosaveToggle(t *testing.T) {
	srv := testServer(t, &stubBackend{})
	router := srv.Router()
	cookie := startSession(t, router)

	rec := doJSON(router, http.MethodPost, "/api/autosave", cookie, `{"enabled":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("autosave toggle: %d", rec.Code)
	}
	var st stateResponse
	json.Unmarshal(rec.Body.Bytes(), &st)
	if !st.AutosaveEnabled {
		t.Fatalf("expected autosave enabled, got %+v", st)
	}
}

func TestDebugPassthrough(t *testing.T) {
	srv := testServer(t, &stubBackend{debugText: "pdflatex found in PATH: /usr/bin/pdflatex"})
	router := srv.Router()
	cookie := startSession(t, router)

	rec := doJSON(router, http.MethodGet, "/api/debug", cookie, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("debug: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pdflatex found") {
		t.Fatalf("expected debug text, got %q", rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	srv := testServer(t, &stubBackend{})
	router := srv.Router()

	rec := doJSON(router, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("healthz: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRegistrySweepClosesIdleSessions(t *testing.T) {
	srv := testServer(t, &stubBackend{})

	id, _ := srv.registry.Create()
	// Backdate the session beyond the idle TTL.
	srv.registry.mu.Lock()
	srv.registry.sessions[id].lastSeen = time.Now().Add(-2 * sessionIdleTTL)
	srv.registry.mu.Unlock()

	if n := srv.registry.Sweep(); n != 1 {
		t.Fatalf("expected one swept session, got %d", n)
	}
	if srv.registry.Get(id) != nil {
		t.Fatal("swept session must be gone")
	}
}

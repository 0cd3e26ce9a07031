package ui

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mgruber/texpad/internal/editor"
	"github.com/mgruber/texpad/internal/host"
	"github.com/mgruber/texpad/internal/view"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// stateResponse is the JSON snapshot the page script re-renders from.
type stateResponse struct {
	Phase           editor.Phase             `json:"phase"`
	Degraded        bool                     `json:"degraded"`
	Requirements    *host.RequirementsStatus `json:"requirements,omitempty"`
	WorkspaceRoot   string                   `json:"workspace_root,omitempty"`
	FileName        string                   `json:"file_name"`
	FilePath        string                   `json:"file_path"`
	Dirty           bool                     `json:"dirty"`
	BuildStatus     editor.BuildStatus       `json:"build_status"`
	LastBuild       *host.BuildResult        `json:"last_build,omitempty"`
	PreviewDataURL  string                   `json:"preview_data_url,omitempty"`
	ShowLogPanel    bool                     `json:"show_log_panel"`
	AutosaveEnabled bool                     `json:"autosave_enabled"`
	Notice          string                   `json:"notice,omitempty"`
}

func stateOf(sess *editor.Session) stateResponse {
	s := sess.Snapshot()
	return stateResponse{
		Phase:           s.Phase,
		Degraded:        s.Degraded,
		Requirements:    s.Requirements,
		WorkspaceRoot:   s.WorkspaceRoot,
		FileName:        s.FileName,
		FilePath:        s.FilePath,
		Dirty:           s.Dirty,
		BuildStatus:     s.BuildStatus,
		LastBuild:       s.LastBuild,
		PreviewDataURL:  s.PreviewDataURL,
		ShowLogPanel:    s.ShowLogPanel,
		AutosaveEnabled: s.AutosaveEnabled,
		Notice:          s.Notice,
	}
}

// writeActionError maps session errors onto HTTP statuses. Confirmation
// requests are 409 with confirm_required so the page can prompt and retry.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, editor.ErrUnsavedChanges):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":            err.Error(),
			"confirm_required": true,
		})
	case errors.Is(err, editor.ErrCompileInFlight):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, editor.ErrNoFileOpen):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
}

// handlePage renders the full editor page, creating a session for new
// windows. Session startup runs synchronously so the first render already
// knows whether requirements are satisfied.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var sess *editor.Session
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		sess = s.registry.Get(cookie.Value)
	}
	if sess == nil {
		id, created := s.registry.Create()
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		created.Start(r.Context())
		sess = created
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.RenderPage(w, sess.Snapshot()); err != nil {
		s.log.Error("render page", "error", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateOf(sessionFrom(r)))
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	sess := sessionFrom(r)
	sess.Edit(req.Content)
	writeJSON(w, http.StatusOK, stateOf(sess))
}

func confirmed(r *http.Request) bool {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	return req.Confirm
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.NewBlank(confirmed(r)); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.UseTemplate(confirmed(r)); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.OpenFile(r.Context(), confirmed(r)); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.Save(r.Context()); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleSaveAs(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.SaveAs(r.Context()); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.Compile(r.Context()); err != nil {
		// The build status already reflects the failure; only guard errors
		// and transport failures surface here.
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleRecheck(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.RecheckRequirements(r.Context()); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.ContinueAnyway()
	writeJSON(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleAutosave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	sess := sessionFrom(r)
	sess.SetAutosaveEnabled(req.Enabled)
	writeJSON(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleLogPanel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Visible bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	sess := sessionFrom(r)
	sess.ShowLogPanel(req.Visible)
	writeJSON(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleDismissNotice(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.ClearNotice()
	writeJSON(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	info, err := s.backend.DebugInfo(r.Context())
	if err != nil {
		writeActionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(info))
}

// Package editor owns the state of one editing session: the open document,
// its dirty flag, the startup phase machine, build status, and the debounced
// autosave controller. All privileged work goes through the host client.
package editor

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mgruber/texpad/internal/host"
)

//go:embed template.tex
var templateTex string

// Phase is the top-level startup flow state.
type Phase string

const (
	PhaseChecking Phase = "checking-requirements"
	PhaseLanding  Phase = "landing"
	PhaseChooser  Phase = "chooser"
	PhaseEditing  Phase = "editing"
)

// BuildStatus is the compile cycle state shown in the status bar.
type BuildStatus string

const (
	BuildIdle    BuildStatus = "idle"
	BuildRunning BuildStatus = "building"
	BuildSuccess BuildStatus = "success"
	BuildError   BuildStatus = "error"
)

var (
	// ErrUnsavedChanges is returned when an action would discard a dirty
	// document and the caller did not confirm.
	ErrUnsavedChanges = errors.New("document has unsaved changes")
	// ErrCompileInFlight rejects a compile while one is still running.
	ErrCompileInFlight = errors.New("a build is already running")
	// ErrNoFileOpen is returned for operations that need a backing file.
	ErrNoFileOpen = errors.New("no file is currently open")
)

// Backend is the slice of the host client the session needs.
type Backend interface {
	OpenFile(ctx context.Context) (*host.FileInfo, error)
	SaveFile(ctx context.Context, content string) error
	SaveFileAs(ctx context.Context, content string) (*host.FileInfo, error)
	InitWorkspace(ctx context.Context) (string, error)
	Compile(ctx context.Context) (*host.BuildResult, error)
	CheckRequirements(ctx context.Context) (*host.RequirementsStatus, error)
	ReadPDFDataURL(ctx context.Context, path string) (string, error)
}

// Options configures a new session.
type Options struct {
	AutosaveEnabled bool
	AutosaveDelay   time.Duration
}

// Session is the application shell state for one editor window.
type Session struct {
	backend  Backend
	log      *slog.Logger
	autosave *Autosave

	mu            sync.Mutex
	phase         Phase
	degraded      bool
	requirements  *host.RequirementsStatus
	workspaceRoot string

	filePath     string
	fileName     string
	content      string
	savedContent string

	buildStatus    BuildStatus
	lastBuild      *host.BuildResult
	previewDataURL string
	showLogPanel   bool

	autosaveEnabled bool
	notice          string
}

// ViewState is an immutable snapshot of the session for rendering.
type ViewState struct {
	Phase         Phase
	Degraded      bool
	Requirements  *host.RequirementsStatus
	WorkspaceRoot string

	FilePath string
	FileName string
	Content  string
	Dirty    bool

	BuildStatus    BuildStatus
	LastBuild      *host.BuildResult
	PreviewDataURL string
	ShowLogPanel   bool

	AutosaveEnabled bool
	Notice          string
}

func NewSession(backend Backend, opts Options, log *slog.Logger) *Session {
	s := &Session{
		backend:         backend,
		log:             log,
		phase:           PhaseChecking,
		buildStatus:     BuildIdle,
		autosaveEnabled: opts.AutosaveEnabled,
	}
	s.autosave = NewAutosave(s.persistAutosave, opts.AutosaveDelay, opts.AutosaveEnabled, log)
	return s
}

// persistAutosave is the save action handed to the autosave controller. A
// successful write also clears the dirty flag for the content it persisted.
func (s *Session) persistAutosave(ctx context.Context, content string) error {
	if err := s.backend.SaveFile(ctx, content); err != nil {
		return err
	}
	s.mu.Lock()
	s.savedContent = content
	s.mu.Unlock()
	return nil
}

// Start runs the startup sequence: check requirements, and when satisfied
// initialize the workspace and land on the startup chooser. Unsatisfied or
// unreachable requirements lead to the landing page instead.
func (s *Session) Start(ctx context.Context) {
	status, err := s.backend.CheckRequirements(ctx)
	if err != nil {
		s.log.Warn("requirements check failed", "error", err)
		s.mu.Lock()
		s.requirements = nil
		s.phase = PhaseLanding
		s.notice = "Could not check system requirements: " + err.Error()
		s.mu.Unlock()
		return
	}
	if !status.AllSatisfied {
		s.mu.Lock()
		s.requirements = status
		s.phase = PhaseLanding
		s.mu.Unlock()
		return
	}

	root, err := s.backend.InitWorkspace(ctx)
	if err != nil {
		// Workspace init is best effort; editing still works.
		s.log.Warn("workspace init failed", "error", err)
	}

	s.mu.Lock()
	s.requirements = status
	s.workspaceRoot = root
	s.phase = PhaseChooser
	s.mu.Unlock()
}

// RecheckRequirements refreshes the requirements snapshot on demand. If the
// engine became available while on the landing page, move on to the chooser.
func (s *Session) RecheckRequirements(ctx context.Context) error {
	status, err := s.backend.CheckRequirements(ctx)
	if err != nil {
		return err
	}

	var initRoot string
	if status.AllSatisfied {
		if root, werr := s.backend.InitWorkspace(ctx); werr != nil {
			s.log.Warn("workspace init failed", "error", werr)
		} else {
			initRoot = root
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requirements = status
	if initRoot != "" {
		s.workspaceRoot = initRoot
	}
	if status.AllSatisfied && s.phase == PhaseLanding {
		s.phase = PhaseChooser
		s.degraded = false
	}
	return nil
}

// ContinueAnyway leaves the landing page with degraded functionality.
func (s *Session) ContinueAnyway() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseLanding {
		return
	}
	s.degraded = true
	s.phase = PhaseChooser
}

// NewBlank starts editing an empty unsaved document. A dirty document must
// be confirmed away first.
func (s *Session) NewBlank(confirm bool) error {
	return s.replaceDocument("", confirm)
}

// UseTemplate starts editing the bundled resume template as an unsaved
// document.
func (s *Session) UseTemplate(confirm bool) error {
	return s.replaceDocument(templateTex, confirm)
}

func (s *Session) replaceDocument(content string, confirm bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirtyLocked() && !confirm {
		return ErrUnsavedChanges
	}
	s.filePath = ""
	s.fileName = "Untitled"
	s.content = content
	s.savedContent = content
	s.phase = PhaseEditing
	s.resetBuildLocked()
	s.autosave.Update(content, "")
	return nil
}

// OpenFile asks the host to show its open dialog and loads the picked file.
// A dirty document must be confirmed away first; cancellation in the dialog
// leaves everything untouched.
func (s *Session) OpenFile(ctx context.Context, confirm bool) error {
	s.mu.Lock()
	if s.dirtyLocked() && !confirm {
		s.mu.Unlock()
		return ErrUnsavedChanges
	}
	s.mu.Unlock()

	info, err := s.backend.OpenFile(ctx)
	if err != nil {
		return err
	}
	if info == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.filePath = info.Path
	s.fileName = info.Name
	s.content = info.Content
	s.savedContent = info.Content
	s.phase = PhaseEditing
	s.resetBuildLocked()
	s.autosave.Update(info.Content, info.Path)
	return nil
}

// Edit records a content change from the editor pane.
func (s *Session) Edit(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseEditing {
		return
	}
	s.content = content
	s.autosave.Update(content, s.filePath)
}

// Save persists the current content. An unsaved document falls through to
// the save-as dialog.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseEditing {
		s.mu.Unlock()
		return ErrNoFileOpen
	}
	content := s.content
	path := s.filePath
	s.mu.Unlock()

	if path == "" {
		return s.SaveAs(ctx)
	}

	if err := s.backend.SaveFile(ctx, content); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.savedContent = content
	s.autosave.MarkSaved(content)
	return nil
}

// SaveAs asks the host for a destination and persists the current content
// there. Cancellation leaves the document untouched.
func (s *Session) SaveAs(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseEditing {
		s.mu.Unlock()
		return ErrNoFileOpen
	}
	content := s.content
	s.mu.Unlock()

	info, err := s.backend.SaveFileAs(ctx, content)
	if err != nil {
		return err
	}
	if info == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.filePath = info.Path
	s.fileName = info.Name
	s.savedContent = content
	s.autosave.Update(s.content, info.Path)
	s.autosave.MarkSaved(content)
	return nil
}

// Compile runs the build flow: save first when dirty (the host compiles the
// last-saved document), then compile, then fetch the PDF artifact for the
// preview pane. Only one compile may be in flight per session.
func (s *Session) Compile(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseEditing || s.filePath == "" {
		s.mu.Unlock()
		return ErrNoFileOpen
	}
	if s.buildStatus == BuildRunning {
		s.mu.Unlock()
		return ErrCompileInFlight
	}
	s.buildStatus = BuildRunning
	content := s.content
	dirty := s.dirtyLocked()
	s.mu.Unlock()

	if dirty {
		if err := s.backend.SaveFile(ctx, content); err != nil {
			s.finishBuild(&host.BuildResult{
				Success:      false,
				ErrorMessage: "save before build failed: " + err.Error(),
			}, "")
			return err
		}
		s.mu.Lock()
		s.savedContent = content
		s.autosave.MarkSaved(content)
		s.mu.Unlock()
	}

	res, err := s.backend.Compile(ctx)
	if err != nil {
		s.finishBuild(&host.BuildResult{Success: false, ErrorMessage: err.Error()}, "")
		return err
	}

	preview := ""
	if res.Success && res.PDFPath != "" {
		url, perr := s.backend.ReadPDFDataURL(ctx, res.PDFPath)
		if perr != nil {
			s.log.Warn("pdf preview fetch failed", "path", res.PDFPath, "error", perr)
			s.setNotice("Built successfully, but the preview could not be loaded.")
		} else {
			preview = url
		}
	}
	s.finishBuild(res, preview)
	return nil
}

func (s *Session) finishBuild(res *host.BuildResult, preview string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastBuild = res
	if res.Success {
		s.buildStatus = BuildSuccess
		s.showLogPanel = false
		if preview != "" {
			s.previewDataURL = preview
		}
	} else {
		s.buildStatus = BuildError
		s.showLogPanel = true
	}
}

// SetAutosaveEnabled toggles the autosave controller.
func (s *Session) SetAutosaveEnabled(enabled bool) {
	s.mu.Lock()
	s.autosaveEnabled = enabled
	s.mu.Unlock()
	s.autosave.SetEnabled(enabled)
}

// ShowLogPanel toggles the compiler log panel.
func (s *Session) ShowLogPanel(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showLogPanel = show
}

func (s *Session) setNotice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = msg
}

// ClearNotice dismisses the current notification.
func (s *Session) ClearNotice() {
	s.setNotice("")
}

// Snapshot returns a copy of the session state for rendering.
func (s *Session) Snapshot() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ViewState{
		Phase:           s.phase,
		Degraded:        s.degraded,
		Requirements:    s.requirements,
		WorkspaceRoot:   s.workspaceRoot,
		FilePath:        s.filePath,
		FileName:        s.fileName,
		Content:         s.content,
		Dirty:           s.dirtyLocked(),
		BuildStatus:     s.buildStatus,
		LastBuild:       s.lastBuild,
		PreviewDataURL:  s.previewDataURL,
		ShowLogPanel:    s.showLogPanel,
		AutosaveEnabled: s.autosaveEnabled,
		Notice:          s.notice,
	}
}

// Close releases the session's timer resources.
func (s *Session) Close() {
	s.autosave.Stop()
}

func (s *Session) dirtyLocked() bool {
	return s.content != s.savedContent
}

func (s *Session) resetBuildLocked() {
	s.buildStatus = BuildIdle
	s.lastBuild = nil
	s.previewDataURL = ""
	s.showLogPanel = false
}

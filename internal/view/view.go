// Package view renders the presentational components of the editor. Every
// component is a pure function from props to markup; no component talks to
// the host or mutates session state.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/mgruber/texpad/internal/editor"
	"github.com/mgruber/texpad/internal/host"
)

//go:embed templates/*.html
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// ToolbarProps drive the toolbar buttons.
type ToolbarProps struct {
	CanSave         bool
	CanBuild        bool
	Building        bool
	AutosaveEnabled bool
	Degraded        bool
}

// StatusBarProps drive the bottom status strip.
type StatusBarProps struct {
	FileName    string
	Dirty       bool
	BuildStatus editor.BuildStatus
	DurationMS  int64
	Workspace   string
}

// EditorProps carry the text surface content.
type EditorProps struct {
	Content string
}

// PreviewProps carry the embedded PDF artifact.
type PreviewProps struct {
	DataURL string
}

// LogPanelProps drive the compiler log panel.
type LogPanelProps struct {
	Visible bool
	Log     string
}

// DiagnosticsProps list structured compiler issues.
type DiagnosticsProps struct {
	Diagnostics []host.Diagnostic
}

// LandingProps drive the requirements failure page.
type LandingProps struct {
	Requirements *host.RequirementsStatus
	Notice       string
}

// ChooserProps drive the startup chooser.
type ChooserProps struct {
	Degraded bool
}

func Toolbar(p ToolbarProps) (template.HTML, error)         { return render("toolbar", p) }
func StatusBar(p StatusBarProps) (template.HTML, error)     { return render("statusbar", p) }
func EditorPane(p EditorProps) (template.HTML, error)       { return render("editor", p) }
func PDFPane(p PreviewProps) (template.HTML, error)         { return render("preview", p) }
func LogPanel(p LogPanelProps) (template.HTML, error)       { return render("logpanel", p) }
func Diagnostics(p DiagnosticsProps) (template.HTML, error) { return render("diagnostics", p) }
func Landing(p LandingProps) (template.HTML, error)         { return render("landing", p) }
func Chooser(p ChooserProps) (template.HTML, error)         { return render("chooser", p) }

func render(name string, props any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, props); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// PageData is the full page composed from rendered components.
type PageData struct {
	Phase       editor.Phase
	Notice      string
	Toolbar     template.HTML
	StatusBar   template.HTML
	Editor      template.HTML
	Preview     template.HTML
	LogPanel    template.HTML
	Diagnostics template.HTML
	Landing     template.HTML
	Chooser     template.HTML
}

// BuildPage maps a session snapshot onto component props and renders each
// component once.
func BuildPage(s editor.ViewState) (PageData, error) {
	data := PageData{Phase: s.Phase, Notice: s.Notice}

	var err error
	switch s.Phase {
	case editor.PhaseLanding:
		data.Landing, err = Landing(LandingProps{Requirements: s.Requirements, Notice: s.Notice})
		return data, err
	case editor.PhaseChooser:
		data.Chooser, err = Chooser(ChooserProps{Degraded: s.Degraded})
		return data, err
	case editor.PhaseEditing:
		// fallthrough below
	default:
		return data, nil
	}

	if data.Toolbar, err = Toolbar(ToolbarProps{
		CanSave:         true,
		CanBuild:        s.FilePath != "" && !s.Degraded,
		Building:        s.BuildStatus == editor.BuildRunning,
		AutosaveEnabled: s.AutosaveEnabled,
		Degraded:        s.Degraded,
	}); err != nil {
		return data, err
	}

	var duration int64
	var logText string
	var diags []host.Diagnostic
	if s.LastBuild != nil {
		duration = s.LastBuild.DurationMS
		logText = s.LastBuild.Log
		diags = s.LastBuild.Diagnostics
		if s.LastBuild.ErrorMessage != "" {
			logText = s.LastBuild.ErrorMessage + "\n\n" + logText
		}
	}

	if data.StatusBar, err = StatusBar(StatusBarProps{
		FileName:    s.FileName,
		Dirty:       s.Dirty,
		BuildStatus: s.BuildStatus,
		DurationMS:  duration,
		Workspace:   s.WorkspaceRoot,
	}); err != nil {
		return data, err
	}
	if data.Editor, err = EditorPane(EditorProps{Content: s.Content}); err != nil {
		return data, err
	}
	if data.Preview, err = PDFPane(PreviewProps{DataURL: s.PreviewDataURL}); err != nil {
		return data, err
	}
	if data.LogPanel, err = LogPanel(LogPanelProps{Visible: s.ShowLogPanel, Log: logText}); err != nil {
		return data, err
	}
	if data.Diagnostics, err = Diagnostics(DiagnosticsProps{Diagnostics: diags}); err != nil {
		return data, err
	}
	return data, nil
}

// RenderPage writes the full editor page for the given snapshot.
func RenderPage(w io.Writer, s editor.ViewState) error {
	data, err := BuildPage(s)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, "page", data)
}

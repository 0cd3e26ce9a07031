package host

// FileInfo describes a file returned from an open or save-as dialog.
type FileInfo struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Severity is the level of a compiler diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic is one structured issue extracted from the compiler log.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
}

// BuildResult is the outcome of one compile request.
type BuildResult struct {
	Success      bool         `json:"success"`
	PDFPath      string       `json:"pdf_path,omitempty"`
	Log          string       `json:"log"`
	DurationMS   int64        `json:"duration_ms"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Diagnostics  []Diagnostic `json:"diagnostics,omitempty"`
}

// RequirementsStatus is a snapshot of whether the typesetting engine is usable.
type RequirementsStatus struct {
	PDFLaTeXAvailable bool   `json:"pdflatex_available"`
	PDFLaTeXPath      string `json:"pdflatex_path,omitempty"`
	AllSatisfied      bool   `json:"all_satisfied"`
}

package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"levelcheck/internal/enrollment"
	"levelcheck/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

// acceptedUploads is the accept attribute of the file input.
const acceptedUploads = ".xlsx,.xlsm,.xltx,.xltm"

var modeLabels = map[enrollment.Mode]string{
	enrollment.ModeLevelUps:       "Level-ups",
	enrollment.ModeCurrentLevels:  "Current levels",
	enrollment.ModeAssessmentsDue: "Assessments due",
}

type reportOption struct {
	Value    string
	Label    string
	Selected bool
}

type indexPage struct {
	Title     string
	Accept    string
	Today     string
	MaxUpload string
	Reports   []reportOption
}

type resultsPage struct {
	Title   string
	Heading string
	Empty   string
	Window  *enrollment.AssessmentWindow
	Lines   []string
	Rows    int
	Skipped int
}

type messagePage struct {
	Title    string
	Message  string
	LinkText string
	IsError  bool
}

// UploadHandler serves the HTML upload form and result pages
type UploadHandler struct {
	service   ReportServiceInterface
	templates *template.Template
	logger    *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(service ReportServiceInterface, logger *slog.Logger) (*UploadHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	return &UploadHandler{
		service:   service,
		templates: tmpl,
		logger:    logger.With(slog.String("handler", "upload")),
	}, nil
}

// Index handles GET /
func (h *UploadHandler) Index(w http.ResponseWriter, r *http.Request) {
	page := indexPage{
		Title:     "Student Level-Up Checker",
		Accept:    acceptedUploads,
		Today:     h.service.Today().String(),
		MaxUpload: formatBytes(h.service.MaxUploadBytes()),
	}
	for _, m := range enrollment.Modes {
		page.Reports = append(page.Reports, reportOption{
			Value:    string(m),
			Label:    modeLabels[m],
			Selected: m == enrollment.ModeLevelUps,
		})
	}
	h.renderPage(w, r, http.StatusOK, "index", page)
}

// Upload handles POST /upload
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.renderError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			h.renderNoFile(w, r)
			return
		}
		h.renderError(w, r, err)
		return
	}
	defer file.Close()

	mode := r.FormValue("report")
	if mode == "" {
		mode = string(enrollment.ModeLevelUps)
	}

	report, err := h.service.Generate(ctx, services.ReportInput{
		Mode:     mode,
		Today:    r.FormValue("today"),
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
		Source:   services.SourceUpload,
	})
	if errors.Is(err, services.ErrNoFile) {
		h.renderNoFile(w, r)
		return
	}
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.renderPage(w, r, http.StatusOK, "results", resultsPage{
		Title:   "Results",
		Heading: report.Mode.Title(),
		Empty:   report.Mode.EmptyMessage(),
		Window:  report.Window,
		Lines:   report.Lines,
		Rows:    report.Rows,
		Skipped: report.Skipped,
	})
}

func (h *UploadHandler) renderNoFile(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusBadRequest, "message", messagePage{
		Title:    "No file selected",
		Message:  "No file selected.",
		LinkText: "Try again",
	})
}

func (h *UploadHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := pageMessage(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "upload failed",
		slog.String("error", err.Error()),
		slog.Int("status", status))

	h.renderPage(w, r, status, "message", messagePage{
		Title:    "Upload failed",
		Message:  message,
		LinkText: "Try again",
		IsError:  true,
	})
}

// renderPage executes into a buffer so a template error never leaves a
// half-written page behind.
func (h *UploadHandler) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page",
			slog.String("template", name),
			slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// formatBytes renders a size limit for humans ("10 MB"), empty when unlimited.
func formatBytes(n int64) string {
	switch {
	case n <= 0:
		return ""
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<10:
		return strings.TrimSuffix(fmt.Sprintf("%.1f", float64(n)/(1<<10)), ".0") + " KB"
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

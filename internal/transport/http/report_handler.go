package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"levelcheck/internal/enrollment"
	apierrors "levelcheck/internal/errors"
	"levelcheck/internal/exporter"
	"levelcheck/internal/infrastructure"
	"levelcheck/internal/middleware"
	"levelcheck/internal/services"
	"levelcheck/internal/validation"
)

// ReportInfo describes one available report.
type ReportInfo struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	EmptyMessage string `json:"empty_message"`
}

// ReportHandler handles the JSON and CSV report API with RFC 7807 errors
type ReportHandler struct {
	service      ReportServiceInterface
	validator    *validation.RequestValidator
	csv          *exporter.CSVWriter
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		validator:    validation.NewRequestValidator(),
		csv:          exporter.NewCSVWriter(logger),
		logger:       infrastructure.WithComponent(logger, "report_handler"),
		errorHandler: errorHandler,
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListReports)
	r.With(middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data")).
		Post("/{mode}", h.GenerateReport)

	return r
}

// ListReports handles GET /api/reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports := make([]ReportInfo, 0, len(enrollment.Modes))
	for _, m := range enrollment.Modes {
		reports = append(reports, ReportInfo{
			Name:         string(m),
			Title:        m.Title(),
			EmptyMessage: m.EmptyMessage(),
		})
	}
	render.JSON(w, r, map[string]interface{}{
		"reports": reports,
		"today":   h.service.Today(),
	})
}

// GenerateReport handles POST /api/reports/{mode}
func (h *ReportHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mode := chi.URLParam(r, "mode")

	if _, err := enrollment.ParseMode(mode); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.UnknownReportError(mode))
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.errorHandler.HandleError(w, r, multipartError(err))
		return
	}

	req := validation.ReportRequest{
		Mode:   mode,
		Today:  r.FormValue("today"),
		Format: r.URL.Query().Get("format"),
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.errorHandler.HandleError(w, r, apierrors.ErrNoFile)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer file.Close()

	report, err := h.service.Generate(ctx, services.ReportInput{
		Mode:     req.Mode,
		Today:    req.Today,
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
		Source:   services.SourceAPI,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}

	if req.Format == string(exporter.FormatCSV) {
		w.Header().Set("Content-Type", exporter.FormatCSV.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.Filename(report, exporter.FormatCSV)))
		w.WriteHeader(http.StatusOK)
		if err := h.csv.WriteReport(w, report, true); err != nil {
			// Headers are gone; all that is left is to log.
			h.logger.ErrorContext(ctx, "failed to stream report CSV",
				slog.String("mode", req.Mode),
				slog.String("error", err.Error()))
		}
		return
	}

	render.JSON(w, r, report)
}

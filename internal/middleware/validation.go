package middleware

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	apierrors "levelcheck/internal/errors"
)

// multipartOverhead leaves room for multipart boundaries and form fields
// around the uploaded file.
const multipartOverhead = 64 * 1024

// BodyLimit rejects requests whose declared body exceeds maxBytes plus
// multipart overhead and caps the rest with http.MaxBytesReader.
func BodyLimit(maxBytes int64, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) func(next http.Handler) http.Handler {
	limit := maxBytes + multipartOverhead
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes <= 0 || r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > limit {
				logger.WarnContext(r.Context(), "request body too large",
					slog.String("path", r.URL.Path),
					slog.Int64("content_length", r.ContentLength),
					slog.Int64("limit", limit),
				)
				errorHandler.HandleError(w, r, apierrors.NewWithDetails(
					http.StatusRequestEntityTooLarge,
					"FILE_TOO_LARGE",
					"Uploaded file is too large",
					map[string]interface{}{
						"max_size": maxBytes,
						"size":     r.ContentLength,
					},
				))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// MaxBody caps the request body without rejecting up front, so HTML
// handlers can render their own page for *http.MaxBytesError.
func MaxBody(maxBytes int64) func(next http.Handler) http.Handler {
	limit := maxBytes + multipartOverhead
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeValidator ensures requests have proper content type
func ContentTypeValidator(errorHandler *apierrors.ErrorHandler, contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				errorHandler.HandleError(w, r, apierrors.New(
					http.StatusBadRequest,
					"MISSING_CONTENT_TYPE",
					"Content-Type header is required",
				))
				return
			}

			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil {
				errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(fmt.Errorf("malformed Content-Type: %w", err)))
				return
			}

			for _, allowed := range contentTypes {
				if strings.EqualFold(mediaType, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusUnsupportedMediaType,
				"UNSUPPORTED_MEDIA_TYPE",
				"Unsupported content type",
				map[string]interface{}{
					"content_type": mediaType,
					"allowed":      contentTypes,
				},
			))
		})
	}
}

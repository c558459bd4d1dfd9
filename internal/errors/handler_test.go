package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelcheck/internal/infrastructure"
	"levelcheck/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNewErrorHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	handler := NewErrorHandler(logger, true)
	assert.NotNil(t, handler)
	assert.True(t, handler.includeStack)
	assert.NotNil(t, handler.logger)
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{
			name:       "api error",
			err:        ErrNoFile,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeNoFile,
			wantCode:   "NO_FILE",
		},
		{
			name:       "wrapped api error",
			err:        fmt.Errorf("reading upload: %w", UnreadableWorkbookError(assert.AnError)),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeUnreadableWorkbook,
			wantCode:   "UNREADABLE_WORKBOOK",
		},
		{
			name:       "unknown report",
			err:        UnknownReportError("levels"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeUnknownReport,
			wantCode:   "UNKNOWN_REPORT",
		},
		{
			name:       "unsupported file",
			err:        ErrUnsupportedFile,
			wantStatus: http.StatusUnsupportedMediaType,
			wantType:   TypeUnsupportedFile,
			wantCode:   "UNSUPPORTED_FILE",
		},
		{
			name:       "max bytes exceeded",
			err:        fmt.Errorf("parse form: %w", &http.MaxBytesError{Limit: 1024}),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("read roster: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "plain error",
			err:        assert.AnError,
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodPost, "/api/reports/level-ups", nil)
			req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-1"))
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/reports/level-ups", body["instance"])
			assert.Equal(t, "trace-1", body["trace_id"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
			assert.NotContains(t, body, "stack")
			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	rec := httptest.NewRecorder()

	NewErrorHandler(logger, false).HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, rec.Body.Len())
	assert.Zero(t, logs.Count())
}

func TestErrorHandler_StackOnlyForServerErrors(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), assert.AnError)
	assert.Contains(t, decodeProblem(t, rec), "stack")

	rec = httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), ErrNoFile)
	assert.NotContains(t, decodeProblem(t, rec), "stack")
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/upload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "DELETE")
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	panicky := RecoveryMiddleware(h)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	panicky.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, TypeInternal, decodeProblem(t, rec)["type"])
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
	assert.False(t, strings.Contains(rec.Body.String(), "boom"), "panic value must not leak without includeStack")
}

func TestRecoveryMiddleware_ReraisesAbort(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	aborting := RecoveryMiddleware(NewErrorHandler(logger, false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		aborting.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

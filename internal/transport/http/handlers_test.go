package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"levelcheck/internal/enrollment"
	apierrors "levelcheck/internal/errors"
	"levelcheck/internal/roster"
	"levelcheck/internal/services"
	"levelcheck/internal/shared/testutil"
	"levelcheck/internal/validation"
)

// MockReportService implements ReportServiceInterface for testing
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Generate(ctx context.Context, in services.ReportInput) (enrollment.Report, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(enrollment.Report), args.Error(1)
}

func (m *MockReportService) Today() enrollment.CalendarDate {
	return m.Called().Get(0).(enrollment.CalendarDate)
}

func (m *MockReportService) MaxUploadBytes() int64 {
	return m.Called().Get(0).(int64)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newReportService wires the real service to the excelize roster reader,
// evaluated at noon UTC on 2024-07-20 with a 1 MiB upload limit.
func newReportService(t *testing.T) *services.ReportService {
	t.Helper()
	logger := quietLogger()
	svc := services.NewReportService(
		roster.NewReader(roster.DefaultColumns(), logger),
		validation.NewFileValidator(logger, 1<<20),
		enrollment.DefaultOptions(),
		time.UTC,
		logger,
	)
	return svc.WithClock(func() time.Time { return time.Date(2024, time.July, 20, 12, 0, 0, 0, time.UTC) })
}

func newErrorHandler() *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(quietLogger(), false)
}

// multipartBody builds a form with the given fields and, when filename is
// not empty, a file part.
func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func sampleWorkbook(t *testing.T) []byte {
	t.Helper()
	return testutil.RosterWorkbook(t, testutil.SampleStudents()...)
}

func postForm(t *testing.T, h http.Handler, target string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, fields, filename, content)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

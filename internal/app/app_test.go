package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelcheck/internal/config"
	"levelcheck/internal/shared/testutil"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Security.RateLimit.Enabled = false
	cfg.Report.Timezone = "UTC"
	cfg.Telemetry.TraceExporter = "none"
	cfg.Telemetry.MetricExporter = "prometheus"
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := NewApplication(cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.OTelProviders.Shutdown(context.Background()) })
	return app
}

func uploadRequest(t *testing.T, target string, fields map[string]string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("file", "roster.xlsx")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(app *Application, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestNewApplication(t *testing.T) {
	app := newTestApp(t, testConfig())

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Services.Reports)
	assert.NotNil(t, app.Services.Health)
	assert.NotNil(t, app.Metrics)
	assert.Equal(t, ":0", app.Server.Addr)
	assert.Equal(t, 15*time.Second, app.Server.ReadTimeout)
}

func TestNewApplication_InitializationFailures(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewApplication(nil, quietLogger())
		assert.Error(t, err)
	})

	t.Run("bad column", func(t *testing.T) {
		cfg := testConfig()
		cfg.Roster.EnrollmentStartColumn = "K1"
		_, err := NewApplication(cfg, quietLogger())
		assert.ErrorContains(t, err, "roster columns")
	})

	t.Run("bad trace exporter", func(t *testing.T) {
		cfg := testConfig()
		cfg.Telemetry.TraceExporter = "jaeger"
		_, err := NewApplication(cfg, quietLogger())
		assert.ErrorContains(t, err, "OpenTelemetry")
	})
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApp(t, testConfig())

	tests := []struct {
		method      string
		path        string
		wantStatus  int
		contentType string
	}{
		{http.MethodGet, "/", http.StatusOK, "text/html; charset=utf-8"},
		{http.MethodGet, "/api/health", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/health/ready", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/health/live", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/version", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/reports", http.StatusOK, "application/json"},
		{http.MethodGet, "/does-not-exist", http.StatusNotFound, "application/json"},
		{http.MethodDelete, "/api/health", http.StatusMethodNotAllowed, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := serve(app, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestApplication_Metrics(t *testing.T) {
	app := newTestApp(t, testConfig())

	req := uploadRequest(t, "/api/reports/level-ups", map[string]string{"today": "2024-07-20"},
		testutil.RosterWorkbook(t, testutil.SampleStudents()...))
	require.Equal(t, http.StatusOK, serve(app, req).Code)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "reports_generated")
	assert.Contains(t, body, "http_requests")
}

func TestApplication_ReportAPI(t *testing.T) {
	app := newTestApp(t, testConfig())
	workbook := testutil.RosterWorkbook(t, testutil.SampleStudents()...)

	rec := serve(app, uploadRequest(t, "/api/reports/level-ups", map[string]string{"today": "2024-07-20"}, workbook))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report struct {
		Mode  string   `json:"mode"`
		Today string   `json:"today"`
		Lines []string `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "level-ups", report.Mode)
	assert.Equal(t, "2024-07-20", report.Today)
	assert.Equal(t, []string{"Ada Lovelace levels up to level 2", "Grace Hopper levels up to level 3"}, report.Lines)

	rec = serve(app, uploadRequest(t, "/api/reports/assessments-due?format=csv", map[string]string{"today": "2024-07-20"}, workbook))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "assessments-due,2024-07-20,2024-05-20,2024-05-26,Ada Lovelace last assessed on 05/20/2024")
}

func TestApplication_UploadPage(t *testing.T) {
	app := newTestApp(t, testConfig())

	req := uploadRequest(t, "/upload", map[string]string{"report": "current-levels", "today": "2024-07-20"},
		testutil.RosterWorkbook(t, testutil.SampleStudents()...))
	rec := serve(app, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h2>Current Levels</h2>")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestApplication_UploadLimits(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxBytes = 1024
	app := newTestApp(t, cfg)

	t.Run("html page over the file limit", func(t *testing.T) {
		req := uploadRequest(t, "/upload", nil, testutil.RosterWorkbook(t, testutil.SampleStudents()...))
		rec := serve(app, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "Uploaded file is too large.")
	})

	t.Run("api body over the request limit", func(t *testing.T) {
		req := uploadRequest(t, "/api/reports/level-ups", nil, make([]byte, 70*1024))
		rec := serve(app, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	})
}

func TestApplication_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.5, Burst: 1}
	app := newTestApp(t, cfg)

	first := serve(app, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	second := serve(app, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "2", second.Header().Get("Retry-After"))

	// Scrapes bypass the limiter
	assert.Equal(t, http.StatusOK, serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)
}

func TestApplication_CORS(t *testing.T) {
	cfg := testConfig()
	cfg.Security.AllowedOrigins = []string{"http://school.example"}
	app := newTestApp(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://school.example")
	rec := serve(app, req)

	assert.Equal(t, "http://school.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestApplication_Serve(t *testing.T) {
	app := newTestApp(t, testConfig())

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/api/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

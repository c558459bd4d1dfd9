package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"levelcheck/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestOTelInitialization tests OpenTelemetry initialization
func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(nil, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	// Tracing is off by default but a tracer is always available
	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)

	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		config  *OTelConfig
		wantErr bool
	}{
		{
			name: "stdout tracing",
			config: &OTelConfig{
				ServiceName: "test", ServiceVersion: "1", Environment: "test",
				TraceExporter: "stdout", MetricExporter: "none", SampleRatio: 1,
			},
		},
		{
			name: "everything disabled",
			config: &OTelConfig{
				ServiceName: "test", ServiceVersion: "1", Environment: "test",
				TraceExporter: "none", MetricExporter: "none",
			},
		},
		{
			name:    "unknown trace exporter",
			config:  &OTelConfig{TraceExporter: "jaeger", MetricExporter: "none"},
			wantErr: true,
		},
		{
			name:    "unknown metric exporter",
			config:  &OTelConfig{TraceExporter: "none", MetricExporter: "statsd"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.config, quietLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, providers.Tracer)
			assert.NotNil(t, providers.Meter)
			assert.NoError(t, providers.Shutdown(context.Background()))
		})
	}
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.TelemetryConfig{
		Environment: "production", TraceExporter: "stdout", MetricExporter: "prometheus", SampleRatio: 0.5,
	})
	assert.Equal(t, config.ServiceName, cfg.ServiceName)
	assert.Equal(t, config.AppVersion, cfg.ServiceVersion)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 0.5, cfg.SampleRatio)
}

func TestRecordError(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName: "test", TraceExporter: "stdout", MetricExporter: "none", SampleRatio: 1,
	}, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "test-operation")
	defer span.End()

	assert.True(t, span.SpanContext().IsValid())

	RecordError(ctx, errors.New("boom"))
	assert.True(t, span.IsRecording())
}

func TestBusinessMetrics(t *testing.T) {
	metrics, err := CreateBusinessMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	assert.NotNil(t, metrics.HTTPRequestsTotal)
	assert.NotNil(t, metrics.HTTPRequestDuration)
	assert.NotNil(t, metrics.HTTPActiveRequests)
	assert.NotNil(t, metrics.ReportsGenerated)
	assert.NotNil(t, metrics.ReportDuration)
	assert.NotNil(t, metrics.ReportRowsProcessed)
	assert.NotNil(t, metrics.ReportRowsSkipped)
	assert.NotNil(t, metrics.ReportLines)
	assert.NotNil(t, metrics.UploadBytes)
	assert.NotNil(t, metrics.SystemErrors)

	// Nil metrics are tolerated
	RecordReportMetrics(context.Background(), nil, ReportOutcome{Mode: "level-ups"})
	RecordSystemError(context.Background(), nil, "panic", "test")
}

// TestPrometheusEndpoint checks that report metrics reach the scrape output.
func TestPrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordReportMetrics(ctx, metrics, ReportOutcome{
		Mode: "level-ups", Source: "api", Duration: 20 * time.Millisecond, Rows: 10, Skipped: 2, Lines: 3, Bytes: 4096,
	})
	RecordReportMetrics(ctx, metrics, ReportOutcome{
		Mode: "assessments-due", Source: "upload", Err: errors.New("unreadable"),
	})
	RecordSystemError(ctx, metrics, "panic", "http")

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := string(body)
	assert.Contains(t, out, "reports_generated_total")
	assert.Contains(t, out, "report_rows_skipped_total")
	assert.Contains(t, out, `status="failure"`)
	assert.Contains(t, out, "system_errors_total")
	assert.Contains(t, out, "upload_size_bytes")
	assert.Contains(t, out, "go_goroutines")
}

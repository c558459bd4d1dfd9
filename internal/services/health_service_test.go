package services

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelcheck/internal/enrollment"
)

func TestHealthService_HealthCheck(t *testing.T) {
	hs := NewHealthService("1.2.3", "", nil, quietLogger())

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.WithinDuration(t, time.Now(), status.Timestamp, time.Second)
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name    string
		reports *ReportService
		want    string
	}{
		{
			name:    "report service configured",
			reports: NewReportService(nil, nil, enrollment.DefaultOptions(), time.UTC, quietLogger()),
			want:    "ready",
		},
		{
			name:    "no level policy",
			reports: NewReportService(nil, nil, enrollment.Options{}, time.UTC, quietLogger()),
			want:    "not_ready",
		},
		{
			name: "no report service",
			want: "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService("1.0.0", "", tt.reports, quietLogger())
			status := hs.ReadinessCheck(context.Background())

			assert.Equal(t, tt.want, status.Status)
			require.Contains(t, status.Services, "reports")
			assert.Equal(t, tt.want, status.Services["reports"].(ServiceHealth).Status)
		})
	}
}

func TestHealthService_LivenessCheck(t *testing.T) {
	hs := NewHealthService("1.0.0", "", nil, quietLogger())

	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)
	assert.Equal(t, runtime.Version(), status.Runtime["go_version"])
	assert.Contains(t, status.Runtime, "uptime")
	assert.Contains(t, status.Runtime, "goroutines")
}

func TestHealthService_Version(t *testing.T) {
	info := NewHealthService("1.0.0", "2024-07-20T00:00:00Z", nil, nil).Version()

	assert.Equal(t, "1.0.0", info["version"])
	assert.Equal(t, "2024-07-20T00:00:00Z", info["build_time"])
	assert.Equal(t, runtime.GOOS, info["os"])

	info = NewHealthService("1.0.0", "", nil, quietLogger()).Version()
	assert.NotContains(t, info, "build_time")
}

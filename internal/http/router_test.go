package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ocstat/internal/models"
	reportmocks "ocstat/internal/reports/mocks"
	"ocstat/internal/schedulers"
	"ocstat/internal/shared/loggers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeJobs []schedulers.JobStatus

func (f fakeJobs) Jobs() []schedulers.JobStatus { return f }

type routerFixture struct {
	reader    *reportmocks.MockSnapshotReader
	generator *reportmocks.MockGenerator
	renderer  *reportmocks.MockChartRenderer
	router    http.Handler
}

func newRouterFixture(t *testing.T, jobs JobLister) *routerFixture {
	ctrl := gomock.NewController(t)
	logger, _, err := loggers.New(loggers.Options{Level: "error"})
	require.NoError(t, err)

	f := &routerFixture{
		reader:    reportmocks.NewMockSnapshotReader(ctrl),
		generator: reportmocks.NewMockGenerator(ctrl),
		renderer:  reportmocks.NewMockChartRenderer(ctrl),
	}
	f.router = NewRouter(RouterOptions{
		SnapshotReader: f.reader,
		Generator:      f.generator,
		ChartRenderer:  f.renderer,
		Jobs:           jobs,
	}, logger)
	return f
}

func sampleReport() *models.Report {
	return &models.Report{
		WindowKind:  models.WindowDaily,
		WindowStart: time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC),
		GeneratedAt: time.Date(2025, 12, 28, 12, 0, 0, 0, time.UTC),
		Rows: []models.ReportRow{
			{Username: "alice", OutgoingBytes: 100, IncomingBytes: 50, ConnectionCount: 1, TotalDurationSeconds: 10},
		},
		Totals: models.ReportTotals{OutgoingBytes: 100, IncomingBytes: 50, ConnectionCount: 1, TotalDurationSeconds: 10},
	}
}

func TestRouter_Report(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t, nil)
	f.generator.EXPECT().Build(f.reader, models.WindowDaily).Return(sampleReport())

	req := httptest.NewRequest(http.MethodGet, "/reports/daily", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var report models.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, models.WindowDaily, report.WindowKind)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "alice", report.Rows[0].Username)
	assert.Equal(t, int64(100), report.Totals.OutgoingBytes)
}

func TestRouter_Report_InvalidWindow(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/reports/weekly", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var errorResponse ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errorResponse))
	assert.Equal(t, codeInvalidWindow, errorResponse.ErrorCode)
	assert.Equal(t, "invalid_argument", errorResponse.ErrorCategory)
	assert.NotEmpty(t, errorResponse.RequestID)
}

func TestRouter_ReportChart(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t, nil)
	report := sampleReport()
	report.WindowKind = models.WindowMonthly
	f.generator.EXPECT().Build(f.reader, models.WindowMonthly).Return(report)
	f.renderer.EXPECT().Render(gomock.Any(), report).Return(&models.ImageBlob{
		Data:        []byte("\x89PNG fake"),
		ContentType: "image/png",
		Filename:    "usage_report_monthly_202512.png",
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/reports/monthly/chart", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "usage_report_monthly_202512.png")
	assert.Equal(t, "\x89PNG fake", rr.Body.String())
}

func TestRouter_ReportChart_RenderFailure(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t, nil)
	f.generator.EXPECT().Build(f.reader, models.WindowDaily).Return(sampleReport())
	f.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(nil, errors.New("font missing"))

	req := httptest.NewRequest(http.MethodGet, "/reports/daily/chart", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var errorResponse ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errorResponse))
	assert.Equal(t, codeInternalChartFailed, errorResponse.ErrorCode)
	assert.Equal(t, "internal server error", errorResponse.ErrorDescription)
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()

	next := time.Date(2025, 12, 29, 12, 0, 0, 0, time.UTC)
	f := newRouterFixture(t, fakeJobs{
		{Name: "daily-report", Trigger: "daily at 12:00", NextFire: next},
		{Name: "collect", Trigger: "every 30s", NextFire: next, LastErrorCode: "SRC_9000"},
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	require.Len(t, body.Jobs, 2)
	assert.Equal(t, "daily-report", body.Jobs[0].Name)
	assert.Equal(t, "SRC_9000", body.Jobs[1].LastErrorCode)
}

func TestRouter_SessionsNotRegisteredWithoutIngestion(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

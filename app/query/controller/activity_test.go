package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solmirror/tradescope/app/query/types"
	"github.com/solmirror/tradescope/pkg/activity"
	"github.com/solmirror/tradescope/pkg/retry"
)

const wsolMint = "So11111111111111111111111111111111111111112"

type stubLookup struct {
	kind activity.Kind
}

func (s *stubLookup) AccountKind(ctx context.Context, address string) (activity.Kind, error) {
	return s.kind, nil
}

type stubSource struct {
	trades []activity.RawTrade
}

func (s *stubSource) FirstSeen(ctx context.Context, class activity.Classification) (time.Time, error) {
	return time.Time{}, nil
}

func (s *stubSource) Trades(ctx context.Context, class activity.Classification, start, end time.Time) ([]activity.RawTrade, error) {
	var out []activity.RawTrade
	for _, tr := range s.trades {
		if !tr.Time.Before(start) && tr.Time.Before(end) {
			out = append(out, tr)
		}
	}
	return out, nil
}

// setupTestController builds a controller with a real activity service over
// stubbed data sources.
func setupTestController(t *testing.T, now time.Time, trades []activity.RawTrade) *Controller {
	t.Helper()
	logger := zap.NewNop()
	svc := activity.NewService(logger, &stubSource{trades: trades},
		activity.NewClassifier(logger, &stubLookup{kind: activity.KindToken}),
		activity.Opts{
			MaxChunks:   4,
			CallTimeout: time.Second,
			Retry:       retry.Config{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1},
			Now:         func() time.Time { return now },
		})

	return NewController(&types.App{
		Logger:   logger,
		Activity: svc,
	})
}

func doActivityRequest(t *testing.T, c *Controller, path string) *httptest.ResponseRecorder {
	t.Helper()
	router, err := c.NewRouter()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleActivityInvalidAddress(t *testing.T) {
	c := setupTestController(t, time.Now(), nil)

	rec := doActivityRequest(t, c, "/api/abc/activity/days/7")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidAddress", decodeError(t, rec).Error)
}

func TestHandleActivityUnknownGranularity(t *testing.T) {
	c := setupTestController(t, time.Now(), nil)

	rec := doActivityRequest(t, c, "/api/"+wsolMint+"/activity/fortnights/7")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidRange", decodeError(t, rec).Error)
}

func TestHandleActivityNonNumericRange(t *testing.T) {
	c := setupTestController(t, time.Now(), nil)

	rec := doActivityRequest(t, c, "/api/"+wsolMint+"/activity/days/soon")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidRange", decodeError(t, rec).Error)
}

func TestHandleActivityEmptyRange(t *testing.T) {
	c := setupTestController(t, time.Now(), nil)

	rec := doActivityRequest(t, c, "/api/"+wsolMint+"/activity/days/0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EmptyRange", decodeError(t, rec).Error)
}

func TestHandleActivityRangeTooLarge(t *testing.T) {
	c := setupTestController(t, time.Now(), nil)

	rec := doActivityRequest(t, c, "/api/"+wsolMint+"/activity/seconds/-8")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "RangeTooLarge", decodeError(t, rec).Error)
}

func TestHandleActivityHappyPath(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sig := func(c string) string { return strings.Repeat(c, 64) }
	c := setupTestController(t, now, []activity.RawTrade{
		{Signature: sig("1"), Time: now.Add(-90 * time.Minute), Side: "buy", Amount: 2, PriceUsd: 3},
		{Signature: sig("2"), Time: now.Add(-30 * time.Minute), Side: "sell", Amount: 1, PriceUsd: 4},
	})

	rec := doActivityRequest(t, c, "/api/"+wsolMint+"/activity/hours/-7")
	require.Equal(t, http.StatusOK, rec.Code)

	var report activity.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	assert.Equal(t, wsolMint, report.Address)
	assert.Equal(t, activity.KindToken, report.Type)
	assert.Len(t, report.DataPoints, 168)
	assert.Equal(t, 2, report.TotalActivity)
	assert.Equal(t, "last 7 days", report.RangeDescription)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

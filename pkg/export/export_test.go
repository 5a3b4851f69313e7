package export

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kumarabd/gokit/logger"
	"github.com/kumarabd/log-archiver/internal/metrics"
	"github.com/kumarabd/log-archiver/pkg/archive"
	"github.com/kumarabd/log-archiver/pkg/daterange"
	"github.com/kumarabd/log-archiver/pkg/logtypes"
	"github.com/kumarabd/log-archiver/pkg/storage"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	recs    []logtypes.Record
	err     error
	calls   int
	windows []daterange.Window
}

func (f *stubFetcher) Fetch(ctx context.Context, w daterange.Window) ([]logtypes.Record, error) {
	f.calls++
	f.windows = append(f.windows, w)
	return f.recs, f.err
}

func clock() time.Time {
	return time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
}

type fixture struct {
	handler *Handler
	fetcher *stubFetcher
	bucket  *storage.Memory
	metric  *metrics.Handler
}

func newFixture(t *testing.T, fetcher *stubFetcher) *fixture {
	t.Helper()
	log, _ := logger.New("test", logger.Options{Format: logger.JSONLogFormat})
	metric, err := metrics.New("test")
	require.NoError(t, err)

	bucket := storage.NewMemory()
	h := New(&Config{MaxAgeMonths: 1}, fetcher, archive.New(bucket, log, metric), log, metric, clock)
	return &fixture{handler: h, fetcher: fetcher, bucket: bucket, metric: metric}
}

func TestRun(t *testing.T) {
	f := newFixture(t, &stubFetcher{recs: []logtypes.Record{
		logtypes.NewRecord("2024-06-10 03:00:00", logtypes.Field{Key: "level", Value: json.RawMessage(`"warn"`)}),
		logtypes.NewRecord("2024-06-10 04:00:00"),
	}})

	res, err := f.handler.Run(context.Background(), TriggerManual, "2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", res.Date)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, "2024-06-10.json.gz", res.Key)
	assert.NotEmpty(t, res.RunID)

	require.Len(t, f.fetcher.windows, 1)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), f.fetcher.windows[0].Start)

	obj, ok := f.bucket.Get("2024-06-10.json.gz")
	require.True(t, ok)
	recs, err := archive.Decode(obj.Data)
	require.NoError(t, err)
	assert.Equal(t, f.fetcher.recs, recs)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metric.ExportRunsTotal.WithLabelValues(TriggerManual, "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metric.ExportRecordsTotal))
}

func TestRunDefaultsToYesterday(t *testing.T) {
	f := newFixture(t, &stubFetcher{recs: []logtypes.Record{}})

	res, err := f.handler.Run(context.Background(), TriggerManual, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-14", res.Date)
	assert.Equal(t, 0, res.Count)

	_, ok := f.bucket.Get("2024-06-14.json.gz")
	assert.True(t, ok)
}

func TestRunInvalidDateSkipsFetchAndArchive(t *testing.T) {
	tests := []struct {
		date    string
		wantErr error
	}{
		{date: "2024/06/10", wantErr: daterange.ErrInvalidFormat},
		{date: "2024-02-31", wantErr: daterange.ErrInvalidDate},
		{date: "2024-04-01", wantErr: daterange.ErrTooOld},
		{date: "2024-07-01", wantErr: daterange.ErrInFuture},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			f := newFixture(t, &stubFetcher{})
			_, err := f.handler.Run(context.Background(), TriggerManual, tt.date)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, f.fetcher.calls)
			assert.Equal(t, 0, f.bucket.Puts())
		})
	}
}

func TestRunFetchFailureSkipsArchive(t *testing.T) {
	fetchErr := errors.New("query failed with status 500: boom")
	f := newFixture(t, &stubFetcher{err: fetchErr})

	_, err := f.handler.Run(context.Background(), TriggerManual, "")
	assert.ErrorIs(t, err, fetchErr)
	assert.Equal(t, 0, f.bucket.Puts())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metric.ExportRunsTotal.WithLabelValues(TriggerManual, "failure")))
}

func TestRunScheduled(t *testing.T) {
	f := newFixture(t, &stubFetcher{recs: []logtypes.Record{logtypes.NewRecord("2024-06-14 23:00:00")}})

	require.NoError(t, f.handler.RunScheduled(context.Background()))
	assert.Equal(t, "2024-06-14", f.fetcher.windows[0].Label)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metric.ExportRunsTotal.WithLabelValues(TriggerScheduled, "success")))

	storeErr := errors.New("bucket unavailable")
	f.bucket.FailWith = storeErr
	err := f.handler.RunScheduled(context.Background())
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metric.ExportRunsTotal.WithLabelValues(TriggerScheduled, "failure")))
}

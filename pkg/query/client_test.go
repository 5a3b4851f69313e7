package query

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kumarabd/gokit/logger"
	"github.com/kumarabd/log-archiver/internal/metrics"
	"github.com/kumarabd/log-archiver/pkg/daterange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow() daterange.Window {
	start := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	return daterange.Window{
		Start: start,
		End:   start.Add(24*time.Hour - time.Millisecond),
		Label: "2024-06-14",
	}
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	log, _ := logger.New("test", logger.Options{Format: logger.JSONLogFormat})
	metric, err := metrics.New("test")
	require.NoError(t, err)

	c, err := NewClient(&Config{
		Endpoint: endpoint,
		APIToken: "secret",
		Dataset:  "app_logs",
		Timeout:  5 * time.Second,
	}, log, metric)
	require.NoError(t, err)
	return c
}

func TestBuildQuery(t *testing.T) {
	got := BuildQuery("app_logs", testWindow())
	assert.Equal(t,
		"SELECT * FROM app_logs WHERE timestamp >= toDateTime('2024-06-14 00:00:00') AND timestamp < toDateTime('2024-06-14 23:59:59') FORMAT JSON",
		got)
}

func TestFetch(t *testing.T) {
	var gotBody, gotAuth, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"meta": [{"name":"timestamp","type":"DateTime"}],
			"data": [
				{"timestamp":"2024-06-14 01:00:00","level":"info","bytes":12},
				{"timestamp":"2024-06-14 02:00:00","level":"error","tags":["a","b"]}
			],
			"rows": 2,
			"rows_before_limit_at_least": 2
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	recs, err := c.Fetch(context.Background(), testWindow())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, BuildQuery("app_logs", testWindow()), gotBody)

	require.Len(t, recs, 2)
	assert.Equal(t, "2024-06-14 01:00:00", recs[0].Timestamp)
	assert.Equal(t, "level", recs[0].Fields[0].Key)
	assert.JSONEq(t, `"info"`, string(recs[0].Fields[0].Value))
	assert.JSONEq(t, `["a","b"]`, string(recs[1].Fields[1].Value))
}

func TestFetchEmpty(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no data key", body: `{"rows":0}`},
		{name: "null data", body: `{"rows":0,"data":null}`},
		{name: "empty data", body: `{"rows":0,"data":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			recs, err := newTestClient(t, srv.URL).Fetch(context.Background(), testWindow())
			require.NoError(t, err)
			assert.NotNil(t, recs)
			assert.Empty(t, recs)
		})
	}
}

func TestFetchQueryFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("unknown table app_logs"))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Fetch(context.Background(), testWindow())
	require.Error(t, err)

	var qerr *Error
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, http.StatusUnprocessableEntity, qerr.Status)
	assert.Equal(t, "unknown table app_logs", qerr.Body)
	assert.Contains(t, err.Error(), "422")
}

func TestFetchRejectsRowsWithoutTimestamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"level":"info"}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Fetch(context.Background(), testWindow())
	assert.Error(t, err)
}

func TestNewClientValidation(t *testing.T) {
	log, _ := logger.New("test", logger.Options{Format: logger.JSONLogFormat})
	metric, _ := metrics.New("test")

	_, err := NewClient(&Config{Endpoint: "http://x", Dataset: "logs; DROP TABLE x"}, log, metric)
	assert.Error(t, err)

	_, err = NewClient(&Config{Dataset: "logs"}, log, metric)
	assert.Error(t, err)
}

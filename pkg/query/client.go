package query

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/kumarabd/gokit/logger"
	"github.com/kumarabd/log-archiver/internal/metrics"
	"github.com/kumarabd/log-archiver/pkg/daterange"
	"github.com/kumarabd/log-archiver/pkg/logtypes"
	"github.com/valyala/fastjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// timeLayout is the instant format understood by the SQL endpoint
const timeLayout = "2006-01-02 15:04:05"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config contains configuration for the analytics query backend
type Config struct {
	Endpoint string        `json:"endpoint" yaml:"endpoint" default:"http://localhost:8123/sql"`
	APIToken string        `json:"api_token" yaml:"api_token" default:""`
	Dataset  string        `json:"dataset" yaml:"dataset" default:"logs"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout" default:"60s"`
}

// Error is returned when the backend answers with a non-success status
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("query failed with status %d: %s", e.Status, e.Body)
}

// Client issues one SQL request per day to the analytics backend
type Client struct {
	client   *http.Client
	endpoint string
	token    string
	dataset  string
	log      *logger.Handler
	metric   *metrics.Handler
	tracer   trace.Tracer
}

// NewClient creates a new query client
func NewClient(cfg *Config, log *logger.Handler, m *metrics.Handler) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("query endpoint is required")
	}
	if !identifier.MatchString(cfg.Dataset) {
		return nil, fmt.Errorf("invalid dataset name %q", cfg.Dataset)
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint: cfg.Endpoint,
		token:    cfg.APIToken,
		dataset:  cfg.Dataset,
		log:      log,
		metric:   m,
		tracer:   otel.Tracer("archiver/query"),
	}, nil
}

// BuildQuery renders the SQL selecting every column for [start, end)
func BuildQuery(dataset string, w daterange.Window) string {
	return fmt.Sprintf(
		"SELECT * FROM %s WHERE timestamp >= toDateTime('%s') AND timestamp < toDateTime('%s') FORMAT JSON",
		dataset,
		w.Start.UTC().Format(timeLayout),
		w.End.UTC().Format(timeLayout),
	)
}

// Fetch retrieves all log records of the window in a single request
func (c *Client) Fetch(ctx context.Context, w daterange.Window) ([]logtypes.Record, error) {
	ctx, span := c.tracer.Start(ctx, "query.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("export.date", w.Label))

	result, err := c.Query(ctx, BuildQuery(c.dataset, w))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("query.rows", result.Rows),
		attribute.Int("query.records", len(result.Data)),
	)
	if result.Data == nil {
		return []logtypes.Record{}, nil
	}
	return result.Data, nil
}

// Query sends sql to the backend and decodes the response envelope
func (c *Client) Query(ctx context.Context, sql string) (*logtypes.QueryResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader([]byte(sql)))
	if err != nil {
		return nil, fmt.Errorf("failed to create query request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metric.ObserveQueryLatency(time.Since(start), 0)
		return nil, fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metric.ObserveQueryLatency(time.Since(start), resp.StatusCode)
	if err != nil {
		return nil, fmt.Errorf("failed to read query response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn().Int("status", resp.StatusCode).Msg("analytics backend rejected query")
		return nil, &Error{Status: resp.StatusCode, Body: string(body)}
	}

	return decodeResult(body)
}

func decodeResult(body []byte) (*logtypes.QueryResult, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	result := &logtypes.QueryResult{
		Rows:                   v.GetInt("rows"),
		RowsBeforeLimitAtLeast: v.GetInt("rows_before_limit_at_least"),
	}

	data := v.Get("data")
	if data == nil || data.Type() == fastjson.TypeNull {
		return result, nil
	}
	items, err := data.Array()
	if err != nil {
		return nil, fmt.Errorf("query response data is not an array: %w", err)
	}

	result.Data = make([]logtypes.Record, 0, len(items))
	for i, item := range items {
		rec, err := logtypes.FromValue(item)
		if err != nil {
			return nil, fmt.Errorf("query response row %d: %w", i, err)
		}
		result.Data = append(result.Data, rec)
	}
	return result, nil
}

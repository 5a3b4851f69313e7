package export

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kumarabd/gokit/logger"
	"github.com/kumarabd/log-archiver/internal/metrics"
	"github.com/kumarabd/log-archiver/pkg/daterange"
	"github.com/kumarabd/log-archiver/pkg/logtypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Triggers recorded in logs and metrics
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerCLI       = "cli"
)

type Config struct {
	// MaxAgeMonths bounds how far back an explicit date may reach
	MaxAgeMonths int `json:"max_age_months" yaml:"max_age_months" default:"1"`
}

// Fetcher retrieves a day's log records
type Fetcher interface {
	Fetch(ctx context.Context, w daterange.Window) ([]logtypes.Record, error)
}

// Archiver persists a day's log records and returns the written key
type Archiver interface {
	Archive(ctx context.Context, label string, recs []logtypes.Record) (string, error)
}

// Result describes a finished run
type Result struct {
	RunID string `json:"run_id"`
	Date  string `json:"date"`
	Count int    `json:"count"`
	Key   string `json:"key"`
}

// Handler runs the resolve, fetch, archive pipeline for one day
type Handler struct {
	resolver *daterange.Resolver
	fetcher  Fetcher
	archiver Archiver
	log      *logger.Handler
	metric   *metrics.Handler
	tracer   trace.Tracer
}

// New creates an export handler. A nil clock means time.Now.
func New(cfg *Config, fetcher Fetcher, archiver Archiver, l *logger.Handler, m *metrics.Handler, now func() time.Time) *Handler {
	return &Handler{
		resolver: daterange.NewResolver(cfg.MaxAgeMonths, now),
		fetcher:  fetcher,
		archiver: archiver,
		log:      l,
		metric:   m,
		tracer:   otel.Tracer("archiver/export"),
	}
}

// Run exports the given day, or yesterday when date is empty. Nothing is
// written unless the fetch succeeds.
func (h *Handler) Run(ctx context.Context, trigger, date string) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	ctx, span := h.tracer.Start(ctx, "export.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("export.run_id", runID),
		attribute.String("export.trigger", trigger),
	)

	res, err := h.run(ctx, runID, date)
	h.metric.ObserveExportRunLatency(time.Since(start), trigger, err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.metric.IncExportRuns(trigger, "failure")
		h.log.Error().Err(err).
			Str("run_id", runID).
			Str("trigger", trigger).
			Str("requested_date", date).
			Msg("export failed")
		return nil, err
	}

	span.SetAttributes(attribute.String("export.date", res.Date), attribute.Int("export.count", res.Count))
	h.metric.IncExportRuns(trigger, "success")
	h.metric.AddExportRecords(res.Count)
	h.log.Info().
		Str("run_id", runID).
		Str("trigger", trigger).
		Str("date", res.Date).
		Int("count", res.Count).
		Str("key", res.Key).
		Dur("latency", time.Since(start)).
		Msg("export finished")
	return res, nil
}

func (h *Handler) run(ctx context.Context, runID, date string) (*Result, error) {
	w, err := h.resolver.Resolve(date)
	if err != nil {
		return nil, err
	}

	recs, err := h.fetcher.Fetch(ctx, w)
	if err != nil {
		return nil, err
	}

	key, err := h.archiver.Archive(ctx, w.Label, recs)
	if err != nil {
		return nil, err
	}

	return &Result{RunID: runID, Date: w.Label, Count: len(recs), Key: key}, nil
}

// RunScheduled is the periodic entry point: always yesterday, errors are
// logged by Run and handed back to the scheduler.
func (h *Handler) RunScheduled(ctx context.Context) error {
	_, err := h.Run(ctx, TriggerScheduled, "")
	return err
}

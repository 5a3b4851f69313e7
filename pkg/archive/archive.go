package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/kumarabd/gokit/logger"
	"github.com/kumarabd/log-archiver/internal/metrics"
	"github.com/kumarabd/log-archiver/pkg/logtypes"
	"github.com/kumarabd/log-archiver/pkg/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ContentType is set on every written artifact
	ContentType = "application/gzip"
	// KeySuffix follows the date label in artifact keys
	KeySuffix = ".json.gz"
)

// Key returns the storage key of the artifact for a day label
func Key(label string) string {
	return label + KeySuffix
}

// Archiver compresses a day's records and writes them to a bucket
type Archiver struct {
	bucket storage.Bucket
	log    *logger.Handler
	metric *metrics.Handler
	tracer trace.Tracer
}

func New(bucket storage.Bucket, log *logger.Handler, m *metrics.Handler) *Archiver {
	return &Archiver{
		bucket: bucket,
		log:    log,
		metric: m,
		tracer: otel.Tracer("archiver/archive"),
	}
}

// Archive writes records under <label>.json.gz, replacing any previous
// artifact for the same day. Storage errors are returned as is.
func (a *Archiver) Archive(ctx context.Context, label string, recs []logtypes.Record) (string, error) {
	ctx, span := a.tracer.Start(ctx, "archive.Archive")
	defer span.End()

	key := Key(label)
	payload, err := Encode(recs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(
		attribute.String("archive.key", key),
		attribute.Int("archive.records", len(recs)),
		attribute.Int("archive.bytes", len(payload)),
	)

	start := time.Now()
	err = a.bucket.Put(ctx, key, payload, ContentType)
	a.metric.ObserveStorageWriteLatency(time.Since(start), err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	a.metric.ObserveArtifactBytes(len(payload))
	a.log.Debug().Str("key", key).Int("records", len(recs)).Int("bytes", len(payload)).Msg("artifact written")
	return key, nil
}

// Encode serializes records to one JSON array and gzips it
func Encode(recs []logtypes.Record) ([]byte, error) {
	if recs == nil {
		recs = []logtypes.Record{}
	}

	var raw bytes.Buffer
	enc := json.NewEncoder(&raw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(recs); err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}

	var out bytes.Buffer
	gz := gzip.NewWriter(&out)
	if _, err := gz.Write(bytes.TrimRight(raw.Bytes(), "\n")); err != nil {
		return nil, fmt.Errorf("failed to compress records: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress records: %w", err)
	}
	return out.Bytes(), nil
}

// Decode reverses Encode
func Decode(payload []byte) ([]logtypes.Record, error) {
	gz, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, err
	}
	return logtypes.DecodeRecords(raw)
}

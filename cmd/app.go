package main

import (
	"context"

	"github.com/kumarabd/gokit/logger"
	"github.com/kumarabd/log-archiver/internal/config"
	"github.com/kumarabd/log-archiver/internal/metrics"
	"github.com/kumarabd/log-archiver/pkg/archive"
	"github.com/kumarabd/log-archiver/pkg/export"
	"github.com/kumarabd/log-archiver/pkg/query"
	"github.com/kumarabd/log-archiver/pkg/storage"
)

// app holds the components shared by every command
type app struct {
	config   *config.Config
	metric   *metrics.Handler
	bucket   storage.Bucket
	exporter *export.Handler
}

func newApp(ctx context.Context, log *logger.Handler) (*app, error) {
	// Initialize a new configuration handler
	configHandler, err := config.New()
	if err != nil {
		return nil, err
	}

	// Initialize a new metrics handler with the application name
	metricsHandler, err := metrics.New(config.ApplicationName)
	if err != nil {
		return nil, err
	}

	queryClient, err := query.NewClient(configHandler.Query, log, metricsHandler)
	if err != nil {
		return nil, err
	}

	bucket, err := storage.New(ctx, configHandler.Storage)
	if err != nil {
		return nil, err
	}
	log.Info().Str("type", configHandler.Storage.Type).Msg("storage initialized")

	exporter := export.New(configHandler.Export, queryClient, archive.New(bucket, log, metricsHandler), log, metricsHandler, nil)

	return &app{
		config:   configHandler,
		metric:   metricsHandler,
		bucket:   bucket,
		exporter: exporter,
	}, nil
}

func (a *app) Close() error {
	return a.bucket.Close()
}

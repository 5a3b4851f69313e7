package server

import (
	"context"
	"errors"

	"github.com/kumarabd/gokit/logger"
	"github.com/kumarabd/log-archiver/internal/metrics"
)

// Config contains configuration for all listeners
type Config struct {
	HTTP  *HTTPConfig  `json:"http" yaml:"http"`
	Admin *AdminConfig `json:"admin" yaml:"admin"`
}

type Handler struct {
	HTTP   *HTTP
	Admin  *Admin
	config *Config
	log    *logger.Handler
}

// New creates a new server handler
func New(l *logger.Handler, m *metrics.Handler, serverConfig *Config, exporter Exporter, page Renderer) (*Handler, error) {
	if serverConfig.HTTP == nil {
		return nil, errors.New("http server config is required")
	}
	if serverConfig.HTTP.AuthToken == "" {
		l.Warn().Msg("no auth token configured, manual trigger will reject every request")
	}

	var admin *Admin
	if serverConfig.Admin != nil {
		admin = NewAdmin(serverConfig.Admin, l, m)
	}

	return &Handler{
		HTTP:   NewHTTP(serverConfig.HTTP, exporter, page, l, m),
		Admin:  admin,
		config: serverConfig,
		log:    l,
	}, nil
}

// Start starts every listener; ch receives once per listener that exits
func (h *Handler) Start(ch chan struct{}) {
	go func() {
		if err := h.HTTP.Start(); err != nil {
			h.log.Error().Err(err).Msg("HTTP server failed")
		}
		ch <- struct{}{}
	}()

	if h.Admin != nil {
		go func() {
			if err := h.Admin.Start(); err != nil {
				h.log.Error().Err(err).Msg("admin server failed")
			}
			ch <- struct{}{}
		}()
	}
}

// Stop shuts every listener down
func (h *Handler) Stop(ctx context.Context) error {
	var errs []error
	if err := h.HTTP.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if h.Admin != nil {
		if err := h.Admin.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

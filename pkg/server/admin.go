package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kumarabd/gokit/logger"
	"github.com/kumarabd/log-archiver/internal/metrics"
)

// AdminConfig contains configuration for the health and metrics listener
type AdminConfig struct {
	Host string `json:"host" yaml:"host" default:"0.0.0.0"`
	Port string `json:"port" yaml:"port" default:"9090"`
}

// Admin serves /healthz and /metrics apart from the public routes
type Admin struct {
	handler *gin.Engine
	log     *logger.Handler
	metric  *metrics.Handler
	config  *AdminConfig
	server  *http.Server
}

func NewAdmin(config *AdminConfig, l *logger.Handler, m *metrics.Handler) *Admin {
	gin.SetMode(gin.ReleaseMode)

	a := &Admin{
		handler: gin.New(),
		log:     l,
		metric:  m,
		config:  config,
	}
	a.handler.Use(gin.Recovery())
	a.handler.GET("/healthz", a.healthHandler)
	a.handler.GET("/metrics", gin.WrapH(m.HTTPHandler()))
	a.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%s", config.Host, config.Port),
		Handler: a.handler,
	}
	return a
}

func (a *Admin) Start() error {
	a.log.Info().Msgf("Starting admin server on %s", a.server.Addr)
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *Admin) Stop(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// healthHandler handles health check endpoint
func (a *Admin) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

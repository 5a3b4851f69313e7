package page

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/kumarabd/gokit/logger"
	"github.com/kumarabd/log-archiver/internal/metrics"
	"github.com/kumarabd/log-archiver/pkg/cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:embed templates/index.html
var templateFS embed.FS

// Config contains configuration for the informational page
type Config struct {
	DocumentURL string        `json:"document_url" yaml:"document_url" default:"https://raw.githubusercontent.com/kumarabd/log-archiver/main/README.md"`
	Title       string        `json:"title" yaml:"title" default:"Log Archiver"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" default:"10s"`
}

// Handler renders the informational page around a remote document
type Handler struct {
	client *http.Client
	cache  *cache.Handler
	tmpl   *template.Template
	config *Config
	log    *logger.Handler
	metric *metrics.Handler
	tracer trace.Tracer
}

type view struct {
	Title    string
	Document string
}

func New(cfg *Config, c *cache.Handler, l *logger.Handler, m *metrics.Handler) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	return &Handler{
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  c,
		tmpl:   tmpl,
		config: cfg,
		log:    l,
		metric: m,
		tracer: otel.Tracer("archiver/page"),
	}, nil
}

// Render returns the page HTML
func (h *Handler) Render(ctx context.Context) ([]byte, error) {
	doc, err := h.Document(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, view{Title: h.config.Title, Document: string(doc)}); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return buf.Bytes(), nil
}

// Document returns the remote document, fetching it on the first miss
func (h *Handler) Document(ctx context.Context) ([]byte, error) {
	if doc, ok := h.cache.Get(h.config.DocumentURL); ok {
		h.metric.IncPageCacheLookup(true)
		return doc, nil
	}
	h.metric.IncPageCacheLookup(false)

	doc, err := h.fetch(ctx)
	if err != nil {
		return nil, err
	}
	h.cache.Set(h.config.DocumentURL, doc)
	return doc, nil
}

func (h *Handler) fetch(ctx context.Context) ([]byte, error) {
	ctx, span := h.tracer.Start(ctx, "page.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("page.url", h.config.DocumentURL))

	doc, err := h.get(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.log.Warn().Err(err).Str("url", h.config.DocumentURL).Msg("failed to fetch page document")
		return nil, err
	}
	return doc, nil
}

func (h *Handler) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.config.DocumentURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("document fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

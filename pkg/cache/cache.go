package cache

import (
	"time"

	cache_pkg "github.com/patrickmn/go-cache"
)

// Config contains configuration for the document cache.
// A zero DefaultExpiration keeps entries for the life of the process.
type Config struct {
	DefaultExpiration time.Duration `json:"default_expiration" yaml:"default_expiration" default:"0s"`
	CleanupInterval   time.Duration `json:"cleanup_interval" yaml:"cleanup_interval" default:"10m"`
}

type Handler struct {
	client *cache_pkg.Cache
}

func New(cfg *Config) (*Handler, error) {
	expiration := cfg.DefaultExpiration
	if expiration <= 0 {
		expiration = cache_pkg.NoExpiration
	}
	client := cache_pkg.New(expiration, cfg.CleanupInterval)
	return &Handler{
		client: client,
	}, nil
}

// Get returns the cached body for key
func (h *Handler) Get(key string) ([]byte, bool) {
	v, ok := h.client.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Set stores body under key with the default expiration
func (h *Handler) Set(key string, body []byte) {
	h.client.Set(key, body, cache_pkg.DefaultExpiration)
}

// Delete drops key
func (h *Handler) Delete(key string) {
	h.client.Delete(key)
}

func (h *Handler) Ping() (bool, error) {
	return true, nil
}

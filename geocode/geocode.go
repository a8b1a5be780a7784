// Package geocode resolves postal addresses to coordinates through an
// OpenStreetMap Nominatim compatible search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sdstartups/startupmap-backend/cache"
	e "github.com/sdstartups/startupmap-backend/errors"
	"go.uber.org/zap"
)

// UserAgent identifies the directory to the geocoding service.
const UserAgent = "sd-startup-map"

// DefaultURL is the public Nominatim search endpoint.
const DefaultURL = "https://nominatim.openstreetmap.org/search"

// Config configures a Nominatim client.
type Config struct {
	URL      string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Nominatim is a geocoder backed by a Nominatim search endpoint. Results are
// memoized for CacheTTL keyed by the exact address tuple.
type Nominatim struct {
	client *http.Client
	url    string
	ttl    time.Duration
	cache  cache.Cache
	logger *zap.Logger
}

type point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// New returns a Nominatim client. A nil cache disables memoization.
func New(cfg Config, c cache.Cache, logger *zap.Logger) *Nominatim {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Nominatim{
		client: &http.Client{Timeout: cfg.Timeout},
		url:    cfg.URL,
		ttl:    cfg.CacheTTL,
		cache:  c,
		logger: logger.Named("geocode"),
	}
}

// Resolve returns the latitude and longitude of the best match. Timeouts,
// service errors and empty results are reported as ErrAddressUnresolvable.
func (n *Nominatim) Resolve(ctx context.Context, address, city, state, zip string) (float64, float64, error) {
	key := cache.Key("geocode", address, city, state, zip)

	p, err := cache.Remember(ctx, n.cache, key, n.ttl, func() (point, error) {
		return n.search(ctx, address, city, state, zip)
	})
	if err != nil {
		return 0, 0, err
	}
	return p.Lat, p.Lon, nil
}

func (n *Nominatim) search(ctx context.Context, address, city, state, zip string) (point, error) {
	query := joinNonEmpty(address, city, state, zip)
	if query == "" {
		return point{}, fmt.Errorf("%w: empty address", e.ErrAddressUnresolvable)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.url+"?"+params.Encode(), nil)
	if err != nil {
		return point{}, fmt.Errorf("%w: %v", e.ErrAddressUnresolvable, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("geocoding request failed", zap.String("address", query), zap.Error(err))
		return point{}, fmt.Errorf("%w: %v", e.ErrAddressUnresolvable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		n.logger.Warn("geocoding service error", zap.String("address", query), zap.Int("status", resp.StatusCode))
		return point{}, fmt.Errorf("%w: geocoding service returned %s", e.ErrAddressUnresolvable, resp.Status)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return point{}, fmt.Errorf("%w: failed to decode response: %v", e.ErrAddressUnresolvable, err)
	}
	if len(results) == 0 {
		return point{}, fmt.Errorf("%w: no match for %q", e.ErrAddressUnresolvable, query)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return point{}, fmt.Errorf("%w: bad latitude %q", e.ErrAddressUnresolvable, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return point{}, fmt.Errorf("%w: bad longitude %q", e.ErrAddressUnresolvable, results[0].Lon)
	}

	n.logger.Debug("address resolved", zap.String("address", query), zap.String("match", results[0].DisplayName))
	return point{Lat: lat, Lon: lon}, nil
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

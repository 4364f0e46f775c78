package fetch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wayfarer-ai/wayfarer/internal/cache"
	"github.com/wayfarer-ai/wayfarer/internal/observability"
)

const (
	defaultWeatherURL = "https://api.open-meteo.com/v1/forecast"
	defaultEventsURL  = "https://app.ticketmaster.com/discovery/v2/events.json"

	defaultCacheSize = 64
)

// Geocoder resolves a destination name to coordinates. The default is a
// static stand-in, an explicit seam for a real provider.
type Geocoder interface {
	Locate(ctx context.Context, city string) (lat, lon float64, err error)
}

// StaticGeocoder answers every lookup with fixed coordinates.
type StaticGeocoder struct {
	Lat float64
	Lon float64
}

func (g StaticGeocoder) Locate(_ context.Context, _ string) (float64, float64, error) {
	return g.Lat, g.Lon, nil
}

// ServiceConfig configures the external data providers.
type ServiceConfig struct {
	TicketmasterKey string
	WeatherURL      string
	EventsURL       string
	CacheSize       int // per category
}

// Service memoizes one bounded LRU per data category, keyed on normalized
// parameters so near-duplicate lookups hit. Provider failures come back as
// error payload values.
type Service struct {
	client *Client
	cfg    ServiceConfig
	geo    Geocoder
	logger *zap.Logger

	weather *cache.LRU[string, map[string]any]
	events  *cache.LRU[string, map[string]any]
	flights *cache.LRU[string, map[string]any]
	hotels  *cache.LRU[string, map[string]any]
	traffic *cache.LRU[string, map[string]any]
}

func NewService(cfg ServiceConfig, client *Client, geo Geocoder, logger *zap.Logger) *Service {
	if cfg.WeatherURL == "" {
		cfg.WeatherURL = defaultWeatherURL
	}
	if cfg.EventsURL == "" {
		cfg.EventsURL = defaultEventsURL
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if geo == nil {
		// app-level stand-in: Manhattan
		geo = StaticGeocoder{Lat: 40.7128, Lon: -74.0060}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:  client,
		cfg:     cfg,
		geo:     geo,
		logger:  logger,
		weather: cache.NewLRU[string, map[string]any](cfg.CacheSize),
		events:  cache.NewLRU[string, map[string]any](cfg.CacheSize),
		flights: cache.NewLRU[string, map[string]any](cfg.CacheSize),
		hotels:  cache.NewLRU[string, map[string]any](cfg.CacheSize),
		traffic: cache.NewLRU[string, map[string]any](cfg.CacheSize),
	}
}

// Locate resolves coordinates for a destination via the configured geocoder.
func (s *Service) Locate(ctx context.Context, city string) (float64, float64, error) {
	return s.geo.Locate(ctx, norm(city))
}

// Weather fetches a forecast. Coordinates are rounded to three decimals
// before keying so lookups that differ only beyond ~100m share an entry.
func (s *Service) Weather(ctx context.Context, lat, lon float64, start, end string) map[string]any {
	latR, lonR := roundCoord(lat), roundCoord(lon)
	key := strings.Join([]string{latR, lonR, start, end}, "|")
	return s.cached("weather", s.weather, key, func() map[string]any {
		return s.client.GetJSON(ctx, s.cfg.WeatherURL, map[string]string{
			"latitude":   latR,
			"longitude":  lonR,
			"hourly":     "temperature_2m,precipitation,wind_speed_10m",
			"daily":      "weathercode,temperature_2m_max,temperature_2m_min,precipitation_sum,wind_speed_10m_max",
			"timezone":   "auto",
			"start_date": start,
			"end_date":   end,
		})
	})
}

// Events looks up events via the Ticketmaster discovery API.
func (s *Service) Events(ctx context.Context, city, start, end string) map[string]any {
	city = norm(city)
	key := strings.Join([]string{city, start, end}, "|")
	return s.cached("events", s.events, key, func() map[string]any {
		if s.cfg.TicketmasterKey == "" {
			return ErrorPayload(fmt.Errorf("no ticketmaster key configured"), s.cfg.EventsURL, nil)
		}
		return s.client.GetJSON(ctx, s.cfg.EventsURL, map[string]string{
			"apikey":        s.cfg.TicketmasterKey,
			"city":          city,
			"startDateTime": start,
			"endDateTime":   end,
			"size":          "20",
		})
	})
}

// Flights is a static stand-in pending a real provider.
func (s *Service) Flights(ctx context.Context, origin, dest, depart, ret string) map[string]any {
	origin, dest = norm(origin), norm(dest)
	key := strings.Join([]string{origin, dest, depart, ret}, "|")
	return s.cached("flights", s.flights, key, func() map[string]any {
		return map[string]any{
			"origin":        origin,
			"destination":   dest,
			"outbound_date": depart,
			"return_date":   ret,
			"flights": []any{
				map[string]any{"airline": "Example Air", "price_usd": 450, "duration": "3h 30m"},
			},
		}
	})
}

// Hotels is a static stand-in pending a real provider.
func (s *Service) Hotels(ctx context.Context, city, checkin, checkout string, budget int) map[string]any {
	city = norm(city)
	key := strings.Join([]string{city, checkin, checkout, fmt.Sprint(budget)}, "|")
	return s.cached("hotels", s.hotels, key, func() map[string]any {
		return map[string]any{
			"city":     city,
			"checkin":  checkin,
			"checkout": checkout,
			"hotels": []any{
				map[string]any{"name": "Example Hotel", "price_per_night": 120, "rating": 4.2},
			},
		}
	})
}

// Traffic is a static stand-in pending a real provider.
func (s *Service) Traffic(ctx context.Context, city string) map[string]any {
	city = norm(city)
	return s.cached("traffic", s.traffic, city, func() map[string]any {
		return map[string]any{
			"city":          city,
			"traffic_level": "moderate",
			"best_times":    "9am-11am, 2pm-4pm",
		}
	})
}

func (s *Service) cached(category string, c *cache.LRU[string, map[string]any], key string, fn func() map[string]any) map[string]any {
	if v, ok := c.Get(key); ok {
		observability.CacheHits.WithLabelValues(category).Inc()
		s.logger.Debug("data cache hit", zap.String("category", category), zap.String("key", key))
		return v
	}
	observability.CacheMisses.WithLabelValues(category).Inc()
	v := fn()
	c.Add(key, v)
	return v
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func roundCoord(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// Package bootstrap wires configuration to adapters and services. Both the
// API server and the CLI build the same pipeline from it.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/orbital/internal/adapters/gemini"
	handler "github.com/samirrijal/orbital/internal/adapters/http"
	natsadapter "github.com/samirrijal/orbital/internal/adapters/nats"
	"github.com/samirrijal/orbital/internal/adapters/nominatim"
	"github.com/samirrijal/orbital/internal/adapters/search"
	"github.com/samirrijal/orbital/internal/adapters/sentinel"
	"github.com/samirrijal/orbital/internal/adapters/valkey"
	"github.com/samirrijal/orbital/internal/core/ports"
	"github.com/samirrijal/orbital/internal/core/usecases"
	"github.com/samirrijal/orbital/internal/pkg/config"
)

// Services is the assembled pipeline plus its optional backends.
type Services struct {
	Reports   *usecases.ReportService
	Locations *usecases.LocationService
	Imagery   *usecases.ImageryService

	// Optional; nil when not configured or unreachable.
	Cache      *valkey.Cache
	Publisher  *natsadapter.Publisher
	Subscriber *natsadapter.Subscriber

	instanceID string
	closers    []func()
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// Build creates every adapter and service described by cfg. Cache and broker
// failures are logged and leave the corresponding field nil.
func Build(ctx context.Context, cfg *config.Config) (*Services, error) {
	s := &Services{instanceID: cfg.Sentinel.InstanceID}

	model, err := gemini.New(ctx, gemini.Options{APIKey: cfg.Gemini.APIKey, Model: cfg.Gemini.Model})
	if err != nil {
		return nil, err
	}

	searcher, err := search.New(search.Options{
		Provider: search.Provider(cfg.Search.Provider),
		APIKey:   cfg.Search.APIKey,
		EngineID: cfg.Search.EngineID,
		Timeout:  seconds(cfg.Search.Timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	geocoder := nominatim.New(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, seconds(cfg.Geocoder.Timeout))
	imagery := sentinel.New(cfg.Sentinel.BaseURL, cfg.Sentinel.InstanceID, cfg.Sentinel.Resolution,
		cfg.Sentinel.Format, seconds(cfg.Sentinel.Timeout))

	// A nil *valkey.Cache must not leak into the interface.
	var cache ports.CacheService
	if cfg.Valkey.Addr != "" {
		c, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			s.Cache = c
			cache = c
			s.closers = append(s.closers, c.Close)
		}
	}

	if cfg.NATS.URL != "" {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			s.Publisher = pub
			s.Subscriber = natsadapter.NewSubscriber(pub.Conn())
			s.closers = append(s.closers, pub.Close)
		}
	}

	layers := cfg.Imagery.Layers
	s.Locations = usecases.NewLocationService(model, geocoder, cache, cfg.Valkey.TTL, cfg.Geocoder.MinRadiusMeters)
	s.Imagery = usecases.NewImageryService(imagery, layers)
	s.Reports = usecases.NewReportService(
		s.Locations,
		usecases.NewResearchService(model, searcher, cfg.Search.Provider, cfg.Search.ResultCount),
		s.Imagery,
		usecases.NewSynthesisService(model, layers),
		cfg.Sentinel.InstanceID,
		cfg.Pipeline.StageTimeoutDuration(),
	)

	return s, nil
}

// HTTPDependencies exposes the services to the HTTP adapter.
func (s *Services) HTTPDependencies(version string) *handler.Dependencies {
	deps := &handler.Dependencies{
		Reports:    s.Reports,
		Locations:  s.Locations,
		Imagery:    s.Imagery,
		InstanceID: s.instanceID,
		Cache:      s.Cache,
		Version:    version,
	}
	if s.Publisher != nil {
		deps.Publisher = s.Publisher
		deps.Subscriber = s.Subscriber
		deps.NATS = s.Publisher.Conn()
	}
	return deps
}

// Close releases backends in reverse order of creation.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

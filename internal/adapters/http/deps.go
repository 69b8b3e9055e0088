package http

import (
	"github.com/nats-io/nats.go"
	natsadapter "github.com/samirrijal/orbital/internal/adapters/nats"
	"github.com/samirrijal/orbital/internal/adapters/valkey"
	"github.com/samirrijal/orbital/internal/core/ports"
	"github.com/samirrijal/orbital/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
// NATS, Publisher, Subscriber and Cache are optional.
type Dependencies struct {
	Reports    *usecases.ReportService
	Locations  *usecases.LocationService
	Imagery    *usecases.ImageryService
	InstanceID string
	Publisher  ports.EventPublisher
	Subscriber *natsadapter.Subscriber
	NATS       *nats.Conn
	Cache      *valkey.Cache
	Version    string
}

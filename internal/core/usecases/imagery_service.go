package usecases

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/orbital/internal/core/domain"
	"github.com/samirrijal/orbital/internal/core/ports"
	"github.com/samirrijal/orbital/internal/pkg/metrics"
)

// ImageryService fetches the (layer × snapshot) raster matrix for a location.
type ImageryService struct {
	client ports.ImageryClient
	layers []domain.ImagingLayer
}

// NewImageryService creates a new ImageryService. An empty layer set falls
// back to domain.DefaultLayers.
func NewImageryService(client ports.ImageryClient, layers []domain.ImagingLayer) *ImageryService {
	if len(layers) == 0 {
		layers = domain.DefaultLayers()
	}
	return &ImageryService{client: client, layers: layers}
}

// Layers returns the configured layer set.
func (s *ImageryService) Layers() []domain.ImagingLayer {
	out := make([]domain.ImagingLayer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Acquire issues every request concurrently and returns the assets ordered
// [L0 historical, L0 current, L1 historical, ...]. The first failure cancels
// the outstanding requests and no assets are returned.
func (s *ImageryService) Acquire(ctx context.Context, loc domain.ResolvedLocation, historical, current time.Time) ([]domain.ImageAsset, error) {
	bbox := loc.BoundingBox.ImageryQuery()
	snapshots := domain.ReportRequest{Historical: historical, Current: current}.Snapshots()

	assets := make([]domain.ImageAsset, len(s.layers)*len(snapshots))
	g, gCtx := errgroup.WithContext(ctx)

	for li, layer := range s.layers {
		for si, snap := range snapshots {
			slot := li*len(snapshots) + si
			req := ports.ImageryRequest{Layer: layer, BBox: bbox, Snapshot: snap}
			g.Go(func() error {
				data, mime, err := s.client.Fetch(gCtx, req)
				if err != nil {
					metrics.ImageryFetches.WithLabelValues(req.Layer.ID, "error").Inc()
					var fetchErr *domain.ImageFetchError
					if errors.As(err, &fetchErr) {
						return err
					}
					return &domain.ImageFetchError{Layer: req.Layer.ID, Snapshot: req.Snapshot.Role, Err: err}
				}
				metrics.ImageryFetches.WithLabelValues(req.Layer.ID, "ok").Inc()
				assets[slot] = domain.ImageAsset{
					Layer:    req.Layer,
					Snapshot: req.Snapshot,
					MimeType: mime,
					Data:     data,
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

package location

import (
	"context"

	"safetravel/pkg/maps"
)

// GeocodingSampler decorates a Sampler, filling Address through a reverse
// geocoder. Geocoding failures leave the address empty.
type GeocodingSampler struct {
	next     Sampler
	geocoder maps.Geocoder
}

func NewGeocodingSampler(next Sampler, geocoder maps.Geocoder) *GeocodingSampler {
	return &GeocodingSampler{next: next, geocoder: geocoder}
}

func (g *GeocodingSampler) CurrentLocation(ctx context.Context) (*Reading, error) {
	r, err := g.next.CurrentLocation(ctx)
	if err != nil {
		return nil, err
	}
	g.enrich(ctx, r)
	return r, nil
}

func (g *GeocodingSampler) StartTracking(ctx context.Context, opts TrackingOptions) (*Subscription, error) {
	inner, err := g.next.StartTracking(ctx, opts)
	if err != nil {
		return nil, err
	}

	out := make(chan Reading, cap(inner.C))
	done := make(chan struct{})
	go func() {
		defer close(out)
		for r := range inner.C {
			g.enrich(ctx, &r)
			select {
			case out <- r:
			case <-done:
				return
			}
		}
	}()

	return newSubscription(out, func() {
		close(done)
		inner.Stop()
	}), nil
}

func (g *GeocodingSampler) enrich(ctx context.Context, r *Reading) {
	if r.Address != "" {
		return
	}
	resp, err := g.geocoder.ReverseGeocode(ctx, r.Latitude, r.Longitude)
	if err != nil {
		return
	}
	r.Address = resp.FormattedAddress()
}

// README: Provider-facing discovery listing: assigned + offered + nearby bookings.
package booking

import (
	"context"
	"errors"

	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/geo"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/types"
)

// Origin tags tell the provider's client how a booking entered the list.
const (
	OriginConfirmed = "CONFIRMED"
	OriginSpecific  = "SPECIFIC"
	OriginDiscovery = "DISCOVERY"
)

type ProviderBooking struct {
	Booking *Booking
	Origin  string
}

// ListForProvider composes three disjoint sets: bookings assigned to this
// provider, bookings offered to them through a fan-out request, and other
// PENDING bookings close enough to pick up.
//
// The discovery radius is filtered by an in-code haversine over the
// booking's snapshot coordinates: deliberately a different metric and
// radius than dispatch, which asks the geography-aware index. When no
// search point was supplied and the provider has no stored location, all
// PENDING bookings are returned unfiltered.
func (s *Service) ListForProvider(ctx context.Context, providerEmail string, at *types.Point) ([]ProviderBooking, error) {
	provider, err := s.providerByEmail(ctx, providerEmail)
	if err != nil {
		return nil, err
	}

	var out []ProviderBooking

	assigned, err := s.store.ListByProvider(ctx, provider.ID)
	if err != nil {
		return nil, err
	}
	for _, b := range assigned {
		out = append(out, ProviderBooking{Booking: b, Origin: OriginConfirmed})
	}

	offered, err := s.store.PendingRequestsByProvider(ctx, provider.ID)
	if err != nil {
		return nil, err
	}
	for _, req := range offered {
		b, err := s.store.GetBooking(ctx, req.BookingID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, ProviderBooking{Booking: b, Origin: OriginSpecific})
	}

	searchPoint := at
	if searchPoint == nil {
		searchPoint = provider.Location
	}

	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	type discovered struct {
		booking *Booking
		km      float64
	}
	var nearby []discovered
	for _, b := range pending {
		d := 0.0
		if searchPoint != nil {
			if b.Location == nil {
				continue
			}
			d = geo.HaversineKm(searchPoint.Lat, searchPoint.Lng, b.Location.Lat, b.Location.Lng)
			if d > s.cfg.DiscoveryRadiusKm {
				continue
			}
		}
		// A booking already offered to this provider shows up in the
		// SPECIFIC set; do not duplicate it here.
		exists, err := s.store.HasRequest(ctx, b.ID, provider.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		nearby = append(nearby, discovered{booking: b, km: d})
	}
	geo.SortByDistance(nearby, func(d discovered) float64 { return d.km })
	for _, d := range nearby {
		out = append(out, ProviderBooking{Booking: d.booking, Origin: OriginDiscovery})
	}

	return out, nil
}

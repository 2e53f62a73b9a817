// README: Dispatch engine: fans a new booking out to nearby providers.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/logger"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/directory"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/types"
)

// Fallback dispatch origin for bookings whose customer has no location on
// record: Hyderabad city centre. Bookings without a location still reach
// that metro's providers instead of being dispatched from (0,0).
const (
	fallbackOriginLat = 17.3850
	fallbackOriginLng = 78.4867
)

// dispatch queries the provider index around the booking's snapshot
// location and creates one PENDING request per nearby provider, all in a
// single batch. Finding no nearby providers is not an error: the booking
// stays PENDING and remains visible through discovery. The batch insert
// skips (booking, provider) pairs that already exist, so a retry after a
// failure cannot duplicate requests.
func (s *Service) dispatch(ctx context.Context, b *Booking) error {
	origin := types.Point{Lat: fallbackOriginLat, Lng: fallbackOriginLng}
	if b.Location != nil {
		origin = *b.Location
	}

	nearby, err := s.geo.NearestProviders(ctx, origin, s.cfg.RadiusMeters, s.cfg.FanoutLimit)
	if err != nil {
		return err
	}

	now := time.Now()
	reqs := make([]*Request, 0, len(nearby))
	for _, n := range nearby {
		// The index can lag the directory; skip providers that no longer exist.
		if _, err := s.dir.ProviderByID(ctx, n.ProviderID); err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				continue
			}
			return err
		}
		reqs = append(reqs, &Request{
			ID:          newID(),
			BookingID:   b.ID,
			ProviderID:  n.ProviderID,
			RequestedAt: now,
			Status:      RequestPending,
		})
	}

	if len(reqs) == 0 {
		s.log.Info("no nearby providers for booking, awaiting discovery",
			logger.String("booking_id", string(b.ID)))
		return nil
	}
	if err := s.store.CreateRequests(ctx, reqs); err != nil {
		return err
	}
	s.log.Info("booking dispatched",
		logger.String("booking_id", string(b.ID)),
		logger.Int("requests", len(reqs)))
	return nil
}

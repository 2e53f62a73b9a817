// README: Directory service: lookups plus provider location and customer address updates.
package directory

import (
	"context"
	"fmt"

	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/logger"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/types"
)

// LocationIndex receives provider position updates so proximity queries
// see them. Backed by the Redis geo index in production.
type LocationIndex interface {
	UpsertProvider(ctx context.Context, id types.ID, p types.Point) error
}

// Geocoder resolves a street address to a coordinate pair. Nil when no
// maps API key is configured; address updates then store no location.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

type Service struct {
	store    *Store
	index    LocationIndex
	geocoder Geocoder
	log      logger.ILogger
}

func NewService(store *Store, index LocationIndex, geocoder Geocoder, log logger.ILogger) *Service {
	return &Service{store: store, index: index, geocoder: geocoder, log: log}
}

func (s *Service) CustomerByID(ctx context.Context, id types.ID) (*Customer, error) {
	return s.store.CustomerByID(ctx, id)
}

func (s *Service) CustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	return s.store.CustomerByEmail(ctx, email)
}

func (s *Service) ProviderByID(ctx context.Context, id types.ID) (*Provider, error) {
	return s.store.ProviderByID(ctx, id)
}

func (s *Service) ProviderByEmail(ctx context.Context, email string) (*Provider, error) {
	return s.store.ProviderByEmail(ctx, email)
}

func (s *Service) PackageByID(ctx context.Context, id types.ID) (*Package, error) {
	return s.store.PackageByID(ctx, id)
}

// UpdateProviderLocation persists the provider's point snapshot and
// mirrors it into the geo index so dispatch sees it immediately.
func (s *Service) UpdateProviderLocation(ctx context.Context, email string, p types.Point) error {
	provider, err := s.store.ProviderByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.store.UpdateProviderLocation(ctx, provider.ID, p); err != nil {
		return err
	}
	if err := s.index.UpsertProvider(ctx, provider.ID, p); err != nil {
		return fmt.Errorf("updating geo index: %w", err)
	}
	return nil
}

// UpdateCustomerAddress stores the new address, geocoding it to a point
// when a geocoder is configured. Geocoding failure keeps the address but
// drops the location; missing location never blocks anything downstream.
func (s *Service) UpdateCustomerAddress(ctx context.Context, email, address string) error {
	customer, err := s.store.CustomerByEmail(ctx, email)
	if err != nil {
		return err
	}
	var point *types.Point
	if s.geocoder != nil {
		p, err := s.geocoder.Geocode(ctx, address)
		if err != nil {
			s.log.Warning("geocoding failed, storing address without location",
				logger.String("customer_id", string(customer.ID)), logger.Error(err))
		} else {
			point = &p
		}
	}
	return s.store.UpdateCustomerAddress(ctx, customer.ID, address, point)
}

// README: Booking service implements the lifecycle state machine and persistence.
package booking

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/config"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/logger"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/directory"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/geo"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/notify"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/types"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
)

// Store is the persistence contract of the booking module. UpdateStatus
// must commit only when the stored status and version still match the
// snapshot the caller read, reporting false on a lost race.
type Store interface {
	CreateBooking(ctx context.Context, b *Booking) error
	GetBooking(ctx context.Context, id types.ID) (*Booking, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, provider *types.ID, otp *string) (bool, error)
	ListByCustomer(ctx context.Context, customerID types.ID) ([]*Booking, error)
	ListByProvider(ctx context.Context, providerID types.ID) ([]*Booking, error)
	ListPending(ctx context.Context) ([]*Booking, error)
	CreateRequests(ctx context.Context, reqs []*Request) error
	HasRequest(ctx context.Context, bookingID, providerID types.ID) (bool, error)
	PendingRequestsByProvider(ctx context.Context, providerID types.ID) ([]*Request, error)
	ResolveRequests(ctx context.Context, bookingID, winner types.ID) error
	ExpirePendingRequests(ctx context.Context, olderThan time.Time) (int64, error)
}

// ProviderIndex answers proximity queries for dispatch and the
// confirm-time distance guard.
type ProviderIndex interface {
	NearestProviders(ctx context.Context, p types.Point, radiusMeters float64, limit int) ([]geo.Nearby, error)
	Position(ctx context.Context, id types.ID) (types.Point, bool, error)
}

// Directory resolves customers, providers and packages.
type Directory interface {
	CustomerByID(ctx context.Context, id types.ID) (*directory.Customer, error)
	CustomerByEmail(ctx context.Context, email string) (*directory.Customer, error)
	ProviderByID(ctx context.Context, id types.ID) (*directory.Provider, error)
	ProviderByEmail(ctx context.Context, email string) (*directory.Provider, error)
	PackageByID(ctx context.Context, id types.ID) (*directory.Package, error)
}

type Service struct {
	store   Store
	geo     ProviderIndex
	dir     Directory
	gateway notify.Gateway
	log     logger.ILogger
	cfg     config.DispatchConfig
}

func NewService(store Store, index ProviderIndex, dir Directory, gateway notify.Gateway, log logger.ILogger, cfg config.DispatchConfig) *Service {
	return &Service{store: store, geo: index, dir: dir, gateway: gateway, log: log, cfg: cfg}
}

type CreateCommand struct {
	CustomerEmail string
	PackageID     types.ID
}

type ConfirmCommand struct {
	BookingID     types.ID
	ProviderEmail string
}

type CancelByCustomerCommand struct {
	BookingID     types.ID
	CustomerEmail string
}

type CancelByProviderCommand struct {
	BookingID     types.ID
	ProviderEmail string
}

type CompleteCommand struct {
	BookingID     types.ID
	ProviderEmail string
	OTP           string
}

// Create persists a new PENDING booking with price and location snapshots
// and fans it out to nearby providers. A dispatch persistence failure is
// surfaced to the caller; the booking itself stays PENDING with zero
// requests and a later dispatch retry will not duplicate rows.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	customer, err := s.dir.CustomerByEmail(ctx, cmd.CustomerEmail)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer not found", ErrNotFound)
		}
		return nil, err
	}
	pkg, err := s.dir.PackageByID(ctx, cmd.PackageID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, fmt.Errorf("%w: package not found", ErrNotFound)
		}
		return nil, err
	}

	now := time.Now()
	b := &Booking{
		ID:            newID(),
		CustomerID:    customer.ID,
		PackageID:     pkg.ID,
		Status:        StatusPending,
		StatusVersion: 0,
		BookingDate:   now,
		Location:      customer.Location,
		TotalPrice:    pkg.Price,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateBooking(ctx, b); err != nil {
		return nil, err
	}

	if err := s.dispatch(ctx, b); err != nil {
		return nil, fmt.Errorf("dispatching booking %s: %w", b.ID, err)
	}
	return b, nil
}

// Confirm is acceptance by a provider. Concurrent confirms for the same
// PENDING booking race on the status version: exactly one commits, the
// rest observe ErrConflict and should re-fetch.
func (s *Service) Confirm(ctx context.Context, cmd ConfirmCommand) (*Booking, error) {
	provider, err := s.providerByEmail(ctx, cmd.ProviderEmail)
	if err != nil {
		return nil, err
	}
	b, err := s.store.GetBooking(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(b.Status, StatusConfirmed) {
		switch b.Status {
		case StatusConfirmed:
			return nil, fmt.Errorf("%w: booking already accepted by another provider", ErrConflict)
		case StatusCompleted:
			return nil, fmt.Errorf("%w: booking has already been completed", ErrConflict)
		case StatusCancelled:
			return nil, fmt.Errorf("%w: booking has been cancelled", ErrConflict)
		default:
			return nil, fmt.Errorf("%w: booking is not available for acceptance (status %s)", ErrConflict, b.Status)
		}
	}

	// Proximity guard. Missing location data on either side does not
	// block acceptance.
	if b.Location != nil && provider.Location != nil {
		d := geo.HaversineKm(provider.Location.Lat, provider.Location.Lng, b.Location.Lat, b.Location.Lng)
		if d > s.cfg.ConfirmMaxDistanceKm {
			return nil, fmt.Errorf("%w: provider is too far from customer location (%.1f km)", ErrBadRequest, d)
		}
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, err
	}

	ok, err := s.store.UpdateStatus(ctx, b.ID, StatusPending, StatusConfirmed, b.StatusVersion, &provider.ID, &otp)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: booking was modified by another provider, please refresh and try again", ErrConflict)
	}

	// Settle the fan-out: the winner's request becomes ACCEPTED, sibling
	// PENDING requests REJECTED. The booking row is the source of truth,
	// so a failure here is logged, not surfaced.
	if err := s.store.ResolveRequests(ctx, b.ID, provider.ID); err != nil {
		s.log.Warning("resolving booking requests failed",
			logger.String("booking_id", string(b.ID)), logger.Error(err))
	}

	updated, err := s.store.GetBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.notifyCustomer(ctx, updated, notify.KindBookingConfirmed, provider.Phone, otp)
	return updated, nil
}

// CancelByCustomer cancels a PENDING or CONFIRMED booking, but only
// within the cancellation window measured from the booking date.
func (s *Service) CancelByCustomer(ctx context.Context, cmd CancelByCustomerCommand) (*Booking, error) {
	customer, err := s.dir.CustomerByEmail(ctx, cmd.CustomerEmail)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer not found", ErrNotFound)
		}
		return nil, err
	}
	b, err := s.store.GetBooking(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customer.ID {
		return nil, fmt.Errorf("%w: you are not authorized to cancel this booking", ErrForbidden)
	}
	if !CanTransition(b.Status, StatusCancelled) {
		if b.Status == StatusCancelled {
			return nil, fmt.Errorf("%w: booking is already cancelled", ErrConflict)
		}
		return nil, fmt.Errorf("%w: cannot cancel a completed booking", ErrConflict)
	}
	if time.Since(b.BookingDate) > s.cfg.CancelWindow {
		return nil, fmt.Errorf("%w: bookings can only be cancelled within %s of creation", ErrConflict, s.cfg.CancelWindow)
	}

	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusCancelled, b.StatusVersion, b.ProviderID, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: booking was modified concurrently, please refresh and try again", ErrConflict)
	}

	updated, err := s.store.GetBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.notifyCustomer(ctx, updated, notify.KindBookingCancelledByCustomer, "", "")
	return updated, nil
}

// CancelByProvider cancels a booking the provider has already accepted.
func (s *Service) CancelByProvider(ctx context.Context, cmd CancelByProviderCommand) (*Booking, error) {
	provider, err := s.providerByEmail(ctx, cmd.ProviderEmail)
	if err != nil {
		return nil, err
	}
	b, err := s.store.GetBooking(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if b.ProviderID == nil || *b.ProviderID != provider.ID {
		return nil, fmt.Errorf("%w: provider not authorized for this booking", ErrForbidden)
	}
	if b.Status != StatusConfirmed {
		return nil, fmt.Errorf("%w: booking is not in CONFIRMED status", ErrBadRequest)
	}

	ok, err := s.store.UpdateStatus(ctx, b.ID, StatusConfirmed, StatusCancelled, b.StatusVersion, b.ProviderID, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: booking was modified concurrently, please refresh and try again", ErrConflict)
	}

	updated, err := s.store.GetBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.notifyCustomer(ctx, updated, notify.KindBookingCancelledByProvider, provider.Phone, "")
	if err := s.gateway.Notify(ctx, notify.Event{
		Kind:           notify.KindProviderCancelAck,
		BookingID:      updated.ID,
		RecipientName:  provider.FullName(),
		RecipientPhone: provider.Phone,
	}); err != nil {
		s.log.Warning("provider cancellation ack failed",
			logger.String("booking_id", string(updated.ID)), logger.Error(err))
	}
	return updated, nil
}

// Complete closes a CONFIRMED booking once the assigned provider supplies
// the OTP the customer received at confirmation.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (*Booking, error) {
	provider, err := s.providerByEmail(ctx, cmd.ProviderEmail)
	if err != nil {
		return nil, err
	}
	b, err := s.store.GetBooking(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if b.ProviderID == nil || *b.ProviderID != provider.ID {
		return nil, fmt.Errorf("%w: provider not authorized for this booking", ErrForbidden)
	}
	if b.Status != StatusConfirmed {
		return nil, fmt.Errorf("%w: booking is not in CONFIRMED status", ErrBadRequest)
	}
	if b.OTP == nil || *b.OTP != cmd.OTP {
		return nil, fmt.Errorf("%w: invalid OTP", ErrBadRequest)
	}

	ok, err := s.store.UpdateStatus(ctx, b.ID, StatusConfirmed, StatusCompleted, b.StatusVersion, b.ProviderID, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: booking was modified concurrently, please refresh and try again", ErrConflict)
	}

	updated, err := s.store.GetBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	// The provider initiated the completion, so only the customer is told.
	s.notifyCustomer(ctx, updated, notify.KindBookingCompleted, provider.Phone, "")
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.GetBooking(ctx, id)
}

// ListForCustomer returns all bookings owned by the customer.
func (s *Service) ListForCustomer(ctx context.Context, customerEmail string) ([]*Booking, error) {
	customer, err := s.dir.CustomerByEmail(ctx, customerEmail)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer not found", ErrNotFound)
		}
		return nil, err
	}
	return s.store.ListByCustomer(ctx, customer.ID)
}

// RunRequestExpirySweep periodically marks PENDING fan-out requests older
// than the configured TTL as EXPIRED. Bookings themselves never expire.
func (s *Service) RunRequestExpirySweep(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.ExpirePendingRequests(ctx, time.Now().Add(-s.cfg.RequestTTL))
			if err != nil {
				s.log.Error("request expiry sweep failed", logger.Error(err))
				continue
			}
			if n > 0 {
				s.log.Info("expired stale booking requests", logger.Int64("count", n))
			}
		}
	}
}

func (s *Service) providerByEmail(ctx context.Context, email string) (*directory.Provider, error) {
	provider, err := s.dir.ProviderByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, fmt.Errorf("%w: provider not found", ErrNotFound)
		}
		return nil, err
	}
	return provider, nil
}

// notifyCustomer delivers a booking notification best-effort. Gateway
// failures are logged and never affect the transition that triggered them.
func (s *Service) notifyCustomer(ctx context.Context, b *Booking, kind notify.Kind, providerPhone, otp string) {
	customer, err := s.dir.CustomerByID(ctx, b.CustomerID)
	if err != nil {
		s.log.Warning("looking up customer for notification failed",
			logger.String("booking_id", string(b.ID)), logger.Error(err))
		return
	}
	err = s.gateway.Notify(ctx, notify.Event{
		Kind:           kind,
		BookingID:      b.ID,
		RecipientName:  customer.FullName(),
		RecipientPhone: customer.Phone,
		ProviderPhone:  providerPhone,
		OTP:            otp,
	})
	if err != nil {
		s.log.Warning("notification delivery failed",
			logger.String("booking_id", string(b.ID)),
			logger.String("kind", string(kind)),
			logger.Error(err))
	}
}

func newID() types.ID {
	return types.ID(uuid.NewString())
}

// generateOTP draws a uniformly distributed six digit code from
// crypto/rand.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// README: In-memory test doubles for the booking service (store, index, directory, gateway).
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/config"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/logger"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/directory"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/geo"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/modules/notify"
	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/types"
)

// memStore is an in-memory Store honouring the optimistic concurrency
// contract, so race tests exercise the same CAS semantics as Postgres.
type memStore struct {
	mu                 sync.Mutex
	bookings           map[types.ID]*Booking
	requests           map[types.ID]*Request
	failCreateRequests bool
}

func newMemStore() *memStore {
	return &memStore{
		bookings: make(map[types.ID]*Booking),
		requests: make(map[types.ID]*Request),
	}
}

func (m *memStore) CreateBooking(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memStore) GetBooking(_ context.Context, id types.ID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking not found", ErrNotFound)
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, provider *types.ID, otp *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return false, fmt.Errorf("%w: booking not found", ErrNotFound)
	}
	if b.Status != from || b.StatusVersion != version {
		return false, nil
	}
	b.Status = to
	b.StatusVersion++
	if provider != nil {
		p := *provider
		b.ProviderID = &p
	}
	if otp != nil {
		v := *otp
		b.OTP = &v
	}
	now := time.Now()
	b.UpdatedAt = now
	if to == StatusCompleted {
		b.CompletedAt = &now
	}
	return true, nil
}

func (m *memStore) ListByCustomer(_ context.Context, customerID types.ID) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Booking
	for _, b := range m.bookings {
		if b.CustomerID == customerID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ListByProvider(_ context.Context, providerID types.ID) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Booking
	for _, b := range m.bookings {
		if b.ProviderID != nil && *b.ProviderID == providerID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ListPending(_ context.Context) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Booking
	for _, b := range m.bookings {
		if b.Status == StatusPending {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) CreateRequests(_ context.Context, reqs []*Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateRequests {
		return errors.New("simulated store failure")
	}
	for _, r := range reqs {
		if m.findRequestLocked(r.BookingID, r.ProviderID) != nil {
			continue
		}
		cp := *r
		m.requests[r.ID] = &cp
	}
	return nil
}

func (m *memStore) HasRequest(_ context.Context, bookingID, providerID types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findRequestLocked(bookingID, providerID) != nil, nil
}

func (m *memStore) PendingRequestsByProvider(_ context.Context, providerID types.ID) ([]*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Request
	for _, r := range m.requests {
		if r.ProviderID == providerID && r.Status == RequestPending {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ResolveRequests(_ context.Context, bookingID, winner types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.BookingID != bookingID || r.Status != RequestPending {
			continue
		}
		if r.ProviderID == winner {
			r.Status = RequestAccepted
		} else {
			r.Status = RequestRejected
		}
	}
	return nil
}

func (m *memStore) ExpirePendingRequests(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.requests {
		if r.Status == RequestPending && r.RequestedAt.Before(olderThan) {
			r.Status = RequestExpired
			n++
		}
	}
	return n, nil
}

func (m *memStore) findRequestLocked(bookingID, providerID types.ID) *Request {
	for _, r := range m.requests {
		if r.BookingID == bookingID && r.ProviderID == providerID {
			return r
		}
	}
	return nil
}

func (m *memStore) requestsForBooking(bookingID types.ID) []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Request
	for _, r := range m.requests {
		if r.BookingID == bookingID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

func (m *memStore) setBookingDate(id types.ID, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		b.BookingDate = t
	}
}

// fakeIndex answers proximity queries from a static provider map using
// the same haversine helper as production code.
type fakeIndex struct {
	mu        sync.Mutex
	providers map[types.ID]types.Point
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{providers: make(map[types.ID]types.Point)}
}

func (f *fakeIndex) set(id types.ID, p types.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers[id] = p
}

func (f *fakeIndex) NearestProviders(_ context.Context, p types.Point, radiusMeters float64, limit int) ([]geo.Nearby, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []geo.Nearby
	for id, pos := range f.providers {
		d := geo.HaversineKm(p.Lat, p.Lng, pos.Lat, pos.Lng) * 1000
		if d <= radiusMeters {
			out = append(out, geo.Nearby{ProviderID: id, DistanceM: d})
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].DistanceM > out[j].DistanceM; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeIndex) Position(_ context.Context, id types.ID) (types.Point, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.providers[id]
	return p, ok, nil
}

// fakeDirectory serves customers, providers and packages from maps.
type fakeDirectory struct {
	customers map[types.ID]*directory.Customer
	providers map[types.ID]*directory.Provider
	packages  map[types.ID]*directory.Package
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		customers: make(map[types.ID]*directory.Customer),
		providers: make(map[types.ID]*directory.Provider),
		packages:  make(map[types.ID]*directory.Package),
	}
}

func (f *fakeDirectory) CustomerByID(_ context.Context, id types.ID) (*directory.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return c, nil
}

func (f *fakeDirectory) CustomerByEmail(_ context.Context, email string) (*directory.Customer, error) {
	for _, c := range f.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (f *fakeDirectory) ProviderByID(_ context.Context, id types.ID) (*directory.Provider, error) {
	p, ok := f.providers[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return p, nil
}

func (f *fakeDirectory) ProviderByEmail(_ context.Context, email string) (*directory.Provider, error) {
	for _, p := range f.providers {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (f *fakeDirectory) PackageByID(_ context.Context, id types.ID) (*directory.Package, error) {
	p, ok := f.packages[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return p, nil
}

// recordingGateway captures every event; set fail to simulate a broken
// SMS relay.
type recordingGateway struct {
	mu     sync.Mutex
	events []notify.Event
	fail   bool
}

func (g *recordingGateway) Notify(_ context.Context, e notify.Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return errors.New("simulated delivery failure")
	}
	g.events = append(g.events, e)
	return nil
}

func (g *recordingGateway) sent() []notify.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := make([]notify.Event, len(g.events))
	copy(cp, g.events)
	return cp
}

type fixture struct {
	store *memStore
	index *fakeIndex
	dir   *fakeDirectory
	gw    *recordingGateway
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: newMemStore(),
		index: newFakeIndex(),
		dir:   newFakeDirectory(),
		gw:    &recordingGateway{},
	}
	cfg := config.DispatchConfig{
		RadiusMeters:         5000,
		FanoutLimit:          5,
		DiscoveryRadiusKm:    50,
		ConfirmMaxDistanceKm: 10,
		CancelWindow:         10 * time.Minute,
		RequestTTL:           24 * time.Hour,
		SweepInterval:        time.Minute,
	}
	f.svc = NewService(f.store, f.index, f.dir, f.gw, logger.Nop(), cfg)
	return f
}

func (f *fixture) addCustomer(id types.ID, email, phone string, loc *types.Point) {
	f.dir.customers[id] = &directory.Customer{
		ID: id, Email: email, FirstName: "Test", LastName: "Customer",
		Phone: phone, Location: loc,
	}
}

// addProvider registers the provider in the directory and, when it has a
// location, in the geo index.
func (f *fixture) addProvider(id types.ID, email string, loc *types.Point) {
	f.dir.providers[id] = &directory.Provider{
		ID: id, Email: email, Phone: "+910000000000", Location: loc,
	}
	if loc != nil {
		f.index.set(id, *loc)
	}
}

func (f *fixture) addPackage(id, providerID types.ID, priceAmount int64) {
	f.dir.packages[id] = &directory.Package{
		ID: id, ProviderID: providerID, Name: "Grooming",
		Price: types.Money{Amount: priceAmount, Currency: "INR"},
	}
}

func point(lat, lng float64) *types.Point {
	return &types.Point{Lat: lat, Lng: lng}
}

// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateBooking(ctx context.Context, b *Booking) error {
	var lat, lng *float64
	if b.Location != nil {
		lat, lng = &b.Location.Lat, &b.Location.Lng
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, customer_id, package_id, provider_id, status, status_version,
			booking_date, lat, lng, total_price, currency, otp,
			created_at, updated_at, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15
		)`,
		string(b.ID),
		string(b.CustomerID),
		string(b.PackageID),
		toStringPtr(b.ProviderID),
		string(b.Status),
		b.StatusVersion,
		b.BookingDate,
		lat, lng,
		b.TotalPrice.Amount,
		b.TotalPrice.Currency,
		b.OTP,
		b.CreatedAt,
		b.UpdatedAt,
		b.CompletedAt,
	)
	return err
}

const bookingColumns = `
	id, customer_id, package_id, provider_id, status, status_version,
	booking_date, lat, lng, total_price, currency, otp,
	created_at, updated_at, completed_at`

func (s *PGStore) GetBooking(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: booking not found", ErrNotFound)
	}
	return b, err
}

// UpdateStatus commits from→to under the optimistic concurrency token:
// the row must still carry the status and version the caller read, else
// zero rows match and the caller sees a lost race.
func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, provider *types.ID, otp *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    provider_id = COALESCE($2, provider_id),
		    otp = COALESCE($3, otp),
		    updated_at = NOW(),
		    completed_at = CASE WHEN $1 = 'COMPLETED' THEN NOW() ELSE completed_at END
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(to),
		toStringPtr(provider),
		otp,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) ListByCustomer(ctx context.Context, customerID types.ID) ([]*Booking, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE customer_id = $1 ORDER BY created_at DESC`,
		string(customerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (s *PGStore) ListByProvider(ctx context.Context, providerID types.ID) ([]*Booking, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE provider_id = $1 ORDER BY created_at DESC`,
		string(providerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (s *PGStore) ListPending(ctx context.Context) ([]*Booking, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE status = 'PENDING' ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

// CreateRequests persists the fan-out in one batch. Existing
// (booking, provider) pairs are left untouched so re-dispatching after a
// partial failure is safe.
func (s *PGStore) CreateRequests(ctx context.Context, reqs []*Request) error {
	if len(reqs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range reqs {
		batch.Queue(`
			INSERT INTO booking_requests (id, booking_id, provider_id, requested_at, status)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (booking_id, provider_id) DO NOTHING`,
			string(r.ID), string(r.BookingID), string(r.ProviderID), r.RequestedAt, string(r.Status))
	}
	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for range reqs {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (s *PGStore) HasRequest(ctx context.Context, bookingID, providerID types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM booking_requests
			WHERE booking_id = $1 AND provider_id = $2
		)`, string(bookingID), string(providerID))
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *PGStore) PendingRequestsByProvider(ctx context.Context, providerID types.ID) ([]*Request, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, booking_id, provider_id, requested_at, status
		FROM booking_requests
		WHERE provider_id = $1 AND status = 'PENDING'
		ORDER BY requested_at`, string(providerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		var r Request
		if err := rows.Scan(&r.ID, &r.BookingID, &r.ProviderID, &r.RequestedAt, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// ResolveRequests settles a booking's fan-out after a winning confirm.
func (s *PGStore) ResolveRequests(ctx context.Context, bookingID, winner types.ID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE booking_requests
		SET status = CASE WHEN provider_id = $1 THEN 'ACCEPTED' ELSE 'REJECTED' END
		WHERE booking_id = $2 AND status = 'PENDING'`,
		string(winner), string(bookingID))
	return err
}

func (s *PGStore) ExpirePendingRequests(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE booking_requests
		SET status = 'EXPIRED'
		WHERE status = 'PENDING' AND requested_at < $1`,
		olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanBookings(rows pgx.Rows) ([]*Booking, error) {
	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var providerID, otp sql.NullString
	var lat, lng sql.NullFloat64
	var completedAt sql.NullTime

	err := row.Scan(
		&b.ID, &b.CustomerID, &b.PackageID, &providerID, &b.Status, &b.StatusVersion,
		&b.BookingDate, &lat, &lng, &b.TotalPrice.Amount, &b.TotalPrice.Currency, &otp,
		&b.CreatedAt, &b.UpdatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if providerID.Valid {
		p := types.ID(providerID.String)
		b.ProviderID = &p
	}
	if otp.Valid {
		b.OTP = &otp.String
	}
	if lat.Valid && lng.Valid {
		b.Location = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	if completedAt.Valid {
		t := completedAt.Time
		b.CompletedAt = &t
	}
	return &b, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

// README: Directory store backed by PostgreSQL.
package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AKULA-V-S-S-V-D-DURGAPRASAD/furryhubtail-backend/internal/types"
)

var ErrNotFound = errors.New("directory: not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) CustomerByID(ctx context.Context, id types.ID) (*Customer, error) {
	return s.scanCustomer(s.db.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, phone, address, lat, lng
		FROM customers WHERE id = $1`, string(id)))
}

func (s *Store) CustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	return s.scanCustomer(s.db.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, phone, address, lat, lng
		FROM customers WHERE email = $1`, email))
}

func (s *Store) scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	var lat, lng *float64
	err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone, &c.Address, &lat, &lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		c.Location = &types.Point{Lat: *lat, Lng: *lng}
	}
	return &c, nil
}

func (s *Store) ProviderByID(ctx context.Context, id types.ID) (*Provider, error) {
	return s.scanProvider(s.db.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, phone, store_name, specialization, lat, lng
		FROM providers WHERE id = $1`, string(id)))
}

func (s *Store) ProviderByEmail(ctx context.Context, email string) (*Provider, error) {
	return s.scanProvider(s.db.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, phone, store_name, specialization, lat, lng
		FROM providers WHERE email = $1`, email))
}

func (s *Store) scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	var lat, lng *float64
	err := row.Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Phone, &p.StoreName, &p.Specialization, &lat, &lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		p.Location = &types.Point{Lat: *lat, Lng: *lng}
	}
	return &p, nil
}

func (s *Store) PackageByID(ctx context.Context, id types.ID) (*Package, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, provider_id, name, description, price, currency
		FROM packages WHERE id = $1`, string(id))
	var p Package
	err := row.Scan(&p.ID, &p.ProviderID, &p.Name, &p.Description, &p.Price.Amount, &p.Price.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProviderLocation(ctx context.Context, id types.ID, p types.Point) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE providers SET lat = $1, lng = $2 WHERE id = $3`,
		p.Lat, p.Lng, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateCustomerAddress(ctx context.Context, id types.ID, address string, p *types.Point) error {
	var lat, lng *float64
	if p != nil {
		lat, lng = &p.Lat, &p.Lng
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE customers SET address = $1, lat = $2, lng = $3 WHERE id = $4`,
		address, lat, lng, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

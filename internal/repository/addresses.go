package repository

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/models"
)

// AddressRepository persists users' delivery address books.
type AddressRepository struct {
	logger *zap.Logger
}

// NewAddressRepository creates a Postgres-backed address repository.
func NewAddressRepository(logger *zap.Logger) *AddressRepository {
	return &AddressRepository{logger: logger}
}

const addressColumns = `
	id, user_id, label, street, number, complement, district, city, state,
	postal_code, is_default, created_at
`

// FindByID returns the address iff it exists and belongs to ownerID,
// otherwise nil.
func (r *AddressRepository) FindByID(ctx context.Context, db DBTX, id, ownerID string) (*models.Address, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE id = $1 AND user_id = $2",
		id, ownerID,
	)
	return scanAddress(row)
}

// FindDefault returns the owner's designated default address, or nil when
// none is flagged.
func (r *AddressRepository) FindDefault(ctx context.Context, db DBTX, ownerID string) (*models.Address, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE user_id = $1 AND is_default = TRUE",
		ownerID,
	)
	return scanAddress(row)
}

// ListByOwner returns all of the owner's addresses, default first.
func (r *AddressRepository) ListByOwner(ctx context.Context, db DBTX, ownerID string) ([]*models.Address, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at",
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	addresses := make([]*models.Address, 0)
	for rows.Next() {
		addr, err := scanAddressRows(rows)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, addr)
	}
	return addresses, rows.Err()
}

// Create inserts a new address. The first address a user creates becomes the
// default automatically.
func (r *AddressRepository) Create(ctx context.Context, db DBTX, addr *models.Address) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO addresses (
			id, user_id, label, street, number, complement, district, city,
			state, postal_code, is_default, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			NOT EXISTS (SELECT 1 FROM addresses WHERE user_id = $2), NOW()
		)
	`,
		addr.ID, addr.UserID, addr.Label, addr.Street, addr.Number,
		addr.Complement, addr.District, addr.City, addr.State, addr.PostalCode,
	)
	return err
}

// SetDefault flags one of the owner's addresses as default, clearing the
// previous flag. Returns sql.ErrNoRows when the address is not the owner's.
func (r *AddressRepository) SetDefault(ctx context.Context, tx DBTX, id, ownerID string) error {
	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM addresses WHERE id = $1 AND user_id = $2)`,
		id, ownerID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return sql.ErrNoRows
	}

	_, err := tx.ExecContext(ctx,
		`UPDATE addresses SET is_default = (id = $1) WHERE user_id = $2`,
		id, ownerID,
	)
	return err
}

func scanAddress(row *sql.Row) (*models.Address, error) {
	var addr models.Address
	var label, complement sql.NullString

	err := row.Scan(
		&addr.ID, &addr.UserID, &label, &addr.Street, &addr.Number,
		&complement, &addr.District, &addr.City, &addr.State,
		&addr.PostalCode, &addr.IsDefault, &addr.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	addr.Label = label.String
	addr.Complement = complement.String
	return &addr, nil
}

func scanAddressRows(rows *sql.Rows) (*models.Address, error) {
	var addr models.Address
	var label, complement sql.NullString

	err := rows.Scan(
		&addr.ID, &addr.UserID, &label, &addr.Street, &addr.Number,
		&complement, &addr.District, &addr.City, &addr.State,
		&addr.PostalCode, &addr.IsDefault, &addr.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	addr.Label = label.String
	addr.Complement = complement.String
	return &addr, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/feiradireta/feiradireta-api/internal/apperrors"
	"github.com/feiradireta/feiradireta-api/internal/models"
	"github.com/feiradireta/feiradireta-api/internal/repository"
)

// AddressService maintains users' delivery address books.
type AddressService struct {
	db        repository.DBTX
	addresses AddressStore
	logger    *zap.Logger
}

// NewAddressService wires the address service.
func NewAddressService(db repository.DBTX, addresses AddressStore, logger *zap.Logger) *AddressService {
	return &AddressService{
		db:        db,
		addresses: addresses,
		logger:    logger,
	}
}

// ListAddresses returns the owner's address book, default first.
func (s *AddressService) ListAddresses(ctx context.Context, ownerID string) ([]*models.Address, error) {
	return s.addresses.ListByOwner(ctx, s.db, ownerID)
}

// CreateAddress adds an address to the owner's book. The first address
// becomes the default.
func (s *AddressService) CreateAddress(ctx context.Context, addr *models.Address) (*models.Address, error) {
	switch {
	case addr.Street == "":
		return nil, apperrors.NewValidationError("street", "is required")
	case addr.Number == "":
		return nil, apperrors.NewValidationError("number", "is required")
	case addr.District == "":
		return nil, apperrors.NewValidationError("district", "is required")
	case addr.City == "":
		return nil, apperrors.NewValidationError("city", "is required")
	case addr.State == "":
		return nil, apperrors.NewValidationError("state", "is required")
	case addr.PostalCode == "":
		return nil, apperrors.NewValidationError("postal_code", "is required")
	}

	addr.ID = models.NewID("adr")
	if err := s.addresses.Create(ctx, s.db, addr); err != nil {
		return nil, err
	}

	created, err := s.addresses.FindByID(ctx, s.db, addr.ID, addr.UserID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return addr, nil
	}
	return created, nil
}

// SetDefaultAddress flags one of the owner's addresses as the default used
// when checkout receives no explicit address.
func (s *AddressService) SetDefaultAddress(ctx context.Context, ownerID, addressID string) error {
	err := s.addresses.SetDefault(ctx, s.db, addressID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrAddressNotFound
	}
	return err
}

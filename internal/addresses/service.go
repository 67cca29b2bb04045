package addresses

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/namprobe/nekovi-checkout/pkg/db/models"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
)

// Service exposes address reads for checkout.
type Service interface {
	List(ctx context.Context, customerID uuid.UUID) ([]models.Address, error)
	Get(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error)
}

type service struct {
	repo Repository
}

// NewService builds the address service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("addresses repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, customerID uuid.UUID) ([]models.Address, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	rows, err := s.repo.List(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindByID(ctx, customerID, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find address")
	}
	return address, nil
}

package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"pharmastock/internal/domain"
	apperrors "pharmastock/internal/errors"
)

type Repository interface {
	FindByID(ctx context.Context, id int) (*domain.Product, error)
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []int) ([]domain.Product, error)
}

type ProductService struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *ProductService {
	return &ProductService{repo: repo, logger: logger}
}

func (s *ProductService) FindByID(ctx context.Context, id int) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// ResolveName maps a catalog name to its product. Missing, deleted and
// inactive products are all reported as UNKNOWN_PRODUCT.
func (s *ProductService) ResolveName(ctx context.Context, name string) (*domain.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewInventoryError(apperrors.KindInvalidRow, "product name is empty")
	}

	p, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil, apperrors.NewInventoryError(apperrors.KindUnknownProduct, "no product named %q", name)
		}
		s.logger.Error("resolving product name", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	if !p.IsSellable() {
		return nil, apperrors.NewInventoryError(apperrors.KindUnknownProduct, "product %q is not active", name)
	}
	return p, nil
}

func (s *ProductService) GetProductsByIDs(ctx context.Context, ids []int) ([]domain.Product, []int, error) {
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	foundSet := make(map[int]struct{}, len(found))
	for _, p := range found {
		foundSet[p.ID] = struct{}{}
	}

	var notFoundIDs []int
	for _, id := range ids {
		if _, ok := foundSet[id]; !ok {
			notFoundIDs = append(notFoundIDs, id)
		}
	}

	return found, notFoundIDs, nil
}

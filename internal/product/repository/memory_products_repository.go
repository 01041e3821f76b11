package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"pharmastock/internal/domain"
	apperrors "pharmastock/internal/errors"
)

// MemoryRepository is a catalog held in process, used with the memory
// storage driver and in tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[int]domain.Product
}

func NewMemoryRepository(products ...domain.Product) *MemoryRepository {
	r := &MemoryRepository{products: make(map[int]domain.Product, len(products))}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

// Put adds or replaces a product.
func (r *MemoryRepository) Put(p domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

func (r *MemoryRepository) FindByID(ctx context.Context, id int) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok || p.IsDeleted {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product %d not found", id))
	}
	return &p, nil
}

func (r *MemoryRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name = strings.TrimSpace(name)
	var best *domain.Product
	for _, p := range r.products {
		if p.IsDeleted || !strings.EqualFold(p.Name, name) {
			continue
		}
		if best == nil || p.ID < best.ID {
			best = &p
		}
	}
	if best == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product %q not found", name))
	}
	return best, nil
}

func (r *MemoryRepository) FindByIDs(ctx context.Context, ids []int) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int]struct{}, len(ids))
	var products []domain.Product
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := r.products[id]; ok && !p.IsDeleted {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

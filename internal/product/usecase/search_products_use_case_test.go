package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmastock/internal/domain"
	"pharmastock/internal/dto"
)

type mockService struct {
	GetProductsByIDsFunc func(ctx context.Context, ids []int) ([]domain.Product, []int, error)
}

func (m *mockService) GetProductsByIDs(ctx context.Context, ids []int) ([]domain.Product, []int, error) {
	return m.GetProductsByIDsFunc(ctx, ids)
}

func TestSearchProducts_MapsProducts(t *testing.T) {
	svc := &mockService{
		GetProductsByIDsFunc: func(ctx context.Context, ids []int) ([]domain.Product, []int, error) {
			return []domain.Product{
				{ID: 1, Name: "Aspirin", Price: decimal.RequireFromString("2.50"), IsActive: true},
				{ID: 2, Name: "Paused", IsActive: false},
			}, nil, nil
		},
	}

	resp, err := NewSearchUseCase(svc).SearchProducts(context.Background(), dto.SearchProductsRequest{ProductIDs: []int{1, 2}})
	require.NoError(t, err)
	require.Len(t, resp.Products, 2)
	assert.True(t, resp.Products[0].IsActive)
	assert.False(t, resp.Products[1].IsActive)
	assert.NotNil(t, resp.NotFound)
	assert.Empty(t, resp.NotFound)
}

//go:generate go run go.uber.org/mock/mockgen -source=product_inquiry.go -destination=../mocks/mock_product_inquiry.go -package=mocks
package port

import (
	"context"

	"github.com/rl1809/restaurant/internal/core/domain"
)

type ProductInquiry interface {
	// GetProduct returns nil without error when the product does not exist.
	GetProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error)
}

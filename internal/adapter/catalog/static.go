package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rl1809/restaurant/internal/core/domain"
)

type productFile struct {
	Products []struct {
		ID         string `yaml:"id"`
		Name       string `yaml:"name"`
		PriceCents int64  `yaml:"price_cents"`
	} `yaml:"products"`
}

// LoadProducts reads a YAML product list from path.
func LoadProducts(path string) ([]domain.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseProducts(data)
}

func ParseProducts(data []byte) ([]domain.Product, error) {
	var file productFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	products := make([]domain.Product, 0, len(file.Products))
	for i, p := range file.Products {
		id, err := domain.ParseProductID(p.ID)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		products = append(products, domain.Product{ID: id, Name: p.Name, PriceCents: p.PriceCents})
	}
	return products, nil
}

// StaticInquiry answers lookups from a fixed product set.
type StaticInquiry struct {
	products map[domain.ProductID]domain.Product
}

func NewStaticInquiry(products []domain.Product) *StaticInquiry {
	s := &StaticInquiry{products: make(map[domain.ProductID]domain.Product, len(products))}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *StaticInquiry) GetProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *StaticInquiry) Len() int { return len(s.products) }

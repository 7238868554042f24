package domain

// Product is the catalog view of a product an order can reference.
type Product struct {
	ID         ProductID `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	PriceCents int64     `json:"price_cents" yaml:"price_cents"`
}

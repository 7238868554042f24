package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// OrderID identifies an Order aggregate. It is minted by the caller when the
// order is created and never reassigned.
type OrderID struct{ uuid.UUID }

// TableID identifies a Table aggregate.
type TableID struct{ uuid.UUID }

// ProductID identifies a catalog product referenced by an order.
type ProductID struct{ uuid.UUID }

func NewOrderID() OrderID     { return OrderID{uuid.New()} }
func NewTableID() TableID     { return TableID{uuid.New()} }
func NewProductID() ProductID { return ProductID{uuid.New()} }

func ParseOrderID(s string) (OrderID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return OrderID{}, fmt.Errorf("parse order id %q: %w", s, err)
	}
	return OrderID{id}, nil
}

func ParseTableID(s string) (TableID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TableID{}, fmt.Errorf("parse table id %q: %w", s, err)
	}
	return TableID{id}, nil
}

func ParseProductID(s string) (ProductID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ProductID{}, fmt.Errorf("parse product id %q: %w", s, err)
	}
	return ProductID{id}, nil
}

// IsZero reports whether the id was never minted.
func (id OrderID) IsZero() bool   { return id.UUID == uuid.Nil }
func (id TableID) IsZero() bool   { return id.UUID == uuid.Nil }
func (id ProductID) IsZero() bool { return id.UUID == uuid.Nil }

// Quantity is a signed product count. Negative values are accepted as is.
type Quantity int32

// TableName is the display name of a table.
type TableName string

func (n TableName) String() string { return string(n) }

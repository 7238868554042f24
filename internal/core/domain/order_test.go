package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrder_Lifecycle(t *testing.T) {
	req := require.New(t)
	id := NewOrderID()
	table := NewTableID()
	p1, p2 := NewProductID(), NewProductID()

	// Given an order built from its creation command
	order, err := NewOrder(id, CreateOrder{Table: table})
	req.NoError(err)
	req.Equal(StatusUninstantiated, order.Status())

	// When the creation event is applied
	evt, err := order.Validate(CreateOrder{Table: table})
	req.NoError(err)
	req.Equal(OrderCreated{ID: id, Table: table}, evt)
	req.Equal(Continue, order.Apply(evt))
	req.Equal(StatusActive, order.Status())

	// And two batches of products are added
	for _, batch := range []map[ProductID]Quantity{{p1: 2}, {p2: 1}} {
		evt, err = order.Validate(AddProducts{Products: batch})
		req.NoError(err)
		req.Equal(Continue, order.Apply(evt))
	}

	// Then each batch is kept separately
	req.Equal([]map[ProductID]Quantity{{p1: 2}, {p2: 1}}, order.Products())

	// When the order is settled
	evt, err = order.Validate(SettleOrder{})
	req.NoError(err)
	req.Equal(OrderSettled{ID: id, Table: table}, evt)
	req.Equal(Terminate, order.Apply(evt))
	req.Equal(StatusTerminal, order.Status())
}

func TestOrder_Validate_Rejects_Commands_Before_Creation(t *testing.T) {
	req := require.New(t)
	order, err := NewOrder(NewOrderID(), CreateOrder{Table: NewTableID()})
	req.NoError(err)

	_, err = order.Validate(AddProducts{Products: map[ProductID]Quantity{NewProductID(): 1}})
	req.ErrorIs(err, ErrValidation)

	_, err = order.Validate(SettleOrder{})
	req.ErrorIs(err, ErrValidation)
	req.Empty(order.Products())
}

func TestOrder_Validate_Rejects_Second_Creation(t *testing.T) {
	req := require.New(t)
	order, err := OrderFromHistory(OrderCreated{ID: NewOrderID(), Table: NewTableID()})
	req.NoError(err)

	_, err = order.Validate(CreateOrder{Table: NewTableID()})
	req.ErrorIs(err, ErrValidation)
}

func TestOrder_Validate_Does_Not_Alias_Command_Products(t *testing.T) {
	req := require.New(t)
	order, err := OrderFromHistory(OrderCreated{ID: NewOrderID(), Table: NewTableID()})
	req.NoError(err)
	p := NewProductID()
	batch := map[ProductID]Quantity{p: 3}

	evt, err := order.Validate(AddProducts{Products: batch})
	req.NoError(err)
	order.Apply(evt)
	batch[p] = 99

	req.Equal(Quantity(3), order.Products()[0][p])
}

func TestOrder_Accepts_Negative_Quantity(t *testing.T) {
	req := require.New(t)
	order, err := OrderFromHistory(OrderCreated{ID: NewOrderID(), Table: NewTableID()})
	req.NoError(err)

	_, err = order.Validate(AddProducts{Products: map[ProductID]Quantity{NewProductID(): -4}})
	req.NoError(err)
}

func TestNewOrder_Requires_Creation_Command(t *testing.T) {
	_, err := NewOrder(NewOrderID(), SettleOrder{})
	require.ErrorIs(t, err, ErrFormation)
}

func TestOrderFromHistory_Requires_Created_First(t *testing.T) {
	_, err := OrderFromHistory(ProductsAdded{ID: NewOrderID()})
	require.ErrorIs(t, err, ErrFormation)
}

func TestOrderCodec_Keeps_Product_Batches(t *testing.T) {
	req := require.New(t)
	codec := OrderCodec{}
	p := NewProductID()
	evt := ProductsAdded{ID: NewOrderID(), Products: map[ProductID]Quantity{p: 7}}

	tag, payload, err := codec.Encode(evt)
	req.NoError(err)
	req.Equal(TagProductsAdded, tag)
	req.Contains(string(payload), p.String())

	decoded, err := codec.Decode(tag, payload)
	req.NoError(err)
	req.Equal(evt, decoded)
}

func TestOrderCodec_Unknown_Tag(t *testing.T) {
	_, err := OrderCodec{}.Decode("order.unknown", []byte(`{}`))
	require.ErrorIs(t, err, ErrUnknownEvent)
}

package domain

import (
	"fmt"
	"maps"
)

const (
	TagOrderCreated  = "order.created"
	TagProductsAdded = "order.products_added"
	TagOrderSettled  = "order.settled"
)

// OrderCommand is a request to change an Order.
type OrderCommand interface {
	CommandName() string
}

type CreateOrder struct {
	Table TableID
}

type AddProducts struct {
	Products map[ProductID]Quantity
}

type SettleOrder struct{}

func (CreateOrder) CommandName() string { return "create_order" }
func (AddProducts) CommandName() string { return "add_products" }
func (SettleOrder) CommandName() string { return "settle_order" }

// OrderEvent is a fact recorded in an Order's event log.
type OrderEvent interface {
	EventTag() string
	orderEvent()
}

type OrderCreated struct {
	ID    OrderID `json:"id"`
	Table TableID `json:"table"`
}

type ProductsAdded struct {
	ID       OrderID                `json:"id"`
	Products map[ProductID]Quantity `json:"products"`
}

type OrderSettled struct {
	ID    OrderID `json:"id"`
	Table TableID `json:"table_id"`
}

func (OrderCreated) EventTag() string  { return TagOrderCreated }
func (ProductsAdded) EventTag() string { return TagProductsAdded }
func (OrderSettled) EventTag() string  { return TagOrderSettled }

func (OrderCreated) orderEvent()  {}
func (ProductsAdded) orderEvent() {}
func (OrderSettled) orderEvent()  {}

func (OrderCreated) Genesis() {}

// Order is a customer order placed at a table. Products holds one batch per
// accepted AddProducts command, in acceptance order.
type Order struct {
	id       OrderID
	table    TableID
	products []map[ProductID]Quantity
	status   Status
}

// NewOrder builds the not yet persisted state of an order from its creation
// command.
func NewOrder(id OrderID, cmd OrderCommand) (*Order, error) {
	create, ok := cmd.(CreateOrder)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a creation command", ErrFormation, cmd.CommandName())
	}
	return &Order{id: id, table: create.Table}, nil
}

// OrderFromHistory builds an order from the first record of its log.
func OrderFromHistory(evt OrderEvent) (*Order, error) {
	created, ok := evt.(OrderCreated)
	if !ok {
		return nil, fmt.Errorf("%w: order history starts with %s", ErrFormation, evt.EventTag())
	}
	o := &Order{id: created.ID, table: created.Table}
	o.Apply(created)
	return o, nil
}

func (o *Order) AggregateID() string { return o.id.String() }
func (o *Order) ID() OrderID         { return o.id }
func (o *Order) Table() TableID      { return o.table }
func (o *Order) Status() Status      { return o.status }

// Products returns a deep copy of the product batches.
func (o *Order) Products() []map[ProductID]Quantity {
	out := make([]map[ProductID]Quantity, len(o.products))
	for i, batch := range o.products {
		out[i] = maps.Clone(batch)
	}
	return out
}

// Validate turns a command into the event it would produce. It never
// mutates the order.
func (o *Order) Validate(cmd OrderCommand) (OrderEvent, error) {
	switch c := cmd.(type) {
	case CreateOrder:
		if o.status != StatusUninstantiated {
			return nil, fmt.Errorf("%w: order %s already created", ErrValidation, o.id)
		}
		return OrderCreated{ID: o.id, Table: c.Table}, nil
	case AddProducts:
		if o.status != StatusActive {
			return nil, fmt.Errorf("%w: cannot add products to %s order %s", ErrValidation, o.status, o.id)
		}
		return ProductsAdded{ID: o.id, Products: maps.Clone(c.Products)}, nil
	case SettleOrder:
		if o.status != StatusActive {
			return nil, fmt.Errorf("%w: cannot settle %s order %s", ErrValidation, o.status, o.id)
		}
		return OrderSettled{ID: o.id, Table: o.table}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported order command %T", ErrValidation, cmd)
	}
}

// Apply mutates the order with an already validated event.
func (o *Order) Apply(evt OrderEvent) Directive {
	switch e := evt.(type) {
	case OrderCreated:
		o.table = e.Table
		o.status = StatusActive
	case ProductsAdded:
		o.products = append(o.products, maps.Clone(e.Products))
	case OrderSettled:
		o.status = StatusTerminal
		return Terminate
	}
	return Continue
}

// OrderView is a detached, serialisable copy of an order.
type OrderView struct {
	ID       OrderID                  `json:"id"`
	Table    TableID                  `json:"table"`
	Products []map[ProductID]Quantity `json:"products"`
	Status   string                   `json:"status"`
}

func (o *Order) View() OrderView {
	return OrderView{
		ID:       o.id,
		Table:    o.table,
		Products: o.Products(),
		Status:   o.status.String(),
	}
}

// OrderCodec stores order events as JSON.
type OrderCodec struct{}

func (OrderCodec) Encode(evt OrderEvent) (string, []byte, error) {
	return encodePayload(evt.EventTag(), evt)
}

func (OrderCodec) Decode(tag string, payload []byte) (OrderEvent, error) {
	switch tag {
	case TagOrderCreated:
		return decodePayload[OrderCreated](tag, payload)
	case TagProductsAdded:
		return decodePayload[ProductsAdded](tag, payload)
	case TagOrderSettled:
		return decodePayload[OrderSettled](tag, payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, tag)
	}
}

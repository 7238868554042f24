package domain

import "fmt"

const (
	TagTableRegistered   = "table.registered"
	TagTableRenamed      = "table.renamed"
	TagTableDeregistered = "table.deregistered"
)

// TableCommand is a request to change a Table.
type TableCommand interface {
	CommandName() string
}

type RegisterTable struct {
	Name TableName
}

type RenameTable struct {
	Name TableName
}

type DeregisterTable struct{}

func (RegisterTable) CommandName() string   { return "register_table" }
func (RenameTable) CommandName() string     { return "rename_table" }
func (DeregisterTable) CommandName() string { return "deregister_table" }

// TableEvent is a fact recorded in a Table's event log.
type TableEvent interface {
	EventTag() string
	tableEvent()
}

type TableRegistered struct {
	ID   TableID   `json:"id"`
	Name TableName `json:"name"`
}

type TableRenamed struct {
	ID   TableID   `json:"id"`
	Name TableName `json:"name"`
}

type TableDeregistered struct {
	ID TableID `json:"id"`
}

func (TableRegistered) EventTag() string   { return TagTableRegistered }
func (TableRenamed) EventTag() string      { return TagTableRenamed }
func (TableDeregistered) EventTag() string { return TagTableDeregistered }

func (TableRegistered) tableEvent()   {}
func (TableRenamed) tableEvent()      {}
func (TableDeregistered) tableEvent() {}

func (TableRegistered) Genesis() {}

// Table is a dining table. Its name is the only mutable field.
type Table struct {
	id     TableID
	name   TableName
	status Status
}

func NewTable(id TableID, cmd TableCommand) (*Table, error) {
	register, ok := cmd.(RegisterTable)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a creation command", ErrFormation, cmd.CommandName())
	}
	return &Table{id: id, name: register.Name}, nil
}

func TableFromHistory(evt TableEvent) (*Table, error) {
	registered, ok := evt.(TableRegistered)
	if !ok {
		return nil, fmt.Errorf("%w: table history starts with %s", ErrFormation, evt.EventTag())
	}
	t := &Table{id: registered.ID}
	t.Apply(registered)
	return t, nil
}

func (t *Table) AggregateID() string { return t.id.String() }
func (t *Table) ID() TableID         { return t.id }
func (t *Table) Name() TableName     { return t.name }
func (t *Table) Status() Status      { return t.status }

func (t *Table) Validate(cmd TableCommand) (TableEvent, error) {
	switch c := cmd.(type) {
	case RegisterTable:
		if t.status != StatusUninstantiated {
			return nil, fmt.Errorf("%w: table %s already registered", ErrValidation, t.id)
		}
		return TableRegistered{ID: t.id, Name: c.Name}, nil
	case RenameTable:
		if t.status != StatusActive {
			return nil, fmt.Errorf("%w: cannot rename %s table %s", ErrValidation, t.status, t.id)
		}
		return TableRenamed{ID: t.id, Name: c.Name}, nil
	case DeregisterTable:
		if t.status != StatusActive {
			return nil, fmt.Errorf("%w: cannot deregister %s table %s", ErrValidation, t.status, t.id)
		}
		return TableDeregistered{ID: t.id}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported table command %T", ErrValidation, cmd)
	}
}

func (t *Table) Apply(evt TableEvent) Directive {
	switch e := evt.(type) {
	case TableRegistered:
		t.name = e.Name
		t.status = StatusActive
	case TableRenamed:
		t.name = e.Name
	case TableDeregistered:
		t.status = StatusTerminal
		return Terminate
	}
	return Continue
}

type TableView struct {
	ID     TableID   `json:"id"`
	Name   TableName `json:"name"`
	Status string    `json:"status"`
}

func (t *Table) View() TableView {
	return TableView{ID: t.id, Name: t.name, Status: t.status.String()}
}

type TableCodec struct{}

func (TableCodec) Encode(evt TableEvent) (string, []byte, error) {
	return encodePayload(evt.EventTag(), evt)
}

func (TableCodec) Decode(tag string, payload []byte) (TableEvent, error) {
	switch tag {
	case TagTableRegistered:
		return decodePayload[TableRegistered](tag, payload)
	case TagTableRenamed:
		return decodePayload[TableRenamed](tag, payload)
	case TagTableDeregistered:
		return decodePayload[TableDeregistered](tag, payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, tag)
	}
}

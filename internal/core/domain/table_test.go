package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTable_Lifecycle(t *testing.T) {
	req := require.New(t)
	id := NewTableID()

	table, err := NewTable(id, RegisterTable{Name: "T1"})
	req.NoError(err)

	evt, err := table.Validate(RegisterTable{Name: "T1"})
	req.NoError(err)
	req.Equal(Continue, table.Apply(evt))
	req.Equal(TableName("T1"), table.Name())

	evt, err = table.Validate(RenameTable{Name: "Terrace"})
	req.NoError(err)
	req.Equal(TableRenamed{ID: id, Name: "Terrace"}, evt)
	table.Apply(evt)
	req.Equal(TableName("Terrace"), table.Name())

	evt, err = table.Validate(DeregisterTable{})
	req.NoError(err)
	req.Equal(Terminate, table.Apply(evt))
	req.Equal(StatusTerminal, table.Status())

	_, err = table.Validate(RenameTable{Name: "again"})
	req.ErrorIs(err, ErrValidation)
}

func TestTable_Empty_Name_Is_Accepted(t *testing.T) {
	req := require.New(t)
	table, err := TableFromHistory(TableRegistered{ID: NewTableID(), Name: "T1"})
	req.NoError(err)

	_, err = table.Validate(RenameTable{Name: ""})
	req.NoError(err)
}

func TestTable_Rename_Before_Registration_Is_Rejected(t *testing.T) {
	req := require.New(t)
	table, err := NewTable(NewTableID(), RegisterTable{Name: "T1"})
	req.NoError(err)

	_, err = table.Validate(RenameTable{Name: "T2"})
	req.ErrorIs(err, ErrValidation)
}

func TestTableFromHistory_Requires_Registered_First(t *testing.T) {
	_, err := TableFromHistory(TableRenamed{ID: NewTableID(), Name: "x"})
	require.ErrorIs(t, err, ErrFormation)
}

func TestTableCodec_Decode(t *testing.T) {
	req := require.New(t)
	id := NewTableID()
	tag, payload, err := TableCodec{}.Encode(TableDeregistered{ID: id})
	req.NoError(err)

	evt, err := TableCodec{}.Decode(tag, payload)
	req.NoError(err)
	req.Equal(TableDeregistered{ID: id}, evt)
}

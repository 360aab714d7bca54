package migrate

import "fmt"

// Operation kinds, matching the persisted history format.
const (
	OpCreateTable = "create_table"
	OpAddColumn   = "add_column"
	OpAlterColumn = "alter_column"
	OpDropColumn  = "drop_column"
)

// Operation is one schema change. The same value is returned from Plan,
// handed to the executor, and appended verbatim to the history log.
type Operation struct {
	Operation  string `json:"operation"`
	TableName  string `json:"table_name"`
	ColumnName string `json:"column_name,omitempty"`
	ColumnType string `json:"column_type,omitempty"` // add_column
	Nullable   *bool  `json:"nullable,omitempty"`    // add_column
	OldType    string `json:"old_type,omitempty"`    // alter_column
	NewType    string `json:"new_type,omitempty"`    // alter_column
}

func (op Operation) String() string {
	switch op.Operation {
	case OpCreateTable:
		return fmt.Sprintf("create table %s", op.TableName)
	case OpAddColumn:
		return fmt.Sprintf("add column %s.%s %s", op.TableName, op.ColumnName, op.ColumnType)
	case OpAlterColumn:
		return fmt.Sprintf("alter column %s.%s %s -> %s", op.TableName, op.ColumnName, op.OldType, op.NewType)
	case OpDropColumn:
		return fmt.Sprintf("drop column %s.%s", op.TableName, op.ColumnName)
	}
	return fmt.Sprintf("unknown operation %q on %s", op.Operation, op.TableName)
}

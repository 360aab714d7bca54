package migrate

import (
	"github.com/ridoystarlord/easymodel/introspect"
	"github.com/ridoystarlord/easymodel/schema"
)

// Plan compares an entity against the live schema and returns the
// operations needed to reconcile them. A missing table yields a single
// create_table; otherwise additive changes come first, then type changes,
// then drops, to keep destructive operations last.
//
// Type drift is detected by comparing canonical type strings. That is
// deliberately conservative: cosmetically different spellings of the same
// type are reported as drift rather than special-cased.
func Plan(entity *schema.Entity, live []introspect.Table) []Operation {
	var table *introspect.Table
	for i := range live {
		if live[i].TableName == entity.TableName {
			table = &live[i]
			break
		}
	}

	if table == nil {
		return []Operation{{
			Operation: OpCreateTable,
			TableName: entity.TableName,
		}}
	}

	liveCols := map[string]introspect.Column{}
	for _, c := range table.Columns {
		liveCols[c.ColumnName] = c
	}
	entityCols := map[string]schema.Field{}
	for _, f := range entity.Fields {
		entityCols[f.Name] = f
	}

	var adds, alters, drops []Operation

	for _, f := range entity.Fields {
		liveCol, exists := liveCols[f.Name]
		if !exists {
			nullable := f.Nullable
			adds = append(adds, Operation{
				Operation:  OpAddColumn,
				TableName:  entity.TableName,
				ColumnName: f.Name,
				ColumnType: f.Type,
				Nullable:   &nullable,
			})
			continue
		}
		if liveCol.DataType != f.Type {
			alters = append(alters, Operation{
				Operation:  OpAlterColumn,
				TableName:  entity.TableName,
				ColumnName: f.Name,
				OldType:    liveCol.DataType,
				NewType:    f.Type,
			})
		}
	}

	for _, c := range table.Columns {
		if _, exists := entityCols[c.ColumnName]; !exists {
			drops = append(drops, Operation{
				Operation:  OpDropColumn,
				TableName:  entity.TableName,
				ColumnName: c.ColumnName,
			})
		}
	}

	ops := make([]Operation, 0, len(adds)+len(alters)+len(drops))
	ops = append(ops, adds...)
	ops = append(ops, alters...)
	ops = append(ops, drops...)
	return ops
}

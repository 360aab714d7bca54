package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridoystarlord/easymodel/migrate"
	"github.com/ridoystarlord/easymodel/schema"
)

// DDLExecutor applies migration operations against PostgreSQL. Each Apply
// call runs inside one transaction: on any failure the transaction rolls
// back and no operation from the batch takes effect.
type DDLExecutor struct {
	pool *pgxpool.Pool
}

func NewDDLExecutor(pool *pgxpool.Pool) *DDLExecutor {
	return &DDLExecutor{pool: pool}
}

func (e *DDLExecutor) Apply(ctx context.Context, entity *schema.Entity, ops []migrate.Operation) error {
	stmts, err := GenerateSQL(entity, ops)
	if err != nil {
		return err
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %v", stmt, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %v", err)
	}
	return nil
}

// GenerateSQL converts a list of operations into raw SQL statements. The
// entity supplies column definitions for create_table, which carries only
// the table name on the wire.
func GenerateSQL(entity *schema.Entity, ops []migrate.Operation) ([]string, error) {
	var sqlStatements []string

	for _, op := range ops {
		switch op.Operation {
		case migrate.OpCreateTable:
			sqlStatements = append(sqlStatements, generateCreateTable(entity))

		case migrate.OpAddColumn:
			stmt := fmt.Sprintf(`ALTER TABLE "%s" ADD COLUMN "%s" %s`,
				op.TableName,
				op.ColumnName,
				op.ColumnType,
			)
			if op.Nullable != nil && !*op.Nullable {
				stmt += " NOT NULL"
			}
			sqlStatements = append(sqlStatements, stmt+";")

		case migrate.OpAlterColumn:
			stmt := fmt.Sprintf(`ALTER TABLE "%s" ALTER COLUMN "%s" TYPE %s;`,
				op.TableName,
				op.ColumnName,
				op.NewType,
			)
			sqlStatements = append(sqlStatements, stmt)

		case migrate.OpDropColumn:
			stmt := fmt.Sprintf(`ALTER TABLE "%s" DROP COLUMN "%s";`,
				op.TableName,
				op.ColumnName,
			)
			sqlStatements = append(sqlStatements, stmt)

		default:
			return nil, fmt.Errorf("unsupported operation: %s", op.Operation)
		}
	}

	return sqlStatements, nil
}

func generateCreateTable(entity *schema.Entity) string {
	stmt := fmt.Sprintf(`CREATE TABLE "%s" (`, entity.TableName)

	for i, col := range entity.Fields {
		stmt += fmt.Sprintf(`"%s" %s`, col.Name, col.Type)
		if col.Primary {
			stmt += " PRIMARY KEY"
		}
		if col.Unique {
			stmt += " UNIQUE"
		}
		if !col.Nullable && !col.Primary {
			stmt += " NOT NULL"
		}
		if col.Default != nil {
			stmt += fmt.Sprintf(" DEFAULT %s", *col.Default)
		}
		if fk := col.ForeignKey; fk != nil {
			stmt += fmt.Sprintf(` REFERENCES "%s" ("%s")`, fk.ReferencesTable, fk.ReferencesColumn)
			if fk.OnDelete != "" {
				stmt += fmt.Sprintf(" ON DELETE %s", fk.OnDelete)
			}
			if fk.OnUpdate != "" {
				stmt += fmt.Sprintf(" ON UPDATE %s", fk.OnUpdate)
			}
		}
		if i < len(entity.Fields)-1 {
			stmt += ", "
		}
	}

	stmt += ");"

	return stmt
}

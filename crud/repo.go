package crud

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ridoystarlord/easymodel/schema"
)

// DB is the query surface the repo needs; *pgxpool.Pool satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Record is one table row, keyed by column name.
type Record map[string]any

// Repo provides the convenience CRUD operations over registered entities.
// It resolves tables, columns and relationships through the registry, so
// hosts work with plain records instead of hand-written SQL.
type Repo struct {
	db       DB
	registry *schema.Registry
}

func NewRepo(db DB, registry *schema.Registry) *Repo {
	return &Repo{db: db, registry: registry}
}

func (r *Repo) entity(table string) (*schema.Entity, error) {
	entity, ok := r.registry.Get(table)
	if !ok {
		return nil, fmt.Errorf("table %q not registered", table)
	}
	return entity, nil
}

// Insert adds one row and returns it as stored (with generated defaults).
func (r *Repo) Insert(ctx context.Context, table string, data Record) (Record, error) {
	entity, err := r.entity(table)
	if err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(data))
	for col := range data {
		if _, ok := entity.Field(col); !ok {
			return nil, fmt.Errorf("table %q has no column %q", table, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = fmt.Sprintf("%q", col)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = data[col]
	}

	query := fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s) RETURNING *`,
		table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	return r.queryOne(ctx, query, args...)
}

// GetByID fetches one row by primary key.
func (r *Repo) GetByID(ctx context.Context, table string, id any) (Record, error) {
	entity, err := r.entity(table)
	if err != nil {
		return nil, err
	}
	pk, ok := entity.PrimaryKey()
	if !ok {
		return nil, fmt.Errorf("table %q has no primary key", table)
	}

	query := fmt.Sprintf(`SELECT * FROM %q WHERE %q = $1`, table, pk.Name)
	return r.queryOne(ctx, query, id)
}

// GetByAttribute fetches all rows where the given column equals value.
func (r *Repo) GetByAttribute(ctx context.Context, table, column string, value any) ([]Record, error) {
	entity, err := r.entity(table)
	if err != nil {
		return nil, err
	}
	if _, ok := entity.Field(column); !ok {
		return nil, fmt.Errorf("table %q has no column %q", table, column)
	}

	query := fmt.Sprintf(`SELECT * FROM %q WHERE %q = $1`, table, column)
	return r.queryAll(ctx, query, value)
}

// All fetches every row, optionally ordered. Order fields use the
// "-created_at" convention for descending order.
func (r *Repo) All(ctx context.Context, table string, orderBy ...string) ([]Record, error) {
	entity, err := r.entity(table)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT * FROM %q`, table)
	if len(orderBy) > 0 {
		clause, err := orderClause(entity, orderBy)
		if err != nil {
			return nil, err
		}
		query += " ORDER BY " + clause
	}
	return r.queryAll(ctx, query)
}

// Update changes the given columns of one row and returns the new state.
func (r *Repo) Update(ctx context.Context, table string, id any, data Record) (Record, error) {
	entity, err := r.entity(table)
	if err != nil {
		return nil, err
	}
	pk, ok := entity.PrimaryKey()
	if !ok {
		return nil, fmt.Errorf("table %q has no primary key", table)
	}

	cols := make([]string, 0, len(data))
	for col := range data {
		if _, ok := entity.Field(col); !ok {
			return nil, fmt.Errorf("table %q has no column %q", table, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%q = $%d", col, i+1)
		args = append(args, data[col])
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE %q SET %s WHERE %q = $%d RETURNING *`,
		table, strings.Join(sets, ", "), pk.Name, len(args))

	return r.queryOne(ctx, query, args...)
}

// Delete removes one row by primary key, reporting whether it existed.
func (r *Repo) Delete(ctx context.Context, table string, id any) (bool, error) {
	entity, err := r.entity(table)
	if err != nil {
		return false, err
	}
	pk, ok := entity.PrimaryKey()
	if !ok {
		return false, fmt.Errorf("table %q has no primary key", table)
	}

	tag, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %q WHERE %q = $1`, table, pk.Name), id)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %v", table, err)
	}
	return tag.RowsAffected() > 0, nil
}

func orderClause(entity *schema.Entity, orderBy []string) (string, error) {
	parts := make([]string, 0, len(orderBy))
	for _, field := range orderBy {
		dir := "ASC"
		if strings.HasPrefix(field, "-") {
			dir = "DESC"
			field = field[1:]
		}
		if _, ok := entity.Field(field); !ok {
			return "", fmt.Errorf("table %q has no column %q", entity.TableName, field)
		}
		parts = append(parts, fmt.Sprintf("%q %s", field, dir))
	}
	return strings.Join(parts, ", "), nil
}

func (r *Repo) queryOne(ctx context.Context, query string, args ...any) (Record, error) {
	records, err := r.queryAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, pgx.ErrNoRows
	}
	return records[0], nil
}

func (r *Repo) queryAll(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %v", err)
	}
	defer rows.Close()

	var records []Record
	fields := rows.FieldDescriptions()
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading row: %v", err)
		}
		record := Record{}
		for i, fd := range fields {
			record[fd.Name] = values[i]
		}
		records = append(records, record)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating rows: %v", rows.Err())
	}
	return records, nil
}

package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/easymodel/introspect"
	"github.com/ridoystarlord/easymodel/relationships"
	"github.com/ridoystarlord/easymodel/schema"
	"github.com/ridoystarlord/easymodel/store"
)

// fakeDB plays both the schema source and the executor: applied operations
// mutate its table list the way DDL would mutate a real database.
type fakeDB struct {
	tables  []introspect.Table
	applied map[string][]Operation
	failOn  string // table name whose Apply fails
}

func newFakeDB() *fakeDB {
	return &fakeDB{applied: map[string][]Operation{}}
}

func (db *fakeDB) Tables(ctx context.Context) ([]introspect.Table, error) {
	return db.tables, nil
}

func (db *fakeDB) Apply(ctx context.Context, entity *schema.Entity, ops []Operation) error {
	if entity.TableName == db.failOn {
		return fmt.Errorf("simulated DDL failure for %s", entity.TableName)
	}
	for _, op := range ops {
		db.execute(entity, op)
	}
	db.applied[entity.TableName] = append(db.applied[entity.TableName], ops...)
	return nil
}

func (db *fakeDB) execute(entity *schema.Entity, op Operation) {
	switch op.Operation {
	case OpCreateTable:
		table := introspect.Table{TableName: entity.TableName}
		for _, f := range entity.Fields {
			table.Columns = append(table.Columns, introspect.Column{
				ColumnName: f.Name,
				DataType:   f.Type,
				IsNullable: f.Nullable,
			})
		}
		db.tables = append(db.tables, table)
	case OpAddColumn:
		for i := range db.tables {
			if db.tables[i].TableName == op.TableName {
				db.tables[i].Columns = append(db.tables[i].Columns, introspect.Column{
					ColumnName: op.ColumnName,
					DataType:   op.ColumnType,
					IsNullable: op.Nullable != nil && *op.Nullable,
				})
			}
		}
	}
}

func newAuthorBookEntities(t *testing.T) (*schema.Registry, []*schema.Entity) {
	t.Helper()
	registry := schema.NewRegistry()
	author := &schema.Entity{
		TableName: "author",
		Fields: []schema.Field{
			{Name: "id", Type: "integer", Primary: true},
			{Name: "name", Type: "text"},
		},
	}
	book := &schema.Entity{
		TableName: "book",
		Fields: []schema.Field{
			{Name: "id", Type: "integer", Primary: true},
			{Name: "title", Type: "text"},
			{Name: "author_id", Type: "integer", Nullable: true, ForeignKey: &schema.ForeignKey{
				ReferencesTable:  "author",
				ReferencesColumn: "id",
			}},
		},
	}
	require.NoError(t, registry.Register(author))
	require.NoError(t, registry.Register(book))
	return registry, registry.Entities()
}

func newTestMigrator(t *testing.T, db *fakeDB) *Migrator {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return New(st, db, db)
}

func TestDetectChangesNewEntities(t *testing.T) {
	_, entities := newAuthorBookEntities(t)
	m := newTestMigrator(t, newFakeDB())

	changes, err := m.DetectChanges(entities)
	require.NoError(t, err)

	require.Len(t, changes, 2)
	assert.Equal(t, StatusNew, changes["author"].Status)
	assert.Equal(t, StatusNew, changes["book"].Status)
	assert.NotEmpty(t, changes["author"].NewHash)
}

func TestDetectChangesIsReadOnly(t *testing.T) {
	_, entities := newAuthorBookEntities(t)
	m := newTestMigrator(t, newFakeDB())

	_, err := m.DetectChanges(entities)
	require.NoError(t, err)

	stored, err := m.Store.Fingerprints()
	require.NoError(t, err)
	assert.Empty(t, stored, "detection must not persist anything")
}

func TestMigrateAllCreatesNewTables(t *testing.T) {
	_, entities := newAuthorBookEntities(t)
	db := newFakeDB()
	m := newTestMigrator(t, db)

	results, err := m.MigrateAll(context.Background(), entities)
	require.NoError(t, err)

	require.Len(t, results, 2)
	for _, name := range []string{"author", "book"} {
		result := results[name]
		require.NoError(t, result.Err)
		require.Len(t, result.Operations, 1)
		assert.Equal(t, OpCreateTable, result.Operations[0].Operation)
	}

	// Second run: fingerprints match, nothing to do.
	changes, err := m.DetectChanges(entities)
	require.NoError(t, err)
	assert.Empty(t, changes)

	results, err = m.MigrateAll(context.Background(), entities)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMigrateAllRecordsHistory(t *testing.T) {
	_, entities := newAuthorBookEntities(t)
	m := newTestMigrator(t, newFakeDB())

	_, err := m.MigrateAll(context.Background(), entities)
	require.NoError(t, err)

	records, err := m.Store.History()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "author", records[0].Model)
	assert.Equal(t, "book", records[1].Model)

	var ops []Operation
	require.NoError(t, json.Unmarshal(records[0].Changes, &ops))
	require.Len(t, ops, 1)
	assert.Equal(t, OpCreateTable, ops[0].Operation)
	assert.Equal(t, "author", ops[0].TableName)
}

func TestMigrateAllFailureIsolatedPerEntity(t *testing.T) {
	_, entities := newAuthorBookEntities(t)
	db := newFakeDB()
	db.failOn = "author"
	m := newTestMigrator(t, db)

	results, err := m.MigrateAll(context.Background(), entities)
	require.NoError(t, err, "one entity failing must not abort the run")

	require.Error(t, results["author"].Err)
	require.NoError(t, results["book"].Err)

	stored, err := m.Store.Fingerprints()
	require.NoError(t, err)
	_, ok := stored["author"]
	assert.False(t, ok, "failed entity must keep no fingerprint")
	_, ok = stored["book"]
	assert.True(t, ok)

	// The failed entity is retried once the failure is gone.
	db.failOn = ""
	results, err = m.MigrateAll(context.Background(), entities)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results["author"].Err)
}

func TestMigrateAllOrdersForeignKeyTargetsFirst(t *testing.T) {
	registry := schema.NewRegistry()
	publisher := &schema.Entity{
		TableName: "publisher",
		Fields:    []schema.Field{{Name: "id", Type: "integer", Primary: true}},
	}
	book := &schema.Entity{
		TableName: "book",
		Fields: []schema.Field{
			{Name: "id", Type: "integer", Primary: true},
			{Name: "publisher_id", Type: "integer", Nullable: true, ForeignKey: &schema.ForeignKey{
				ReferencesTable:  "publisher",
				ReferencesColumn: "id",
			}},
		},
	}
	require.NoError(t, registry.Register(publisher))
	require.NoError(t, registry.Register(book))

	m := newTestMigrator(t, newFakeDB())
	_, err := m.MigrateAll(context.Background(), registry.Entities())
	require.NoError(t, err)

	records, err := m.Store.History()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "publisher", records[0].Model, "FK target migrates before its referrer")
	assert.Equal(t, "book", records[1].Model)
}

func TestMigrateAllCancelledContext(t *testing.T) {
	_, entities := newAuthorBookEntities(t)
	m := newTestMigrator(t, newFakeDB())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := m.MigrateAll(ctx, entities)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)

	stored, err := m.Store.Fingerprints()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestEndToEndAuthorBookScenario(t *testing.T) {
	registry, entities := newAuthorBookEntities(t)

	warnings, err := relationships.NewResolver(registry).ResolveAll()
	require.NoError(t, err)
	require.Empty(t, warnings)

	author, _ := registry.Get("author")
	book, _ := registry.Get("book")
	rel, ok := book.Relationship("author")
	require.True(t, ok)
	assert.Equal(t, "books", rel.BackRef)
	back, ok := author.Relationship("books")
	require.True(t, ok)
	assert.Equal(t, "author", back.BackRef)

	db := newFakeDB()
	m := newTestMigrator(t, db)

	// Initial run: both entities are new, both tables get created.
	results, err := m.MigrateAll(context.Background(), entities)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for name, result := range results {
		require.NoError(t, result.Err, name)
		require.Len(t, result.Operations, 1)
		assert.Equal(t, OpCreateTable, result.Operations[0].Operation)
	}

	// Add author.bio and re-run: only author is modified, and the plan is
	// exactly one nullable add_column.
	author.Fields = append(author.Fields, schema.Field{Name: "bio", Type: "text", Nullable: true})

	changes, err := m.DetectChanges(entities)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, StatusModified, changes["author"].Status)

	results, err = m.MigrateAll(context.Background(), entities)
	require.NoError(t, err)
	require.Len(t, results, 1)
	result := results["author"]
	require.NoError(t, result.Err)
	require.Len(t, result.Operations, 1)
	op := result.Operations[0]
	assert.Equal(t, OpAddColumn, op.Operation)
	assert.Equal(t, "author", op.TableName)
	assert.Equal(t, "bio", op.ColumnName)
	assert.Equal(t, "text", op.ColumnType)
	require.NotNil(t, op.Nullable)
	assert.True(t, *op.Nullable)

	// Everything has converged.
	changes, err = m.DetectChanges(entities)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

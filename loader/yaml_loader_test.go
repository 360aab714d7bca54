package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
entities:
  - table: author
    fields:
      - name: id
        type: serial
        primary: true
      - name: name
        type: text
      - name: email
        type: text
        unique: true
        nullable: true
  - table: book
    fields:
      - name: id
        type: serial
        primary: true
      - name: title
        type: text
        default: "'untitled'"
      - name: author_id
        type: integer
        nullable: true
        foreign_key: author.id
        on_delete: CASCADE
`

func writeSchemaFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEntitiesFromYAML(t *testing.T) {
	entities, err := LoadEntitiesFromYAML(writeSchemaFile(t, sampleYAML))
	require.NoError(t, err)
	require.Len(t, entities, 2)

	author := entities[0]
	assert.Equal(t, "author", author.TableName)
	require.Len(t, author.Fields, 3)
	assert.True(t, author.Fields[0].Primary)
	assert.True(t, author.Fields[2].Unique)
	assert.True(t, author.Fields[2].Nullable)

	book := entities[1]
	assert.Equal(t, "book", book.TableName)
	title, ok := book.Field("title")
	require.True(t, ok)
	require.NotNil(t, title.Default)
	assert.Equal(t, "'untitled'", *title.Default)

	authorID, ok := book.Field("author_id")
	require.True(t, ok)
	require.NotNil(t, authorID.ForeignKey)
	assert.Equal(t, "author", authorID.ForeignKey.ReferencesTable)
	assert.Equal(t, "id", authorID.ForeignKey.ReferencesColumn)
	assert.Equal(t, "CASCADE", authorID.ForeignKey.OnDelete)
}

func TestLoadEntitiesFromYAMLBadForeignKey(t *testing.T) {
	bad := `
entities:
  - table: book
    fields:
      - name: author_id
        type: integer
        foreign_key: author
`
	_, err := LoadEntitiesFromYAML(writeSchemaFile(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid foreign key reference")
}

func TestLoadEntitiesFromYAMLMissingFile(t *testing.T) {
	_, err := LoadEntitiesFromYAML(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

package relationships

import (
	"strings"

	"github.com/go-openapi/inflect"
)

// attributeName derives the many-to-one attribute name from a foreign-key
// column: "author_id" becomes "author". Columns without the suffix keep
// their full name.
func attributeName(fkColumn string) string {
	if name := strings.TrimSuffix(fkColumn, "_id"); name != "" && name != fkColumn {
		return name
	}
	return fkColumn
}

// backRefName derives the one-to-many attribute on the target side by
// pluralizing the owner's table name: "book" becomes "books".
func backRefName(ownerTable string) string {
	return inflect.Pluralize(ownerTable)
}

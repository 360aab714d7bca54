package loader

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/ridoystarlord/easymodel/schema"
)

// LoadEntityFromStruct builds an entity descriptor from a Go struct value
// using `db` tags. The table name defaults to the snake-cased struct name.
//
// Tag dialect:
//
//	`db:"author_id,type:integer,nullable,fk:author.id"`
//	`db:"id,type:serial,primary"`
//	`db:"email,type:text,unique,default:''"`
//
// An untagged or `db:"-"` field is skipped.
func LoadEntityFromStruct(v interface{}) (*schema.Entity, error) {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("load entity: expected struct, got %s", t.Kind())
	}

	entity := &schema.Entity{
		TableName: inflect.Underscore(t.Name()),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		col, err := parseDBTag(field.Name, tag)
		if err != nil {
			return nil, fmt.Errorf("parsing tag on %s.%s: %w", t.Name(), field.Name, err)
		}
		entity.Fields = append(entity.Fields, col)
	}

	if len(entity.Fields) == 0 {
		return nil, fmt.Errorf("load entity: struct %s has no db-tagged fields", t.Name())
	}

	return entity, nil
}

// LoadEntitiesFromStructs converts a batch of struct values, in order.
func LoadEntitiesFromStructs(values ...interface{}) ([]*schema.Entity, error) {
	var entities []*schema.Entity
	for _, v := range values {
		entity, err := LoadEntityFromStruct(v)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func parseDBTag(fieldName, tag string) (schema.Field, error) {
	parts := strings.Split(tag, ",")
	col := schema.Field{
		Name: inflect.Underscore(fieldName),
	}
	for i, part := range parts {
		part = strings.TrimSpace(part)
		switch {
		case part == "primary":
			col.Primary = true
		case part == "unique":
			col.Unique = true
		case part == "nullable":
			col.Nullable = true
		case strings.HasPrefix(part, "type:"):
			col.Type = strings.TrimPrefix(part, "type:")
		case strings.HasPrefix(part, "default:"):
			val := strings.TrimPrefix(part, "default:")
			col.Default = &val
		case strings.HasPrefix(part, "fk:"):
			fk, err := parseForeignKeyRef(strings.TrimPrefix(part, "fk:"))
			if err != nil {
				return schema.Field{}, err
			}
			col.ForeignKey = fk
		case i == 0 && part != "":
			// first bare token is the column name
			col.Name = part
		default:
			return schema.Field{}, fmt.Errorf("unknown tag option %q", part)
		}
	}
	if col.Type == "" {
		return schema.Field{}, fmt.Errorf("column %s: missing type", col.Name)
	}
	return col, nil
}

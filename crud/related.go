package crud

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ridoystarlord/easymodel/schema"
)

// LoadRelated fetches the rows behind one relationship attribute of a
// record and nests them under the attribute name: a single record for
// many-to-one, a slice for one-to-many and many-to-many.
func (r *Repo) LoadRelated(ctx context.Context, table string, record Record, relation string) error {
	entity, err := r.entity(table)
	if err != nil {
		return err
	}
	rel, ok := entity.Relationship(relation)
	if !ok {
		return fmt.Errorf("table %q has no relationship %q", table, relation)
	}

	switch rel.Type {
	case schema.ManyToOne:
		fkValue, ok := record[rel.ForeignKeyColumn]
		if !ok || fkValue == nil {
			record[rel.Name] = nil
			return nil
		}
		parent, err := r.GetByID(ctx, rel.Target, fkValue)
		if err != nil {
			if err == pgx.ErrNoRows {
				record[rel.Name] = nil
				return nil
			}
			return err
		}
		record[rel.Name] = parent
		return nil

	case schema.OneToMany:
		pk, ok := entity.PrimaryKey()
		if !ok {
			return fmt.Errorf("table %q has no primary key", table)
		}
		children, err := r.GetByAttribute(ctx, rel.Target, rel.ForeignKeyColumn, record[pk.Name])
		if err != nil {
			return err
		}
		record[rel.Name] = children
		return nil

	case schema.ManyToMany:
		return r.loadManyToMany(ctx, entity, record, rel)
	}

	return fmt.Errorf("relationship %q has unknown type %q", relation, rel.Type)
}

// WithRelated fetches a record by id with the given relationship
// attributes (all resolved attributes when none are named) eagerly loaded.
func (r *Repo) WithRelated(ctx context.Context, table string, id any, relations ...string) (Record, error) {
	entity, err := r.entity(table)
	if err != nil {
		return nil, err
	}

	record, err := r.GetByID(ctx, table, id)
	if err != nil {
		return nil, err
	}

	if len(relations) == 0 {
		for _, rel := range entity.Relationships {
			relations = append(relations, rel.Name)
		}
	}
	for _, name := range relations {
		if err := r.LoadRelated(ctx, table, record, name); err != nil {
			return nil, err
		}
	}
	return record, nil
}

func (r *Repo) loadManyToMany(ctx context.Context, entity *schema.Entity, record Record, rel schema.Relationship) error {
	junction, ok := r.registry.Get(rel.JunctionTable)
	if !ok {
		return fmt.Errorf("junction table %q not registered", rel.JunctionTable)
	}

	var ownerFK, targetFK string
	for _, f := range junction.Fields {
		if f.ForeignKey == nil {
			continue
		}
		switch f.ForeignKey.ReferencesTable {
		case entity.TableName:
			ownerFK = f.Name
		case rel.Target:
			targetFK = f.Name
		}
	}
	if ownerFK == "" || targetFK == "" {
		return fmt.Errorf("junction %q does not link %q and %q", rel.JunctionTable, entity.TableName, rel.Target)
	}

	pk, ok := entity.PrimaryKey()
	if !ok {
		return fmt.Errorf("table %q has no primary key", entity.TableName)
	}
	targetEntity, ok := r.registry.Get(rel.Target)
	if !ok {
		return fmt.Errorf("table %q not registered", rel.Target)
	}
	targetPK, ok := targetEntity.PrimaryKey()
	if !ok {
		return fmt.Errorf("table %q has no primary key", rel.Target)
	}

	query := fmt.Sprintf(
		`SELECT t.* FROM %q t JOIN %q j ON j.%q = t.%q WHERE j.%q = $1`,
		rel.Target, rel.JunctionTable, targetFK, targetPK.Name, ownerFK,
	)
	related, err := r.queryAll(ctx, query, record[pk.Name])
	if err != nil {
		return err
	}
	record[rel.Name] = related
	return nil
}

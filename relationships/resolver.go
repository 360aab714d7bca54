package relationships

import (
	"fmt"
	"log"

	"github.com/ridoystarlord/easymodel/schema"
)

// Resolver infers missing relationship attributes from foreign-key fields
// across a registry of entities. Explicitly declared relationships are
// never touched; inference only fills the gaps.
type Resolver struct {
	registry *schema.Registry
}

// Warning records one skipped inference. Inference is best-effort: a pair
// that cannot be resolved is skipped and reported, never fatal.
type Warning struct {
	Table  string
	Column string
	Reason string
}

func (w Warning) String() string {
	if w.Column != "" {
		return fmt.Sprintf("%s.%s: %s", w.Table, w.Column, w.Reason)
	}
	return fmt.Sprintf("%s: %s", w.Table, w.Reason)
}

func NewResolver(registry *schema.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// ResolveAll walks every registered entity and synthesizes the relationship
// attributes its foreign keys imply: a many-to-one on each FK owner with a
// matching one-to-many back-reference on the target, and a many-to-many
// pair on both ends of each detected junction entity. Calling it again is
// a no-op. The returned warnings list every skipped inference; the only
// error condition is a structurally corrupt registry.
func (r *Resolver) ResolveAll() ([]Warning, error) {
	entities := r.registry.Entities()

	if err := validateRegistry(entities); err != nil {
		return nil, err
	}

	var warnings []Warning
	for _, owner := range entities {
		warnings = append(warnings, r.resolveForeignKeys(owner)...)
	}
	for _, entity := range entities {
		if junction := r.asJunction(entity); junction != nil {
			warnings = append(warnings, r.resolveJunction(entity, junction)...)
		}
	}

	for _, w := range warnings {
		log.Printf("easymodel: skipped relationship inference: %s", w)
	}
	return warnings, nil
}

// validateRegistry rejects registries whose entities are structurally
// inconsistent. Anything less severe is handled per-pair as a warning.
func validateRegistry(entities []*schema.Entity) error {
	seen := map[*schema.Entity]string{}
	for _, e := range entities {
		if table, dup := seen[e]; dup {
			return fmt.Errorf("registry corrupt: entity registered under tables %q and %q", table, e.TableName)
		}
		seen[e] = e.TableName

		fields := map[string]bool{}
		for _, f := range e.Fields {
			if fields[f.Name] {
				return fmt.Errorf("registry corrupt: table %q declares column %q twice", e.TableName, f.Name)
			}
			fields[f.Name] = true
		}
	}
	return nil
}

func (r *Resolver) resolveForeignKeys(owner *schema.Entity) []Warning {
	var warnings []Warning
	for _, fk := range owner.ForeignKeys() {
		if w := r.resolvePair(owner, fk); w != nil {
			warnings = append(warnings, *w)
		}
	}
	return warnings
}

// resolvePair synthesizes one many-to-one / one-to-many pair for a single
// foreign-key column, or explains why it could not.
func (r *Resolver) resolvePair(owner *schema.Entity, fk schema.Field) *Warning {
	// A relationship already bound to this FK column means either an
	// explicit declaration or a previous ResolveAll pass; leave it alone.
	for _, rel := range owner.Relationships {
		if rel.ForeignKeyColumn == fk.Name && rel.Type == schema.ManyToOne {
			return nil
		}
	}

	target, ok := r.registry.Get(fk.ForeignKey.ReferencesTable)
	if !ok {
		return &Warning{owner.TableName, fk.Name, fmt.Sprintf("target table %q not registered", fk.ForeignKey.ReferencesTable)}
	}

	pk, ok := target.PrimaryKey()
	if !ok || pk.Name != fk.ForeignKey.ReferencesColumn {
		return &Warning{owner.TableName, fk.Name, fmt.Sprintf("referenced column %s.%s is not the primary key", target.TableName, fk.ForeignKey.ReferencesColumn)}
	}

	attr := attributeName(fk.Name)
	backRef := backRefName(owner.TableName)

	// The suffixless fallback names the relationship after the FK column
	// itself; relationships live in a side table, so that is not a clash.
	if _, taken := owner.Relationship(attr); taken {
		return &Warning{owner.TableName, fk.Name, fmt.Sprintf("attribute %q already exists", attr)}
	}
	if f, isField := owner.Field(attr); isField && f.Name != fk.Name {
		return &Warning{owner.TableName, fk.Name, fmt.Sprintf("attribute %q already exists", attr)}
	}
	if target.HasAttribute(backRef) {
		return &Warning{owner.TableName, fk.Name, fmt.Sprintf("back-reference %q already exists on %s", backRef, target.TableName)}
	}

	owner.Relationships = append(owner.Relationships, schema.Relationship{
		Name:             attr,
		BackRef:          backRef,
		Target:           target.TableName,
		Type:             schema.ManyToOne,
		ForeignKeyColumn: fk.Name,
	})
	target.Relationships = append(target.Relationships, schema.Relationship{
		Name:             backRef,
		BackRef:          attr,
		Target:           owner.TableName,
		Type:             schema.OneToMany,
		ForeignKeyColumn: fk.Name,
	})
	return nil
}

// asJunction reports whether an entity looks like a pure link table: every
// non-primary field is a foreign key, and those keys point at exactly two
// distinct tables. The heuristic can misread a legitimate two-reference
// entity that carries no payload columns; such tables simply gain an extra
// many-to-many pair on their targets.
func (r *Resolver) asJunction(entity *schema.Entity) []*schema.Entity {
	targets := map[string]*schema.Entity{}
	fkCount := 0
	for _, f := range entity.Fields {
		if f.Primary {
			continue
		}
		if f.ForeignKey == nil {
			return nil
		}
		fkCount++
		if target, ok := r.registry.Get(f.ForeignKey.ReferencesTable); ok {
			targets[target.TableName] = target
		}
	}
	if fkCount < 2 || len(targets) != 2 {
		return nil
	}

	ends := make([]*schema.Entity, 0, 2)
	for _, t := range targets {
		ends = append(ends, t)
	}
	// Deterministic side ordering.
	if ends[0].TableName > ends[1].TableName {
		ends[0], ends[1] = ends[1], ends[0]
	}
	return ends
}

func (r *Resolver) resolveJunction(junction *schema.Entity, ends []*schema.Entity) []Warning {
	a, b := ends[0], ends[1]

	// Idempotence: a previous pass already linked the two ends.
	for _, rel := range a.Relationships {
		if rel.Type == schema.ManyToMany && rel.JunctionTable == junction.TableName && rel.Target == b.TableName {
			return nil
		}
	}

	nameOnA := backRefName(b.TableName)
	nameOnB := backRefName(a.TableName)

	if a.HasAttribute(nameOnA) {
		return []Warning{{junction.TableName, "", fmt.Sprintf("many-to-many attribute %q already exists on %s", nameOnA, a.TableName)}}
	}
	if b.HasAttribute(nameOnB) {
		return []Warning{{junction.TableName, "", fmt.Sprintf("many-to-many attribute %q already exists on %s", nameOnB, b.TableName)}}
	}

	a.Relationships = append(a.Relationships, schema.Relationship{
		Name:          nameOnA,
		BackRef:       nameOnB,
		Target:        b.TableName,
		Type:          schema.ManyToMany,
		JunctionTable: junction.TableName,
	})
	b.Relationships = append(b.Relationships, schema.Relationship{
		Name:          nameOnB,
		BackRef:       nameOnA,
		Target:        a.TableName,
		Type:          schema.ManyToMany,
		JunctionTable: junction.TableName,
	})
	return nil
}

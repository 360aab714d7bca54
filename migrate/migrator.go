package migrate

import (
	"context"
	"fmt"
	"sort"

	"github.com/ridoystarlord/easymodel/fingerprint"
	"github.com/ridoystarlord/easymodel/introspect"
	"github.com/ridoystarlord/easymodel/schema"
	"github.com/ridoystarlord/easymodel/store"
)

// Status of one entity relative to its stored fingerprint. Unchanged
// entities simply have no entry in the change map.
type Status string

const (
	StatusNew      Status = "new"
	StatusModified Status = "modified"
)

type Change struct {
	Status  Status
	OldHash string
	NewHash string
}

// Executor applies a batch of operations for one entity. The whole batch
// runs in a single transaction: either every operation takes effect or
// none does.
type Executor interface {
	Apply(ctx context.Context, entity *schema.Entity, ops []Operation) error
}

// Result is the per-entity outcome of a migration run.
type Result struct {
	Operations []Operation
	Err        error
}

// Migrator detects structural drift between entities and the live
// database, plans the operations needed to reconcile each entity, and
// applies them while keeping the fingerprint store and history log in sync.
type Migrator struct {
	Store  *store.Store
	Source introspect.Source
	Exec   Executor
}

func New(st *store.Store, source introspect.Source, exec Executor) *Migrator {
	return &Migrator{Store: st, Source: source, Exec: exec}
}

// DetectChanges computes the current fingerprint of each entity and
// compares it with the stored one. It is read-only: stored state is never
// touched here.
func (m *Migrator) DetectChanges(entities []*schema.Entity) (map[string]Change, error) {
	stored, err := m.Store.Fingerprints()
	if err != nil {
		return nil, err
	}

	changes := map[string]Change{}
	for _, entity := range entities {
		current, err := fingerprint.Compute(entity)
		if err != nil {
			return nil, err
		}

		old, known := stored[entity.TableName]
		switch {
		case !known:
			changes[entity.TableName] = Change{Status: StatusNew, NewHash: current}
		case old != current:
			changes[entity.TableName] = Change{Status: StatusModified, OldHash: old, NewHash: current}
		}
	}
	return changes, nil
}

// Apply executes the operations for one entity through the executor and,
// on success, records them in the history log and stores the entity's new
// fingerprint. A failed application leaves both untouched.
func (m *Migrator) Apply(ctx context.Context, entity *schema.Entity, ops []Operation) error {
	if len(ops) == 0 {
		return nil
	}

	if err := m.Exec.Apply(ctx, entity, ops); err != nil {
		return fmt.Errorf("applying migration for %s: %w", entity.TableName, err)
	}

	if err := m.Store.AppendMigration(entity.TableName, ops); err != nil {
		return err
	}
	current, err := fingerprint.Compute(entity)
	if err != nil {
		return err
	}
	return m.Store.SetFingerprint(entity.TableName, current)
}

// MigrateAll runs the full check-plan-apply cycle over the given entities,
// one entity at a time. A failure for one entity is captured in its Result
// and does not stop the others; the returned error covers only conditions
// that abort the whole run (introspection failure, cancelled context,
// unreadable store).
func (m *Migrator) MigrateAll(ctx context.Context, entities []*schema.Entity) (map[string]Result, error) {
	changes, err := m.DetectChanges(entities)
	if err != nil {
		return nil, err
	}

	results := map[string]Result{}
	if len(changes) == 0 {
		return results, nil
	}

	live, err := m.Source.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("introspecting database: %w", err)
	}

	byTable := map[string]*schema.Entity{}
	var names []string
	for _, e := range entities {
		if _, changed := changes[e.TableName]; changed {
			byTable[e.TableName] = e
			names = append(names, e.TableName)
		}
	}

	for _, name := range applyOrder(names, byTable) {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		entity := byTable[name]
		ops := Plan(entity, live)
		if len(ops) == 0 {
			// Drift in fingerprint only (relationship metadata, say);
			// nothing to execute, but the stored fingerprint catches up.
			if err := m.Store.SetFingerprint(name, changes[name].NewHash); err != nil {
				return results, err
			}
			continue
		}

		if err := m.Apply(ctx, entity, ops); err != nil {
			results[name] = Result{Err: err}
			continue
		}
		results[name] = Result{Operations: ops}
	}

	return results, nil
}

// applyOrder sequences the changed entities so that foreign-key targets
// migrate before their referrers, keeping create-table operations valid
// within a single run. Ties (and cycles) fall back to table-name order.
func applyOrder(names []string, byTable map[string]*schema.Entity) []string {
	sort.Strings(names)

	pending := map[string]bool{}
	for _, name := range names {
		pending[name] = true
	}

	ordered := make([]string, 0, len(names))
	for len(ordered) < len(names) {
		picked := ""
		for _, name := range names {
			if !pending[name] {
				continue
			}
			blocked := false
			for _, fk := range byTable[name].ForeignKeys() {
				target := fk.ForeignKey.ReferencesTable
				if target != name && pending[target] {
					blocked = true
					break
				}
			}
			if !blocked {
				picked = name
				break
			}
		}
		if picked == "" {
			// Reference cycle: take the lexically smallest remaining.
			for _, name := range names {
				if pending[name] {
					picked = name
					break
				}
			}
		}
		pending[picked] = false
		ordered = append(ordered, picked)
	}
	return ordered
}

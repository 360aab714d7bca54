package fingerprint

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/ridoystarlord/easymodel/schema"
)

// fieldDigest and relationshipDigest define exactly which parts of an
// entity count as schema-relevant structure. Anything not listed here can
// change without triggering a migration.
type entityDigest struct {
	TableName     string                        `json:"table_name"`
	Fields        map[string]fieldDigest        `json:"fields"`
	Relationships map[string]relationshipDigest `json:"relationships,omitempty"`
}

type fieldDigest struct {
	Type        string   `json:"type"`
	Nullable    bool     `json:"nullable"`
	PrimaryKey  bool     `json:"primary_key"`
	Unique      bool     `json:"unique"`
	Default     *string  `json:"default"`
	ForeignKeys []string `json:"foreign_keys,omitempty"`
}

type relationshipDigest struct {
	Target        string `json:"target"`
	BackPopulates string `json:"back_populates"`
	Type          string `json:"type"`
	LinkTable     string `json:"link_table,omitempty"`
}

// Compute returns the hex-encoded structural fingerprint of an entity.
// Fields and relationships are keyed by name in the canonical form, so the
// hash is stable under reordering and changes only when schema-relevant
// structure changes.
func Compute(entity *schema.Entity) (string, error) {
	digest := entityDigest{
		TableName: entity.TableName,
		Fields:    map[string]fieldDigest{},
	}

	for _, f := range entity.Fields {
		fd := fieldDigest{
			Type:       f.Type,
			Nullable:   f.Nullable,
			PrimaryKey: f.Primary,
			Unique:     f.Unique,
			Default:    f.Default,
		}
		if f.ForeignKey != nil {
			fd.ForeignKeys = []string{
				fmt.Sprintf("%s.%s", f.ForeignKey.ReferencesTable, f.ForeignKey.ReferencesColumn),
			}
		}
		digest.Fields[f.Name] = fd
	}

	if len(entity.Relationships) > 0 {
		digest.Relationships = map[string]relationshipDigest{}
		for _, r := range entity.Relationships {
			digest.Relationships[r.Name] = relationshipDigest{
				Target:        r.Target,
				BackPopulates: r.BackRef,
				Type:          string(r.Type),
				LinkTable:     r.JunctionTable,
			}
		}
	}

	// encoding/json writes map keys in sorted order, which is what makes
	// the serialized form canonical.
	payload, err := json.Marshal(digest)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", entity.TableName, err)
	}

	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%x", sum), nil
}

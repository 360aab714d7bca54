package loader

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ridoystarlord/easymodel/schema"
)

type yamlFile struct {
	Entities []yamlEntity `yaml:"entities"`
}

type yamlEntity struct {
	Table  string      `yaml:"table"`
	Fields []yamlField `yaml:"fields"`
}

type yamlField struct {
	Name       string  `yaml:"name"`
	Type       string  `yaml:"type"`
	Primary    bool    `yaml:"primary"`
	Unique     bool    `yaml:"unique"`
	Nullable   bool    `yaml:"nullable"`
	Default    *string `yaml:"default"`
	ForeignKey string  `yaml:"foreign_key"` // "table.column"
	OnDelete   string  `yaml:"on_delete"`
	OnUpdate   string  `yaml:"on_update"`
}

// LoadEntitiesFromYAML reads entity definitions from a YAML file and
// returns them ready for registration.
func LoadEntitiesFromYAML(filename string) ([]*schema.Entity, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}

	var entities []*schema.Entity
	for _, ye := range yf.Entities {
		entity := &schema.Entity{TableName: ye.Table}
		for _, yfld := range ye.Fields {
			field := schema.Field{
				Name:     yfld.Name,
				Type:     yfld.Type,
				Primary:  yfld.Primary,
				Unique:   yfld.Unique,
				Nullable: yfld.Nullable,
				Default:  yfld.Default,
			}
			if yfld.ForeignKey != "" {
				fk, err := parseForeignKeyRef(yfld.ForeignKey)
				if err != nil {
					return nil, fmt.Errorf("entity %s field %s: %w", ye.Table, yfld.Name, err)
				}
				fk.OnDelete = yfld.OnDelete
				fk.OnUpdate = yfld.OnUpdate
				field.ForeignKey = fk
			}
			entity.Fields = append(entity.Fields, field)
		}
		entities = append(entities, entity)
	}

	return entities, nil
}

func parseForeignKeyRef(ref string) (*schema.ForeignKey, error) {
	parts := strings.SplitN(ref, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid foreign key reference %q, expected table.column", ref)
	}
	return &schema.ForeignKey{
		ReferencesTable:  parts[0],
		ReferencesColumn: parts[1],
	}, nil
}

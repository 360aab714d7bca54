package diagram

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/easymodel/schema"
)

// Mermaid renders the registered entities and their resolved relationships
// as a mermaid erDiagram block, ready to paste into documentation.
func Mermaid(registry *schema.Registry) string {
	var b strings.Builder
	b.WriteString("erDiagram\n")

	entities := registry.Entities()

	for _, entity := range entities {
		fmt.Fprintf(&b, "    %s {\n", entity.TableName)
		for _, f := range entity.Fields {
			fmt.Fprintf(&b, "        %s %s%s\n", simplifyType(f.Type), f.Name, fieldMarkers(f))
		}
		b.WriteString("    }\n")
	}

	for _, entity := range entities {
		for _, rel := range entity.Relationships {
			switch rel.Type {
			case schema.OneToMany:
				fmt.Fprintf(&b, "    %s ||--o{ %s : \"%s\"\n", entity.TableName, rel.Target, rel.Name)
			case schema.ManyToMany:
				// Emit each pair once, from the lexically smaller side.
				if entity.TableName < rel.Target {
					fmt.Fprintf(&b, "    %s }o--o{ %s : \"%s\"\n", entity.TableName, rel.Target, rel.Name)
				}
			}
		}
	}

	return b.String()
}

func fieldMarkers(f schema.Field) string {
	var markers []string
	if f.Primary {
		markers = append(markers, "PK")
	}
	if f.ForeignKey != nil {
		markers = append(markers, "FK")
	}
	if f.Unique {
		markers = append(markers, "UK")
	}
	if len(markers) == 0 {
		return ""
	}
	return " " + strings.Join(markers, ",")
}

// simplifyType reduces a SQL type to a single mermaid-safe token:
// "character varying(255)" becomes "character_varying".
func simplifyType(sqlType string) string {
	t := strings.ToLower(sqlType)
	if i := strings.Index(t, "("); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSpace(t)
	return strings.ReplaceAll(t, " ", "_")
}

package schema

// Entity is the runtime description of one mapped table: its name, its
// columns in declaration order, and the relationship attributes the
// resolver (or the user) has attached to it.
type Entity struct {
	TableName     string
	Fields        []Field
	Relationships []Relationship
}

type Field struct {
	Name       string
	Type       string
	Primary    bool
	Unique     bool
	Nullable   bool
	Default    *string
	ForeignKey *ForeignKey
}

type ForeignKey struct {
	ReferencesTable  string
	ReferencesColumn string
	OnDelete         string // CASCADE, SET NULL, RESTRICT, etc.
	OnUpdate         string
}

// Relationship is one side of an association. Synthesized pairs always
// carry matching Name/BackRef so either side can navigate to the other.
type Relationship struct {
	Name             string // attribute name on the owning entity
	BackRef          string // attribute name on the target entity
	Target           string // target table name
	Type             RelationType
	ForeignKeyColumn string // owning FK column (empty for many-to-many)
	JunctionTable    string // set only for many-to-many
}

type RelationType string

const (
	OneToMany  RelationType = "one-to-many"
	ManyToOne  RelationType = "many-to-one"
	ManyToMany RelationType = "many-to-many"
)

// Field returns the field with the given column name, if present.
func (e *Entity) Field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// PrimaryKey returns the entity's primary-key field, if one is declared.
func (e *Entity) PrimaryKey() (Field, bool) {
	for _, f := range e.Fields {
		if f.Primary {
			return f, true
		}
	}
	return Field{}, false
}

// Relationship returns the relationship attribute with the given name.
func (e *Entity) Relationship(name string) (Relationship, bool) {
	for _, r := range e.Relationships {
		if r.Name == name {
			return r, true
		}
	}
	return Relationship{}, false
}

// HasAttribute reports whether name is already taken on the entity,
// either by a column or by a relationship attribute.
func (e *Entity) HasAttribute(name string) bool {
	if _, ok := e.Field(name); ok {
		return true
	}
	_, ok := e.Relationship(name)
	return ok
}

// ForeignKeys returns the entity's foreign-key fields in declaration order.
func (e *Entity) ForeignKeys() []Field {
	var fks []Field
	for _, f := range e.Fields {
		if f.ForeignKey != nil {
			fks = append(fks, f)
		}
	}
	return fks
}

package schema

// Dialect identifies a concrete database flavor.
type Dialect string

const (
	DialectPostgres  Dialect = "postgres"
	DialectSQLite    Dialect = "sqlite"
	DialectSQLServer Dialect = "sqlserver"
)

// FKAction is a foreign-key referential action, drawn from a closed set (spec §3.1).
type FKAction string

const (
	NoAction   FKAction = "NO_ACTION"
	Cascade    FKAction = "CASCADE"
	SetNull    FKAction = "SET_NULL"
	SetDefault FKAction = "SET_DEFAULT"
	Restrict   FKAction = "RESTRICT"
)

// DefaultSchemaNamespace is the namespace used when a Table omits SchemaNamespace.
const DefaultSchemaNamespace = "public"

// Schema is a named, ordered container of Tables. Schema values are immutable once
// built; construct them with New.
type Schema struct {
	Name   string
	Tables []Table
}

// New builds an immutable Schema from the given tables, preserving declaration order.
func New(name string, tables ...Table) Schema {
	cp := make([]Table, len(tables))
	copy(cp, tables)
	return Schema{Name: name, Tables: cp}
}

// Table returns the table with the given name (case-insensitive ordinal match) and
// whether it was found.
func (s Schema) Table(name string) (Table, bool) {
	for _, t := range s.Tables {
		if equalFold(t.Name, name) {
			return t, true
		}
	}
	return Table{}, false
}

// Table is an ordered sequence of columns plus keys/indices/constraints (spec §3.1).
type Table struct {
	Name                   string
	SchemaNamespace        string // default DefaultSchemaNamespace
	Comment                string
	Columns                []Column
	PrimaryKey             *PrimaryKey
	Indices                []Index
	ForeignKeys            []ForeignKey
	UniqueConstraints      []UniqueConstraint
	TableCheckConstraints  []CheckConstraint
}

// Namespace returns SchemaNamespace, defaulting to DefaultSchemaNamespace when unset.
func (t Table) Namespace() string {
	if t.SchemaNamespace == "" {
		return DefaultSchemaNamespace
	}
	return t.SchemaNamespace
}

// Column returns the column with the given name (case-insensitive ordinal match).
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if equalFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// Column is a single table column (spec §3.1).
type Column struct {
	Name       string
	Type       Type
	Nullable   bool // JSON decoding defaults it to true when absent; Validate rejects a nullable primary-key column
	DefaultSQL string // literal dialect SQL; mutually exclusive with DefaultPortable
	DefaultPortable string // portable expression (spec §3.4); takes precedence if both set

	Identity      bool
	IdentitySeed      int64 // default 1
	IdentityIncrement int64 // default 1

	ComputedExpression string
	ComputedPersisted  bool

	Collation        string
	CheckExpression  string
	Comment          string

	// RawCatalogType and RawCatalogDefault retain inspector catalog text for
	// diagnostics only (SPEC_FULL §3.A); they never participate in equality, diffing,
	// or serialization.
	RawCatalogType    string
	RawCatalogDefault string
}

// HasDefault reports whether the column declares either form of default.
func (c Column) HasDefault() bool {
	return c.DefaultPortable != "" || c.DefaultSQL != ""
}

// EffectiveDefault returns the default expression that should be translated, preferring
// DefaultPortable over DefaultSQL (spec §3.2), and whether it is a portable expression
// (true) or literal dialect SQL already (false).
func (c Column) EffectiveDefault() (expr string, isPortable bool, ok bool) {
	if c.DefaultPortable != "" {
		return c.DefaultPortable, true, true
	}
	if c.DefaultSQL != "" {
		return c.DefaultSQL, false, true
	}
	return "", false, false
}

// EffectiveSeed/EffectiveIncrement apply the spec's default-of-1 rule for identity columns.
func (c Column) EffectiveSeed() int64 {
	if c.IdentitySeed == 0 {
		return 1
	}
	return c.IdentitySeed
}

func (c Column) EffectiveIncrement() int64 {
	if c.IdentityIncrement == 0 {
		return 1
	}
	return c.IdentityIncrement
}

// IsComputed reports whether the column is a computed column.
func (c Column) IsComputed() bool {
	return c.ComputedExpression != ""
}

// Index is a table index: either an ordered list of columns or of opaque expressions.
type Index struct {
	Name        string
	Columns     []string
	Expressions []string
	Unique      bool
	Filter      string // optional partial-index predicate
}

// IsExpressionIndex reports whether the index is defined over expressions rather than
// plain column names.
func (i Index) IsExpressionIndex() bool {
	return len(i.Expressions) > 0
}

// ForeignKey is a foreign-key constraint (spec §3.1).
type ForeignKey struct {
	Name              string // optional; empty means anonymous
	Columns           []string
	ReferencedSchema  string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          FKAction // default NoAction
	OnUpdate          FKAction // default NoAction
}

// IsAnonymous reports whether the foreign key has no declared name (spec §4.5: anonymous
// foreign keys are additive-only and never matched against current state by name).
func (fk ForeignKey) IsAnonymous() bool {
	return fk.Name == ""
}

// EffectiveOnDelete/EffectiveOnUpdate apply the NoAction default.
func (fk ForeignKey) EffectiveOnDelete() FKAction {
	if fk.OnDelete == "" {
		return NoAction
	}
	return fk.OnDelete
}

func (fk ForeignKey) EffectiveOnUpdate() FKAction {
	if fk.OnUpdate == "" {
		return NoAction
	}
	return fk.OnUpdate
}

// PrimaryKey is a table's primary key (spec §3.1).
type PrimaryKey struct {
	Name    string // optional
	Columns []string
}

// UniqueConstraint is a table-level unique constraint (spec §3.1).
type UniqueConstraint struct {
	Name    string // optional
	Columns []string
}

// CheckConstraint is a table-level or column-level boolean check (spec §3.1).
type CheckConstraint struct {
	Name       string // table-level only
	Expression string
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

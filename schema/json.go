package schema

import (
	"bytes"
	"encoding/json"
)

// The wire shapes below mirror the teacher's internal/schema/loader.go JSON-loading
// idiom (strict decode via json.Decoder.DisallowUnknownFields, spec §6.2) adapted to the
// richer Portable Model. Semantic defaults (nullable=true, identity=false,
// schema_namespace="public", fk actions=NoAction) are omitted on output via `omitempty`
// and restored on input by the zero-value defaulting already built into the model
// (Table.Namespace(), ForeignKey.EffectiveOnDelete(), ...).

type schemaWire struct {
	Name   string      `json:"name"`
	Tables []tableWire `json:"tables"`
}

type tableWire struct {
	Name                  string             `json:"name"`
	SchemaNamespace       string             `json:"schema_namespace,omitempty"`
	Comment               string             `json:"comment,omitempty"`
	Columns               []columnWire       `json:"columns"`
	PrimaryKey            *primaryKeyWire    `json:"primary_key,omitempty"`
	Indices               []indexWire        `json:"indices,omitempty"`
	ForeignKeys           []foreignKeyWire   `json:"foreign_keys,omitempty"`
	UniqueConstraints     []uniqueWire       `json:"unique_constraints,omitempty"`
	TableCheckConstraints []checkWire        `json:"table_check_constraints,omitempty"`
}

type columnWire struct {
	Name              string          `json:"name"`
	Type              json.RawMessage `json:"type"`
	Nullable          *bool           `json:"nullable,omitempty"`
	DefaultSQL        string          `json:"default_sql,omitempty"`
	DefaultPortable   string          `json:"default_portable,omitempty"`
	Identity          bool            `json:"identity,omitempty"`
	IdentitySeed      int64           `json:"identity_seed,omitempty"`
	IdentityIncrement int64           `json:"identity_increment,omitempty"`
	ComputedExpression string         `json:"computed_expression,omitempty"`
	ComputedPersisted bool            `json:"computed_persisted,omitempty"`
	Collation         string          `json:"collation,omitempty"`
	CheckExpression   string          `json:"check_expression,omitempty"`
	Comment           string          `json:"comment,omitempty"`
}

type indexWire struct {
	Name        string   `json:"name"`
	Columns     []string `json:"columns,omitempty"`
	Expressions []string `json:"expressions,omitempty"`
	Unique      bool     `json:"unique,omitempty"`
	Filter      string   `json:"filter,omitempty"`
}

type foreignKeyWire struct {
	Name              string   `json:"name,omitempty"`
	Columns           []string `json:"columns"`
	ReferencedSchema  string   `json:"referenced_schema,omitempty"`
	ReferencedTable   string   `json:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns"`
	OnDelete          FKAction `json:"on_delete,omitempty"`
	OnUpdate          FKAction `json:"on_update,omitempty"`
}

type primaryKeyWire struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
}

type uniqueWire struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
}

type checkWire struct {
	Name       string `json:"name,omitempty"`
	Expression string `json:"expression"`
}

// MarshalJSON implements the tagged-variant serialization contract (spec §6.2).
func (s Schema) MarshalJSON() ([]byte, error) {
	w := schemaWire{Name: s.Name}
	for _, t := range s.Tables {
		w.Tables = append(w.Tables, toTableWire(t))
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements strict, unknown-field-rejecting deserialization (spec §6.2).
func (s *Schema) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var w schemaWire
	if err := dec.Decode(&w); err != nil {
		return &InvalidSchemaError{Reason: err.Error(), Location: "schema"}
	}
	out := Schema{Name: w.Name}
	for _, tw := range w.Tables {
		t, err := fromTableWire(tw)
		if err != nil {
			return err
		}
		out.Tables = append(out.Tables, t)
	}
	*s = out
	return nil
}

func toTableWire(t Table) tableWire {
	w := tableWire{
		Name:            t.Name,
		SchemaNamespace: t.SchemaNamespace,
		Comment:         t.Comment,
	}
	for _, c := range t.Columns {
		w.Columns = append(w.Columns, toColumnWire(c))
	}
	if t.PrimaryKey != nil {
		w.PrimaryKey = &primaryKeyWire{Name: t.PrimaryKey.Name, Columns: t.PrimaryKey.Columns}
	}
	for _, idx := range t.Indices {
		w.Indices = append(w.Indices, indexWire{
			Name: idx.Name, Columns: idx.Columns, Expressions: idx.Expressions,
			Unique: idx.Unique, Filter: idx.Filter,
		})
	}
	for _, fk := range t.ForeignKeys {
		w.ForeignKeys = append(w.ForeignKeys, foreignKeyWire{
			Name: fk.Name, Columns: fk.Columns, ReferencedSchema: fk.ReferencedSchema,
			ReferencedTable: fk.ReferencedTable, ReferencedColumns: fk.ReferencedColumns,
			OnDelete: emptyIfNoAction(fk.OnDelete), OnUpdate: emptyIfNoAction(fk.OnUpdate),
		})
	}
	for _, uc := range t.UniqueConstraints {
		w.UniqueConstraints = append(w.UniqueConstraints, uniqueWire{Name: uc.Name, Columns: uc.Columns})
	}
	for _, cc := range t.TableCheckConstraints {
		w.TableCheckConstraints = append(w.TableCheckConstraints, checkWire{Name: cc.Name, Expression: cc.Expression})
	}
	return w
}

func emptyIfNoAction(a FKAction) FKAction {
	if a == NoAction {
		return ""
	}
	return a
}

func toColumnWire(c Column) columnWire {
	typeJSON, _ := MarshalType(c.Type)
	w := columnWire{
		Name:               c.Name,
		Type:               typeJSON,
		DefaultSQL:         c.DefaultSQL,
		DefaultPortable:    c.DefaultPortable,
		Identity:           c.Identity,
		ComputedExpression: c.ComputedExpression,
		ComputedPersisted:  c.ComputedPersisted,
		Collation:          c.Collation,
		CheckExpression:    c.CheckExpression,
		Comment:            c.Comment,
	}
	if !c.Nullable {
		f := false
		w.Nullable = &f
	}
	if c.IdentitySeed != 0 && c.IdentitySeed != 1 {
		w.IdentitySeed = c.IdentitySeed
	}
	if c.IdentityIncrement != 0 && c.IdentityIncrement != 1 {
		w.IdentityIncrement = c.IdentityIncrement
	}
	return w
}

func fromTableWire(w tableWire) (Table, error) {
	t := Table{Name: w.Name, SchemaNamespace: w.SchemaNamespace, Comment: w.Comment}
	for _, cw := range w.Columns {
		c, err := fromColumnWire(cw)
		if err != nil {
			return Table{}, err
		}
		t.Columns = append(t.Columns, c)
	}
	if w.PrimaryKey != nil {
		t.PrimaryKey = &PrimaryKey{Name: w.PrimaryKey.Name, Columns: w.PrimaryKey.Columns}
	}
	for _, iw := range w.Indices {
		t.Indices = append(t.Indices, Index{
			Name: iw.Name, Columns: iw.Columns, Expressions: iw.Expressions,
			Unique: iw.Unique, Filter: iw.Filter,
		})
	}
	for _, fw := range w.ForeignKeys {
		t.ForeignKeys = append(t.ForeignKeys, ForeignKey{
			Name: fw.Name, Columns: fw.Columns, ReferencedSchema: fw.ReferencedSchema,
			ReferencedTable: fw.ReferencedTable, ReferencedColumns: fw.ReferencedColumns,
			OnDelete: fw.OnDelete, OnUpdate: fw.OnUpdate,
		})
	}
	for _, uw := range w.UniqueConstraints {
		t.UniqueConstraints = append(t.UniqueConstraints, UniqueConstraint{Name: uw.Name, Columns: uw.Columns})
	}
	for _, cw := range w.TableCheckConstraints {
		t.TableCheckConstraints = append(t.TableCheckConstraints, CheckConstraint{Name: cw.Name, Expression: cw.Expression})
	}
	return t, nil
}

func fromColumnWire(w columnWire) (Column, error) {
	typ, err := UnmarshalType(w.Type)
	if err != nil {
		return Column{}, err
	}
	c := Column{
		Name:               w.Name,
		Type:               typ,
		Nullable:           true,
		DefaultSQL:         w.DefaultSQL,
		DefaultPortable:    w.DefaultPortable,
		Identity:           w.Identity,
		IdentitySeed:       w.IdentitySeed,
		IdentityIncrement:  w.IdentityIncrement,
		ComputedExpression: w.ComputedExpression,
		ComputedPersisted:  w.ComputedPersisted,
		Collation:          w.Collation,
		CheckExpression:    w.CheckExpression,
		Comment:            w.Comment,
	}
	if w.Nullable != nil {
		c.Nullable = *w.Nullable
	}
	return c, nil
}

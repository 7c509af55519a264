// Package diff implements the Diff Engine (spec §4.5): comparing a current and a
// desired Schema and emitting the closed, flat, stably-ordered list of Operations that
// transforms one into the other.
//
// Grounded on the teacher's internal/schema/diff.go (DiffSchemas/diffTables/diffColumns,
// map-based name matching, IsEmpty short-circuit), restructured from a tree-shaped
// SchemaDiff/TableDiff/ColumnDiff result into the flat []schema.Operation shape the
// spec's stable emission order requires. Column types of matched columns are not
// compared: only a column's presence or absence drives AddColumn/DropColumn.
package diff

import (
	"sort"
	"strings"

	"github.com/relschema/relschema/schema"
)

// Options is the Diff Engine's policy input (spec §4.5 "iff destructive is enabled",
// §6.1 SchemaDiff.calculate(current, desired, options)).
type Options struct {
	// AllowDestructive gates emission of every Drop* operation (DropTable, DropColumn,
	// DropIndex, DropForeignKey, DropPrimaryKey): with it false, the diff is additive-only
	// and a table/column/index/foreign key/primary key present only in current is left
	// out of the operation list entirely rather than proposed for removal (spec §8.2
	// Scenario D).
	AllowDestructive bool
}

// Diff compares current against desired and returns the ordered Operations needed to
// bring current to desired (spec §4.5). Matching is case-insensitive ordinal by name;
// anonymous foreign keys are never matched against current state and are always treated
// as additive (spec §4.5, §3.1 IsAnonymous). The second return value is always nil today
// (Diff has no fallible step) but is part of the signature per spec.md §6.1's
// SchemaDiff.calculate(...) -> Result<OpList, Error> contract.
func Diff(current, desired schema.Schema, opts Options) ([]schema.Operation, error) {
	currentByName := indexTables(current)
	desiredByName := indexTables(desired)

	var createOps []schema.Operation
	var alterOps []schema.Operation
	var dropTableOps []schema.Operation

	for _, dt := range desired.Tables {
		key := foldKey(dt.Name)
		if ct, ok := currentByName[key]; !ok {
			createOps = append(createOps, createTableOps(dt)...)
		} else {
			alterOps = append(alterOps, diffTable(ct, dt, opts)...)
		}
	}

	if opts.AllowDestructive {
		var droppedNames []string
		for _, ct := range current.Tables {
			key := foldKey(ct.Name)
			if _, ok := desiredByName[key]; !ok {
				droppedNames = append(droppedNames, ct.Name)
			}
		}
		sort.Strings(droppedNames)
		for _, name := range droppedNames {
			dropTableOps = append(dropTableOps, schema.Operation{
				Kind: schema.OpDropTable, SchemaNamespace: currentByName[foldKey(name)].Namespace(),
				TableName: name, DropTableName: name,
			})
		}
	}

	out := make([]schema.Operation, 0, len(createOps)+len(alterOps)+len(dropTableOps))
	out = append(out, createOps...)
	out = append(out, alterOps...)
	out = append(out, dropTableOps...)
	return out, nil
}

func indexTables(s schema.Schema) map[string]schema.Table {
	m := make(map[string]schema.Table, len(s.Tables))
	for _, t := range s.Tables {
		m[foldKey(t.Name)] = t
	}
	return m
}

func foldKey(s string) string { return strings.ToLower(s) }

// createTableOps emits the CreateTable operation for a brand-new table, immediately
// followed by CreateIndex operations for its indices (spec §4.5 stable order: "CreateTable
// and its indices first").
func createTableOps(t schema.Table) []schema.Operation {
	ops := []schema.Operation{{
		Kind: schema.OpCreateTable, SchemaNamespace: t.Namespace(), TableName: t.Name, Table: t,
	}}
	for _, idx := range t.Indices {
		ops = append(ops, schema.Operation{
			Kind: schema.OpCreateIndex, SchemaNamespace: t.Namespace(), TableName: t.Name, Index: idx,
		})
	}
	return ops
}

// diffTable emits, in spec §4.5 order, the operations for one table that exists in both
// schemas: AddColumn/DropColumn first, then index/FK/unique/check/PK create-and-drop.
// Every Drop* emission is gated on opts.AllowDestructive (spec §4.5 items 2-4, "iff
// destructive is enabled").
func diffTable(current, desired schema.Table, opts Options) []schema.Operation {
	var ops []schema.Operation
	ns := desired.Namespace()

	currentCols := indexColumns(current)
	desiredCols := indexColumns(desired)

	var addedCols, droppedCols []string
	for _, dc := range desired.Columns {
		if _, ok := currentCols[foldKey(dc.Name)]; !ok {
			addedCols = append(addedCols, dc.Name)
		}
	}
	if opts.AllowDestructive {
		for _, cc := range current.Columns {
			if _, ok := desiredCols[foldKey(cc.Name)]; !ok {
				droppedCols = append(droppedCols, cc.Name)
			}
		}
	}
	sort.Strings(addedCols)
	sort.Strings(droppedCols)
	for _, name := range addedCols {
		col := desiredCols[foldKey(name)]
		ops = append(ops, schema.Operation{Kind: schema.OpAddColumn, SchemaNamespace: ns, TableName: desired.Name, Column: col, Table: desired})
	}
	for _, name := range droppedCols {
		ops = append(ops, schema.Operation{Kind: schema.OpDropColumn, SchemaNamespace: ns, TableName: desired.Name, ColumnName: name, Table: desired})
	}

	ops = append(ops, diffIndices(current, desired, opts)...)
	ops = append(ops, diffForeignKeys(current, desired, opts)...)
	ops = append(ops, diffUniqueConstraints(current, desired)...)
	ops = append(ops, diffCheckConstraints(current, desired)...)
	ops = append(ops, diffPrimaryKey(current, desired, opts)...)
	return ops
}

func indexColumns(t schema.Table) map[string]schema.Column {
	m := make(map[string]schema.Column, len(t.Columns))
	for _, c := range t.Columns {
		m[foldKey(c.Name)] = c
	}
	return m
}

func diffIndices(current, desired schema.Table, opts Options) []schema.Operation {
	ns := desired.Namespace()
	currentByName := map[string]schema.Index{}
	for _, idx := range current.Indices {
		currentByName[foldKey(idx.Name)] = idx
	}
	desiredByName := map[string]schema.Index{}
	for _, idx := range desired.Indices {
		desiredByName[foldKey(idx.Name)] = idx
	}

	var added, dropped []string
	for _, idx := range desired.Indices {
		if _, ok := currentByName[foldKey(idx.Name)]; !ok {
			added = append(added, idx.Name)
		}
	}
	if opts.AllowDestructive {
		for _, idx := range current.Indices {
			if _, ok := desiredByName[foldKey(idx.Name)]; !ok {
				dropped = append(dropped, idx.Name)
			}
		}
	}
	sort.Strings(added)
	sort.Strings(dropped)

	var ops []schema.Operation
	for _, name := range added {
		ops = append(ops, schema.Operation{Kind: schema.OpCreateIndex, SchemaNamespace: ns, TableName: desired.Name, Index: desiredByName[foldKey(name)], Table: desired})
	}
	for _, name := range dropped {
		ops = append(ops, schema.Operation{Kind: schema.OpDropIndex, SchemaNamespace: ns, TableName: desired.Name, IndexName: name, Table: desired})
	}
	return ops
}

// diffForeignKeys matches named foreign keys by name; anonymous foreign keys in the
// desired schema are always additive (spec §4.5) since they have no stable identity to
// match against current state.
func diffForeignKeys(current, desired schema.Table, opts Options) []schema.Operation {
	ns := desired.Namespace()
	currentByName := map[string]schema.ForeignKey{}
	for _, fk := range current.ForeignKeys {
		if !fk.IsAnonymous() {
			currentByName[foldKey(fk.Name)] = fk
		}
	}
	desiredByName := map[string]schema.ForeignKey{}
	for _, fk := range desired.ForeignKeys {
		if !fk.IsAnonymous() {
			desiredByName[foldKey(fk.Name)] = fk
		}
	}

	var added, dropped []string
	for _, fk := range desired.ForeignKeys {
		if fk.IsAnonymous() {
			continue // handled separately below, always additive
		}
		if _, ok := currentByName[foldKey(fk.Name)]; !ok {
			added = append(added, fk.Name)
		}
	}
	if opts.AllowDestructive {
		for _, fk := range current.ForeignKeys {
			if fk.IsAnonymous() {
				continue
			}
			if _, ok := desiredByName[foldKey(fk.Name)]; !ok {
				dropped = append(dropped, fk.Name)
			}
		}
	}
	sort.Strings(added)
	sort.Strings(dropped)

	var ops []schema.Operation
	for _, name := range added {
		ops = append(ops, schema.Operation{Kind: schema.OpAddForeignKey, SchemaNamespace: ns, TableName: desired.Name, ForeignKey: desiredByName[foldKey(name)], Table: desired})
	}
	for _, fk := range desired.ForeignKeys {
		if fk.IsAnonymous() {
			ops = append(ops, schema.Operation{Kind: schema.OpAddForeignKey, SchemaNamespace: ns, TableName: desired.Name, ForeignKey: fk, Table: desired})
		}
	}
	for _, name := range dropped {
		ops = append(ops, schema.Operation{Kind: schema.OpDropForeignKey, SchemaNamespace: ns, TableName: desired.Name, ConstraintName: name, Table: desired})
	}
	return ops
}

func diffUniqueConstraints(current, desired schema.Table) []schema.Operation {
	ns := desired.Namespace()
	currentByName := map[string]bool{}
	for _, uc := range current.UniqueConstraints {
		currentByName[foldKey(uc.Name)] = true
	}
	var ops []schema.Operation
	var added []schema.UniqueConstraint
	for _, uc := range desired.UniqueConstraints {
		if !currentByName[foldKey(uc.Name)] {
			added = append(added, uc)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i].Name < added[j].Name })
	for _, uc := range added {
		ops = append(ops, schema.Operation{Kind: schema.OpAddUniqueConstraint, SchemaNamespace: ns, TableName: desired.Name, UniqueConstraint: uc, Table: desired})
	}
	return ops
}

func diffCheckConstraints(current, desired schema.Table) []schema.Operation {
	ns := desired.Namespace()
	currentByName := map[string]bool{}
	for _, cc := range current.TableCheckConstraints {
		currentByName[foldKey(cc.Name)] = true
	}
	var ops []schema.Operation
	var added []schema.CheckConstraint
	for _, cc := range desired.TableCheckConstraints {
		if !currentByName[foldKey(cc.Name)] {
			added = append(added, cc)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i].Name < added[j].Name })
	for _, cc := range added {
		ops = append(ops, schema.Operation{Kind: schema.OpAddCheckConstraint, SchemaNamespace: ns, TableName: desired.Name, CheckConstraint: cc, Table: desired})
	}
	return ops
}

// diffPrimaryKey emits the primary-key change, if any, between current and desired.
// Adding a primary key where none existed is purely additive and always proposed; but a
// change that requires dropping and replacing an existing primary key needs the
// DropPrimaryKey half, which requires opts.AllowDestructive — emitting the AddPrimaryKey
// half alone would be invalid DDL (one table cannot carry two primary keys), so a
// disallowed replacement is skipped in its entirety rather than proposing half a change.
func diffPrimaryKey(current, desired schema.Table, opts Options) []schema.Operation {
	ns := desired.Namespace()
	var ops []schema.Operation
	samePK := func(a, b *schema.PrimaryKey) bool {
		if a == nil || b == nil {
			return a == b
		}
		if len(a.Columns) != len(b.Columns) {
			return false
		}
		for i := range a.Columns {
			if !strings.EqualFold(a.Columns[i], b.Columns[i]) {
				return false
			}
		}
		return true
	}
	if samePK(current.PrimaryKey, desired.PrimaryKey) {
		return nil
	}
	if current.PrimaryKey != nil {
		if !opts.AllowDestructive {
			return nil
		}
		ops = append(ops, schema.Operation{Kind: schema.OpDropPrimaryKey, SchemaNamespace: ns, TableName: desired.Name, ConstraintName: current.PrimaryKey.Name, Table: desired})
	}
	if desired.PrimaryKey != nil {
		ops = append(ops, schema.Operation{Kind: schema.OpAddPrimaryKey, SchemaNamespace: ns, TableName: desired.Name, PrimaryKey: *desired.PrimaryKey, Table: desired})
	}
	return ops
}

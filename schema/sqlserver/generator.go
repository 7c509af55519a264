package sqlserver

import (
	"fmt"
	"strings"

	"github.com/relschema/relschema/internal/defaultexpr"
	"github.com/relschema/relschema/schema"
)

// Generator implements schema.Generator for SQL Server over the full closed Operation
// set, in the same (statements, description) shape the teacher's PostgreSQL/SQLite
// generators use.
type Generator struct{}

func (g *Generator) Dialect() schema.Dialect { return schema.DialectSQLServer }

func (g *Generator) Generate(op schema.Operation) ([]string, string, error) {
	switch op.Kind {
	case schema.OpCreateTable:
		return createTable(op)
	case schema.OpAddColumn:
		return addColumn(op)
	case schema.OpDropColumn:
		return []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", qualify(op), quoteIdent(op.ColumnName))}, op.Describe(), nil
	case schema.OpCreateIndex:
		return createIndex(op)
	case schema.OpDropIndex:
		return []string{fmt.Sprintf("DROP INDEX %s ON %s", quoteIdent(op.IndexName), qualify(op))}, op.Describe(), nil
	case schema.OpAddForeignKey:
		return addForeignKey(op)
	case schema.OpDropForeignKey:
		return []string{fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", qualify(op), quoteIdent(op.ConstraintName))}, op.Describe(), nil
	case schema.OpAddUniqueConstraint:
		sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)",
			qualify(op), quoteIdent(op.UniqueConstraint.Name), quoteIdentList(op.UniqueConstraint.Columns))
		return []string{sql}, op.Describe(), nil
	case schema.OpAddCheckConstraint:
		sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)",
			qualify(op), quoteIdent(op.CheckConstraint.Name), op.CheckConstraint.Expression)
		return []string{sql}, op.Describe(), nil
	case schema.OpAddPrimaryKey:
		return []string{fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", qualify(op), quoteIdentList(op.PrimaryKey.Columns))}, op.Describe(), nil
	case schema.OpDropPrimaryKey:
		return []string{fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", qualify(op), quoteIdent(op.ConstraintName))}, op.Describe(), nil
	case schema.OpDropTable:
		return []string{fmt.Sprintf("DROP TABLE %s", qualify(op))}, op.Describe(), nil
	case schema.OpAlterColumn:
		return alterColumn(op)
	default:
		return nil, "", &schema.InvalidSchemaError{Reason: "unknown operation kind " + string(op.Kind), Location: "operation"}
	}
}

func qualify(op schema.Operation) string {
	ns := op.SchemaNamespace
	if ns == "" {
		ns = "dbo"
	}
	return quoteIdent(ns) + "." + quoteIdent(op.TableName)
}

func quoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func quoteIdentList(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return strings.Join(out, ", ")
}

func createTable(op schema.Operation) ([]string, string, error) {
	var lines []string
	for _, col := range op.Table.Columns {
		def, err := formatColumnDefinition(col)
		if err != nil {
			return nil, "", err
		}
		lines = append(lines, "  "+def)
	}
	if op.Table.PrimaryKey != nil {
		lines = append(lines, "  PRIMARY KEY ("+quoteIdentList(op.Table.PrimaryKey.Columns)+")")
	}
	for _, fk := range op.Table.ForeignKeys {
		lines = append(lines, "  "+inlineForeignKey(fk))
	}
	for _, uc := range op.Table.UniqueConstraints {
		lines = append(lines, fmt.Sprintf("  UNIQUE (%s)", quoteIdentList(uc.Columns)))
	}
	for _, cc := range op.Table.TableCheckConstraints {
		lines = append(lines, fmt.Sprintf("  CHECK (%s)", cc.Expression))
	}
	for _, col := range op.Table.Columns {
		if enum, ok := col.Type.(schema.Enum); ok {
			vals := make([]string, len(enum.Values))
			for i, v := range enum.Values {
				vals[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
			}
			lines = append(lines, fmt.Sprintf("  CHECK (%s IN (%s))", quoteIdent(col.Name), strings.Join(vals, ", ")))
		}
	}

	sql := fmt.Sprintf("CREATE TABLE %s (\n%s\n)", qualify(op), strings.Join(lines, ",\n"))
	stmts := []string{sql}

	for _, idx := range op.Table.Indices {
		s, _, err := createIndex(schema.Operation{Kind: schema.OpCreateIndex, SchemaNamespace: op.SchemaNamespace, TableName: op.TableName, Index: idx})
		if err != nil {
			return nil, "", err
		}
		stmts = append(stmts, s...)
	}
	return stmts, op.Describe(), nil
}

func inlineForeignKey(fk schema.ForeignKey) string {
	s := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
		quoteIdentList(fk.Columns), quoteIdent(fk.ReferencedTable), quoteIdentList(fk.ReferencedColumns))
	if fk.Name != "" {
		s = "CONSTRAINT " + quoteIdent(fk.Name) + " " + s
	}
	if a := fk.EffectiveOnDelete(); a != schema.NoAction {
		s += " ON DELETE " + translateAction(a)
	}
	if a := fk.EffectiveOnUpdate(); a != schema.NoAction {
		s += " ON UPDATE " + translateAction(a)
	}
	return s
}

func translateAction(a schema.FKAction) string {
	switch a {
	case schema.Cascade:
		return "CASCADE"
	case schema.SetNull:
		return "SET NULL"
	case schema.SetDefault:
		return "SET DEFAULT"
	case schema.Restrict:
		return "NO ACTION" // SQL Server has no RESTRICT; closest is the NO ACTION default.
	default:
		return "NO ACTION"
	}
}

// isIntegerType reports whether t is one of the integer variants identity requires.
func isIntegerType(t schema.Type) bool {
	switch t.(type) {
	case schema.TinyInt, schema.SmallInt, schema.Int, schema.BigInt:
		return true
	default:
		return false
	}
}

func formatColumnDefinition(col schema.Column) (string, error) {
	typeSQL, err := TranslateType(col.Type)
	if err != nil {
		return "", err
	}
	if col.Identity && !isIntegerType(col.Type) {
		// Spec scenario F: IDENTITY on a non-integer column is rejected rather than
		// silently dropped, since SQL Server itself rejects it at DDL time.
		return "", &schema.InvalidSchemaError{
			Reason:   fmt.Sprintf("column %q: IDENTITY is only valid on an integer type, got %s", col.Name, col.Type),
			Location: "column " + col.Name,
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", quoteIdent(col.Name), typeSQL)

	if col.Identity {
		fmt.Fprintf(&sb, " IDENTITY(%d,%d)", col.EffectiveSeed(), col.EffectiveIncrement())
	}
	if !col.Nullable {
		sb.WriteString(" NOT NULL")
	} else if _, isRowVersion := col.Type.(schema.RowVersion); !isRowVersion {
		sb.WriteString(" NULL")
	}
	if col.IsComputed() {
		fmt.Fprintf(&sb, " AS (%s)", col.ComputedExpression)
		if col.ComputedPersisted {
			sb.WriteString(" PERSISTED")
		}
	} else if expr, isPortable, ok := col.EffectiveDefault(); ok {
		sql := expr
		if isPortable {
			sql = defaultexpr.RenderSQLServer(defaultexpr.Parse(expr))
		}
		fmt.Fprintf(&sb, " DEFAULT %s", sql)
	}
	if col.CheckExpression != "" {
		fmt.Fprintf(&sb, " CHECK (%s)", col.CheckExpression)
	}
	if col.Collation != "" {
		fmt.Fprintf(&sb, " COLLATE %s", col.Collation)
	}
	return sb.String(), nil
}

func addColumn(op schema.Operation) ([]string, string, error) {
	def, err := formatColumnDefinition(op.Column)
	if err != nil {
		return nil, "", err
	}
	return []string{fmt.Sprintf("ALTER TABLE %s ADD %s", qualify(op), def)}, op.Describe(), nil
}

func createIndex(op schema.Operation) ([]string, string, error) {
	unique := ""
	if op.Index.Unique {
		unique = "UNIQUE "
	}
	var target string
	if op.Index.IsExpressionIndex() {
		target = strings.Join(op.Index.Expressions, ", ")
	} else {
		target = quoteIdentList(op.Index.Columns)
	}
	sql := fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", unique, quoteIdent(op.Index.Name), qualify(op), target)
	if op.Index.Filter != "" {
		sql += " WHERE " + op.Index.Filter
	}
	return []string{sql}, op.Describe(), nil
}

func addForeignKey(op schema.Operation) ([]string, string, error) {
	name := op.ForeignKey.Name
	if name == "" {
		name = fmt.Sprintf("fk_%s_%s", op.TableName, strings.Join(op.ForeignKey.Columns, "_"))
	}
	sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		qualify(op), quoteIdent(name), quoteIdentList(op.ForeignKey.Columns),
		quoteIdent(op.ForeignKey.ReferencedTable), quoteIdentList(op.ForeignKey.ReferencedColumns))
	if a := op.ForeignKey.EffectiveOnDelete(); a != schema.NoAction {
		sql += " ON DELETE " + translateAction(a)
	}
	if a := op.ForeignKey.EffectiveOnUpdate(); a != schema.NoAction {
		sql += " ON UPDATE " + translateAction(a)
	}
	return []string{sql}, op.Describe(), nil
}

// alterColumn renders SQL Server's single-clause ALTER COLUMN (it re-specifies the
// entire column definition per changed statement, unlike PostgreSQL's per-facet clauses).
func alterColumn(op schema.Operation) ([]string, string, error) {
	newCol := op.Column
	typeSQL, err := TranslateType(newCol.Type)
	if err != nil {
		return nil, "", err
	}
	nullability := "NULL"
	if !newCol.Nullable {
		nullability = "NOT NULL"
	}
	stmts := []string{fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s %s", qualify(op), quoteIdent(newCol.Name), typeSQL, nullability)}

	oldExpr, oldIsPortable, oldOK := op.PriorColumn.EffectiveDefault()
	newExpr, newIsPortable, newOK := newCol.EffectiveDefault()
	if oldOK != newOK || oldExpr != newExpr || oldIsPortable != newIsPortable {
		if oldOK {
			// SQL Server default constraints are named; without a tracked name, drop by
			// convention df_<table>_<column>, the name this generator assigns on create.
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT df_%s_%s", qualify(op), op.TableName, newCol.Name))
		}
		if newOK {
			sql := newExpr
			if newIsPortable {
				sql = defaultexpr.RenderSQLServer(defaultexpr.Parse(newExpr))
			}
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT df_%s_%s DEFAULT %s FOR %s",
				qualify(op), op.TableName, newCol.Name, sql, quoteIdent(newCol.Name)))
		}
	}
	return stmts, op.Describe(), nil
}

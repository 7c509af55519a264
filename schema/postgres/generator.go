package postgres

import (
	"fmt"
	"strings"

	"github.com/relschema/relschema/internal/defaultexpr"
	"github.com/relschema/relschema/schema"
)

// Generator implements schema.Generator for PostgreSQL, grounded on the teacher's
// database/postgres/generator.go statement shapes and extended to the full closed
// Operation set (spec §4.3, §5.1).
type Generator struct{}

func (g *Generator) Dialect() schema.Dialect { return schema.DialectPostgres }

// Generate renders one Operation as an ordered list of PostgreSQL statements plus a
// short description, per the teacher's (sql, description) return convention.
func (g *Generator) Generate(op schema.Operation) ([]string, string, error) {
	return generate(op)
}

func generate(op schema.Operation) ([]string, string, error) {
	switch op.Kind {
	case schema.OpCreateTable:
		return createTable(op)
	case schema.OpAddColumn:
		return addColumn(op)
	case schema.OpDropColumn:
		sql := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", qualify(op), quoteIdent(op.ColumnName))
		return []string{sql}, op.Describe(), nil
	case schema.OpCreateIndex:
		return createIndex(op)
	case schema.OpDropIndex:
		sql := fmt.Sprintf("DROP INDEX %s", quoteIdent(op.IndexName))
		return []string{sql}, op.Describe(), nil
	case schema.OpAddForeignKey:
		return addForeignKey(op)
	case schema.OpDropForeignKey:
		sql := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", qualify(op), quoteIdent(op.ConstraintName))
		return []string{sql}, op.Describe(), nil
	case schema.OpAddUniqueConstraint:
		sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)",
			qualify(op), quoteIdent(op.UniqueConstraint.Name), quoteIdentList(op.UniqueConstraint.Columns))
		return []string{sql}, op.Describe(), nil
	case schema.OpAddCheckConstraint:
		sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)",
			qualify(op), quoteIdent(op.CheckConstraint.Name), op.CheckConstraint.Expression)
		return []string{sql}, op.Describe(), nil
	case schema.OpAddPrimaryKey:
		sql := fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", qualify(op), quoteIdentList(op.PrimaryKey.Columns))
		return []string{sql}, op.Describe(), nil
	case schema.OpDropPrimaryKey:
		sql := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", qualify(op), quoteIdent(op.ConstraintName))
		return []string{sql}, op.Describe(), nil
	case schema.OpDropTable:
		sql := fmt.Sprintf("DROP TABLE %s CASCADE", qualify(op))
		return []string{sql}, op.Describe(), nil
	case schema.OpAlterColumn:
		return alterColumn(op)
	default:
		return nil, "", &schema.InvalidSchemaError{Reason: "unknown operation kind " + string(op.Kind), Location: "operation"}
	}
}

func qualify(op schema.Operation) string {
	ns := op.SchemaNamespace
	if ns == "" {
		ns = schema.DefaultSchemaNamespace
	}
	return quoteIdent(ns) + "." + quoteIdent(op.TableName)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdentList(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return strings.Join(out, ", ")
}

func createTable(op schema.Operation) ([]string, string, error) {
	var stmts []string
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", qualify(op))

	var lines []string
	for _, col := range op.Table.Columns {
		if enum, ok := col.Type.(schema.Enum); ok {
			stmts = append(stmts, createEnumType(enum))
		}
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
	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n)")
	stmts = append(stmts, sb.String())

	for _, idx := range op.Table.Indices {
		sql, _, err := createIndex(schema.Operation{
			Kind: schema.OpCreateIndex, SchemaNamespace: op.SchemaNamespace,
			TableName: op.TableName, Index: idx,
		})
		if err != nil {
			return nil, "", err
		}
		stmts = append(stmts, sql...)
	}

	return stmts, op.Describe(), nil
}

func createEnumType(e schema.Enum) string {
	vals := make([]string, len(e.Values))
	for i, v := range e.Values {
		vals[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return fmt.Sprintf("CREATE TYPE %s AS ENUM (%s)", quoteIdent(e.Name), strings.Join(vals, ", "))
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
		return "RESTRICT"
	default:
		return "NO ACTION"
	}
}

func formatColumnDefinition(col schema.Column) (string, error) {
	typeSQL, err := TranslateType(col.Type)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", quoteIdent(col.Name), typeSQL)

	if col.Identity {
		fmt.Fprintf(&sb, " GENERATED BY DEFAULT AS IDENTITY (START WITH %d INCREMENT BY %d)",
			col.EffectiveSeed(), col.EffectiveIncrement())
	}
	if !col.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if col.IsComputed() {
		fmt.Fprintf(&sb, " GENERATED ALWAYS AS (%s) STORED", col.ComputedExpression)
	} else if expr, isPortable, ok := col.EffectiveDefault(); ok {
		sql := expr
		if isPortable {
			sql = defaultexpr.RenderPostgres(defaultexpr.Parse(expr))
		}
		fmt.Fprintf(&sb, " DEFAULT %s", sql)
	}
	if col.CheckExpression != "" {
		fmt.Fprintf(&sb, " CHECK (%s)", col.CheckExpression)
	}
	if col.Collation != "" {
		fmt.Fprintf(&sb, " COLLATE %s", quoteIdent(col.Collation))
	}
	return sb.String(), nil
}

func addColumn(op schema.Operation) ([]string, string, error) {
	var stmts []string
	if enum, ok := op.Column.Type.(schema.Enum); ok {
		stmts = append(stmts, createEnumType(enum))
	}
	def, err := formatColumnDefinition(op.Column)
	if err != nil {
		return nil, "", err
	}
	stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", qualify(op), def))
	return stmts, op.Describe(), nil
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

// alterColumn renders the incremental-alter form (spec §4.6 optional AlterColumn): a
// separate ALTER COLUMN clause per changed facet, grounded on the teacher's ModifyColumn.
func alterColumn(op schema.Operation) ([]string, string, error) {
	var stmts []string
	old, newCol := op.PriorColumn, op.Column

	if !schema.TypesEqual(old.Type, newCol.Type) {
		typeSQL, err := TranslateType(newCol.Type)
		if err != nil {
			return nil, "", err
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s",
			qualify(op), quoteIdent(newCol.Name), typeSQL))
	}
	if old.Nullable != newCol.Nullable {
		if newCol.Nullable {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", qualify(op), quoteIdent(newCol.Name)))
		} else {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", qualify(op), quoteIdent(newCol.Name)))
		}
	}
	oldExpr, oldIsPortable, oldOK := old.EffectiveDefault()
	newExpr, newIsPortable, newOK := newCol.EffectiveDefault()
	if oldOK != newOK || oldExpr != newExpr || oldIsPortable != newIsPortable {
		if !newOK {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", qualify(op), quoteIdent(newCol.Name)))
		} else {
			sql := newExpr
			if newIsPortable {
				sql = defaultexpr.RenderPostgres(defaultexpr.Parse(newExpr))
			}
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", qualify(op), quoteIdent(newCol.Name), sql))
		}
	}
	return stmts, op.Describe(), nil
}

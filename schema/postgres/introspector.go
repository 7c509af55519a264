package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/relschema/relschema/schema"
)

// Introspector implements schema.Inspector for PostgreSQL, grounded on the teacher's
// database/postgres/introspector.go (information_schema + pg_catalog queries),
// generalized to reconstruct the Portable Type family instead of bare type-name strings.
type Introspector struct{}

func (ins *Introspector) Inspect(ctx context.Context, db *sql.DB) (schema.Schema, error) {
	tableNames, err := ins.tables(ctx, db)
	if err != nil {
		return schema.Schema{}, err
	}

	var tables []schema.Table
	for _, name := range tableNames {
		t, err := ins.table(ctx, db, name)
		if err != nil {
			return schema.Schema{}, &schema.CatalogQueryFailedError{Dialect: schema.DialectPostgres, Detail: "table " + name, Err: err}
		}
		tables = append(tables, t)
	}
	return schema.New("", tables...), nil
}

func (ins *Introspector) tables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (ins *Introspector) table(ctx context.Context, db *sql.DB, name string) (schema.Table, error) {
	t := schema.Table{Name: name, SchemaNamespace: schema.DefaultSchemaNamespace}

	cols, pkCols, err := ins.columns(ctx, db, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("columns: %w", err)
	}
	t.Columns = cols
	if len(pkCols) > 0 {
		t.PrimaryKey = &schema.PrimaryKey{Columns: pkCols}
	}

	idx, err := ins.indices(ctx, db, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("indices: %w", err)
	}
	t.Indices = idx

	fks, err := ins.foreignKeys(ctx, db, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("foreign keys: %w", err)
	}
	t.ForeignKeys = fks

	uniques, err := ins.uniqueConstraints(ctx, db, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("unique constraints: %w", err)
	}
	t.UniqueConstraints = uniques

	return t, nil
}

func (ins *Introspector) columns(ctx context.Context, db *sql.DB, tableName string) ([]schema.Column, []string, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			c.datetime_precision,
			c.is_nullable,
			c.column_default,
			c.collation_name,
			COALESCE(
				(SELECT true
				 FROM information_schema.table_constraints tc
				 JOIN information_schema.key_column_usage kcu
				   ON tc.constraint_name = kcu.constraint_name
				   AND tc.table_schema = kcu.table_schema
				 WHERE tc.table_name = c.table_name
				   AND tc.table_schema = c.table_schema
				   AND tc.constraint_type = 'PRIMARY KEY'
				   AND kcu.column_name = c.column_name),
				false
			) as is_primary_key
		FROM information_schema.columns c
		WHERE c.table_schema = current_schema()
		  AND c.table_name = $1
		ORDER BY c.ordinal_position
	`
	rows, err := db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var cols []schema.Column
	var pkCols []string
	for rows.Next() {
		var (
			name, dataType, udtName, nullable string
			charMaxLen, numPrecision, numScale, dtPrecision sql.NullInt64
			defaultVal, collation                           sql.NullString
			isPK                                             bool
		)
		if err := rows.Scan(&name, &dataType, &udtName, &charMaxLen, &numPrecision, &numScale,
			&dtPrecision, &nullable, &defaultVal, &collation, &isPK); err != nil {
			return nil, nil, err
		}

		isSerial := defaultVal.Valid && isSerialDefault(defaultVal.String)
		cc := catalogColumn{
			dataType: dataType, udtName: udtName, charMaxLen: charMaxLen,
			numPrecision: numPrecision, numScale: numScale, dtPrecision: dtPrecision, isSerial: isSerial,
		}
		t, err := fromCatalogType(cc)
		if err != nil {
			return nil, nil, err
		}
		if enum, ok := t.(schema.Enum); ok && len(enum.Values) == 0 {
			values, err := ins.enumValues(ctx, db, enum.Name)
			if err != nil {
				return nil, nil, err
			}
			t = schema.Enum{Name: enum.Name, Values: values}
		}

		col := schema.Column{
			Name:              name,
			Type:              t,
			Nullable:          nullable == "YES",
			Collation:         collation.String,
			RawCatalogType:    dataType,
			Identity:          isSerial,
		}
		if defaultVal.Valid && !isSerial {
			col.RawCatalogDefault = defaultVal.String
			col.DefaultSQL = normalizeDefault(defaultVal.String)
		}
		cols = append(cols, col)
		if isPK {
			pkCols = append(pkCols, name)
		}
	}
	return cols, pkCols, rows.Err()
}

func (ins *Introspector) enumValues(ctx context.Context, db *sql.DB, typeName string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON e.enumtypid = t.oid
		WHERE t.typname = $1
		ORDER BY e.enumsortorder
	`, typeName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// indices returns non-PK, non-unique-constraint-backed indexes, grounded on the
// teacher's GetIndexes filter predicate but resolving the indexed columns via
// pg_attribute/unnest(indkey) instead of leaving the teacher's TODO unresolved.
func (ins *Introspector) indices(ctx context.Context, db *sql.DB, tableName string) ([]schema.Index, error) {
	query := `
		SELECT
			ic.relname AS index_name,
			ix.indisunique,
			a.attname,
			ix.indpred IS NOT NULL
		FROM pg_class tc
		JOIN pg_namespace tn ON tn.oid = tc.relnamespace AND tn.nspname = current_schema()
		JOIN pg_index ix ON ix.indrelid = tc.oid
		JOIN pg_class ic ON ic.oid = ix.indexrelid
		JOIN unnest(ix.indkey) WITH ORDINALITY AS cols(attnum, ord) ON true
		JOIN pg_attribute a ON a.attrelid = tc.oid AND a.attnum = cols.attnum
		WHERE tc.relname = $1
		  AND ix.indisprimary = false
		  AND NOT EXISTS (
			SELECT 1 FROM pg_constraint con
			WHERE con.conindid = ix.indexrelid AND con.contype IN ('p', 'u')
		  )
		ORDER BY ic.relname, cols.ord
	`
	rows, err := db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("query failed for table %q: %w", tableName, err)
	}
	defer rows.Close()

	order := []string{}
	byName := map[string]*schema.Index{}
	for rows.Next() {
		var name, col string
		var unique, partial bool
		if err := rows.Scan(&name, &unique, &col, &partial); err != nil {
			return nil, err
		}
		idx, ok := byName[name]
		if !ok {
			idx = &schema.Index{Name: name, Unique: unique}
			byName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []schema.Index
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

func (ins *Introspector) foreignKeys(ctx context.Context, db *sql.DB, tableName string) ([]schema.ForeignKey, error) {
	query := `
		SELECT
			tc.constraint_name,
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints AS rc
			ON rc.constraint_name = tc.constraint_name AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = current_schema()
			AND tc.table_name = $1
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`
	rows, err := db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	order := []string{}
	byName := map[string]*schema.ForeignKey{}
	for rows.Next() {
		var name, col, refTable, refCol, updateRule, deleteRule string
		if err := rows.Scan(&name, &col, &refTable, &refCol, &updateRule, &deleteRule); err != nil {
			return nil, err
		}
		fk, ok := byName[name]
		if !ok {
			fk = &schema.ForeignKey{
				Name: name, ReferencedTable: refTable,
				OnUpdate: fromRule(updateRule), OnDelete: fromRule(deleteRule),
			}
			byName[name] = fk
			order = append(order, name)
		}
		fk.Columns = append(fk.Columns, col)
		fk.ReferencedColumns = append(fk.ReferencedColumns, refCol)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var out []schema.ForeignKey
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

func fromRule(rule string) schema.FKAction {
	switch strings.ToUpper(rule) {
	case "CASCADE":
		return schema.Cascade
	case "SET NULL":
		return schema.SetNull
	case "SET DEFAULT":
		return schema.SetDefault
	case "RESTRICT":
		return schema.Restrict
	default:
		return schema.NoAction
	}
}

func (ins *Introspector) uniqueConstraints(ctx context.Context, db *sql.DB, tableName string) ([]schema.UniqueConstraint, error) {
	query := `
		SELECT tc.constraint_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'UNIQUE'
			AND tc.table_schema = current_schema()
			AND tc.table_name = $1
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`
	rows, err := db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	order := []string{}
	byName := map[string]*schema.UniqueConstraint{}
	for rows.Next() {
		var name, col string
		if err := rows.Scan(&name, &col); err != nil {
			return nil, err
		}
		uc, ok := byName[name]
		if !ok {
			uc = &schema.UniqueConstraint{Name: name}
			byName[name] = uc
			order = append(order, name)
		}
		uc.Columns = append(uc.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var out []schema.UniqueConstraint
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

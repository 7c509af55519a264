package sqlserver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/relschema/relschema/schema"
)

// Introspector implements schema.Inspector for SQL Server using the sys.* catalog views
// (sys.tables, sys.columns, sys.types, sys.key_constraints, sys.foreign_keys), the
// standard approach across the SQL Server driver ecosystem for catalog introspection.
type Introspector struct{}

func (ins *Introspector) Inspect(ctx context.Context, db *sql.DB) (schema.Schema, error) {
	names, err := ins.tables(ctx, db)
	if err != nil {
		return schema.Schema{}, &schema.CatalogQueryFailedError{Dialect: schema.DialectSQLServer, Detail: "list tables", Err: err}
	}
	var tables []schema.Table
	for _, name := range names {
		t, err := ins.table(ctx, db, name)
		if err != nil {
			return schema.Schema{}, &schema.CatalogQueryFailedError{Dialect: schema.DialectSQLServer, Detail: "table " + name, Err: err}
		}
		tables = append(tables, t)
	}
	return schema.New("", tables...), nil
}

func (ins *Introspector) tables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT t.name
		FROM sys.tables t
		JOIN sys.schemas s ON s.schema_id = t.schema_id
		WHERE s.name = SCHEMA_NAME()
		ORDER BY t.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (ins *Introspector) table(ctx context.Context, db *sql.DB, name string) (schema.Table, error) {
	t := schema.Table{Name: name, SchemaNamespace: "dbo"}

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

	return t, nil
}

func (ins *Introspector) columns(ctx context.Context, db *sql.DB, tableName string) ([]schema.Column, []string, error) {
	query := `
		SELECT
			c.name,
			ty.name AS type_name,
			c.max_length,
			c.precision,
			c.scale,
			c.is_nullable,
			c.is_identity,
			IDENT_SEED(@p1) AS seed,
			IDENT_INCR(@p1) AS increment,
			dc.definition AS default_definition,
			cc.definition AS computed_definition,
			cc.is_persisted,
			CASE WHEN ic.column_id IS NOT NULL THEN 1 ELSE 0 END AS is_primary_key,
			ic.key_ordinal
		FROM sys.columns c
		JOIN sys.tables tb ON tb.object_id = c.object_id
		JOIN sys.types ty ON ty.user_type_id = c.user_type_id
		LEFT JOIN sys.default_constraints dc ON dc.object_id = c.default_object_id
		LEFT JOIN sys.computed_columns cc ON cc.object_id = c.object_id AND cc.column_id = c.column_id
		LEFT JOIN sys.key_constraints kc ON kc.parent_object_id = c.object_id AND kc.type = 'PK'
		LEFT JOIN sys.index_columns ic ON ic.object_id = kc.parent_object_id
			AND ic.index_id = kc.unique_index_id AND ic.column_id = c.column_id
		WHERE tb.name = @p1
		ORDER BY c.column_id
	`
	rows, err := db.QueryContext(ctx, query, sql.Named("p1", tableName))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	type pkEntry struct {
		order int
		name  string
	}
	var pkEntries []pkEntry
	var cols []schema.Column
	for rows.Next() {
		var (
			name, typeName                       string
			maxLength                             int16
			precision, scale                      uint8
			nullable, identity                    bool
			seed, increment                       sql.NullInt64
			defaultDef, computedDef               sql.NullString
			computedPersisted                     sql.NullBool
			isPK                                  bool
			keyOrdinal                            sql.NullInt64
		)
		if err := rows.Scan(&name, &typeName, &maxLength, &precision, &scale, &nullable, &identity,
			&seed, &increment, &defaultDef, &computedDef, &computedPersisted, &isPK, &keyOrdinal); err != nil {
			return nil, nil, err
		}

		t, err := fromCatalogType(typeName, maxLength, precision, scale)
		if err != nil {
			return nil, nil, err
		}
		col := schema.Column{
			Name:           name,
			Type:           t,
			Nullable:       nullable,
			Identity:       identity,
			RawCatalogType: typeName,
		}
		if identity {
			if seed.Valid {
				col.IdentitySeed = seed.Int64
			}
			if increment.Valid {
				col.IdentityIncrement = increment.Int64
			}
		}
		if computedDef.Valid {
			col.ComputedExpression = strings.Trim(computedDef.String, "()")
			col.ComputedPersisted = computedPersisted.Valid && computedPersisted.Bool
		} else if defaultDef.Valid {
			col.RawCatalogDefault = defaultDef.String
			col.DefaultSQL = strings.Trim(defaultDef.String, "()")
		}
		cols = append(cols, col)
		if isPK && keyOrdinal.Valid {
			pkEntries = append(pkEntries, pkEntry{order: int(keyOrdinal.Int64), name: name})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var pkCols []string
	for order := 1; order <= len(pkEntries); order++ {
		for _, e := range pkEntries {
			if e.order == order {
				pkCols = append(pkCols, e.name)
			}
		}
	}
	return cols, pkCols, nil
}

func fromCatalogType(typeName string, maxLength int16, precision, scale uint8) (schema.Type, error) {
	switch strings.ToLower(typeName) {
	case "tinyint":
		return schema.TinyInt{}, nil
	case "smallint":
		return schema.SmallInt{}, nil
	case "int":
		return schema.Int{}, nil
	case "bigint":
		return schema.BigInt{}, nil
	case "decimal", "numeric":
		return schema.Decimal{Precision: int(precision), Scale: int(scale)}, nil
	case "money":
		return schema.Money{}, nil
	case "smallmoney":
		return schema.SmallMoney{}, nil
	case "real":
		return schema.Float{}, nil
	case "float":
		return schema.Double{}, nil
	case "char":
		return schema.Char{Length: int(maxLength)}, nil
	case "varchar":
		if maxLength == -1 {
			return schema.VarChar{MaxLength: schema.MaxSentinel}, nil
		}
		return schema.VarChar{MaxLength: int(maxLength)}, nil
	case "nchar":
		return schema.NChar{Length: int(maxLength) / 2}, nil
	case "nvarchar":
		if maxLength == -1 {
			return schema.NVarChar{MaxLength: schema.MaxSentinel}, nil
		}
		return schema.NVarChar{MaxLength: int(maxLength) / 2}, nil
	case "text", "ntext":
		return schema.Text{}, nil
	case "binary":
		return schema.Binary{Length: int(maxLength)}, nil
	case "varbinary":
		if maxLength == -1 {
			return schema.VarBinary{MaxLength: schema.MaxSentinel}, nil
		}
		return schema.VarBinary{MaxLength: int(maxLength)}, nil
	case "image":
		return schema.Blob{}, nil
	case "date":
		return schema.Date{}, nil
	case "time":
		return schema.Time{Precision: int(scale)}, nil
	case "datetime2":
		return schema.DateTime{Precision: int(scale)}, nil
	case "datetimeoffset":
		return schema.DateTimeOffset{}, nil
	case "timestamp", "rowversion":
		return schema.RowVersion{}, nil
	case "uniqueidentifier":
		return schema.Uuid{}, nil
	case "bit":
		return schema.Boolean{}, nil
	case "xml":
		return schema.Xml{}, nil
	case "geometry":
		return schema.Geometry{}, nil
	case "geography":
		return schema.Geography{SRID: schema.DefaultGeographySRID}, nil
	default:
		return nil, &schema.UnsupportedTypeError{Dialect: schema.DialectSQLServer, Variant: typeName}
	}
}

func (ins *Introspector) indices(ctx context.Context, db *sql.DB, tableName string) ([]schema.Index, error) {
	query := `
		SELECT i.name, i.is_unique, c.name AS column_name, ic.key_ordinal
		FROM sys.indexes i
		JOIN sys.tables t ON t.object_id = i.object_id
		JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
		JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		WHERE t.name = @p1 AND i.is_primary_key = 0 AND i.is_unique_constraint = 0 AND i.name IS NOT NULL
		ORDER BY i.name, ic.key_ordinal
	`
	rows, err := db.QueryContext(ctx, query, sql.Named("p1", tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	order := []string{}
	byName := map[string]*schema.Index{}
	for rows.Next() {
		var name, col string
		var unique bool
		var ordinal int
		if err := rows.Scan(&name, &unique, &col, &ordinal); err != nil {
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
			fk.name,
			pc.name AS column_name,
			rt.name AS referenced_table,
			rc.name AS referenced_column,
			fk.delete_referential_action_desc,
			fk.update_referential_action_desc
		FROM sys.foreign_keys fk
		JOIN sys.tables t ON t.object_id = fk.parent_object_id
		JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
		JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
		JOIN sys.tables rt ON rt.object_id = fk.referenced_object_id
		JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
		WHERE t.name = @p1
		ORDER BY fk.name, fkc.constraint_column_id
	`
	rows, err := db.QueryContext(ctx, query, sql.Named("p1", tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	order := []string{}
	byName := map[string]*schema.ForeignKey{}
	for rows.Next() {
		var name, col, refTable, refCol, deleteRule, updateRule string
		if err := rows.Scan(&name, &col, &refTable, &refCol, &deleteRule, &updateRule); err != nil {
			return nil, err
		}
		fk, ok := byName[name]
		if !ok {
			fk = &schema.ForeignKey{
				Name: name, ReferencedTable: refTable,
				OnDelete: fromActionDesc(deleteRule), OnUpdate: fromActionDesc(updateRule),
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

func fromActionDesc(desc string) schema.FKAction {
	switch strings.ToUpper(desc) {
	case "CASCADE":
		return schema.Cascade
	case "SET_NULL":
		return schema.SetNull
	case "SET_DEFAULT":
		return schema.SetDefault
	default:
		return schema.NoAction
	}
}

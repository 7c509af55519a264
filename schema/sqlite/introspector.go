package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/relschema/relschema/schema"
)

// Introspector implements schema.Inspector for SQLite, grounded on the teacher's
// database/sqlite/introspector.go PRAGMA-based queries (table_info/index_list/
// index_info/foreign_key_list), generalized to reconstruct a best-effort Portable Type
// from SQLite's declared type affinity instead of a bare string.
type Introspector struct{}

func (ins *Introspector) Inspect(ctx context.Context, db *sql.DB) (schema.Schema, error) {
	names, err := ins.tables(ctx, db)
	if err != nil {
		return schema.Schema{}, &schema.CatalogQueryFailedError{Dialect: schema.DialectSQLite, Detail: "list tables", Err: err}
	}
	var tables []schema.Table
	for _, name := range names {
		t, err := ins.table(ctx, db, name)
		if err != nil {
			return schema.Schema{}, &schema.CatalogQueryFailedError{Dialect: schema.DialectSQLite, Detail: "table " + name, Err: err}
		}
		tables = append(tables, t)
	}
	return schema.New("", tables...), nil
}

func (ins *Introspector) tables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
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
	t := schema.Table{Name: name}

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

// columns reads PRAGMA table_info, which reports each column's PK order (1-based) in
// the pk field, letting composite primary keys be reconstructed in declaration order.
func (ins *Introspector) columns(ctx context.Context, db *sql.DB, tableName string) ([]schema.Column, []string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
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
		var cid int
		var name, declType string
		var notNull int
		var defaultVal sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &declType, &notNull, &defaultVal, &pk); err != nil {
			return nil, nil, err
		}
		t := fromDeclaredType(declType)
		col := schema.Column{
			Name:           name,
			Type:           t,
			Nullable:       notNull == 0,
			RawCatalogType: declType,
			Identity:       pk > 0 && strings.EqualFold(declType, "INTEGER"),
		}
		if defaultVal.Valid {
			col.RawCatalogDefault = defaultVal.String
			col.DefaultSQL = defaultVal.String
		}
		cols = append(cols, col)
		if pk > 0 {
			pkEntries = append(pkEntries, pkEntry{order: pk, name: name})
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

// fromDeclaredType reconstructs a best-effort Portable Type from SQLite's declared type
// string (spec §5.2: type affinity is advisory, so only a coarse round-trip is possible
// for types this package didn't itself declare).
func fromDeclaredType(declType string) schema.Type {
	upper := strings.ToUpper(strings.TrimSpace(declType))
	name, args, hasArgs := splitTypeArgs(upper)
	switch {
	case name == "INTEGER" || name == "INT":
		return schema.Int{}
	case name == "REAL" || name == "FLOAT" || name == "DOUBLE":
		return schema.Double{}
	case name == "NUMERIC" || name == "DECIMAL":
		if hasArgs {
			if p, s, ok := parseTwoInts(args); ok {
				return schema.Decimal{Precision: p, Scale: s}
			}
		}
		return schema.Decimal{Precision: 18, Scale: 2}
	case name == "BLOB":
		return schema.Blob{}
	case strings.Contains(name, "CHAR") || name == "TEXT" || name == "CLOB" || name == "":
		return schema.Text{}
	default:
		return schema.Text{}
	}
}

func splitTypeArgs(s string) (name, args string, hasArgs bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return s, "", false
	}
	return strings.TrimSpace(s[:open]), s[open+1 : len(s)-1], true
}

func parseTwoInts(s string) (int, int, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	p, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	sc, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return p, sc, true
}

func (ins *Introspector) indices(ctx context.Context, db *sql.DB, tableName string) ([]schema.Index, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type rawIdx struct {
		name   string
		unique bool
		origin string
	}
	var raws []rawIdx
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		raws = append(raws, rawIdx{name: name, unique: unique == 1, origin: origin})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []schema.Index
	for _, r := range raws {
		if r.origin != "c" || strings.HasPrefix(r.name, "sqlite_autoindex") {
			continue
		}
		cols, err := ins.indexColumns(ctx, db, r.name)
		if err != nil {
			return nil, err
		}
		out = append(out, schema.Index{Name: r.name, Columns: cols, Unique: r.unique})
	}
	return out, nil
}

func (ins *Introspector) indexColumns(ctx context.Context, db *sql.DB, indexName string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(indexName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			cols = append(cols, name.String)
		}
	}
	return cols, rows.Err()
}

func (ins *Introspector) foreignKeys(ctx context.Context, db *sql.DB, tableName string) ([]schema.ForeignKey, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	order := []int{}
	byID := map[int]*schema.ForeignKey{}
	for rows.Next() {
		var id, seq int
		var table, from, to, onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &table, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		fk, ok := byID[id]
		if !ok {
			fk = &schema.ForeignKey{
				Name: fmt.Sprintf("fk_%s_%d", tableName, id), ReferencedTable: table,
				OnUpdate: fromRule(onUpdate), OnDelete: fromRule(onDelete),
			}
			byID[id] = fk
			order = append(order, id)
		}
		fk.Columns = append(fk.Columns, from)
		fk.ReferencedColumns = append(fk.ReferencedColumns, to)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var out []schema.ForeignKey
	for _, id := range order {
		out = append(out, *byID[id])
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

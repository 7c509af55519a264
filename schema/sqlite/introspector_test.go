package sqlite

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/relschema/relschema/schema"
)

func openTestDB(t *testing.T, ddl string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enabling foreign keys: %v", err)
	}
	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("executing setup DDL: %v", err)
	}
	return db
}

func TestInspect_ColumnsAndCompositePrimaryKey(t *testing.T) {
	db := openTestDB(t, `
		CREATE TABLE memberships (
			org_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			role TEXT,
			PRIMARY KEY (org_id, user_id)
		);
	`)
	ins := &Introspector{}
	s, err := ins.Inspect(context.Background(), db)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	tbl, ok := s.Table("memberships")
	if !ok {
		t.Fatal("expected memberships table")
	}
	if tbl.PrimaryKey == nil || len(tbl.PrimaryKey.Columns) != 2 {
		t.Fatalf("expected composite primary key, got %+v", tbl.PrimaryKey)
	}
	if tbl.PrimaryKey.Columns[0] != "org_id" || tbl.PrimaryKey.Columns[1] != "user_id" {
		t.Errorf("expected primary key in declaration order, got %v", tbl.PrimaryKey.Columns)
	}
	role, ok := tbl.Column("role")
	if !ok || !role.Nullable {
		t.Errorf("expected role to be nullable, got %+v ok=%v", role, ok)
	}
	if _, ok := role.Type.(schema.Text); !ok {
		t.Errorf("expected role type Text, got %T", role.Type)
	}
}

func TestInspect_AutoincrementPrimaryKeyReportsIdentity(t *testing.T) {
	db := openTestDB(t, `CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, email TEXT NOT NULL);`)
	ins := &Introspector{}
	s, err := ins.Inspect(context.Background(), db)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	users, _ := s.Table("users")
	id, ok := users.Column("id")
	if !ok || !id.Identity {
		t.Errorf("expected id column to report Identity, got %+v ok=%v", id, ok)
	}
}

func TestInspect_IndicesExcludeAutoindicesAndCheckOrigin(t *testing.T) {
	db := openTestDB(t, `
		CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT UNIQUE, deleted_at TEXT);
		CREATE UNIQUE INDEX idx_active_email ON users (email) WHERE deleted_at IS NULL;
	`)
	ins := &Introspector{}
	s, err := ins.Inspect(context.Background(), db)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	users, _ := s.Table("users")
	var named []schema.Index
	for _, idx := range users.Indices {
		named = append(named, idx)
	}
	if len(named) != 1 {
		t.Fatalf("expected only the explicitly created index (autoindex from UNIQUE column excluded), got %d: %+v", len(named), named)
	}
	if named[0].Name != "idx_active_email" || !named[0].Unique {
		t.Errorf("unexpected index: %+v", named[0])
	}
}

func TestInspect_ForeignKeyColumnsAndActions(t *testing.T) {
	db := openTestDB(t, `
		CREATE TABLE accounts (id INTEGER PRIMARY KEY);
		CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			account_id INTEGER,
			FOREIGN KEY (account_id) REFERENCES accounts (id) ON DELETE CASCADE
		);
	`)
	ins := &Introspector{}
	s, err := ins.Inspect(context.Background(), db)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	orders, _ := s.Table("orders")
	if len(orders.ForeignKeys) != 1 {
		t.Fatalf("expected one foreign key, got %d", len(orders.ForeignKeys))
	}
	fk := orders.ForeignKeys[0]
	if fk.ReferencedTable != "accounts" || fk.Columns[0] != "account_id" || fk.OnDelete != schema.Cascade {
		t.Errorf("unexpected foreign key: %+v", fk)
	}
}

func TestInspect_SkipsSqliteInternalTables(t *testing.T) {
	db := openTestDB(t, `CREATE TABLE widgets (id INTEGER PRIMARY KEY, code TEXT UNIQUE);`)
	ins := &Introspector{}
	s, err := ins.Inspect(context.Background(), db)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	for _, tbl := range s.Tables {
		if len(tbl.Name) >= 7 && tbl.Name[:7] == "sqlite_" {
			t.Errorf("expected sqlite_ internal tables to be excluded, found %q", tbl.Name)
		}
	}
}

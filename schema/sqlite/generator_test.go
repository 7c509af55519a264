package sqlite

import (
	"strings"
	"testing"

	"github.com/relschema/relschema/schema"
)

func TestGenerate_CreateTableWithAutoincrementPK(t *testing.T) {
	op := schema.Operation{
		Kind:      schema.OpCreateTable,
		TableName: "users",
		Table: schema.Table{
			Name: "users",
			Columns: []schema.Column{
				{Name: "id", Type: schema.Int{}, Nullable: false, Identity: true},
				{Name: "email", Type: schema.VarChar{MaxLength: 255}, Nullable: false},
			},
			PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
		},
	}
	g := &Generator{}
	stmts, _, err := g.Generate(op)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d: %v", len(stmts), stmts)
	}
	sql := stmts[0]
	if !strings.Contains(sql, `"id" INTEGER PRIMARY KEY AUTOINCREMENT`) {
		t.Errorf("expected single-column INTEGER PRIMARY KEY AUTOINCREMENT: %s", sql)
	}
	if !strings.Contains(sql, `"email" TEXT NOT NULL`) {
		t.Errorf("expected varchar collapsed to TEXT affinity: %s", sql)
	}
}

func TestGenerate_CreateTableCompositePrimaryKey(t *testing.T) {
	op := schema.Operation{
		Kind:      schema.OpCreateTable,
		TableName: "memberships",
		Table: schema.Table{
			Name: "memberships",
			Columns: []schema.Column{
				{Name: "org_id", Type: schema.Int{}, Nullable: false},
				{Name: "user_id", Type: schema.Int{}, Nullable: false},
			},
			PrimaryKey: &schema.PrimaryKey{Columns: []string{"org_id", "user_id"}},
		},
	}
	g := &Generator{}
	stmts, _, err := g.Generate(op)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(stmts[0], `PRIMARY KEY ("org_id", "user_id")`) {
		t.Errorf("expected table-level composite primary key clause: %s", stmts[0])
	}
}

func TestGenerate_AddForeignKeyTriggersTableRebuild(t *testing.T) {
	op := schema.Operation{
		Kind:      schema.OpAddForeignKey,
		TableName: "orders",
		Table: schema.Table{
			Name: "orders",
			Columns: []schema.Column{
				{Name: "id", Type: schema.Int{}, Nullable: false},
				{Name: "account_id", Type: schema.Int{}, Nullable: false},
			},
			ForeignKeys: []schema.ForeignKey{
				{Columns: []string{"account_id"}, ReferencedTable: "accounts", ReferencedColumns: []string{"id"}},
			},
		},
	}
	g := &Generator{}
	stmts, _, err := g.Generate(op)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if stmts[0] != "PRAGMA foreign_keys=OFF" {
		t.Errorf("expected rebuild to begin with PRAGMA foreign_keys=OFF, got %q", stmts[0])
	}
	if stmts[len(stmts)-1] != "PRAGMA foreign_keys=ON" {
		t.Errorf("expected rebuild to end with PRAGMA foreign_keys=ON, got %q", stmts[len(stmts)-1])
	}
	joined := strings.Join(stmts, "\n")
	if !strings.Contains(joined, `CREATE TABLE "orders__relschema_new"`) {
		t.Errorf("expected rebuild to create a shadow table: %v", stmts)
	}
	if !strings.Contains(joined, `INSERT INTO "orders__relschema_new"`) {
		t.Errorf("expected rebuild to copy rows into the shadow table: %v", stmts)
	}
	if !strings.Contains(joined, `DROP TABLE "orders"`) {
		t.Errorf("expected rebuild to drop the old table: %v", stmts)
	}
	if !strings.Contains(joined, `ALTER TABLE "orders__relschema_new" RENAME TO "orders"`) {
		t.Errorf("expected rebuild to rename the shadow table back: %v", stmts)
	}
	if !strings.Contains(joined, `FOREIGN KEY ("account_id") REFERENCES "accounts" ("id")`) {
		t.Errorf("expected new table shape to declare the foreign key inline: %v", stmts)
	}
}

func TestGenerate_DropColumnUsesNativeAlter(t *testing.T) {
	op := schema.Operation{Kind: schema.OpDropColumn, TableName: "users", ColumnName: "legacy_flag"}
	g := &Generator{}
	stmts, _, err := g.Generate(op)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(stmts) != 1 || stmts[0] != `ALTER TABLE "users" DROP COLUMN "legacy_flag"` {
		t.Errorf("unexpected DROP COLUMN statement: %v", stmts)
	}
}

func TestGenerate_CreateIndexWithFilter(t *testing.T) {
	op := schema.Operation{
		Kind:      schema.OpCreateIndex,
		TableName: "users",
		Index:     schema.Index{Name: "idx_active_email", Columns: []string{"email"}, Unique: true, Filter: "deleted_at IS NULL"},
	}
	g := &Generator{}
	stmts, _, err := g.Generate(op)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	want := `CREATE UNIQUE INDEX "idx_active_email" ON "users" ("email") WHERE deleted_at IS NULL`
	if stmts[0] != want {
		t.Errorf("Generate(OpCreateIndex) = %q, want %q", stmts[0], want)
	}
}

func TestGenerate_AlterColumnTriggersTableRebuild(t *testing.T) {
	op := schema.Operation{
		Kind:      schema.OpAlterColumn,
		TableName: "users",
		Table: schema.Table{
			Name: "users",
			Columns: []schema.Column{
				{Name: "id", Type: schema.Int{}, Nullable: false},
				{Name: "active", Type: schema.Boolean{}, Nullable: false, DefaultPortable: "true"},
			},
		},
	}
	g := &Generator{}
	stmts, _, err := g.Generate(op)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	joined := strings.Join(stmts, "\n")
	if !strings.Contains(joined, `"active" INTEGER NOT NULL DEFAULT 1`) {
		t.Errorf("expected rebuilt shadow table to carry the new column default: %v", stmts)
	}
}

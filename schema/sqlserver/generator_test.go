package sqlserver

import (
	"errors"
	"strings"
	"testing"

	"github.com/relschema/relschema/schema"
)

func TestGenerate_CreateTableDefaultsToDboSchema(t *testing.T) {
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
	sql := stmts[0]
	if !strings.Contains(sql, `CREATE TABLE [dbo].[users]`) {
		t.Errorf("expected default [dbo] schema qualification: %s", sql)
	}
	if !strings.Contains(sql, "IDENTITY(1,1)") {
		t.Errorf("expected default IDENTITY(1,1) clause: %s", sql)
	}
	if !strings.Contains(sql, `PRIMARY KEY ([id])`) {
		t.Errorf("expected primary key clause: %s", sql)
	}
}

func TestGenerate_IdentityOnNonIntegerTypeRejected(t *testing.T) {
	op := schema.Operation{
		Kind:      schema.OpCreateTable,
		TableName: "widgets",
		Table: schema.Table{
			Name: "widgets",
			Columns: []schema.Column{
				{Name: "code", Type: schema.VarChar{MaxLength: 20}, Nullable: false, Identity: true},
			},
		},
	}
	g := &Generator{}
	_, _, err := g.Generate(op)
	if err == nil {
		t.Fatal("expected an error rejecting IDENTITY on a non-integer column")
	}
	var invalid *schema.InvalidSchemaError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *schema.InvalidSchemaError, got %T: %v", err, err)
	}
}

func TestGenerate_AlterColumnDropsAndAddsNamedDefaultConstraint(t *testing.T) {
	op := schema.Operation{
		Kind:      schema.OpAlterColumn,
		TableName: "users",
		PriorColumn: schema.Column{
			Name: "active", Type: schema.Boolean{}, Nullable: false, DefaultPortable: "false",
		},
		Column: schema.Column{
			Name: "active", Type: schema.Boolean{}, Nullable: false, DefaultPortable: "true",
		},
	}
	g := &Generator{}
	stmts, _, err := g.Generate(op)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(stmts) != 3 {
		t.Fatalf("expected ALTER COLUMN + DROP CONSTRAINT + ADD CONSTRAINT, got %d: %v", len(stmts), stmts)
	}
	if !strings.Contains(stmts[0], "ALTER COLUMN [active]") {
		t.Errorf("stmts[0] = %q, want ALTER COLUMN clause", stmts[0])
	}
	if stmts[1] != "ALTER TABLE [dbo].[users] DROP CONSTRAINT df_users_active" {
		t.Errorf("stmts[1] = %q, want DROP CONSTRAINT of the conventional name", stmts[1])
	}
	if !strings.Contains(stmts[2], "ADD CONSTRAINT df_users_active DEFAULT 1 FOR [active]") {
		t.Errorf("stmts[2] = %q, want ADD CONSTRAINT with the new default", stmts[2])
	}
}

func TestGenerate_AddForeignKeyDefaultsConstraintName(t *testing.T) {
	op := schema.Operation{
		Kind:      schema.OpAddForeignKey,
		TableName: "orders",
		ForeignKey: schema.ForeignKey{
			Columns: []string{"account_id"}, ReferencedTable: "accounts", ReferencedColumns: []string{"id"},
		},
	}
	g := &Generator{}
	stmts, _, err := g.Generate(op)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	want := "ALTER TABLE [dbo].[orders] ADD CONSTRAINT fk_orders_account_id FOREIGN KEY ([account_id]) REFERENCES [accounts] ([id])"
	if stmts[0] != want {
		t.Errorf("Generate(OpAddForeignKey) = %q, want %q", stmts[0], want)
	}
}

func TestGenerate_DropTableQualifiesSchema(t *testing.T) {
	op := schema.Operation{Kind: schema.OpDropTable, SchemaNamespace: "sales", TableName: "orders", DropTableName: "orders"}
	g := &Generator{}
	stmts, _, err := g.Generate(op)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if stmts[0] != "DROP TABLE [sales].[orders]" {
		t.Errorf("Generate(OpDropTable) = %q", stmts[0])
	}
}

package diff

import (
	"testing"

	"github.com/relschema/relschema/schema"
)

func usersTable(cols ...schema.Column) schema.Table {
	return schema.Table{Name: "users", Columns: cols}
}

func mustDiff(t *testing.T, current, desired schema.Schema, opts Options) []schema.Operation {
	t.Helper()
	ops, err := Diff(current, desired, opts)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	return ops
}

func TestDiff_CreateTableEmitsIndicesImmediately(t *testing.T) {
	desired := schema.New("app", schema.Table{
		Name:    "users",
		Columns: []schema.Column{{Name: "id", Type: schema.Int{}, Nullable: false}},
		Indices: []schema.Index{{Name: "idx_users_id", Columns: []string{"id"}}},
	})
	ops := mustDiff(t, schema.Schema{}, desired, Options{})

	if len(ops) != 2 {
		t.Fatalf("expected 2 ops (CreateTable + CreateIndex), got %d: %+v", len(ops), ops)
	}
	if ops[0].Kind != schema.OpCreateTable {
		t.Errorf("ops[0].Kind = %v, want OpCreateTable", ops[0].Kind)
	}
	if ops[1].Kind != schema.OpCreateIndex {
		t.Errorf("ops[1].Kind = %v, want OpCreateIndex", ops[1].Kind)
	}
}

func TestDiff_DropTableIsLast(t *testing.T) {
	current := schema.New("app",
		usersTable(schema.Column{Name: "id", Type: schema.Int{}}),
		schema.Table{Name: "gone", Columns: []schema.Column{{Name: "id", Type: schema.Int{}}}},
	)
	desired := schema.New("app",
		usersTable(schema.Column{Name: "id", Type: schema.Int{}}, schema.Column{Name: "email", Type: schema.Text{}}),
	)

	ops := mustDiff(t, current, desired, Options{AllowDestructive: true})
	if len(ops) != 2 {
		t.Fatalf("expected 2 ops, got %d: %+v", len(ops), ops)
	}
	if ops[0].Kind != schema.OpAddColumn {
		t.Errorf("ops[0].Kind = %v, want OpAddColumn", ops[0].Kind)
	}
	if ops[1].Kind != schema.OpDropTable || ops[1].TableName != "gone" {
		t.Errorf("ops[1] = %+v, want DropTable of 'gone'", ops[1])
	}
}

// TestDiff_DestructiveOpsGatedByAllowDestructive is spec.md §8.1 property 2 and §8.2
// Scenario D, exercised directly at the diff layer: with AllowDestructive=false, the
// dropped table is entirely absent from the operation list (not merely unexecuted).
func TestDiff_DestructiveOpsGatedByAllowDestructive(t *testing.T) {
	current := schema.New("app",
		usersTable(schema.Column{Name: "id", Type: schema.Int{}}),
		schema.Table{Name: "gone", Columns: []schema.Column{{Name: "id", Type: schema.Int{}}}},
	)
	desired := schema.New("app",
		usersTable(schema.Column{Name: "id", Type: schema.Int{}}),
	)

	ops := mustDiff(t, current, desired, Options{AllowDestructive: false})
	if len(ops) != 0 {
		t.Fatalf("expected empty operation list with AllowDestructive=false, got %+v", ops)
	}

	ops = mustDiff(t, current, desired, Options{AllowDestructive: true})
	if len(ops) != 1 || ops[0].Kind != schema.OpDropTable || ops[0].TableName != "gone" {
		t.Fatalf("expected a single DropTable('gone') with AllowDestructive=true, got %+v", ops)
	}
}

func TestDiff_AddedAndDroppedColumnsSortedAlphabetically(t *testing.T) {
	current := schema.New("app", usersTable(
		schema.Column{Name: "id", Type: schema.Int{}},
		schema.Column{Name: "zeta", Type: schema.Text{}},
		schema.Column{Name: "alpha", Type: schema.Text{}},
	))
	desired := schema.New("app", usersTable(
		schema.Column{Name: "id", Type: schema.Int{}},
		schema.Column{Name: "theta", Type: schema.Text{}},
		schema.Column{Name: "beta", Type: schema.Text{}},
	))

	ops := mustDiff(t, current, desired, Options{AllowDestructive: true})
	var added, dropped []string
	for _, op := range ops {
		switch op.Kind {
		case schema.OpAddColumn:
			added = append(added, op.Column.Name)
		case schema.OpDropColumn:
			dropped = append(dropped, op.ColumnName)
		}
	}
	if len(added) != 2 || added[0] != "beta" || added[1] != "theta" {
		t.Errorf("added = %v, want [beta theta]", added)
	}
	if len(dropped) != 2 || dropped[0] != "alpha" || dropped[1] != "zeta" {
		t.Errorf("dropped = %v, want [alpha zeta]", dropped)
	}
}

func TestDiff_DropColumnGatedByAllowDestructive(t *testing.T) {
	current := schema.New("app", usersTable(
		schema.Column{Name: "id", Type: schema.Int{}},
		schema.Column{Name: "legacy", Type: schema.Text{}},
	))
	desired := schema.New("app", usersTable(schema.Column{Name: "id", Type: schema.Int{}}))

	ops := mustDiff(t, current, desired, Options{AllowDestructive: false})
	if len(ops) != 0 {
		t.Fatalf("expected no DropColumn op without AllowDestructive, got %+v", ops)
	}

	ops = mustDiff(t, current, desired, Options{AllowDestructive: true})
	if len(ops) != 1 || ops[0].Kind != schema.OpDropColumn || ops[0].ColumnName != "legacy" {
		t.Fatalf("expected a single DropColumn('legacy') with AllowDestructive=true, got %+v", ops)
	}
}

func TestDiff_AnonymousForeignKeysAlwaysAdditive(t *testing.T) {
	current := schema.New("app", usersTable(schema.Column{Name: "id", Type: schema.Int{}}))
	desired := schema.New("app", schema.Table{
		Name:    "users",
		Columns: []schema.Column{{Name: "id", Type: schema.Int{}}},
		ForeignKeys: []schema.ForeignKey{
			{Columns: []string{"id"}, ReferencedTable: "accounts", ReferencedColumns: []string{"id"}},
		},
	})

	ops := mustDiff(t, current, desired, Options{})
	var fkOps int
	for _, op := range ops {
		if op.Kind == schema.OpAddForeignKey {
			fkOps++
		}
	}
	if fkOps != 1 {
		t.Fatalf("expected 1 AddForeignKey op, got %d", fkOps)
	}

	// Running the diff again with the same "current" (anonymous FK never recorded as
	// matched) must still propose adding it — anonymous FKs are never matched by
	// identity against current state.
	ops2 := mustDiff(t, current, desired, Options{})
	var fkOps2 int
	for _, op := range ops2 {
		if op.Kind == schema.OpAddForeignKey {
			fkOps2++
		}
	}
	if fkOps2 != 1 {
		t.Fatalf("expected 1 AddForeignKey op on second diff, got %d", fkOps2)
	}
}

func TestDiff_NamedForeignKeyMatchedByName(t *testing.T) {
	fk := schema.ForeignKey{Name: "fk_users_account", Columns: []string{"account_id"}, ReferencedTable: "accounts", ReferencedColumns: []string{"id"}}
	current := schema.New("app", schema.Table{
		Name:        "users",
		Columns:     []schema.Column{{Name: "account_id", Type: schema.Int{}}},
		ForeignKeys: []schema.ForeignKey{fk},
	})
	desired := schema.New("app", schema.Table{
		Name:        "users",
		Columns:     []schema.Column{{Name: "account_id", Type: schema.Int{}}},
		ForeignKeys: []schema.ForeignKey{fk},
	})

	ops := mustDiff(t, current, desired, Options{AllowDestructive: true})
	if len(ops) != 0 {
		t.Fatalf("expected no-op diff for unchanged named FK, got %+v", ops)
	}
}

func TestDiff_DropForeignKeyGatedByAllowDestructive(t *testing.T) {
	fk := schema.ForeignKey{Name: "fk_users_account", Columns: []string{"account_id"}, ReferencedTable: "accounts", ReferencedColumns: []string{"id"}}
	current := schema.New("app", schema.Table{
		Name:        "users",
		Columns:     []schema.Column{{Name: "account_id", Type: schema.Int{}}},
		ForeignKeys: []schema.ForeignKey{fk},
	})
	desired := schema.New("app", schema.Table{
		Name:    "users",
		Columns: []schema.Column{{Name: "account_id", Type: schema.Int{}}},
	})

	ops := mustDiff(t, current, desired, Options{AllowDestructive: false})
	if len(ops) != 0 {
		t.Fatalf("expected no DropForeignKey op without AllowDestructive, got %+v", ops)
	}

	ops = mustDiff(t, current, desired, Options{AllowDestructive: true})
	if len(ops) != 1 || ops[0].Kind != schema.OpDropForeignKey || ops[0].ConstraintName != "fk_users_account" {
		t.Fatalf("expected a single DropForeignKey with AllowDestructive=true, got %+v", ops)
	}
}

func TestDiff_NoChangesIsEmpty(t *testing.T) {
	s := schema.New("app", usersTable(schema.Column{Name: "id", Type: schema.Int{}}))
	ops := mustDiff(t, s, s, Options{AllowDestructive: true})
	if len(ops) != 0 {
		t.Fatalf("expected empty diff for identical schemas, got %+v", ops)
	}
}

func TestDiff_PrimaryKeyChange(t *testing.T) {
	current := schema.New("app", schema.Table{
		Name:       "users",
		Columns:    []schema.Column{{Name: "id", Type: schema.Int{}, Nullable: false}},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
	})
	desired := schema.New("app", schema.Table{
		Name:       "users",
		Columns:    []schema.Column{{Name: "id", Type: schema.Int{}, Nullable: false}, {Name: "tenant_id", Type: schema.Int{}, Nullable: false}},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id", "tenant_id"}},
	})

	ops := mustDiff(t, current, desired, Options{AllowDestructive: true})
	var sawDrop, sawAdd bool
	for _, op := range ops {
		if op.Kind == schema.OpDropPrimaryKey {
			sawDrop = true
		}
		if op.Kind == schema.OpAddPrimaryKey {
			sawAdd = true
		}
	}
	if !sawDrop || !sawAdd {
		t.Fatalf("expected both DropPrimaryKey and AddPrimaryKey, got %+v", ops)
	}
}

// TestDiff_PrimaryKeyReplacementGatedByAllowDestructive is spec.md §8.1 property 2
// applied to primary-key replacement: since adding the new primary key requires
// dropping the old one first, neither half is proposed without AllowDestructive (an
// AddPrimaryKey alone would be invalid DDL against a table that already has one).
func TestDiff_PrimaryKeyReplacementGatedByAllowDestructive(t *testing.T) {
	current := schema.New("app", schema.Table{
		Name:       "users",
		Columns:    []schema.Column{{Name: "id", Type: schema.Int{}, Nullable: false}, {Name: "tenant_id", Type: schema.Int{}, Nullable: false}},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
	})
	desired := schema.New("app", schema.Table{
		Name:       "users",
		Columns:    []schema.Column{{Name: "id", Type: schema.Int{}, Nullable: false}, {Name: "tenant_id", Type: schema.Int{}, Nullable: false}},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id", "tenant_id"}},
	})

	ops := mustDiff(t, current, desired, Options{AllowDestructive: false})
	if len(ops) != 0 {
		t.Fatalf("expected no primary-key ops without AllowDestructive, got %+v", ops)
	}
}

// TestDiff_PrimaryKeyPureAdditionNotGated confirms that adding a primary key where the
// current table has none at all is purely additive and is proposed regardless of
// AllowDestructive, since no Drop is required to apply it.
func TestDiff_PrimaryKeyPureAdditionNotGated(t *testing.T) {
	current := schema.New("app", schema.Table{
		Name:    "users",
		Columns: []schema.Column{{Name: "id", Type: schema.Int{}, Nullable: false}},
	})
	desired := schema.New("app", schema.Table{
		Name:       "users",
		Columns:    []schema.Column{{Name: "id", Type: schema.Int{}, Nullable: false}},
		PrimaryKey: &schema.PrimaryKey{Columns: []string{"id"}},
	})

	ops := mustDiff(t, current, desired, Options{AllowDestructive: false})
	if len(ops) != 1 || ops[0].Kind != schema.OpAddPrimaryKey {
		t.Fatalf("expected a single AddPrimaryKey op even without AllowDestructive, got %+v", ops)
	}
}

package schema

import "fmt"

// Validate checks a Schema against the invariants in spec §3.2, returning an
// *InvalidSchemaError for the first violation found. Grounded on the teacher's
// internal/schema/checker.go CheckSchema entry point, generalized from "no-op stub" into
// real invariant enforcement over the richer Portable Model.
func Validate(s Schema) error {
	for _, t := range s.Tables {
		if err := validateTable(t); err != nil {
			return err
		}
	}
	return nil
}

func validateTable(t Table) error {
	loc := fmt.Sprintf("table %q", t.Name)

	seen := make(map[string]bool, len(t.Columns))
	colSet := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		key := foldKey(c.Name)
		if seen[key] {
			return &InvalidSchemaError{
				Reason:   fmt.Sprintf("duplicate column name %q (case-insensitive)", c.Name),
				Location: loc,
			}
		}
		seen[key] = true
		colSet[key] = true

		if c.IsComputed() && (c.DefaultPortable != "" || c.DefaultSQL != "") {
			return &InvalidSchemaError{
				Reason:   fmt.Sprintf("column %q is both computed and has a default", c.Name),
				Location: loc,
			}
		}
		if c.DefaultPortable != "" && c.DefaultSQL != "" {
			// Tolerated per §3.2: default_portable wins. Not an error.
			_ = c
		}
		if c.Identity && !isIntegerType(c.Type) {
			return &InvalidSchemaError{
				Reason:   fmt.Sprintf("column %q has identity=true but type %s is not an integer variant", c.Name, c.Type),
				Location: loc,
			}
		}
	}

	refExists := func(name string) bool { return colSet[foldKey(name)] }

	if t.PrimaryKey != nil {
		if len(t.PrimaryKey.Columns) == 0 {
			return &InvalidSchemaError{Reason: "primary key has no columns", Location: loc}
		}
		for _, cn := range t.PrimaryKey.Columns {
			if !refExists(cn) {
				return &InvalidSchemaError{
					Reason:   fmt.Sprintf("primary key references unknown column %q", cn),
					Location: loc,
				}
			}
			if c, ok := t.Column(cn); ok && c.Nullable {
				return &InvalidSchemaError{
					Reason:   fmt.Sprintf("primary key column %q must have nullable=false", cn),
					Location: loc,
				}
			}
		}
	}

	for _, idx := range t.Indices {
		hasCols := len(idx.Columns) > 0
		hasExprs := len(idx.Expressions) > 0
		if hasCols == hasExprs {
			return &InvalidSchemaError{
				Reason:   fmt.Sprintf("index %q must have exactly one of columns or expressions non-empty", idx.Name),
				Location: loc,
			}
		}
		for _, cn := range idx.Columns {
			if !refExists(cn) {
				return &InvalidSchemaError{
					Reason:   fmt.Sprintf("index %q references unknown column %q", idx.Name, cn),
					Location: loc,
				}
			}
		}
	}

	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) == 0 || len(fk.ReferencedColumns) == 0 {
			return &InvalidSchemaError{
				Reason:   fmt.Sprintf("foreign key %q must have non-empty columns and referenced_columns", fk.Name),
				Location: loc,
			}
		}
		if len(fk.Columns) != len(fk.ReferencedColumns) {
			return &InvalidSchemaError{
				Reason:   fmt.Sprintf("foreign key %q: len(columns)=%d != len(referenced_columns)=%d", fk.Name, len(fk.Columns), len(fk.ReferencedColumns)),
				Location: loc,
			}
		}
		for _, cn := range fk.Columns {
			if !refExists(cn) {
				return &InvalidSchemaError{
					Reason:   fmt.Sprintf("foreign key %q references unknown local column %q", fk.Name, cn),
					Location: loc,
				}
			}
		}
	}

	for _, uc := range t.UniqueConstraints {
		if len(uc.Columns) == 0 {
			return &InvalidSchemaError{
				Reason:   fmt.Sprintf("unique constraint %q has no columns", uc.Name),
				Location: loc,
			}
		}
		for _, cn := range uc.Columns {
			if !refExists(cn) {
				return &InvalidSchemaError{
					Reason:   fmt.Sprintf("unique constraint %q references unknown column %q", uc.Name, cn),
					Location: loc,
				}
			}
		}
	}

	return nil
}

func isIntegerType(t Type) bool {
	switch t.(type) {
	case TinyInt, SmallInt, Int, BigInt:
		return true
	default:
		return false
	}
}

func foldKey(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

package schema

import "fmt"

// Error kinds (spec §7). Each implements error and wraps an underlying cause where one
// exists, so errors.As/errors.Is work across the runner -> generator -> inspector chain.

// CatalogQueryFailedError means the inspector could not read the live catalog.
type CatalogQueryFailedError struct {
	Dialect Dialect
	Detail  string
	Err     error
}

func (e *CatalogQueryFailedError) Error() string {
	return fmt.Sprintf("catalog query failed (%s): %s", e.Dialect, e.Detail)
}

func (e *CatalogQueryFailedError) Unwrap() error { return e.Err }

// UnsupportedTypeError means the type translator has no mapping for a variant.
type UnsupportedTypeError struct {
	Dialect Dialect
	Variant string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type %s for dialect %s", e.Variant, e.Dialect)
}

// InvalidSchemaError means a declared schema violates a §3.2 invariant.
type InvalidSchemaError struct {
	Reason   string
	Location string
}

func (e *InvalidSchemaError) Error() string {
	return fmt.Sprintf("invalid schema at %s: %s", e.Location, e.Reason)
}

// DestructiveDeniedError means policy rejected a plan containing destructive operations.
type DestructiveDeniedError struct {
	Operations []Operation
}

func (e *DestructiveDeniedError) Error() string {
	return fmt.Sprintf("%d destructive operation(s) rejected by policy (allow_destructive=false)", len(e.Operations))
}

// ExecutionFailedError means a statement failed at the database.
type ExecutionFailedError struct {
	OperationIndex int
	DDLText        string
	Detail         string
	Err            error
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("execution failed at operation %d: %s", e.OperationIndex, e.Detail)
}

func (e *ExecutionFailedError) Unwrap() error { return e.Err }

// CancelledError means cancellation was observed mid-run.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "migration cancelled" }

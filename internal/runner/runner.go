// Package runner implements the Migration Runner (spec §4.6): policy validation,
// transaction scoping, per-operation SQL generation and execution, and structured
// logging of outcomes.
//
// Grounded on the teacher's main.go applyPlan/dryRunPlan (transaction-scoped execution
// skipping comment-only steps, source-hash validation before executing, deferred
// rollback-unless-success), restructured from operating on a pre-generated planner.Plan
// to generating SQL per-operation as it executes, since this module's Generator is
// invoked by the runner rather than by a separate planning pass.
package runner

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/relschema/relschema/schema"
)

// Options is the Migration Runner's policy input (spec §4.6).
type Options struct {
	// AllowDestructive must be true for a plan containing any destructive operation
	// (DropTable, DropColumn, DropIndex, DropForeignKey, AlterColumn) to execute at all.
	AllowDestructive bool
	// UseTransaction wraps execution in a transaction when the dialect supports
	// transactional DDL (schema.Driver.SupportsTransactionalDDL).
	UseTransaction bool
	// ContinueOnError advances past a failed operation instead of aborting the run.
	ContinueOnError bool
	// DryRun generates and logs SQL for each operation without executing it.
	DryRun bool
}

// Summary reports what a run did (spec §4.6 step 5, "report outcome").
type Summary struct {
	Success         bool
	OperationsRun   int
	OperationsTotal int
	Failures        []Failure
}

// Failure records one operation's execution error, kept only when ContinueOnError lets
// the run advance past it.
type Failure struct {
	Index       int
	Description string
	Err         error
}

// transactionalDDLSupporter is satisfied by schema.Driver; Generator alone does not carry
// this capability, so the runner probes for it with an optional-interface assertion
// rather than widening its own signature past what spec §6.1 names.
type transactionalDDLSupporter interface {
	SupportsTransactionalDDL() bool
}

// execer is satisfied by both *sql.DB and *sql.Tx, letting the per-operation execution
// loop in Apply run identically whether or not a transaction was opened.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Apply runs ops against db using gen to produce each operation's SQL, per spec §4.6's
// five-step algorithm (policy validation, empty short-circuit, transaction, execution,
// commit/rollback).
func Apply(ctx context.Context, db *sql.DB, ops []schema.Operation, gen schema.Generator, opts Options, log *slog.Logger) (Summary, error) {
	if log == nil {
		log = slog.Default()
	}
	// A run ID correlates every log line this call emits, since one process may call
	// Apply more than once (e.g. a dry-run against a shadow DB followed by the real
	// apply) and the resulting log stream would otherwise be impossible to split apart.
	log = log.With("run_id", uuid.NewString())

	// Step 1: policy validation. Collect every denied operation before executing
	// anything, rather than stopping at the first one, so the caller sees the full
	// scope of what was rejected (spec §4.6 step 1).
	if !opts.AllowDestructive {
		var denied []schema.Operation
		for _, op := range ops {
			if op.IsDestructive() {
				denied = append(denied, op)
			}
		}
		if len(denied) > 0 {
			log.Error("migration rejected by policy", "denied_count", len(denied))
			return Summary{Success: false, OperationsTotal: len(ops)}, &schema.DestructiveDeniedError{Operations: denied}
		}
	}

	// Step 2: empty list short-circuit.
	if len(ops) == 0 {
		return Summary{Success: true}, nil
	}

	transactional := opts.UseTransaction
	if s, ok := gen.(transactionalDDLSupporter); ok {
		transactional = transactional && s.SupportsTransactionalDDL()
	} else {
		transactional = false
	}

	// SQLite enforces foreign keys per-connection, off by default; the rebuild idiom
	// used by schema/sqlite's generator for non-ALTER-able operations also depends on
	// being able to toggle this pragma mid-migration, so the runner ensures it starts
	// enabled. A failure here is not fatal — older SQLite builds without FK support
	// simply ignore the pragma.
	if !opts.DryRun && gen.Dialect() == schema.DialectSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			log.Debug("could not set PRAGMA foreign_keys", "error", err)
		}
	}

	// Step 3: transaction.
	var tx *sql.Tx
	var exec execer = db
	if transactional {
		var err error
		tx, err = db.BeginTx(ctx, nil)
		if err != nil {
			return Summary{Success: false, OperationsTotal: len(ops)}, err
		}
		exec = tx
	}

	success := false
	defer func() {
		if tx != nil && !success {
			_ = tx.Rollback()
		}
	}()

	summary := Summary{OperationsTotal: len(ops)}

	// Step 4: execution.
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			log.Error("migration cancelled", "operation_index", i)
			if tx != nil {
				_ = tx.Rollback()
			}
			return summary, &schema.CancelledError{}
		}

		statements, description, err := gen.Generate(op)
		if err != nil {
			return finishFailure(summary, tx, i, description, err)
		}

		log.Info("applying operation", "index", i, "kind", op.Kind, "description", description)

		if opts.DryRun {
			for _, stmt := range statements {
				log.Debug("dry-run statement", "index", i, "sql", stmt)
			}
			summary.OperationsRun++
			continue
		}

		if execErr := execStatements(ctx, exec, statements, log, i); execErr != nil {
			if opts.ContinueOnError {
				log.Error("operation failed, continuing", "index", i, "description", description, "error", execErr)
				summary.Failures = append(summary.Failures, Failure{Index: i, Description: description, Err: execErr})
				continue
			}
			return finishFailure(summary, tx, i, description, execErr)
		}
		summary.OperationsRun++
	}

	// Step 5: commit/rollback.
	if tx != nil {
		if err := tx.Commit(); err != nil {
			return summary, err
		}
	}
	success = true
	summary.Success = len(summary.Failures) == 0
	return summary, nil
}

func execStatements(ctx context.Context, exec execer, statements []string, log *slog.Logger, index int) error {
	for _, stmt := range statements {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		log.Debug("executing statement", "index", index, "sql", stmt)
		if _, err := exec.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func finishFailure(summary Summary, tx *sql.Tx, index int, description string, cause error) (Summary, error) {
	if tx != nil {
		_ = tx.Rollback()
	}
	return summary, &schema.ExecutionFailedError{OperationIndex: index, Detail: description, Err: cause}
}

// VerifySourceHash compares a previously captured schema hash (captured when a plan was
// generated) against a freshly computed hash of desired, returning an error if they
// differ. Grounded on the teacher's main.go applyPlan source-hash check (spec §4.6.B);
// this is an optional guard against a plan being applied after the desired schema
// changed on disk, orthogonal to Apply's own algorithm.
func VerifySourceHash(sourceHash string, desired schema.Schema) error {
	if sourceHash == "" {
		return nil
	}
	currentHash, err := schema.Hash(desired)
	if err != nil {
		return err
	}
	if currentHash != sourceHash {
		return &schema.InvalidSchemaError{
			Reason:   "source schema hash mismatch: plan was generated for a different schema state",
			Location: "source hash",
		}
	}
	return nil
}

// Command relschema is a small flag-based CLI over the library: introspect a live
// database, diff it against a declared schema, and apply the result. Grounded on the
// teacher's main.go (flag-based subcommand dispatch, detectDriver/newDriver DSN sniffing),
// scaled down to the operations spec.md §6.1 names — no shadow-DB dry-run orchestration,
// rollback, or interactive wizard (CLI-richness excluded by spec.md §1's Non-goals).
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"github.com/relschema/relschema/internal/config"
	"github.com/relschema/relschema/internal/declschema"
	"github.com/relschema/relschema/internal/diff"
	"github.com/relschema/relschema/internal/runner"
	"github.com/relschema/relschema/schema"
	"github.com/relschema/relschema/schema/postgres"
	"github.com/relschema/relschema/schema/sqlite"
	"github.com/relschema/relschema/schema/sqlserver"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		return
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		printHelp()
	case "introspect":
		runIntrospect(os.Args[2:])
	case "diff":
		runDiff(os.Args[2:])
	case "apply":
		runApply(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown subcommand %q\n\nRun 'relschema help' to see available commands.\n", os.Args[1])
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`relschema: a portable schema migration engine

Usage:
  relschema introspect <connection>                           print the live catalog as JSON
  relschema diff [flags] <connection> <schema-path>           print pending operations as JSON
  relschema apply [flags] <connection> <schema-path>          diff and apply against <connection>

Flags go before <connection>; flag parsing stops at the first positional argument.

Flags for diff:
  --allow-destructive   include drop operations in the emitted operation list (spec §4.5)

Flags for apply:
  --allow-destructive   permit drop/alter operations (spec §4.6 step 1)
  --dry-run             log generated SQL without executing it
  --continue-on-error   advance past a failed operation instead of aborting

<schema-path> may be a .sql file, a .json file, or a directory of .rs.sql files.
<connection> is sniffed by scheme/suffix: postgres://, sqlserver://, libsql://,
file:/*.db/*.sqlite/:memory: all select the matching dialect.`)
}

// detectDialect sniffs a connection string's dialect the way the teacher's
// detectDriver does, extended with a sqlserver:// scheme since this module adds that
// dialect.
func detectDialect(conn string) schema.Dialect {
	lower := strings.ToLower(conn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return schema.DialectPostgres
	case strings.HasPrefix(lower, "sqlserver://"):
		return schema.DialectSQLServer
	case strings.HasPrefix(lower, "libsql://"):
		return schema.DialectSQLite
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"),
		strings.HasSuffix(lower, ".sqlite3"), lower == ":memory:":
		return schema.DialectSQLite
	default:
		return schema.DialectPostgres
	}
}

func sqlDriverName(d schema.Dialect) string {
	switch d {
	case schema.DialectPostgres:
		return "postgres"
	case schema.DialectSQLServer:
		return "sqlserver"
	default:
		return "sqlite"
	}
}

func newDriver(d schema.Dialect) (schema.Driver, error) {
	switch d {
	case schema.DialectPostgres:
		return postgres.NewDriver(), nil
	case schema.DialectSQLServer:
		return sqlserver.NewDriver(), nil
	case schema.DialectSQLite:
		return sqlite.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", d)
	}
}

func openDB(conn string) (*sql.DB, schema.Driver, error) {
	dialect := detectDialect(conn)
	drv, err := newDriver(dialect)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open(sqlDriverName(dialect), conn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s connection: %w", dialect, err)
	}
	return db, drv, nil
}

func loadDesiredSchema(path string) (schema.Schema, error) {
	info, err := os.Stat(path)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("reading schema source %s: %w", path, err)
	}
	if info.IsDir() {
		return declschema.LoadDir(info.Name(), path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Schema{}, err
	}
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return declschema.LoadJSON(data)
	}
	return declschema.LoadSQL(info.Name(), string(data))
}

func runIntrospect(args []string) {
	fs := flag.NewFlagSet("introspect", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: relschema introspect <connection>")
		os.Exit(1)
	}
	conn := fs.Arg(0)

	db, drv, err := openDB(conn)
	if err != nil {
		exitErr(err)
	}
	defer db.Close()

	s, err := drv.Inspect(context.Background(), db)
	if err != nil {
		exitErr(err)
	}
	printJSON(s)
}

func runDiff(args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	allowDestructive := fs.Bool("allow-destructive", false, "include drop operations in the emitted operation list")
	fs.Parse(args)
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: relschema diff [flags] <connection> <schema-path>")
		os.Exit(1)
	}
	conn, schemaPath := fs.Arg(0), fs.Arg(1)

	db, drv, err := openDB(conn)
	if err != nil {
		exitErr(err)
	}
	defer db.Close()

	current, err := drv.Inspect(context.Background(), db)
	if err != nil {
		exitErr(err)
	}
	desired, err := loadDesiredSchema(schemaPath)
	if err != nil {
		exitErr(err)
	}

	ops, err := diff.Diff(current, desired, diff.Options{AllowDestructive: *allowDestructive})
	if err != nil {
		exitErr(err)
	}
	printJSON(ops)
}

func runApply(args []string) {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	allowDestructive := fs.Bool("allow-destructive", false, "permit destructive operations")
	dryRun := fs.Bool("dry-run", false, "log generated SQL without executing it")
	continueOnError := fs.Bool("continue-on-error", false, "advance past a failed operation")
	fs.Parse(args)
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: relschema apply [flags] <connection> <schema-path>")
		os.Exit(1)
	}
	conn, schemaPath := fs.Arg(0), fs.Arg(1)

	db, drv, err := openDB(conn)
	if err != nil {
		exitErr(err)
	}
	defer db.Close()

	current, err := drv.Inspect(context.Background(), db)
	if err != nil {
		exitErr(err)
	}
	desired, err := loadDesiredSchema(schemaPath)
	if err != nil {
		exitErr(err)
	}

	ops, err := diff.Diff(current, desired, diff.Options{AllowDestructive: *allowDestructive})
	if err != nil {
		exitErr(err)
	}
	if len(ops) == 0 {
		color.New(color.FgGreen).Fprintln(os.Stderr, "no changes to apply")
		return
	}
	color.New(color.FgCyan).Fprintf(os.Stderr, "applying %d operation(s) to %s\n", len(ops), drv.Name())

	opts := runner.Options{
		AllowDestructive: *allowDestructive,
		UseTransaction:   true,
		ContinueOnError:  *continueOnError,
		DryRun:           *dryRun,
	}
	summary, err := runner.Apply(context.Background(), db, ops, drv, opts, slog.Default())
	if err != nil {
		exitErr(err)
	}

	if summary.Success {
		color.New(color.FgGreen).Fprintf(os.Stderr, "✓ applied %d/%d operation(s)\n", summary.OperationsRun, summary.OperationsTotal)
	} else {
		color.New(color.FgYellow).Fprintf(os.Stderr, "applied %d/%d operation(s), %d failure(s)\n", summary.OperationsRun, summary.OperationsTotal, len(summary.Failures))
		for _, f := range summary.Failures {
			color.New(color.FgRed).Fprintf(os.Stderr, "  [%d] %s: %v\n", f.Index, f.Description, f.Err)
		}
		os.Exit(1)
	}
}

// resolveEnvironmentConn allows a future subcommand to resolve a named relschema.toml
// environment instead of a literal connection string; kept separate from openDB so the
// config package stays wired even though no subcommand above needs it directly yet.
func resolveEnvironmentConn(envName string) (string, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return "", err
	}
	env, err := config.ResolveEnvironment(cfg, envName)
	if err != nil {
		return "", err
	}
	return env.DatabaseURL, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		exitErr(err)
	}
}

func exitErr(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

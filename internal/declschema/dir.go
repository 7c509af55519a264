package declschema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/relschema/relschema/schema"
)

// LoadDir concatenates every *.rs.sql file in dir, in sorted filename order, and parses
// the result with LoadSQL. Grounded on the teacher's internal/schema/loader.go
// loadSchemaFromDir (os.ReadDir + ".lp.sql" suffix filter + "-- File:" marker
// concatenation), renamed to this module's own file suffix.
func LoadDir(name, dir string) (schema.Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("failed to read schema directory %s: %w", dir, err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if entry.IsDir() || entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".rs.sql") {
			sqlFiles = append(sqlFiles, filepath.Join(dir, entry.Name()))
		}
	}
	if len(sqlFiles) == 0 {
		return schema.Schema{}, fmt.Errorf("no .rs.sql files found in directory %s", dir)
	}
	sort.Strings(sqlFiles)

	var sb strings.Builder
	for _, file := range sqlFiles {
		data, err := os.ReadFile(file)
		if err != nil {
			return schema.Schema{}, fmt.Errorf("failed to read SQL file %s: %w", file, err)
		}
		fmt.Fprintf(&sb, "-- File: %s\n", file)
		sb.Write(data)
		if len(data) == 0 || data[len(data)-1] != '\n' {
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}

	return LoadSQL(name, sb.String())
}

// Package sqlserver implements the schema.Driver contract for Microsoft SQL Server
// (spec §5.3): NVARCHAR/NCHAR for national strings, ROWVERSION, UNIQUEIDENTIFIER,
// IDENTITY(seed,increment), and DATETIME2(p). This dialect has no counterpart in the
// teacher repo; it is grounded on other_examples' parser-sqlserver_map.go.go type table
// and generalized to the Portable Type family, using the real
// github.com/microsoft/go-mssqldb driver for connections (wired in cmd/relschema).
package sqlserver

import (
	"fmt"

	"github.com/relschema/relschema/schema"
)

// TranslateType renders a Portable Type as SQL Server column-type SQL (spec §5.3).
func TranslateType(t schema.Type) (string, error) {
	switch v := t.(type) {
	case schema.TinyInt:
		return "TINYINT", nil
	case schema.SmallInt:
		return "SMALLINT", nil
	case schema.Int:
		return "INT", nil
	case schema.BigInt:
		return "BIGINT", nil
	case schema.Decimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", v.Precision, v.Scale), nil
	case schema.Money:
		return "MONEY", nil
	case schema.SmallMoney:
		return "SMALLMONEY", nil
	case schema.Float:
		return "REAL", nil
	case schema.Double:
		return "FLOAT(53)", nil
	case schema.Char:
		return fmt.Sprintf("CHAR(%d)", v.Length), nil
	case schema.VarChar:
		if v.MaxLength == schema.MaxSentinel {
			return "VARCHAR(MAX)", nil
		}
		return fmt.Sprintf("VARCHAR(%d)", v.MaxLength), nil
	case schema.NChar:
		return fmt.Sprintf("NCHAR(%d)", v.Length), nil
	case schema.NVarChar:
		if v.MaxLength == schema.MaxSentinel {
			return "NVARCHAR(MAX)", nil
		}
		return fmt.Sprintf("NVARCHAR(%d)", v.MaxLength), nil
	case schema.Text:
		return "NVARCHAR(MAX)", nil
	case schema.Binary:
		return fmt.Sprintf("BINARY(%d)", v.Length), nil
	case schema.VarBinary:
		if v.MaxLength == schema.MaxSentinel {
			return "VARBINARY(MAX)", nil
		}
		return fmt.Sprintf("VARBINARY(%d)", v.MaxLength), nil
	case schema.Blob:
		return "VARBINARY(MAX)", nil
	case schema.Date:
		return "DATE", nil
	case schema.Time:
		return fmt.Sprintf("TIME(%d)", v.Precision), nil
	case schema.DateTime:
		return fmt.Sprintf("DATETIME2(%d)", v.Precision), nil
	case schema.DateTimeOffset:
		return "DATETIMEOFFSET", nil
	case schema.RowVersion:
		return "ROWVERSION", nil
	case schema.Uuid:
		return "UNIQUEIDENTIFIER", nil
	case schema.Boolean:
		return "BIT", nil
	case schema.Json:
		return "NVARCHAR(MAX)", nil
	case schema.Xml:
		return "XML", nil
	case schema.Geometry:
		return "GEOMETRY", nil
	case schema.Geography:
		return "GEOGRAPHY", nil
	case schema.Enum:
		// SQL Server has no native enum type; the portable CHECK-constraint
		// representation stands in, mirroring what the generator emits (spec §5.3).
		maxLen := 1
		for _, v := range v.Values {
			if len(v) > maxLen {
				maxLen = len(v)
			}
		}
		return fmt.Sprintf("NVARCHAR(%d)", maxLen), nil
	default:
		return "", &schema.UnsupportedTypeError{Dialect: schema.DialectSQLServer, Variant: fmt.Sprintf("%T", t)}
	}
}

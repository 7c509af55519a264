package declschema

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/relschema/relschema/schema"
)

// typeFromTypeName maps a pg_query TypeName node to a Portable Type (spec §3.3). The
// declarative surface is parsed with pg_query regardless of the dialect ultimately
// targeted by the bound Generator/Driver — declaring "integer" or "varchar(255)" is
// dialect-neutral vocabulary, translated by the per-dialect type translators at
// generation time. Grounded on the teacher's internal/parser/sql.go formatTypeName/
// normalizePostgreSQLType, retargeted from producing a string+TypeMetadata pair to
// producing a schema.Type variant directly.
func typeFromTypeName(tn *pg_query.TypeName) (schema.Type, error) {
	if len(tn.Names) == 0 {
		return nil, &schema.InvalidSchemaError{Reason: "column type has no name", Location: "sql"}
	}
	var parts []string
	for _, n := range tn.Names {
		if s, ok := n.Node.(*pg_query.Node_String_); ok {
			parts = append(parts, s.String_.Sval)
		}
	}
	name := strings.ToLower(parts[len(parts)-1])

	var mods []int64
	for _, mod := range tn.Typmods {
		if c, ok := mod.Node.(*pg_query.Node_AConst); ok {
			if ival := c.AConst.GetIval(); ival != nil {
				mods = append(mods, int64(ival.Ival))
			}
		}
	}
	mod := func(i int, def int64) int64 {
		if i < len(mods) {
			return mods[i]
		}
		return def
	}

	switch name {
	case "smallint", "int2":
		return schema.SmallInt{}, nil
	case "integer", "int", "int4":
		return schema.Int{}, nil
	case "bigint", "int8":
		return schema.BigInt{}, nil
	case "tinyint":
		return schema.TinyInt{}, nil
	case "numeric", "decimal":
		return schema.Decimal{Precision: int(mod(0, 18)), Scale: int(mod(1, 2))}, nil
	case "money":
		return schema.Money{}, nil
	case "smallmoney":
		return schema.SmallMoney{}, nil
	case "real", "float4":
		return schema.Float{}, nil
	case "double precision", "float8", "double":
		return schema.Double{}, nil
	case "char", "character", "bpchar":
		return schema.Char{Length: int(mod(0, 1))}, nil
	case "nchar":
		return schema.NChar{Length: int(mod(0, 1))}, nil
	case "varchar", "character varying":
		if len(mods) == 0 {
			return schema.VarChar{MaxLength: schema.MaxSentinel}, nil
		}
		return schema.VarChar{MaxLength: int(mods[0])}, nil
	case "nvarchar":
		if len(mods) == 0 {
			return schema.NVarChar{MaxLength: schema.MaxSentinel}, nil
		}
		return schema.NVarChar{MaxLength: int(mods[0])}, nil
	case "text":
		return schema.Text{}, nil
	case "binary":
		return schema.Binary{Length: int(mod(0, 1))}, nil
	case "varbinary":
		if len(mods) == 0 {
			return schema.VarBinary{MaxLength: schema.MaxSentinel}, nil
		}
		return schema.VarBinary{MaxLength: int(mods[0])}, nil
	case "bytea", "blob":
		return schema.Blob{}, nil
	case "date":
		return schema.Date{}, nil
	case "time":
		return schema.Time{Precision: int(mod(0, 6))}, nil
	case "timestamp":
		return schema.DateTime{Precision: int(mod(0, 6))}, nil
	case "timestamptz", "timestamp with time zone", "datetimeoffset":
		return schema.DateTimeOffset{}, nil
	case "rowversion", "timestamp_sqlserver":
		return schema.RowVersion{}, nil
	case "uuid", "uniqueidentifier":
		return schema.Uuid{}, nil
	case "bool", "boolean", "bit":
		return schema.Boolean{}, nil
	case "json", "jsonb":
		return schema.Json{}, nil
	case "xml":
		return schema.Xml{}, nil
	case "geometry":
		return schema.Geometry{}, nil
	case "geography":
		return schema.Geography{SRID: 4326}, nil
	default:
		return nil, &schema.UnsupportedTypeError{Dialect: schema.DialectPostgres, Variant: name}
	}
}

package postgres

import (
	"database/sql"
	"strings"

	"github.com/relschema/relschema/schema"
)

// catalogColumn carries the raw information_schema facts needed to reconstruct a
// Portable Type, grounded on the teacher's GetColumns query (extended with the
// additional precision/length/udt columns the teacher's GetColumns doesn't select,
// since the teacher only ever round-trips bare type names).
type catalogColumn struct {
	dataType      string
	udtName       string
	charMaxLen    sql.NullInt64
	numPrecision  sql.NullInt64
	numScale      sql.NullInt64
	dtPrecision   sql.NullInt64
	isSerial      bool
}

// fromCatalogType reconstructs a Portable Type from PostgreSQL catalog facts.
func fromCatalogType(c catalogColumn) (schema.Type, error) {
	dt := strings.ToLower(strings.TrimSpace(c.dataType))
	switch dt {
	case "smallint":
		return schema.SmallInt{}, nil
	case "integer":
		if c.isSerial {
			return schema.Int{}, nil
		}
		return schema.Int{}, nil
	case "bigint":
		return schema.BigInt{}, nil
	case "numeric", "decimal":
		p, s := 18, 2
		if c.numPrecision.Valid {
			p = int(c.numPrecision.Int64)
		}
		if c.numScale.Valid {
			s = int(c.numScale.Int64)
		}
		return schema.Decimal{Precision: p, Scale: s}, nil
	case "money":
		return schema.Money{}, nil
	case "real":
		return schema.Float{}, nil
	case "double precision":
		return schema.Double{}, nil
	case "character":
		return schema.Char{Length: intOr(c.charMaxLen, 1)}, nil
	case "character varying":
		if !c.charMaxLen.Valid {
			return schema.VarChar{MaxLength: schema.MaxSentinel}, nil
		}
		return schema.VarChar{MaxLength: int(c.charMaxLen.Int64)}, nil
	case "text":
		return schema.Text{}, nil
	case "bytea":
		return schema.Blob{}, nil
	case "date":
		return schema.Date{}, nil
	case "time without time zone", "time with time zone":
		return schema.Time{Precision: intOr(c.dtPrecision, 6)}, nil
	case "timestamp without time zone":
		return schema.DateTime{Precision: intOr(c.dtPrecision, 6)}, nil
	case "timestamp with time zone":
		return schema.DateTimeOffset{}, nil
	case "uuid":
		return schema.Uuid{}, nil
	case "boolean":
		return schema.Boolean{}, nil
	case "json", "jsonb":
		return schema.Json{}, nil
	case "xml":
		return schema.Xml{}, nil
	case "user-defined":
		// Enum values are resolved by the caller (introspector) via pg_enum, since the
		// type's allowed values aren't part of information_schema.columns; this shallow
		// fallback covers PostGIS geometry/geography, reported as USER-DEFINED too.
		switch c.udtName {
		case "geometry":
			return schema.Geometry{}, nil
		case "geography":
			return schema.Geography{SRID: schema.DefaultGeographySRID}, nil
		default:
			return schema.Enum{Name: c.udtName}, nil
		}
	default:
		return nil, &schema.UnsupportedTypeError{Dialect: schema.DialectPostgres, Variant: c.dataType}
	}
}

func intOr(n sql.NullInt64, fallback int) int {
	if !n.Valid {
		return fallback
	}
	return int(n.Int64)
}

// isSerialDefault mirrors the teacher's heuristic for detecting SERIAL/BIGSERIAL
// pseudo-types from a nextval() default (database/postgres/introspector.go).
func isSerialDefault(defaultVal string) bool {
	return strings.HasPrefix(defaultVal, "nextval(") && strings.Contains(defaultVal, "_seq")
}

// normalizeDefault strips a trailing redundant type cast, as the teacher does, so that
// e.g. '{}'::jsonb round-trips to '{}' for comparison against a portable default.
func normalizeDefault(defaultVal string) string {
	if idx := strings.LastIndex(defaultVal, "::"); idx > 0 {
		beforeCast := defaultVal[:idx]
		if strings.Count(beforeCast, "'")%2 == 0 {
			return beforeCast
		}
	}
	return defaultVal
}

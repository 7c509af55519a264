package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// typeEnvelope is the externally-tagged wire shape for Type (spec §6.2): {kind, ...params}.
type typeEnvelope struct {
	Kind      string   `json:"kind"`
	Precision int      `json:"precision,omitempty"`
	Scale     int      `json:"scale,omitempty"`
	Length    int      `json:"length,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	SRID      *int     `json:"srid,omitempty"`
	Name      string   `json:"name,omitempty"`
	Values    []string `json:"values,omitempty"`
}

// MarshalType renders a Type as its tagged-JSON envelope (spec §6.2).
func MarshalType(t Type) ([]byte, error) {
	env, err := toEnvelope(t)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// UnmarshalType parses a tagged-JSON envelope into a Type, rejecting unknown kinds and
// unknown fields (spec §6.2: "Unknown type kinds or unknown fields ... are rejected").
func UnmarshalType(data []byte) (Type, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var env typeEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, &InvalidSchemaError{Reason: err.Error(), Location: "type"}
	}
	return fromEnvelope(env)
}

func toEnvelope(t Type) (typeEnvelope, error) {
	switch v := t.(type) {
	case TinyInt:
		return typeEnvelope{Kind: "TinyInt"}, nil
	case SmallInt:
		return typeEnvelope{Kind: "SmallInt"}, nil
	case Int:
		return typeEnvelope{Kind: "Int"}, nil
	case BigInt:
		return typeEnvelope{Kind: "BigInt"}, nil
	case Decimal:
		return typeEnvelope{Kind: "Decimal", Precision: v.Precision, Scale: v.Scale}, nil
	case Money:
		return typeEnvelope{Kind: "Money"}, nil
	case SmallMoney:
		return typeEnvelope{Kind: "SmallMoney"}, nil
	case Float:
		return typeEnvelope{Kind: "Float"}, nil
	case Double:
		return typeEnvelope{Kind: "Double"}, nil
	case Char:
		return typeEnvelope{Kind: "Char", Length: v.Length}, nil
	case VarChar:
		ml := v.MaxLength
		return typeEnvelope{Kind: "VarChar", MaxLength: &ml}, nil
	case NChar:
		return typeEnvelope{Kind: "NChar", Length: v.Length}, nil
	case NVarChar:
		ml := v.MaxLength
		return typeEnvelope{Kind: "NVarChar", MaxLength: &ml}, nil
	case Text:
		return typeEnvelope{Kind: "Text"}, nil
	case Binary:
		return typeEnvelope{Kind: "Binary", Length: v.Length}, nil
	case VarBinary:
		ml := v.MaxLength
		return typeEnvelope{Kind: "VarBinary", MaxLength: &ml}, nil
	case Blob:
		return typeEnvelope{Kind: "Blob"}, nil
	case Date:
		return typeEnvelope{Kind: "Date"}, nil
	case Time:
		return typeEnvelope{Kind: "Time", Precision: v.Precision}, nil
	case DateTime:
		return typeEnvelope{Kind: "DateTime", Precision: v.Precision}, nil
	case DateTimeOffset:
		return typeEnvelope{Kind: "DateTimeOffset"}, nil
	case RowVersion:
		return typeEnvelope{Kind: "RowVersion"}, nil
	case Uuid:
		return typeEnvelope{Kind: "Uuid"}, nil
	case Boolean:
		return typeEnvelope{Kind: "Boolean"}, nil
	case Json:
		return typeEnvelope{Kind: "Json"}, nil
	case Xml:
		return typeEnvelope{Kind: "Xml"}, nil
	case Geometry:
		return typeEnvelope{Kind: "Geometry", SRID: v.SRID}, nil
	case Geography:
		srid := v.SRID
		return typeEnvelope{Kind: "Geography", SRID: &srid}, nil
	case Enum:
		return typeEnvelope{Kind: "Enum", Name: v.Name, Values: v.Values}, nil
	default:
		return typeEnvelope{}, &UnsupportedTypeError{Dialect: "", Variant: fmt.Sprintf("%T", t)}
	}
}

func fromEnvelope(env typeEnvelope) (Type, error) {
	switch env.Kind {
	case "TinyInt":
		return TinyInt{}, nil
	case "SmallInt":
		return SmallInt{}, nil
	case "Int":
		return Int{}, nil
	case "BigInt":
		return BigInt{}, nil
	case "Decimal":
		return Decimal{Precision: env.Precision, Scale: env.Scale}, nil
	case "Money":
		return Money{}, nil
	case "SmallMoney":
		return SmallMoney{}, nil
	case "Float":
		return Float{}, nil
	case "Double":
		return Double{}, nil
	case "Char":
		return Char{Length: env.Length}, nil
	case "VarChar":
		return VarChar{MaxLength: derefOr(env.MaxLength, MaxSentinel)}, nil
	case "NChar":
		return NChar{Length: env.Length}, nil
	case "NVarChar":
		return NVarChar{MaxLength: derefOr(env.MaxLength, MaxSentinel)}, nil
	case "Text":
		return Text{}, nil
	case "Binary":
		return Binary{Length: env.Length}, nil
	case "VarBinary":
		return VarBinary{MaxLength: derefOr(env.MaxLength, MaxSentinel)}, nil
	case "Blob":
		return Blob{}, nil
	case "Date":
		return Date{}, nil
	case "Time":
		return Time{Precision: env.Precision}, nil
	case "DateTime":
		return DateTime{Precision: env.Precision}, nil
	case "DateTimeOffset":
		return DateTimeOffset{}, nil
	case "RowVersion":
		return RowVersion{}, nil
	case "Uuid":
		return Uuid{}, nil
	case "Boolean":
		return Boolean{}, nil
	case "Json":
		return Json{}, nil
	case "Xml":
		return Xml{}, nil
	case "Geometry":
		return Geometry{SRID: env.SRID}, nil
	case "Geography":
		return Geography{SRID: derefOr(env.SRID, DefaultGeographySRID)}, nil
	case "Enum":
		return Enum{Name: env.Name, Values: env.Values}, nil
	default:
		return nil, &InvalidSchemaError{Reason: fmt.Sprintf("unknown type kind %q", env.Kind), Location: "type"}
	}
}

func derefOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

// ParseTypeString accepts the compact string form spec §6.2 permits as an input-only
// convenience ("Decimal(18,2)", "VarChar(255)", "VarChar(MAX)", ...). Enum is not
// representable in compact form (it needs an ordered value list) and is rejected here;
// callers needing Enum must use the tagged-JSON envelope.
func ParseTypeString(s string) (Type, error) {
	s = strings.TrimSpace(s)
	name, args, hasArgs := splitNameArgs(s)
	switch strings.ToLower(name) {
	case "tinyint":
		return TinyInt{}, nil
	case "smallint":
		return SmallInt{}, nil
	case "int":
		return Int{}, nil
	case "bigint":
		return BigInt{}, nil
	case "money":
		return Money{}, nil
	case "smallmoney":
		return SmallMoney{}, nil
	case "float":
		return Float{}, nil
	case "double":
		return Double{}, nil
	case "text":
		return Text{}, nil
	case "blob":
		return Blob{}, nil
	case "date":
		return Date{}, nil
	case "datetimeoffset":
		return DateTimeOffset{}, nil
	case "rowversion":
		return RowVersion{}, nil
	case "uuid":
		return Uuid{}, nil
	case "boolean":
		return Boolean{}, nil
	case "json":
		return Json{}, nil
	case "xml":
		return Xml{}, nil
	case "decimal":
		p, sc, err := twoInts(args)
		if err != nil {
			return nil, err
		}
		return Decimal{Precision: p, Scale: sc}, nil
	case "char":
		n, err := oneInt(args)
		if err != nil {
			return nil, err
		}
		return Char{Length: n}, nil
	case "nchar":
		n, err := oneInt(args)
		if err != nil {
			return nil, err
		}
		return NChar{Length: n}, nil
	case "binary":
		n, err := oneInt(args)
		if err != nil {
			return nil, err
		}
		return Binary{Length: n}, nil
	case "varchar":
		n, err := lengthOrMax(args)
		if err != nil {
			return nil, err
		}
		return VarChar{MaxLength: n}, nil
	case "nvarchar":
		n, err := lengthOrMax(args)
		if err != nil {
			return nil, err
		}
		return NVarChar{MaxLength: n}, nil
	case "varbinary":
		n, err := lengthOrMax(args)
		if err != nil {
			return nil, err
		}
		return VarBinary{MaxLength: n}, nil
	case "time":
		n, err := oneInt(args)
		if err != nil {
			return nil, err
		}
		return Time{Precision: n}, nil
	case "datetime":
		n, err := oneInt(args)
		if err != nil {
			return nil, err
		}
		return DateTime{Precision: n}, nil
	case "geometry":
		if !hasArgs {
			return Geometry{}, nil
		}
		n, err := oneInt(args)
		if err != nil {
			return nil, err
		}
		return Geometry{SRID: &n}, nil
	case "geography":
		if !hasArgs {
			return Geography{SRID: DefaultGeographySRID}, nil
		}
		n, err := oneInt(args)
		if err != nil {
			return nil, err
		}
		return Geography{SRID: n}, nil
	default:
		return nil, &InvalidSchemaError{Reason: fmt.Sprintf("unknown compact type %q", s), Location: "type"}
	}
}

func splitNameArgs(s string) (name string, args string, hasArgs bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return s, "", false
	}
	return s[:open], s[open+1 : len(s)-1], true
}

func oneInt(args string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return 0, &InvalidSchemaError{Reason: "expected one integer argument, got " + args, Location: "type"}
	}
	return n, nil
}

func twoInts(args string) (int, int, error) {
	parts := strings.Split(args, ",")
	if len(parts) != 2 {
		return 0, 0, &InvalidSchemaError{Reason: "expected precision,scale, got " + args, Location: "type"}
	}
	p, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	sc, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, &InvalidSchemaError{Reason: "expected two integers, got " + args, Location: "type"}
	}
	return p, sc, nil
}

func lengthOrMax(args string) (int, error) {
	if strings.EqualFold(strings.TrimSpace(args), "max") {
		return MaxSentinel, nil
	}
	return oneInt(args)
}

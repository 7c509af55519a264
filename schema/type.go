package schema

import "fmt"

// MaxSentinel marks an "unbounded" (MAX) length on VarChar, NVarChar, and VarBinary.
const MaxSentinel = -1

// Type is the closed, exhaustively-matched Portable Type variant family (spec §3.3).
// Every concrete variant below is the only permitted implementation; translators use a
// type switch over these and must handle every case (see schema/typeset_test.go, which
// iterates AllTypeSamples and fails if a dialect translator is missing a case).
type Type interface {
	isPortableType()
	String() string
}

// Integer variants.
type (
	TinyInt  struct{}
	SmallInt struct{}
	Int      struct{}
	BigInt   struct{}
)

// Exact-numeric variants.
type (
	Decimal struct {
		Precision int // 1..38
		Scale     int // 0..=Precision
	}
	Money      struct{}
	SmallMoney struct{}
)

// Float variants.
type (
	Float  struct{}
	Double struct{}
)

// String variants.
type (
	Char struct {
		Length int
	}
	VarChar struct {
		MaxLength int // MaxSentinel means unbounded
	}
	NChar struct {
		Length int
	}
	NVarChar struct {
		MaxLength int // MaxSentinel means unbounded
	}
	Text struct{}
)

// Binary variants.
type (
	Binary struct {
		Length int
	}
	VarBinary struct {
		MaxLength int // MaxSentinel means unbounded
	}
	Blob struct{}
)

// Date/time variants.
type (
	Date struct{}
	Time struct {
		Precision int // 0..=7
	}
	DateTime struct {
		Precision int // 0..=7
	}
	DateTimeOffset struct{}
	RowVersion     struct{}
)

// Identifier variant.
type Uuid struct{}

// Logical variant.
type Boolean struct{}

// Document variants.
type (
	Json struct{}
	Xml  struct{}
)

// Spatial variants.
type (
	Geometry struct {
		SRID *int // optional
	}
	Geography struct {
		SRID int // default 4326
	}
)

// User-defined variant.
type Enum struct {
	Name   string
	Values []string // ordered, non-empty
}

func (TinyInt) isPortableType()        {}
func (SmallInt) isPortableType()       {}
func (Int) isPortableType()            {}
func (BigInt) isPortableType()         {}
func (Decimal) isPortableType()        {}
func (Money) isPortableType()          {}
func (SmallMoney) isPortableType()     {}
func (Float) isPortableType()          {}
func (Double) isPortableType()         {}
func (Char) isPortableType()           {}
func (VarChar) isPortableType()        {}
func (NChar) isPortableType()          {}
func (NVarChar) isPortableType()       {}
func (Text) isPortableType()           {}
func (Binary) isPortableType()         {}
func (VarBinary) isPortableType()      {}
func (Blob) isPortableType()           {}
func (Date) isPortableType()           {}
func (Time) isPortableType()           {}
func (DateTime) isPortableType()       {}
func (DateTimeOffset) isPortableType() {}
func (RowVersion) isPortableType()     {}
func (Uuid) isPortableType()           {}
func (Boolean) isPortableType()        {}
func (Json) isPortableType()           {}
func (Xml) isPortableType()            {}
func (Geometry) isPortableType()       {}
func (Geography) isPortableType()      {}
func (Enum) isPortableType()           {}

func (TinyInt) String() string  { return "TinyInt" }
func (SmallInt) String() string { return "SmallInt" }
func (Int) String() string      { return "Int" }
func (BigInt) String() string   { return "BigInt" }
func (d Decimal) String() string {
	return fmt.Sprintf("Decimal(%d,%d)", d.Precision, d.Scale)
}
func (Money) String() string      { return "Money" }
func (SmallMoney) String() string { return "SmallMoney" }
func (Float) String() string      { return "Float" }
func (Double) String() string     { return "Double" }
func (c Char) String() string     { return fmt.Sprintf("Char(%d)", c.Length) }
func (v VarChar) String() string  { return fmt.Sprintf("VarChar(%s)", lengthLabel(v.MaxLength)) }
func (n NChar) String() string    { return fmt.Sprintf("NChar(%d)", n.Length) }
func (n NVarChar) String() string { return fmt.Sprintf("NVarChar(%s)", lengthLabel(n.MaxLength)) }
func (Text) String() string       { return "Text" }
func (b Binary) String() string   { return fmt.Sprintf("Binary(%d)", b.Length) }
func (v VarBinary) String() string {
	return fmt.Sprintf("VarBinary(%s)", lengthLabel(v.MaxLength))
}
func (Blob) String() string { return "Blob" }
func (Date) String() string { return "Date" }
func (t Time) String() string {
	return fmt.Sprintf("Time(%d)", t.Precision)
}
func (d DateTime) String() string {
	return fmt.Sprintf("DateTime(%d)", d.Precision)
}
func (DateTimeOffset) String() string { return "DateTimeOffset" }
func (RowVersion) String() string     { return "RowVersion" }
func (Uuid) String() string           { return "Uuid" }
func (Boolean) String() string        { return "Boolean" }
func (Json) String() string           { return "Json" }
func (Xml) String() string            { return "Xml" }
func (g Geometry) String() string {
	if g.SRID == nil {
		return "Geometry"
	}
	return fmt.Sprintf("Geometry(srid=%d)", *g.SRID)
}
func (g Geography) String() string { return fmt.Sprintf("Geography(srid=%d)", g.SRID) }
func (e Enum) String() string      { return fmt.Sprintf("Enum(%s)", e.Name) }

func lengthLabel(n int) string {
	if n == MaxSentinel {
		return "MAX"
	}
	return fmt.Sprintf("%d", n)
}

// DefaultGeographySRID is the default spatial reference ID for Geography columns.
const DefaultGeographySRID = 4326

// AllTypeSamples returns one representative value of every concrete Type variant, used by
// schema/typeset_test.go to check each dialect's translator handles every case instead of
// falling through to its default branch.
func AllTypeSamples() []Type {
	srid := DefaultGeographySRID
	return []Type{
		TinyInt{}, SmallInt{}, Int{}, BigInt{},
		Decimal{Precision: 18, Scale: 2}, Money{}, SmallMoney{},
		Float{}, Double{},
		Char{Length: 10}, VarChar{MaxLength: 255}, NChar{Length: 10}, NVarChar{MaxLength: 255}, Text{},
		Binary{Length: 16}, VarBinary{MaxLength: 256}, Blob{},
		Date{}, Time{Precision: 6}, DateTime{Precision: 6}, DateTimeOffset{}, RowVersion{},
		Uuid{}, Boolean{}, Json{}, Xml{},
		Geometry{SRID: &srid}, Geography{SRID: DefaultGeographySRID},
		Enum{Name: "status", Values: []string{"active", "inactive"}},
	}
}

// TypesEqual reports structural equality between two Portable Type values.
func TypesEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

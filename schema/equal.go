package schema

import "reflect"

// Equal reports structural equality between two Schema values (spec §6.2, §8.1 property 5).
// Declaration order is part of identity (spec §3.1: "order is the declaration order and
// preserved through serialization"), so this is a straightforward deep comparison rather
// than a set comparison.
func Equal(a, b Schema) bool {
	return reflect.DeepEqual(normalizeForEquality(a), normalizeForEquality(b))
}

// normalizeForEquality clears fields that are diagnostic-only (SPEC_FULL §3.A:
// RawCatalogType/RawCatalogDefault never participate in structural equality) and applies
// the same zero-value defaults a wire round-trip would, so that a Schema built via New()
// compares equal to the same Schema after MarshalJSON/UnmarshalJSON.
func normalizeForEquality(s Schema) Schema {
	out := Schema{Name: s.Name}
	for _, t := range s.Tables {
		nt := t
		nt.SchemaNamespace = t.Namespace()
		nt.Columns = make([]Column, len(t.Columns))
		for i, c := range t.Columns {
			nc := c
			nc.RawCatalogType = ""
			nc.RawCatalogDefault = ""
			nc.IdentitySeed = c.EffectiveSeed()
			nc.IdentityIncrement = c.EffectiveIncrement()
			if !c.Identity {
				nc.IdentitySeed = 1
				nc.IdentityIncrement = 1
			}
			nt.Columns[i] = nc
		}
		nt.ForeignKeys = make([]ForeignKey, len(t.ForeignKeys))
		for i, fk := range t.ForeignKeys {
			nfk := fk
			nfk.OnDelete = fk.EffectiveOnDelete()
			nfk.OnUpdate = fk.EffectiveOnUpdate()
			nt.ForeignKeys[i] = nfk
		}
		out.Tables = append(out.Tables, nt)
	}
	return out
}

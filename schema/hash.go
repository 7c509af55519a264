package schema

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes a deterministic content hash of a Schema, used by the runner's
// VerifySourceHash to detect that the desired schema changed after a plan was generated
// from it (spec §4.6, the "source hash" guard). Grounded on the separate lockplane-vibe module's
// internal/schema/hash.go idiom (normalize-then-sha256), reimplemented here because that
// module is a self-contained, unwired experiment (see DESIGN.md) and the primary module
// has no hash function of its own.
//
// Unlike the teacher's name-sorted normalization, Hash hashes the Schema's own
// MarshalJSON output directly: declaration order is part of a Table's identity (spec
// §3.1), so two schemas that differ only in column order must hash differently.
func Hash(s Schema) (string, error) {
	data, err := s.MarshalJSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

package mapping

import (
	"strconv"

	"github.com/google/uuid"
)

// idNamespace seeds the name-based UUID derivation. It is a fixed constant:
// changing it would re-key every migrated row, breaking the idempotent
// re-run guarantee that the destination's conflict-ignore policy relies on.
var idNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// DeriveID produces a stable UUID for a Matomo numeric id plus a record-kind
// discriminator ("visit", "action", "pageview", "event_data", ...).
//
// The derivation is a UUIDv5 (SHA-1, name-based) over "matomo:<kind>:<id>".
// Properties the rest of the tool depends on:
//
//   - Deterministic across processes and runs, so a migration can be
//     re-executed (or resumed) without producing duplicate destination rows.
//   - Kind-separated: the same numeric id under different kinds yields
//     different UUIDs, so small visit and action ids cannot collide.
func DeriveID(id uint64, kind string) string {
	name := "matomo:" + kind + ":" + strconv.FormatUint(id, 10)
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}

// PageviewTokenID folds Matomo's random idpageview token (a short
// alphanumeric string) into the numeric id domain so it can feed DeriveID.
// The rule is fixed: at most the first eight bytes of the token, interpreted
// as a big-endian integer. Shorter tokens use exactly the bytes they have.
func PageviewTokenID(token string) uint64 {
	b := []byte(token)
	if len(b) > 8 {
		b = b[:8]
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

package spatial

import (
	"bytes"

	"github.com/cespare/xxhash/v2"

	"github.com/voidforge/voidforge/internal/core/entity"
)

// OrderPair returns the two ids in canonical (byte-ascending) order, so an
// unordered entity pair always maps to the same tuple.
func OrderPair(a, b entity.ID) (entity.ID, entity.ID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

// PairKey hashes the canonical ordering of an unordered entity pair to a
// uint64, used as the per-frame "already checked" set key by both the
// physics and collision passes.
func PairKey(a, b entity.ID) uint64 {
	lo, hi := OrderPair(a, b)
	var d xxhash.Digest
	d.Reset()
	_, _ = d.Write(lo[:])
	_, _ = d.Write(hi[:])
	return d.Sum64()
}

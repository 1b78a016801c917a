// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package model

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// contentHash memoizes a murmur3 digest of the type's declared shape
// (kind, name, bounds, member ids/names/types), used as an O(1) pre-check
// before the recursive structural Equals. Grounded on pandalee99-fory's use of murmur3 for cross-language
// type-id hashing (the closest domain analog in the retrieval pack to
// hashing a runtime type descriptor). The memoization runs under
// sync.Once since a shared, immutable *Type may have Equals/ContentHash
// called on it from multiple goroutines.
func (t *Type) contentHash() uint64 {
	t.hashOnce.Do(func() {
		h := murmur3.New64()
		var buf [8]byte

		writeU64 := func(v uint64) {
			binary.LittleEndian.PutUint64(buf[:], v)
			h.Write(buf[:])
		}
		writeU64(uint64(t.kind))
		h.Write([]byte(t.name))
		for _, b := range t.bounds {
			writeU64(uint64(b))
		}
		for _, m := range t.membersByIndex {
			writeU64(uint64(m.id))
			h.Write([]byte(m.name))
			if m.typ != nil {
				writeU64(uint64(m.typ.kind))
				h.Write([]byte(m.typ.name))
			}
		}
		t.hash = h.Sum64()
	})
	return t.hash
}

// ContentHash exposes the memoized content hash. The registry does not
// use it; its table is keyed by type name.
func (t *Type) ContentHash() uint64 {
	return t.contentHash()
}

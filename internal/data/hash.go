// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package data

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/zeebo/xxh3"

	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

// StructuralHash returns an xxh3 digest of v's current contents, cached
// against v.Generation() so repeated calls on an unmodified value skip
// re-walking the value tree. Key serialization (get_key) does not use
// this digest. Grounded on
// tsgonest-tsgonest's use of zeebo/xxh3 as the fast structural-hash
// library for a large structural-typing engine — the same niche this
// fills for a dynamic value tree.
func (v *Value) StructuralHash() uint64 {
	if v.hashValid && v.hashGen == v.gen {
		return v.hashVal
	}
	h := xxh3.New()
	v.writeHash(h)
	sum := h.Sum64()
	v.hashVal = sum
	v.hashGen = v.gen
	v.hashValid = true
	return sum
}

func (v *Value) writeHash(h *xxh3.Hasher) {
	var buf [8]byte
	writeU64 := func(x uint64) {
		binary.LittleEndian.PutUint64(buf[:], x)
		h.Write(buf[:])
	}

	k := v.EnclosedKind()
	writeU64(uint64(k))

	switch {
	case k.IsString():
		h.Write([]byte(fmt.Sprint(v.scalar)))
	case k.IsPrimitive(), k == kind.Enum:
		h.Write([]byte(fmt.Sprint(v.scalar)))
	case k == kind.Bitmask, k == kind.Bitset:
		writeU64(v.scalar.(uint64))
	case k == kind.Union:
		writeU64(uint64(v.selected))
		if c, ok := v.children[v.selected]; ok {
			c.writeHash(h)
		}
	case k == kind.Structure:
		for _, m := range v.typ.ResolveAliasEnclosed().GetAllMembersByIndex() {
			writeU64(uint64(m.Id()))
			if c, ok := v.children[m.Id()]; ok {
				c.writeHash(h)
			}
		}
	case k == kind.Array:
		total := v.typ.ResolveAliasEnclosed().TotalArrayBound()
		for i := model.MemberId(0); i < model.MemberId(total); i++ {
			if c, ok := v.children[i]; ok {
				c.writeHash(h)
			} else {
				writeU64(0)
			}
		}
	case k == kind.Sequence:
		writeU64(uint64(v.size))
		for i := model.MemberId(0); i < model.MemberId(v.size); i++ {
			v.children[i].writeHash(h)
		}
	case k == kind.Map:
		writeU64(uint64(v.size))
		keys := make([]string, 0, len(v.mapKeyIndex))
		for ks := range v.mapKeyIndex {
			keys = append(keys, ks)
		}
		sort.Strings(keys)
		for _, ks := range keys {
			h.Write([]byte(ks))
			if c, ok := v.children[v.mapKeyIndex[ks]+1]; ok {
				c.writeHash(h)
			}
		}
	}
}

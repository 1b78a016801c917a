// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package data

import "go.fastdds.dev/xtypes/internal/model"

// Clone deep-copies v: the result owns its own storage and has no
// outstanding loans, independent of v (spec §3.2 "Lifecycle", §4.2
// "Clone").
func (v *Value) Clone() *Value {
	out := &Value{
		typ:      v.typ,
		scalar:   v.scalar,
		selected: v.selected,
		size:     v.size,
	}
	if v.children != nil {
		out.children = make(map[model.MemberId]*Value, len(v.children))
		for id, c := range v.children {
			cc := c.Clone()
			cc.isKeyHalf = c.isKeyHalf
			out.children[id] = cc
		}
	}
	if v.mapKeyIndex != nil {
		out.mapKeyIndex = make(map[string]model.MemberId, len(v.mapKeyIndex))
		for k, id := range v.mapKeyIndex {
			out.mapKeyIndex[k] = id
		}
		out.nextPairID = v.nextPairID
	}
	return out
}

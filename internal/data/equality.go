// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package data

import (
	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

// Equal implements the structural equality of spec §4.2 "Equality": same
// type, same selected union member (only the selected sub-value matters
// for unions), same scalar contents, same key->value map for
// structures/sequences/maps/arrays (absent array entries count as equal
// to the element default).
func Equal(a, b *Value) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if !a.typ.Equals(b.typ) {
		return false
	}

	k := a.EnclosedKind()
	switch {
	case k.IsPrimitive(), k.IsString(), k == kind.Enum:
		return a.scalar == b.scalar
	case k == kind.Bitmask, k == kind.Bitset:
		return a.scalar.(uint64) == b.scalar.(uint64)
	case k == kind.Union:
		if a.selected != b.selected {
			return false
		}
		if a.selected == model.MemberIdInvalid {
			return true
		}
		return Equal(a.children[a.selected], b.children[b.selected])
	case k == kind.Structure:
		for _, m := range a.typ.ResolveAliasEnclosed().GetAllMembersByIndex() {
			av, aok := a.children[m.Id()]
			bv, bok := b.children[m.Id()]
			if aok != bok {
				if !valueEqualsDefaultOf(aok, av, bok, bv, m.Type()) {
					return false
				}
				continue
			}
			if !aok {
				continue
			}
			if !Equal(av, bv) {
				return false
			}
		}
		return true
	case k == kind.Array:
		total := a.typ.ResolveAliasEnclosed().TotalArrayBound()
		for i := model.MemberId(0); i < model.MemberId(total); i++ {
			av, aok := a.children[i]
			bv, bok := b.children[i]
			if !aok && !bok {
				continue
			}
			if aok != bok {
				if !valueEqualsDefaultOf(aok, av, bok, bv, a.typ.ResolveAliasEnclosed().ElementType()) {
					return false
				}
				continue
			}
			if !Equal(av, bv) {
				return false
			}
		}
		return true
	case k == kind.Sequence:
		if a.size != b.size {
			return false
		}
		for i := model.MemberId(0); i < model.MemberId(a.size); i++ {
			if !Equal(a.children[i], b.children[i]) {
				return false
			}
		}
		return true
	case k == kind.Map:
		if a.size != b.size {
			return false
		}
		for ks, aKeyID := range a.mapKeyIndex {
			bKeyID, ok := b.mapKeyIndex[ks]
			if !ok {
				return false
			}
			if !Equal(a.children[aKeyID+1], b.children[bKeyID+1]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// valueEqualsDefaultOf compares a present value against an absent one by
// testing the present value against elemType's default, used for array
// slot elision and struct-member-absence comparisons.
func valueEqualsDefaultOf(aok bool, av *Value, bok bool, bv *Value, elemType *model.Type) bool {
	def, err := New(elemType)
	if err != nil {
		return false
	}
	if aok {
		return Equal(av, def)
	}
	if bok {
		return Equal(bv, def)
	}
	return true
}

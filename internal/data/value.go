// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package data implements the XTypes data model (spec §3.2, §4.2): a
// polymorphic Value holding a primitive, a field map, a sequence, a map,
// or a packed bit value, with loan semantics for mutating nested
// aggregates in place. The aggregate/collection variants hold a child
// table keyed by MemberId, following the "tagged union with a child table"
// design note in spec §9; scalar variants are boxed in a plain
// interface{}, the idiomatic Go substitute for the tagged-enum storage a
// systems language would use here.
package data

import (
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

// Value is an instance of a specific *model.Type.
type Value struct {
	typ *model.Type

	// scalar holds the native Go representation for primitive, string,
	// char, byte, enum, bitmask and bitset kinds.
	scalar interface{}

	// children holds nested Values for Structure, Union, Array, Sequence
	// and Map kinds, addressed by MemberId. Array/Sequence keys are
	// contiguous 0-based indices; Map keys/values are interleaved pairs
	// (see mapKeyIndex); Structure/Union keys are declared member ids.
	children map[model.MemberId]*Value

	// mapKeyIndex maps a Map key's canonical string form to the key
	// half's MemberId (spec §3.2's side-index requirement). The paired
	// value lives at keyId+1.
	mapKeyIndex map[string]model.MemberId
	nextPairID  model.MemberId

	// size is the logical element count of a Sequence or pair count of a
	// Map; Array size is always Type.TotalArrayBound().
	size uint32

	// selected is the active member of a Union value; MemberIdInvalid
	// means "no member selected" (spec §3.2).
	selected model.MemberId

	loaned map[model.MemberId]bool

	// isKeyHalf marks a Value that is the key half of a Map pair,
	// preventing it from being re-used or overwritten through the
	// value-set API (spec §3.2).
	isKeyHalf bool

	gen uint64

	hashGen   uint64
	hashVal   uint64
	hashValid bool
}

// Type returns the back-referenced type of this value.
func (v *Value) Type() *model.Type { return v.typ }

// EnclosedKind returns the kind reached by resolving all aliases on this
// value's type — the kind every accessor and the codec actually dispatch
// on (spec §4.1 "Alias resolution").
func (v *Value) EnclosedKind() kind.Kind {
	return v.typ.ResolveAliasEnclosed().Kind()
}

// Generation returns a monotonically increasing counter bumped by every
// mutating operation on this value (including loans and nested mutation
// through a loan), used to invalidate cached derived data such as the
// structural hash below or an external key-bytes cache.
func (v *Value) Generation() uint64 { return v.gen }

func (v *Value) touch() { v.gen++ }

// New constructs a default-initialized Value of type t (spec §3.2, §4.2
// "Lifecycle" and "Defaults").
func New(t *model.Type) (*Value, error) {
	if t == nil {
		return nil, errs.New(errs.BadParameter, "cannot create a value of a nil type")
	}
	v := &Value{typ: t}
	if err := v.initDefault(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Value) initDefault() error {
	k := v.EnclosedKind()
	switch {
	case k.IsPrimitive():
		v.scalar = zeroOf(k)
	case k.IsString():
		v.scalar = ""
	case k == kind.Enum:
		et := v.typ.ResolveAliasEnclosed()
		members := et.GetAllMembersByIndex()
		if len(members) > 0 {
			v.scalar = members[0].Labels()[0]
		} else {
			v.scalar = int64(0)
		}
	case k == kind.Bitmask, k == kind.Bitset:
		v.scalar = uint64(0)
	case k == kind.Structure, k == kind.Union:
		v.children = make(map[model.MemberId]*Value)
		v.selected = model.MemberIdInvalid
	case k == kind.Array:
		v.children = make(map[model.MemberId]*Value)
	case k == kind.Sequence:
		v.children = make(map[model.MemberId]*Value)
		v.size = 0
	case k == kind.Map:
		v.children = make(map[model.MemberId]*Value)
		v.mapKeyIndex = make(map[string]model.MemberId)
		v.size = 0
	default:
		return errs.New(errs.Unsupported, "cannot create a value of kind %v", k)
	}
	return nil
}

func zeroOf(k kind.Kind) interface{} {
	switch k {
	case kind.Bool:
		return false
	case kind.Byte, kind.Uint8:
		return uint8(0)
	case kind.Int8:
		return int8(0)
	case kind.Int16:
		return int16(0)
	case kind.Uint16:
		return uint16(0)
	case kind.Int32:
		return int32(0)
	case kind.Uint32:
		return uint32(0)
	case kind.Int64:
		return int64(0)
	case kind.Uint64:
		return uint64(0)
	case kind.Float32:
		return float32(0)
	case kind.Float64:
		return float64(0)
	case kind.Float128:
		return [16]byte{}
	case kind.Char8:
		return byte(0)
	case kind.Char16:
		return rune(0)
	default:
		return nil
	}
}

// IsKeyHalf reports whether this value is the key half of a Map pair.
func (v *Value) IsKeyHalf() bool { return v.isKeyHalf }

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package cdr

import (
	"go.fastdds.dev/xtypes/internal/data"
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

// SerializedSize returns the exact encapsulated byte length Serialize
// would produce for v, computed by actually running the encoder against
// a throwaway Writer rather than maintaining a parallel size-only walk —
// the cheapest way to guarantee the two never drift apart.
func (c *Codec) SerializedSize(v *data.Value) (uint32, error) {
	buf, err := c.Serialize(v)
	if err != nil {
		return 0, err
	}
	return uint32(len(buf)), nil
}

// EmptySerializedSize returns the encapsulated size of a freshly
// default-constructed value of the codec's type (spec §6
// "empty_serialized_size").
func (c *Codec) EmptySerializedSize() (uint32, error) {
	v, err := data.New(c.typ)
	if err != nil {
		return 0, err
	}
	return c.SerializedSize(v)
}

// MaxSerializedSize returns a worst-case encapsulated byte length for any
// value of the codec's type, or an Unsupported error if the type contains
// an unbounded string, sequence or map (spec §6 "max_serialized_size").
func (c *Codec) MaxSerializedSize() (uint32, error) {
	n, err := maxBodySize(c.typ, c.rep)
	if err != nil {
		return 0, err
	}
	return 4 + n, nil
}

// KeyMaxSerializedSize returns a worst-case byte length for the
// key-only encoding of the codec's type (spec §6
// "key_max_serialized_size"), over @key members only.
func (c *Codec) KeyMaxSerializedSize() (uint32, error) {
	n, err := maxKeyBodySize(c.typ)
	if err != nil {
		return 0, err
	}
	return 4 + n, nil
}

func maxBodySize(t *model.Type, rep Representation) (uint32, error) {
	rt := t.ResolveAliasEnclosed()
	k := rt.Kind()
	switch {
	case k.IsPrimitive():
		return uint32(k.NaturalWidth()), nil
	case k == kind.Enum:
		return 4, nil
	case k == kind.Bitmask, k == kind.Bitset:
		return uint32(rt.StorageWidthBits() / 8), nil
	case k == kind.String8:
		b := rt.StringBound()
		if b == 0 {
			return 0, errs.New(errs.Unsupported, "type %q has an unbounded string member", rt.Name())
		}
		return 4 + b + 1, nil
	case k == kind.String16:
		b := rt.StringBound()
		if b == 0 {
			return 0, errs.New(errs.Unsupported, "type %q has an unbounded wstring member", rt.Name())
		}
		return 4 + b*2, nil
	case k == kind.Array:
		elem, err := maxBodySize(rt.ElementType(), rep)
		if err != nil {
			return 0, err
		}
		return rt.TotalArrayBound() * elem, nil
	case k == kind.Sequence:
		b := rt.SequenceBound()
		if b == 0 {
			return 0, errs.New(errs.Unsupported, "type %q has an unbounded sequence", rt.Name())
		}
		elem, err := maxBodySize(rt.ElementType(), rep)
		if err != nil {
			return 0, err
		}
		return 4 + b*elem, nil
	case k == kind.Map:
		b := rt.SequenceBound()
		if b == 0 {
			return 0, errs.New(errs.Unsupported, "type %q has an unbounded map", rt.Name())
		}
		keySz, err := maxBodySize(rt.KeyElementType(), rep)
		if err != nil {
			return 0, err
		}
		valSz, err := maxBodySize(rt.ElementType(), rep)
		if err != nil {
			return 0, err
		}
		return 4 + b*(keySz+valSz), nil
	case k == kind.Structure:
		return maxAggregateMemberSum(rt, rep, false)
	case k == kind.Union:
		discSz, err := maxBodySize(rt.DiscriminatorType(), rep)
		if err != nil {
			return 0, err
		}
		var maxMember uint32
		for _, m := range rt.GetAllMembersByIndex() {
			sz, err := maxBodySize(m.Type(), rep)
			if err != nil {
				return 0, err
			}
			if rt.Extensibility() == model.Mutable {
				sz += plMemberHeaderSize
			}
			if sz > maxMember {
				maxMember = sz
			}
		}
		return discSz + maxMember, nil
	default:
		return 0, errs.New(errs.Unsupported, "cannot size a %v type", k)
	}
}

func maxAggregateMemberSum(t *model.Type, rep Representation, keyOnly bool) (uint32, error) {
	var total uint32
	mutable := t.Extensibility() == model.Mutable
	members := t.GetAllMembersByIndex()

	anyKey := false
	if keyOnly {
		for _, m := range members {
			if m.IsKey() {
				anyKey = true
				break
			}
		}
	}

	for _, m := range members {
		if m.IsNonSerialized() {
			continue
		}
		// OMG default key rule: with no explicit @key member, every
		// member is key-serialized (spec §4.3), mirroring encodeKeyBody.
		if keyOnly && anyKey && !m.IsKey() {
			continue
		}
		sz, err := maxBodySize(m.Type(), rep)
		if err != nil {
			return 0, err
		}
		if mutable {
			sz += plMemberHeaderSize
		}
		total += sz
	}
	if t.Extensibility() == model.Appendable && rep == XCDRv2 {
		total += 4
	}
	if mutable {
		total += plMemberHeaderSize // sentinel
	}
	return total, nil
}

func maxKeyBodySize(t *model.Type) (uint32, error) {
	rt := t.ResolveAliasEnclosed()
	if rt.Kind() != kind.Structure {
		return maxBodySize(rt, XCDRv2)
	}
	return maxAggregateMemberSum(rt, XCDRv2, true)
}

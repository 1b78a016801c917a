// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package model

import (
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/kind"
)

// TypeBuilder stages a TypeDescriptor and a sequence of MemberDescriptors
// until Build seals them into a finalized Type. Grounded on the teacher's
// two-pass struct/union field classification in
// internal/coder/codec_struct.go, generalized from Go struct reflection
// to declared members.
type TypeBuilder struct {
	desc    TypeDescriptor
	members []MemberDescriptor
	err     error
}

// NewTypeBuilder begins staging a type from desc. desc.Bounds and the
// referenced element/key/discriminator/base types must already be valid
// (sub-types are always fully built before their containers, per the
// design note in spec §9: "types are built bottom-up and sealed").
func NewTypeBuilder(desc TypeDescriptor) *TypeBuilder {
	b := &TypeBuilder{desc: desc}
	if !ValidName(desc.Name) && desc.Name != "" {
		b.err = errs.New(errs.BadParameter, "invalid type name %q", desc.Name)
	}
	if !desc.Extensibility.valid() {
		b.err = errs.New(errs.BadParameter, "invalid extensibility %v", desc.Extensibility)
	}
	return b
}

func (b *TypeBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// inheritedMembers walks the base-type chain (Structure/Bitset single
// inheritance) collecting members in base-to-derived order.
func inheritedMembers(base *Type) []*Member {
	if base == nil {
		return nil
	}
	return base.membersByIndex
}

// AddMember stages a member descriptor, validating id/name uniqueness
// against both previously staged members and (for Structure/Bitset)
// inherited base-type members — the id namespace continues across
// inheritance per the supplemented feature in SPEC_FULL.md §12.3.
func (b *TypeBuilder) AddMember(md MemberDescriptor) error {
	if b.err != nil {
		return b.err
	}

	if md.Name != "" && !ValidName(md.Name) {
		err := errs.New(errs.BadParameter, "invalid member name %q", md.Name)
		b.fail(err)
		return err
	}

	if md.IsKey && md.IsNonSerialized {
		err := errs.New(errs.BadParameter, "member %q cannot be both @key and @non_serialized", md.Name)
		b.fail(err)
		return err
	}

	for _, base := range inheritedMembers(b.desc.BaseType) {
		if base.id == md.Id {
			err := errs.New(errs.BadParameter, "member id %d collides with inherited member %q", md.Id, base.name)
			b.fail(err)
			return err
		}
		if md.Name != "" && base.name == md.Name {
			err := errs.New(errs.BadParameter, "member name %q collides with inherited member", md.Name)
			b.fail(err)
			return err
		}
	}

	for _, existing := range b.members {
		if existing.Id == md.Id {
			err := errs.New(errs.BadParameter, "duplicate member id %d", md.Id)
			b.fail(err)
			return err
		}
		if md.Name != "" && existing.Name == md.Name {
			err := errs.New(errs.BadParameter, "duplicate member name %q", md.Name)
			b.fail(err)
			return err
		}
	}

	if b.desc.Kind == kind.Union {
		for _, existing := range b.members {
			if md.IsDefaultLabel && existing.IsDefaultLabel {
				err := errs.New(errs.BadParameter, "union %q has more than one default case", b.desc.Name)
				b.fail(err)
				return err
			}
			for _, l := range md.Labels {
				if existing.hasLabelInt(l) {
					err := errs.New(errs.BadParameter, "union %q label %d duplicated", b.desc.Name, l)
					b.fail(err)
					return err
				}
			}
		}
	}

	b.members = append(b.members, md)
	return nil
}

func (md *MemberDescriptor) hasLabelInt(v int64) bool {
	for _, l := range md.Labels {
		if l == v {
			return true
		}
	}
	return false
}

// Build validates the staged descriptor as a whole and seals it into an
// immutable Type.
func (b *TypeBuilder) Build() (*Type, error) {
	if b.err != nil {
		return nil, b.err
	}

	switch b.desc.Kind {
	case kind.Alias:
		if b.desc.BaseType == nil {
			return nil, errs.New(errs.BadParameter, "alias %q missing base type", b.desc.Name)
		}
	case kind.Union:
		if b.desc.DiscriminatorType == nil || !b.desc.DiscriminatorType.ResolveAliasEnclosed().Kind().IsDiscrete() {
			return nil, errs.New(errs.BadParameter, "union %q discriminator type is not discrete", b.desc.Name)
		}
		for _, md := range b.members {
			for _, l := range md.Labels {
				if !discriminatorHolds(b.desc.DiscriminatorType, l) {
					return nil, errs.New(errs.BadParameter, "union %q label %d not representable in discriminator type", b.desc.Name, l)
				}
			}
		}
	case kind.Array:
		if len(b.desc.Bounds) < 1 {
			return nil, errs.New(errs.BadParameter, "array %q has rank 0", b.desc.Name)
		}
		for _, d := range b.desc.Bounds {
			if d < 1 {
				return nil, errs.New(errs.BadParameter, "array %q has a zero dimension", b.desc.Name)
			}
		}
		if b.desc.ElementType == nil {
			return nil, errs.New(errs.BadParameter, "array %q missing element type", b.desc.Name)
		}
	case kind.Sequence:
		if b.desc.ElementType == nil {
			return nil, errs.New(errs.BadParameter, "sequence %q missing element type", b.desc.Name)
		}
	case kind.Map:
		if b.desc.ElementType == nil || b.desc.KeyElementType == nil {
			return nil, errs.New(errs.BadParameter, "map %q missing element or key type", b.desc.Name)
		}
		if !b.desc.KeyElementType.ResolveAliasEnclosed().Kind().IsHashable() {
			return nil, errs.New(errs.BadParameter, "map %q key type is not hashable", b.desc.Name)
		}
	case kind.Bitmask:
		if b.desc.ElementType == nil || b.desc.ElementType.ResolveAliasEnclosed().Kind() != kind.Bool {
			return nil, errs.New(errs.BadParameter, "bitmask %q element type must be Bool", b.desc.Name)
		}
		if len(b.desc.Bounds) != 1 || b.desc.Bounds[0] == 0 || b.desc.Bounds[0] > 64 {
			return nil, errs.New(errs.BadParameter, "bitmask %q has invalid bit bound", b.desc.Name)
		}
		for _, md := range b.members {
			if len(md.Labels) != 1 {
				return nil, errs.New(errs.BadParameter, "bitmask flag %q must have exactly one bit position", md.Name)
			}
			if md.Labels[0] < 0 || md.Labels[0] >= int64(b.desc.Bounds[0]) {
				return nil, errs.New(errs.BadParameter, "bitmask flag %q position %d exceeds bound %d", md.Name, md.Labels[0], b.desc.Bounds[0])
			}
		}
	case kind.Bitset:
		total := 0
		for _, md := range b.members {
			total += int(md.BitBound)
		}
		for _, base := range inheritedMembers(b.desc.BaseType) {
			total += int(base.bitBound)
		}
		if total > 64 {
			return nil, errs.New(errs.BadParameter, "bitset %q total width %d exceeds 64 bits", b.desc.Name, total)
		}
	}

	members := make([]*Member, 0, len(inheritedMembers(b.desc.BaseType))+len(b.members))
	for _, m := range inheritedMembers(b.desc.BaseType) {
		members = append(members, m)
	}
	for _, md := range b.members {
		members = append(members, &Member{
			id:               md.Id,
			name:             md.Name,
			typ:              md.Type,
			defaultValue:     md.DefaultValue,
			isKey:            md.IsKey,
			isOptional:       md.IsOptional,
			isMustUnderstand: md.IsMustUnderstand,
			isNonSerialized:  md.IsNonSerialized,
			labels:           append([]int64(nil), md.Labels...),
			isDefaultLabel:   md.IsDefaultLabel,
			bitBound:         md.BitBound,
		})
	}

	byId := make(map[MemberId]*Member, len(members))
	byName := make(map[string]*Member, len(members))
	for _, m := range members {
		byId[m.id] = m
		if m.name != "" {
			byName[m.name] = m
		}
	}

	t := &Type{
		kind:              b.desc.Kind,
		name:              b.desc.Name,
		baseType:          b.desc.BaseType,
		discriminatorType: b.desc.DiscriminatorType,
		elementType:       b.desc.ElementType,
		keyElementType:    b.desc.KeyElementType,
		bounds:            append([]uint32(nil), b.desc.Bounds...),
		extensibility:     b.desc.Extensibility,
		isNested:          b.desc.IsNested,
		annotations:       append([]AnnotationDescriptor(nil), b.desc.Annotations...),
		membersByIndex:    members,
		membersById:       byId,
		membersByName:     byName,
	}

	if b.desc.Kind == kind.Enum || b.desc.Kind == kind.Bitmask {
		t.labelsByDiscriminator = make(map[int64]*Member)
		for _, m := range members {
			for _, l := range m.labels {
				t.labelsByDiscriminator[l] = m
			}
		}
	}

	if b.desc.Kind == kind.Union {
		t.labelsByDiscriminator = make(map[int64]*Member)
		used := make(map[int64]bool)
		for _, m := range members {
			if m.isDefaultLabel {
				t.defaultMember = m
			}
			for _, l := range m.labels {
				t.labelsByDiscriminator[l] = m
				used[l] = true
			}
		}
		var candidate int64
		for used[candidate] {
			candidate++
		}
		t.implicitDefaultValue = candidate
	}

	switch b.desc.Kind {
	case kind.Bitmask:
		bound := b.desc.Bounds[0]
		switch {
		case bound <= 8:
			t.storageWidthBits = 8
		case bound <= 16:
			t.storageWidthBits = 16
		case bound <= 32:
			t.storageWidthBits = 32
		default:
			t.storageWidthBits = 64
		}
	case kind.Bitset:
		total := 0
		for _, m := range members {
			total += int(m.bitBound)
		}
		switch {
		case total <= 8:
			t.storageWidthBits = 8
		case total <= 16:
			t.storageWidthBits = 16
		case total <= 32:
			t.storageWidthBits = 32
		default:
			t.storageWidthBits = 64
		}
	}

	return t, nil
}

func discriminatorHolds(discType *Type, v int64) bool {
	k := discType.ResolveAliasEnclosed().Kind()
	switch k {
	case kind.Bool:
		return v == 0 || v == 1
	case kind.Int8:
		return v >= -128 && v <= 127
	case kind.Uint8, kind.Char8:
		return v >= 0 && v <= 255
	case kind.Int16:
		return v >= -32768 && v <= 32767
	case kind.Uint16, kind.Char16:
		return v >= 0 && v <= 65535
	case kind.Int32, kind.Enum:
		return v >= -2147483648 && v <= 2147483647
	case kind.Uint32, kind.Bitmask:
		return v >= 0 && v <= 4294967295
	default:
		return true
	}
}

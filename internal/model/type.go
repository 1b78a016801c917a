// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package model

import (
	"sync"

	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/kind"
)

// Member is a finalized, immutable field of a Structure, Union, Enum,
// Bitmask or Bitset.
type Member struct {
	id               MemberId
	name             string
	typ              *Type
	defaultValue     string
	isKey            bool
	isOptional       bool
	isMustUnderstand bool
	isNonSerialized  bool
	labels           []int64
	isDefaultLabel   bool
	bitBound         uint16
}

func (m *Member) Id() MemberId            { return m.id }
func (m *Member) Name() string            { return m.name }
func (m *Member) Type() *Type             { return m.typ }
func (m *Member) DefaultValue() string    { return m.defaultValue }
func (m *Member) IsKey() bool             { return m.isKey }
func (m *Member) IsOptional() bool        { return m.isOptional }
func (m *Member) IsMustUnderstand() bool  { return m.isMustUnderstand }
func (m *Member) IsNonSerialized() bool   { return m.isNonSerialized }
func (m *Member) Labels() []int64         { return m.labels }
func (m *Member) IsDefaultLabel() bool    { return m.isDefaultLabel }
func (m *Member) BitBound() uint16        { return m.bitBound }

func (m *Member) hasLabel(v int64) bool {
	for _, l := range m.labels {
		if l == v {
			return true
		}
	}
	return false
}

// Type is a finalized, immutable, shared type descriptor (spec §3.1).
// Once returned from TypeBuilder.Build it is never mutated; it may be
// referenced from many Values and from the process-wide registry.
type Type struct {
	kind              kind.Kind
	name              string
	baseType          *Type
	discriminatorType *Type
	elementType       *Type
	keyElementType    *Type
	bounds            []uint32
	extensibility     Extensibility
	isNested          bool
	annotations       []AnnotationDescriptor

	membersByIndex []*Member
	membersById    map[MemberId]*Member
	membersByName  map[string]*Member

	// labelsByDiscriminator caches union dispatch (spec §9: "cache a
	// labels_by_discriminator map at type-build time for O(log n)
	// dispatch"), and maps an Enum literal value or a Bitmask flag
	// position to its member.
	labelsByDiscriminator map[int64]*Member
	defaultMember         *Member
	implicitDefaultValue  int64

	storageWidthBits int

	hashOnce sync.Once
	hash     uint64
}

func (t *Type) Kind() kind.Kind                  { return t.kind }
func (t *Type) Name() string                     { return t.name }
func (t *Type) BaseType() *Type                  { return t.baseType }
func (t *Type) DiscriminatorType() *Type         { return t.discriminatorType }
func (t *Type) ElementType() *Type               { return t.elementType }
func (t *Type) KeyElementType() *Type            { return t.keyElementType }
func (t *Type) Bounds() []uint32                 { return t.bounds }
func (t *Type) Extensibility() Extensibility     { return t.extensibility }
func (t *Type) IsNested() bool                   { return t.isNested }
func (t *Type) Annotations() []AnnotationDescriptor { return t.annotations }

// GetAnnotation returns the annotation at index, or a BadParameter error
// if out of range (spec §4.1).
func (t *Type) GetAnnotation(index int) (AnnotationDescriptor, error) {
	if index < 0 || index >= len(t.annotations) {
		return AnnotationDescriptor{}, errs.New(errs.BadParameter, "annotation index %d out of range", index)
	}
	return t.annotations[index], nil
}

// HasAnnotation reports whether an annotation of the given name is
// present, e.g. "key", "non_serialized", "bit_bound", "default", "nested".
func (t *Type) HasAnnotation(name string) (AnnotationDescriptor, bool) {
	return annotationNamed(t.annotations, name)
}

// GetMemberById returns the member with the given id, or a BadParameter
// error if none exists (spec §4.1).
func (t *Type) GetMemberById(id MemberId) (*Member, error) {
	if m, ok := t.membersById[id]; ok {
		return m, nil
	}
	return nil, errs.New(errs.BadParameter, "no member with id %d in type %q", id, t.name)
}

// GetMemberByName returns the member with the given name, or a
// BadParameter error if none exists (spec §4.1).
func (t *Type) GetMemberByName(name string) (*Member, error) {
	if m, ok := t.membersByName[name]; ok {
		return m, nil
	}
	return nil, errs.New(errs.BadParameter, "no member named %q in type %q", name, t.name)
}

// GetAllMembersById returns a snapshot map of id -> member.
func (t *Type) GetAllMembersById() map[MemberId]*Member {
	out := make(map[MemberId]*Member, len(t.membersById))
	for k, v := range t.membersById {
		out[k] = v
	}
	return out
}

// GetAllMembersByIndex returns members in declaration order, inherited
// base members first (spec §3.1, §4.1).
func (t *Type) GetAllMembersByIndex() []*Member {
	out := make([]*Member, len(t.membersByIndex))
	copy(out, t.membersByIndex)
	return out
}

// ResolveAliasEnclosed strips a chain of Alias types and returns the
// first non-Alias type reached (spec §4.1). Returns t itself if t is not
// an Alias. Alias chains are guaranteed acyclic by the builder.
func (t *Type) ResolveAliasEnclosed() *Type {
	cur := t
	for cur.kind == kind.Alias {
		cur = cur.baseType
	}
	return cur
}

// TotalArrayBound returns the product of an Array type's dimension
// bounds (spec §3.1: "Total element count is the product of bounds").
func (t *Type) TotalArrayBound() uint32 {
	total := uint32(1)
	for _, b := range t.bounds {
		total *= b
	}
	return total
}

// SequenceBound returns the declared maximum cardinality of a Sequence,
// Map or Bitmask type, or 0 for unbounded.
func (t *Type) SequenceBound() uint32 {
	if len(t.bounds) == 0 {
		return 0
	}
	return t.bounds[0]
}

// StringBound returns the declared maximum length of a String8/String16
// type, or 0 for unbounded.
func (t *Type) StringBound() uint32 {
	return t.SequenceBound()
}

// StorageWidthBits returns the selected storage width (8/16/32/64) of a
// Bitmask (from its bound) or of a Bitset (from the total width of its
// fields, inherited ones included) (spec §3.1).
func (t *Type) StorageWidthBits() int {
	return t.storageWidthBits
}

// MemberByLabel resolves a union discriminator value to its member,
// implicit default member, or nil if unselected (spec §4.2 "Union
// coherence"). For an Enum it resolves a literal value, and for a Bitmask
// a flag's bit position, to the declaring member.
func (t *Type) MemberByLabel(v int64) (*Member, bool) {
	if m, ok := t.labelsByDiscriminator[v]; ok {
		return m, true
	}
	if t.defaultMember != nil {
		return t.defaultMember, true
	}
	return nil, false
}

// DefaultMember returns the union's implicit default member, if any.
func (t *Type) DefaultMember() *Member {
	return t.defaultMember
}

// ImplicitDefaultDiscriminatorValue returns the value to encode for a
// Union's discriminator when selectedMember is MemberIdInvalid and no
// member is the implicit default: the first integer >= 0 not appearing
// in any label (spec §9, Open Question, resolved).
func (t *Type) ImplicitDefaultDiscriminatorValue() int64 {
	return t.implicitDefaultValue
}

// Equals is structural equality over the declared shape: same kind, same
// name, same bounds, same members (recursively). Used for codec
// round-trip assertions and for alias-transparent comparisons (spec
// §4.1, §9).
func (t *Type) Equals(other *Type) bool {
	if t == other {
		return true
	}
	if other == nil {
		return false
	}
	a, b := t.ResolveAliasEnclosed(), other.ResolveAliasEnclosed()
	if a == b {
		return true
	}
	if a.kind != b.kind {
		return false
	}
	if a.contentHash() != b.contentHash() {
		return false
	}
	return a.equalsSlow(b, make(map[[2]*Type]bool))
}

func (t *Type) equalsSlow(o *Type, seen map[[2]*Type]bool) bool {
	key := [2]*Type{t, o}
	if seen[key] {
		return true
	}
	seen[key] = true

	if t.name != o.name {
		return false
	}
	if len(t.bounds) != len(o.bounds) {
		return false
	}
	for i := range t.bounds {
		if t.bounds[i] != o.bounds[i] {
			return false
		}
	}
	if !typeEqualsOrNil(t.elementType, o.elementType, seen) ||
		!typeEqualsOrNil(t.keyElementType, o.keyElementType, seen) ||
		!typeEqualsOrNil(t.discriminatorType, o.discriminatorType, seen) ||
		!typeEqualsOrNil(t.baseType, o.baseType, seen) {
		return false
	}
	if len(t.membersByIndex) != len(o.membersByIndex) {
		return false
	}
	for i, m := range t.membersByIndex {
		om := o.membersByIndex[i]
		if m.id != om.id || m.name != om.name || m.isKey != om.isKey {
			return false
		}
		if !typeEqualsOrNil(m.typ, om.typ, seen) {
			return false
		}
	}
	return true
}

func typeEqualsOrNil(a, b *Type, seen map[[2]*Type]bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	ea, eb := a.ResolveAliasEnclosed(), b.ResolveAliasEnclosed()
	if ea == eb {
		return true
	}
	if ea.kind != eb.kind {
		return false
	}
	return ea.equalsSlow(eb, seen)
}

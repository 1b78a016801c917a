// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.fastdds.dev/xtypes/internal/kind"
)

func primitiveType(t *testing.T, k kind.Kind) *Type {
	t.Helper()
	typ, err := NewTypeBuilder(TypeDescriptor{Kind: k}).Build()
	require.NoError(t, err)
	return typ
}

func TestBuildSimpleStruct(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	b := NewTypeBuilder(TypeDescriptor{Kind: kind.Structure, Name: "Point"})
	require.NoError(t, b.AddMember(MemberDescriptor{Id: 0, Name: "x", Type: i32}))
	require.NoError(t, b.AddMember(MemberDescriptor{Id: 1, Name: "y", Type: i32}))
	typ, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, kind.Structure, typ.Kind())
	assert.Len(t, typ.GetAllMembersByIndex(), 2)
	m, err := typ.GetMemberById(1)
	require.NoError(t, err)
	assert.Equal(t, "y", m.Name())
}

func TestAddMemberRejectsDuplicateIdAndName(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	b := NewTypeBuilder(TypeDescriptor{Kind: kind.Structure, Name: "Dup"})
	require.NoError(t, b.AddMember(MemberDescriptor{Id: 0, Name: "a", Type: i32}))

	err := b.AddMember(MemberDescriptor{Id: 0, Name: "b", Type: i32})
	assert.Error(t, err)

	b2 := NewTypeBuilder(TypeDescriptor{Kind: kind.Structure, Name: "Dup2"})
	require.NoError(t, b2.AddMember(MemberDescriptor{Id: 0, Name: "a", Type: i32}))
	err = b2.AddMember(MemberDescriptor{Id: 1, Name: "a", Type: i32})
	assert.Error(t, err)
}

func TestBuildInheritedMembersRejectCollision(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	baseB := NewTypeBuilder(TypeDescriptor{Kind: kind.Structure, Name: "Base"})
	require.NoError(t, baseB.AddMember(MemberDescriptor{Id: 0, Name: "a", Type: i32}))
	base, err := baseB.Build()
	require.NoError(t, err)

	idClash := NewTypeBuilder(TypeDescriptor{Kind: kind.Structure, Name: "Derived", BaseType: base})
	err = idClash.AddMember(MemberDescriptor{Id: 0, Name: "b", Type: i32})
	assert.Error(t, err)

	nameClash := NewTypeBuilder(TypeDescriptor{Kind: kind.Structure, Name: "Derived", BaseType: base})
	err = nameClash.AddMember(MemberDescriptor{Id: 1, Name: "a", Type: i32})
	assert.Error(t, err)

	derived := NewTypeBuilder(TypeDescriptor{Kind: kind.Structure, Name: "Derived", BaseType: base})
	require.NoError(t, derived.AddMember(MemberDescriptor{Id: 1, Name: "c", Type: i32}))
	typ, err := derived.Build()
	require.NoError(t, err)
	assert.Len(t, typ.GetAllMembersByIndex(), 2)
}

func TestBuildUnionRequiresDiscreteDiscriminator(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	f64 := primitiveType(t, kind.Float64)
	b := NewTypeBuilder(TypeDescriptor{Kind: kind.Union, Name: "Bad", DiscriminatorType: f64})
	_ = b.AddMember(MemberDescriptor{Id: 0, Name: "a", Type: i32, Labels: []int64{0}})
	_, err := b.Build()
	assert.Error(t, err)
}

func TestBuildUnionRejectsLabelOutsideDiscriminatorRange(t *testing.T) {
	i8 := primitiveType(t, kind.Int8)
	i32 := primitiveType(t, kind.Int32)
	b := NewTypeBuilder(TypeDescriptor{Kind: kind.Union, Name: "Narrow", DiscriminatorType: i8})
	_ = b.AddMember(MemberDescriptor{Id: 0, Name: "a", Type: i32, Labels: []int64{1000}})
	_, err := b.Build()
	assert.Error(t, err)
}

func TestBuildUnionRejectsDuplicateLabelsAndMultipleDefaults(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	b := NewTypeBuilder(TypeDescriptor{Kind: kind.Union, Name: "U", DiscriminatorType: i32})
	require.NoError(t, b.AddMember(MemberDescriptor{Id: 0, Name: "a", Type: i32, Labels: []int64{1}}))
	err := b.AddMember(MemberDescriptor{Id: 1, Name: "b", Type: i32, Labels: []int64{1}})
	assert.Error(t, err)

	b2 := NewTypeBuilder(TypeDescriptor{Kind: kind.Union, Name: "U2", DiscriminatorType: i32})
	require.NoError(t, b2.AddMember(MemberDescriptor{Id: 0, Name: "a", Type: i32, IsDefaultLabel: true}))
	err = b2.AddMember(MemberDescriptor{Id: 1, Name: "b", Type: i32, IsDefaultLabel: true})
	assert.Error(t, err)
}

func TestImplicitDefaultDiscriminatorValue(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	b := NewTypeBuilder(TypeDescriptor{Kind: kind.Union, Name: "U", DiscriminatorType: i32})
	require.NoError(t, b.AddMember(MemberDescriptor{Id: 0, Name: "a", Type: i32, Labels: []int64{0, 1}}))
	require.NoError(t, b.AddMember(MemberDescriptor{Id: 1, Name: "b", Type: i32, Labels: []int64{2}}))
	typ, err := b.Build()
	require.NoError(t, err)
	assert.EqualValues(t, 3, typ.ImplicitDefaultDiscriminatorValue())
}

func TestImplicitDefaultDiscriminatorValueSkipsGaps(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	b := NewTypeBuilder(TypeDescriptor{Kind: kind.Union, Name: "U", DiscriminatorType: i32})
	require.NoError(t, b.AddMember(MemberDescriptor{Id: 0, Name: "a", Type: i32, Labels: []int64{0}}))
	require.NoError(t, b.AddMember(MemberDescriptor{Id: 1, Name: "b", Type: i32, Labels: []int64{2}}))
	typ, err := b.Build()
	require.NoError(t, err)
	assert.EqualValues(t, 1, typ.ImplicitDefaultDiscriminatorValue())
}

func TestBuildArrayValidation(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)

	_, err := NewTypeBuilder(TypeDescriptor{Kind: kind.Array, ElementType: i32}).Build()
	assert.Error(t, err, "rank 0 should be rejected")

	_, err = NewTypeBuilder(TypeDescriptor{Kind: kind.Array, ElementType: i32, Bounds: []uint32{0}}).Build()
	assert.Error(t, err, "zero dimension should be rejected")

	_, err = NewTypeBuilder(TypeDescriptor{Kind: kind.Array, Bounds: []uint32{4}}).Build()
	assert.Error(t, err, "missing element type should be rejected")

	typ, err := NewTypeBuilder(TypeDescriptor{Kind: kind.Array, ElementType: i32, Bounds: []uint32{3, 4}}).Build()
	require.NoError(t, err)
	assert.EqualValues(t, 12, typ.TotalArrayBound())
}

func TestBuildMapRequiresHashableKey(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	structKey := primitiveType(t, kind.Structure)

	_, err := NewTypeBuilder(TypeDescriptor{Kind: kind.Map, ElementType: i32, KeyElementType: structKey}).Build()
	assert.Error(t, err)

	typ, err := NewTypeBuilder(TypeDescriptor{Kind: kind.Map, ElementType: i32, KeyElementType: i32}).Build()
	require.NoError(t, err)
	assert.Equal(t, kind.Map, typ.Kind())
}

func TestBuildBitmaskValidation(t *testing.T) {
	boolType := primitiveType(t, kind.Bool)
	i32 := primitiveType(t, kind.Int32)

	_, err := NewTypeBuilder(TypeDescriptor{Kind: kind.Bitmask, ElementType: i32, Bounds: []uint32{8}}).Build()
	assert.Error(t, err, "element type must be Bool")

	_, err = NewTypeBuilder(TypeDescriptor{Kind: kind.Bitmask, ElementType: boolType, Bounds: []uint32{65}}).Build()
	assert.Error(t, err, "bound must be <= 64")

	b := NewTypeBuilder(TypeDescriptor{Kind: kind.Bitmask, ElementType: boolType, Bounds: []uint32{8}})
	_ = b.AddMember(MemberDescriptor{Id: 0, Name: "FLAG", Labels: []int64{9}})
	_, err = b.Build()
	assert.Error(t, err)
}

func TestBitmaskStorageWidthSelection(t *testing.T) {
	boolType := primitiveType(t, kind.Bool)
	cases := []struct {
		bound uint32
		want  int
	}{
		{5, 8}, {8, 8}, {9, 16}, {16, 16}, {17, 32}, {32, 32}, {33, 64}, {64, 64},
	}
	for _, tc := range cases {
		typ, err := NewTypeBuilder(TypeDescriptor{Kind: kind.Bitmask, ElementType: boolType, Bounds: []uint32{tc.bound}}).Build()
		require.NoError(t, err)
		assert.Equal(t, tc.want, typ.StorageWidthBits(), "bound %d", tc.bound)
	}
}

func TestBuildBitsetRejectsOverWidth(t *testing.T) {
	b := NewTypeBuilder(TypeDescriptor{Kind: kind.Bitset, Name: "Wide"})
	require.NoError(t, b.AddMember(MemberDescriptor{Id: 0, Name: "a", BitBound: 40}))
	require.NoError(t, b.AddMember(MemberDescriptor{Id: 1, Name: "b", BitBound: 30}))
	_, err := b.Build()
	assert.Error(t, err)
}

func TestBuildBitsetInheritanceCountsTowardWidth(t *testing.T) {
	baseB := NewTypeBuilder(TypeDescriptor{Kind: kind.Bitset, Name: "Base"})
	require.NoError(t, baseB.AddMember(MemberDescriptor{Id: 0, Name: "a", BitBound: 40}))
	base, err := baseB.Build()
	require.NoError(t, err)

	derived := NewTypeBuilder(TypeDescriptor{Kind: kind.Bitset, Name: "Derived", BaseType: base})
	require.NoError(t, derived.AddMember(MemberDescriptor{Id: 1, Name: "b", BitBound: 30}))
	_, err = derived.Build()
	assert.Error(t, err)
}

func TestBuildAliasRequiresBaseType(t *testing.T) {
	_, err := NewTypeBuilder(TypeDescriptor{Kind: kind.Alias, Name: "MyInt"}).Build()
	assert.Error(t, err)

	i32 := primitiveType(t, kind.Int32)
	typ, err := NewTypeBuilder(TypeDescriptor{Kind: kind.Alias, Name: "MyInt", BaseType: i32}).Build()
	require.NoError(t, err)
	assert.Equal(t, kind.Int32, typ.ResolveAliasEnclosed().Kind())
}

func TestInvalidNameRejected(t *testing.T) {
	b := NewTypeBuilder(TypeDescriptor{Kind: kind.Structure, Name: "1BadName"})
	err := b.AddMember(MemberDescriptor{Id: 0, Name: "x", Type: primitiveType(t, kind.Int32)})
	assert.Error(t, err)
}

func TestInvalidExtensibilityRejected(t *testing.T) {
	b := NewTypeBuilder(TypeDescriptor{Kind: kind.Structure, Name: "Bad", Extensibility: Extensibility(99)})
	_, err := b.Build()
	assert.Error(t, err)
}

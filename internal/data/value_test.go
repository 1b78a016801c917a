// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

func primitiveType(t *testing.T, k kind.Kind) *model.Type {
	t.Helper()
	typ, err := model.NewTypeBuilder(model.TypeDescriptor{Kind: k}).Build()
	require.NoError(t, err)
	return typ
}

func structType(t *testing.T, name string, members ...model.MemberDescriptor) *model.Type {
	t.Helper()
	b := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Structure, Name: name})
	for _, m := range members {
		require.NoError(t, b.AddMember(m))
	}
	typ, err := b.Build()
	require.NoError(t, err)
	return typ
}

func TestNewDefaultsPrimitive(t *testing.T) {
	v, err := New(primitiveType(t, kind.Int32))
	require.NoError(t, err)
	x, err := v.GetInt32(model.MemberIdInvalid)
	require.NoError(t, err)
	assert.Zero(t, x)
}

func TestNewRejectsNilType(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestSetComplexValueReplacesOccupiedSlot(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	at, err := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Array, ElementType: i32, Bounds: []uint32{2}}).Build()
	require.NoError(t, err)

	v, err := New(at)
	require.NoError(t, err)

	first, err := New(i32)
	require.NoError(t, err)
	require.NoError(t, first.SetInt32(model.MemberIdInvalid, 1))
	require.NoError(t, v.SetComplexValue(0, first))

	second, err := New(i32)
	require.NoError(t, err)
	require.NoError(t, second.SetInt32(model.MemberIdInvalid, 2))
	require.NoError(t, v.SetComplexValue(0, second))

	got, err := v.GetInt32(0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)

	// Replacement is a deep copy: mutating the source afterward must not
	// affect the stored value.
	require.NoError(t, second.SetInt32(model.MemberIdInvalid, 99))
	got, err = v.GetInt32(0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)
}

func TestSetComplexValueRefusesLoanedSlot(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	at, err := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Array, ElementType: i32, Bounds: []uint32{2}}).Build()
	require.NoError(t, err)

	v, err := New(at)
	require.NoError(t, err)
	_, err = v.LoanMember(0)
	require.NoError(t, err)

	replacement, err := New(i32)
	require.NoError(t, err)
	err = v.SetComplexValue(0, replacement)
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	pt := structType(t, "Point",
		model.MemberDescriptor{Id: 0, Name: "x", Type: primitiveType(t, kind.Int32)},
	)
	v, err := New(pt)
	require.NoError(t, err)
	require.NoError(t, v.SetInt32(0, 7))

	clone := v.Clone()
	require.NoError(t, clone.SetInt32(0, 9))

	orig, err := v.GetInt32(0)
	require.NoError(t, err)
	assert.EqualValues(t, 7, orig)

	cv, err := clone.GetInt32(0)
	require.NoError(t, err)
	assert.EqualValues(t, 9, cv)
}

func TestEqualTreatsAbsentArraySlotAsDefault(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	at, err := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Array, ElementType: i32, Bounds: []uint32{3}}).Build()
	require.NoError(t, err)

	a, err := New(at)
	require.NoError(t, err)

	b, err := New(at)
	require.NoError(t, err)
	zero, err := New(i32)
	require.NoError(t, err)
	require.NoError(t, b.SetComplexValue(0, zero))

	assert.True(t, Equal(a, b))
}

func TestSequenceAppendRefusesPastBound(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	st, err := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Sequence, ElementType: i32, Bounds: []uint32{1}}).Build()
	require.NoError(t, err)

	v, err := New(st)
	require.NoError(t, err)

	elem, err := New(i32)
	require.NoError(t, err)
	require.NoError(t, v.SequenceAppend(elem))

	err = v.SequenceAppend(elem)
	assert.Error(t, err)
}

func TestMapPutGetDelete(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	str := primitiveType(t, kind.String8)
	mt, err := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Map, ElementType: str, KeyElementType: i32}).Build()
	require.NoError(t, err)

	v, err := New(mt)
	require.NoError(t, err)

	key, err := New(i32)
	require.NoError(t, err)
	require.NoError(t, key.SetInt32(model.MemberIdInvalid, 42))

	val, err := New(str)
	require.NoError(t, err)
	require.NoError(t, val.SetString8(model.MemberIdInvalid, "hello"))

	require.NoError(t, v.MapPut(key, val))

	size, err := v.MapSize()
	require.NoError(t, err)
	assert.EqualValues(t, 1, size)

	got, ok, err := v.MapGet(key)
	require.NoError(t, err)
	require.True(t, ok)
	s, err := got.GetString8(model.MemberIdInvalid)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	// Re-putting the same key replaces rather than duplicating.
	val2, err := New(str)
	require.NoError(t, err)
	require.NoError(t, val2.SetString8(model.MemberIdInvalid, "world"))
	require.NoError(t, v.MapPut(key, val2))
	size, err = v.MapSize()
	require.NoError(t, err)
	assert.EqualValues(t, 1, size)

	deleted, err := v.MapDelete(key)
	require.NoError(t, err)
	assert.True(t, deleted)
	size, err = v.MapSize()
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)
}

func TestLoanProtocol(t *testing.T) {
	pt := structType(t, "Point",
		model.MemberDescriptor{Id: 0, Name: "x", Type: primitiveType(t, kind.Int32)},
	)
	v, err := New(pt)
	require.NoError(t, err)

	_, err = v.LoanMember(0)
	require.NoError(t, err)
	assert.True(t, v.IsLoaned(0))

	_, err = v.LoanMember(0)
	assert.Error(t, err, "double loan must fail")

	require.NoError(t, v.ReturnLoan(0))
	assert.False(t, v.IsLoaned(0))

	err = v.ReturnLoan(0)
	assert.Error(t, err, "returning a non-outstanding loan must fail")
}

func TestUnionDiscriminatorCoherence(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	b := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Union, Name: "U", DiscriminatorType: i32})
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 0, Name: "a", Type: i32, Labels: []int64{0, 1}}))
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 1, Name: "b", Type: i32, Labels: []int64{2}}))
	ut, err := b.Build()
	require.NoError(t, err)

	v, err := New(ut)
	require.NoError(t, err)
	require.NoError(t, v.SetDiscriminator(2))
	sel, err := v.SelectedMember()
	require.NoError(t, err)
	assert.EqualValues(t, 1, sel)

	disc, err := v.Discriminator()
	require.NoError(t, err)
	assert.EqualValues(t, 2, disc)

	// Selecting a label with no matching member and no default leaves
	// the union unselected.
	require.NoError(t, v.SetDiscriminator(99))
	sel, err = v.SelectedMember()
	require.NoError(t, err)
	assert.Equal(t, model.MemberIdInvalid, sel)

	disc, err = v.Discriminator()
	require.NoError(t, err)
	assert.EqualValues(t, 3, disc, "implicit default is first label not in use")
}

func TestUnionDefaultMemberCoversUnmatchedLabel(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	b := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Union, Name: "U", DiscriminatorType: i32})
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 0, Name: "a", Type: i32, Labels: []int64{0}}))
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 1, Name: "def", Type: i32, IsDefaultLabel: true}))
	ut, err := b.Build()
	require.NoError(t, err)

	v, err := New(ut)
	require.NoError(t, err)
	require.NoError(t, v.SetDiscriminator(55))
	sel, err := v.SelectedMember()
	require.NoError(t, err)
	assert.EqualValues(t, 1, sel)
}

func TestDiscriminatorOnFreshValueWithPlainDefaultCase(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	b := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Union, Name: "U", DiscriminatorType: i32})
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 0, Name: "a", Type: i32, Labels: []int64{0}}))
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 1, Name: "def", Type: i32, IsDefaultLabel: true}))
	ut, err := b.Build()
	require.NoError(t, err)

	// A freshly-created value starts unselected with DefaultMember()
	// non-nil; a plain `default` case carries no explicit Labels, so
	// Discriminator must fall back to the implicit value instead of
	// indexing an empty label slice.
	v, err := New(ut)
	require.NoError(t, err)
	disc, err := v.Discriminator()
	require.NoError(t, err)
	assert.EqualValues(t, 1, disc, "implicit default is first label not in use")
}

func TestSetDefaultValueUsesDeclaredText(t *testing.T) {
	pt := structType(t, "Defaulted",
		model.MemberDescriptor{Id: 0, Name: "x", Type: primitiveType(t, kind.Int32), DefaultValue: "42"},
	)
	v, err := New(pt)
	require.NoError(t, err)
	require.NoError(t, v.SetDefaultValue(0))
	x, err := v.GetInt32(0)
	require.NoError(t, err)
	assert.EqualValues(t, 42, x)
}

func TestFactoryLeakTracking(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	f := NewFactory(i32, true)

	v, err := f.CreateData()
	require.NoError(t, err)
	assert.Equal(t, 1, f.LiveCount())
	assert.Error(t, f.AssertNoLeaks())

	require.NoError(t, f.DeleteData(v))
	assert.Equal(t, 0, f.LiveCount())
	assert.NoError(t, f.AssertNoLeaks())
}

func TestFactoryRefusesDeleteWithOutstandingLoan(t *testing.T) {
	pt := structType(t, "Point",
		model.MemberDescriptor{Id: 0, Name: "x", Type: primitiveType(t, kind.Int32)},
	)
	f := NewFactory(pt, false)
	v, err := f.CreateData()
	require.NoError(t, err)
	_, err = v.LoanMember(0)
	require.NoError(t, err)

	err = f.DeleteData(v)
	assert.Error(t, err)
}

func TestStructuralHashStableAndCacheInvalidatedOnMutation(t *testing.T) {
	pt := structType(t, "Point",
		model.MemberDescriptor{Id: 0, Name: "x", Type: primitiveType(t, kind.Int32)},
	)
	v, err := New(pt)
	require.NoError(t, err)
	require.NoError(t, v.SetInt32(0, 1))

	h1 := v.StructuralHash()
	h2 := v.StructuralHash()
	assert.Equal(t, h1, h2, "unmodified value must hash identically")

	require.NoError(t, v.SetInt32(0, 2))
	h3 := v.StructuralHash()
	assert.NotEqual(t, h1, h3, "mutation must invalidate the cached hash")
}

func TestBitmaskFlagRoundTrip(t *testing.T) {
	boolType := primitiveType(t, kind.Bool)
	b := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Bitmask, Name: "Flags", ElementType: boolType, Bounds: []uint32{8}})
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 0, Name: "READ", Labels: []int64{0}}))
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 1, Name: "WRITE", Labels: []int64{1}}))
	bt, err := b.Build()
	require.NoError(t, err)

	v, err := New(bt)
	require.NoError(t, err)
	require.NoError(t, v.SetBitmaskFlag(model.MemberIdInvalid, "WRITE", true))

	bits, err := v.GetBitmask(model.MemberIdInvalid)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b10), bits)
}

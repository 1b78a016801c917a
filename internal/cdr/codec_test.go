// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package cdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.fastdds.dev/xtypes/internal/data"
	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

func primitiveType(t *testing.T, k kind.Kind) *model.Type {
	t.Helper()
	typ, err := model.NewTypeBuilder(model.TypeDescriptor{Kind: k}).Build()
	require.NoError(t, err)
	return typ
}

func buildPointType(t *testing.T) *model.Type {
	t.Helper()
	i32 := primitiveType(t, kind.Int32)
	b := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Structure, Name: "Point"})
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 0, Name: "x", Type: i32}))
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 1, Name: "y", Type: i32}))
	typ, err := b.Build()
	require.NoError(t, err)
	return typ
}

func TestStructRoundTrip(t *testing.T) {
	pt := buildPointType(t)
	v, err := data.New(pt)
	require.NoError(t, err)
	require.NoError(t, v.SetInt32(0, -7))
	require.NoError(t, v.SetInt32(1, 42))

	c := NewCodec(pt, XCDRv1, LittleEndian)
	buf, err := c.Serialize(v)
	require.NoError(t, err)
	assert.Equal(t, 12, len(buf)) // 4-byte header + 2*int32

	out, err := c.Deserialize(buf)
	require.NoError(t, err)
	x, err := out.GetInt32(0)
	require.NoError(t, err)
	y, err := out.GetInt32(1)
	require.NoError(t, err)
	assert.Equal(t, int32(-7), x)
	assert.Equal(t, int32(42), y)
}

func TestStructRoundTripBigEndianXCDR2(t *testing.T) {
	pt := buildPointType(t)
	v, err := data.New(pt)
	require.NoError(t, err)
	require.NoError(t, v.SetInt32(0, 1000000))
	require.NoError(t, v.SetInt32(1, -1000000))

	c := NewCodec(pt, XCDRv2, BigEndian)
	buf, err := c.Serialize(v)
	require.NoError(t, err)

	out, err := c.Deserialize(buf)
	require.NoError(t, err)
	x, err := out.GetInt32(0)
	require.NoError(t, err)
	y, err := out.GetInt32(1)
	require.NoError(t, err)
	assert.Equal(t, int32(1000000), x)
	assert.Equal(t, int32(-1000000), y)
}

func buildUnionType(t *testing.T) *model.Type {
	t.Helper()
	discType := primitiveType(t, kind.Int32)
	aType := primitiveType(t, kind.Int32)
	bType := primitiveType(t, kind.Float64)

	b := model.NewTypeBuilder(model.TypeDescriptor{
		Kind:              kind.Union,
		Name:              "Choice",
		DiscriminatorType: discType,
	})
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 0, Name: "a", Type: aType, Labels: []int64{0}}))
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 1, Name: "b", Type: bType, Labels: []int64{1}}))
	typ, err := b.Build()
	require.NoError(t, err)
	return typ
}

func TestUnionRoundTrip(t *testing.T) {
	ut := buildUnionType(t)
	c := NewCodec(ut, XCDRv1, LittleEndian)

	v, err := data.New(ut)
	require.NoError(t, err)
	require.NoError(t, v.SetDiscriminator(1))
	require.NoError(t, v.SetFloat64(1, 3.5))

	buf, err := c.Serialize(v)
	require.NoError(t, err)
	out, err := c.Deserialize(buf)
	require.NoError(t, err)

	disc, err := out.Discriminator()
	require.NoError(t, err)
	assert.EqualValues(t, 1, disc)
	f, err := out.GetFloat64(1)
	require.NoError(t, err)
	assert.Equal(t, 3.5, f)
}

func TestUnionMutableRoundTrip(t *testing.T) {
	discType := primitiveType(t, kind.Int32)
	aType := primitiveType(t, kind.Int32)

	b := model.NewTypeBuilder(model.TypeDescriptor{
		Kind:              kind.Union,
		Name:              "MutableChoice",
		DiscriminatorType: discType,
		Extensibility:     model.Mutable,
	})
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 0, Name: "a", Type: aType, Labels: []int64{0}}))
	ut, err := b.Build()
	require.NoError(t, err)

	v, err := data.New(ut)
	require.NoError(t, err)
	require.NoError(t, v.SetDiscriminator(0))
	require.NoError(t, v.SetInt32(0, 9))

	c := NewCodec(ut, XCDRv1, LittleEndian)
	buf, err := c.Serialize(v)
	require.NoError(t, err)
	out, err := c.Deserialize(buf)
	require.NoError(t, err)
	x, err := out.GetInt32(0)
	require.NoError(t, err)
	assert.EqualValues(t, 9, x)
}

func buildArrayType(t *testing.T) *model.Type {
	t.Helper()
	i32 := primitiveType(t, kind.Int32)
	typ, err := model.NewTypeBuilder(model.TypeDescriptor{
		Kind:        kind.Array,
		ElementType: i32,
		Bounds:      []uint32{4},
	}).Build()
	require.NoError(t, err)
	return typ
}

func TestArrayTrailingDefaultElision(t *testing.T) {
	at := buildArrayType(t)
	v, err := data.New(at)
	require.NoError(t, err)
	require.NoError(t, v.SetComplexValue(0, mustInt32Value(t, 11)))

	c := NewCodec(at, XCDRv1, LittleEndian)
	buf, err := c.Serialize(v)
	require.NoError(t, err)
	assert.Equal(t, 4+4*4, len(buf))

	out, err := c.Deserialize(buf)
	require.NoError(t, err)
	for i, want := range []int32{11, 0, 0, 0} {
		got, err := out.GetInt32(model.MemberId(i))
		require.NoError(t, err)
		assert.Equal(t, want, got, "index %d", i)
	}
}

func mustInt32Value(t *testing.T, x int32) *data.Value {
	t.Helper()
	v, err := data.New(primitiveType(t, kind.Int32))
	require.NoError(t, err)
	require.NoError(t, v.SetInt32(model.MemberIdInvalid, x))
	return v
}

func buildBitmaskType(t *testing.T) *model.Type {
	t.Helper()
	boolType := primitiveType(t, kind.Bool)
	b := model.NewTypeBuilder(model.TypeDescriptor{
		Kind:        kind.Bitmask,
		Name:        "Flags",
		ElementType: boolType,
		Bounds:      []uint32{10},
	})
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 0, Name: "READ", Labels: []int64{0}}))
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 1, Name: "WRITE", Labels: []int64{1}}))
	typ, err := b.Build()
	require.NoError(t, err)
	return typ
}

func TestBitmaskStorageWidth(t *testing.T) {
	bt := buildBitmaskType(t)
	assert.Equal(t, 16, bt.StorageWidthBits())

	v, err := data.New(bt)
	require.NoError(t, err)
	require.NoError(t, v.SetBitmaskFlag(model.MemberIdInvalid, "WRITE", true))

	c := NewCodec(bt, XCDRv1, LittleEndian)
	buf, err := c.Serialize(v)
	require.NoError(t, err)
	assert.Equal(t, 4+2, len(buf))

	out, err := c.Deserialize(buf)
	require.NoError(t, err)
	bits, err := out.GetBitmask(model.MemberIdInvalid)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b10), bits)
}

func TestKeySerializationStableAcrossRepresentations(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	b := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Structure, Name: "Keyed"})
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 0, Name: "id", Type: i32, IsKey: true}))
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 1, Name: "payload", Type: i32}))
	kt, err := b.Build()
	require.NoError(t, err)

	v, err := data.New(kt)
	require.NoError(t, err)
	require.NoError(t, v.SetInt32(0, 99))
	require.NoError(t, v.SetInt32(1, 12345))

	c1 := NewCodec(kt, XCDRv1, LittleEndian)
	c2 := NewCodec(kt, XCDRv2, BigEndian)

	k1, err := c1.SerializeKey(v)
	require.NoError(t, err)
	k2, err := c2.SerializeKey(v)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	h1, err := c1.InstanceHandle(v)
	require.NoError(t, err)
	h2, err := c2.InstanceHandle(v)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestKeySerializationDefaultsToAllMembersWhenNoneMarkedKey(t *testing.T) {
	pt := buildPointType(t) // neither "x" nor "y" is @key
	v, err := data.New(pt)
	require.NoError(t, err)
	require.NoError(t, v.SetInt32(0, 1))
	require.NoError(t, v.SetInt32(1, 2))

	c := NewCodec(pt, XCDRv2, BigEndian)
	keyBytes, err := c.SerializeKey(v)
	require.NoError(t, err)
	// OMG default key rule: with no explicit @key member, every member
	// is key-serialized, so the key carries both fields (8 bytes).
	assert.Equal(t, 8, len(keyBytes))

	other, err := data.New(pt)
	require.NoError(t, err)
	require.NoError(t, other.SetInt32(0, 1))
	require.NoError(t, other.SetInt32(1, 999))
	otherKey, err := c.SerializeKey(other)
	require.NoError(t, err)
	assert.NotEqual(t, keyBytes, otherKey, "payload must affect the key when no member is marked @key")
}

func TestNonSerializedMemberSkippedByCodecAndKey(t *testing.T) {
	i32 := primitiveType(t, kind.Int32)
	b := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Structure, Name: "Partial"})
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 0, Name: "id", Type: i32, IsKey: true}))
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 1, Name: "cache", Type: i32, IsNonSerialized: true}))
	typ, err := b.Build()
	require.NoError(t, err)

	v, err := data.New(typ)
	require.NoError(t, err)
	require.NoError(t, v.SetInt32(0, 7))
	require.NoError(t, v.SetInt32(1, 12345))

	c := NewCodec(typ, XCDRv1, LittleEndian)
	buf, err := c.Serialize(v)
	require.NoError(t, err)
	assert.Equal(t, 8, len(buf)) // 4-byte header + only "id"

	out, err := c.Deserialize(buf)
	require.NoError(t, err)
	id, err := out.GetInt32(0)
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)
	cache, err := out.GetInt32(1)
	require.NoError(t, err)
	assert.EqualValues(t, 0, cache, "non-serialized member is never written, so it decodes to its default")

	keyBytes, err := c.SerializeKey(v)
	require.NoError(t, err)
	assert.Equal(t, 4, len(keyBytes))
}

func TestChar16DiscriminatorWidthMatchesMemberWidth(t *testing.T) {
	c16 := primitiveType(t, kind.Char16)
	f64 := primitiveType(t, kind.Float64)
	b := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Union, Name: "ByChar", DiscriminatorType: c16})
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 0, Name: "a", Type: f64, Labels: []int64{'a'}}))
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 1, Name: "b", Type: f64, Labels: []int64{'b'}}))
	ut, err := b.Build()
	require.NoError(t, err)

	v, err := data.New(ut)
	require.NoError(t, err)
	require.NoError(t, v.SetDiscriminator('b'))
	require.NoError(t, v.SetFloat64(1, 3.5))

	c := NewCodec(ut, XCDRv1, LittleEndian)
	buf, err := c.Serialize(v)
	require.NoError(t, err)

	out, err := c.Deserialize(buf)
	require.NoError(t, err)
	sel, err := out.SelectedMember()
	require.NoError(t, err)
	assert.EqualValues(t, 1, sel)
	x, err := out.GetFloat64(1)
	require.NoError(t, err)
	assert.Equal(t, 3.5, x)
}

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package xtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

func buildKeyedPointType(t *testing.T) *Type {
	t.Helper()
	i32, err := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Int32}).Build()
	require.NoError(t, err)
	b := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Structure, Name: "Point"})
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 0, Name: "x", Type: i32, IsKey: true}))
	require.NoError(t, b.AddMember(model.MemberDescriptor{Id: 1, Name: "y", Type: i32}))
	typ, err := b.Build()
	require.NoError(t, err)
	return typ
}

func TestTypeSupportCreateSerializeDeserialize(t *testing.T) {
	typ := buildKeyedPointType(t)
	ts := NewTypeSupport(typ, true)

	v, err := ts.CreateData()
	require.NoError(t, err)
	require.NoError(t, v.SetInt32(0, 3))
	require.NoError(t, v.SetInt32(1, 4))

	buf, err := ts.Serialize(v, XCDRv2, LittleEndian)
	require.NoError(t, err)

	out, err := ts.Deserialize(buf)
	require.NoError(t, err)
	x, err := out.GetInt32(0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, x)

	require.NoError(t, ts.DeleteData(v))
	require.NoError(t, ts.DeleteData(out))
	assert.NoError(t, ts.AssertNoLeaks())
}

func TestTypeSupportGetKeySmallFitsWithoutMD5(t *testing.T) {
	typ := buildKeyedPointType(t)
	ts := NewTypeSupport(typ, false)

	v, err := ts.CreateData()
	require.NoError(t, err)
	require.NoError(t, v.SetInt32(0, 3))

	handle, err := ts.GetKey(v, false)
	require.NoError(t, err)

	forced, err := ts.GetKey(v, true)
	require.NoError(t, err)
	assert.NotEqual(t, handle, forced, "forcing MD5 on a small key must still hash it")
}

func TestTypeSupportSerializedSizeProvider(t *testing.T) {
	typ := buildKeyedPointType(t)
	ts := NewTypeSupport(typ, false)

	v, err := ts.CreateData()
	require.NoError(t, err)

	sizeOf := ts.SerializedSizeProvider(v, XCDRv1, LittleEndian)
	n, err := sizeOf()
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)
}

func TestTypeSupportJSONRoundTrip(t *testing.T) {
	typ := buildKeyedPointType(t)
	ts := NewTypeSupport(typ, false)

	v, err := ts.CreateData()
	require.NoError(t, err)
	require.NoError(t, v.SetInt32(0, 1))
	require.NoError(t, v.SetInt32(1, 2))

	raw, err := ts.MarshalJSON(v, JSONStandard)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1,"y":2}`, string(raw))

	out, err := ts.CreateData()
	require.NoError(t, err)
	require.NoError(t, ts.UnmarshalJSON(raw, out))
	y, err := out.GetInt32(1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, y)
}

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package xmlloader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/registry"
)

func TestLoadSimpleStruct(t *testing.T) {
	doc := `<types>
	  <type>
	    <struct name="Point">
	      <member name="x" type="int32"/>
	      <member name="y" type="int32"/>
	    </struct>
	  </type>
	</types>`

	reg := registry.New()
	require.NoError(t, Load(strings.NewReader(doc), reg))

	typ, err := reg.Lookup("Point")
	require.NoError(t, err)
	assert.Equal(t, kind.Structure, typ.Kind())
	assert.Len(t, typ.GetAllMembersByIndex(), 2)
	y, err := typ.GetMemberById(1)
	require.NoError(t, err)
	assert.Equal(t, "y", y.Name())
}

func TestLoadStructWithArrayAndBoundedString(t *testing.T) {
	doc := `<types>
	  <type>
	    <struct name="Sample">
	      <member name="values" type="int32" arrayDimensions="2,3"/>
	      <member name="label" type="string" stringMaxLength="16"/>
	    </struct>
	  </type>
	</types>`

	reg := registry.New()
	require.NoError(t, Load(strings.NewReader(doc), reg))

	typ, err := reg.Lookup("Sample")
	require.NoError(t, err)
	values, err := typ.GetMemberById(0)
	require.NoError(t, err)
	assert.Equal(t, kind.Array, values.Type().Kind())
	assert.EqualValues(t, 6, values.Type().TotalArrayBound())

	label, err := typ.GetMemberById(1)
	require.NoError(t, err)
	assert.Equal(t, kind.String8, label.Type().Kind())
	assert.EqualValues(t, 16, label.Type().StringBound())
}

func TestLoadUnionWithDefaultCase(t *testing.T) {
	doc := `<types>
	  <type>
	    <union name="Choice">
	      <discriminator type="int32"/>
	      <case>
	        <caseDiscriminator value="0"/>
	        <member name="asInt" type="int32"/>
	      </case>
	      <case>
	        <caseDiscriminator value="default"/>
	        <member name="asFloat" type="float64"/>
	      </case>
	    </union>
	  </type>
	</types>`

	reg := registry.New()
	require.NoError(t, Load(strings.NewReader(doc), reg))

	typ, err := reg.Lookup("Choice")
	require.NoError(t, err)
	assert.Equal(t, kind.Union, typ.Kind())

	m, ok := typ.MemberByLabel(0)
	require.True(t, ok)
	assert.Equal(t, "asInt", m.Name())

	def := typ.DefaultMember()
	require.NotNil(t, def)
	assert.Equal(t, "asFloat", def.Name())
}

func TestLoadEnumAutoIncrementsValues(t *testing.T) {
	doc := `<types>
	  <type>
	    <enum name="Color">
	      <enumerator name="RED"/>
	      <enumerator name="GREEN"/>
	      <enumerator name="BLUE" value="10"/>
	      <enumerator name="INDIGO"/>
	    </enum>
	  </type>
	</types>`

	reg := registry.New()
	require.NoError(t, Load(strings.NewReader(doc), reg))

	typ, err := reg.Lookup("Color")
	require.NoError(t, err)

	green, ok := typ.MemberByLabel(1)
	require.True(t, ok)
	assert.Equal(t, "GREEN", green.Name())

	indigo, ok := typ.MemberByLabel(11)
	require.True(t, ok)
	assert.Equal(t, "INDIGO", indigo.Name())
}

func TestLoadTypedefAlias(t *testing.T) {
	doc := `<types>
	  <type>
	    <typedef name="Meters" type="float64"/>
	  </type>
	</types>`

	reg := registry.New()
	require.NoError(t, Load(strings.NewReader(doc), reg))

	typ, err := reg.Lookup("Meters")
	require.NoError(t, err)
	assert.Equal(t, kind.Alias, typ.Kind())
	assert.Equal(t, kind.Float64, typ.ResolveAliasEnclosed().Kind())
}

func TestLoadBitsetWithPaddingPreservesOffsets(t *testing.T) {
	doc := `<types>
	  <type>
	    <bitset name="Flags">
	      <bitfield name="a" bit_bound="3"/>
	      <bitfield bit_bound="5"/>
	      <bitfield name="b" bit_bound="4"/>
	    </bitset>
	  </type>
	</types>`

	reg := registry.New()
	require.NoError(t, Load(strings.NewReader(doc), reg))

	typ, err := reg.Lookup("Flags")
	require.NoError(t, err)
	assert.Len(t, typ.GetAllMembersByIndex(), 3)

	b, err := typ.GetMemberById(2)
	require.NoError(t, err)
	assert.Equal(t, "b", b.Name())
	assert.EqualValues(t, 4, b.BitBound())

	pad, err := typ.GetMemberById(1)
	require.NoError(t, err)
	assert.Equal(t, "", pad.Name())
	assert.EqualValues(t, 5, pad.BitBound())
}

func TestLoadBitmaskWithExplicitPositions(t *testing.T) {
	doc := `<types>
	  <type>
	    <bitmask name="Perms" bit_bound="8">
	      <bit_value name="READ" position="0"/>
	      <bit_value name="WRITE" position="1"/>
	      <bit_value name="EXEC" position="4"/>
	    </bitmask>
	  </type>
	</types>`

	reg := registry.New()
	require.NoError(t, Load(strings.NewReader(doc), reg))

	typ, err := reg.Lookup("Perms")
	require.NoError(t, err)
	assert.Equal(t, kind.Bitmask, typ.Kind())
	assert.Equal(t, 8, typ.StorageWidthBits())

	exec, ok := typ.MemberByLabel(4)
	require.True(t, ok)
	assert.Equal(t, "EXEC", exec.Name())
}

func TestLoadStructInheritance(t *testing.T) {
	doc := `<types>
	  <type>
	    <struct name="Base">
	      <member name="id" type="int32"/>
	    </struct>
	  </type>
	  <type>
	    <struct name="Derived" baseType="Base">
	      <member name="extra" type="int32"/>
	    </struct>
	  </type>
	</types>`

	reg := registry.New()
	require.NoError(t, Load(strings.NewReader(doc), reg))

	derived, err := reg.Lookup("Derived")
	require.NoError(t, err)
	assert.Len(t, derived.GetAllMembersByIndex(), 2)
	base, err := derived.GetMemberById(0)
	require.NoError(t, err)
	assert.Equal(t, "id", base.Name())
}

func TestLoadRejectsRedefinitionWithinDocument(t *testing.T) {
	doc := `<types>
	  <type><struct name="A"><member name="x" type="int32"/></struct></type>
	  <type><struct name="A"><member name="y" type="int32"/></struct></type>
	</types>`

	reg := registry.New()
	err := Load(strings.NewReader(doc), reg)
	assert.Error(t, err)
	assert.False(t, reg.Has("A"))
}

func TestLoadRejectsDocumentAsWholeOnLaterFailure(t *testing.T) {
	doc := `<types>
	  <type><struct name="Good"><member name="x" type="int32"/></struct></type>
	  <type><struct name="Bad"><member name="x" type="notARealType"/></struct></type>
	</types>`

	reg := registry.New()
	err := Load(strings.NewReader(doc), reg)
	assert.Error(t, err)
	assert.False(t, reg.Has("Good"), "no type from a failing document should be registered")
	assert.False(t, reg.Has("Bad"))
}

func TestLoadMalformedXMLRejected(t *testing.T) {
	reg := registry.New()
	err := Load(strings.NewReader(`<types><type><struct name="X">`), reg)
	assert.Error(t, err)
}

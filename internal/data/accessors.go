// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package data

import (
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

// target resolves the Value that a primitive accessor should act on: v
// itself when id is MemberIdInvalid (v is a bare primitive), or a
// looked-up/auto-vivified child otherwise (spec §4.2 "Accessor
// contract").
func (v *Value) target(id model.MemberId, k kind.Kind) (*Value, error) {
	if id == model.MemberIdInvalid {
		if v.EnclosedKind() != k {
			return nil, errs.New(errs.BadParameter, "value is of kind %v, not %v", v.EnclosedKind(), k)
		}
		return v, nil
	}

	ek := v.EnclosedKind()
	if !ek.IsAggregated() && !ek.IsCollection() {
		return nil, errs.New(errs.BadParameter, "cannot address member %d on a %v value", id, ek)
	}

	if v.loaned[id] {
		return nil, errs.New(errs.PreconditionNotMet, "member %d is on loan", id)
	}

	m, err := v.memberTypeFor(id)
	if err != nil {
		return nil, err
	}
	if m.ResolveAliasEnclosed().Kind() != k {
		return nil, errs.New(errs.BadParameter, "member %d is of kind %v, not %v", id, m.ResolveAliasEnclosed().Kind(), k)
	}

	child, ok := v.children[id]
	if !ok {
		child, err = New(m)
		if err != nil {
			return nil, err
		}
	}
	return child, nil
}

// memberTypeFor resolves the declared type of member id, for Structure,
// Union, Array and Sequence containers. Maps are handled separately since
// a map member id selects the key or value half of a pair.
func (v *Value) memberTypeFor(id model.MemberId) (*model.Type, error) {
	switch v.EnclosedKind() {
	case kind.Structure, kind.Union, kind.Bitset:
		m, err := v.typ.ResolveAliasEnclosed().GetMemberById(id)
		if err != nil {
			return nil, err
		}
		return m.Type(), nil
	case kind.Array:
		if err := v.checkArrayIndex(id); err != nil {
			return nil, err
		}
		return v.typ.ResolveAliasEnclosed().ElementType(), nil
	case kind.Sequence:
		if uint32(id) >= v.size {
			return nil, errs.New(errs.BadParameter, "sequence index %d out of range (size %d)", id, v.size)
		}
		return v.typ.ResolveAliasEnclosed().ElementType(), nil
	default:
		return nil, errs.New(errs.BadParameter, "member access not applicable to kind %v", v.EnclosedKind())
	}
}

func (v *Value) checkArrayIndex(id model.MemberId) error {
	total := v.typ.ResolveAliasEnclosed().TotalArrayBound()
	if uint32(id) >= total {
		return errs.New(errs.BadParameter, "array index %d out of range (size %d)", id, total)
	}
	return nil
}

func getPrimitive[T any](v *Value, id model.MemberId, k kind.Kind) (T, error) {
	var zero T
	t, err := v.target(id, k)
	if err != nil {
		return zero, err
	}
	x, ok := t.scalar.(T)
	if !ok {
		return zero, errs.New(errs.BadParameter, "value storage does not hold a %v", k)
	}
	return x, nil
}

func setPrimitive[T any](v *Value, id model.MemberId, k kind.Kind, x T) error {
	t, err := v.target(id, k)
	if err != nil {
		return err
	}
	if t.isKeyHalf {
		return errs.New(errs.PreconditionNotMet, "cannot overwrite the key half of a map pair")
	}
	t.scalar = x
	t.touch()

	if id != model.MemberIdInvalid {
		if err := v.commitChild(id, t); err != nil {
			return err
		}
		if v.EnclosedKind() == kind.Union {
			v.selected = id
		}
	}
	return nil
}

// commitChild stores (or elides) a mutated child back into the parent's
// child table. For Array members, setting a value equal to the element's
// default is a no-op elision (spec §3.2's correctness-critical
// invariant); all other containers always store the child.
func (v *Value) commitChild(id model.MemberId, child *Value) error {
	if v.EnclosedKind() == kind.Array {
		isDefault, err := isDefaultValue(child)
		if err != nil {
			return err
		}
		if isDefault {
			delete(v.children, id)
			v.touch()
			return nil
		}
	}
	v.children[id] = child
	v.touch()
	return nil
}

// isDefaultValue reports whether child equals the default-initialized
// value of its own type (used for array elision).
func isDefaultValue(child *Value) (bool, error) {
	def, err := New(child.typ)
	if err != nil {
		return false, err
	}
	return Equal(child, def), nil
}

func (v *Value) GetBool(id model.MemberId) (bool, error) { return getPrimitive[bool](v, id, kind.Bool) }
func (v *Value) SetBool(id model.MemberId, x bool) error { return setPrimitive(v, id, kind.Bool, x) }

func (v *Value) GetByte(id model.MemberId) (uint8, error) { return getPrimitive[uint8](v, id, kind.Byte) }
func (v *Value) SetByte(id model.MemberId, x uint8) error { return setPrimitive(v, id, kind.Byte, x) }

func (v *Value) GetInt8(id model.MemberId) (int8, error) { return getPrimitive[int8](v, id, kind.Int8) }
func (v *Value) SetInt8(id model.MemberId, x int8) error { return setPrimitive(v, id, kind.Int8, x) }

func (v *Value) GetUint8(id model.MemberId) (uint8, error) {
	return getPrimitive[uint8](v, id, kind.Uint8)
}
func (v *Value) SetUint8(id model.MemberId, x uint8) error { return setPrimitive(v, id, kind.Uint8, x) }

func (v *Value) GetInt16(id model.MemberId) (int16, error) {
	return getPrimitive[int16](v, id, kind.Int16)
}
func (v *Value) SetInt16(id model.MemberId, x int16) error { return setPrimitive(v, id, kind.Int16, x) }

func (v *Value) GetUint16(id model.MemberId) (uint16, error) {
	return getPrimitive[uint16](v, id, kind.Uint16)
}
func (v *Value) SetUint16(id model.MemberId, x uint16) error {
	return setPrimitive(v, id, kind.Uint16, x)
}

func (v *Value) GetInt32(id model.MemberId) (int32, error) {
	return getPrimitive[int32](v, id, kind.Int32)
}
func (v *Value) SetInt32(id model.MemberId, x int32) error { return setPrimitive(v, id, kind.Int32, x) }

func (v *Value) GetUint32(id model.MemberId) (uint32, error) {
	return getPrimitive[uint32](v, id, kind.Uint32)
}
func (v *Value) SetUint32(id model.MemberId, x uint32) error {
	return setPrimitive(v, id, kind.Uint32, x)
}

func (v *Value) GetInt64(id model.MemberId) (int64, error) {
	return getPrimitive[int64](v, id, kind.Int64)
}
func (v *Value) SetInt64(id model.MemberId, x int64) error { return setPrimitive(v, id, kind.Int64, x) }

func (v *Value) GetUint64(id model.MemberId) (uint64, error) {
	return getPrimitive[uint64](v, id, kind.Uint64)
}
func (v *Value) SetUint64(id model.MemberId, x uint64) error {
	return setPrimitive(v, id, kind.Uint64, x)
}

func (v *Value) GetFloat32(id model.MemberId) (float32, error) {
	return getPrimitive[float32](v, id, kind.Float32)
}
func (v *Value) SetFloat32(id model.MemberId, x float32) error {
	return setPrimitive(v, id, kind.Float32, x)
}

func (v *Value) GetFloat64(id model.MemberId) (float64, error) {
	return getPrimitive[float64](v, id, kind.Float64)
}
func (v *Value) SetFloat64(id model.MemberId, x float64) error {
	return setPrimitive(v, id, kind.Float64, x)
}

func (v *Value) GetFloat128(id model.MemberId) ([16]byte, error) {
	return getPrimitive[[16]byte](v, id, kind.Float128)
}
func (v *Value) SetFloat128(id model.MemberId, x [16]byte) error {
	return setPrimitive(v, id, kind.Float128, x)
}

func (v *Value) GetChar8(id model.MemberId) (byte, error) { return getPrimitive[byte](v, id, kind.Char8) }
func (v *Value) SetChar8(id model.MemberId, x byte) error { return setPrimitive(v, id, kind.Char8, x) }

func (v *Value) GetChar16(id model.MemberId) (rune, error) {
	return getPrimitive[rune](v, id, kind.Char16)
}
func (v *Value) SetChar16(id model.MemberId, x rune) error {
	return setPrimitive(v, id, kind.Char16, x)
}

func (v *Value) GetString8(id model.MemberId) (string, error) {
	return getPrimitive[string](v, id, kind.String8)
}
func (v *Value) SetString8(id model.MemberId, x string) error {
	if err := checkStringBound(v, id, kind.String8, x); err != nil {
		return err
	}
	return setPrimitive(v, id, kind.String8, x)
}

func (v *Value) GetString16(id model.MemberId) (string, error) {
	return getPrimitive[string](v, id, kind.String16)
}
func (v *Value) SetString16(id model.MemberId, x string) error {
	if err := checkStringBound(v, id, kind.String16, x); err != nil {
		return err
	}
	return setPrimitive(v, id, kind.String16, x)
}

func checkStringBound(v *Value, id model.MemberId, k kind.Kind, s string) error {
	var st *model.Type
	if id == model.MemberIdInvalid {
		st = v.typ
	} else {
		mt, err := v.memberTypeFor(id)
		if err != nil {
			return err
		}
		st = mt
	}
	bound := st.ResolveAliasEnclosed().StringBound()
	if bound == 0 {
		return nil
	}
	n := uint32(len([]rune(s)))
	if k == kind.String8 {
		n = uint32(len(s))
	}
	if n > bound {
		return errs.LengthError{Actual: uint64(n), Max: uint64(bound), What: "string"}
	}
	return nil
}

// GetEnum returns the raw discriminant value of an Enum value.
func (v *Value) GetEnum(id model.MemberId) (int64, error) {
	return getPrimitive[int64](v, id, kind.Enum)
}

// SetEnum sets an Enum value to literalValue, which must match one of the
// type's declared literal values.
func (v *Value) SetEnum(id model.MemberId, literalValue int64) error {
	t, err := v.target(id, kind.Enum)
	if err != nil {
		return err
	}
	valid := false
	for _, m := range t.typ.ResolveAliasEnclosed().GetAllMembersByIndex() {
		if len(m.Labels()) > 0 && m.Labels()[0] == literalValue {
			valid = true
			break
		}
	}
	if !valid {
		return errs.New(errs.BadParameter, "value %d is not a declared literal of enum %q", literalValue, t.typ.Name())
	}
	return setPrimitive(v, id, kind.Enum, literalValue)
}

// GetBitmask returns the packed flag bits of a Bitmask value.
func (v *Value) GetBitmask(id model.MemberId) (uint64, error) {
	return getPrimitive[uint64](v, id, kind.Bitmask)
}

// SetBitmask sets the packed flag bits of a Bitmask value directly.
func (v *Value) SetBitmask(id model.MemberId, bits uint64) error {
	return setPrimitive(v, id, kind.Bitmask, bits)
}

// SetBitmaskFlag sets or clears a single named flag of a Bitmask value.
func (v *Value) SetBitmaskFlag(id model.MemberId, flagName string, on bool) error {
	t, err := v.target(id, kind.Bitmask)
	if err != nil {
		return err
	}
	m, err := t.typ.ResolveAliasEnclosed().GetMemberByName(flagName)
	if err != nil {
		return err
	}
	bit := uint(m.Labels()[0])
	cur := t.scalar.(uint64)
	if on {
		cur |= 1 << bit
	} else {
		cur &^= 1 << bit
	}
	return setPrimitive(v, id, kind.Bitmask, cur)
}

// GetBitset returns the packed storage word of a Bitset value.
func (v *Value) GetBitset(id model.MemberId) (uint64, error) {
	return getPrimitive[uint64](v, id, kind.Bitset)
}

// SetBitset sets the packed storage word of a Bitset value directly,
// used by the codec to install a decoded word in one step rather than
// per-field.
func (v *Value) SetBitset(id model.MemberId, bits uint64) error {
	return setPrimitive(v, id, kind.Bitset, bits)
}

// SetBitfield sets the named bitfield of a Bitset value to x, masked to
// the field's declared bit width.
func (v *Value) SetBitfield(id model.MemberId, fieldName string, x uint64) error {
	t, err := v.target(id, kind.Bitset)
	if err != nil {
		return err
	}
	m, err := t.typ.ResolveAliasEnclosed().GetMemberById(mustFindBitfield(t.typ, fieldName))
	if err != nil {
		return err
	}
	offset := bitfieldOffset(t.typ.ResolveAliasEnclosed(), m.Id())
	width := m.BitBound()
	mask := (uint64(1) << width) - 1
	cur := t.scalar.(uint64)
	cur &^= mask << offset
	cur |= (x & mask) << offset
	return setPrimitive(v, id, kind.Bitset, cur)
}

// GetBitfield returns the named bitfield of a Bitset value.
func (v *Value) GetBitfield(id model.MemberId, fieldName string) (uint64, error) {
	t, err := v.target(id, kind.Bitset)
	if err != nil {
		return 0, err
	}
	bt := t.typ.ResolveAliasEnclosed()
	m, err := bt.GetMemberByName(fieldName)
	if err != nil {
		return 0, err
	}
	offset := bitfieldOffset(bt, m.Id())
	width := m.BitBound()
	mask := (uint64(1) << width) - 1
	return (t.scalar.(uint64) >> offset) & mask, nil
}

func mustFindBitfield(t *model.Type, name string) model.MemberId {
	m, err := t.ResolveAliasEnclosed().GetMemberByName(name)
	if err != nil {
		return model.MemberIdInvalid
	}
	return m.Id()
}

// bitfieldOffset computes the bit offset of member id within a Bitset's
// packed storage word, fields laid out in declaration order (base
// members first).
func bitfieldOffset(bitsetType *model.Type, id model.MemberId) uint {
	offset := uint(0)
	for _, m := range bitsetType.GetAllMembersByIndex() {
		if m.Id() == id {
			return offset
		}
		offset += uint(m.BitBound())
	}
	return offset
}

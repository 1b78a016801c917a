// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package data

import (
	"strconv"

	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

// SetDefaultValue reads member id's declared default_value text from the
// type and coerces it into place, per its kind. When no textual default
// is declared at that level, the member is replaced by a fresh value of
// its type from New; declared defaults of that value's own members or
// elements are not applied.
func (v *Value) SetDefaultValue(id model.MemberId) error {
	mt, err := v.memberTypeFor(id)
	if err != nil {
		return err
	}
	var text string
	switch v.EnclosedKind() {
	case kind.Structure, kind.Union:
		m, err := v.typ.ResolveAliasEnclosed().GetMemberById(id)
		if err != nil {
			return err
		}
		text = m.DefaultValue()
	}
	return v.coerceDefault(id, mt, text)
}

func (v *Value) coerceDefault(id model.MemberId, t *model.Type, text string) error {
	k := t.ResolveAliasEnclosed().Kind()
	if text == "" {
		def, err := New(t)
		if err != nil {
			return err
		}
		return v.SetComplexValue(id, def)
	}

	switch k {
	case kind.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid bool default %q", text)
		}
		return v.SetBool(id, b)
	case kind.Int8:
		n, err := strconv.ParseInt(text, 10, 8)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid int8 default %q", text)
		}
		return v.SetInt8(id, int8(n))
	case kind.Uint8:
		n, err := strconv.ParseUint(text, 10, 8)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid uint8 default %q", text)
		}
		return v.SetUint8(id, uint8(n))
	case kind.Byte:
		n, err := strconv.ParseUint(text, 10, 8)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid byte default %q", text)
		}
		return v.SetByte(id, uint8(n))
	case kind.Int16:
		n, err := strconv.ParseInt(text, 10, 16)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid int16 default %q", text)
		}
		return v.SetInt16(id, int16(n))
	case kind.Uint16:
		n, err := strconv.ParseUint(text, 10, 16)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid uint16 default %q", text)
		}
		return v.SetUint16(id, uint16(n))
	case kind.Int32:
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid int32 default %q", text)
		}
		return v.SetInt32(id, int32(n))
	case kind.Uint32:
		n, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid uint32 default %q", text)
		}
		return v.SetUint32(id, uint32(n))
	case kind.Int64:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid int64 default %q", text)
		}
		return v.SetInt64(id, n)
	case kind.Uint64:
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid uint64 default %q", text)
		}
		return v.SetUint64(id, n)
	case kind.Float32:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid float32 default %q", text)
		}
		return v.SetFloat32(id, float32(f))
	case kind.Float64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid float64 default %q", text)
		}
		return v.SetFloat64(id, f)
	case kind.Char8:
		if len(text) == 0 {
			return errs.New(errs.BadParameter, "empty char8 default")
		}
		return v.SetChar8(id, text[0])
	case kind.Char16:
		r := []rune(text)
		if len(r) == 0 {
			return errs.New(errs.BadParameter, "empty char16 default")
		}
		return v.SetChar16(id, r[0])
	case kind.String8:
		return v.SetString8(id, text)
	case kind.String16:
		return v.SetString16(id, text)
	case kind.Enum:
		t2, err := v.memberTypeFor(id)
		if err != nil {
			return err
		}
		m, err := t2.ResolveAliasEnclosed().GetMemberByName(text)
		if err == nil {
			return v.SetEnum(id, m.Labels()[0])
		}
		n, perr := strconv.ParseInt(text, 10, 64)
		if perr != nil {
			return errs.New(errs.BadParameter, "invalid enum default %q", text)
		}
		return v.SetEnum(id, n)
	case kind.Bitmask:
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid bitmask default %q", text)
		}
		return v.SetBitmask(id, n)
	default:
		def, err := New(t)
		if err != nil {
			return err
		}
		return v.SetComplexValue(id, def)
	}
}

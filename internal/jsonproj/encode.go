// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package jsonproj

import (
	"bytes"
	"encoding/json"
	"strconv"

	"go.fastdds.dev/xtypes/internal/data"
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

const invalidMember = model.MemberIdInvalid

// Marshal renders v as a JSON document under the given dialect. Objects
// are written by hand, member by member in declaration order, rather
// than through a generic map marshal, since Go map iteration order is
// randomized and structure/union member order is part of the projection
// (spec §4.5 mirrors the declared member order of a struct literal).
func Marshal(v *data.Value, d Dialect) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v *data.Value, d Dialect) error {
	k := v.EnclosedKind()
	switch {
	case k.IsPrimitive():
		return encodeScalarJSON(buf, v, invalidMember, v.Type())
	case k.IsString():
		return encodeStringJSON(buf, v, invalidMember, v.Type())
	case k == kind.Enum:
		return encodeEnum(buf, v, invalidMember, v.Type(), d)
	case k == kind.Bitmask:
		return encodeBitmaskJSON(buf, v, invalidMember, v.Type(), d)
	case k == kind.Bitset:
		return encodeBitsetJSON(buf, v, d)
	case k == kind.Structure:
		return encodeStruct(buf, v, d)
	case k == kind.Union:
		return encodeUnion(buf, v, d)
	case k == kind.Array:
		return encodeArray(buf, v, d)
	case k == kind.Sequence:
		return encodeSequence(buf, v, d)
	case k == kind.Map:
		return encodeMap(buf, v, d)
	default:
		return errs.New(errs.Unsupported, "cannot project a value of kind %v to JSON", k)
	}
}

func writeJSONLiteral(buf *bytes.Buffer, x interface{}) error {
	b, err := json.Marshal(x)
	if err != nil {
		return errs.New(errs.BadParameter, "cannot encode %v as JSON: %v", x, err)
	}
	buf.Write(b)
	return nil
}

func encodeScalarJSON(buf *bytes.Buffer, v *data.Value, id model.MemberId, mt *model.Type) error {
	k := mt.ResolveAliasEnclosed().Kind()
	switch k {
	case kind.Bool:
		x, err := v.GetBool(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, x)
	case kind.Byte:
		x, err := v.GetByte(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, x)
	case kind.Int8:
		x, err := v.GetInt8(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, x)
	case kind.Uint8:
		x, err := v.GetUint8(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, x)
	case kind.Int16:
		x, err := v.GetInt16(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, x)
	case kind.Uint16:
		x, err := v.GetUint16(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, x)
	case kind.Int32:
		x, err := v.GetInt32(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, x)
	case kind.Uint32:
		x, err := v.GetUint32(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, x)
	case kind.Int64:
		x, err := v.GetInt64(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, x)
	case kind.Uint64:
		x, err := v.GetUint64(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, x)
	case kind.Float32:
		x, err := v.GetFloat32(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, x)
	case kind.Float64:
		x, err := v.GetFloat64(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, x)
	case kind.Float128:
		x, err := v.GetFloat128(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, hex128(x))
	case kind.Char8:
		x, err := v.GetChar8(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, string(rune(x)))
	case kind.Char16:
		x, err := v.GetChar16(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, string(x))
	default:
		return errs.New(errs.Unsupported, "%v is not a scalar kind", k)
	}
}

func hex128(b [16]byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 32)
	for i, c := range b {
		out[2*i] = hexDigits[c>>4]
		out[2*i+1] = hexDigits[c&0xf]
	}
	return string(out)
}

func encodeStringJSON(buf *bytes.Buffer, v *data.Value, id model.MemberId, mt *model.Type) error {
	k := mt.ResolveAliasEnclosed().Kind()
	switch k {
	case kind.String8:
		s, err := v.GetString8(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, s)
	case kind.String16:
		s, err := v.GetString16(id)
		if err != nil {
			return err
		}
		return writeJSONLiteral(buf, s)
	default:
		return errs.New(errs.Unsupported, "%v is not a string kind", k)
	}
}

func encodeEnum(buf *bytes.Buffer, v *data.Value, id model.MemberId, mt *model.Type, d Dialect) error {
	lit, err := v.GetEnum(id)
	if err != nil {
		return err
	}
	et := mt.ResolveAliasEnclosed()
	name := ""
	if m, ok := et.MemberByLabel(lit); ok {
		name = m.Name()
	}
	if d == Standard {
		return writeJSONLiteral(buf, name)
	}
	buf.WriteByte('{')
	buf.WriteString(`"name":`)
	if err := writeJSONLiteral(buf, name); err != nil {
		return err
	}
	buf.WriteString(`,"value":`)
	if err := writeJSONLiteral(buf, lit); err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

func encodeBitmaskJSON(buf *bytes.Buffer, v *data.Value, id model.MemberId, mt *model.Type, d Dialect) error {
	bits, err := v.GetBitmask(id)
	if err != nil {
		return err
	}
	bt := mt.ResolveAliasEnclosed()
	if d == Standard {
		return writeJSONLiteral(buf, activeBitsOnly(bits, bt))
	}
	buf.WriteByte('{')
	buf.WriteString(`"value":`)
	if err := writeJSONLiteral(buf, bits); err != nil {
		return err
	}
	buf.WriteString(`,"binary":`)
	if err := writeJSONLiteral(buf, binaryString(bits, bt.StorageWidthBits())); err != nil {
		return err
	}
	buf.WriteString(`,"active":`)
	if err := writeActiveFlagNames(buf, bits, bt); err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

// activeBitsOnly masks bits down to the positions declared as named
// flags, so an undeclared high bit set through raw SetBitmask doesn't
// leak into the Standard dialect's integer.
func activeBitsOnly(bits uint64, bt *model.Type) uint64 {
	var mask uint64
	for _, m := range bt.GetAllMembersByIndex() {
		mask |= 1 << uint(m.Labels()[0])
	}
	return bits & mask
}

func binaryString(bits uint64, width int) string {
	out := make([]byte, width)
	for i := 0; i < width; i++ {
		if bits&(1<<uint(width-1-i)) != 0 {
			out[i] = '1'
		} else {
			out[i] = '0'
		}
	}
	return string(out)
}

func writeActiveFlagNames(buf *bytes.Buffer, bits uint64, bt *model.Type) error {
	buf.WriteByte('[')
	first := true
	for _, m := range bt.GetAllMembersByIndex() {
		pos := m.Labels()[0]
		if bits&(1<<uint(pos)) == 0 {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeJSONLiteral(buf, m.Name()); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// encodeBitsetJSON is a supplemental extension (SPEC_FULL.md §12.6): the
// standard dialect has no defined Bitset projection, so it falls back to
// the bare packed integer; the extended dialect names each field the way
// it already names bitmask flags.
func encodeBitsetJSON(buf *bytes.Buffer, v *data.Value, d Dialect) error {
	bits, err := v.GetBitset(invalidMember)
	if err != nil {
		return err
	}
	bt := v.Type().ResolveAliasEnclosed()
	if d == Standard {
		return writeJSONLiteral(buf, bits)
	}
	buf.WriteByte('{')
	buf.WriteString(`"value":`)
	if err := writeJSONLiteral(buf, bits); err != nil {
		return err
	}
	buf.WriteString(`,"fields":{`)
	offset := uint(0)
	first := true
	for _, m := range bt.GetAllMembersByIndex() {
		width := uint(m.BitBound())
		if m.Name() != "" {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			mask := (uint64(1) << width) - 1
			fieldVal := (bits >> offset) & mask
			if err := writeJSONLiteral(buf, m.Name()); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSONLiteral(buf, fieldVal); err != nil {
				return err
			}
		}
		offset += width
	}
	buf.WriteString("}}")
	return nil
}

func encodeStruct(buf *bytes.Buffer, v *data.Value, d Dialect) error {
	st := v.Type().ResolveAliasEnclosed()
	buf.WriteByte('{')
	for i, m := range st.GetAllMembersByIndex() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONLiteral(buf, m.Name()); err != nil {
			return err
		}
		buf.WriteByte(':')
		child, err := v.ComplexValue(m.Id())
		if err != nil {
			return errs.WithField(err, m.Name())
		}
		if err := encodeValue(buf, child, d); err != nil {
			return errs.WithField(err, m.Name())
		}
	}
	buf.WriteByte('}')
	return nil
}

// encodeUnion renders an unselected union as {} and a selected one as a
// single-key object named for the selected member (spec §4.5 "Unions").
func encodeUnion(buf *bytes.Buffer, v *data.Value, d Dialect) error {
	ut := v.Type().ResolveAliasEnclosed()
	sel, err := v.SelectedMember()
	if err != nil {
		return err
	}
	buf.WriteByte('{')
	if sel != model.MemberIdInvalid {
		m, err := ut.GetMemberById(sel)
		if err != nil {
			return err
		}
		if err := writeJSONLiteral(buf, m.Name()); err != nil {
			return err
		}
		buf.WriteByte(':')
		child, err := v.ComplexValue(sel)
		if err != nil {
			return errs.WithField(err, m.Name())
		}
		if err := encodeValue(buf, child, d); err != nil {
			return errs.WithField(err, m.Name())
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeArray(buf *bytes.Buffer, v *data.Value, d Dialect) error {
	total := v.Type().ResolveAliasEnclosed().TotalArrayBound()
	buf.WriteByte('[')
	for i := model.MemberId(0); i < model.MemberId(total); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		child, err := v.ComplexValue(i)
		if err != nil {
			return errs.WithIndex(err, int(i))
		}
		if err := encodeValue(buf, child, d); err != nil {
			return errs.WithIndex(err, int(i))
		}
	}
	buf.WriteByte(']')
	return nil
}

func encodeSequence(buf *bytes.Buffer, v *data.Value, d Dialect) error {
	n, err := v.SequenceSize()
	if err != nil {
		return err
	}
	buf.WriteByte('[')
	for i := model.MemberId(0); i < model.MemberId(n); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		child, err := v.ComplexValue(i)
		if err != nil {
			return errs.WithIndex(err, int(i))
		}
		if err := encodeValue(buf, child, d); err != nil {
			return errs.WithIndex(err, int(i))
		}
	}
	buf.WriteByte(']')
	return nil
}

// encodeMap renders a Map as an object keyed by the stringified key
// (spec §4.5: "maps to objects keyed by stringified key"). Integer, bool,
// char, string, enum and bitmask keys are supported; floating-point keys,
// although the type model allows them, are rejected with Unsupported.
func encodeMap(buf *bytes.Buffer, v *data.Value, d Dialect) error {
	entries, err := v.MapEntries()
	if err != nil {
		return err
	}
	buf.WriteByte('{')
	for i, pair := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyStr, err := stringifyKey(pair[0])
		if err != nil {
			return err
		}
		if err := writeJSONLiteral(buf, keyStr); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeValue(buf, pair[1], d); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func stringifyKey(key *data.Value) (string, error) {
	k := key.EnclosedKind()
	switch k {
	case kind.String8:
		return key.GetString8(invalidMember)
	case kind.String16:
		return key.GetString16(invalidMember)
	case kind.Enum:
		lit, err := key.GetEnum(invalidMember)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(lit, 10), nil
	case kind.Bitmask:
		bits, err := key.GetBitmask(invalidMember)
		if err != nil {
			return "", err
		}
		return strconv.FormatUint(bits, 10), nil
	case kind.Bool:
		x, err := key.GetBool(invalidMember)
		return strconv.FormatBool(x), err
	case kind.Char8:
		x, err := key.GetChar8(invalidMember)
		return string(rune(x)), err
	case kind.Char16:
		x, err := key.GetChar16(invalidMember)
		return string(x), err
	case kind.Int8:
		x, err := key.GetInt8(invalidMember)
		return strconv.FormatInt(int64(x), 10), err
	case kind.Uint8:
		x, err := key.GetUint8(invalidMember)
		return strconv.FormatUint(uint64(x), 10), err
	case kind.Int16:
		x, err := key.GetInt16(invalidMember)
		return strconv.FormatInt(int64(x), 10), err
	case kind.Uint16:
		x, err := key.GetUint16(invalidMember)
		return strconv.FormatUint(uint64(x), 10), err
	case kind.Int32:
		x, err := key.GetInt32(invalidMember)
		return strconv.FormatInt(int64(x), 10), err
	case kind.Uint32:
		x, err := key.GetUint32(invalidMember)
		return strconv.FormatUint(uint64(x), 10), err
	case kind.Int64:
		x, err := key.GetInt64(invalidMember)
		return strconv.FormatInt(x, 10), err
	case kind.Uint64:
		x, err := key.GetUint64(invalidMember)
		return strconv.FormatUint(x, 10), err
	case kind.Byte:
		x, err := key.GetByte(invalidMember)
		return strconv.FormatUint(uint64(x), 10), err
	default:
		return "", errs.New(errs.Unsupported, "%v cannot serve as a JSON map key", k)
	}
}

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package jsonproj

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"go.fastdds.dev/xtypes/internal/data"
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

// Unmarshal decodes a JSON document into v, which must already exist
// (typically freshly built via data.New on the target type). Both
// dialects are accepted transparently: an Enum or Bitmask scalar reads
// as either its Standard rendering or its Extended object (spec §4.5
// "Deserialization accepts either dialect transparently").
func Unmarshal(raw []byte, v *data.Value) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := decodeValue(dec, v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errs.New(errs.BadParameter, "trailing data after JSON document")
	}
	return nil
}

func decodeValue(dec *json.Decoder, v *data.Value) error {
	k := v.EnclosedKind()
	switch {
	case k.IsPrimitive():
		return decodeScalarJSON(dec, v, invalidMember, v.Type())
	case k.IsString():
		return decodeStringJSON(dec, v, invalidMember, v.Type())
	case k == kind.Enum:
		return decodeEnum(dec, v, invalidMember, v.Type())
	case k == kind.Bitmask:
		return decodeBitmaskJSON(dec, v, invalidMember, v.Type())
	case k == kind.Bitset:
		return decodeBitsetJSON(dec, v)
	case k == kind.Structure:
		return decodeStruct(dec, v)
	case k == kind.Union:
		return decodeUnion(dec, v)
	case k == kind.Array:
		return decodeArray(dec, v)
	case k == kind.Sequence:
		return decodeSequence(dec, v)
	case k == kind.Map:
		return decodeMap(dec, v)
	default:
		return errs.New(errs.Unsupported, "cannot project a value of kind %v from JSON", k)
	}
}

func nextToken(dec *json.Decoder) (json.Token, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, errs.New(errs.BadParameter, "malformed JSON: %v", err)
	}
	return tok, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := nextToken(dec)
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || d != want {
		return errs.New(errs.BadParameter, "expected %q, got %v", want, tok)
	}
	return nil
}

func asNumber(tok json.Token) (json.Number, bool) {
	n, ok := tok.(json.Number)
	return n, ok
}

func decodeScalarJSON(dec *json.Decoder, v *data.Value, id model.MemberId, mt *model.Type) error {
	tok, err := nextToken(dec)
	if err != nil {
		return err
	}
	k := mt.ResolveAliasEnclosed().Kind()
	switch k {
	case kind.Bool:
		b, ok := tok.(bool)
		if !ok {
			return errs.New(errs.BadParameter, "expected a boolean, got %v", tok)
		}
		return v.SetBool(id, b)
	case kind.Char8:
		s, ok := tok.(string)
		if !ok || len(s) == 0 {
			return errs.New(errs.BadParameter, "expected a one-character string, got %v", tok)
		}
		return v.SetChar8(id, s[0])
	case kind.Char16:
		s, ok := tok.(string)
		if !ok {
			return errs.New(errs.BadParameter, "expected a one-character string, got %v", tok)
		}
		r := []rune(s)
		if len(r) == 0 {
			return errs.New(errs.BadParameter, "expected a one-character string, got empty")
		}
		return v.SetChar16(id, r[0])
	case kind.Float128:
		s, ok := tok.(string)
		if !ok {
			return errs.New(errs.BadParameter, "expected a hex-encoded string, got %v", tok)
		}
		b, err := unhex128(s)
		if err != nil {
			return err
		}
		return v.SetFloat128(id, b)
	}

	n, ok := asNumber(tok)
	if !ok {
		return errs.New(errs.BadParameter, "expected a number, got %v", tok)
	}
	switch k {
	case kind.Byte:
		x, err := strconv.ParseUint(string(n), 10, 8)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid byte value %q", n)
		}
		return v.SetByte(id, uint8(x))
	case kind.Int8:
		x, err := strconv.ParseInt(string(n), 10, 8)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid int8 value %q", n)
		}
		return v.SetInt8(id, int8(x))
	case kind.Uint8:
		x, err := strconv.ParseUint(string(n), 10, 8)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid uint8 value %q", n)
		}
		return v.SetUint8(id, uint8(x))
	case kind.Int16:
		x, err := strconv.ParseInt(string(n), 10, 16)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid int16 value %q", n)
		}
		return v.SetInt16(id, int16(x))
	case kind.Uint16:
		x, err := strconv.ParseUint(string(n), 10, 16)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid uint16 value %q", n)
		}
		return v.SetUint16(id, uint16(x))
	case kind.Int32:
		x, err := strconv.ParseInt(string(n), 10, 32)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid int32 value %q", n)
		}
		return v.SetInt32(id, int32(x))
	case kind.Uint32:
		x, err := strconv.ParseUint(string(n), 10, 32)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid uint32 value %q", n)
		}
		return v.SetUint32(id, uint32(x))
	case kind.Int64:
		x, err := strconv.ParseInt(string(n), 10, 64)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid int64 value %q", n)
		}
		return v.SetInt64(id, x)
	case kind.Uint64:
		x, err := strconv.ParseUint(string(n), 10, 64)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid uint64 value %q", n)
		}
		return v.SetUint64(id, x)
	case kind.Float32:
		x, err := strconv.ParseFloat(string(n), 32)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid float32 value %q", n)
		}
		return v.SetFloat32(id, float32(x))
	case kind.Float64:
		x, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return errs.New(errs.BadParameter, "invalid float64 value %q", n)
		}
		return v.SetFloat64(id, x)
	default:
		return errs.New(errs.Unsupported, "%v is not a scalar kind", k)
	}
}

func unhex128(s string) ([16]byte, error) {
	var out [16]byte
	if len(s) != 32 {
		return out, errs.New(errs.BadParameter, "float128 hex string must be 32 characters")
	}
	for i := 0; i < 16; i++ {
		hi, err := hexNibble(s[2*i])
		if err != nil {
			return out, err
		}
		lo, err := hexNibble(s[2*i+1])
		if err != nil {
			return out, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, errs.New(errs.BadParameter, "invalid hex digit %q", c)
	}
}

func decodeStringJSON(dec *json.Decoder, v *data.Value, id model.MemberId, mt *model.Type) error {
	tok, err := nextToken(dec)
	if err != nil {
		return err
	}
	s, ok := tok.(string)
	if !ok {
		return errs.New(errs.BadParameter, "expected a string, got %v", tok)
	}
	k := mt.ResolveAliasEnclosed().Kind()
	switch k {
	case kind.String8:
		return v.SetString8(id, s)
	case kind.String16:
		return v.SetString16(id, s)
	default:
		return errs.New(errs.Unsupported, "%v is not a string kind", k)
	}
}

// decodeEnum accepts either the Standard literal-name string or the
// Extended {"name","value"} object, preferring the explicit "value" when
// both are present since it is unambiguous even if "name" is stale.
func decodeEnum(dec *json.Decoder, v *data.Value, id model.MemberId, mt *model.Type) error {
	tok, err := nextToken(dec)
	if err != nil {
		return err
	}
	et := mt.ResolveAliasEnclosed()

	switch t := tok.(type) {
	case string:
		m, err := et.GetMemberByName(t)
		if err != nil {
			return errs.New(errs.BadParameter, "unknown enumerator %q", t)
		}
		return v.SetEnum(id, m.Labels()[0])
	case json.Delim:
		if t != '{' {
			return errs.New(errs.BadParameter, "expected an enum name or object, got %v", t)
		}
		var name string
		var value int64
		haveValue := false
		for {
			keyTok, err := nextToken(dec)
			if err != nil {
				return err
			}
			if d, ok := keyTok.(json.Delim); ok && d == '}' {
				break
			}
			key, ok := keyTok.(string)
			if !ok {
				return errs.New(errs.BadParameter, "expected a string key in enum object")
			}
			valTok, err := nextToken(dec)
			if err != nil {
				return err
			}
			switch key {
			case "name":
				s, ok := valTok.(string)
				if !ok {
					return errs.New(errs.BadParameter, "enum \"name\" must be a string")
				}
				name = s
			case "value":
				n, ok := asNumber(valTok)
				if !ok {
					return errs.New(errs.BadParameter, "enum \"value\" must be a number")
				}
				x, err := strconv.ParseInt(string(n), 10, 64)
				if err != nil {
					return errs.New(errs.BadParameter, "invalid enum value %q", n)
				}
				value, haveValue = x, true
			}
		}
		if haveValue {
			return v.SetEnum(id, value)
		}
		m, err := et.GetMemberByName(name)
		if err != nil {
			return errs.New(errs.BadParameter, "unknown enumerator %q", name)
		}
		return v.SetEnum(id, m.Labels()[0])
	default:
		return errs.New(errs.BadParameter, "expected an enum name or object, got %v", tok)
	}
}

// decodeBitmaskJSON accepts either the Standard bare integer or the
// Extended object, reading its "value" field.
func decodeBitmaskJSON(dec *json.Decoder, v *data.Value, id model.MemberId, mt *model.Type) error {
	bits, err := decodePackedWordJSON(dec)
	if err != nil {
		return err
	}
	return v.SetBitmask(id, bits)
}

func decodeBitsetJSON(dec *json.Decoder, v *data.Value) error {
	bits, err := decodePackedWordJSON(dec)
	if err != nil {
		return err
	}
	return v.SetBitset(invalidMember, bits)
}

// decodePackedWordJSON reads either a bare integer or an object carrying
// a "value" field, skipping any other keys ("binary", "active",
// "fields") since they are derived and redundant with "value".
func decodePackedWordJSON(dec *json.Decoder) (uint64, error) {
	tok, err := nextToken(dec)
	if err != nil {
		return 0, err
	}
	switch t := tok.(type) {
	case json.Number:
		x, err := strconv.ParseUint(string(t), 10, 64)
		if err != nil {
			return 0, errs.New(errs.BadParameter, "invalid packed-word value %q", t)
		}
		return x, nil
	case json.Delim:
		if t != '{' {
			return 0, errs.New(errs.BadParameter, "expected a number or object, got %v", t)
		}
		var value uint64
		haveValue := false
		for {
			keyTok, err := nextToken(dec)
			if err != nil {
				return 0, err
			}
			if d, ok := keyTok.(json.Delim); ok && d == '}' {
				break
			}
			key, ok := keyTok.(string)
			if !ok {
				return 0, errs.New(errs.BadParameter, "expected a string key")
			}
			if key == "value" {
				valTok, err := nextToken(dec)
				if err != nil {
					return 0, err
				}
				n, ok := asNumber(valTok)
				if !ok {
					return 0, errs.New(errs.BadParameter, "\"value\" must be a number")
				}
				x, err := strconv.ParseUint(string(n), 10, 64)
				if err != nil {
					return 0, errs.New(errs.BadParameter, "invalid packed-word value %q", n)
				}
				value, haveValue = x, true
				continue
			}
			if err := skipJSONValue(dec); err != nil {
				return 0, err
			}
		}
		if !haveValue {
			return 0, errs.New(errs.BadParameter, "packed-word object is missing \"value\"")
		}
		return value, nil
	default:
		return 0, errs.New(errs.BadParameter, "expected a number or object, got %v", tok)
	}
}

// skipJSONValue consumes and discards one complete JSON value, used to
// skip derived fields ("binary", "active", "fields") the decoder doesn't
// need to reconstruct a packed word.
func skipJSONValue(dec *json.Decoder) error {
	tok, err := nextToken(dec)
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := nextToken(dec)
		if err != nil {
			return err
		}
		if dd, ok := tok.(json.Delim); ok {
			switch dd {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	_ = d
	return nil
}

func decodeStruct(dec *json.Decoder, v *data.Value) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	st := v.Type().ResolveAliasEnclosed()
	for {
		tok, err := nextToken(dec)
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			break
		}
		key, ok := tok.(string)
		if !ok {
			return errs.New(errs.BadParameter, "expected a member name key")
		}
		m, err := st.GetMemberByName(key)
		if err != nil {
			// An unrecognized key is tolerated, mirroring the wire
			// codec's must-understand semantics: only a member marked
			// must-understand is mandatory, and this is a member the
			// writer didn't know about at all.
			if err := skipJSONValue(dec); err != nil {
				return err
			}
			continue
		}
		child, err := data.New(m.Type())
		if err != nil {
			return errs.WithField(err, key)
		}
		if err := decodeValue(dec, child); err != nil {
			return errs.WithField(err, key)
		}
		if err := v.SetComplexValue(m.Id(), child); err != nil {
			return errs.WithField(err, key)
		}
	}
	return nil
}

func decodeUnion(dec *json.Decoder, v *data.Value) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	ut := v.Type().ResolveAliasEnclosed()

	tok, err := nextToken(dec)
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); ok && d == '}' {
		return nil
	}
	key, ok := tok.(string)
	if !ok {
		return errs.New(errs.BadParameter, "expected the selected member name")
	}
	m, err := ut.GetMemberByName(key)
	if err != nil {
		return errs.New(errs.BadParameter, "unknown union member %q", key)
	}
	if len(m.Labels()) > 0 {
		if err := v.SetDiscriminator(m.Labels()[0]); err != nil {
			return errs.WithField(err, key)
		}
	} else if m.IsDefaultLabel() {
		if err := v.SetDiscriminator(ut.ImplicitDefaultDiscriminatorValue()); err != nil {
			return errs.WithField(err, key)
		}
	}
	child, err := data.New(m.Type())
	if err != nil {
		return errs.WithField(err, key)
	}
	if err := decodeValue(dec, child); err != nil {
		return errs.WithField(err, key)
	}
	if err := v.SetComplexValue(m.Id(), child); err != nil {
		return errs.WithField(err, key)
	}
	return expectDelim(dec, '}')
}

func decodeArray(dec *json.Decoder, v *data.Value) error {
	if err := expectDelim(dec, '['); err != nil {
		return err
	}
	at := v.Type().ResolveAliasEnclosed()
	total := at.TotalArrayBound()
	var i model.MemberId
	for dec.More() {
		if uint32(i) >= total {
			return errs.LengthError{Actual: uint64(i) + 1, Max: uint64(total), What: "array"}
		}
		child, err := data.New(at.ElementType())
		if err != nil {
			return errs.WithIndex(err, int(i))
		}
		if err := decodeValue(dec, child); err != nil {
			return errs.WithIndex(err, int(i))
		}
		if err := v.SetComplexValue(i, child); err != nil {
			return errs.WithIndex(err, int(i))
		}
		i++
	}
	return expectDelim(dec, ']')
}

func decodeSequence(dec *json.Decoder, v *data.Value) error {
	if err := expectDelim(dec, '['); err != nil {
		return err
	}
	st := v.Type().ResolveAliasEnclosed()
	var n uint32
	for dec.More() {
		child, err := data.New(st.ElementType())
		if err != nil {
			return errs.WithIndex(err, int(n))
		}
		if err := decodeValue(dec, child); err != nil {
			return errs.WithIndex(err, int(n))
		}
		if err := v.SequenceAppend(child); err != nil {
			return errs.WithIndex(err, int(n))
		}
		n++
	}
	return expectDelim(dec, ']')
}

func decodeMap(dec *json.Decoder, v *data.Value) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	mt := v.Type().ResolveAliasEnclosed()
	for {
		tok, err := nextToken(dec)
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			break
		}
		keyStr, ok := tok.(string)
		if !ok {
			return errs.New(errs.BadParameter, "expected a string map key")
		}
		key, err := parseKey(keyStr, mt.KeyElementType())
		if err != nil {
			return err
		}
		val, err := data.New(mt.ElementType())
		if err != nil {
			return errs.WithField(err, keyStr)
		}
		if err := decodeValue(dec, val); err != nil {
			return errs.WithField(err, keyStr)
		}
		if err := v.MapPut(key, val); err != nil {
			return errs.WithField(err, keyStr)
		}
	}
	return nil
}

func parseKey(s string, keyType *model.Type) (*data.Value, error) {
	key, err := data.New(keyType)
	if err != nil {
		return nil, err
	}
	k := keyType.ResolveAliasEnclosed().Kind()
	switch k {
	case kind.String8:
		return key, key.SetString8(invalidMember, s)
	case kind.String16:
		return key, key.SetString16(invalidMember, s)
	case kind.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid boolean map key %q", s)
		}
		return key, key.SetBool(invalidMember, b)
	case kind.Char8:
		if len(s) == 0 {
			return nil, errs.New(errs.BadParameter, "empty char8 map key")
		}
		return key, key.SetChar8(invalidMember, s[0])
	case kind.Char16:
		r := []rune(s)
		if len(r) == 0 {
			return nil, errs.New(errs.BadParameter, "empty char16 map key")
		}
		return key, key.SetChar16(invalidMember, r[0])
	case kind.Enum:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid enum map key %q", s)
		}
		return key, key.SetEnum(invalidMember, n)
	case kind.Bitmask:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid bitmask map key %q", s)
		}
		return key, key.SetBitmask(invalidMember, n)
	case kind.Byte:
		n, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid byte map key %q", s)
		}
		return key, key.SetByte(invalidMember, uint8(n))
	case kind.Int8:
		n, err := strconv.ParseInt(s, 10, 8)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid int8 map key %q", s)
		}
		return key, key.SetInt8(invalidMember, int8(n))
	case kind.Uint8:
		n, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid uint8 map key %q", s)
		}
		return key, key.SetUint8(invalidMember, uint8(n))
	case kind.Int16:
		n, err := strconv.ParseInt(s, 10, 16)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid int16 map key %q", s)
		}
		return key, key.SetInt16(invalidMember, int16(n))
	case kind.Uint16:
		n, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid uint16 map key %q", s)
		}
		return key, key.SetUint16(invalidMember, uint16(n))
	case kind.Int32:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid int32 map key %q", s)
		}
		return key, key.SetInt32(invalidMember, int32(n))
	case kind.Uint32:
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid uint32 map key %q", s)
		}
		return key, key.SetUint32(invalidMember, uint32(n))
	case kind.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid int64 map key %q", s)
		}
		return key, key.SetInt64(invalidMember, n)
	case kind.Uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid uint64 map key %q", s)
		}
		return key, key.SetUint64(invalidMember, n)
	default:
		return nil, errs.New(errs.Unsupported, "%v cannot serve as a JSON map key", k)
	}
}

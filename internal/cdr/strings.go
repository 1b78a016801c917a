// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package cdr

import (
	"go.fastdds.dev/xtypes/internal/data"
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"

	"golang.org/x/text/encoding/unicode"
)

// encodeString writes a String8 (narrow, NUL-terminated, length-prefixed)
// or String16 (wide, code-unit-counted) value. String16 round-trips
// through golang.org/x/text/encoding/unicode for UTF-16 transcoding,
// generalizing the wide-character handling tsgonest-tsgonest needs for
// its own cross-encoding structural comparisons.
func encodeString(w *Writer, v *data.Value, id model.MemberId, mt *model.Type) error {
	k := mt.ResolveAliasEnclosed().Kind()
	switch k {
	case kind.String8:
		s, err := v.GetString8(id)
		if err != nil {
			return err
		}
		if err := w.WriteU32(uint32(len(s)) + 1); err != nil {
			return err
		}
		if err := w.writeRaw([]byte(s)); err != nil {
			return err
		}
		return w.writeRaw([]byte{0})
	case kind.String16:
		s, err := v.GetString16(id)
		if err != nil {
			return err
		}
		units, err := utf16Encode(s, w.order)
		if err != nil {
			return err
		}
		if err := w.WriteU32(uint32(len(units) / 2)); err != nil {
			return err
		}
		return w.writeRaw(units)
	default:
		return errs.New(errs.Unsupported, "%v is not a string kind", k)
	}
}

func decodeString(r *Reader, v *data.Value, id model.MemberId, mt *model.Type) error {
	k := mt.ResolveAliasEnclosed().Kind()
	switch k {
	case kind.String8:
		n, err := r.ReadU32()
		if err != nil {
			return err
		}
		if n == 0 {
			return errs.New(errs.BadParameter, "string8 length prefix must include the NUL terminator")
		}
		b, err := r.readRaw(int(n))
		if err != nil {
			return err
		}
		return v.SetString8(id, string(b[:n-1]))
	case kind.String16:
		n, err := r.ReadU32()
		if err != nil {
			return err
		}
		b, err := r.readRaw(int(n) * 2)
		if err != nil {
			return err
		}
		s, err := utf16Decode(b, r.order)
		if err != nil {
			return err
		}
		return v.SetString16(id, s)
	default:
		return errs.New(errs.Unsupported, "%v is not a string kind", k)
	}
}

func utf16Encode(s string, order byteOrderLike) ([]byte, error) {
	enc := utf16Encoding(order).NewEncoder()
	out, err := enc.String(s)
	if err != nil {
		return nil, errs.New(errs.BadParameter, "wide string transcoding failed: %v", err)
	}
	return []byte(out), nil
}

func utf16Decode(b []byte, order byteOrderLike) (string, error) {
	dec := utf16Encoding(order).NewDecoder()
	out, err := dec.String(string(b))
	if err != nil {
		return "", errs.New(errs.BadParameter, "wide string transcoding failed: %v", err)
	}
	return out, nil
}

// byteOrderLike is satisfied by encoding/binary.ByteOrder; named here so
// this file need not import encoding/binary directly for the one check it
// performs.
type byteOrderLike interface {
	Uint16([]byte) uint16
}

func utf16Encoding(order byteOrderLike) *unicode.Encoding {
	if order.Uint16([]byte{0x00, 0x01}) == 1 {
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	}
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
}

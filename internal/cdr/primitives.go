// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package cdr

import (
	"go.fastdds.dev/xtypes/internal/data"
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

// encodeScalar writes the primitive, char or enum/bitmask member id's
// value to w. Aggregates, collections and strings are handled by their
// own codec files.
func encodeScalar(w *Writer, v *data.Value, id model.MemberId, mt *model.Type) error {
	k := mt.ResolveAliasEnclosed().Kind()
	switch k {
	case kind.Bool:
		x, err := v.GetBool(id)
		if err != nil {
			return err
		}
		return w.WriteBool(x)
	case kind.Byte:
		x, err := v.GetByte(id)
		if err != nil {
			return err
		}
		return w.WriteU8(x)
	case kind.Int8:
		x, err := v.GetInt8(id)
		if err != nil {
			return err
		}
		return w.WriteU8(uint8(x))
	case kind.Uint8:
		x, err := v.GetUint8(id)
		if err != nil {
			return err
		}
		return w.WriteU8(x)
	case kind.Int16:
		x, err := v.GetInt16(id)
		if err != nil {
			return err
		}
		return w.WriteU16(uint16(x))
	case kind.Uint16:
		x, err := v.GetUint16(id)
		if err != nil {
			return err
		}
		return w.WriteU16(x)
	case kind.Int32:
		x, err := v.GetInt32(id)
		if err != nil {
			return err
		}
		return w.WriteU32(uint32(x))
	case kind.Uint32:
		x, err := v.GetUint32(id)
		if err != nil {
			return err
		}
		return w.WriteU32(x)
	case kind.Int64:
		x, err := v.GetInt64(id)
		if err != nil {
			return err
		}
		return w.WriteU64(uint64(x))
	case kind.Uint64:
		x, err := v.GetUint64(id)
		if err != nil {
			return err
		}
		return w.WriteU64(x)
	case kind.Float32:
		x, err := v.GetFloat32(id)
		if err != nil {
			return err
		}
		return w.WriteU32(float32bits(x))
	case kind.Float64:
		x, err := v.GetFloat64(id)
		if err != nil {
			return err
		}
		return w.WriteU64(float64bits(x))
	case kind.Float128:
		x, err := v.GetFloat128(id)
		if err != nil {
			return err
		}
		if err := w.Align(8); err != nil {
			return err
		}
		return w.writeRaw(x[:])
	case kind.Char8:
		x, err := v.GetChar8(id)
		if err != nil {
			return err
		}
		return w.WriteU8(x)
	case kind.Char16:
		x, err := v.GetChar16(id)
		if err != nil {
			return err
		}
		return w.WriteU32(uint32(x))
	case kind.Enum:
		x, err := v.GetEnum(id)
		if err != nil {
			return err
		}
		return w.WriteU32(uint32(int32(x)))
	case kind.Bitmask:
		return encodeBitmask(w, v, id, mt)
	default:
		return errs.New(errs.Unsupported, "%v is not a scalar kind", k)
	}
}

func decodeScalar(r *Reader, v *data.Value, id model.MemberId, mt *model.Type) error {
	k := mt.ResolveAliasEnclosed().Kind()
	switch k {
	case kind.Bool:
		x, err := r.ReadBool()
		if err != nil {
			return err
		}
		return v.SetBool(id, x)
	case kind.Byte:
		x, err := r.ReadU8()
		if err != nil {
			return err
		}
		return v.SetByte(id, x)
	case kind.Int8:
		x, err := r.ReadU8()
		if err != nil {
			return err
		}
		return v.SetInt8(id, int8(x))
	case kind.Uint8:
		x, err := r.ReadU8()
		if err != nil {
			return err
		}
		return v.SetUint8(id, x)
	case kind.Int16:
		x, err := r.ReadU16()
		if err != nil {
			return err
		}
		return v.SetInt16(id, int16(x))
	case kind.Uint16:
		x, err := r.ReadU16()
		if err != nil {
			return err
		}
		return v.SetUint16(id, x)
	case kind.Int32:
		x, err := r.ReadU32()
		if err != nil {
			return err
		}
		return v.SetInt32(id, int32(x))
	case kind.Uint32:
		x, err := r.ReadU32()
		if err != nil {
			return err
		}
		return v.SetUint32(id, x)
	case kind.Int64:
		x, err := r.ReadU64()
		if err != nil {
			return err
		}
		return v.SetInt64(id, int64(x))
	case kind.Uint64:
		x, err := r.ReadU64()
		if err != nil {
			return err
		}
		return v.SetUint64(id, x)
	case kind.Float32:
		x, err := r.ReadU32()
		if err != nil {
			return err
		}
		return v.SetFloat32(id, float32frombits(x))
	case kind.Float64:
		x, err := r.ReadU64()
		if err != nil {
			return err
		}
		return v.SetFloat64(id, float64frombits(x))
	case kind.Float128:
		if err := r.Align(8); err != nil {
			return err
		}
		b, err := r.readRaw(16)
		if err != nil {
			return err
		}
		var x [16]byte
		copy(x[:], b)
		return v.SetFloat128(id, x)
	case kind.Char8:
		x, err := r.ReadU8()
		if err != nil {
			return err
		}
		return v.SetChar8(id, x)
	case kind.Char16:
		x, err := r.ReadU32()
		if err != nil {
			return err
		}
		return v.SetChar16(id, rune(x))
	case kind.Enum:
		x, err := r.ReadU32()
		if err != nil {
			return err
		}
		return v.SetEnum(id, int64(int32(x)))
	case kind.Bitmask:
		return decodeBitmask(r, v, id, mt)
	default:
		return errs.New(errs.Unsupported, "%v is not a scalar kind", k)
	}
}


// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package cdr

import (
	"go.fastdds.dev/xtypes/internal/data"
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/model"
)

// encodeBitmask and decodeBitmask handle the Bitmask and Bitset
// packed-word kinds, whose wire width is the type's declared storage
// width (8/16/32/64 bits) rather than a fixed natural width.
func encodeBitmask(w *Writer, v *data.Value, id model.MemberId, mt *model.Type) error {
	bits, err := v.GetBitmask(id)
	if err != nil {
		return err
	}
	return writePackedWord(w, mt.ResolveAliasEnclosed().StorageWidthBits(), bits)
}

func decodeBitmask(r *Reader, v *data.Value, id model.MemberId, mt *model.Type) error {
	bits, err := readPackedWord(r, mt.ResolveAliasEnclosed().StorageWidthBits())
	if err != nil {
		return err
	}
	return v.SetBitmask(id, bits)
}

// encodeBitset and decodeBitset handle a Bitset value itself (not a
// Bitset-typed member access, which instead is routed through
// encodeAggregate like any other aggregate kind's fields would be, except
// a Bitset's storage is a single packed word rather than a child table).
func encodeBitset(w *Writer, v *data.Value) error {
	bits, err := v.GetBitset(model.MemberIdInvalid)
	if err != nil {
		return err
	}
	width := v.Type().ResolveAliasEnclosed().StorageWidthBits()
	return writePackedWord(w, width, bits)
}

func decodeBitset(r *Reader, v *data.Value) error {
	width := v.Type().ResolveAliasEnclosed().StorageWidthBits()
	bits, err := readPackedWord(r, width)
	if err != nil {
		return err
	}
	return v.SetBitset(model.MemberIdInvalid, bits)
}

func writePackedWord(w *Writer, width int, bits uint64) error {
	switch width {
	case 8:
		return w.WriteU8(uint8(bits))
	case 16:
		return w.WriteU16(uint16(bits))
	case 32:
		return w.WriteU32(uint32(bits))
	case 64:
		return w.WriteU64(bits)
	default:
		return errs.New(errs.Unsupported, "unsupported packed storage width %d", width)
	}
}

func readPackedWord(r *Reader, width int) (uint64, error) {
	switch width {
	case 8:
		x, err := r.ReadU8()
		return uint64(x), err
	case 16:
		x, err := r.ReadU16()
		return uint64(x), err
	case 32:
		x, err := r.ReadU32()
		return uint64(x), err
	case 64:
		return r.ReadU64()
	default:
		return 0, errs.New(errs.Unsupported, "unsupported packed storage width %d", width)
	}
}

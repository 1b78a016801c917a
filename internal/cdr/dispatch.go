// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package cdr

import (
	"go.fastdds.dev/xtypes/internal/data"
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

const invalidMember = model.MemberIdInvalid

// encodeBody writes v's value to w without an encapsulation header,
// dispatching on its resolved kind exactly the way the teacher's
// buildCodec switches on reflect.Kind (internal/coder/coder.go), except
// the switch key here is the runtime model.Kind carried by v's Type.
func encodeBody(w *Writer, v *data.Value, rep Representation) error {
	k := v.EnclosedKind()
	switch {
	case k.IsPrimitive(), k == kind.Enum, k == kind.Bitmask:
		return encodeScalar(w, v, invalidMember, v.Type())
	case k.IsString():
		return encodeString(w, v, invalidMember, v.Type())
	case k == kind.Bitset:
		return encodeBitset(w, v)
	case k == kind.Structure:
		return encodeStruct(w, v, rep)
	case k == kind.Union:
		return encodeUnion(w, v, rep)
	case k == kind.Array:
		return encodeArray(w, v, rep)
	case k == kind.Sequence:
		return encodeSequence(w, v, rep)
	case k == kind.Map:
		return encodeMap(w, v, rep)
	default:
		return errs.New(errs.Unsupported, "cannot encode a value of kind %v", k)
	}
}

func decodeBody(r *Reader, v *data.Value, rep Representation) error {
	k := v.EnclosedKind()
	switch {
	case k.IsPrimitive(), k == kind.Enum, k == kind.Bitmask:
		return decodeScalar(r, v, invalidMember, v.Type())
	case k.IsString():
		return decodeString(r, v, invalidMember, v.Type())
	case k == kind.Bitset:
		return decodeBitset(r, v)
	case k == kind.Structure:
		return decodeStruct(r, v, rep)
	case k == kind.Union:
		return decodeUnion(r, v, rep)
	case k == kind.Array:
		return decodeArray(r, v, rep)
	case k == kind.Sequence:
		return decodeSequence(r, v, rep)
	case k == kind.Map:
		return decodeMap(r, v, rep)
	default:
		return errs.New(errs.Unsupported, "cannot decode a value of kind %v", k)
	}
}

func lengthExceedsBound(actual, max uint32, what string) error {
	return errs.LengthError{Actual: uint64(actual), Max: uint64(max), What: what}
}

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package cdr

import (
	"go.fastdds.dev/xtypes/internal/data"
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

// encodeUnion writes a Union's discriminator followed by its selected
// member's body, if any (spec §4.2 "Union coherence"). Final and
// XCDR1-Appendable unions write the discriminator and body back to back;
// XCDR2-Appendable wraps both in a delimiter; Mutable frames the selected
// member behind a parameter header so a future reader can tell an absent
// selection from a present one even without decoding the discriminator's
// meaning.
func encodeUnion(w *Writer, v *data.Value, rep Representation) error {
	ut := v.Type().ResolveAliasEnclosed()
	disc, err := v.Discriminator()
	if err != nil {
		return err
	}

	switch {
	case ut.Extensibility() == model.Mutable:
		return encodeUnionMutable(w, v, ut, disc, rep)
	case ut.Extensibility() == model.Appendable && rep == XCDRv2:
		return encodeDelimitedUnion(w, v, ut, disc, rep)
	default:
		return encodeUnionPlain(w, v, ut, disc, rep)
	}
}

func decodeUnion(r *Reader, v *data.Value, rep Representation) error {
	ut := v.Type().ResolveAliasEnclosed()

	switch {
	case ut.Extensibility() == model.Mutable:
		return decodeUnionMutable(r, v, ut, rep)
	case ut.Extensibility() == model.Appendable && rep == XCDRv2:
		return decodeDelimitedUnion(r, v, ut, rep)
	default:
		return decodeUnionPlain(r, v, ut, rep)
	}
}

func encodeUnionPlain(w *Writer, v *data.Value, ut *model.Type, disc int64, rep Representation) error {
	if err := writeDiscriminator(w, ut.DiscriminatorType(), disc); err != nil {
		return err
	}
	sel, err := v.SelectedMember()
	if err != nil {
		return err
	}
	if sel == model.MemberIdInvalid {
		return nil
	}
	child, err := v.ComplexValue(sel)
	if err != nil {
		return err
	}
	return encodeBody(w, child, rep)
}

func decodeUnionPlain(r *Reader, v *data.Value, ut *model.Type, rep Representation) error {
	disc, err := readDiscriminator(r, ut.DiscriminatorType())
	if err != nil {
		return err
	}
	if err := v.SetDiscriminator(disc); err != nil {
		return err
	}
	sel, err := v.SelectedMember()
	if err != nil {
		return err
	}
	if sel == model.MemberIdInvalid {
		return nil
	}
	m, err := ut.GetMemberById(sel)
	if err != nil {
		return err
	}
	child, err := data.New(m.Type())
	if err != nil {
		return err
	}
	if err := decodeBody(r, child, rep); err != nil {
		return err
	}
	return v.SetComplexValue(sel, child)
}

func encodeDelimitedUnion(w *Writer, v *data.Value, ut *model.Type, disc int64, rep Representation) error {
	if err := w.Align(4); err != nil {
		return err
	}
	lenOffset := w.Pos()
	if err := w.WriteU32(0); err != nil {
		return err
	}
	bodyStart := w.Pos()
	if err := encodeUnionPlain(w, v, ut, disc, rep); err != nil {
		return err
	}
	w.patchU32(lenOffset, uint32(w.Pos()-bodyStart))
	return nil
}

func decodeDelimitedUnion(r *Reader, v *data.Value, ut *model.Type, rep Representation) error {
	n, err := r.ReadU32()
	if err != nil {
		return err
	}
	end := r.pos + int(n)
	if err := decodeUnionPlain(r, v, ut, rep); err != nil {
		return err
	}
	if r.pos < end {
		if _, err := r.readRaw(end - r.pos); err != nil {
			return err
		}
	}
	return nil
}

func encodeUnionMutable(w *Writer, v *data.Value, ut *model.Type, disc int64, rep Representation) error {
	if err := writeDiscriminator(w, ut.DiscriminatorType(), disc); err != nil {
		return err
	}
	sel, err := v.SelectedMember()
	if err != nil {
		return err
	}
	if sel == model.MemberIdInvalid {
		return nil
	}
	child, err := v.ComplexValue(sel)
	if err != nil {
		return err
	}
	if err := w.Align(4); err != nil {
		return err
	}
	if err := w.WriteU32(uint32(sel)); err != nil {
		return err
	}
	lenOffset := w.Pos()
	if err := w.WriteU32(0); err != nil {
		return err
	}
	bodyStart := w.Pos()
	if err := encodeBody(w, child, rep); err != nil {
		return err
	}
	w.patchU32(lenOffset, uint32(w.Pos()-bodyStart))
	return nil
}

func decodeUnionMutable(r *Reader, v *data.Value, ut *model.Type, rep Representation) error {
	disc, err := readDiscriminator(r, ut.DiscriminatorType())
	if err != nil {
		return err
	}
	if err := v.SetDiscriminator(disc); err != nil {
		return err
	}
	sel, err := v.SelectedMember()
	if err != nil {
		return err
	}
	if sel == model.MemberIdInvalid {
		return nil
	}
	if err := r.Align(4); err != nil {
		return err
	}
	id32, err := r.ReadU32()
	if err != nil {
		return err
	}
	n, err := r.ReadU32()
	if err != nil {
		return err
	}
	if model.MemberId(id32) != sel {
		return errs.New(errs.BadParameter, "union body member id %d does not match discriminator selection %d", id32, sel)
	}
	m, err := ut.GetMemberById(sel)
	if err != nil {
		return err
	}
	bodyStart := r.pos
	child, err := data.New(m.Type())
	if err != nil {
		return err
	}
	if err := decodeBody(r, child, rep); err != nil {
		return err
	}
	if consumed := r.pos - bodyStart; consumed < int(n) {
		if _, err := r.readRaw(int(n) - consumed); err != nil {
			return err
		}
	}
	return v.SetComplexValue(sel, child)
}

// writeDiscriminator and readDiscriminator encode a union discriminator
// value in its declared wire kind, which must be one of the discrete
// kinds accepted by model.Kind.IsDiscrete (spec §3.1).
func writeDiscriminator(w *Writer, dt *model.Type, v int64) error {
	k := dt.ResolveAliasEnclosed().Kind()
	switch k {
	case kind.Bool:
		return w.WriteBool(v != 0)
	case kind.Char8:
		return w.WriteU8(uint8(v))
	case kind.Char16:
		return w.WriteU32(uint32(v))
	case kind.Int8, kind.Uint8:
		return w.WriteU8(uint8(v))
	case kind.Int16, kind.Uint16:
		return w.WriteU16(uint16(v))
	case kind.Int32, kind.Uint32, kind.Enum:
		return w.WriteU32(uint32(v))
	case kind.Int64, kind.Uint64:
		return w.WriteU64(uint64(v))
	case kind.Bitmask:
		return writePackedWord(w, dt.ResolveAliasEnclosed().StorageWidthBits(), uint64(v))
	default:
		return errs.New(errs.BadParameter, "%v is not a valid discriminator kind", k)
	}
}

func readDiscriminator(r *Reader, dt *model.Type) (int64, error) {
	k := dt.ResolveAliasEnclosed().Kind()
	switch k {
	case kind.Bool:
		x, err := r.ReadBool()
		if x {
			return 1, err
		}
		return 0, err
	case kind.Char8, kind.Int8, kind.Uint8:
		x, err := r.ReadU8()
		return int64(x), err
	case kind.Int16, kind.Uint16:
		x, err := r.ReadU16()
		return int64(x), err
	case kind.Int32:
		x, err := r.ReadU32()
		return int64(int32(x)), err
	case kind.Uint32, kind.Char16, kind.Enum:
		x, err := r.ReadU32()
		return int64(x), err
	case kind.Int64:
		x, err := r.ReadU64()
		return int64(x), err
	case kind.Uint64:
		x, err := r.ReadU64()
		return int64(x), err
	case kind.Bitmask:
		x, err := readPackedWord(r, dt.ResolveAliasEnclosed().StorageWidthBits())
		return int64(x), err
	default:
		return 0, errs.New(errs.BadParameter, "%v is not a valid discriminator kind", k)
	}
}

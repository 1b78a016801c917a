// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package cdr

import (
	"go.fastdds.dev/xtypes/internal/data"
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/model"
)

// encodeStruct frames a Structure's members per its extensibility (spec
// §4.3 "Extensibility and framing"): Final and XCDR1-Appendable write
// members back to back with no header; XCDR2-Appendable prefixes a
// 4-byte delimiter carrying the encoded body length; Mutable frames every
// member behind a (member id, length) parameter header terminated by a
// sentinel, letting a reader skip members it doesn't recognize and detect
// missing must-understand members.
func encodeStruct(w *Writer, v *data.Value, rep Representation) error {
	st := v.Type().ResolveAliasEnclosed()
	ext := st.Extensibility()

	switch {
	case ext == model.Mutable:
		return encodeMutableBody(w, v, st, rep)
	case ext == model.Appendable && rep == XCDRv2:
		return encodeDelimitedBody(w, v, st, rep)
	default:
		return encodePlainStructBody(w, v, st, rep)
	}
}

func decodeStruct(r *Reader, v *data.Value, rep Representation) error {
	st := v.Type().ResolveAliasEnclosed()
	ext := st.Extensibility()

	switch {
	case ext == model.Mutable:
		return decodeMutableBody(r, v, st, rep)
	case ext == model.Appendable && rep == XCDRv2:
		return decodeDelimitedBody(r, v, st, rep)
	default:
		return decodePlainStructBody(r, v, st, rep)
	}
}

func encodePlainStructBody(w *Writer, v *data.Value, st *model.Type, rep Representation) error {
	for _, m := range st.GetAllMembersByIndex() {
		if m.IsNonSerialized() {
			continue
		}
		child, err := v.ComplexValue(m.Id())
		if err != nil {
			return errs.WithField(err, m.Name())
		}
		if err := encodeBody(w, child, rep); err != nil {
			return errs.WithField(err, m.Name())
		}
	}
	return nil
}

func decodePlainStructBody(r *Reader, v *data.Value, st *model.Type, rep Representation) error {
	for _, m := range st.GetAllMembersByIndex() {
		if m.IsNonSerialized() {
			continue
		}
		child, err := data.New(m.Type())
		if err != nil {
			return errs.WithField(err, m.Name())
		}
		if err := decodeBody(r, child, rep); err != nil {
			return errs.WithField(err, m.Name())
		}
		if err := v.SetComplexValue(m.Id(), child); err != nil {
			return errs.WithField(err, m.Name())
		}
	}
	return nil
}

func encodeDelimitedBody(w *Writer, v *data.Value, st *model.Type, rep Representation) error {
	if err := w.Align(4); err != nil {
		return err
	}
	lenOffset := w.Pos()
	if err := w.WriteU32(0); err != nil {
		return err
	}
	bodyStart := w.Pos()
	if err := encodePlainStructBody(w, v, st, rep); err != nil {
		return err
	}
	w.patchU32(lenOffset, uint32(w.Pos()-bodyStart))
	return nil
}

func decodeDelimitedBody(r *Reader, v *data.Value, st *model.Type, rep Representation) error {
	n, err := r.ReadU32()
	if err != nil {
		return err
	}
	end := r.pos + int(n)
	if err := decodePlainStructBody(r, v, st, rep); err != nil {
		return err
	}
	if r.pos < end {
		r.log.TrailingBytes(end-r.pos, r.pos)
		if _, err := r.readRaw(end - r.pos); err != nil {
			return err
		}
	}
	return nil
}

// plMemberHeaderSize is the byte width of each PL-CDR parameter header
// (member id, then payload length), applied uniformly across XCDR1 and
// XCDR2 — a deliberate simplification of the real wire format's narrower
// short-form header, documented in the design ledger.
const plMemberHeaderSize = 8

func encodeMutableBody(w *Writer, v *data.Value, st *model.Type, rep Representation) error {
	for _, m := range st.GetAllMembersByIndex() {
		if m.IsNonSerialized() {
			continue
		}
		child, err := v.ComplexValue(m.Id())
		if err != nil {
			return errs.WithField(err, m.Name())
		}
		if err := w.Align(4); err != nil {
			return err
		}
		if err := w.WriteU32(uint32(m.Id())); err != nil {
			return err
		}
		lenOffset := w.Pos()
		if err := w.WriteU32(0); err != nil {
			return err
		}
		bodyStart := w.Pos()
		if err := encodeBody(w, child, rep); err != nil {
			return errs.WithField(err, m.Name())
		}
		w.patchU32(lenOffset, uint32(w.Pos()-bodyStart))
	}
	if err := w.Align(4); err != nil {
		return err
	}
	if err := w.WriteU32(uint32(model.MemberIdInvalid)); err != nil {
		return err
	}
	return w.WriteU32(0)
}

func decodeMutableBody(r *Reader, v *data.Value, st *model.Type, rep Representation) error {
	seen := make(map[model.MemberId]bool)
	for {
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
		id := model.MemberId(id32)
		if id == model.MemberIdInvalid {
			break
		}
		m, merr := st.GetMemberById(id)
		if merr != nil {
			r.log.SkippedMember(id32, n)
			if _, err := r.readRaw(int(n)); err != nil {
				return err
			}
			continue
		}
		bodyStart := r.pos
		child, err := data.New(m.Type())
		if err != nil {
			return errs.WithField(err, m.Name())
		}
		if err := decodeBody(r, child, rep); err != nil {
			return errs.WithField(err, m.Name())
		}
		if err := v.SetComplexValue(id, child); err != nil {
			return errs.WithField(err, m.Name())
		}
		if consumed := r.pos - bodyStart; consumed < int(n) {
			if _, err := r.readRaw(int(n) - consumed); err != nil {
				return err
			}
		}
		seen[id] = true
	}
	for _, m := range st.GetAllMembersByIndex() {
		if m.IsNonSerialized() {
			continue
		}
		if m.IsMustUnderstand() && !seen[m.Id()] {
			return errs.New(errs.BadParameter, "missing must-understand member %q", m.Name())
		}
	}
	return nil
}

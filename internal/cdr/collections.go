// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package cdr

import (
	"go.fastdds.dev/xtypes/internal/data"
	"go.fastdds.dev/xtypes/internal/model"
)

// encodeArray writes a fixed-size Array's elements in row-major order.
// Array storage elides trailing default-valued elements in memory (spec
// §8 "Default elision idempotence"), but the wire format is positional —
// ComplexValue transparently reconstructs the element-type default for an
// elided slot, so the encoded stream always carries every element.
func encodeArray(w *Writer, v *data.Value, rep Representation) error {
	total := v.Type().ResolveAliasEnclosed().TotalArrayBound()
	for i := model.MemberId(0); i < model.MemberId(total); i++ {
		child, err := v.ComplexValue(i)
		if err != nil {
			return err
		}
		if err := encodeBody(w, child, rep); err != nil {
			return err
		}
	}
	return nil
}

func decodeArray(r *Reader, v *data.Value, rep Representation) error {
	at := v.Type().ResolveAliasEnclosed()
	total := at.TotalArrayBound()
	for i := model.MemberId(0); i < model.MemberId(total); i++ {
		child, err := data.New(at.ElementType())
		if err != nil {
			return err
		}
		if err := decodeBody(r, child, rep); err != nil {
			return err
		}
		if err := v.SetComplexValue(i, child); err != nil {
			return err
		}
	}
	return nil
}

// encodeSequence writes a bounded Sequence as a 4-byte element count
// followed by each element.
func encodeSequence(w *Writer, v *data.Value, rep Representation) error {
	n, err := v.SequenceSize()
	if err != nil {
		return err
	}
	if err := w.WriteU32(n); err != nil {
		return err
	}
	for i := model.MemberId(0); i < model.MemberId(n); i++ {
		child, err := v.ComplexValue(i)
		if err != nil {
			return err
		}
		if err := encodeBody(w, child, rep); err != nil {
			return err
		}
	}
	return nil
}

func decodeSequence(r *Reader, v *data.Value, rep Representation) error {
	st := v.Type().ResolveAliasEnclosed()
	n, err := r.ReadU32()
	if err != nil {
		return err
	}
	if bound := st.SequenceBound(); bound > 0 && n > bound {
		return lengthExceedsBound(n, bound, "sequence")
	}
	if err := v.SequenceResize(n); err != nil {
		return err
	}
	for i := model.MemberId(0); i < model.MemberId(n); i++ {
		child, err := data.New(st.ElementType())
		if err != nil {
			return err
		}
		if err := decodeBody(r, child, rep); err != nil {
			return err
		}
		if err := v.SequenceSet(i, child); err != nil {
			return err
		}
	}
	return nil
}

// encodeMap writes a bounded Map as a 4-byte pair count followed by each
// (key, value) pair, key then value, in the map's internal iteration
// order (spec §4.2 notes map iteration order is unspecified across
// implementations, so the codec need not preserve insertion order on
// round trip, only key/value fidelity).
func encodeMap(w *Writer, v *data.Value, rep Representation) error {
	entries, err := v.MapEntries()
	if err != nil {
		return err
	}
	if err := w.WriteU32(uint32(len(entries))); err != nil {
		return err
	}
	for _, pair := range entries {
		if err := encodeBody(w, pair[0], rep); err != nil {
			return err
		}
		if err := encodeBody(w, pair[1], rep); err != nil {
			return err
		}
	}
	return nil
}

func decodeMap(r *Reader, v *data.Value, rep Representation) error {
	mt := v.Type().ResolveAliasEnclosed()
	n, err := r.ReadU32()
	if err != nil {
		return err
	}
	if bound := mt.SequenceBound(); bound > 0 && n > bound {
		return lengthExceedsBound(n, bound, "map")
	}
	for i := uint32(0); i < n; i++ {
		key, err := data.New(mt.KeyElementType())
		if err != nil {
			return err
		}
		if err := decodeBody(r, key, rep); err != nil {
			return err
		}
		val, err := data.New(mt.ElementType())
		if err != nil {
			return err
		}
		if err := decodeBody(r, val, rep); err != nil {
			return err
		}
		if err := v.MapPut(key, val); err != nil {
			return err
		}
	}
	return nil
}

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package cdr

import (
	"encoding/binary"

	"go.fastdds.dev/xtypes/internal/data"
	"go.fastdds.dev/xtypes/internal/diag"
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/model"
)

// Codec serializes and deserializes Values of a fixed Type under a fixed
// XCDR representation, the CDR analog of the teacher's Codec returned
// from internal/coder.buildCodec, generalized to dispatch on a runtime
// model.Type instead of a reflect.Type.
type Codec struct {
	typ *model.Type
	rep Representation
	end Endianness
	log diag.Logger
}

// NewCodec builds a Codec for t under the given representation and wire
// endianness. Diagnostics are discarded by default; call WithLogger to
// capture them.
func NewCodec(t *model.Type, rep Representation, end Endianness) *Codec {
	return &Codec{typ: t, rep: rep, end: end, log: diag.Nop()}
}

// WithLogger returns a copy of c that reports decode-path anomalies
// (skipped PL-CDR members, trailing bytes, terminal failures) to l.
func (c *Codec) WithLogger(l diag.Logger) *Codec {
	c2 := *c
	c2.log = l.WithType(c.typ.Name())
	return &c2
}

func (c *Codec) order() binary.ByteOrder {
	if c.end == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Serialize encodes v, which must be of the codec's type, as an
// encapsulated CDR stream: a 4-byte header followed by the body.
func (c *Codec) Serialize(v *data.Value) ([]byte, error) {
	if !v.Type().Equals(c.typ) {
		return nil, errs.New(errs.BadParameter, "value type does not match codec type")
	}
	w := NewWriter(c.order())
	ext := extensibilityOf(c.typ)
	if err := writeEncapsulationHeader(w, c.rep, ext, c.end); err != nil {
		return nil, err
	}
	if err := encodeBody(w, v, c.rep); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Deserialize decodes buf into a fresh Value of the codec's type. The
// representation and endianness are read from the stream's own
// encapsulation header rather than assumed from the Codec, so a Codec
// constructed for one representation can still decode a stream produced
// under the other (spec §6 "deserialize accepts either encapsulation").
func (c *Codec) Deserialize(buf []byte) (*data.Value, error) {
	rep, _, end, err := readEncapsulationHeader(NewReader(buf, binary.LittleEndian))
	if err != nil {
		return nil, err
	}
	order := binary.ByteOrder(binary.LittleEndian)
	if end == BigEndian {
		order = binary.BigEndian
	}
	r := NewReader(buf, order)
	r.SetLogger(c.log)
	if _, err := r.readRaw(4); err != nil {
		return nil, err
	}
	v, err := data.New(c.typ)
	if err != nil {
		return nil, err
	}
	if err := decodeBody(r, v, rep); err != nil {
		c.log.DecodeFailed(r.Pos(), err)
		return nil, err
	}
	return v, nil
}

func extensibilityOf(t *model.Type) extensibilityLike {
	rt := t.ResolveAliasEnclosed()
	switch rt.Extensibility() {
	case model.Appendable:
		return extAppendable
	case model.Mutable:
		return extMutable
	default:
		return extFinal
	}
}

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package cdr implements the XCDR v1/v2 encoder, decoder, size
// calculator and key serializer (spec §4.3). Grounded on the teacher's
// internal/coder package: pooled encoder/decoder structs, a fixed scratch
// array for primitive writes, a shared zero-byte padding array, and a
// per-kind codec split (internal/coder/encoder.go, codec_struct.go,
// codec_array.go, codec_map.go) — generalized from reflect.Type dispatch
// to the runtime internal/model.Type graph.
package cdr

import "go.fastdds.dev/xtypes/internal/errs"

// Representation selects which XCDR revision governs struct/union
// framing and enum/bitmask width rules (spec §4.3, §6).
type Representation int

const (
	XCDRv1 Representation = iota
	XCDRv2
)

// Endianness selects the byte order of the encapsulated payload.
type Endianness int

const (
	LittleEndian Endianness = iota
	BigEndian
)

// encapsulation scheme identifiers, following the RTPS/XTypes
// representation_header table (spec §4.3 "Endianness and encapsulation").
const (
	schemeCDR_BE      = 0x00
	schemeCDR_LE      = 0x01
	schemePL_CDR_BE   = 0x02
	schemePL_CDR_LE   = 0x03
	schemeCDR2_BE     = 0x06
	schemeCDR2_LE     = 0x07
	schemeD_CDR2_BE   = 0x08
	schemeD_CDR2_LE   = 0x09
	schemePL_CDR2_BE  = 0x0A
	schemePL_CDR2_LE  = 0x0B
)

// encapsulationScheme returns the scheme byte of the 4-byte encapsulation
// header for the given representation, extensibility and endianness.
func encapsulationScheme(rep Representation, ext extensibilityLike, end Endianness) byte {
	le := end == LittleEndian
	switch rep {
	case XCDRv1:
		if ext == extMutable {
			if le {
				return schemePL_CDR_LE
			}
			return schemePL_CDR_BE
		}
		if le {
			return schemeCDR_LE
		}
		return schemeCDR_BE
	default: // XCDRv2
		switch ext {
		case extMutable:
			if le {
				return schemePL_CDR2_LE
			}
			return schemePL_CDR2_BE
		case extAppendable:
			if le {
				return schemeD_CDR2_LE
			}
			return schemeD_CDR2_BE
		default:
			if le {
				return schemeCDR2_LE
			}
			return schemeCDR2_BE
		}
	}
}

type extensibilityLike int

const (
	extFinal extensibilityLike = iota
	extAppendable
	extMutable
)

// writeEncapsulationHeader appends the 4-byte encapsulation header to w.
func writeEncapsulationHeader(w *Writer, rep Representation, ext extensibilityLike, end Endianness) error {
	scheme := encapsulationScheme(rep, ext, end)
	return w.writeRaw([]byte{scheme, 0x00, 0x00, 0x00})
}

func readEncapsulationHeader(r *Reader) (Representation, extensibilityLike, Endianness, error) {
	b, err := r.readRaw(4)
	if err != nil {
		return 0, 0, 0, err
	}
	scheme := b[0]
	switch scheme {
	case schemeCDR_LE:
		return XCDRv1, extFinal, LittleEndian, nil
	case schemeCDR_BE:
		return XCDRv1, extFinal, BigEndian, nil
	case schemePL_CDR_LE:
		return XCDRv1, extMutable, LittleEndian, nil
	case schemePL_CDR_BE:
		return XCDRv1, extMutable, BigEndian, nil
	case schemeCDR2_LE:
		return XCDRv2, extFinal, LittleEndian, nil
	case schemeCDR2_BE:
		return XCDRv2, extFinal, BigEndian, nil
	case schemeD_CDR2_LE:
		return XCDRv2, extAppendable, LittleEndian, nil
	case schemeD_CDR2_BE:
		return XCDRv2, extAppendable, BigEndian, nil
	case schemePL_CDR2_LE:
		return XCDRv2, extMutable, LittleEndian, nil
	case schemePL_CDR2_BE:
		return XCDRv2, extMutable, BigEndian, nil
	default:
		return 0, 0, 0, errs.New(errs.BadParameter, "unrecognized encapsulation scheme 0x%02x", scheme)
	}
}

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package xtypes implements a dynamic type system and CDR codec
// compatible with the OMG XTypes specification: types are built or
// loaded at runtime rather than generated from IDL, values are
// constructed and mutated through a reflection-free accessor API keyed
// by member id, and both are wired into XCDR v1/v2 wire codecs and a
// two-dialect JSON projection.
//
// The type model (package model) describes a type's shape: its kind,
// members, bounds and extensibility. The data model (package data) holds
// a runtime instance of a type. A TypeSupport binds the two together for
// one top-level type, exposing the lifecycle and (de)serialization
// operations a DDS-style consumer needs:
//
//	ts := xtypes.NewTypeSupport(pointType, false)
//	v, _ := ts.CreateData()
//	v.SetInt32(0, 3)
//	buf, _ := ts.Serialize(v, xtypes.XCDRv2, xtypes.LittleEndian)
//	back, _ := ts.Deserialize(buf)
//
// Types can also be declared in XML (package xmlloader) and values
// projected to and from JSON in either the OMG-standard or eProsima
// extended dialect (package jsonproj).
package xtypes

import (
	"crypto/md5"

	"go.fastdds.dev/xtypes/internal/cdr"
	"go.fastdds.dev/xtypes/internal/data"
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/jsonproj"
	"go.fastdds.dev/xtypes/internal/model"
)

// Re-exported so callers never need to import the internal packages
// directly.
type (
	ReturnCode     = errs.ReturnCode
	Type           = model.Type
	Value          = data.Value
	Representation = cdr.Representation
	Endianness     = cdr.Endianness
	Dialect        = jsonproj.Dialect
)

const (
	Ok                 = errs.Ok
	Error              = errs.Error
	BadParameter       = errs.BadParameter
	PreconditionNotMet = errs.PreconditionNotMet
	NotEnabled         = errs.NotEnabled
	OutOfResources     = errs.OutOfResources
	Unsupported        = errs.Unsupported
	Immutable          = errs.Immutable
	IllegalOperation   = errs.IllegalOperation
	NoData             = errs.NoData
)

const (
	XCDRv1 = cdr.XCDRv1
	XCDRv2 = cdr.XCDRv2
)

const (
	LittleEndian = cdr.LittleEndian
	BigEndian    = cdr.BigEndian
)

const (
	JSONStandard = jsonproj.Standard
	JSONExtended = jsonproj.Extended
)

// TypeSupport is the consumer-facing adapter parameterized by one
// top-level Type (spec §6 "Type-support adapter"): value lifecycle,
// CDR (de)serialization, key extraction and size queries all go through
// it rather than through the lower-level data/cdr packages directly.
type TypeSupport struct {
	typ     *Type
	factory *data.Factory
}

// NewTypeSupport binds a TypeSupport to t. trackLeaks enables the
// factory's debug-only live-value bookkeeping (spec §5 "Leak tracking").
func NewTypeSupport(t *Type, trackLeaks bool) *TypeSupport {
	return &TypeSupport{typ: t, factory: data.NewFactory(t, trackLeaks)}
}

// Type returns the top-level type this TypeSupport is bound to.
func (ts *TypeSupport) Type() *Type { return ts.typ }

// CreateData allocates a default-initialized Value of the bound type.
func (ts *TypeSupport) CreateData() (*Value, error) {
	return ts.factory.CreateData()
}

// DeleteData releases v, refusing if it still carries an outstanding
// loan.
func (ts *TypeSupport) DeleteData(v *Value) error {
	return ts.factory.DeleteData(v)
}

// LiveDataCount reports how many values allocated through this
// TypeSupport have not yet been deleted. Always 0 unless leak tracking
// was enabled at construction.
func (ts *TypeSupport) LiveDataCount() int {
	return ts.factory.LiveCount()
}

// AssertNoLeaks returns an error naming how many values are still live,
// for use in test teardown.
func (ts *TypeSupport) AssertNoLeaks() error {
	return ts.factory.AssertNoLeaks()
}

func (ts *TypeSupport) codec(rep Representation, end Endianness) *cdr.Codec {
	return cdr.NewCodec(ts.typ, rep, end)
}

// Serialize encodes v as an encapsulated CDR stream under rep/end (spec
// §6 "serialize"). v must be of the TypeSupport's bound type.
func (ts *TypeSupport) Serialize(v *Value, rep Representation, end Endianness) ([]byte, error) {
	return ts.codec(rep, end).Serialize(v)
}

// Deserialize decodes buf into a fresh Value of the bound type. The
// representation and endianness are read from the stream's own
// encapsulation header (spec §6 "deserialize"), so no rep/end parameter
// is needed here.
func (ts *TypeSupport) Deserialize(buf []byte) (*Value, error) {
	return ts.codec(XCDRv1, LittleEndian).Deserialize(buf)
}

// GetKey computes v's 16-byte instance handle (spec §6 "get_key"): the
// serialized @key members zero-padded to 16 bytes, or their MD5 digest
// if forceMD5 is set or the key bytes don't fit in 16 bytes.
func (ts *TypeSupport) GetKey(v *Value, forceMD5 bool) ([16]byte, error) {
	c := ts.codec(XCDRv2, BigEndian)
	if !forceMD5 {
		return c.InstanceHandle(v)
	}
	keyBytes, err := c.SerializeKey(v)
	if err != nil {
		return [16]byte{}, err
	}
	return md5.Sum(keyBytes), nil
}

// SerializedSizeProvider returns a closure computing v's exact
// encapsulated byte length under rep whenever called (spec §6
// "get_serialized_size_provider"), deferring the actual encode until the
// caller needs the number.
func (ts *TypeSupport) SerializedSizeProvider(v *Value, rep Representation, end Endianness) func() (uint32, error) {
	c := ts.codec(rep, end)
	return func() (uint32, error) {
		return c.SerializedSize(v)
	}
}

// MaxSerializedSize returns a worst-case encapsulated byte length for any
// value of the bound type under rep (spec §6 "max_serialized_size").
func (ts *TypeSupport) MaxSerializedSize(rep Representation) (uint32, error) {
	return ts.codec(rep, LittleEndian).MaxSerializedSize()
}

// MarshalJSON projects v to JSON in the given dialect (spec §4.5).
func (ts *TypeSupport) MarshalJSON(v *Value, d Dialect) ([]byte, error) {
	return jsonproj.Marshal(v, d)
}

// UnmarshalJSON decodes a JSON document into v, accepting either dialect
// transparently.
func (ts *TypeSupport) UnmarshalJSON(raw []byte, v *Value) error {
	return jsonproj.Unmarshal(raw, v)
}

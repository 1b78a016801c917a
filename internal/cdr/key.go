// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package cdr

import (
	"crypto/md5"
	"encoding/binary"

	"go.fastdds.dev/xtypes/internal/data"
	"go.fastdds.dev/xtypes/internal/kind"
)

// SerializeKey encodes only v's @key members (or, for a structure with no
// @key member, every serialized member), recursively, under XCDR2
// big-endian with no encapsulation header (spec §9 Design Notes: key
// hashing is pinned to one fixed representation regardless of the data
// representation in force, so two participants with different
// Representation settings still agree on an instance's key bytes).
func (c *Codec) SerializeKey(v *data.Value) ([]byte, error) {
	w := NewWriter(binary.BigEndian)
	if err := encodeKeyBody(w, v); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func encodeKeyBody(w *Writer, v *data.Value) error {
	if v.EnclosedKind() != kind.Structure {
		return encodeBody(w, v, XCDRv2)
	}
	st := v.Type().ResolveAliasEnclosed()
	members := st.GetAllMembersByIndex()
	anyKey := false
	for _, m := range members {
		if m.IsKey() {
			anyKey = true
			break
		}
	}
	// OMG default key rule: a structure with no @key member at all
	// key-serializes every member, as if all were @key (spec §4.3).
	for _, m := range members {
		if m.IsNonSerialized() {
			continue
		}
		if anyKey && !m.IsKey() {
			continue
		}
		child, err := v.ComplexValue(m.Id())
		if err != nil {
			return err
		}
		if err := encodeKeyBody(w, child); err != nil {
			return err
		}
	}
	return nil
}

// InstanceHandle computes the 16-byte instance handle for v: its raw key
// bytes if they fit in 16 bytes (zero-padded), or their MD5 digest
// otherwise (spec §6 "get_key", the same big-key compression rule DDS
// implementations use to bound instance-handle storage).
func (c *Codec) InstanceHandle(v *data.Value) ([16]byte, error) {
	var handle [16]byte
	keyBytes, err := c.SerializeKey(v)
	if err != nil {
		return handle, err
	}
	if len(keyBytes) <= 16 {
		copy(handle[:], keyBytes)
		return handle, nil
	}
	return md5.Sum(keyBytes), nil
}

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package cdr

import (
	"encoding/binary"

	"go.fastdds.dev/xtypes/internal/diag"
	"go.fastdds.dev/xtypes/internal/errs"
)

// zeroPad is shared padding source for alignment writes, grounded on the
// teacher's single package-level zero array reused across every encoder
// instance rather than allocating per write (internal/coder/encoder.go).
var zeroPad [16]byte

// Writer accumulates an encoded CDR byte stream, tracking the stream
// position needed for natural alignment and delimiter/PL-CDR length
// back-patching.
type Writer struct {
	buf   []byte
	order binary.ByteOrder
}

// NewWriter returns an empty Writer using the given byte order for
// multi-byte primitives.
func NewWriter(order binary.ByteOrder) *Writer {
	return &Writer{order: order}
}

// Bytes returns the accumulated stream.
func (w *Writer) Bytes() []byte { return w.buf }

// Pos returns the current stream position, used for alignment and for
// computing delimiter/parameter lengths.
func (w *Writer) Pos() int { return len(w.buf) }

func (w *Writer) writeRaw(b []byte) error {
	w.buf = append(w.buf, b...)
	return nil
}

// Align pads the stream with zero bytes until Pos() is a multiple of n.
func (w *Writer) Align(n int) error {
	if n <= 1 {
		return nil
	}
	rem := len(w.buf) % n
	if rem == 0 {
		return nil
	}
	return w.writeRaw(zeroPad[:n-rem])
}

// patchU32 overwrites a previously reserved 4-byte slot at offset with v,
// used for delimiter headers and PL-CDR member lengths.
func (w *Writer) patchU32(offset int, v uint32) {
	w.order.PutUint32(w.buf[offset:offset+4], v)
}

func (w *Writer) WriteBool(x bool) error {
	var b byte
	if x {
		b = 1
	}
	return w.writeRaw([]byte{b})
}

func (w *Writer) WriteU8(x uint8) error { return w.writeRaw([]byte{x}) }

func (w *Writer) WriteU16(x uint16) error {
	if err := w.Align(2); err != nil {
		return err
	}
	var b [2]byte
	w.order.PutUint16(b[:], x)
	return w.writeRaw(b[:])
}

func (w *Writer) WriteU32(x uint32) error {
	if err := w.Align(4); err != nil {
		return err
	}
	var b [4]byte
	w.order.PutUint32(b[:], x)
	return w.writeRaw(b[:])
}

func (w *Writer) WriteU64(x uint64) error {
	if err := w.Align(8); err != nil {
		return err
	}
	var b [8]byte
	w.order.PutUint64(b[:], x)
	return w.writeRaw(b[:])
}

// Reader walks a fixed byte slice, tracking position for alignment and
// for bounds-checked reads.
type Reader struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
	log   diag.Logger
}

// NewReader wraps buf for sequential decoding in the given byte order.
// Diagnostics are discarded by default; see SetLogger.
func NewReader(buf []byte, order binary.ByteOrder) *Reader {
	return &Reader{buf: buf, order: order, log: diag.Nop()}
}

// SetLogger installs l as the destination for this Reader's decode-path
// diagnostics (skipped members, trailing bytes).
func (r *Reader) SetLogger(l diag.Logger) { r.log = l }

// Pos returns the current read position.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) readRaw(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, errs.New(errs.BadParameter, "buffer underrun at offset %d reading %d bytes (have %d)", r.pos, n, r.Remaining())
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Align skips padding bytes until Pos() is a multiple of n.
func (r *Reader) Align(n int) error {
	if n <= 1 {
		return nil
	}
	rem := r.pos % n
	if rem == 0 {
		return nil
	}
	_, err := r.readRaw(n - rem)
	return err
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.readRaw(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.readRaw(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadU16() (uint16, error) {
	if err := r.Align(2); err != nil {
		return 0, err
	}
	b, err := r.readRaw(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

func (r *Reader) ReadU32() (uint32, error) {
	if err := r.Align(4); err != nil {
		return 0, err
	}
	b, err := r.readRaw(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	if err := r.Align(8); err != nil {
		return 0, err
	}
	b, err := r.readRaw(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(b), nil
}

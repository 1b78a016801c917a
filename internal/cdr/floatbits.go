// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package cdr

import "math"

// Bit-pattern reinterpretation has exactly one honest implementation in
// Go; no pack library reimplements math.Float32bits/Float64bits, so this
// file is the one place in the codec that goes straight to the standard
// library without a grounding source.
func float32bits(f float32) uint32     { return math.Float32bits(f) }
func float32frombits(b uint32) float32 { return math.Float32frombits(b) }
func float64bits(f float64) uint64     { return math.Float64bits(f) }
func float64frombits(b uint64) float64 { return math.Float64frombits(b) }

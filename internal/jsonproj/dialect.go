// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package jsonproj projects Values to and from JSON (spec §4.5), in two
// dialects that differ only in how Enum and Bitmask (and, as a
// supplemental extension, Bitset) scalars are written; every other kind
// shares one code path threaded by Dialect rather than forked into
// parallel encoders.
package jsonproj

// Dialect selects the JSON projection's enum/bitmask/bitset rendering.
type Dialect int

const (
	// Standard is the OMG-standard dialect: enums as their literal name,
	// bitmasks as an integer holding only the active bits.
	Standard Dialect = iota

	// Extended is the eProsima dialect: enums as {"name", "value"} and
	// bitmasks as {"value", "binary", "active"}, preserving information
	// Standard discards.
	Extended
)

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package model implements the XTypes type model (spec §3.1, §4.1): a
// recursive, DAG-shaped descriptor of aggregate and parameterized types,
// built through a staging TypeBuilder and sealed into an immutable, shared
// Type. Grounded on the two-pass struct/union field classification of the
// teacher's internal/coder/codec_struct.go, generalized from Go struct
// reflection to declared MemberDescriptors.
package model

import (
	"fmt"
	"regexp"

	"go.fastdds.dev/xtypes/internal/kind"
)

// MemberId identifies a field within its parent type. Stable within the
// parent, never reused after removal (removal is not supported; types are
// append-only during the builder phase).
type MemberId uint32

// MemberIdInvalid marks "no member" (an unselected union, a not-found
// lookup).
const MemberIdInvalid MemberId = 0xFFFFFFFF

// Extensibility controls CDR framing for Structure and Union types.
type Extensibility int

const (
	// Final types use PLAIN_CDR: no delimiter, no parameter list, members
	// encoded strictly in declaration order.
	Final Extensibility = iota
	// Appendable types use DELIMITED_CDR: a 4-byte length prefix precedes
	// the member sequence so a future reader can skip an unknown trailer.
	Appendable
	// Mutable types use PL_CDR: every member is framed with its own
	// (id, length) header so members may be reordered, added, or skipped.
	Mutable
)

func (e Extensibility) String() string {
	switch e {
	case Final:
		return "Final"
	case Appendable:
		return "Appendable"
	case Mutable:
		return "Mutable"
	default:
		return "Unknown"
	}
}

// AnnotationDescriptor is a recognized declarative tag on a Type or
// Member (@key, @non_serialized, @bit_bound, @default, @nested, ...).
type AnnotationDescriptor struct {
	Name   string
	Params map[string]string
}

// nameRe matches a dotted identifier (foo::Bar::Baz), grounded on
// pandalee99-fory's identifier validation regexp in go/fory/type.go.
var nameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(::[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidName reports whether name is a well-formed dotted identifier, or
// empty (permitted only for anonymous inner types, checked by callers).
func ValidName(name string) bool {
	return name == "" || nameRe.MatchString(name)
}

// TypeDescriptor is the mutable staging struct mirroring the fields of a
// Type (spec §3.1), consumed by NewTypeBuilder.
type TypeDescriptor struct {
	Kind              kind.Kind
	Name              string
	BaseType          *Type
	DiscriminatorType *Type
	ElementType       *Type
	KeyElementType    *Type
	Bounds            []uint32
	Extensibility     Extensibility
	IsNested          bool
	Annotations       []AnnotationDescriptor
}

// MemberDescriptor is the mutable staging struct for a single member,
// passed to TypeBuilder.AddMember.
type MemberDescriptor struct {
	Id               MemberId
	Name             string
	Type             *Type
	DefaultValue     string
	IsKey            bool
	IsOptional       bool
	IsMustUnderstand bool
	// IsNonSerialized marks a member as excluded from every CDR
	// (de)serialization and size walk, per the `@non_serialized`
	// annotation (spec §4.3). It still participates in the data model
	// (Get/Set, JSON projection) and is not itself eligible to be a key.
	IsNonSerialized bool
	// Labels holds the union case's discriminator values. Unused for
	// non-union members. Also used for Enum literals (a single value, the
	// literal's value) and Bitmask flags (a single value, the bit
	// position).
	Labels []int64
	// IsDefaultLabel marks a union case as the implicit default (an
	// explicit `default` case, distinct from "no label matched").
	IsDefaultLabel bool
	// BitBound is the bit width of a Bitset field, and the declared
	// bit_bound of an enum literal. A Bitmask flag's bit position is held
	// in Labels, not here.
	BitBound uint16
}

func (e Extensibility) valid() bool {
	return e == Final || e == Appendable || e == Mutable
}

func annotationNamed(anns []AnnotationDescriptor, name string) (AnnotationDescriptor, bool) {
	for _, a := range anns {
		if a.Name == name {
			return a, true
		}
	}
	return AnnotationDescriptor{}, false
}

func fmtMember(name string, id MemberId) string {
	if name == "" {
		return fmt.Sprintf("#%d", id)
	}
	return name
}

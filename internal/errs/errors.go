// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package errs implements the closed error taxonomy shared by every
// component of the type system: the type model, the data model, the CDR
// codec, the XML loader and the JSON projection all return errors built
// from this package so that a caller can always recover a ReturnCode.
package errs

import (
	"fmt"
	"strings"
)

// ReturnCode is the closed set of error codes returned across every
// external interface (see spec §6).
type ReturnCode int

const (
	Ok ReturnCode = iota
	Error
	BadParameter
	PreconditionNotMet
	NotEnabled
	OutOfResources
	Unsupported
	Immutable
	IllegalOperation
	NoData
)

func (c ReturnCode) String() string {
	switch c {
	case Ok:
		return "Ok"
	case Error:
		return "Error"
	case BadParameter:
		return "BadParameter"
	case PreconditionNotMet:
		return "PreconditionNotMet"
	case NotEnabled:
		return "NotEnabled"
	case OutOfResources:
		return "OutOfResources"
	case Unsupported:
		return "Unsupported"
	case Immutable:
		return "Immutable"
	case IllegalOperation:
		return "IllegalOperation"
	case NoData:
		return "NoData"
	default:
		return "Unknown"
	}
}

// CodeError is the base error type: a ReturnCode plus a human message.
// Every other error in this package embeds or wraps one.
type CodeError struct {
	Code ReturnCode
	Msg  string
}

func (e CodeError) Error() string {
	return fmt.Sprintf("xtypes: %s: %s", e.Code, e.Msg)
}

func (e CodeError) Is(target error) bool {
	if ce, ok := target.(CodeError); ok {
		return ce.Code == e.Code
	}
	return false
}

// New builds a CodeError; the common constructor used throughout the
// codebase instead of ad hoc fmt.Errorf, grounded on the teacher's
// xerror sentinel pattern (internal/errors/errors.go).
func New(code ReturnCode, format string, args ...interface{}) error {
	return CodeError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Code extracts the ReturnCode carried by err, defaulting to Error for
// errors that did not originate in this package (e.g. io errors bubbling
// out of a Writer).
func Code(err error) ReturnCode {
	if err == nil {
		return Ok
	}
	var ce CodeError
	for {
		if c, ok := err.(CodeError); ok {
			ce = c
			break
		}
		if fe, ok := err.(FieldError); ok {
			err = fe.Underlying
			continue
		}
		if _, ok := err.(LengthError); ok {
			return BadParameter
		}
		return Error
	}
	return ce.Code
}

// LengthError reports a length prefix or collection size exceeding a
// declared bound (sequences, maps, bitmasks, strings).
type LengthError struct {
	Actual, Max uint64
	What        string
}

func (e LengthError) Error() string {
	return fmt.Sprintf("xtypes: BadParameter: %s length %d exceeds bound %d", e.What, e.Actual, e.Max)
}

func (e LengthError) Is(target error) bool {
	if ce, ok := target.(CodeError); ok {
		return ce.Code == BadParameter
	}
	return false
}

// FieldError composes a dotted access path onto an underlying error as it
// unwinds through nested struct/union/array/sequence/map access, exactly
// like the teacher's errors.WithFieldError.
type FieldError struct {
	Underlying error
	Path       string
}

func (e FieldError) Unwrap() error {
	return e.Underlying
}

func (e FieldError) Error() string {
	u := e.Underlying.Error()
	u = strings.TrimPrefix(u, "xtypes: ")
	return fmt.Sprintf("xtypes: %s (at %s)", u, e.Path)
}

func (e FieldError) Is(target error) bool {
	if ce, ok := target.(CodeError); ok {
		return Code(e.Underlying) == ce.Code
	}
	return false
}

// WithField wraps err with an additional path segment, composing if err
// is already a FieldError so the path reads outer-to-inner.
func WithField(err error, segment string) error {
	if err == nil {
		return nil
	}
	if fe, ok := err.(FieldError); ok {
		fe.Path = fmt.Sprintf("%s.%s", segment, fe.Path)
		return fe
	}
	return FieldError{Underlying: err, Path: segment}
}

// WithIndex is WithField specialized for array/sequence numeric indices.
func WithIndex(err error, index int) error {
	return WithField(err, fmt.Sprintf("[%d]", index))
}

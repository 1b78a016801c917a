// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package data

import (
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

// LoanMember checks out a composite member (Struct/Union as a field,
// Array/Sequence/Map as a field or as the whole value) for direct
// mutation through the returned Value, recording id as outstanding so
// the parent refuses concurrent loans or overwrites of that id until it
// is returned (spec §4.2 "Loan protocol").
//
// Loaning an out-of-bounds Array index implicitly extends the array with
// a default element, bounded by the array's total size. Loans of a Map's
// key half are forbidden.
func (v *Value) LoanMember(id model.MemberId) (*Value, error) {
	ek := v.EnclosedKind()
	if !ek.IsAggregated() && !ek.IsCollection() {
		return nil, errs.New(errs.BadParameter, "cannot loan member %d of a %v value", id, ek)
	}

	if v.loaned == nil {
		v.loaned = make(map[model.MemberId]bool)
	}
	if v.loaned[id] {
		return nil, errs.New(errs.PreconditionNotMet, "member %d is already on loan", id)
	}

	var mt *model.Type
	var err error
	if ek == kind.Map {
		if v.isMapKeyID(id) {
			return nil, errs.New(errs.PreconditionNotMet, "cannot loan a map key")
		}
		if _, ok := v.children[id]; !ok {
			return nil, errs.New(errs.BadParameter, "map has no entry with id %d", id)
		}
		mt = v.typ.ResolveAliasEnclosed().ElementType()
	} else {
		mt, err = v.memberTypeFor(id)
		if err != nil {
			return nil, err
		}
	}

	child, ok := v.children[id]
	if !ok {
		child, err = New(mt)
		if err != nil {
			return nil, err
		}
		v.children[id] = child
	}

	v.loaned[id] = true
	v.touch()
	return child, nil
}

// ReturnLoan releases a previously outstanding loan for id, restoring the
// parent's exclusive ownership. Returning a non-loaned id fails with
// PreconditionNotMet (spec §4.2).
func (v *Value) ReturnLoan(id model.MemberId) error {
	if !v.loaned[id] {
		return errs.New(errs.PreconditionNotMet, "member %d is not on loan", id)
	}
	delete(v.loaned, id)
	v.touch()
	return nil
}

// IsLoaned reports whether member id is currently on loan.
func (v *Value) IsLoaned(id model.MemberId) bool {
	return v.loaned[id]
}

func (v *Value) isMapKeyID(id model.MemberId) bool {
	for _, k := range v.mapKeyIndex {
		if k == id {
			return true
		}
	}
	return false
}

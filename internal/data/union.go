// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package data

import (
	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
)

// SelectedMember returns the currently active union member id, or
// MemberIdInvalid if unselected (spec §3.2).
func (v *Value) SelectedMember() (model.MemberId, error) {
	if v.EnclosedKind() != kind.Union {
		return model.MemberIdInvalid, errs.New(errs.BadParameter, "value is not a union")
	}
	return v.selected, nil
}

// SetDiscriminator implements the union coherence rule of spec §4.2:
// setting the discriminator directly to label L selects the member whose
// label set contains L, or the implicit default member if one exists and
// no member matches L, or leaves the union unselected (MemberIdInvalid)
// otherwise. Reassigning away from the current selection first requires
// that the previously selected member is not on loan.
func (v *Value) SetDiscriminator(label int64) error {
	if v.EnclosedKind() != kind.Union {
		return errs.New(errs.BadParameter, "value is not a union")
	}
	if v.selected != model.MemberIdInvalid && v.loaned[v.selected] {
		return errs.New(errs.PreconditionNotMet, "currently selected member %d is on loan", v.selected)
	}

	ut := v.typ.ResolveAliasEnclosed()
	if m, ok := ut.MemberByLabel(label); ok {
		if v.selected != m.Id() {
			delete(v.children, v.selected)
			v.selected = m.Id()
		}
	} else {
		delete(v.children, v.selected)
		v.selected = model.MemberIdInvalid
	}
	v.touch()
	return nil
}

// Discriminator returns the discriminator value implied by the currently
// selected member: the first label of that member, or the type's
// implicit default discriminator value when unselected (spec §4.2
// "Reading back the discriminator").
func (v *Value) Discriminator() (int64, error) {
	if v.EnclosedKind() != kind.Union {
		return 0, errs.New(errs.BadParameter, "value is not a union")
	}
	ut := v.typ.ResolveAliasEnclosed()
	if v.selected == model.MemberIdInvalid {
		if dm := ut.DefaultMember(); dm != nil && len(dm.Labels()) > 0 {
			return dm.Labels()[0], nil
		}
		return ut.ImplicitDefaultDiscriminatorValue(), nil
	}
	m, err := ut.GetMemberById(v.selected)
	if err != nil {
		return 0, err
	}
	if len(m.Labels()) == 0 {
		return ut.ImplicitDefaultDiscriminatorValue(), nil
	}
	return m.Labels()[0], nil
}

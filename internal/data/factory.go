// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package data

import (
	"sync"

	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/model"
)

// Factory creates and destroys Values of a fixed Type, optionally
// tracking every live allocation so a debug build can assert none are
// leaked at teardown (spec §5 "Leak tracking").
type Factory struct {
	typ *model.Type

	trackLeaks bool
	mu         sync.Mutex
	live       map[*Value]struct{}
}

// NewFactory constructs a Factory bound to t. trackLeaks enables the
// debug-only live-set bookkeeping; production callers pass false.
func NewFactory(t *model.Type, trackLeaks bool) *Factory {
	f := &Factory{typ: t, trackLeaks: trackLeaks}
	if trackLeaks {
		f.live = make(map[*Value]struct{})
	}
	return f
}

// CreateData allocates a new default-initialized Value of the factory's
// type.
func (f *Factory) CreateData() (*Value, error) {
	v, err := New(f.typ)
	if err != nil {
		return nil, err
	}
	if f.trackLeaks {
		f.mu.Lock()
		f.live[v] = struct{}{}
		f.mu.Unlock()
	}
	return v, nil
}

// DeleteData releases v, which must have been created by this factory
// and must carry no outstanding loans.
func (f *Factory) DeleteData(v *Value) error {
	if len(v.loaned) > 0 {
		return errs.New(errs.PreconditionNotMet, "cannot delete a value with outstanding loans")
	}
	if f.trackLeaks {
		f.mu.Lock()
		delete(f.live, v)
		f.mu.Unlock()
	}
	return nil
}

// LiveCount returns the number of values currently tracked as live. Only
// meaningful when leak tracking is enabled; always 0 otherwise.
func (f *Factory) LiveCount() int {
	if !f.trackLeaks {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

// AssertNoLeaks returns an error describing how many values are still
// live, intended for test teardown in debug builds.
func (f *Factory) AssertNoLeaks() error {
	n := f.LiveCount()
	if n == 0 {
		return nil
	}
	return errs.New(errs.Error, "%d value(s) leaked from factory for type %q", n, f.typ.Name())
}

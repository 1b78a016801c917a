// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package xmlloader

import (
	"io"
	"strconv"
	"strings"

	"go.fastdds.dev/xtypes/internal/errs"
	"go.fastdds.dev/xtypes/internal/kind"
	"go.fastdds.dev/xtypes/internal/model"
	"go.fastdds.dev/xtypes/internal/registry"
)

// session threads the document-local state a single Load call needs:
// types built earlier in the same document (visible to later
// declarations, matching the original parser's single-pass resolution),
// a primitive type cache, and the target registry for resolving names
// defined in a prior Load call.
type session struct {
	reg        *registry.Registry
	pending    map[string]*model.Type
	primitives map[kind.Kind]*model.Type
}

func newSession(reg *registry.Registry) *session {
	return &session{
		reg:        reg,
		pending:    make(map[string]*model.Type),
		primitives: make(map[kind.Kind]*model.Type),
	}
}

func (s *session) primitiveType(k kind.Kind) (*model.Type, error) {
	if t, ok := s.primitives[k]; ok {
		return t, nil
	}
	t, err := model.NewTypeBuilder(model.TypeDescriptor{Kind: k}).Build()
	if err != nil {
		return nil, err
	}
	s.primitives[k] = t
	return t, nil
}

func (s *session) resolveNamed(name string) (*model.Type, error) {
	if t, ok := s.pending[name]; ok {
		return t, nil
	}
	return s.reg.Lookup(name)
}

var primitiveNames = map[string]kind.Kind{
	"boolean":  kind.Bool,
	"byte":     kind.Byte,
	"octet":    kind.Byte,
	"int8":     kind.Int8,
	"uint8":    kind.Uint8,
	"int16":    kind.Int16,
	"short":    kind.Int16,
	"uint16":   kind.Uint16,
	"ushort":   kind.Uint16,
	"int32":    kind.Int32,
	"long":     kind.Int32,
	"uint32":   kind.Uint32,
	"ulong":    kind.Uint32,
	"int64":    kind.Int64,
	"longlong": kind.Int64,
	"uint64":   kind.Uint64,
	"ulonglong": kind.Uint64,
	"float32":  kind.Float32,
	"float":    kind.Float32,
	"float64":  kind.Float64,
	"double":   kind.Float64,
	"float128": kind.Float128,
	"longdouble": kind.Float128,
	"char8":    kind.Char8,
	"char":     kind.Char8,
	"char16":   kind.Char16,
	"wchar":    kind.Char16,
	"string":   kind.String8,
	"wstring":  kind.String16,
}

// Load parses an XML document from r, registering every declared type
// into reg. On any error, no type from this document is registered
// (spec §4.4 "Recovery": the document is rejected as a whole).
func Load(r io.Reader, reg *registry.Registry) error {
	root, err := parseTree(r)
	if err != nil {
		return err
	}

	s := newSession(reg)
	var names []string
	for _, typeEl := range root.Children {
		if typeEl.Name != "type" {
			continue
		}
		if len(typeEl.Children) != 1 {
			return errs.New(errs.BadParameter, "<type> element must wrap exactly one declaration")
		}
		decl := typeEl.Children[0]
		name, t, err := s.buildDeclaration(decl)
		if err != nil {
			return errs.WithField(err, decl.Name)
		}
		if name == "" {
			return errs.New(errs.BadParameter, "<%s> is missing a name attribute", decl.Name)
		}
		if _, exists := s.pending[name]; exists {
			return errs.New(errs.BadParameter, "type %q redefined within the same document", name)
		}
		s.pending[name] = t
		names = append(names, name)
	}

	// Only after the whole document parses cleanly do we commit to the
	// shared registry, so a later failure can't leave a partially loaded
	// document visible to other callers. Every name is checked against the
	// registry before the first one is registered.
	for _, name := range names {
		if existing, err := reg.Lookup(name); err == nil && !existing.Equals(s.pending[name]) {
			return errs.New(errs.BadParameter, "type name %q is already registered", name)
		}
	}
	for _, name := range names {
		if err := reg.Register(name, s.pending[name]); err != nil {
			return err
		}
	}
	return nil
}

// buildDeclaration dispatches a single top-level declaration element to
// its kind-specific builder, returning the name it should be registered
// under.
func (s *session) buildDeclaration(e *element) (string, *model.Type, error) {
	name := e.attrOr("name", "")
	switch e.Name {
	case "struct":
		t, err := s.buildStruct(e, name)
		return name, t, err
	case "union":
		t, err := s.buildUnion(e, name)
		return name, t, err
	case "enum":
		t, err := s.buildEnum(e, name)
		return name, t, err
	case "typedef":
		t, err := s.buildTypedef(e, name)
		return name, t, err
	case "bitset":
		t, err := s.buildBitset(e, name)
		return name, t, err
	case "bitmask":
		t, err := s.buildBitmask(e, name)
		return name, t, err
	default:
		return name, nil, errs.New(errs.BadParameter, "unknown type declaration <%s>", e.Name)
	}
}

func (s *session) buildStruct(e *element, name string) (*model.Type, error) {
	desc := model.TypeDescriptor{Kind: kind.Structure, Name: name}
	if baseName, ok := e.attr("baseType"); ok {
		base, err := s.resolveNamed(baseName)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "baseType %q not found: %v", baseName, err)
		}
		desc.BaseType = base
	}
	b := model.NewTypeBuilder(desc)
	id := model.MemberId(0)
	for _, child := range e.Children {
		if child.Name != "member" {
			continue
		}
		md, err := s.buildMemberDescriptor(child, id)
		if err != nil {
			return nil, err
		}
		if err := b.AddMember(md); err != nil {
			return nil, err
		}
		id++
	}
	return b.Build()
}

func (s *session) buildMemberDescriptor(e *element, autoID model.MemberId) (model.MemberDescriptor, error) {
	md := model.MemberDescriptor{
		Id:   autoID,
		Name: e.attrOr("name", ""),
	}
	if idStr, ok := e.attr("id"); ok {
		n, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			return md, errs.New(errs.BadParameter, "invalid member id %q", idStr)
		}
		md.Id = model.MemberId(n)
	}
	t, err := s.resolveMemberType(e)
	if err != nil {
		return md, err
	}
	md.Type = t
	md.DefaultValue = e.attrOr("default", "")
	md.IsKey = e.attrOr("key", "false") == "true"
	md.IsOptional = e.attrOr("optional", "false") == "true"
	md.IsMustUnderstand = e.attrOr("mustUnderstand", "false") == "true" || e.attrOr("must_understand", "false") == "true"
	md.IsNonSerialized = e.attrOr("non_serialized", "false") == "true"
	return md, nil
}

// resolveMemberType resolves a member/typedef element's declared type,
// honoring arrayDimensions/sequenceMaxLength/mapMaxLength/
// stringMaxLength wrapping per spec §4.4 "Grammar".
func (s *session) resolveMemberType(e *element) (*model.Type, error) {
	base, err := s.resolveBaseType(e)
	if err != nil {
		return nil, err
	}

	switch {
	case e.attrOr("arrayDimensions", "") != "":
		dims, err := parseDimensions(e.attrOr("arrayDimensions", ""))
		if err != nil {
			return nil, err
		}
		return model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Array, ElementType: base, Bounds: dims}).Build()
	case e.attrOr("sequenceMaxLength", "") != "":
		n, err := strconv.ParseUint(e.attrOr("sequenceMaxLength", ""), 10, 32)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid sequenceMaxLength %q", e.attrOr("sequenceMaxLength", ""))
		}
		return model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Sequence, ElementType: base, Bounds: []uint32{uint32(n)}}).Build()
	case e.attrOr("mapMaxLength", "") != "":
		keyName, ok := e.attr("key_type")
		if !ok {
			return nil, errs.New(errs.BadParameter, "map member missing key_type")
		}
		keyType, err := s.resolveByName(keyName)
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseUint(e.attrOr("mapMaxLength", ""), 10, 32)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid mapMaxLength %q", e.attrOr("mapMaxLength", ""))
		}
		return model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Map, ElementType: base, KeyElementType: keyType, Bounds: []uint32{uint32(n)}}).Build()
	default:
		return base, nil
	}
}

// resolveBaseType resolves the scalar type named by a "type" attribute
// (a primitive keyword, or "nonBasic" with nonBasicTypeName), applying
// stringMaxLength when the resolved kind is a string.
func (s *session) resolveBaseType(e *element) (*model.Type, error) {
	typeName, ok := e.attr("type")
	if !ok {
		return nil, errs.New(errs.BadParameter, "element <%s> is missing a type attribute", e.Name)
	}

	var base *model.Type
	if typeName == "nonBasic" {
		refName, ok := e.attr("nonBasicTypeName")
		if !ok {
			return nil, errs.New(errs.BadParameter, "type=\"nonBasic\" requires nonBasicTypeName")
		}
		t, err := s.resolveNamed(refName)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "nonBasicTypeName %q not found: %v", refName, err)
		}
		base = t
	} else {
		t, err := s.resolveByName(typeName)
		if err != nil {
			return nil, err
		}
		base = t
	}

	if base.ResolveAliasEnclosed().Kind().IsString() {
		if boundStr, ok := e.attr("stringMaxLength"); ok {
			n, err := strconv.ParseUint(boundStr, 10, 32)
			if err != nil {
				return nil, errs.New(errs.BadParameter, "invalid stringMaxLength %q", boundStr)
			}
			return model.NewTypeBuilder(model.TypeDescriptor{Kind: base.ResolveAliasEnclosed().Kind(), Bounds: []uint32{uint32(n)}}).Build()
		}
	}
	return base, nil
}

// resolveByName resolves a primitive keyword or a previously declared
// named type, whichever name matches.
func (s *session) resolveByName(name string) (*model.Type, error) {
	if k, ok := primitiveNames[name]; ok {
		return s.primitiveType(k)
	}
	return s.resolveNamed(name)
}

func parseDimensions(attr string) ([]uint32, error) {
	parts := strings.Split(attr, ",")
	dims := make([]uint32, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid arrayDimensions %q", attr)
		}
		dims = append(dims, uint32(n))
	}
	return dims, nil
}

func (s *session) buildTypedef(e *element, name string) (*model.Type, error) {
	base, err := s.resolveMemberType(e)
	if err != nil {
		return nil, err
	}
	return model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Alias, Name: name, BaseType: base}).Build()
}

func (s *session) buildEnum(e *element, name string) (*model.Type, error) {
	b := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Enum, Name: name})
	var next int64
	var id model.MemberId
	for _, child := range e.Children {
		if child.Name != "enumerator" {
			continue
		}
		litName := child.attrOr("name", "")
		value := next
		if vs, ok := child.attr("value"); ok {
			n, err := strconv.ParseInt(vs, 10, 64)
			if err != nil {
				return nil, errs.New(errs.BadParameter, "invalid enumerator value %q", vs)
			}
			value = n
		}
		var bitBound uint16
		if bb, ok := child.attr("bit_bound"); ok {
			n, err := strconv.ParseUint(bb, 10, 16)
			if err != nil {
				return nil, errs.New(errs.BadParameter, "invalid bit_bound %q", bb)
			}
			bitBound = uint16(n)
		}
		if err := b.AddMember(model.MemberDescriptor{Id: id, Name: litName, Labels: []int64{value}, BitBound: bitBound}); err != nil {
			return nil, err
		}
		next = value + 1
		id++
	}
	return b.Build()
}

func (s *session) buildBitmask(e *element, name string) (*model.Type, error) {
	boolType, err := s.primitiveType(kind.Bool)
	if err != nil {
		return nil, err
	}
	bitBound := uint64(32)
	if bb, ok := e.attr("bit_bound"); ok {
		n, err := strconv.ParseUint(bb, 10, 8)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid bit_bound %q", bb)
		}
		bitBound = n
	}
	b := model.NewTypeBuilder(model.TypeDescriptor{
		Kind:        kind.Bitmask,
		Name:        name,
		ElementType: boolType,
		Bounds:      []uint32{uint32(bitBound)},
	})

	var next int64
	var id model.MemberId
	for _, child := range e.Children {
		if child.Name != "bit_value" {
			continue
		}
		flagName := child.attrOr("name", "")
		pos := next
		if ps, ok := child.attr("position"); ok {
			n, err := strconv.ParseInt(ps, 10, 64)
			if err != nil {
				return nil, errs.New(errs.BadParameter, "invalid bit_value position %q", ps)
			}
			pos = n
		}
		if err := b.AddMember(model.MemberDescriptor{Id: id, Name: flagName, Labels: []int64{pos}}); err != nil {
			return nil, err
		}
		next = pos + 1
		id++
	}
	return b.Build()
}

func (s *session) buildBitset(e *element, name string) (*model.Type, error) {
	desc := model.TypeDescriptor{Kind: kind.Bitset, Name: name}
	if baseName, ok := e.attr("baseType"); ok {
		base, err := s.resolveNamed(baseName)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "baseType %q not found: %v", baseName, err)
		}
		desc.BaseType = base
	}
	b := model.NewTypeBuilder(desc)
	var id model.MemberId
	for _, child := range e.Children {
		if child.Name != "bitfield" {
			continue
		}
		bbStr := child.attrOr("bit_bound", "1")
		n, err := strconv.ParseUint(bbStr, 10, 16)
		if err != nil {
			return nil, errs.New(errs.BadParameter, "invalid bit_bound %q", bbStr)
		}
		// Unnamed fields are padding: they still occupy a slot (and bit
		// width) in the packed word so later fields land at the right
		// offset, but nothing is addressable under an empty name.
		if err := b.AddMember(model.MemberDescriptor{Id: id, Name: child.attrOr("name", ""), BitBound: uint16(n)}); err != nil {
			return nil, err
		}
		id++
	}
	return b.Build()
}

func (s *session) buildUnion(e *element, name string) (*model.Type, error) {
	var discType *model.Type
	var cases []*element
	for _, child := range e.Children {
		switch child.Name {
		case "discriminator":
			t, err := s.resolveBaseType(child)
			if err != nil {
				return nil, err
			}
			discType = t
		case "case":
			cases = append(cases, child)
		}
	}
	if discType == nil {
		return nil, errs.New(errs.BadParameter, "union %q is missing a discriminator", name)
	}

	b := model.NewTypeBuilder(model.TypeDescriptor{Kind: kind.Union, Name: name, DiscriminatorType: discType})
	var id model.MemberId
	for _, c := range cases {
		var labels []int64
		isDefault := false
		var memberEl *element
		for _, part := range c.Children {
			switch part.Name {
			case "caseDiscriminator":
				v, ok := part.attr("value")
				if !ok {
					return nil, errs.New(errs.BadParameter, "caseDiscriminator missing value")
				}
				if v == "default" {
					isDefault = true
					continue
				}
				n, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					return nil, errs.New(errs.BadParameter, "invalid caseDiscriminator value %q", v)
				}
				labels = append(labels, n)
			case "member":
				memberEl = part
			}
		}
		if memberEl == nil {
			return nil, errs.New(errs.BadParameter, "union case is missing its member")
		}
		md, err := s.buildMemberDescriptor(memberEl, id)
		if err != nil {
			return nil, err
		}
		md.Labels = labels
		md.IsDefaultLabel = isDefault
		if err := b.AddMember(md); err != nil {
			return nil, err
		}
		id++
	}
	return b.Build()
}

// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package xmlloader parses declarative type definitions (spec §4.4) from
// an XML document into the registry. It is grounded on the streaming
// xml.Decoder token loop used by other_examples'
// droyo-go-xml__xsd-xsd.go to build a recursive-descent parser over
// encoding/xml, rather than a tag-driven Unmarshal: the grammar's
// attribute-only dialects (type="nonBasic", arrayDimensions, ...) and
// element name dispatch (struct/union/enum/...) don't map cleanly onto
// Go struct tags.
package xmlloader

import (
	"encoding/xml"
	"io"

	"go.fastdds.dev/xtypes/internal/errs"
)

// element is a generic XML element tree node, built once per document so
// the rest of the package can do attribute-driven recursive descent
// without re-tokenizing.
type element struct {
	Name     string
	Attrs    map[string]string
	Children []*element
}

func (e *element) attr(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

func (e *element) attrOr(name, def string) string {
	if v, ok := e.Attrs[name]; ok {
		return v
	}
	return def
}

// parseTree reads a full XML document from r into an element tree rooted
// at the document element.
func parseTree(r io.Reader) (*element, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, errs.New(errs.BadParameter, "empty XML document")
		}
		if err != nil {
			return nil, errs.New(errs.BadParameter, "XML syntax error: %v", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return readElement(dec, start)
		}
	}
}

func readElement(dec *xml.Decoder, start xml.StartElement) (*element, error) {
	e := &element{
		Name:  start.Name.Local,
		Attrs: make(map[string]string, len(start.Attr)),
	}
	for _, a := range start.Attr {
		e.Attrs[a.Name.Local] = a.Value
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, errs.New(errs.BadParameter, "XML syntax error inside <%s>: %v", e.Name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := readElement(dec, t)
			if err != nil {
				return nil, err
			}
			e.Children = append(e.Children, child)
		case xml.EndElement:
			return e, nil
		}
	}
}

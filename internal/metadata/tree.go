package metadata

import (
	"github.com/beevik/etree"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

// Field is one direct child of the mapdata element.
type Field struct {
	Tag  string
	Text string
}

// Tree is a parsed metadata document.
type Tree struct {
	doc     *etree.Document
	mapdata *etree.Element
}

// HasMapData reports whether the document contains a mapdata element.
func (t *Tree) HasMapData() bool {
	return t.mapdata != nil
}

// FindMandatoryText returns the text of mapdata/<tag>.
// An absent element, or one with no text, yields *mapimporter.MissingFieldError.
// Whitespace-only text is returned as is for the caller to validate.
func (t *Tree) FindMandatoryText(tag string) (string, error) {
	text, ok := t.FindOptionalText(tag)
	if !ok || text == "" {
		return "", &mapimporter.MissingFieldError{Field: tag}
	}
	return text, nil
}

// FindOptionalText returns the text of mapdata/<tag> and whether the element exists.
func (t *Tree) FindOptionalText(tag string) (string, bool) {
	if t.mapdata == nil {
		return "", false
	}
	el := t.mapdata.SelectElement(tag)
	if el == nil {
		return "", false
	}
	return el.Text(), true
}

// Children returns every direct child of mapdata in document order.
func (t *Tree) Children() []Field {
	if t.mapdata == nil {
		return nil
	}
	children := t.mapdata.ChildElements()
	fields := make([]Field, 0, len(children))
	for _, el := range children {
		fields = append(fields, Field{Tag: el.Tag, Text: el.Text()})
	}
	return fields
}

// Themes returns the text of every theme element matched by rules, each
// element once, in document order.
func (t *Tree) Themes(rules []ThemeRule) []string {
	if t.mapdata == nil {
		return nil
	}

	matched := make(map[*etree.Element]struct{})
	for _, rule := range rules {
		for _, el := range rule.Match(t.mapdata) {
			matched[el] = struct{}{}
		}
	}
	if len(matched) == 0 {
		return nil
	}

	var out []string
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if _, ok := matched[child]; ok {
				out = append(out, child.Text())
			}
			walk(child)
		}
	}
	walk(t.mapdata)
	return out
}

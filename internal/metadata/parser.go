package metadata

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"golang.org/x/net/html/charset"
)

// MaxMetadataSize caps the metadata document at 1 MiB.
const MaxMetadataSize = 1 << 20

// RootTag is the element whose children carry the map fields.
const RootTag = "mapdata"

// Parse reads and parses the metadata document at path.
func Parse(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxMetadataSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata %s: %w", path, err)
	}
	return ParseBytes(data)
}

// ParseBytes parses an in-memory metadata document.
func ParseBytes(data []byte) (*Tree, error) {
	if len(data) > MaxMetadataSize {
		return nil, &mapimporter.XMLParseError{
			Message: fmt.Sprintf("document exceeds %d bytes", MaxMetadataSize),
			Line:    1,
		}
	}
	if err := scan(data); err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &mapimporter.XMLParseError{Message: err.Error(), Line: 1}
	}
	if doc.Root() == nil {
		return nil, noElementFound()
	}

	return &Tree{doc: doc, mapdata: doc.FindElement("//" + RootTag)}, nil
}

// scan walks every token with a strict decoder, rejecting malformed input and
// entity declarations before the tree is built.
func scan(data []byte) error {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = true
	d.CharsetReader = charset.NewReaderLabel

	sawElement := false
	depth := 0
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, col := d.InputPos()
			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) {
				return &mapimporter.XMLParseError{Message: syntaxErr.Msg, Line: syntaxErr.Line, Column: col}
			}
			return &mapimporter.XMLParseError{Message: err.Error(), Line: line, Column: col}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if sawElement && depth == 0 {
				return junkAfterRoot(d)
			}
			sawElement = true
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if sawElement && depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return junkAfterRoot(d)
			}
		case xml.Directive:
			if msg := rejectDirective(string(t)); msg != "" {
				line, col := d.InputPos()
				return &mapimporter.XMLParseError{Message: msg, Line: line, Column: col}
			}
		}
	}

	if !sawElement {
		return noElementFound()
	}
	return nil
}

// rejectDirective returns a message when a directive would declare entities
// or reference an external DTD.
func rejectDirective(directive string) string {
	switch {
	case strings.Contains(directive, "<!ENTITY"):
		return "entity declarations are not allowed"
	case strings.HasPrefix(directive, "DOCTYPE") &&
		(strings.Contains(directive, "SYSTEM") || strings.Contains(directive, "PUBLIC")):
		return "external DTD references are not allowed"
	}
	return ""
}

func junkAfterRoot(d *xml.Decoder) error {
	line, col := d.InputPos()
	return &mapimporter.XMLParseError{Message: "junk after document element", Line: line, Column: col}
}

func noElementFound() error {
	return &mapimporter.XMLParseError{Message: "no element found", Line: 1, Column: 0}
}

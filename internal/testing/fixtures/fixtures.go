// Package fixtures builds map packages in memory for tests.
package fixtures

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

// Member is one file inside a fixture archive.
type Member struct {
	Name string
	Data []byte
}

// Metadata describes the mapdata fields of a fixture document.
// Empty fields are omitted from the XML.
type Metadata struct {
	OperationID string
	MapNumber   string
	Version     string
	Status      string
	Title       string
	Summary     string
	ProductType string
	Themes      []string
	Extra       [][2]string
}

// Example returns the metadata of the reference sample package.
func Example() Metadata {
	return Metadata{
		OperationID: "189",
		MapNumber:   "MA001",
		Version:     "1",
		Status:      "New",
		Title:       "Central African Republic: Example Map- Reference (as of 3 Feb 2099)",
		Summary:     "Example reference map of the Central African Republic.  This is an example map only and for testing use only",
		Themes:      []string{"Orientation and Reference"},
		Extra: [][2]string{
			{"ref", "MA001_Aptivate_Example"},
			{"scale", "1: 4,000,000"},
			{"language", "English"},
		},
	}
}

// ExampleFiles returns the two payload members of the reference sample package.
func ExampleFiles() []Member {
	return []Member{
		{Name: "MA001_Aptivate_Example-300dpi.jpeg", Data: []byte("\xff\xd8\xff\xe0 jpeg payload")},
		{Name: "MA001_Aptivate_Example-300dpi.pdf", Data: []byte("%PDF-1.4 pdf payload")},
	}
}

// With returns a copy of m with status and version replaced.
func (m Metadata) With(status, version string) Metadata {
	m.Status = status
	m.Version = version
	return m
}

// XML renders m as a metadata document.
func (m Metadata) XML() []byte {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<mapdoc>\n  <mapdata>\n")
	field := func(tag, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "    <%s>%s</%s>\n", tag, escape(value), tag)
	}
	field("title", m.Title)
	field("operationID", m.OperationID)
	field("mapNumber", m.MapNumber)
	field("versionNumber", m.Version)
	field("status", m.Status)
	field("summary", m.Summary)
	field("productType", m.ProductType)
	for _, kv := range m.Extra {
		field(kv[0], kv[1])
	}
	if len(m.Themes) > 0 {
		b.WriteString("    <themes>\n")
		for _, theme := range m.Themes {
			fmt.Fprintf(&b, "      <theme>%s</theme>\n", escape(theme))
		}
		b.WriteString("    </themes>\n")
	}
	b.WriteString("  </mapdata>\n</mapdoc>\n")
	return []byte(b.String())
}

func escape(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

// Zip writes members into an in-memory ZIP archive in the given order.
func Zip(t testing.TB, members ...Member) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, m := range members {
		f, err := w.Create(m.Name)
		if err != nil {
			t.Fatalf("create zip member %s: %v", m.Name, err)
		}
		if _, err := f.Write(m.Data); err != nil {
			t.Fatalf("write zip member %s: %v", m.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// Package builds an upload holding meta as MA001_Aptivate_Example.xml followed by files.
func Package(t testing.TB, meta Metadata, files ...Member) *mapimporter.BytesUpload {
	t.Helper()

	members := append([]Member{{Name: "MA001_Aptivate_Example.xml", Data: meta.XML()}}, files...)
	return mapimporter.NewBytesUpload("MA001_Aptivate_Example.zip", Zip(t, members...))
}

// ExamplePackage builds the reference sample package with the given status and version.
func ExamplePackage(t testing.TB, status, version string) *mapimporter.BytesUpload {
	t.Helper()
	return Package(t, Example().With(status, version), ExampleFiles()...)
}

// Package metadata parses the XML metadata document shipped inside a map package.
//
// # Document Shape
//
// Fields live as direct children of a mapdata element, which may sit at any
// depth below the document root:
//
//	<mapdoc>
//	  <mapdata>
//	    <operationID>00189</operationID>
//	    <mapNumber>MA001</mapNumber>
//	    <versionNumber>1</versionNumber>
//	    <status>New</status>
//	    <themes>
//	      <theme>Orientation and Reference</theme>
//	    </themes>
//	  </mapdata>
//	</mapdoc>
//
// # Hardening
//
// Documents come from untrusted uploads. Before a tree is built the raw bytes
// are scanned in strict mode: DTD entity declarations are rejected, only the
// predefined XML entities are recognised, and nothing outside the document is
// ever fetched. Documents larger than MaxMetadataSize are refused.
//
// # Theme Rules
//
// Theme elements moved around across schema revisions. Each known shape is a
// ThemeRule; rules are applied in a fixed priority order and their matches
// merged, so a document written against any revision yields the same themes.
package metadata

// Package themes holds the controlled vocabulary of map product themes.
//
// A Vocabulary is an immutable value injected into the record builder;
// there is no process-wide registry.
package themes

// VocabularyName is the name the vocabulary is stored under in a catalog.
const VocabularyName = "product_themes"

var defaultNames = []string{
	"Affected Population",
	"Agriculture",
	"Appeals",
	"Camp Coordination or Management",
	"Early Recovery",
	"Education",
	"Emergency Shelter",
	"Emergency Telecommunications",
	"Environmental Aspects",
	"Health",
	"Logistics",
	"Nutrition",
	"P-codes",
	"Population Baseline",
	"Orientation and Reference",
	"Search and Rescue or Evacuation Planning",
	"Search and Rescue Sectors",
	"Security and Safety and Protection",
	"Situation and Damage",
	"Water Sanitation and Hygiene",
	"Who-What-Where",
}

// Vocabulary is an ordered set of theme names matched by exact string equality.
type Vocabulary struct {
	names []string
	set   map[string]struct{}
}

// New builds a vocabulary from names. Duplicates are collapsed, first position wins.
func New(names ...string) Vocabulary {
	v := Vocabulary{set: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if _, ok := v.set[n]; ok {
			continue
		}
		v.set[n] = struct{}{}
		v.names = append(v.names, n)
	}
	return v
}

// Default returns the standard product theme vocabulary.
func Default() Vocabulary {
	return New(defaultNames...)
}

// Contains reports whether name is a member.
func (v Vocabulary) Contains(name string) bool {
	_, ok := v.set[name]
	return ok
}

// Names returns a copy of the members in declaration order.
func (v Vocabulary) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Len returns the number of members.
func (v Vocabulary) Len() int { return len(v.names) }

// Filter splits values into members and rejects, preserving order and duplicates.
func (v Vocabulary) Filter(values []string) (accepted, rejected []string) {
	for _, value := range values {
		if v.Contains(value) {
			accepted = append(accepted, value)
		} else {
			rejected = append(rejected, value)
		}
	}
	return accepted, rejected
}

package metadata

import "github.com/beevik/etree"

// ThemeRule locates theme elements for one schema revision, relative to mapdata.
type ThemeRule struct {
	Name string
	path etree.Path
}

// NewThemeRule compiles an etree path into a rule.
func NewThemeRule(name, path string) (ThemeRule, error) {
	p, err := etree.CompilePath(path)
	if err != nil {
		return ThemeRule{}, err
	}
	return ThemeRule{Name: name, path: p}, nil
}

// Match returns the elements under mapdata selected by the rule.
func (r ThemeRule) Match(mapdata *etree.Element) []*etree.Element {
	if mapdata == nil {
		return nil
	}
	return mapdata.FindElementsPath(r.path)
}

var (
	// NestedThemes matches the current <themes><theme/></themes> shape.
	NestedThemes = ThemeRule{Name: "nested", path: etree.MustCompilePath("themes/theme")}

	// SingleTheme matches the older single <theme/> child.
	SingleTheme = ThemeRule{Name: "single", path: etree.MustCompilePath("theme")}

	// DeepThemes matches theme elements at any depth below mapdata.
	DeepThemes = ThemeRule{Name: "deep", path: etree.MustCompilePath(".//theme")}
)

// DefaultThemeRules returns the rules in priority order.
func DefaultThemeRules() []ThemeRule {
	return []ThemeRule{NestedThemes, SingleTheme, DeepThemes}
}

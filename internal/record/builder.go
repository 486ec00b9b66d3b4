package record

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mapaction/mapimporter/internal/metadata"
	"github.com/mapaction/mapimporter/internal/themes"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

// Field names recognised in mapdata.
const (
	FieldTitle         = "title"
	FieldOperationID   = "operationID"
	FieldMapNumber     = "mapNumber"
	FieldVersionNumber = "versionNumber"
	FieldSummary       = "summary"
	FieldStatus        = "status"
	FieldProductType   = "productType"
)

// excludedTags never appear in extras; they are modelled as record fields.
var excludedTags = map[string]struct{}{
	"operationID":   {},
	"status":        {},
	"theme":         {},
	"themes":        {},
	"title":         {},
	"versionNumber": {},
}

// IsExcludedTag reports whether tag is reserved and kept out of extras.
func IsExcludedTag(tag string) bool {
	_, ok := excludedTags[tag]
	return ok
}

// Builder builds DatasetRecords against a fixed theme vocabulary.
type Builder struct {
	vocabulary   themes.Vocabulary
	rules        []metadata.ThemeRule
	dedupeThemes bool
	logger       mapimporter.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithThemeRules overrides the theme lookup rules.
func WithThemeRules(rules ...metadata.ThemeRule) Option {
	return func(b *Builder) {
		b.rules = rules
	}
}

// WithDedupeThemes drops repeated theme values, keeping the first occurrence.
func WithDedupeThemes(dedupe bool) Option {
	return func(b *Builder) {
		b.dedupeThemes = dedupe
	}
}

// NewBuilder creates a Builder. Panics if logger is nil.
func NewBuilder(vocabulary themes.Vocabulary, logger mapimporter.Logger, opts ...Option) *Builder {
	if logger == nil {
		panic("logger cannot be nil")
	}
	b := &Builder{
		vocabulary: vocabulary,
		rules:      metadata.DefaultThemeRules(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build populates a DatasetRecord from tree.
func (b *Builder) Build(tree *metadata.Tree) (*DatasetRecord, error) {
	title, _ := tree.FindOptionalText(FieldTitle)

	operationID, err := tree.FindMandatoryText(FieldOperationID)
	if err != nil {
		return nil, err
	}
	mapNumber, err := tree.FindMandatoryText(FieldMapNumber)
	if err != nil {
		return nil, err
	}
	versionText, err := tree.FindMandatoryText(FieldVersionNumber)
	if err != nil {
		return nil, err
	}
	version, err := ParseVersion(versionText)
	if err != nil {
		return nil, err
	}

	rec := &DatasetRecord{
		Title:         JoinLines(title),
		Name:          Slugify(fmt.Sprintf("%s %s v%d", operationID, mapNumber, version)),
		Version:       version,
		ProductThemes: b.productThemes(tree),
		LicenseID:     mapimporter.LicenseNotSpecified,
		OperationID:   strings.TrimSpace(operationID),
		MapNumber:     strings.TrimSpace(mapNumber),
	}

	if productType, ok := tree.FindOptionalText(FieldProductType); ok {
		rec.DatasetType = productType
	}
	summary, _ := tree.FindOptionalText(FieldSummary)
	rec.Notes = JoinLines(summary)
	rec.Extras = extras(tree)
	rec.Status, _ = tree.FindOptionalText(FieldStatus)
	rec.Status = strings.TrimSpace(rec.Status)

	return rec, nil
}

func (b *Builder) productThemes(tree *metadata.Tree) []string {
	var accepted []string
	seen := make(map[string]struct{})
	for _, theme := range tree.Themes(b.rules) {
		if !b.vocabulary.Contains(theme) {
			b.logger.Warn("Product theme '%s' not defined in product themes", theme)
			continue
		}
		if b.dedupeThemes {
			if _, ok := seen[theme]; ok {
				continue
			}
			seen[theme] = struct{}{}
		}
		accepted = append(accepted, theme)
	}
	return accepted
}

// extras maps every non-reserved mapdata child to its text. A repeated tag
// keeps its first position and its last value.
func extras(tree *metadata.Tree) []mapimporter.Extra {
	out := []mapimporter.Extra{}
	index := make(map[string]int)
	for _, field := range tree.Children() {
		if IsExcludedTag(field.Tag) {
			continue
		}
		if i, ok := index[field.Tag]; ok {
			out[i].Value = field.Text
			continue
		}
		index[field.Tag] = len(out)
		out = append(out, mapimporter.Extra{Key: field.Tag, Value: field.Text})
	}
	return out
}

// ParseVersion parses a decimal version number. Surrounding whitespace and a
// leading '+' are allowed; anything else yields *mapimporter.InvalidVersionNumberError.
func ParseVersion(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, &mapimporter.InvalidVersionNumberError{Raw: raw}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, &mapimporter.InvalidVersionNumberError{Raw: raw}
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, &mapimporter.InvalidVersionNumberError{Raw: raw}
	}
	return v, nil
}

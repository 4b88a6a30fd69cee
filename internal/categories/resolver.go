// Package categories resolves user-facing category and subcategory
// labels to canonical stored names, creating catalog rows on first
// reference. It owns the legacy display-name translation table.
package categories

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Norfeusz/finance-manager-sub000/internal/storage"
)

// LegacyMappingVersion identifies the active revision of the
// display-name translation table below.
const LegacyMappingVersion = 2

// legacyNames maps user-facing labels (lowercased) to canonical stored
// category names. Old clients still send the left-hand forms.
var legacyNames = map[string]string{
	"jedzenie":         "zakupy",
	"chemia":           "zakupy",
	"spożywcze":        "zakupy",
	"apteka":           "apteka",
	"auto":             "transport",
	"paliwo":           "transport",
	"wyjazdy":          "podróże",
	"wakacje":          "podróże",
	"prezenty":         "prezenty",
	"dla domu":         "dom",
	"wyposażenie":      "dom",
	"rozrywka":         "rozrywka",
	"wyjścia":          "rozrywka",
	"subskrypcje":      "subskrypcje",
	"opłaty":           "rachunki",
	"media":            "rachunki",
	"czynsz":           "rachunki",
	"zdrowie":          "zdrowie",
	"lekarz":           "zdrowie",
	"ubrania":          "odzież",
	"odzież i obuwie":  "odzież",
	"zwierzęta":        "zwierzęta",
	"karma":            "zwierzęta",
	"inne":             "pozostałe",
	"różne":            "pozostałe",
}

// legacySubcategoryNames maps legacy subcategory labels inside the
// catch-all category.
var legacySubcategoryNames = map[string]string{
	"jedzenie":  "spożywcze",
	"chemia":    "chemia",
	"kosmetyki": "kosmetyki",
	"alkohol":   "alkohol",
}

// Resolver translates labels and ensures catalog rows exist.
type Resolver struct {
	logger *slog.Logger
}

func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// CanonicalCategory translates a user-facing category label to its
// canonical stored name. Unknown labels pass through trimmed.
func (r *Resolver) CanonicalCategory(label string) string {
	label = strings.TrimSpace(label)
	if canonical, ok := legacyNames[strings.ToLower(label)]; ok {
		return canonical
	}
	return label
}

// CanonicalSubcategory translates a user-facing subcategory label.
func (r *Resolver) CanonicalSubcategory(label string) string {
	label = strings.TrimSpace(label)
	if canonical, ok := legacySubcategoryNames[strings.ToLower(label)]; ok {
		return canonical
	}
	return label
}

// Resolve maps the labels to canonical names and ensures both catalog
// rows exist, returning their ids. Subcategory may be empty.
func (r *Resolver) Resolve(ctx context.Context, q *storage.Queries, category, subcategory string) (categoryID int64, subcategoryID *int64, canonicalCat, canonicalSub string, err error) {
	canonicalCat = r.CanonicalCategory(category)
	if canonicalCat != strings.TrimSpace(category) {
		r.logger.DebugContext(ctx, "Translated legacy category label",
			"label", category, "canonical", canonicalCat, "mapping_version", LegacyMappingVersion)
	}

	categoryID, err = q.EnsureCategory(ctx, canonicalCat)
	if err != nil {
		return 0, nil, "", "", err
	}

	if strings.TrimSpace(subcategory) == "" {
		return categoryID, nil, canonicalCat, "", nil
	}

	canonicalSub = r.CanonicalSubcategory(subcategory)
	subID, err := q.EnsureSubcategory(ctx, categoryID, canonicalSub)
	if err != nil {
		return 0, nil, "", "", err
	}
	return categoryID, &subID, canonicalCat, canonicalSub, nil
}

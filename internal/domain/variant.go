package domain

import "strings"

// Variant selects one of the fixed stylistic presets applied to a request.
type Variant string

const (
	VariantStandard Variant = "standard"
	VariantUncommon Variant = "uncommon"
	VariantDistance Variant = "distance"
	VariantAbstract Variant = "abstract"
)

// Variants is the generation order used on the results page.
var Variants = []Variant{VariantStandard, VariantUncommon, VariantDistance, VariantAbstract}

var styleClauses = map[Variant]string{
	VariantStandard: "Style: clean professional commercial photography, balanced composition, natural lighting, subjects clearly in frame.",
	VariantUncommon: "Style: uncommon and creative, unexpected camera angle, bold artistic composition, surprising but tasteful color choices.",
	VariantDistance: "Style: wide shot taken from a distance, subjects small within an expansive environment, strong sense of place and scale.",
	VariantAbstract: "Style: abstract conceptual interpretation, simplified shapes, expressive color fields, symbolic rather than literal depiction.",
}

var variantLabels = map[Variant]string{
	VariantStandard: "Standard",
	VariantUncommon: "Uncommon / Creative",
	VariantDistance: "Distance",
	VariantAbstract: "Abstract",
}

// StyleClause returns the fixed style instruction for v.
func StyleClause(v Variant) string {
	return styleClauses[v]
}

// Label returns the display name of v.
func (v Variant) Label() string {
	if label, ok := variantLabels[v]; ok {
		return label
	}
	return string(v)
}

// ParseVariant reports whether value names a known variant.
func ParseVariant(value string) (Variant, bool) {
	v := Variant(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := styleClauses[v]; ok {
		return v, true
	}
	return "", false
}

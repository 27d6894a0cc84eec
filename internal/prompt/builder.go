package prompt

import (
	"fmt"
	"strings"

	"t4studio/internal/domain"
)

// QualityClause closes every wizard prompt regardless of the other inputs.
const QualityClause = "Ultra high resolution, sharp focus, professional color grading, no watermark, no distorted or misspelled text."

var subjectNouns = map[domain.Subject][2]string{
	domain.SubjectModel:    {"model", "models"},
	domain.SubjectProduct:  {"product", "products"},
	domain.SubjectBuilding: {"building", "buildings"},
	domain.SubjectFantasy:  {"fantasy element", "fantasy elements"},
}

// Build assembles the generation prompt for one variant. It never fails:
// missing fields only drop their clause.
func Build(cfg domain.ScopingConfig, assets domain.AssetBundle, variant domain.Variant) string {
	parts := []string{}
	if topic := strings.TrimSpace(cfg.Topic); topic != "" {
		if ratio := strings.TrimSpace(string(cfg.AspectRatio)); ratio != "" {
			parts = append(parts, fmt.Sprintf("Create a %s campaign image about %q.", ratio, topic))
		} else {
			parts = append(parts, fmt.Sprintf("Create a campaign image about %q.", topic))
		}
	}
	for _, s := range domain.Subjects {
		spec := cfg.Subject(s)
		if !spec.Active() {
			continue
		}
		parts = append(parts, SubjectClause(s, spec, assets.Has(s)))
	}
	if style := domain.StyleClause(variant); style != "" {
		parts = append(parts, style)
	}
	if assets.HasStyleReference() {
		parts = append(parts, "Match the overall look of the uploaded style reference image.")
	}
	if instructions := strings.TrimSpace(assets.Instructions); instructions != "" {
		parts = append(parts, "Special instructions: "+strings.TrimRight(instructions, ". ")+".")
	}
	parts = append(parts, QualityClause)
	return strings.Join(parts, " ")
}

// SubjectClause describes one active subject category.
func SubjectClause(s domain.Subject, spec domain.SubjectSpec, hasReference bool) string {
	role := "Supporting"
	if spec.Role == domain.RoleMain {
		role = "Main"
	}
	quantity := spec.Quantity
	if quantity < 1 {
		quantity = 1
	}

	var b strings.Builder
	b.WriteString(role)
	b.WriteString(" subject: ")
	if s == domain.SubjectText {
		lines := spec.LineCount
		if lines < 1 {
			lines = 1
		}
		if lines == 1 {
			b.WriteString("1 line of headline text")
		} else {
			fmt.Fprintf(&b, "%d lines of headline text", lines)
		}
		if spec.FocusLine > 0 {
			fmt.Fprintf(&b, ", emphasizing line %d", spec.FocusLine)
		}
	} else {
		nouns := subjectNouns[s]
		noun := nouns[0]
		if quantity > 1 {
			noun = nouns[1]
		}
		if s == domain.SubjectModel && spec.Gender != "" {
			gender := spec.Gender
			if gender == "mixed" {
				gender = "mixed-gender"
			}
			noun = gender + " " + noun
		}
		fmt.Fprintf(&b, "%d %s", quantity, noun)
	}
	b.WriteString(".")
	if hasReference {
		fmt.Fprintf(&b, " Use the uploaded %s reference image.", s)
	}
	return b.String()
}

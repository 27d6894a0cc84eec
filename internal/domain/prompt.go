package domain

import "strings"

// Role tags how prominently a subject category appears in the generated scene.
type Role string

const (
	RoleNone       Role = "none"
	RoleMain       Role = "main"
	RoleSupporting Role = "supporting"
)

// ParseRole maps free-form form values onto a Role. Unknown values are None.
func ParseRole(value string) Role {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(RoleMain):
		return RoleMain
	case string(RoleSupporting), "support":
		return RoleSupporting
	default:
		return RoleNone
	}
}

// Subject is one of the fixed subject categories a campaign can feature.
type Subject string

const (
	SubjectModel    Subject = "model"
	SubjectProduct  Subject = "product"
	SubjectBuilding Subject = "building"
	SubjectFantasy  Subject = "fantasy"
	SubjectText     Subject = "text"
)

// Subjects lists every category in prompt order.
var Subjects = []Subject{SubjectModel, SubjectProduct, SubjectBuilding, SubjectFantasy, SubjectText}

// ParseSubject reports whether value names a known subject category.
func ParseSubject(value string) (Subject, bool) {
	s := Subject(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Subjects {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// AspectRatio is the requested output framing.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "9:16"
	AspectLandscape AspectRatio = "16:9"
	AspectClassic   AspectRatio = "4:3"
	AspectTall      AspectRatio = "3:4"
)

// DefaultAspectRatio is applied when the scoping form omits the ratio.
const DefaultAspectRatio = AspectSquare

// NormalizeAspectRatio sanitizes user input into a supported ratio.
func NormalizeAspectRatio(value string) AspectRatio {
	switch AspectRatio(strings.TrimSpace(value)) {
	case AspectPortrait:
		return AspectPortrait
	case AspectLandscape:
		return AspectLandscape
	case AspectClassic:
		return AspectClassic
	case AspectTall:
		return AspectTall
	default:
		return DefaultAspectRatio
	}
}

// SubjectSpec is the per-category part of the scoping form. Gender only
// applies to models; LineCount and FocusLine only apply to text.
type SubjectSpec struct {
	Role      Role   `json:"role"`
	Quantity  int    `json:"quantity"`
	Gender    string `json:"gender,omitempty"`
	LineCount int    `json:"line_count,omitempty"`
	FocusLine int    `json:"focus_line,omitempty"`
}

// Active reports whether the subject contributes to the prompt.
func (s SubjectSpec) Active() bool {
	return s.Role == RoleMain || s.Role == RoleSupporting
}

// ScopingConfig is the first wizard step's description of campaign intent.
type ScopingConfig struct {
	Topic       string                  `json:"topic"`
	AspectRatio AspectRatio             `json:"aspect_ratio"`
	Subjects    map[Subject]SubjectSpec `json:"subjects"`
}

// Subject returns the SubjectSpec for s, defaulting to RoleNone when absent.
func (c ScopingConfig) Subject(s Subject) SubjectSpec {
	if spec, ok := c.Subjects[s]; ok {
		return spec
	}
	return SubjectSpec{Role: RoleNone}
}

// Validate enforces the fields required before the wizard may advance.
func (c ScopingConfig) Validate() error {
	if strings.TrimSpace(c.Topic) == "" {
		return ErrTopicRequired
	}
	return nil
}

// Normalize returns a deep copy with defaults and limits applied. The copy
// shares nothing with the receiver so it can be stored as a frozen value.
func (c ScopingConfig) Normalize() ScopingConfig {
	out := ScopingConfig{
		Topic:       strings.TrimSpace(c.Topic),
		AspectRatio: NormalizeAspectRatio(string(c.AspectRatio)),
		Subjects:    make(map[Subject]SubjectSpec, len(c.Subjects)),
	}
	for _, s := range Subjects {
		spec, ok := c.Subjects[s]
		if !ok {
			continue
		}
		spec.Role = ParseRole(string(spec.Role))
		if !spec.Active() {
			out.Subjects[s] = SubjectSpec{Role: RoleNone}
			continue
		}
		if spec.Quantity < 1 {
			spec.Quantity = 1
		}
		if spec.Quantity > MaxSubjectQuantity {
			spec.Quantity = MaxSubjectQuantity
		}
		switch s {
		case SubjectModel:
			spec.Gender = normalizeGender(spec.Gender)
			spec.LineCount, spec.FocusLine = 0, 0
		case SubjectText:
			spec.Gender = ""
			if spec.LineCount < 1 {
				spec.LineCount = 1
			}
			if spec.FocusLine < 0 || spec.FocusLine > spec.LineCount {
				spec.FocusLine = 0
			}
		default:
			spec.Gender = ""
			spec.LineCount, spec.FocusLine = 0, 0
		}
		out.Subjects[s] = spec
	}
	return out
}

// MaxSubjectQuantity caps how many instances of one subject may be requested.
const MaxSubjectQuantity = 10

func normalizeGender(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "female", "woman", "women":
		return "female"
	case "male", "man", "men":
		return "male"
	case "mixed":
		return "mixed"
	default:
		return ""
	}
}

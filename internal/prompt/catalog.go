package prompt

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultNegativePrompt lists artefacts the quick studio asks the model to avoid.
const DefaultNegativePrompt = "blur, ugly, deformed, text, logo, watermark, low quality, bad hands"

// DefaultOverlayText is the Burmese two-line headline offered by the quick studio.
const DefaultOverlayText = "သဘာဝအလှ\nအကောင်းဆုံးရွေးချယ်မှု"

// Theme is a selectable scene template inside a category.
type Theme struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	template string
}

// Category is a product category offered by the quick studio.
type Category struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	DefaultItem string  `json:"default_item"`
	Themes      []Theme `json:"themes,omitempty"`
	template    string
}

// SizePreset is a named output size for the Pollinations backend.
type SizePreset struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

const interiorTemplate = "Interior design shot of {item}, modern living room, soft sunlight, architectural digest style"

var titleCaser = cases.Title(language.English)

var categories = []Category{
	{
		ID:          "cosmetic",
		Label:       label("cosmetic", "အလှကုန်"),
		DefaultItem: "Luxury Perfume",
		Themes: []Theme{
			{ID: "floral_garden", Label: "Floral Garden", template: "Professional product photo of {item}, surrounded by soft pink flowers, bokeh nature background, sunlight, 8k"},
			{ID: "water_splash", Label: "Water Splash", template: "Fresh {item}, dynamic water splash, blue background, refreshing, high speed photography"},
			{ID: "minimal_studio", Label: "Minimal Studio", template: "Clean studio shot of {item}, pastel background, soft shadows, minimalist"},
			{ID: "golden_luxury", Label: "Golden Luxury", template: "Luxurious {item} on black podium, gold dust, elegant lighting, premium ad"},
		},
	},
	{
		ID:          "food",
		Label:       label("food", "အစားအသောက်"),
		DefaultItem: "Burger",
		template:    "Delicious {item} on wooden table, restaurant lighting, steam rising, mouth watering, 8k food photography",
	},
	{
		ID:          "fashion",
		Label:       label("fashion", "ဖက်ရှင်"),
		DefaultItem: "Silk Dress",
		template:    "Fashion model wearing {item}, street style, city background, golden hour lighting, magazine quality",
	},
	{
		ID:          "gadget",
		Label:       label("gadget", "နည်းပညာ"),
		DefaultItem: "Modern Chair",
		template:    interiorTemplate,
	},
	{
		ID:          "furniture",
		Label:       label("furniture", "ပရိဘောဂ"),
		DefaultItem: "Modern Chair",
		template:    interiorTemplate,
	},
}

var sizePresets = []SizePreset{
	{ID: "square", Label: "Square (1:1)", Width: 1080, Height: 1080},
	{ID: "portrait", Label: "Portrait (9:16)", Width: 768, Height: 1344},
	{ID: "landscape", Label: "Landscape (16:9)", Width: 1280, Height: 720},
}

func label(id, burmese string) string {
	return titleCaser.String(id) + " (" + burmese + ")"
}

// Categories returns the quick studio category list in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// SizePresets returns the selectable output sizes.
func SizePresets() []SizePreset {
	out := make([]SizePreset, len(sizePresets))
	copy(out, sizePresets)
	return out
}

// ResolveSize maps a preset id (or its label) onto pixel dimensions. An empty
// choice selects the first preset; any other unknown choice is landscape.
func ResolveSize(choice string) SizePreset {
	choice = strings.ToLower(strings.TrimSpace(choice))
	if choice == "" {
		return sizePresets[0]
	}
	for _, p := range sizePresets {
		if choice == p.ID || strings.Contains(choice, p.ID) {
			return p
		}
	}
	return sizePresets[len(sizePresets)-1]
}

func findCategory(id string) Category {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, c := range categories {
		if c.ID == id {
			return c
		}
	}
	return categories[len(categories)-1]
}

// AutoPrompt fills the template for a category, item and optional theme.
// Unknown categories use the interior template. An empty cosmetic theme
// selects the first theme and an unknown one the last.
func AutoPrompt(categoryID, item, themeID string) string {
	c := findCategory(categoryID)
	item = strings.TrimSpace(item)
	if item == "" {
		item = c.DefaultItem
	}
	tmpl := c.template
	if len(c.Themes) > 0 {
		themeID = strings.ToLower(strings.TrimSpace(themeID))
		tmpl = c.Themes[len(c.Themes)-1].template
		if themeID == "" {
			tmpl = c.Themes[0].template
		}
		for _, t := range c.Themes {
			if t.ID == themeID {
				tmpl = t.template
				break
			}
		}
	}
	return strings.ReplaceAll(tmpl, "{item}", item)
}

// WithNegative appends the negative prompt using the "--no" convention.
func WithNegative(prompt, negative string) string {
	prompt = strings.TrimSpace(prompt)
	negative = strings.TrimSpace(negative)
	if negative == "" {
		return prompt
	}
	return prompt + " --no " + negative
}

package domain

import (
	"path/filepath"
	"strings"
)

// Upload is one uploaded bitmap kept in its encoded form.
type Upload struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Empty reports whether the upload carries no bytes.
func (u *Upload) Empty() bool {
	return u == nil || len(u.Data) == 0
}

// AllowedUploadExtension reports whether name carries a png/jpg extension.
func AllowedUploadExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".png", ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

// AssetBundle holds the reference material gathered in the asset step.
type AssetBundle struct {
	Subjects       map[Subject]*Upload `json:"subjects,omitempty"`
	StyleReference *Upload             `json:"style_reference,omitempty"`
	Instructions   string              `json:"instructions,omitempty"`
}

// Has reports whether a reference bitmap was uploaded for s.
func (b AssetBundle) Has(s Subject) bool {
	return !b.Subjects[s].Empty()
}

// HasStyleReference reports whether a main style reference was uploaded.
func (b AssetBundle) HasStyleReference() bool {
	return !b.StyleReference.Empty()
}

// LabeledUpload pairs an upload with the label describing its role.
type LabeledUpload struct {
	Label  string
	Upload *Upload
}

// References returns the uploads in a stable order: subjects first, in
// prompt order, then the style reference.
func (b AssetBundle) References() []LabeledUpload {
	var out []LabeledUpload
	for _, s := range Subjects {
		if b.Has(s) {
			out = append(out, LabeledUpload{Label: string(s) + " reference", Upload: b.Subjects[s]})
		}
	}
	if b.HasStyleReference() {
		out = append(out, LabeledUpload{Label: "style reference", Upload: b.StyleReference})
	}
	return out
}

package wizard

import (
	"strings"
	"time"

	"t4studio/internal/domain"
)

// VariantResult is the outcome of one variant. Image holds PNG bytes and is
// empty when Error is set.
type VariantResult struct {
	Variant domain.Variant `json:"variant"`
	Label   string         `json:"label"`
	Prompt  string         `json:"prompt"`
	Image   []byte         `json:"image,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// OK reports whether the variant produced an image.
func (r VariantResult) OK() bool {
	return r.Error == "" && len(r.Image) > 0
}

// HistoryEntry records one finished campaign.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"created_at"`
	Thumbnail []byte    `json:"thumbnail,omitempty"`
}

// Session is the per-user wizard context. Scoping and Assets stay nil until
// their step is submitted; History only ever grows.
type Session struct {
	ID        string                `json:"id"`
	Page      Page                  `json:"page"`
	Scoping   *domain.ScopingConfig `json:"scoping,omitempty"`
	Assets    *domain.AssetBundle   `json:"assets,omitempty"`
	Results   []VariantResult       `json:"results,omitempty"`
	History   []HistoryEntry        `json:"history,omitempty"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// NewSession returns a session on the dashboard.
func NewSession(id string) *Session {
	return &Session{ID: id, Page: PageDashboard}
}

// Input carries the form data attached to a command.
type Input struct {
	Scoping *domain.ScopingConfig
	Assets  *domain.AssetBundle
	APIKey  string
}

// Apply runs cmd against the session. Guard failures leave the session
// exactly as it was.
func (s *Session) Apply(cmd Command, in Input) error {
	next, err := Next(s.Page, cmd)
	if err != nil {
		return err
	}
	switch cmd {
	case CmdStartProject:
		s.clearProject()
	case CmdSubmitScoping:
		if in.Scoping == nil {
			return domain.ErrTopicRequired
		}
		if err := in.Scoping.Validate(); err != nil {
			return err
		}
		frozen := in.Scoping.Normalize()
		s.Scoping = &frozen
	case CmdSubmitAssets:
		bundle := domain.AssetBundle{}
		if in.Assets != nil {
			bundle = cloneAssets(*in.Assets)
		}
		s.Assets = &bundle
		s.Results = nil
	case CmdGenerate:
		if strings.TrimSpace(in.APIKey) == "" {
			return domain.ErrAPIKeyRequired
		}
	case CmdNewProject:
		s.clearProject()
	}
	s.Page = next
	return nil
}

// NewProject returns to the dashboard, dropping the current campaign but
// keeping history.
func (s *Session) NewProject() {
	s.clearProject()
	s.Page = PageDashboard
}

func (s *Session) clearProject() {
	s.Scoping = nil
	s.Assets = nil
	s.Results = nil
}

// Successful returns the variants that produced an image, in order.
func (s *Session) Successful() []VariantResult {
	var out []VariantResult
	for _, r := range s.Results {
		if r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Result returns the successful result for v.
func (s *Session) Result(v domain.Variant) (VariantResult, bool) {
	for _, r := range s.Results {
		if r.Variant == v && r.OK() {
			return r, true
		}
	}
	return VariantResult{}, false
}

// HistoryEntry looks up a history entry by id.
func (s *Session) HistoryEntry(id string) (HistoryEntry, bool) {
	for _, h := range s.History {
		if h.ID == id {
			return h, true
		}
	}
	return HistoryEntry{}, false
}

// Clone returns a copy that shares no slices or maps with s. Upload bytes
// are treated as immutable and shared.
func (s *Session) Clone() *Session {
	out := *s
	if s.Scoping != nil {
		sc := *s.Scoping
		sc.Subjects = make(map[domain.Subject]domain.SubjectSpec, len(s.Scoping.Subjects))
		for k, v := range s.Scoping.Subjects {
			sc.Subjects[k] = v
		}
		out.Scoping = &sc
	}
	if s.Assets != nil {
		a := cloneAssets(*s.Assets)
		out.Assets = &a
	}
	out.Results = append([]VariantResult(nil), s.Results...)
	out.History = append([]HistoryEntry(nil), s.History...)
	return &out
}

func cloneAssets(in domain.AssetBundle) domain.AssetBundle {
	out := domain.AssetBundle{
		StyleReference: in.StyleReference,
		Instructions:   in.Instructions,
	}
	if len(in.Subjects) > 0 {
		out.Subjects = make(map[domain.Subject]*domain.Upload, len(in.Subjects))
		for k, v := range in.Subjects {
			out.Subjects[k] = v
		}
	}
	return out
}

package wizard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"t4studio/internal/compositor"
	"t4studio/internal/domain"
	"t4studio/internal/infra"
	imageprovider "t4studio/internal/providers/image"
	"t4studio/internal/prompt"
)

// ThumbnailWidth is the width of history thumbnails in pixels.
const ThumbnailWidth = 256

// Service drives sessions through the wizard. Commands for one session never
// run concurrently; different sessions proceed independently.
type Service struct {
	store     Store
	generator imageprovider.Generator
	locks     *keyedMutex
	logger    *infra.Logger
	now       func() time.Time
	exporter  Exporter
}

// Exporter receives the images of every finished campaign.
type Exporter interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// SetExporter enables writing each finished campaign to e.
func (s *Service) SetExporter(e Exporter) {
	s.exporter = e
}

func NewService(store Store, generator imageprovider.Generator, logger *infra.Logger) *Service {
	return &Service{
		store:     store,
		generator: generator,
		locks:     newKeyedMutex(),
		logger:    infra.OrDiscard(logger),
		now:       time.Now,
	}
}

// Session returns the stored session or a fresh one on the dashboard.
func (s *Service) Session(ctx context.Context, id string) (*Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()
	return s.load(ctx, id)
}

func (s *Service) load(ctx context.Context, id string) (*Session, error) {
	sess, err := s.store.Load(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return NewSession(id), nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Dispatch applies cmd and persists the result. When a guard rejects the
// command the unchanged session is returned together with the error.
func (s *Service) Dispatch(ctx context.Context, id string, cmd Command, in Input) (*Session, error) {
	if cmd == CmdGenerate {
		return s.Generate(ctx, id, in.APIKey, nil)
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.Apply(cmd, in); err != nil {
		return sess, err
	}
	sess.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("session_id", id).Str("command", string(cmd)).Str("page", string(sess.Page)).Msg("wizard transition")
	return sess, nil
}

// Generate renders the four variants one after another. Each finished
// variant is passed to onVariant before the next starts. A variant failure
// is recorded on its result and never aborts the run.
func (s *Service) Generate(ctx context.Context, id, apiKey string, onVariant func(VariantResult)) (*Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.Apply(CmdGenerate, Input{APIKey: apiKey}); err != nil {
		return sess, err
	}
	if sess.Scoping == nil || sess.Assets == nil {
		return sess, fmt.Errorf("%w: scoping and assets must be submitted first", domain.ErrInvalidTransition)
	}

	scoping, assets := *sess.Scoping, *sess.Assets
	refs := assets.References()
	results := make([]VariantResult, 0, len(domain.Variants))
	var thumb []byte
	for _, v := range domain.Variants {
		text := prompt.Build(scoping, assets, v)
		r := VariantResult{Variant: v, Label: v.Label(), Prompt: text}

		res := s.generator.Generate(ctx, imageprovider.Request{
			Prompt:      text,
			AspectRatio: string(scoping.AspectRatio),
			References:  refs,
			APIKey:      apiKey,
		})
		if res.OK() {
			var buf bytes.Buffer
			if err := compositor.EncodePNG(&buf, res.Image); err != nil {
				res.Err = fmt.Errorf("encode result: %w", err)
			} else {
				r.Image = buf.Bytes()
				if thumb == nil {
					thumb = s.thumbnail(res)
				}
			}
		} else if res.Err == nil {
			res.Err = domain.ErrNoResult
		}
		if res.Err != nil {
			r.Error = res.Err.Error()
			s.logger.Warn().Err(res.Err).Str("session_id", id).Str("variant", string(v)).Msg("variant generation failed")
		}
		results = append(results, r)
		if onVariant != nil {
			onVariant(r)
		}
	}

	sess.Results = results
	if len(sess.Successful()) > 0 {
		entry := HistoryEntry{
			ID:        uuid.NewString(),
			Topic:     scoping.Topic,
			CreatedAt: s.now().UTC(),
			Thumbnail: thumb,
		}
		sess.History = append(sess.History, entry)
		s.export(context.WithoutCancel(ctx), id, entry, sess.Successful())
	}
	sess.UpdatedAt = s.now()
	if err := s.store.Save(context.WithoutCancel(ctx), sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// export is best effort; a failed write is logged and never fails the run.
func (s *Service) export(ctx context.Context, sessionID string, entry HistoryEntry, results []VariantResult) {
	if s.exporter == nil {
		return
	}
	prefix := sessionID + "/" + entry.ID + "/"
	for _, r := range results {
		if _, err := s.exporter.Put(ctx, prefix+"t4_"+string(r.Variant)+".png", r.Image); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Str("variant", string(r.Variant)).Msg("export failed")
		}
	}
	if len(entry.Thumbnail) > 0 {
		if _, err := s.exporter.Put(ctx, prefix+"thumbnail.png", entry.Thumbnail); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("export thumbnail failed")
		}
	}
}

func (s *Service) thumbnail(res imageprovider.Result) []byte {
	var buf bytes.Buffer
	if err := compositor.EncodePNG(&buf, compositor.Thumbnail(res.Image, ThumbnailWidth)); err != nil {
		s.logger.Warn().Err(err).Msg("thumbnail encode failed")
		return nil
	}
	return buf.Bytes()
}

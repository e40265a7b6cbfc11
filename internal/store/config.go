package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amishk599/jobradar/internal/kv"
	"github.com/amishk599/jobradar/internal/model"
)

// ConfigStore reads the source and profession lists managed by the admin surface.
type ConfigStore struct {
	base
}

// NewConfigStore returns a ConfigStore over k.
func NewConfigStore(k kv.Store, opTimeout time.Duration) *ConfigStore {
	return &ConfigStore{base: newBase(k, opTimeout)}
}

// Snapshot loads sources and professions once for an invocation.
// Missing keys yield empty lists.
func (s *ConfigStore) Snapshot(ctx context.Context) (model.Snapshot, error) {
	sources, err := s.Sources(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	professions, err := s.Professions(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	return model.Snapshot{Sources: sources, Professions: professions}, nil
}

// Sources returns the configured job sources.
func (s *ConfigStore) Sources(ctx context.Context) ([]model.JobSource, error) {
	data, err := s.raw(ctx, keySources)
	if err != nil || data == nil {
		return nil, err
	}
	return model.DecodeSources(data)
}

// Professions returns the configured professions in match order.
func (s *ConfigStore) Professions(ctx context.Context) ([]model.Profession, error) {
	data, err := s.raw(ctx, keyProfessions)
	if err != nil || data == nil {
		return nil, err
	}
	return model.DecodeProfessions(data)
}

// SaveSources replaces the source list after validating every entry.
func (s *ConfigStore) SaveSources(ctx context.Context, sources []model.JobSource) error {
	for _, src := range sources {
		if err := src.Validate(); err != nil {
			return err
		}
	}
	return s.setJSON(ctx, keySources, sources, 0)
}

// SaveProfessions replaces the profession list.
func (s *ConfigStore) SaveProfessions(ctx context.Context, professions []model.Profession) error {
	for _, p := range professions {
		if p.Name == "" {
			return fmt.Errorf("profession %q: name is required", p.ID)
		}
	}
	return s.setJSON(ctx, keyProfessions, professions, 0)
}

func (s *ConfigStore) raw(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
	}
	return data, nil
}

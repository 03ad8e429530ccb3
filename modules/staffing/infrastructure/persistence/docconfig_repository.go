package persistence

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/entities/docconfig"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type DocumentConfigurationRepository struct {
	engine *versioned.Engine
}

func NewDocumentConfigurationRepository(engine *versioned.Engine) docconfig.Repository {
	return &DocumentConfigurationRepository{engine: engine}
}

func (r *DocumentConfigurationRepository) GetByID(ctx context.Context, id uuid.UUID) (docconfig.DocumentConfiguration, error) {
	c := docconfig.DocumentConfiguration{ID: id}
	version, found, err := r.engine.Materializer().Row(ctx, DocumentConfigurations, id, docConfigDest(&c)...)
	if err != nil {
		return docconfig.DocumentConfiguration{}, err
	}
	if !found {
		return docconfig.DocumentConfiguration{}, docconfig.ErrDocumentConfigurationNotFound
	}
	c.Version = version
	return c, nil
}

func (r *DocumentConfigurationRepository) GetAll(ctx context.Context) ([]docconfig.DocumentConfiguration, error) {
	ids, err := r.engine.Materializer().IDs(ctx, DocumentConfigurations)
	if err != nil {
		return nil, err
	}
	out := make([]docconfig.DocumentConfiguration, 0, len(ids))
	for _, id := range ids {
		c, err := r.GetByID(ctx, id)
		if errors.Is(err, docconfig.ErrDocumentConfigurationNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *DocumentConfigurationRepository) Upsert(ctx context.Context, c docconfig.DocumentConfiguration) (versioned.Result, error) {
	return r.engine.Upsert(ctx, toDBDocConfig(c))
}

func (r *DocumentConfigurationRepository) Delete(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error) {
	return r.engine.Delete(ctx, DocumentConfigurations, id)
}

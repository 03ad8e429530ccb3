package persistence

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/aggregates/offer"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type OfferRepository struct {
	engine *versioned.Engine
}

func NewOfferRepository(engine *versioned.Engine) offer.Repository {
	return &OfferRepository{engine: engine}
}

func (r *OfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*offer.Offer, error) {
	m := r.engine.Materializer()
	return inSnapshot(ctx, m, func(ctx context.Context) (*offer.Offer, error) {
		return loadOffer(ctx, m, id)
	})
}

func loadOffer(ctx context.Context, m *versioned.Materializer, id uuid.UUID) (*offer.Offer, error) {
	o := &offer.Offer{ID: id}
	version, found, err := m.Row(ctx, Offers, id, offerDest(o)...)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, offer.ErrOfferNotFound
	}
	o.Version = version

	ids, err := m.Children(ctx, ShownProperties, id)
	if err != nil {
		return nil, err
	}
	if o.Properties, err = loadShownProperties(ctx, m, ids); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OfferRepository) GetAll(ctx context.Context) ([]*offer.Offer, error) {
	ids, err := r.engine.Materializer().IDs(ctx, Offers)
	if err != nil {
		return nil, err
	}
	out := make([]*offer.Offer, 0, len(ids))
	for _, id := range ids {
		o, err := r.GetByID(ctx, id)
		if errors.Is(err, offer.ErrOfferNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *OfferRepository) Version(ctx context.Context, id uuid.UUID) (versioned.Token, error) {
	v, found, err := r.engine.Materializer().Version(ctx, Offers, id)
	if err != nil {
		return versioned.Token{}, err
	}
	if !found {
		return versioned.Token{}, offer.ErrOfferNotFound
	}
	return v, nil
}

// Upsert writes the offer and reconciles its shown properties. On success the
// offer and property versions are updated in place.
func (r *OfferRepository) Upsert(ctx context.Context, o *offer.Offer) (versioned.Result, error) {
	res, err := r.engine.Upsert(ctx, toDBOffer(o))
	if err != nil {
		return versioned.Result{}, err
	}
	if !res.Outcome.Succeeded() {
		return res, nil
	}
	o.Version = res.Version
	for i := range o.Properties {
		o.Properties[i].OfferID = o.ID
		if child, ok := res.Children[o.Properties[i].ID]; ok {
			o.Properties[i].Version = child.Version
		}
	}
	return res, nil
}

// Delete removes the offer with its shown properties and the document
// configurations scoped to it.
func (r *OfferRepository) Delete(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error) {
	return r.engine.Delete(ctx, Offers, id)
}

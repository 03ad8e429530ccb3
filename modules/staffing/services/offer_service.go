package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/aggregates/offer"
	"github.com/iota-uz/staffing/modules/staffing/domain/entities/shownproperty"
	"github.com/iota-uz/staffing/modules/staffing/domain/events"
	"github.com/iota-uz/staffing/modules/staffing/infrastructure/cache"
	"github.com/iota-uz/staffing/pkg/eventbus"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type OfferService struct {
	repo       offer.Repository
	properties shownproperty.Repository
	publisher  eventbus.EventBus
	cache      cache.Cache
}

func NewOfferService(
	repo offer.Repository,
	properties shownproperty.Repository,
	publisher eventbus.EventBus,
	c cache.Cache,
) *OfferService {
	if c == nil {
		c = cache.Noop{}
	}
	return &OfferService{
		repo:       repo,
		properties: properties,
		publisher:  publisher,
		cache:      c,
	}
}

func (s *OfferService) GetByID(ctx context.Context, id uuid.UUID) (*offer.Offer, error) {
	return cachedGet(ctx, s.cache, events.EntityOffer, id, s.repo.Version, s.repo.GetByID,
		func(o *offer.Offer) versioned.Token { return o.Version })
}

func (s *OfferService) GetAll(ctx context.Context) ([]*offer.Offer, error) {
	return s.repo.GetAll(ctx)
}

// Upsert writes the offer with its complete list of shown properties.
func (s *OfferService) Upsert(ctx context.Context, dto *offer.UpsertDTO) (*offer.Offer, versioned.Result, error) {
	if errs, ok := dto.Ok(); !ok {
		res := rejected(errs)
		publishResult(ctx, s.publisher, events.EntityOffer, dto.ID, dto.Version, res)
		return nil, res, nil
	}
	o := dto.ToEntity()
	stale := o.Version
	res, err := s.repo.Upsert(ctx, o)
	if err != nil {
		return nil, versioned.Result{}, err
	}
	publishResult(ctx, s.publisher, events.EntityOffer, o.ID, stale, res)
	if !res.Outcome.Succeeded() {
		return nil, res, nil
	}
	return o, res, nil
}

func (s *OfferService) Delete(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error) {
	res, err := s.repo.Delete(ctx, id)
	if err != nil {
		return versioned.DeleteResult{}, err
	}
	publishDeleted(s.publisher, events.EntityOffer, id, res)
	return res, nil
}

func (s *OfferService) Properties(ctx context.Context, offerID uuid.UUID) ([]shownproperty.ShownEmployeeProperty, error) {
	return s.properties.GetByOffer(ctx, offerID)
}

// UpdateProperty writes one shown property without rewriting the offer. The
// offer is touched; ParentVersion in the result is its new version.
func (s *OfferService) UpdateProperty(ctx context.Context, p shownproperty.ShownEmployeeProperty) (versioned.Result, error) {
	res, err := s.properties.Upsert(ctx, p)
	if err != nil {
		return versioned.Result{}, err
	}
	publishResult(ctx, s.publisher, events.EntityShownProperty, p.ID, p.Version, res)
	return res, nil
}

// RemoveProperty deletes one shown property. ParentVersion in the result is
// the offer's new version.
func (s *OfferService) RemoveProperty(ctx context.Context, id uuid.UUID) (versioned.DeleteResult, error) {
	res, err := s.properties.Delete(ctx, id)
	if err != nil {
		return versioned.DeleteResult{}, err
	}
	publishDeleted(s.publisher, events.EntityShownProperty, id, res)
	return res, nil
}

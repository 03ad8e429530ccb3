package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/staffing/modules/staffing/domain/events"
	"github.com/iota-uz/staffing/modules/staffing/infrastructure/cache"
	"github.com/iota-uz/staffing/pkg/composables"
	"github.com/iota-uz/staffing/pkg/eventbus"
	"github.com/iota-uz/staffing/pkg/logging"
	"github.com/iota-uz/staffing/pkg/serrors"
	"github.com/iota-uz/staffing/pkg/versioned"
)

// rejected is the result of input that failed validation. Nothing was written.
func rejected(errs serrors.ValidationErrors) versioned.Result {
	return versioned.Result{Outcome: versioned.Rejected, Reason: errs}
}

// publishResult announces the outcome of one write. stale is the version the
// caller wrote against.
func publishResult(ctx context.Context, publisher eventbus.EventBus, entity string, id uuid.UUID, stale versioned.Token, res versioned.Result) {
	now := time.Now().UTC()
	log := composables.UseLogger(ctx, logging.Nop()).WithFields(logrus.Fields{
		"entity":  entity,
		"id":      id,
		"outcome": res.Outcome,
	})
	switch res.Outcome {
	case versioned.Inserted, versioned.Updated:
		publisher.Publish(&events.UpsertedEvent{
			EntityType: entity,
			EntityID:   id,
			Outcome:    res.Outcome,
			Version:    res.Version,
			OccurredAt: now,
		})
	case versioned.Conflict:
		log.WithField("stale", stale).Info("write lost against a concurrent change")
		publisher.Publish(&events.ConflictEvent{EntityType: entity, EntityID: id, Stale: stale, OccurredAt: now})
	case versioned.Rejected:
		log.WithError(res.Reason).Debug("write rejected")
		publisher.Publish(&events.RejectedEvent{EntityType: entity, EntityID: id, Reason: res.Reason, OccurredAt: now})
	}
}

func publishDeleted(publisher eventbus.EventBus, entity string, id uuid.UUID, res versioned.DeleteResult) {
	if !res.Found {
		return
	}
	publisher.Publish(&events.DeletedEvent{
		EntityType: entity,
		EntityID:   id,
		Touched:    res.Touched,
		OccurredAt: time.Now().UTC(),
	})
}

// cachedGet serves the aggregate at its current version from c, loading and
// storing it on a miss. A load that raced with a write is returned but not
// stored. Cache failures degrade to a plain load.
func cachedGet[T any](
	ctx context.Context,
	c cache.Cache,
	entity string,
	id uuid.UUID,
	version func(context.Context, uuid.UUID) (versioned.Token, error),
	load func(context.Context, uuid.UUID) (T, error),
	versionOf func(T) versioned.Token,
) (T, error) {
	var zero T
	v, err := version(ctx, id)
	if err != nil {
		return zero, err
	}
	log := composables.UseLogger(ctx, logging.Nop()).WithFields(logrus.Fields{"entity": entity, "id": id})
	key := cache.Key(entity, id, v)

	var hit T
	ok, err := c.Get(ctx, key, &hit)
	if err != nil {
		log.WithError(err).Warn("aggregate cache read failed")
	} else if ok {
		return hit, nil
	}

	loaded, err := load(ctx, id)
	if err != nil {
		return zero, err
	}
	if !versionOf(loaded).Equal(v) {
		return loaded, nil
	}
	if err := c.Set(ctx, key, loaded); err != nil {
		log.WithError(err).Warn("aggregate cache write failed")
	}
	return loaded, nil
}

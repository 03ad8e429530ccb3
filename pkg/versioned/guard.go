package versioned

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Guard performs the compare-and-swap write of one row.
type Guard struct {
	backend Backend
	clock   clockwork.Clock
	log     *logrus.Entry
	metrics *metrics
}

func NewGuard(backend Backend, clock clockwork.Clock, log *logrus.Entry) *Guard {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logrusNop()
	}
	return &Guard{backend: backend, clock: clock, log: log, metrics: metricsSingleton()}
}

// Upsert inserts the row when it does not exist, otherwise rewrites it if and
// only if provided matches the stored token. A zero provided token adopts the
// stored one, for aggregates built outside a read.
func (g *Guard) Upsert(ctx context.Context, k *Kind, id uuid.UUID, provided Token, values []any) (Result, error) {
	if len(values) != len(k.Columns) {
		return Result{}, errors.Errorf("%s: got %d values for %d columns", k.Name, len(values), len(k.Columns))
	}
	log := g.log.WithFields(logrus.Fields{"kind": k.Name, "id": id})

	stored, found, err := g.backend.Version(ctx, k, id)
	if err != nil {
		return Result{}, errors.Wrapf(err, "read %s version", k.Name)
	}

	if !found {
		version := Next(g.clock.Now(), Token{})
		ok, err := g.backend.Insert(ctx, k, id, version, values)
		if errors.Is(err, ErrDuplicate) {
			return g.duplicate(log, k, err), nil
		}
		if err != nil {
			return Result{}, errors.Wrapf(err, "insert %s", k.Name)
		}
		if !ok {
			log.Debug("insert lost race")
			g.metrics.upsert(k, Conflict)
			return conflict(), nil
		}
		g.metrics.upsert(k, Inserted)
		return Result{Outcome: Inserted, Version: version}, nil
	}

	if provided.IsZero() {
		provided = stored
	}
	if !provided.Equal(stored) {
		log.WithFields(logrus.Fields{"provided": provided, "stored": stored}).Debug("stale version")
		g.metrics.upsert(k, Conflict)
		return conflict(), nil
	}

	next := Next(g.clock.Now(), stored)
	ok, err := g.backend.CompareAndSwap(ctx, k, id, stored, next, values)
	if errors.Is(err, ErrDuplicate) {
		return g.duplicate(log, k, err), nil
	}
	if err != nil {
		return Result{}, errors.Wrapf(err, "update %s", k.Name)
	}
	if !ok {
		log.Debug("compare-and-swap matched no row")
		g.metrics.upsert(k, Conflict)
		return conflict(), nil
	}
	g.metrics.upsert(k, Updated)
	return Result{Outcome: Updated, Version: next}, nil
}

// duplicate rejects a write refused by a secondary unique constraint.
func (g *Guard) duplicate(log *logrus.Entry, k *Kind, err error) Result {
	log.WithError(err).Debug("unique constraint refused the write")
	g.metrics.upsert(k, Rejected)
	if k.UniqueLabel {
		return rejected(fmt.Errorf("%w: %w", ErrNameTaken, err))
	}
	return rejected(err)
}

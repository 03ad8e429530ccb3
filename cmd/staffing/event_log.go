package main

import (
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/staffing/modules/staffing/domain/events"
	"github.com/iota-uz/staffing/pkg/eventbus"
)

// subscribeEventLog logs every staffing event. Conflicts and rejections are
// warnings; nothing retries them.
func subscribeEventLog(bus eventbus.EventBus, logger *logrus.Logger) {
	log := logger.WithField("component", "events")
	bus.Subscribe(func(e *events.UpsertedEvent) {
		log.WithFields(logrus.Fields{
			"entity":  e.EntityType,
			"id":      e.EntityID,
			"outcome": e.Outcome,
			"version": e.Version,
		}).Debug("upserted")
	})
	bus.Subscribe(func(e *events.DeletedEvent) {
		log.WithFields(logrus.Fields{
			"entity":  e.EntityType,
			"id":      e.EntityID,
			"touched": e.Touched,
		}).Debug("deleted")
	})
	bus.Subscribe(func(e *events.ConflictEvent) {
		log.WithFields(logrus.Fields{
			"entity": e.EntityType,
			"id":     e.EntityID,
			"stale":  e.Stale,
		}).Warn("conflict")
	})
	bus.Subscribe(func(e *events.RejectedEvent) {
		log.WithFields(logrus.Fields{
			"entity": e.EntityType,
			"id":     e.EntityID,
		}).WithError(e.Reason).Warn("rejected")
	})
}

// Package staffing wires employee, project, offer and taxonomy persistence
// into an application.
package staffing

import (
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/staffing/modules/staffing/infrastructure/cache"
	"github.com/iota-uz/staffing/modules/staffing/infrastructure/persistence"
	"github.com/iota-uz/staffing/modules/staffing/services"
	"github.com/iota-uz/staffing/pkg/application"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type ModuleOptions struct {
	// CascadeAncestorDepth is the number of parent hops touched above an
	// aggregate whose reference was deleted or renamed.
	CascadeAncestorDepth int
	// Cache holds materialized aggregates; nil disables caching.
	Cache cache.Cache
	Clock clockwork.Clock
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{CascadeAncestorDepth: 1}
	}
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	schema, err := persistence.NewSchema(m.options.CascadeAncestorDepth)
	if err != nil {
		return err
	}
	engine := versioned.New(schema, app.Backend(), versioned.Options{
		Clock:  m.options.Clock,
		Logger: app.Logger().WithFields(logrus.Fields{"component": "versioned"}),
	})
	bus := app.EventPublisher()
	properties := persistence.NewShownPropertyRepository(engine)

	app.RegisterServices(
		engine,
		services.NewTaxonomyService(persistence.NewTaxonomyRepository(engine), bus),
		services.NewEmployeeService(persistence.NewEmployeeRepository(engine), bus, m.options.Cache),
		services.NewProjectService(persistence.NewProjectRepository(engine), bus, m.options.Cache),
		services.NewOfferService(persistence.NewOfferRepository(engine), properties, bus, m.options.Cache),
		services.NewDocumentConfigurationService(persistence.NewDocumentConfigurationRepository(engine), bus),
	)
	return nil
}

func (m *Module) Name() string {
	return "staffing"
}

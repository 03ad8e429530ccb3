package staffing_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffing/modules/staffing"
	"github.com/iota-uz/staffing/modules/staffing/domain/taxonomy"
	"github.com/iota-uz/staffing/modules/staffing/services"
	"github.com/iota-uz/staffing/pkg/application"
	"github.com/iota-uz/staffing/pkg/versioned"
	"github.com/iota-uz/staffing/pkg/versioned/memstore"
)

func TestModule_RegistersServices(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	app := application.New(&application.ApplicationOptions{Backend: memstore.New(), Logger: log})

	require.NoError(t, application.Load(app, staffing.NewModule(&staffing.ModuleOptions{CascadeAncestorDepth: 2})))

	engine := app.Service(versioned.Engine{}).(*versioned.Engine)
	require.Equal(t, versioned.Depth(2), engine.Schema().DefaultDepth())

	svc := app.Service(services.TaxonomyService{}).(*services.TaxonomyService)
	_, res, err := svc.Create(context.Background(), &taxonomy.CreateDTO{Kind: taxonomy.Role, Name: "Tech lead"})
	require.NoError(t, err)
	require.Equal(t, versioned.Inserted, res.Outcome)

	for _, s := range []interface{}{
		services.EmployeeService{},
		services.ProjectService{},
		services.OfferService{},
		services.DocumentConfigurationService{},
	} {
		require.NotPanics(t, func() { app.Service(s) })
	}
}

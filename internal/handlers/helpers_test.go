package handlers

import (
	"net/http"
	"testing"

	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"

	"github.com/teambalancer/teambalancer-api/internal/middleware"
	"github.com/teambalancer/teambalancer-api/internal/models"
	"github.com/teambalancer/teambalancer-api/tests/testutil"
)

type route struct {
	method  string
	path    string
	handler drift.HandlerFunc
	admin   bool
}

// newTestClient mounts routes behind the production auth chain: bearer auth
// for everything, plus the admin role check where route.admin is set.
func newTestClient(t *testing.T, routes ...route) *testutil.HTTPTestClient {
	t.Helper()

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestJWTService()))

	admin := app.Group("")
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	for _, r := range routes {
		if r.admin {
			switch r.method {
			case http.MethodGet:
				admin.Get(r.path, r.handler)
			case http.MethodPost:
				admin.Post(r.path, r.handler)
			case http.MethodPatch:
				admin.Patch(r.path, r.handler)
			case http.MethodDelete:
				admin.Delete(r.path, r.handler)
			}
			continue
		}
		switch r.method {
		case http.MethodGet:
			app.Get(r.path, r.handler)
		case http.MethodPost:
			app.Post(r.path, r.handler)
		case http.MethodPatch:
			app.Patch(r.path, r.handler)
		case http.MethodDelete:
			app.Delete(r.path, r.handler)
		}
	}

	return testutil.NewHTTPTestClient(t, app)
}

func asUser(t *testing.T, id int64) map[string]string {
	return map[string]string{"Authorization": testutil.AuthHeader(testutil.GenerateTestToken(t, id))}
}

func asAdmin(t *testing.T, id int64) map[string]string {
	return map[string]string{"Authorization": testutil.AuthHeader(testutil.GenerateTestTokenWithRole(t, id, models.RoleAdmin))}
}

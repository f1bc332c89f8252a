package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shikshahq/shiksha/core/policy"
	"github.com/shikshahq/shiksha/core/user"
)

type settingsApi struct {
	deps *Deps
}

// registerSettingsAPI exposes institute configuration. Admin-only at the gate.
func registerSettingsAPI(app *echo.Echo, deps *Deps) {
	api := settingsApi{deps: deps}
	app.GET("/api/settings", api.retrieve)
}

func (api *settingsApi) retrieve(ctx echo.Context) error {
	conf := api.deps.Conf
	routes := make(map[string][]string, len(user.AllRoles))
	for _, role := range user.AllRoles {
		routes[role] = policy.Routes(role)
	}
	return ctx.JSON(http.StatusOK, SettingsResponse{
		AppName:    conf.AppName,
		Env:        conf.Env,
		Build:      conf.Build,
		Roles:      user.Roles,
		RoleRoutes: routes,
	})
}

type SettingsResponse struct {
	AppName    string              `json:"app_name"`
	Env        string              `json:"env"`
	Build      string              `json:"build"`
	Roles      []user.Role         `json:"roles"`
	RoleRoutes map[string][]string `json:"role_routes"`
}

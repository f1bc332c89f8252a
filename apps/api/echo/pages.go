package echoapi

import (
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// The server renders minimal page shells; a frontend hydrates them. Routing
// and access control live here, presentation does not.
var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}} | Shiksha</title></head>
<body><div id="root" data-page="{{.Page}}"></div></body>
</html>
`))

type pageData struct {
	Title string
	Page  string
}

func registerPages(app *echo.Echo) {
	pages := map[string]string{
		"/":                    "Welcome",
		"/auth/login":          "Sign In",
		"/auth/signup":         "Sign Up",
		"/auth/password-reset": "Reset Password",
		"/dashboard":           "Dashboard",
		"/profile":             "Profile",
		"/students":            "Students",
		"/teachers":            "Teachers",
		"/batches":             "Batches",
		"/attendance":          "Attendance",
		"/fees":                "Fees",
		"/settings":            "Settings",
		"/my-batches":          "My Batches",
		"/my-attendance":       "My Attendance",
		"/my-fees":             "My Fees",
	}
	for path, title := range pages {
		app.GET(path, pageHandler(path, title))
	}
	app.GET("/auth/password-reset/:uid/:token", pageHandler("/auth/password-reset", "Reset Password"))
}

func pageHandler(page, title string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ctx.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
		ctx.Response().WriteHeader(http.StatusOK)
		if err := pageTmpl.Execute(ctx.Response(), pageData{Title: title, Page: page}); err != nil {
			return errors.Wrap(err, "rendering page")
		}
		return nil
	}
}

package blogs

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus renders cmp in full before writing it with the given status.
// A component that fails part way leaves the response uncommitted, so the
// error handler can still answer with the error page.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	var buf bytes.Buffer
	if err := cmp.Render(c.Request().Context(), &buf); err != nil {
		return err
	}
	return c.HTMLBlob(code, buf.Bytes())
}

// RenderSwap renders partial for htmx requests and full otherwise. Both come
// from one URL, so the response varies on HX-Request.
func RenderSwap(c echo.Context, full, partial templ.Component) error {
	c.Response().Header().Add(echo.HeaderVary, "HX-Request")
	if c.Request().Header.Get("HX-Request") == "true" {
		return Render(c, partial)
	}
	return Render(c, full)
}

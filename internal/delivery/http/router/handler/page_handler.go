package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

// PageHandler serves the single-page application shell. Every page route
// falls through to index.html; the browser router takes over from there.
type PageHandler struct {
	staticRoot string
}

// NewPageHandler is the constructor for PageHandler.
func NewPageHandler(staticRoot string) *PageHandler {
	if staticRoot == "" {
		staticRoot = "web/dist"
	}

	return &PageHandler{staticRoot: staticRoot}
}

// Serve answers with the requested asset when it exists, the app shell
// otherwise. The route guard has already run: a request reaching this
// handler is allowed to see the page.
func (h *PageHandler) Serve(c echo.Context) error {
	requested := filepath.Join(h.staticRoot, filepath.Clean("/"+c.Request().URL.Path))
	if info, err := os.Stat(requested); err == nil && !info.IsDir() &&
		strings.HasPrefix(requested, h.staticRoot) {
		return c.File(requested)
	}

	index := filepath.Join(h.staticRoot, "index.html")
	if _, err := os.Stat(index); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "page not found")
	}

	return c.File(index)
}

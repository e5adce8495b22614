// Package web serves the marketplace page. Every page load mounts a fresh
// view.Shell: the pending initial reload fetches the items, the q
// parameter is the search query.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"simple-mercari-web/internal/api"
	"simple-mercari-web/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

type Client interface {
	view.Client
	FetchSearchResults(ctx context.Context, keyword string) (json.RawMessage, error)
}

type Template struct {
	templates *template.Template
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

type Server struct {
	client Client
}

func NewServer(client Client) *Server {
	return &Server{client: client}
}

func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Renderer = &Template{
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/", s.index)
	e.POST("/listing", s.createListing)
	e.GET("/api/search", s.search)
	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}

func (s *Server) index(c echo.Context) error {
	shell := view.NewShell(s.client)
	shell.SetSearchQuery(c.QueryParam("q"))
	// a failure is logged by the item list and rendered as a banner
	_ = shell.Sync(c.Request().Context())

	page := shell.Page()
	if posted := c.QueryParam("posted"); posted != "" {
		page.ListingMessage = fmt.Sprintf("item received: %s", posted)
	}
	return c.Render(http.StatusOK, "index.html", page)
}

func (s *Server) createListing(c echo.Context) error {
	ctx := c.Request().Context()
	shell := view.NewShell(s.client)
	query := c.FormValue("q")
	shell.SetSearchQuery(query)

	input := api.CreateItemInput{
		Name:     c.FormValue("name"),
		Category: c.FormValue("category"),
	}
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "cannot open image")
		}
		input.Image = f
		input.ImageName = fh.Filename
	}

	c.Logger().Infof("Submit item: %s", input.Name)
	if err := shell.Listing.Submit(ctx, input); err != nil {
		// The submission did not request a reload; the pending initial one
		// still fills the list behind the error banner.
		_ = shell.Sync(ctx)
		return c.Render(submitStatus(err), "index.html", shell.Page())
	}

	v := url.Values{}
	v.Set("posted", input.Name)
	if query != "" {
		v.Set("q", query)
	}
	return c.Redirect(http.StatusSeeOther, "/?"+v.Encode())
}

func submitStatus(err error) int {
	var se *api.StatusError
	switch {
	case errors.Is(err, view.ErrNameRequired),
		errors.Is(err, view.ErrCategoryRequired),
		errors.Is(err, view.ErrImageRequired):
		return http.StatusBadRequest
	case errors.As(err, &se) && se.StatusCode < http.StatusInternalServerError:
		return se.StatusCode
	}
	return http.StatusBadGateway
}

func (s *Server) search(c echo.Context) error {
	raw, err := s.client.FetchSearchResults(c.Request().Context(), c.QueryParam("keyword"))
	if err != nil {
		c.Logger().Errorf("Failed to fetch search results: %s", err)
		return c.JSON(http.StatusBadGateway, api.Response{Message: "Failed to fetch search results"})
	}
	return c.JSONBlob(http.StatusOK, raw)
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, api.Response{Message: "ok"})
}

// Package backend is a development stand-in for the marketplace backend. It
// serves the same routes the front ends consume, backed by sqlite and a
// local image directory.
package backend

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"simple-mercari-web/internal/api"
)

const (
	DefaultImage = "default.jpg"
	// BodyLimit caps a request body, image upload included.
	BodyLimit = "8M"
)

type Server struct {
	store    *Store
	imageDir string
}

func NewServer(store *Store, imageDir string) (*Server, error) {
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &Server{store: store, imageDir: imageDir}, nil
}

// Echo builds the router. frontURL is the only origin allowed by CORS.
func (s *Server) Echo(frontURL string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(BodyLimit))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{frontURL},
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete},
	}))

	e.GET("/", s.root)
	e.GET("/items", s.getItems)
	e.GET("/items/:itemID", s.getItemByID)
	e.POST("/items", s.addItem)
	e.GET("/image/:imageFilename", s.getImg)
	e.GET("/search", s.searchItems)
	return e
}

func (s *Server) root(c echo.Context) error {
	res := api.Response{Message: "Hello, world!"}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) addItem(c echo.Context) error {
	name := c.FormValue("name")
	category := c.FormValue("category")
	if name == "" {
		return c.JSON(http.StatusBadRequest, api.Response{Message: "name is required"})
	}
	if category == "" {
		return c.JSON(http.StatusBadRequest, api.Response{Message: "category is required"})
	}
	image, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, api.Response{Message: "image is required"})
	}

	c.Logger().Infof("Receive item: %s", name)
	c.Logger().Infof("Receive category: %s", category)
	c.Logger().Infof("Receive image: %s", image.Filename)

	ext := strings.ToLower(filepath.Ext(image.Filename))
	if ext != ".jpg" && ext != ".jpeg" {
		return c.JSON(http.StatusBadRequest, api.Response{Message: "image extension is not jpg"})
	}

	src, err := image.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, api.Response{Message: "cannot open image"})
	}
	defer src.Close()

	imageName, created, err := s.saveImage(src)
	if err != nil {
		c.Logger().Errorf("Failed to save image: %s", err)
		return c.JSON(http.StatusInternalServerError, api.Response{Message: "failed to save image"})
	}

	item, err := s.store.Add(c.Request().Context(), api.Item{Name: name, Category: category, ImageName: imageName})
	if err != nil {
		c.Logger().Errorf("Failed to add item to database: %s", err)
		if created {
			if err := os.Remove(filepath.Join(s.imageDir, imageName)); err != nil {
				c.Logger().Errorf("Failed to remove image: %s", err)
			}
		}
		return c.JSON(http.StatusInternalServerError, api.Response{Message: "failed to add item"})
	}

	message := fmt.Sprintf("item received: %s", item.Name)
	return c.JSON(http.StatusOK, api.Response{Message: message})
}

func (s *Server) getItems(c echo.Context) error {
	items, err := s.store.List(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("Failed to get items: %s", err)
		return c.JSON(http.StatusInternalServerError, api.Response{Message: "failed to get items"})
	}
	return c.JSON(http.StatusOK, api.ItemListResponse{Items: items})
}

func (s *Server) getItemByID(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("itemID"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, api.Response{Message: "item id must be a number"})
	}

	item, err := s.store.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			c.Logger().Debugf("Item not found: %d", id)
			return c.JSON(http.StatusNotFound, api.Response{Message: "item not found"})
		}
		c.Logger().Errorf("Failed to get item: %s", err)
		return c.JSON(http.StatusInternalServerError, api.Response{Message: "failed to get item"})
	}
	return c.JSON(http.StatusOK, item)
}

func (s *Server) getImg(c echo.Context) error {
	name := filepath.Base(c.Param("imageFilename"))
	if !strings.HasSuffix(name, ".jpg") {
		res := api.Response{Message: "Image path does not end with .jpg"}
		return c.JSON(http.StatusBadRequest, res)
	}

	imgPath := filepath.Join(s.imageDir, name)
	if _, err := os.Stat(imgPath); err != nil {
		c.Logger().Debugf("Image not found: %s", imgPath)
		imgPath = filepath.Join(s.imageDir, DefaultImage)
	}
	return c.File(imgPath)
}

func (s *Server) searchItems(c echo.Context) error {
	keyword := c.QueryParam("keyword")

	items, err := s.store.Search(c.Request().Context(), keyword)
	if err != nil {
		c.Logger().Errorf("Failed to search items: %s", err)
		return c.JSON(http.StatusInternalServerError, api.Response{Message: "failed to search items"})
	}
	return c.JSON(http.StatusOK, items)
}

// saveImage stores the image under the hex sha256 of its content and
// returns the file name. created is false when an identical image was
// already stored.
func (s *Server) saveImage(src io.Reader) (name string, created bool, err error) {
	tmp, err := os.CreateTemp(s.imageDir, "upload-*")
	if err != nil {
		return "", false, err
	}
	defer func() {
		if err != nil || !created {
			os.Remove(tmp.Name())
		}
	}()

	h := sha256.New()
	if _, err = io.Copy(io.MultiWriter(tmp, h), src); err != nil {
		tmp.Close()
		return "", false, err
	}
	if err = tmp.Close(); err != nil {
		return "", false, err
	}

	name = fmt.Sprintf("%x.jpg", h.Sum(nil))
	path := filepath.Join(s.imageDir, name)
	if _, err = os.Stat(path); err == nil {
		return name, false, nil
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", false, err
	}
	return name, true, nil
}

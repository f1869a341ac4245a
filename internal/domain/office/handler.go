package office

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/offices")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type officeRequest struct {
	ID       *int64  `json:"id"`
	Name     string  `json:"name"`
	Location *string `json:"location"`
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("invalid id %q", c.Param("id"))
	}
	return id, nil
}

func bind(c echo.Context) (*officeRequest, error) {
	var req officeRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return nil, apperr.BindError(err, "invalid request body")
	}
	return &req, nil
}

func (h *Handler) Create(c echo.Context) error {
	req, err := bind(c)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	o := &Office{Name: req.Name, Location: req.Location}
	if err := h.svc.Create(c.Request().Context(), o); err != nil {
		return apperr.HTTPError(c, err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	o, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	if items == nil {
		items = []*Office{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	req, err := bind(c)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	if req.ID != nil && *req.ID != id {
		return apperr.HTTPError(c, apperr.Invalid("body id %d does not match path id %d", *req.ID, id))
	}
	o := &Office{ID: id, Name: req.Name, Location: req.Location}
	if err := h.svc.Update(c.Request().Context(), o); err != nil {
		return apperr.HTTPError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	ok, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	if !ok {
		return apperr.HTTPError(c, apperr.ErrNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

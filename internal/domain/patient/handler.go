package patient

import (
	"fmt"
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
	g := api.Group("/patients")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type patientRequest struct {
	ID    *int64  `json:"id"`
	Name  string  `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("invalid id %q", c.Param("id"))
	}
	return id, nil
}

func bind(c echo.Context, req *patientRequest) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, req); err != nil {
		return apperr.BindError(err, "invalid request body: "+bindMessage(err))
	}
	return nil
}

func bindMessage(err error) string {
	if he, ok := err.(*echo.HTTPError); ok {
		return fmt.Sprint(he.Message)
	}
	return err.Error()
}

func (h *Handler) Create(c echo.Context) error {
	var req patientRequest
	if err := bind(c, &req); err != nil {
		return apperr.HTTPError(c, err)
	}
	if req.ID == nil {
		return apperr.HTTPError(c, apperr.Invalid("id is required"))
	}
	p := &Patient{ID: *req.ID, Name: req.Name, Phone: req.Phone, Email: req.Email}
	if err := h.svc.Create(c.Request().Context(), p); err != nil {
		return apperr.HTTPError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	if items == nil {
		items = []*Patient{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	var req patientRequest
	if err := bind(c, &req); err != nil {
		return apperr.HTTPError(c, err)
	}
	if req.ID != nil && *req.ID != id {
		return apperr.HTTPError(c, apperr.Invalid("body id %d does not match path id %d", *req.ID, id))
	}
	p := &Patient{ID: id, Name: req.Name, Phone: req.Phone, Email: req.Email}
	if err := h.svc.Update(c.Request().Context(), p); err != nil {
		return apperr.HTTPError(c, err)
	}
	return c.JSON(http.StatusOK, p)
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

package appointment

import (
	"net/http"
	"strconv"
	"time"

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
	g := api.Group("/appointments")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// appointmentRequest is the wire shape of create and update. PatientIDs stays
// nil when the field is absent so the service reports the cardinality error.
type appointmentRequest struct {
	OfficeID   *int64  `json:"office_id"`
	DateTime   *string `json:"date_time"`
	Reason     *string `json:"reason"`
	PatientIDs []int64 `json:"patient_ids"`
}

func (r *appointmentRequest) fields() (Fields, error) {
	if r.OfficeID == nil {
		return Fields{}, apperr.Invalid("office_id is required")
	}
	if r.DateTime == nil || *r.DateTime == "" {
		return Fields{}, apperr.Invalid("date_time is required")
	}
	at, err := time.Parse(time.RFC3339, *r.DateTime)
	if err != nil {
		return Fields{}, apperr.Invalid("date_time %q must be RFC 3339 with a UTC offset", *r.DateTime)
	}
	return Fields{OfficeID: *r.OfficeID, DateTime: at, Reason: r.Reason}, nil
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("invalid id %q", c.Param("id"))
	}
	return id, nil
}

func bind(c echo.Context) (Fields, []int64, error) {
	var req appointmentRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return Fields{}, nil, apperr.BindError(err, "invalid request body")
	}
	f, err := req.fields()
	if err != nil {
		return Fields{}, nil, err
	}
	return f, req.PatientIDs, nil
}

func (h *Handler) List(c echo.Context) error {
	var f ListFilter
	if raw := c.QueryParam("date"); raw != "" {
		d, err := ParseDate(raw)
		if err != nil {
			return apperr.HTTPError(c, err)
		}
		f.Date = &d
	}
	items, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Create(c echo.Context) error {
	f, ids, err := bind(c)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	d, err := h.svc.Create(c.Request().Context(), f, ids)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	f, ids, err := bind(c)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	d, err := h.svc.Update(c.Request().Context(), id, f, ids)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	ok, err := h.svc.Remove(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(c, err)
	}
	if !ok {
		return apperr.HTTPError(c, apperr.ErrNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

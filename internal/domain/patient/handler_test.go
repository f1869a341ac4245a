package patient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/middleware"
)

func newTestHandler() (*Handler, *mockRepo, *echo.Echo) {
	repo := newMockRepo()
	return NewHandler(NewService(repo)), repo, echo.New()
}

func httpCode(t *testing.T, rec *httptest.ResponseRecorder, err error) int {
	t.Helper()
	if err == nil {
		return rec.Code
	}
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T: %v", err, err)
	}
	return he.Code
}

func TestHandler_Create(t *testing.T) {
	h, repo, e := newTestHandler()

	body := `{"id":12,"name":"Grace Hopper","email":"grace@example.org"}`
	req := httptest.NewRequest(http.MethodPost, "/api/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 12 || got.Name != "Grace Hopper" {
		t.Errorf("unexpected response: %+v", got)
	}
	if _, ok := repo.store[12]; !ok {
		t.Error("expected patient to be stored")
	}
}

func TestHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing id", `{"name":"A"}`, http.StatusBadRequest},
		{"id wrong type", `{"id":"abc","name":"A"}`, http.StatusBadRequest},
		{"malformed json", `{"id":`, http.StatusBadRequest},
		{"duplicate", `{"id":1,"name":"Again"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, repo, e := newTestHandler()
			repo.store[1] = &Patient{ID: 1, Name: "First"}

			req := httptest.NewRequest(http.MethodPost, "/api/patients", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			err := h.Create(e.NewContext(req, rec))

			if got := httpCode(t, rec, err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestHandler_Get_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/patients/5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("5")

	if got := httpCode(t, rec, h.Get(c)); got != http.StatusNotFound {
		t.Errorf("expected 404, got %d", got)
	}
}

func TestHandler_Get_InvalidID(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/patients/abc", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if got := httpCode(t, rec, h.Get(c)); got != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", got)
	}
}

func TestHandler_Update_IDMismatch(t *testing.T) {
	h, repo, e := newTestHandler()
	repo.store[3] = &Patient{ID: 3, Name: "Three"}

	req := httptest.NewRequest(http.MethodPut, "/api/patients/3", strings.NewReader(`{"id":4,"name":"Four"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")

	if got := httpCode(t, rec, h.Update(c)); got != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", got)
	}
	if repo.store[3].Name != "Three" {
		t.Error("patient must not change on rejected update")
	}
}

func TestHandler_Update(t *testing.T) {
	h, repo, e := newTestHandler()
	repo.store[3] = &Patient{ID: 3, Name: "Three"}

	req := httptest.NewRequest(http.MethodPut, "/api/patients/3", strings.NewReader(`{"name":"Renamed","phone":"555-0100"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")

	if err := h.Update(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if repo.store[3].Name != "Renamed" || repo.store[3].Phone == nil {
		t.Errorf("unexpected stored patient: %+v", repo.store[3])
	}
}

func TestHandler_Delete(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		referenced bool
		want       int
	}{
		{"removed", "1", false, http.StatusNoContent},
		{"missing", "99", false, http.StatusNotFound},
		{"in use", "1", true, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, repo, e := newTestHandler()
			repo.store[1] = &Patient{ID: 1, Name: "One"}
			repo.referenced[1] = tt.referenced

			req := httptest.NewRequest(http.MethodDelete, "/api/patients/"+tt.id, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.id)

			if got := httpCode(t, rec, h.Delete(c)); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestHandler_List_Empty(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	rec := httptest.NewRecorder()

	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}

func TestHandler_Create_OversizedChunkedBody(t *testing.T) {
	h, repo, e := newTestHandler()
	e.Use(middleware.BodyLimit("64"))
	e.POST("/api/patients", h.Create)

	req := httptest.NewRequest(http.MethodPost, "/api/patients", strings.NewReader(`{"id":5,"name":"` + strings.Repeat("x", 200) + `"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.store) != 0 {
		t.Errorf("nothing must be written, got %d rows", len(repo.store))
	}
}

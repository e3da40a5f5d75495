package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/meeting-reservation/internal/handler"
	"github.com/iliyamo/meeting-reservation/internal/repository"
	"github.com/iliyamo/meeting-reservation/internal/service"
)

func TestRoutesApplyMiddleware(t *testing.T) {
	var reads, writes int
	count := func(n *int) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { *n++; return next(c) }
		}
	}

	e := echo.New()
	svc := service.NewReservationService(repository.NewMemoryStore(), service.Options{})
	RegisterRoutes(e)
	RegisterReservations(e, handler.NewReservationHandler(svc, nil), Middlewares{
		Read:  []echo.MiddlewareFunc{count(&reads), nil},
		Write: []echo.MiddlewareFunc{count(&writes)},
	})

	tests := []struct {
		method, target, body string
		want                 int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/api/reservations", "", http.StatusOK},
		{http.MethodGet, "/api/reservations/filter?date=2024-06-01", "", http.StatusOK},
		{http.MethodPost, "/api/reservations", `{"name":"A","email":"a@x.com","date":"2024-06-01","time":"14:00"}`, http.StatusCreated},
		{http.MethodDelete, "/api/admin/reservations/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.target, rec.Code, tt.want)
		}
	}
	if reads != 2 || writes != 2 {
		t.Errorf("reads = %d writes = %d, want 2 and 2", reads, writes)
	}
}

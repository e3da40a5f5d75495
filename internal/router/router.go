package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/meeting-reservation/internal/handler"
)

// Middlewares holds the optional per-route middleware.  Read wraps the
// cacheable GET routes; Write wraps every mutating route.  Nil entries are
// skipped.
type Middlewares struct {
	Read  []echo.MiddlewareFunc
	Write []echo.MiddlewareFunc
}

func compact(in []echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(in))
	for _, m := range in {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterRoutes registers the health check, which needs no middleware.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterReservations mounts the reservation API under /api.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, mw Middlewares) {
	read := compact(mw.Read)
	write := compact(mw.Write)

	api := e.Group("/api")
	api.GET("/reservations", h.List, read...)
	// the admin panel lists through /filter with the same query parameters
	api.GET("/reservations/filter", h.List, read...)
	api.GET("/reservations/:id", h.Get, read...)
	api.GET("/availability", h.Availability, read...)

	api.POST("/reservations", h.Create, write...)
	api.PUT("/reservations/:id", h.Update, write...)
	api.DELETE("/reservations/:id", h.Delete, write...)
	api.DELETE("/admin/reservations/:id", h.Delete, write...)
}

package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/meeting-reservation/internal/model"
	"github.com/iliyamo/meeting-reservation/internal/service"
)

const msgSlotTaken = "This time slot is already taken. Please choose another."

// Reservations is what ReservationHandler needs from the service layer.
type Reservations interface {
	List(ctx context.Context, f model.Filter, o model.Sort) ([]model.Reservation, error)
	Get(ctx context.Context, id string) (model.Reservation, error)
	Create(ctx context.Context, in service.Input) (model.Reservation, error)
	Update(ctx context.Context, id string, in service.Input) (model.Reservation, error)
	Delete(ctx context.Context, id string) error
	Availability(ctx context.Context, date string) ([]model.AvailabilitySlot, error)
}

// ReservationHandler exposes the reservation service over HTTP.  Every
// failure is rendered as {"error": code, "message": text}.
type ReservationHandler struct {
	Service Reservations
	Log     *zap.Logger
}

// NewReservationHandler panics on a nil service.
func NewReservationHandler(svc Reservations, log *zap.Logger) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservationHandler{Service: svc, Log: log}
}

// List handles GET /api/reservations.  Optional query parameters: date and
// name filter, sort and order choose the ordering.
func (h *ReservationHandler) List(c echo.Context) error {
	o, err := model.ParseSort(c.QueryParam("sort"), c.QueryParam("order"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": err.Error()})
	}
	f := model.Filter{Date: c.QueryParam("date"), Name: c.QueryParam("name")}
	items, err := h.Service.List(c.Request().Context(), f, o)
	if err != nil {
		return h.fail(c, err)
	}
	if items == nil {
		items = []model.Reservation{}
	}
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /api/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	r, err := h.Service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Create handles POST /api/reservations and answers 201 with the stored
// reservation.
func (h *ReservationHandler) Create(c echo.Context) error {
	var in service.Input
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "invalid request body"})
	}
	r, err := h.Service.Create(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// Update handles PUT /api/reservations/:id.
func (h *ReservationHandler) Update(c echo.Context) error {
	var in service.Input
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "invalid request body"})
	}
	r, err := h.Service.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Delete handles DELETE /api/reservations/:id and its admin alias.
func (h *ReservationHandler) Delete(c echo.Context) error {
	if err := h.Service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Reservation deleted successfully."})
}

// Availability handles GET /api/availability?date=YYYY-MM-DD.
func (h *ReservationHandler) Availability(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "date is required"})
	}
	grid, err := h.Service.Availability(c.Request().Context(), date)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "slots": grid})
}

// fail maps service errors onto status codes.  Storage details stay in the
// log.
func (h *ReservationHandler) fail(c echo.Context, err error) error {
	var conflict *service.ConflictError
	switch {
	case errors.As(err, &conflict):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":            "slot_conflict",
			"message":          msgSlotTaken,
			"conflicting_date": conflict.Existing.Date,
			"conflicting_time": conflict.Existing.Time,
		})
	case errors.Is(err, service.ErrSlotConflict):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_conflict", "message": msgSlotTaken})
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": err.Error()})
	case errors.Is(err, service.ErrInvalidSlot):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_slot", "message": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "Reservation not found."})
	case errors.Is(err, service.ErrPersistence):
		h.Log.Error("storage failure", zap.String("path", c.Request().URL.Path), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "persistence_error", "message": "storage unavailable"})
	default:
		h.Log.Error("unexpected error", zap.String("path", c.Request().URL.Path), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error", "message": "internal server error"})
	}
}

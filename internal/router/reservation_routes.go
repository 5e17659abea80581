package router // router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-reservation/internal/handler"
    "github.com/iliyamo/room-reservation/internal/middleware"
    "github.com/iliyamo/room-reservation/internal/model"
)

// RegisterReservations registers the reservation lifecycle endpoints.
// Members and admins share the request/read/cancel surface; explicit
// status transitions (approve, reject, complete) are ADMIN only.  The
// booking engine enforces ownership again underneath, so the route
// guards are the first line, not the only one.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin, model.RoleMember),
    )
    g.POST("/reservations", h.Create)
    g.GET("/reservations", h.List)
    g.GET("/reservations/:id", h.Get)
    g.GET("/reservations/:id/history", h.History)
    g.DELETE("/reservations/:id", h.Cancel)

    admin := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin),
    )
    admin.PATCH("/reservations/:id/status", h.ChangeStatus)
}

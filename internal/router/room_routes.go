package router // router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-reservation/internal/handler"
    "github.com/iliyamo/room-reservation/internal/middleware"
    "github.com/iliyamo/room-reservation/internal/model"
)

// RegisterRooms registers the room catalog endpoints.  Reads are open
// to any authenticated role; create, update and deactivate require
// ADMIN.  cacheMW, when non-nil, is applied to the read endpoints so
// hot lookups like the availability search are served from Redis.
func RegisterRooms(e *echo.Echo, h *handler.RoomHandler, jwtSecret string, cacheMW echo.MiddlewareFunc) {
    read := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin, model.RoleMember),
    )
    if cacheMW != nil {
        read.Use(cacheMW)
    }
    read.GET("/rooms", h.List)
    // Register the availability search before the :id routes so the
    // literal segment wins route matching.
    read.GET("/rooms/available", h.Available)
    read.GET("/rooms/:id", h.Get)
    read.GET("/rooms/:id/availability", h.Availability)

    admin := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin),
    )
    admin.POST("/rooms", h.Create)
    admin.PUT("/rooms/:id", h.Update)
    admin.PATCH("/rooms/:id", h.Update) // allow partial updates via PATCH as well
    admin.DELETE("/rooms/:id", h.Delete)
}

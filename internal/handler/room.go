package handler

import (
    "context"
    "database/sql"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/repository"
)

// RoomHandler exposes the room catalog.  Reads are open to any
// authenticated user; create/update/deactivate are registered behind
// the admin role middleware.
type RoomHandler struct {
    Rooms *repository.RoomRepo
}

func NewRoomHandler(r *repository.RoomRepo) *RoomHandler { return &RoomHandler{Rooms: r} }

type roomReq struct {
    Code       string  `json:"code"`
    Name       string  `json:"name"`
    Location   *string `json:"location"`
    Capacity   uint32  `json:"capacity"`
    Facilities *string `json:"facilities"`
    IsActive   *bool   `json:"is_active"`
}

type roomResp struct {
    ID         uint64  `json:"id"`
    Code       string  `json:"code"`
    Name       string  `json:"name"`
    Location   *string `json:"location,omitempty"`
    Capacity   uint32  `json:"capacity"`
    Facilities *string `json:"facilities,omitempty"`
    IsActive   bool    `json:"is_active"`
}

func toRoomResp(r *model.Room) roomResp {
    return roomResp{
        ID: r.ID, Code: r.Code, Name: r.Name, Location: r.Location,
        Capacity: r.Capacity, Facilities: r.Facilities, IsActive: r.IsActive,
    }
}

// List returns every room, active or not, ordered by code.
func (h *RoomHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rooms, err := h.Rooms.List(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]roomResp, 0, len(rooms))
    for i := range rooms {
        out = append(out, toRoomResp(&rooms[i]))
    }
    return c.JSON(http.StatusOK, out)
}

// Get returns one room by id.
func (h *RoomHandler) Get(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    room, err := h.Rooms.GetByID(ctx, id)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, toRoomResp(room))
}

// Create registers a new room.  Admin only.
func (h *RoomHandler) Create(c echo.Context) error {
    var req roomReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Code = strings.TrimSpace(req.Code)
    req.Name = strings.TrimSpace(req.Name)
    if req.Code == "" || req.Name == "" || req.Capacity == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "code/name/capacity required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    room := &model.Room{
        Code: req.Code, Name: req.Name, Location: req.Location,
        Capacity: req.Capacity, Facilities: req.Facilities,
    }
    if err := h.Rooms.Create(ctx, room); err != nil {
        if err == repository.ErrRoomCodeExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "room code already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
    }
    return c.JSON(http.StatusCreated, toRoomResp(room))
}

// Update rewrites a room's fields.  Admin only.  Missing optional
// fields keep their current values.
func (h *RoomHandler) Update(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }
    var req roomReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    room, err := h.Rooms.GetByID(ctx, id)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    if v := strings.TrimSpace(req.Code); v != "" {
        room.Code = v
    }
    if v := strings.TrimSpace(req.Name); v != "" {
        room.Name = v
    }
    if req.Location != nil {
        room.Location = req.Location
    }
    if req.Capacity > 0 {
        room.Capacity = req.Capacity
    }
    if req.Facilities != nil {
        room.Facilities = req.Facilities
    }
    if req.IsActive != nil {
        room.IsActive = *req.IsActive
    }

    if err := h.Rooms.Update(ctx, room); err != nil {
        switch err {
        case sql.ErrNoRows:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        case repository.ErrRoomCodeExists:
            return c.JSON(http.StatusConflict, echo.Map{"error": "room code already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
    }
    return c.JSON(http.StatusOK, toRoomResp(room))
}

// Delete deactivates a room.  Historical reservations stay; new ones
// are refused by the booking engine.  Admin only.
func (h *RoomHandler) Delete(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Rooms.Deactivate(ctx, id); err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate room failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Available lists active rooms free over ?start=..&end=.. (naive local
// wall-clock timestamps).
func (h *RoomHandler) Available(c echo.Context) error {
    start, end, err := windowFromQuery(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rooms, err := h.Rooms.ListAvailable(ctx, start, end)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]roomResp, 0, len(rooms))
    for i := range rooms {
        out = append(out, toRoomResp(&rooms[i]))
    }
    return c.JSON(http.StatusOK, out)
}

// Availability reports whether one room is free over ?start=..&end=..,
// listing the live reservations that block it.
func (h *RoomHandler) Availability(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }
    start, end, err := windowFromQuery(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Rooms.GetByID(ctx, id); err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    windows, err := h.Rooms.ListConflicts(ctx, id, start, end)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    type windowResp struct {
        ID        uint64 `json:"id"`
        StartTime string `json:"start_time"`
        EndTime   string `json:"end_time"`
        Status    string `json:"status"`
    }
    conflicts := make([]windowResp, 0, len(windows))
    for _, w := range windows {
        conflicts = append(conflicts, windowResp{
            ID:        w.ID,
            StartTime: formatNaiveTime(w.StartTime),
            EndTime:   formatNaiveTime(w.EndTime),
            Status:    string(w.Status),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{
        "room_id":   id,
        "start":     formatNaiveTime(start),
        "end":       formatNaiveTime(end),
        "available": len(conflicts) == 0,
        "conflicts": conflicts,
    })
}

// windowFromQuery parses the required start/end query parameters.
func windowFromQuery(c echo.Context) (time.Time, time.Time, error) {
    start, err := parseNaiveTime(c.QueryParam("start"))
    if err != nil {
        return time.Time{}, time.Time{}, errors.New("invalid start")
    }
    end, err := parseNaiveTime(c.QueryParam("end"))
    if err != nil {
        return time.Time{}, time.Time{}, errors.New("invalid end")
    }
    if !end.After(start) {
        return time.Time{}, time.Time{}, errors.New("end must be after start")
    }
    return start, end, nil
}

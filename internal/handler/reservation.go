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

    "github.com/iliyamo/room-reservation/internal/booking"
    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/queue"
    "github.com/iliyamo/room-reservation/internal/repository"
    queue_publisher "github.com/iliyamo/room-reservation/internal/service"
)

// ReservationHandler exposes the reservation lifecycle over HTTP.  All
// policy lives in the booking engine; the handler parses requests,
// resolves the acting identity and translates engine errors to status
// codes.
type ReservationHandler struct {
    Engine *booking.Engine
    Users  *repository.UserRepo
}

func NewReservationHandler(engine *booking.Engine, users *repository.UserRepo) *ReservationHandler {
    return &ReservationHandler{Engine: engine, Users: users}
}

type createReservationReq struct {
    RoomID        uint64  `json:"room_id"`
    StartTime     string  `json:"start_time"`
    EndTime       string  `json:"end_time"`
    Notes         *string `json:"notes"`
    BookedForName string  `json:"booked_for_name"` // admin only
    BookedForRef  string  `json:"booked_for_ref"`  // admin only
}

type changeStatusReq struct {
    Status  string  `json:"status"`
    Comment *string `json:"comment"`
}

type reservationResp struct {
    ID            uint64  `json:"id"`
    RoomID        uint64  `json:"room_id"`
    RoomCode      string  `json:"room_code,omitempty"`
    RoomName      string  `json:"room_name,omitempty"`
    RequestedBy   uint64  `json:"requested_by"`
    BookedForName string  `json:"booked_for_name"`
    BookedForRef  string  `json:"booked_for_ref"`
    StartTime     string  `json:"start_time"`
    EndTime       string  `json:"end_time"`
    Status        string  `json:"status"`
    Notes         *string `json:"notes,omitempty"`
    CreatedAt     string  `json:"created_at"`
    UpdatedAt     string  `json:"updated_at"`
}

func toReservationResp(d *booking.ReservationDetail) reservationResp {
    return reservationResp{
        ID:            d.ID,
        RoomID:        d.RoomID,
        RoomCode:      d.RoomCode,
        RoomName:      d.RoomName,
        RequestedBy:   d.RequestedBy,
        BookedForName: d.BookedForName,
        BookedForRef:  d.BookedForRef,
        StartTime:     formatNaiveTime(d.StartTime),
        EndTime:       formatNaiveTime(d.EndTime),
        Status:        string(d.Status),
        Notes:         d.Notes,
        CreatedAt:     formatNaiveTime(d.CreatedAt),
        UpdatedAt:     formatNaiveTime(d.UpdatedAt),
    }
}

type historyResp struct {
    ID             uint64  `json:"id"`
    FromStatus     string  `json:"from_status"`
    ToStatus       string  `json:"to_status"`
    ChangedByID    *uint64 `json:"changed_by_id,omitempty"`
    ChangedByLabel string  `json:"changed_by"`
    Comment        *string `json:"comment,omitempty"`
    ChangedAt      string  `json:"changed_at"`
}

// Create validates and books a new pending reservation for the
// authenticated user.  Admins may book on behalf of someone else via
// booked_for_name / booked_for_ref.
func (h *ReservationHandler) Create(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createReservationReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.RoomID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id required"})
    }
    start, err := parseNaiveTime(strings.TrimSpace(req.StartTime))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_time"})
    }
    end, err := parseNaiveTime(strings.TrimSpace(req.EndTime))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_time"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    // The reservation is stamped with the name and ref from the user
    // record, not the token, so a stale or forged claim cannot relabel
    // the booking.
    u, err := h.Users.GetByID(ctx, actor.ID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    actor.Name = u.FullName
    actor.RefNo = u.RefNo
    actor.IsAdmin = u.Role == model.RoleAdmin

    detail, err := h.Engine.Create(ctx, booking.CreateRequest{
        RoomID:       req.RoomID,
        Requester:    actor,
        Start:        start,
        End:          end,
        Notes:        req.Notes,
        OnBehalfName: req.BookedForName,
        OnBehalfRef:  req.BookedForRef,
    })
    if err != nil {
        return h.mapEngineError(c, err)
    }

    h.publishStatus(detail, "", detail.Status, actor.RefNo)
    return c.JSON(http.StatusCreated, toReservationResp(detail))
}

// List returns the reservations visible to the caller, newest first.
func (h *ReservationHandler) List(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    details, err := h.Engine.List(ctx, actor)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]reservationResp, 0, len(details))
    for i := range details {
        out = append(out, toReservationResp(&details[i]))
    }
    return c.JSON(http.StatusOK, out)
}

// Get returns one reservation with its room summary.
func (h *ReservationHandler) Get(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    detail, err := h.Engine.Get(ctx, id, actor)
    if err != nil {
        return h.mapEngineError(c, err)
    }
    return c.JSON(http.StatusOK, toReservationResp(detail))
}

// History returns a reservation's status audit trail, newest first.
func (h *ReservationHandler) History(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    entries, err := h.Engine.History(ctx, id, actor)
    if err != nil {
        return h.mapEngineError(c, err)
    }
    out := make([]historyResp, 0, len(entries))
    for _, e := range entries {
        out = append(out, historyResp{
            ID:             e.ID,
            FromStatus:     string(e.FromStatus),
            ToStatus:       string(e.ToStatus),
            ChangedByID:    e.ChangedByID,
            ChangedByLabel: e.ChangedByLabel,
            Comment:        e.Comment,
            ChangedAt:      formatNaiveTime(e.ChangedAt),
        })
    }
    return c.JSON(http.StatusOK, out)
}

// ChangeStatus applies an explicit status transition.  Registered behind
// the admin role middleware; the engine enforces the same rule again.
func (h *ReservationHandler) ChangeStatus(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    var req changeStatusReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    to := model.Status(strings.ToLower(strings.TrimSpace(req.Status)))
    if !to.IsValid() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    before, err := h.Engine.Get(ctx, id, actor)
    if err != nil {
        return h.mapEngineError(c, err)
    }
    from := before.Status

    res, err := h.Engine.Transition(ctx, id, actor, to, req.Comment)
    if err != nil {
        return h.mapEngineError(c, err)
    }

    before.Reservation = *res
    h.publishStatus(before, from, res.Status, actor.RefNo)
    return c.JSON(http.StatusOK, echo.Map{
        "id":          res.ID,
        "from_status": string(from),
        "status":      string(res.Status),
        "updated_at":  formatNaiveTime(res.UpdatedAt),
    })
}

// Cancel is the owner-facing DELETE: the reservation moves to cancelled
// with an audit comment recording the path taken.
func (h *ReservationHandler) Cancel(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    before, err := h.Engine.Get(ctx, id, actor)
    if err != nil {
        return h.mapEngineError(c, err)
    }
    from := before.Status

    comment := "Cancelled via DELETE"
    res, err := h.Engine.Cancel(ctx, id, actor, &comment)
    if err != nil {
        return h.mapEngineError(c, err)
    }

    before.Reservation = *res
    h.publishStatus(before, from, res.Status, actor.RefNo)
    return c.NoContent(http.StatusNoContent)
}

// mapEngineError translates the engine's error kinds to HTTP responses.
func (h *ReservationHandler) mapEngineError(c echo.Context, err error) error {
    var policy *booking.PolicyViolationError
    if errors.As(err, &policy) {
        return c.JSON(http.StatusBadRequest, echo.Map{
            "error":      "booking policy violation",
            "violations": policy.Violations,
        })
    }
    switch {
    case errors.Is(err, booking.ErrInvalidInterval):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be after start_time"})
    case errors.Is(err, booking.ErrRoomInactive):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "room is not active"})
    case errors.Is(err, booking.ErrRoomNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
    case errors.Is(err, booking.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    case errors.Is(err, booking.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, booking.ErrScheduleConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "time slot conflicts with an existing reservation"})
    case errors.Is(err, booking.ErrApprovalConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "an approved reservation already occupies this slot"})
    case errors.Is(err, booking.ErrAlreadyFinal):
        return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is already in a final state"})
    case errors.Is(err, booking.ErrSameStatus):
        return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is already in that status"})
    case errors.Is(err, booking.ErrIllegalTransition):
        return c.JSON(http.StatusConflict, echo.Map{"error": "illegal status transition"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed"})
}

// publishStatus emits a reservation.status event in the background.
// Delivery is best effort; a broker outage never fails the request.
func (h *ReservationHandler) publishStatus(d *booking.ReservationDetail, from, to model.Status, changedBy string) {
    ev := queue.ReservationStatusEvent{
        ReservationID: d.ID,
        RoomID:        d.RoomID,
        RoomCode:      d.RoomCode,
        RequestedBy:   d.RequestedBy,
        BookedForRef:  d.BookedForRef,
        FromStatus:    string(from),
        ToStatus:      string(to),
        StartTime:     formatNaiveTime(d.StartTime),
        EndTime:       formatNaiveTime(d.EndTime),
        ChangedBy:     changedBy,
        ChangedAt:     formatNaiveTime(d.UpdatedAt),
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = queue_publisher.PublishReservationStatus(ctx, ev)
    }()
}

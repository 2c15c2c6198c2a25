package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/greenloop/ewaste-pickup/internal/queue"
    "github.com/greenloop/ewaste-pickup/internal/repository"
    queue_publisher "github.com/greenloop/ewaste-pickup/internal/service"
    "github.com/greenloop/ewaste-pickup/internal/workflow"
)

// RequestHandler exposes the assignment workflow over HTTP: request
// creation and listing for users, queue/accept/complete for recyclers.
// JWT authentication and role checks happen in middleware; handlers
// only extract the caller id and translate workflow errors.
type RequestHandler struct {
    Flow     *workflow.Assignment
    Profiles *repository.RecyclerProfileRepo
}

// NewRequestHandler constructs a RequestHandler.  Both dependencies
// must be non-nil.
func NewRequestHandler(flow *workflow.Assignment, profiles *repository.RecyclerProfileRepo) *RequestHandler {
    if flow == nil || profiles == nil {
        panic("nil dependency passed to NewRequestHandler")
    }
    return &RequestHandler{Flow: flow, Profiles: profiles}
}

type createRequestReq struct {
    WasteType  string   `json:"waste_type"`
    Quantity   *string  `json:"quantity"`
    Weight     *float64 `json:"weight"`
    Unit       string   `json:"unit"`
    Location   string   `json:"location"`
    RecyclerID *uint64  `json:"recycler_id"`
}

// Create handles POST /v1/requests.  The caller supplies a waste type,
// exactly one of quantity or weight(+unit), a pickup location and
// optionally a pre-selected recycler id.
func (h *RequestHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body createRequestReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req, err := h.Flow.Create(c.Request().Context(), workflow.CreateInput{
        UserID:      userID,
        RecyclerID:  body.RecyclerID,
        WasteType:   body.WasteType,
        Quantity:    body.Quantity,
        WeightValue: body.Weight,
        WeightUnit:  body.Unit,
        Location:    body.Location,
    })
    if err != nil {
        return workflowError(c, err, "create request failed")
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message": "request created successfully",
        "request": req,
    })
}

// ListMine handles GET /v1/requests/mine: every request owned by the
// calling user, regardless of status.
func (h *RequestHandler) ListMine(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    reqs, err := h.Flow.ListMine(c.Request().Context(), userID)
    if err != nil {
        return workflowError(c, err, "list requests failed")
    }
    return c.JSON(http.StatusOK, reqs)
}

// Queue handles GET /v1/requests/queue: the recycler's work queue,
// requests assigned to the caller plus every unassigned pending one.
func (h *RequestHandler) Queue(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    reqs, err := h.Flow.Queue(c.Request().Context(), userID)
    if err != nil {
        return workflowError(c, err, "list queue failed")
    }
    return c.JSON(http.StatusOK, reqs)
}

// Accept handles PATCH /v1/requests/:id/accept.  On success the
// request is assigned to the caller's profile and an event is published
// for downstream consumers; publish failures never fail the request.
func (h *RequestHandler) Accept(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || requestID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
    }
    ctx := c.Request().Context()
    req, err := h.Flow.Accept(ctx, userID, requestID)
    if err != nil {
        return workflowError(c, err, "accept request failed")
    }

    ev := queue.RequestAcceptedEvent{
        EventID:    uuid.NewString(),
        RequestID:  req.ID,
        UserID:     req.UserID,
        WasteType:  req.WasteType,
        Location:   req.Location,
        AcceptedAt: time.Now().UTC().Format(time.RFC3339),
    }
    if req.RecyclerID != nil {
        ev.RecyclerID = *req.RecyclerID
    }
    if profile, perr := h.Profiles.GetByUserID(ctx, userID); perr == nil {
        ev.CompanyName = profile.CompanyName
        ev.City = profile.City
    }
    _ = queue_publisher.PublishRequestAccepted(ctx, ev)

    return c.JSON(http.StatusOK, echo.Map{
        "message": "request accepted successfully",
        "request": req,
    })
}

// Complete handles PATCH /v1/requests/:id/complete.  Only the recycler
// the request is assigned to may complete it, and only from Accepted.
func (h *RequestHandler) Complete(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || requestID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
    }
    req, err := h.Flow.Complete(c.Request().Context(), userID, requestID)
    if err != nil {
        return workflowError(c, err, "complete request failed")
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "request completed",
        "request": req,
    })
}

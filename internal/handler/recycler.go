package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/greenloop/ewaste-pickup/internal/repository"
    "github.com/greenloop/ewaste-pickup/internal/workflow"
)

// RecyclerHandler exposes recycler profile registration, the "update
// services" operation and the public directory lookup.
type RecyclerHandler struct {
    Flow     *workflow.Assignment
    Profiles *repository.RecyclerProfileRepo
}

func NewRecyclerHandler(flow *workflow.Assignment, profiles *repository.RecyclerProfileRepo) *RecyclerHandler {
    if flow == nil || profiles == nil {
        panic("nil dependency passed to NewRecyclerHandler")
    }
    return &RecyclerHandler{Flow: flow, Profiles: profiles}
}

type registerRecyclerReq struct {
    CompanyName    string   `json:"company_name"`
    City           string   `json:"city"`
    Address        string   `json:"address"`
    Latitude       *float64 `json:"latitude"`
    Longitude      *float64 `json:"longitude"`
    WasteTypes     []string `json:"accepted_waste_types"`
    PickupRadiusKm float64  `json:"pickup_radius_km"`
    Availability   *bool    `json:"availability"`
    Certifications string   `json:"certifications"`
}

type updateServicesReq struct {
    CompanyName    *string  `json:"company_name"`
    City           *string  `json:"city"`
    Address        *string  `json:"address"`
    WasteTypes     []string `json:"accepted_waste_types"`
    PickupRadiusKm *float64 `json:"pickup_radius_km"`
    Availability   *bool    `json:"availability"`
    Certifications *string  `json:"certifications"`
}

// Register handles POST /v1/recyclers.  It creates the caller's
// profile and promotes the account role in one transaction; a second
// call for the same account gets 409.
func (h *RecyclerHandler) Register(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body registerRecyclerReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    availability := true
    if body.Availability != nil {
        availability = *body.Availability
    }
    profile, err := h.Flow.RegisterRecycler(c.Request().Context(), workflow.RegisterInput{
        UserID:         userID,
        CompanyName:    body.CompanyName,
        City:           body.City,
        Address:        body.Address,
        Latitude:       body.Latitude,
        Longitude:      body.Longitude,
        WasteTypes:     body.WasteTypes,
        PickupRadiusKm: body.PickupRadiusKm,
        Availability:   availability,
        Certifications: body.Certifications,
    })
    if err != nil {
        return workflowError(c, err, "register recycler failed")
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message": "recycler registered successfully",
        "profile": profile,
    })
}

// Me handles GET /v1/recyclers/me: the caller's own profile.
func (h *RecyclerHandler) Me(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    profile, err := h.Profiles.GetByUserID(c.Request().Context(), userID)
    if err != nil {
        return workflowError(c, err, "load profile failed")
    }
    return c.JSON(http.StatusOK, profile)
}

// UpdateServices handles PATCH /v1/recyclers/me.  Only the fields
// present in the body are touched.
func (h *RecyclerHandler) UpdateServices(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body updateServicesReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.City != nil && strings.TrimSpace(*body.City) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "city cannot be empty"})
    }
    if body.CompanyName != nil && strings.TrimSpace(*body.CompanyName) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "company_name cannot be empty"})
    }
    profile, err := h.Profiles.UpdateServices(c.Request().Context(), userID, repository.ServiceUpdate{
        CompanyName:    body.CompanyName,
        City:           body.City,
        Address:        body.Address,
        WasteTypes:     body.WasteTypes,
        PickupRadiusKm: body.PickupRadiusKm,
        Availability:   body.Availability,
        Certifications: body.Certifications,
    })
    if err != nil {
        return workflowError(c, err, "update services failed")
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "services updated",
        "profile": profile,
    })
}

// Directory handles GET /v1/recyclers?city=.  It answers "which
// recyclers serve city X" with an exact-match filter, or lists every
// profile when no city is given.  Responses are cached by middleware.
func (h *RecyclerHandler) Directory(c echo.Context) error {
    city := strings.TrimSpace(c.QueryParam("city"))
    entries, err := h.Profiles.ListByCity(c.Request().Context(), city)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch recyclers"})
    }
    return c.JSON(http.StatusOK, entries)
}

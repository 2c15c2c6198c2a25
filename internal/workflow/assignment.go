package workflow

import (
    "context"
    "fmt"
    "strings"

    "github.com/greenloop/ewaste-pickup/internal/model"
)

// RequestStore is the persistence surface the workflow needs for pickup
// requests.  Implementations must return ErrNotFound when a referenced
// request does not exist.  Assign is a plain overwrite of recycler id and
// status with no compare-and-swap on the prior value; concurrent calls
// race and the last write wins.
type RequestStore interface {
    Create(ctx context.Context, req *model.PickupRequest) error
    GetByID(ctx context.Context, id uint64) (*model.PickupRequest, error)
    ListByUser(ctx context.Context, userID uint64) ([]model.PickupRequest, error)
    ListAssigned(ctx context.Context, recyclerID uint64) ([]model.PickupRequest, error)
    ListUnassignedPending(ctx context.Context) ([]model.PickupRequest, error)
    Assign(ctx context.Context, requestID, recyclerID uint64) error
    MarkCompleted(ctx context.Context, requestID uint64) error
}

// ProfileStore is the persistence surface the workflow needs for recycler
// profiles.  GetByUserID must return ErrNotFound when the account owns no
// profile.  Register must persist the profile and promote the owning
// account's role to recycler atomically, returning ErrAlreadyRegistered
// when a profile already exists for the account.
type ProfileStore interface {
    GetByUserID(ctx context.Context, userID uint64) (*model.RecyclerProfile, error)
    Register(ctx context.Context, profile *model.RecyclerProfile) error
}

// Assignment implements the request lifecycle: create, the two list
// views, accept, complete and recycler registration.
type Assignment struct {
    requests RequestStore
    profiles ProfileStore
}

// NewAssignment constructs the workflow over the given stores.
func NewAssignment(requests RequestStore, profiles ProfileStore) *Assignment {
    if requests == nil || profiles == nil {
        panic("nil store passed to NewAssignment")
    }
    return &Assignment{requests: requests, profiles: profiles}
}

// CreateInput carries the caller-supplied fields for a new request.
// Exactly one of Quantity and WeightValue must be set.  RecyclerID
// optionally pre-selects a recycler; the request is still created in
// Pending Assignment status.
type CreateInput struct {
    UserID      uint64
    RecyclerID  *uint64
    WasteType   string
    Quantity    *string
    WeightValue *float64
    WeightUnit  string
    Location    string
}

// Create validates the input and persists a new request in Pending
// Assignment status, returning the stored record.
func (a *Assignment) Create(ctx context.Context, in CreateInput) (*model.PickupRequest, error) {
    wasteType := strings.TrimSpace(in.WasteType)
    location := strings.TrimSpace(in.Location)
    if wasteType == "" {
        return nil, fmt.Errorf("%w: waste_type is required", ErrValidation)
    }
    if location == "" {
        return nil, fmt.Errorf("%w: location is required", ErrValidation)
    }
    hasQuantity := in.Quantity != nil && strings.TrimSpace(*in.Quantity) != ""
    hasWeight := in.WeightValue != nil
    if hasQuantity == hasWeight {
        return nil, fmt.Errorf("%w: exactly one of quantity and weight is required", ErrValidation)
    }
    req := &model.PickupRequest{
        UserID:     in.UserID,
        RecyclerID: in.RecyclerID,
        WasteType:  wasteType,
        Location:   location,
        Status:     model.StatusPendingAssignment,
    }
    if hasQuantity {
        q := strings.TrimSpace(*in.Quantity)
        req.Quantity = &q
    } else {
        if *in.WeightValue <= 0 {
            return nil, fmt.Errorf("%w: weight must be positive", ErrValidation)
        }
        unit := strings.ToLower(strings.TrimSpace(in.WeightUnit))
        if unit == "" {
            unit = model.UnitKg
        }
        if unit != model.UnitKg && unit != model.UnitG {
            return nil, fmt.Errorf("%w: weight unit must be kg or g", ErrValidation)
        }
        req.WeightValue = in.WeightValue
        req.WeightUnit = unit
    }
    if err := a.requests.Create(ctx, req); err != nil {
        return nil, err
    }
    return req, nil
}

// ListMine returns every request owned by the given user, regardless of
// status, in storage order.
func (a *Assignment) ListMine(ctx context.Context, userID uint64) ([]model.PickupRequest, error) {
    return a.requests.ListByUser(ctx, userID)
}

// Queue returns the work queue for the calling recycler account: requests
// assigned to its profile plus every unassigned request still pending,
// deduplicated by id.  The caller must own a recycler profile.
func (a *Assignment) Queue(ctx context.Context, callerID uint64) ([]model.PickupRequest, error) {
    profile, err := a.profiles.GetByUserID(ctx, callerID)
    if err != nil {
        return nil, err
    }
    mine, err := a.requests.ListAssigned(ctx, profile.ID)
    if err != nil {
        return nil, err
    }
    open, err := a.requests.ListUnassignedPending(ctx)
    if err != nil {
        return nil, err
    }
    seen := make(map[uint64]struct{}, len(mine))
    out := make([]model.PickupRequest, 0, len(mine)+len(open))
    for _, r := range mine {
        seen[r.ID] = struct{}{}
        out = append(out, r)
    }
    for _, r := range open {
        if _, ok := seen[r.ID]; ok {
            continue
        }
        out = append(out, r)
    }
    return out, nil
}

// Accept claims a request for the calling recycler account.  The write
// overwrites any prior recycler id and sets the status to Accepted; two
// recyclers accepting the same pending request concurrently both succeed
// and whichever write lands last owns the request.  The only guard is on
// terminal states: a Completed or Cancelled request cannot be accepted.
func (a *Assignment) Accept(ctx context.Context, callerID, requestID uint64) (*model.PickupRequest, error) {
    profile, err := a.profiles.GetByUserID(ctx, callerID)
    if err != nil {
        return nil, err
    }
    req, err := a.requests.GetByID(ctx, requestID)
    if err != nil {
        return nil, err
    }
    if req.Status.Terminal() {
        return nil, fmt.Errorf("%w: request is %s", ErrConflict, req.Status)
    }
    if err := a.requests.Assign(ctx, requestID, profile.ID); err != nil {
        return nil, err
    }
    return a.requests.GetByID(ctx, requestID)
}

// Complete moves a request from Accepted to Completed.  Only the
// recycler currently assigned to the request may complete it.
func (a *Assignment) Complete(ctx context.Context, callerID, requestID uint64) (*model.PickupRequest, error) {
    profile, err := a.profiles.GetByUserID(ctx, callerID)
    if err != nil {
        return nil, err
    }
    req, err := a.requests.GetByID(ctx, requestID)
    if err != nil {
        return nil, err
    }
    if req.RecyclerID == nil || *req.RecyclerID != profile.ID {
        return nil, fmt.Errorf("%w: request is not assigned to caller", ErrForbidden)
    }
    if req.Status != model.StatusAccepted {
        return nil, fmt.Errorf("%w: request is %s", ErrConflict, req.Status)
    }
    if err := a.requests.MarkCompleted(ctx, requestID); err != nil {
        return nil, err
    }
    return a.requests.GetByID(ctx, requestID)
}

// RegisterInput carries the fields for a new recycler profile.
type RegisterInput struct {
    UserID         uint64
    CompanyName    string
    City           string
    Address        string
    Latitude       *float64
    Longitude      *float64
    WasteTypes     []string
    PickupRadiusKm float64
    Availability   bool
    Certifications string
}

// RegisterRecycler creates the caller's recycler profile and promotes the
// account role in one atomic store operation.  A second registration for
// the same account fails with ErrAlreadyRegistered and persists nothing.
func (a *Assignment) RegisterRecycler(ctx context.Context, in RegisterInput) (*model.RecyclerProfile, error) {
    company := strings.TrimSpace(in.CompanyName)
    city := strings.TrimSpace(in.City)
    if company == "" {
        return nil, fmt.Errorf("%w: company_name is required", ErrValidation)
    }
    if city == "" {
        return nil, fmt.Errorf("%w: city is required", ErrValidation)
    }
    types := make([]string, 0, len(in.WasteTypes))
    for _, t := range in.WasteTypes {
        t = strings.TrimSpace(t)
        if t != "" {
            types = append(types, t)
        }
    }
    if len(types) == 0 {
        return nil, fmt.Errorf("%w: at least one accepted waste type is required", ErrValidation)
    }
    if in.PickupRadiusKm < 0 {
        return nil, fmt.Errorf("%w: pickup radius cannot be negative", ErrValidation)
    }
    profile := &model.RecyclerProfile{
        UserID:         in.UserID,
        CompanyName:    company,
        City:           city,
        Address:        strings.TrimSpace(in.Address),
        Latitude:       in.Latitude,
        Longitude:      in.Longitude,
        WasteTypes:     types,
        PickupRadiusKm: in.PickupRadiusKm,
        Availability:   in.Availability,
        Certifications: strings.TrimSpace(in.Certifications),
    }
    if err := a.profiles.Register(ctx, profile); err != nil {
        return nil, err
    }
    return profile, nil
}

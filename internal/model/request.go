package model

import "time"

// RequestStatus enumerates the lifecycle of a pickup request.  Only the
// forward path Pending Assignment → Accepted → Completed is produced by
// the API today.  StatusAssigned is reserved for a future admin flow that
// pushes a request to a specific recycler; StatusCancelled exists in the
// schema but no operation reaches it.  The string values are stored
// verbatim in pickup_requests.status.
type RequestStatus string

const (
    StatusPendingAssignment RequestStatus = "Pending Assignment"
    StatusAssigned          RequestStatus = "Assigned" // reserved, unreachable
    StatusAccepted          RequestStatus = "Accepted"
    StatusCompleted         RequestStatus = "Completed"
    StatusCancelled         RequestStatus = "Cancelled" // reserved, unreachable
)

// Terminal reports whether a status permits no further transition.
func (s RequestStatus) Terminal() bool {
    return s == StatusCompleted || s == StatusCancelled
}

// Weight units accepted for pickup_requests.weight_unit.
const (
    UnitKg = "kg"
    UnitG  = "g"
)

// PickupRequest models a row of the `pickup_requests` table.  A request
// describes e-waste a user wants collected.  The amount is expressed as
// either a free-text Quantity or a numeric Weight with unit; exactly one
// of the two is set on records created through the API.  RecyclerID is
// null until a recycler accepts the request, except when the user
// pre-selects a recycler at creation time (the request is then still
// formally pending).
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – owner of the request.
//  RecyclerID  – recycler profile the request is assigned to (nullable).
//  WasteType   – category of the e-waste (e.g. "Batteries").
//  Quantity    – free-text amount such as "3 items" (nullable).
//  WeightValue – numeric weight (nullable, paired with WeightUnit).
//  WeightUnit  – UnitKg or UnitG; empty when WeightValue is null.
//  Location    – free-text pickup location.
//  Status      – current lifecycle state.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type PickupRequest struct {
    ID          uint64        `json:"id"`
    UserID      uint64        `json:"user_id"`
    RecyclerID  *uint64       `json:"recycler_id"`
    WasteType   string        `json:"waste_type"`
    Quantity    *string       `json:"quantity"`
    WeightValue *float64      `json:"weight_value"`
    WeightUnit  string        `json:"weight_unit,omitempty"`
    Location    string        `json:"location"`
    Status      RequestStatus `json:"status"`
    CreatedAt   time.Time     `json:"created_at"`
    UpdatedAt   time.Time     `json:"updated_at"`
}

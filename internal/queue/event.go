// Package queue defines message payloads exchanged over the message broker.
package queue

// RequestAcceptedEvent is published when a recycler accepts a pickup
// request.  It carries enough context for downstream consumers to log,
// notify the requester, or feed analytics without querying the primary
// database.  EventID is a v4 UUID so consumers can deduplicate
// redeliveries.
type RequestAcceptedEvent struct {
    EventID     string `json:"event_id"`
    RequestID   uint64 `json:"request_id"`
    UserID      uint64 `json:"user_id"`
    RecyclerID  uint64 `json:"recycler_id"`
    CompanyName string `json:"company_name,omitempty"`
    City        string `json:"city,omitempty"`
    WasteType   string `json:"waste_type"`
    Location    string `json:"location"`
    AcceptedAt  string `json:"accepted_at"`
}

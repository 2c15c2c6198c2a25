package workflow

import (
    "context"
    "sync"
    "time"

    "github.com/greenloop/ewaste-pickup/internal/model"
)

// memStore is an in-memory RequestStore + ProfileStore used by the
// workflow tests.  Writes are serialized by a mutex so the tests can
// exercise the accept race from multiple goroutines; lastAssign records
// the recycler id of the most recent Assign call so the race tests can
// assert the last-write-wins outcome without assuming a winner.
type memStore struct {
    mu         sync.Mutex
    nextReq    uint64
    nextProf   uint64
    requests   map[uint64]model.PickupRequest
    order      []uint64
    profiles   map[uint64]model.RecyclerProfile // keyed by user id
    lastAssign uint64
}

func newMemStore() *memStore {
    return &memStore{
        requests: make(map[uint64]model.PickupRequest),
        profiles: make(map[uint64]model.RecyclerProfile),
    }
}

func (m *memStore) Create(_ context.Context, req *model.PickupRequest) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.nextReq++
    req.ID = m.nextReq
    req.CreatedAt = time.Now().UTC()
    req.UpdatedAt = req.CreatedAt
    m.requests[req.ID] = *req
    m.order = append(m.order, req.ID)
    return nil
}

func (m *memStore) GetByID(_ context.Context, id uint64) (*model.PickupRequest, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    r, ok := m.requests[id]
    if !ok {
        return nil, ErrNotFound
    }
    return &r, nil
}

func (m *memStore) ListByUser(_ context.Context, userID uint64) ([]model.PickupRequest, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.PickupRequest
    for _, id := range m.order {
        if r := m.requests[id]; r.UserID == userID {
            out = append(out, r)
        }
    }
    return out, nil
}

func (m *memStore) ListAssigned(_ context.Context, recyclerID uint64) ([]model.PickupRequest, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.PickupRequest
    for _, id := range m.order {
        if r := m.requests[id]; r.RecyclerID != nil && *r.RecyclerID == recyclerID {
            out = append(out, r)
        }
    }
    return out, nil
}

func (m *memStore) ListUnassignedPending(_ context.Context) ([]model.PickupRequest, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.PickupRequest
    for _, id := range m.order {
        if r := m.requests[id]; r.RecyclerID == nil && r.Status == model.StatusPendingAssignment {
            out = append(out, r)
        }
    }
    return out, nil
}

func (m *memStore) Assign(_ context.Context, requestID, recyclerID uint64) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    r, ok := m.requests[requestID]
    if !ok {
        return ErrNotFound
    }
    if r.Status.Terminal() {
        return nil // mirrors the SQL terminal guard: the write is a no-op
    }
    rid := recyclerID
    r.RecyclerID = &rid
    r.Status = model.StatusAccepted
    r.UpdatedAt = time.Now().UTC()
    m.requests[requestID] = r
    m.lastAssign = recyclerID
    return nil
}

func (m *memStore) MarkCompleted(_ context.Context, requestID uint64) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    r, ok := m.requests[requestID]
    if !ok {
        return ErrNotFound
    }
    r.Status = model.StatusCompleted
    r.UpdatedAt = time.Now().UTC()
    m.requests[requestID] = r
    return nil
}

func (m *memStore) GetByUserID(_ context.Context, userID uint64) (*model.RecyclerProfile, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    p, ok := m.profiles[userID]
    if !ok {
        return nil, ErrNotFound
    }
    return &p, nil
}

func (m *memStore) Register(_ context.Context, profile *model.RecyclerProfile) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, ok := m.profiles[profile.UserID]; ok {
        return ErrAlreadyRegistered
    }
    m.nextProf++
    profile.ID = m.nextProf
    profile.CreatedAt = time.Now().UTC()
    profile.UpdatedAt = profile.CreatedAt
    m.profiles[profile.UserID] = *profile
    return nil
}

func (m *memStore) lastAssignedRecycler() uint64 {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.lastAssign
}

func (m *memStore) profileCount() int {
    m.mu.Lock()
    defer m.mu.Unlock()
    return len(m.profiles)
}

package workflow

import (
    "context"
    "sync"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/greenloop/ewaste-pickup/internal/model"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func newTestWorkflow() (*Assignment, *memStore) {
    store := newMemStore()
    return NewAssignment(store, store), store
}

// registerRecycler is a helper that registers a profile for the given
// account and returns it.
func registerRecycler(t *testing.T, a *Assignment, userID uint64) *model.RecyclerProfile {
    t.Helper()
    p, err := a.RegisterRecycler(context.Background(), RegisterInput{
        UserID:         userID,
        CompanyName:    "GreenLoop Recycling",
        City:           "Pune",
        Address:        "12 Industrial Estate",
        WasteTypes:     []string{"Batteries", "Monitors"},
        PickupRadiusKm: 15,
        Availability:   true,
    })
    require.NoError(t, err)
    return p
}

func TestCreateThenListMine(t *testing.T) {
    a, _ := newTestWorkflow()
    ctx := context.Background()

    created, err := a.Create(ctx, CreateInput{
        UserID:    7,
        WasteType: "Batteries",
        Quantity:  strPtr("3 items"),
        Location:  "Baner, Pune",
    })
    require.NoError(t, err)
    assert.Equal(t, model.StatusPendingAssignment, created.Status)
    assert.Nil(t, created.RecyclerID)

    mine, err := a.ListMine(ctx, 7)
    require.NoError(t, err)

    count := 0
    for _, r := range mine {
        if r.ID == created.ID {
            count++
        }
    }
    assert.Equal(t, 1, count, "created request must appear exactly once in list-mine")

    other, err := a.ListMine(ctx, 8)
    require.NoError(t, err)
    assert.Empty(t, other)
}

func TestCreateWithPreselectedRecycler(t *testing.T) {
    a, _ := newTestWorkflow()
    rec := registerRecycler(t, a, 20)

    created, err := a.Create(context.Background(), CreateInput{
        UserID:      7,
        RecyclerID:  &rec.ID,
        WasteType:   "Monitors",
        WeightValue: f64Ptr(4.5),
        WeightUnit:  "kg",
        Location:    "Kothrud, Pune",
    })
    require.NoError(t, err)
    // A pre-selected recycler does not move the request out of pending.
    assert.Equal(t, model.StatusPendingAssignment, created.Status)
    require.NotNil(t, created.RecyclerID)
    assert.Equal(t, rec.ID, *created.RecyclerID)
}

func TestCreateValidation(t *testing.T) {
    a, _ := newTestWorkflow()
    ctx := context.Background()

    cases := []struct {
        name string
        in   CreateInput
    }{
        {"missing waste type", CreateInput{UserID: 1, Quantity: strPtr("2"), Location: "Pune"}},
        {"missing location", CreateInput{UserID: 1, WasteType: "Cables", Quantity: strPtr("2")}},
        {"neither quantity nor weight", CreateInput{UserID: 1, WasteType: "Cables", Location: "Pune"}},
        {"both quantity and weight", CreateInput{UserID: 1, WasteType: "Cables", Quantity: strPtr("2"), WeightValue: f64Ptr(1), Location: "Pune"}},
        {"bad unit", CreateInput{UserID: 1, WasteType: "Cables", WeightValue: f64Ptr(1), WeightUnit: "lb", Location: "Pune"}},
        {"non-positive weight", CreateInput{UserID: 1, WasteType: "Cables", WeightValue: f64Ptr(0), Location: "Pune"}},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            _, err := a.Create(ctx, tc.in)
            assert.ErrorIs(t, err, ErrValidation)
        })
    }
}

func TestWeightUnitDefaultsToKg(t *testing.T) {
    a, _ := newTestWorkflow()
    created, err := a.Create(context.Background(), CreateInput{
        UserID:      1,
        WasteType:   "Refrigerator",
        WeightValue: f64Ptr(40),
        Location:    "Pune",
    })
    require.NoError(t, err)
    assert.Equal(t, model.UnitKg, created.WeightUnit)
}

func TestAcceptNotFound(t *testing.T) {
    a, store := newTestWorkflow()
    ctx := context.Background()

    // Caller with no recycler profile resolves to NotFound.
    _, err := a.Accept(ctx, 99, 1)
    assert.ErrorIs(t, err, ErrNotFound)

    registerRecycler(t, a, 99)

    // Nonexistent request id: NotFound, and nothing was written.
    _, err = a.Accept(ctx, 99, 12345)
    assert.ErrorIs(t, err, ErrNotFound)
    assert.Zero(t, store.lastAssignedRecycler())
}

func TestAcceptClaimsPendingRequest(t *testing.T) {
    a, _ := newTestWorkflow()
    ctx := context.Background()
    rec := registerRecycler(t, a, 50)

    created, err := a.Create(ctx, CreateInput{
        UserID: 7, WasteType: "Laptops", Quantity: strPtr("2"), Location: "Pune",
    })
    require.NoError(t, err)

    accepted, err := a.Accept(ctx, 50, created.ID)
    require.NoError(t, err)
    assert.Equal(t, model.StatusAccepted, accepted.Status)
    require.NotNil(t, accepted.RecyclerID)
    assert.Equal(t, rec.ID, *accepted.RecyclerID)
}

// TestAcceptRace reproduces the documented last-write-wins hazard: two
// recyclers accept the same pending request concurrently, both calls
// succeed, and the persisted recycler id is whichever write landed last.
// The winner is nondeterministic, so the assertion follows the store's
// write log instead of assuming one.
func TestAcceptRace(t *testing.T) {
    a, store := newTestWorkflow()
    ctx := context.Background()

    r1 := registerRecycler(t, a, 101)
    r2 := registerRecycler(t, a, 102)

    created, err := a.Create(ctx, CreateInput{
        UserID: 7, WasteType: "Batteries", Quantity: strPtr("10"), Location: "Pune",
    })
    require.NoError(t, err)

    var wg sync.WaitGroup
    var err1, err2 error
    wg.Add(2)
    go func() { defer wg.Done(); _, err1 = a.Accept(ctx, 101, created.ID) }()
    go func() { defer wg.Done(); _, err2 = a.Accept(ctx, 102, created.ID) }()
    wg.Wait()

    assert.NoError(t, err1, "first accepter gets no signal that it may be superseded")
    assert.NoError(t, err2, "second accepter gets no signal that it may be superseded")

    final, err := a.requests.GetByID(ctx, created.ID)
    require.NoError(t, err)
    assert.Equal(t, model.StatusAccepted, final.Status)
    require.NotNil(t, final.RecyclerID)
    assert.Contains(t, []uint64{r1.ID, r2.ID}, *final.RecyclerID)
    assert.Equal(t, store.lastAssignedRecycler(), *final.RecyclerID,
        "persisted recycler must be the last write, whichever that was")
}

func TestAcceptOverwritesPriorAccepter(t *testing.T) {
    a, _ := newTestWorkflow()
    ctx := context.Background()
    registerRecycler(t, a, 101)
    r2 := registerRecycler(t, a, 102)

    created, err := a.Create(ctx, CreateInput{
        UserID: 7, WasteType: "Cables", Quantity: strPtr("1 box"), Location: "Pune",
    })
    require.NoError(t, err)

    _, err = a.Accept(ctx, 101, created.ID)
    require.NoError(t, err)

    // Sequential re-accept by another recycler silently wins.
    final, err := a.Accept(ctx, 102, created.ID)
    require.NoError(t, err)
    assert.Equal(t, r2.ID, *final.RecyclerID)
}

func TestAcceptCompletedRequestConflicts(t *testing.T) {
    a, _ := newTestWorkflow()
    ctx := context.Background()
    registerRecycler(t, a, 101)
    registerRecycler(t, a, 102)

    created, err := a.Create(ctx, CreateInput{
        UserID: 7, WasteType: "TVs", Quantity: strPtr("1"), Location: "Pune",
    })
    require.NoError(t, err)

    _, err = a.Accept(ctx, 101, created.ID)
    require.NoError(t, err)
    _, err = a.Complete(ctx, 101, created.ID)
    require.NoError(t, err)

    _, err = a.Accept(ctx, 102, created.ID)
    assert.ErrorIs(t, err, ErrConflict)

    final, err := a.requests.GetByID(ctx, created.ID)
    require.NoError(t, err)
    assert.Equal(t, model.StatusCompleted, final.Status, "terminal state must not move backward")
}

func TestQueueComposition(t *testing.T) {
    a, _ := newTestWorkflow()
    ctx := context.Background()
    registerRecycler(t, a, 60)

    // A: formerly pending, now assigned to the caller.
    reqA, err := a.Create(ctx, CreateInput{UserID: 1, WasteType: "Phones", Quantity: strPtr("5"), Location: "Pune"})
    require.NoError(t, err)
    _, err = a.Accept(ctx, 60, reqA.ID)
    require.NoError(t, err)

    // B, C: unassigned pending.
    reqB, err := a.Create(ctx, CreateInput{UserID: 2, WasteType: "Printers", Quantity: strPtr("1"), Location: "Pune"})
    require.NoError(t, err)
    reqC, err := a.Create(ctx, CreateInput{UserID: 3, WasteType: "Routers", WeightValue: f64Ptr(2), Location: "Pune"})
    require.NoError(t, err)

    // D: accepted by a different recycler, must not appear.
    registerRecycler(t, a, 61)
    reqD, err := a.Create(ctx, CreateInput{UserID: 4, WasteType: "Servers", Quantity: strPtr("2"), Location: "Pune"})
    require.NoError(t, err)
    _, err = a.Accept(ctx, 61, reqD.ID)
    require.NoError(t, err)

    queue, err := a.Queue(ctx, 60)
    require.NoError(t, err)

    ids := make([]uint64, 0, len(queue))
    for _, r := range queue {
        ids = append(ids, r.ID)
    }
    assert.ElementsMatch(t, []uint64{reqA.ID, reqB.ID, reqC.ID}, ids)

    seen := make(map[uint64]int)
    for _, id := range ids {
        seen[id]++
    }
    for id, n := range seen {
        assert.Equal(t, 1, n, "request %d appears more than once in the queue", id)
    }
}

func TestQueueRequiresProfile(t *testing.T) {
    a, _ := newTestWorkflow()
    _, err := a.Queue(context.Background(), 42)
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistrationExclusivity(t *testing.T) {
    a, store := newTestWorkflow()
    ctx := context.Background()

    in := RegisterInput{
        UserID:       9,
        CompanyName:  "EcoBin Ltd",
        City:         "Mumbai",
        WasteTypes:   []string{"Plastic", "Electronics"},
        Availability: true,
    }
    first, err := a.RegisterRecycler(ctx, in)
    require.NoError(t, err)
    assert.NotZero(t, first.ID)

    _, err = a.RegisterRecycler(ctx, in)
    assert.ErrorIs(t, err, ErrAlreadyRegistered)
    assert.Equal(t, 1, store.profileCount(), "exactly one profile must be persisted")
}

func TestRegistrationValidation(t *testing.T) {
    a, _ := newTestWorkflow()
    ctx := context.Background()

    _, err := a.RegisterRecycler(ctx, RegisterInput{UserID: 1, City: "Pune", WasteTypes: []string{"Plastic"}})
    assert.ErrorIs(t, err, ErrValidation)

    _, err = a.RegisterRecycler(ctx, RegisterInput{UserID: 1, CompanyName: "X", WasteTypes: []string{"Plastic"}})
    assert.ErrorIs(t, err, ErrValidation)

    _, err = a.RegisterRecycler(ctx, RegisterInput{UserID: 1, CompanyName: "X", City: "Pune", WasteTypes: []string{"  "}})
    assert.ErrorIs(t, err, ErrValidation)
}

func TestCompleteOnlyByAssignee(t *testing.T) {
    a, _ := newTestWorkflow()
    ctx := context.Background()
    registerRecycler(t, a, 101)
    registerRecycler(t, a, 102)

    created, err := a.Create(ctx, CreateInput{UserID: 7, WasteType: "UPS units", Quantity: strPtr("4"), Location: "Pune"})
    require.NoError(t, err)

    // A pending request has no assignee yet, so completion is rejected.
    _, err = a.Complete(ctx, 101, created.ID)
    assert.ErrorIs(t, err, ErrForbidden)

    _, err = a.Accept(ctx, 101, created.ID)
    require.NoError(t, err)

    _, err = a.Complete(ctx, 102, created.ID)
    assert.ErrorIs(t, err, ErrForbidden)

    done, err := a.Complete(ctx, 101, created.ID)
    require.NoError(t, err)
    assert.Equal(t, model.StatusCompleted, done.Status)

    // Completed is terminal; a second complete conflicts.
    _, err = a.Complete(ctx, 101, created.ID)
    assert.ErrorIs(t, err, ErrConflict)
}

// TestStatusMonotonicity walks the full forward lifecycle and checks that
// no operation ever observes the request back in Pending Assignment.
func TestStatusMonotonicity(t *testing.T) {
    a, _ := newTestWorkflow()
    ctx := context.Background()
    registerRecycler(t, a, 101)
    registerRecycler(t, a, 102)

    created, err := a.Create(ctx, CreateInput{UserID: 7, WasteType: "Monitors", Quantity: strPtr("2"), Location: "Pune"})
    require.NoError(t, err)

    _, err = a.Accept(ctx, 101, created.ID)
    require.NoError(t, err)

    // Re-accept by another recycler changes the assignee but never the
    // status direction.
    _, err = a.Accept(ctx, 102, created.ID)
    require.NoError(t, err)
    cur, err := a.requests.GetByID(ctx, created.ID)
    require.NoError(t, err)
    assert.Equal(t, model.StatusAccepted, cur.Status)

    _, err = a.Complete(ctx, 102, created.ID)
    require.NoError(t, err)
    cur, err = a.requests.GetByID(ctx, created.ID)
    require.NoError(t, err)
    assert.Equal(t, model.StatusCompleted, cur.Status)
}

package repository

import (
    "context"
    "database/sql"

    "github.com/greenloop/ewaste-pickup/internal/model"
    "github.com/greenloop/ewaste-pickup/internal/workflow"
)

// PickupRequestRepo provides persistence for pickup requests.  It
// implements workflow.RequestStore over MySQL.  All timestamp columns
// are stored in UTC.
type PickupRequestRepo struct {
    db *sql.DB
}

// NewPickupRequestRepo returns a new PickupRequestRepo bound to the given database.
func NewPickupRequestRepo(db *sql.DB) *PickupRequestRepo { return &PickupRequestRepo{db: db} }

const requestColumns = `id, user_id, recycler_id, waste_type, quantity, weight_value, weight_unit, location, status, created_at, updated_at`

// scanRequest reads one pickup_requests row from the given scanner,
// normalizing the nullable columns.
func scanRequest(row interface{ Scan(...interface{}) error }) (*model.PickupRequest, error) {
    var (
        req         model.PickupRequest
        recyclerID  sql.NullInt64
        quantity    sql.NullString
        weightValue sql.NullFloat64
        weightUnit  sql.NullString
        status      string
    )
    err := row.Scan(&req.ID, &req.UserID, &recyclerID, &req.WasteType, &quantity,
        &weightValue, &weightUnit, &req.Location, &status, &req.CreatedAt, &req.UpdatedAt)
    if err != nil {
        return nil, err
    }
    if recyclerID.Valid {
        id := uint64(recyclerID.Int64)
        req.RecyclerID = &id
    }
    if quantity.Valid {
        q := quantity.String
        req.Quantity = &q
    }
    if weightValue.Valid {
        v := weightValue.Float64
        req.WeightValue = &v
    }
    if weightUnit.Valid {
        req.WeightUnit = weightUnit.String
    }
    req.Status = model.RequestStatus(status)
    return &req, nil
}

// Create inserts a new request and populates the generated id and the
// database-assigned timestamps on the provided record.
func (r *PickupRequestRepo) Create(ctx context.Context, req *model.PickupRequest) error {
    const q = `INSERT INTO pickup_requests
               (user_id, recycler_id, waste_type, quantity, weight_value, weight_unit, location, status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    var recyclerID interface{}
    if req.RecyclerID != nil {
        recyclerID = *req.RecyclerID
    }
    var weightUnit interface{}
    if req.WeightUnit != "" {
        weightUnit = req.WeightUnit
    }
    result, err := r.db.ExecContext(ctx, q, req.UserID, recyclerID, req.WasteType,
        req.Quantity, req.WeightValue, weightUnit, req.Location, string(req.Status))
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    req.ID = uint64(id)
    // Query back the full row to pick up created_at/updated_at defaults.
    stored, err := r.GetByID(ctx, req.ID)
    if err != nil {
        return err
    }
    *req = *stored
    return nil
}

// GetByID returns a single request or workflow.ErrNotFound.
func (r *PickupRequestRepo) GetByID(ctx context.Context, id uint64) (*model.PickupRequest, error) {
    const q = `SELECT ` + requestColumns + ` FROM pickup_requests WHERE id = ?`
    req, err := scanRequest(r.db.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return nil, workflow.ErrNotFound
    }
    return req, err
}

func (r *PickupRequestRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.PickupRequest, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.PickupRequest, 0)
    for rows.Next() {
        req, err := scanRequest(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *req)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// ListByUser returns all requests owned by the given user in storage
// order, unfiltered by status.
func (r *PickupRequestRepo) ListByUser(ctx context.Context, userID uint64) ([]model.PickupRequest, error) {
    const q = `SELECT ` + requestColumns + ` FROM pickup_requests WHERE user_id = ? ORDER BY id`
    return r.list(ctx, q, userID)
}

// ListAssigned returns all requests currently assigned to the given
// recycler profile, regardless of status.
func (r *PickupRequestRepo) ListAssigned(ctx context.Context, recyclerID uint64) ([]model.PickupRequest, error) {
    const q = `SELECT ` + requestColumns + ` FROM pickup_requests WHERE recycler_id = ? ORDER BY id`
    return r.list(ctx, q, recyclerID)
}

// ListUnassignedPending returns every request still up for grabs: status
// Pending Assignment and no recycler id set.
func (r *PickupRequestRepo) ListUnassignedPending(ctx context.Context) ([]model.PickupRequest, error) {
    const q = `SELECT ` + requestColumns + ` FROM pickup_requests
               WHERE recycler_id IS NULL AND status = ? ORDER BY id`
    return r.list(ctx, q, string(model.StatusPendingAssignment))
}

// Assign sets the recycler id and moves the request to Accepted in a
// single UPDATE.  There is deliberately no predicate on the prior
// recycler id or non-terminal status value: concurrent assigns race and
// the last write wins.  The WHERE clause only shields terminal states so
// a completed or cancelled request is never pulled back into the active
// lifecycle.
func (r *PickupRequestRepo) Assign(ctx context.Context, requestID, recyclerID uint64) error {
    const q = `UPDATE pickup_requests SET recycler_id = ?, status = ?
               WHERE id = ? AND status NOT IN (?, ?)`
    _, err := r.db.ExecContext(ctx, q, recyclerID, string(model.StatusAccepted),
        requestID, string(model.StatusCompleted), string(model.StatusCancelled))
    return err
}

// MarkCompleted moves a request to Completed.  The workflow validates
// the caller and the Accepted precondition before calling this.
func (r *PickupRequestRepo) MarkCompleted(ctx context.Context, requestID uint64) error {
    const q = `UPDATE pickup_requests SET status = ? WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, string(model.StatusCompleted), requestID)
    return err
}

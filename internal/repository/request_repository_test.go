package repository

import (
    "context"
    "testing"

    sqlmock "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/greenloop/ewaste-pickup/internal/model"
    "github.com/greenloop/ewaste-pickup/internal/workflow"
)

func TestGetRequestByIDMapsNotFound(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery(`SELECT (.+) FROM pickup_requests WHERE id = \?`).
        WithArgs(uint64(4)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))

    _, err = NewPickupRequestRepo(db).GetByID(context.Background(), 4)
    assert.ErrorIs(t, err, workflow.ErrNotFound)
    assert.NoError(t, mock.ExpectationsWereMet())
}

// The accept UPDATE carries no predicate on the prior recycler id, only
// the terminal-state shield. This test pins the statement shape so the
// last-write-wins contract cannot silently gain a CAS.
func TestAssignShieldsOnlyTerminalStates(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectExec(`UPDATE pickup_requests SET recycler_id = \?, status = \?\s+WHERE id = \? AND status NOT IN \(\?, \?\)`).
        WithArgs(uint64(3), string(model.StatusAccepted), uint64(11),
            string(model.StatusCompleted), string(model.StatusCancelled)).
        WillReturnResult(sqlmock.NewResult(0, 1))

    err = NewPickupRequestRepo(db).Assign(context.Background(), 11, 3)
    assert.NoError(t, err)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUnassignedPendingQuery(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    rows := sqlmock.NewRows([]string{
        "id", "user_id", "recycler_id", "waste_type", "quantity", "weight_value",
        "weight_unit", "location", "status", "created_at", "updated_at",
    })
    mock.ExpectQuery(`WHERE recycler_id IS NULL AND status = \? ORDER BY id`).
        WithArgs(string(model.StatusPendingAssignment)).
        WillReturnRows(rows)

    out, err := NewPickupRequestRepo(db).ListUnassignedPending(context.Background())
    require.NoError(t, err)
    assert.Empty(t, out)
    assert.NoError(t, mock.ExpectationsWereMet())
}

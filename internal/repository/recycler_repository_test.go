package repository

import (
    "context"
    "testing"
    "time"

    sqlmock "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/greenloop/ewaste-pickup/internal/model"
    "github.com/greenloop/ewaste-pickup/internal/workflow"
)

var profileRows = []string{
    "id", "user_id", "company_name", "city", "address", "latitude", "longitude",
    "waste_types", "pickup_radius_km", "availability", "verified", "certifications",
    "created_at", "updated_at",
}

func TestGetByUserIDMapsNotFound(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery(`SELECT (.+) FROM recycler_profiles WHERE user_id = \? LIMIT 1`).
        WithArgs(uint64(7)).
        WillReturnRows(sqlmock.NewRows(profileRows))

    _, err = NewRecyclerProfileRepo(db).GetByUserID(context.Background(), 7)
    assert.ErrorIs(t, err, workflow.ErrNotFound)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryFiltersByExactCity(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    now := time.Now().UTC()
    cols := append(append([]string{}, profileRows...), "username", "email")
    rows := sqlmock.NewRows(cols).
        AddRow(1, 9, "GreenLoop Recycling", "Pune", "12 Industrial Estate", nil, nil,
            "Batteries,Monitors", 15.0, true, false, "", now, now, "asha", "asha@example.com")

    // The filter is a plain equality predicate; "pune" or "Pune East" must
    // be sent to the database verbatim, never expanded.
    mock.ExpectQuery(`WHERE p\.city = \? ORDER BY p\.id`).
        WithArgs("Pune").
        WillReturnRows(rows)

    entries, err := NewRecyclerProfileRepo(db).ListByCity(context.Background(), "Pune")
    require.NoError(t, err)
    require.Len(t, entries, 1)
    assert.Equal(t, "GreenLoop Recycling", entries[0].CompanyName)
    assert.Equal(t, []string{"Batteries", "Monitors"}, entries[0].WasteTypes)
    assert.Equal(t, "asha", entries[0].Username)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryWithoutCityListsAll(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    cols := append(append([]string{}, profileRows...), "username", "email")
    mock.ExpectQuery(`JOIN users u ON u\.id = p\.user_id ORDER BY p\.id`).
        WillReturnRows(sqlmock.NewRows(cols))

    entries, err := NewRecyclerProfileRepo(db).ListByCity(context.Background(), "")
    require.NoError(t, err)
    assert.Empty(t, entries)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterRollsBackWhenPromotionFails(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectExec(`INSERT INTO recycler_profiles`).
        WillReturnResult(sqlmock.NewResult(5, 1))
    mock.ExpectExec(`UPDATE users SET role = \? WHERE id = \?`).
        WithArgs(model.RoleRecycler, uint64(9)).
        WillReturnError(assert.AnError)
    mock.ExpectRollback()

    err = NewRecyclerProfileRepo(db).Register(context.Background(), &model.RecyclerProfile{
        UserID:      9,
        CompanyName: "EcoBin Ltd",
        City:        "Mumbai",
        WasteTypes:  []string{"Plastic"},
    })
    assert.Error(t, err)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateMapsAlreadyRegistered(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectExec(`INSERT INTO recycler_profiles`).
        WillReturnError(errDup1062{})
    mock.ExpectRollback()

    err = NewRecyclerProfileRepo(db).Register(context.Background(), &model.RecyclerProfile{
        UserID:      9,
        CompanyName: "EcoBin Ltd",
        City:        "Mumbai",
        WasteTypes:  []string{"Plastic"},
    })
    assert.ErrorIs(t, err, workflow.ErrAlreadyRegistered)
    assert.NoError(t, mock.ExpectationsWereMet())
}

type errDup1062 struct{}

func (errDup1062) Error() string {
    return "Error 1062 (23000): Duplicate entry '9' for key 'recycler_profiles.user_id'"
}

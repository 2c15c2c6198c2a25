package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/greenloop/ewaste-pickup/internal/model"
    "github.com/greenloop/ewaste-pickup/internal/workflow"
)

// RecyclerProfileRepo provides persistence for recycler profiles and the
// public directory lookup.  It implements workflow.ProfileStore over
// MySQL.  Accepted waste types are stored as a comma-joined list in a
// single column.
type RecyclerProfileRepo struct {
    db *sql.DB
}

// NewRecyclerProfileRepo returns a new RecyclerProfileRepo bound to the given database.
func NewRecyclerProfileRepo(db *sql.DB) *RecyclerProfileRepo { return &RecyclerProfileRepo{db: db} }

const profileColumns = `id, user_id, company_name, city, address, latitude, longitude,
                        waste_types, pickup_radius_km, availability, verified, certifications,
                        created_at, updated_at`

func joinWasteTypes(types []string) string { return strings.Join(types, ",") }

func splitWasteTypes(s string) []string {
    if s == "" {
        return []string{}
    }
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

func scanProfile(row interface{ Scan(...interface{}) error }) (*model.RecyclerProfile, error) {
    var (
        p        model.RecyclerProfile
        lat, lng sql.NullFloat64
        types    string
        certs    sql.NullString
    )
    err := row.Scan(&p.ID, &p.UserID, &p.CompanyName, &p.City, &p.Address, &lat, &lng,
        &types, &p.PickupRadiusKm, &p.Availability, &p.Verified, &certs,
        &p.CreatedAt, &p.UpdatedAt)
    if err != nil {
        return nil, err
    }
    if lat.Valid {
        v := lat.Float64
        p.Latitude = &v
    }
    if lng.Valid {
        v := lng.Float64
        p.Longitude = &v
    }
    p.WasteTypes = splitWasteTypes(types)
    if certs.Valid {
        p.Certifications = certs.String
    }
    return &p, nil
}

// GetByUserID returns the profile owned by the given account, or
// workflow.ErrNotFound when the account has not registered one.
func (r *RecyclerProfileRepo) GetByUserID(ctx context.Context, userID uint64) (*model.RecyclerProfile, error) {
    const q = `SELECT ` + profileColumns + ` FROM recycler_profiles WHERE user_id = ? LIMIT 1`
    p, err := scanProfile(r.db.QueryRowContext(ctx, q, userID))
    if err == sql.ErrNoRows {
        return nil, workflow.ErrNotFound
    }
    return p, err
}

// Register inserts the profile and promotes the owning account's role to
// recycler inside one transaction, so a failed promotion cannot leave an
// orphaned profile behind.  The unique key on user_id turns a duplicate
// registration into workflow.ErrAlreadyRegistered.
func (r *RecyclerProfileRepo) Register(ctx context.Context, profile *model.RecyclerProfile) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    const ins = `INSERT INTO recycler_profiles
                 (user_id, company_name, city, address, latitude, longitude,
                  waste_types, pickup_radius_km, availability, verified, certifications)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    var lat, lng interface{}
    if profile.Latitude != nil {
        lat = *profile.Latitude
    }
    if profile.Longitude != nil {
        lng = *profile.Longitude
    }
    result, err := tx.ExecContext(ctx, ins, profile.UserID, profile.CompanyName, profile.City,
        profile.Address, lat, lng, joinWasteTypes(profile.WasteTypes), profile.PickupRadiusKm,
        profile.Availability, profile.Verified, profile.Certifications)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return workflow.ErrAlreadyRegistered
        }
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    profile.ID = uint64(id)

    if _, err := tx.ExecContext(ctx,
        `UPDATE users SET role = ? WHERE id = ?`, model.RoleRecycler, profile.UserID); err != nil {
        return err
    }

    const sel = `SELECT created_at, updated_at FROM recycler_profiles WHERE id = ?`
    if err := tx.QueryRowContext(ctx, sel, profile.ID).Scan(&profile.CreatedAt, &profile.UpdatedAt); err != nil {
        return err
    }

    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// ServiceUpdate carries the mutable service fields for UpdateServices.
// Nil pointers leave the stored value untouched.
type ServiceUpdate struct {
    CompanyName    *string
    City           *string
    Address        *string
    WasteTypes     []string
    PickupRadiusKm *float64
    Availability   *bool
    Certifications *string
}

// UpdateServices mutates the caller's profile in place and returns the
// stored record.  workflow.ErrNotFound is returned when the account owns
// no profile.
func (r *RecyclerProfileRepo) UpdateServices(ctx context.Context, userID uint64, upd ServiceUpdate) (*model.RecyclerProfile, error) {
    sets := make([]string, 0, 7)
    args := make([]interface{}, 0, 8)
    if upd.CompanyName != nil {
        sets = append(sets, "company_name = ?")
        args = append(args, *upd.CompanyName)
    }
    if upd.City != nil {
        sets = append(sets, "city = ?")
        args = append(args, *upd.City)
    }
    if upd.Address != nil {
        sets = append(sets, "address = ?")
        args = append(args, *upd.Address)
    }
    if upd.WasteTypes != nil {
        sets = append(sets, "waste_types = ?")
        args = append(args, joinWasteTypes(upd.WasteTypes))
    }
    if upd.PickupRadiusKm != nil {
        sets = append(sets, "pickup_radius_km = ?")
        args = append(args, *upd.PickupRadiusKm)
    }
    if upd.Availability != nil {
        sets = append(sets, "availability = ?")
        args = append(args, *upd.Availability)
    }
    if upd.Certifications != nil {
        sets = append(sets, "certifications = ?")
        args = append(args, *upd.Certifications)
    }
    if len(sets) > 0 {
        query := "UPDATE recycler_profiles SET " + strings.Join(sets, ", ") + " WHERE user_id = ?"
        args = append(args, userID)
        if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
            return nil, err
        }
    }
    return r.GetByUserID(ctx, userID)
}

// DirectoryEntry is a profile enriched with the owning account's public
// fields, as returned by the directory lookup.
type DirectoryEntry struct {
    model.RecyclerProfile
    Username string `json:"username"`
    Email    string `json:"email"`
}

// ListByCity answers the directory lookup: all profiles whose city
// exactly matches the given value, or every profile when city is empty.
// No ranking and no distance filtering; the stored coordinates and
// pickup radius are informational only.
func (r *RecyclerProfileRepo) ListByCity(ctx context.Context, city string) ([]DirectoryEntry, error) {
    query := `SELECT p.id, p.user_id, p.company_name, p.city, p.address, p.latitude, p.longitude,
                     p.waste_types, p.pickup_radius_km, p.availability, p.verified, p.certifications,
                     p.created_at, p.updated_at,
                     u.username, u.email
              FROM recycler_profiles p
              JOIN users u ON u.id = p.user_id`
    args := []interface{}{}
    if city != "" {
        query += " WHERE p.city = ?"
        args = append(args, city)
    }
    query += " ORDER BY p.id"
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]DirectoryEntry, 0)
    for rows.Next() {
        var (
            e        DirectoryEntry
            lat, lng sql.NullFloat64
            types    string
            certs    sql.NullString
        )
        if err := rows.Scan(&e.ID, &e.UserID, &e.CompanyName, &e.City, &e.Address, &lat, &lng,
            &types, &e.PickupRadiusKm, &e.Availability, &e.Verified, &certs,
            &e.CreatedAt, &e.UpdatedAt, &e.Username, &e.Email); err != nil {
            return nil, err
        }
        if lat.Valid {
            v := lat.Float64
            e.Latitude = &v
        }
        if lng.Valid {
            v := lng.Float64
            e.Longitude = &v
        }
        e.WasteTypes = splitWasteTypes(types)
        if certs.Valid {
            e.Certifications = certs.String
        }
        out = append(out, e)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

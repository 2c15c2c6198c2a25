package model

import "time"

// RecyclerProfile models a row of the `recycler_profiles` table.  A
// profile declares a recycling company's service area and capabilities
// and is linked 1:1 to its owning account.  Latitude, longitude and
// PickupRadiusKm are informational only; the directory lookup filters by
// exact city match and performs no distance computation.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – owning account (unique, one profile per account).
//  CompanyName    – registered company name.
//  City           – service city used by the directory lookup.
//  Address        – street address.
//  Latitude       – stored coordinate, not queried.
//  Longitude      – stored coordinate, not queried.
//  WasteTypes     – accepted waste categories.
//  PickupRadiusKm – advertised pickup radius, not enforced.
//  Availability   – whether the company currently takes pickups.
//  Verified       – set by admins after document review.
//  Certifications – free-text certifications / description.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type RecyclerProfile struct {
    ID             uint64    `json:"id"`
    UserID         uint64    `json:"user_id"`
    CompanyName    string    `json:"company_name"`
    City           string    `json:"city"`
    Address        string    `json:"address"`
    Latitude       *float64  `json:"latitude"`
    Longitude      *float64  `json:"longitude"`
    WasteTypes     []string  `json:"accepted_waste_types"`
    PickupRadiusKm float64   `json:"pickup_radius_km"`
    Availability   bool      `json:"availability"`
    Verified       bool      `json:"verified"`
    Certifications string    `json:"certifications,omitempty"`
    CreatedAt      time.Time `json:"created_at"`
    UpdatedAt      time.Time `json:"updated_at"`
}

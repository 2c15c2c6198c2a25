package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"
    "crypto/sha256"
    "encoding/hex"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed HS256 JWT plus its expiry.  Access tokens are
// short-lived and sent in the Authorization header.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// OpaqueToken is a long-lived random token (refresh or password reset).
// The raw string goes back to the client; only its SHA-256 hash is
// stored, so a leaked database cannot be used to mint sessions.
type OpaqueToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT carrying the account id
// as subject and the role claim, valid for ttlMin minutes.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": role,
        "exp":  exp.Unix(),
        "iat":  time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken returns a random refresh token valid for ttlDays days.
func NewRefreshToken(ttlDays int) (OpaqueToken, error) {
    return newOpaqueToken(time.Duration(ttlDays) * 24 * time.Hour)
}

// NewResetToken returns a random password reset token valid for one hour.
func NewResetToken() (OpaqueToken, error) {
    return newOpaqueToken(time.Hour)
}

func newOpaqueToken(ttl time.Duration) (OpaqueToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return OpaqueToken{}, err
    }
    return OpaqueToken{Raw: raw, Exp: time.Now().UTC().Add(ttl)}, nil
}

// HashTokenRaw returns the SHA-256 hash of a raw opaque token as a hex
// string, the form in which refresh and reset tokens are persisted.
func HashTokenRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}

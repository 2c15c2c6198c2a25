package handler

import (
    "context"
    "database/sql"
    "errors"
    "net/http"
    "regexp"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/greenloop/ewaste-pickup/internal/config"
    "github.com/greenloop/ewaste-pickup/internal/model"
    "github.com/greenloop/ewaste-pickup/internal/repository"
    "github.com/greenloop/ewaste-pickup/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg      config.Config
    Users    *repository.UserRepo
    Tokens   *repository.TokenRepo
    Profiles *repository.RecyclerProfileRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, p *repository.RecyclerProfileRepo) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Profiles: p}
}

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// ----- DTOs -----

type registerReq struct {
    Username string `json:"username"`
    Email    string `json:"email"`
    Password string `json:"password"`
    Role     string `json:"role"` // user | recycler
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}
type forgotReq struct {
    Email string `json:"email"`
}
type resetReq struct {
    Token       string `json:"token"`
    NewPassword string `json:"new_password"`
}
type updateMeReq struct {
    Username        *string `json:"username"`
    Email           *string `json:"email"`
    CurrentPassword string  `json:"current_password"`
    NewPassword     string  `json:"new_password"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID       uint64 `json:"id"`
    Username string `json:"username"`
    Email    string `json:"email"`
    Role     string `json:"role"`
}
type authResp struct {
    User                 userPart  `json:"user"`
    Access               tokenPart `json:"access"`
    Refresh              tokenPart `json:"refresh"`
    IsRecyclerRegistered bool      `json:"is_recycler_registered"`
}

// isRegistered reports whether a recycler account already owns a
// profile.  Non-recycler roles are always false.
func (h *AuthHandler) isRegistered(ctx context.Context, u model.User) bool {
    if u.Role != model.RoleRecycler {
        return false
    }
    _, err := h.Profiles.GetByUserID(ctx, u.ID)
    return err == nil
}

func (h *AuthHandler) issuePair(ctx context.Context, u model.User) (tokenPart, tokenPart, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return tokenPart{}, tokenPart{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return tokenPart{}, tokenPart{}, err
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashTokenRaw(refresh.Raw), refresh.Exp); err != nil {
        return tokenPart{}, tokenPart{}, err
    }
    return tokenPart{Token: access.Token, Expires: access.Exp},
        tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, nil
}

// Register: create an account and return tokens immediately.  Accounts
// default to the user role; "recycler" may be requested up front, but
// the recycler profile itself is registered separately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Username = strings.TrimSpace(req.Username)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Username == "" || req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
    }
    if !emailRe.MatchString(req.Email) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email format"})
    }
    if len(req.Password) < utils.MinPasswordLen {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
    }
    role := strings.ToLower(strings.TrimSpace(req.Role))
    if role != model.RoleRecycler {
        role = model.RoleUser
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, role, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrAccountExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "username or email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
    }

    u := model.User{ID: uid, Username: req.Username, Email: req.Email, Role: role}
    access, refresh, err := h.issuePair(ctx, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusCreated, authResp{
        User:    userPart{ID: uid, Username: req.Username, Email: req.Email, Role: role},
        Access:  access,
        Refresh: refresh,
    })
}

// Login: verify credentials and return a fresh token pair.  The
// response also tells recycler clients whether their profile exists so
// the dashboard can route to registration.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    access, refresh, err := h.issuePair(ctx, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, authResp{
        User:                 userPart{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role},
        Access:               access,
        Refresh:              refresh,
        IsRecyclerRegistered: h.isRegistered(ctx, u),
    })
}

// Refresh: validate by hash, revoke the old token, issue a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashTokenRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    _ = h.Tokens.RevokeByHash(ctx, hash)

    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
    }
    access, refresh, err := h.issuePair(ctx, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, authResp{
        User:                 userPart{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role},
        Access:               access,
        Refresh:              refresh,
        IsRecyclerRegistered: h.isRegistered(ctx, u),
    })
}

// Logout: revoke the presented refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashTokenRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated account plus the recycler registration
// flag consumed by the dashboard.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "user":                   userPart{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role},
        "is_recycler_registered": h.isRegistered(ctx, u),
    })
}

// UpdateMe mutates username/email and optionally rotates the password
// after verifying the current one.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req updateMeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    if req.Email != nil && !emailRe.MatchString(strings.ToLower(strings.TrimSpace(*req.Email))) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email format"})
    }

    var newHash *string
    if req.NewPassword != "" {
        if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "current password is incorrect"})
        }
        if len(req.NewPassword) < utils.MinPasswordLen {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
        }
        hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
        }
        newHash = &hash
    }

    if err := h.Users.UpdateProfile(ctx, uid, req.Username, req.Email, newHash); err != nil {
        if errors.Is(err, repository.ErrAccountExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "username or email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }

    u, err = h.Users.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "user": userPart{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role},
    })
}

// ForgotPassword issues a reset token for the account.  The response is
// identical whether or not the email exists, so the endpoint cannot be
// used to probe for accounts.  The raw token is only included in dev.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
    var req forgotReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    const neutral = "if this email exists, a reset link has been sent"
    u, err := h.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusOK, echo.Map{"message": neutral})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    reset, err := utils.NewResetToken()
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue reset token failed"})
    }
    if err := h.Users.SetResetToken(ctx, u.ID, utils.HashTokenRaw(reset.Raw), reset.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save reset token failed"})
    }

    resp := echo.Map{"message": neutral}
    if h.Cfg.Env == "dev" {
        // TODO: wire an email sender; until then dev builds return the token.
        resp["reset_token"] = reset.Raw
    }
    return c.JSON(http.StatusOK, resp)
}

// ResetPassword consumes a reset token and replaces the password,
// revoking every active session.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
    var req resetReq
    if err := c.Bind(&req); err != nil || req.Token == "" || req.NewPassword == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and new_password required"})
    }
    if len(req.NewPassword) < utils.MinPasswordLen {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByResetToken(ctx, utils.HashTokenRaw(strings.TrimSpace(req.Token)))
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
    }
    if err := h.Users.ResetPassword(ctx, u.ID, hash); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
    }
    _ = h.Tokens.RevokeAllForUser(ctx, u.ID)

    return c.JSON(http.StatusOK, echo.Map{"message": "password has been reset"})
}

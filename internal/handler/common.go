package handler // handler defines http handlers

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/greenloop/ewaste-pickup/internal/workflow"
)

// getUserID extracts the user_id stored by the JWT middleware and
// converts it to uint64.  Claims decode numbers as float64, so several
// representations are tolerated.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// workflowError translates a workflow sentinel error into the matching
// JSON response.  Unknown errors become a 500 with the given fallback
// message.
func workflowError(c echo.Context, err error, fallback string) error {
    switch {
    case errors.Is(err, workflow.ErrValidation):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, workflow.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    case errors.Is(err, workflow.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    case errors.Is(err, workflow.ErrAlreadyRegistered):
        return c.JSON(http.StatusConflict, echo.Map{"error": "recycler already registered"})
    case errors.Is(err, workflow.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}

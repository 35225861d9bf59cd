package middleware

// identity.go defines helpers shared across middleware and handlers for
// reading the authenticated customer out of the request context.

import "github.com/labstack/echo/v4"

// CustomerID extracts the authenticated customer identifier stored by
// JWTAuth.  It returns an empty string when no customer is authenticated,
// in which case handlers should respond with 401.
func CustomerID(c echo.Context) string {
    if v := c.Get("customer_id"); v != nil {
        if s, ok := v.(string); ok {
            return s
        }
    }
    return ""
}

package http

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// QueryLimit reads the "limit" query parameter, falling back to def and capping at max.
func QueryLimit(c echo.Context, def, max int) (int, *AppError) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, BadRequestErrorf("limit must be a positive integer, got %q", raw).WithParam("limit", raw)
	}
	if max > 0 && n > max {
		n = max
	}
	return n, nil
}

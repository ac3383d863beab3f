// Package handler holds the pieces shared by all HTTP handler packages:
// request parsing, validation and pagination.
package handler

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Body parses the JSON request body into dst and validates it. The
// returned error is a fiber 400 ready to bubble up.
func Body(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return nil
}

// UintParam reads a positive integer path parameter.
func UintParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)

	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}

	return uint(v), nil
}

// UintQuery reads an optional positive integer query parameter. A
// missing parameter yields nil.
func UintQuery(c *fiber.Ctx, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}

	u := uint(v)

	return &u, nil
}

// Page is the pagination window read from the query string.
type Page struct {
	Offset int
	Limit  int
}

// Paginate reads page and pageSize query parameters with sane bounds.
func Paginate(c *fiber.Ctx) Page {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	size := c.QueryInt("pageSize", 20)
	if size < 1 || size > 100 {
		size = 20
	}

	return Page{Offset: (page - 1) * size, Limit: size}
}

package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// jsonFieldName converts a Go struct field name to its snake_case JSON
// form for error messages (DiscountType -> discount_type).
func jsonFieldName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	// Collapse runs produced by acronyms (PDFLimit -> p_d_f_limit is wrong,
	// but no DTO field currently starts with an acronym; ID suffixes read
	// fine as i_d would not, so special-case them).
	return strings.ReplaceAll(b.String(), "i_d", "id")
}

// formatValidationError converts validator errors into a single
// user-facing message for the first failed field.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := jsonFieldName(fe.Field())
			switch fe.Tag() {
			case "required":
				return "invalid request: " + field + " is required"
			case "notblank":
				return "invalid request: " + field + " cannot be blank"
			case "max":
				return "invalid request: " + field + " exceeds maximum length"
			case "gte":
				return "invalid request: " + field + " is too small"
			case "oneof":
				return "invalid request: " + field + " must be one of [" + fe.Param() + "]"
			case "email":
				return "invalid request: " + field + " is not a valid email address"
			case "couponcode":
				return "invalid request: " + field + " must be 3-64 letters, digits, hyphens or underscores"
			default:
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// parsePagination reads page/per_page query parameters with sane bounds.
func parsePagination(c *fiber.Ctx) (page, perPage int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage = c.QueryInt("per_page", defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

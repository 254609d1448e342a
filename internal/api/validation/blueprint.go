package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// MaxIdentifierLength is the longest author or blueprint name the store accepts.
const MaxIdentifierLength = 120

// PointInput mirrors a point in a request body. Nil coordinates were absent or null.
type PointInput struct {
	X *int
	Y *int
}

// CreateBlueprintRequest mirrors the fields needed for create blueprint validation.
// Points is nil when the field was absent or null.
type CreateBlueprintRequest struct {
	Author string
	Name   string
	Points []PointInput
}

// ValidateCreateBlueprintRequest validates the fields of a create blueprint request.
// Returns a slice of field errors; empty slice means valid.
func ValidateCreateBlueprintRequest(req CreateBlueprintRequest) []FieldError {
	var errs []FieldError

	errs = append(errs, validateIdentifier("author", req.Author)...)
	errs = append(errs, validateIdentifier("name", req.Name)...)

	if req.Points == nil {
		errs = append(errs, FieldError{Field: "points", Message: "points is required"})
	}
	for i, p := range req.Points {
		errs = append(errs, validatePoint(fmt.Sprintf("points[%d].", i), p)...)
	}

	return errs
}

// ValidatePointRequest validates the body of an append point request.
func ValidatePointRequest(p PointInput) []FieldError {
	return validatePoint("", p)
}

func validateIdentifier(field, value string) []FieldError {
	if strings.TrimSpace(value) == "" {
		return []FieldError{{Field: field, Message: field + " is required"}}
	}
	if utf8.RuneCountInString(value) > MaxIdentifierLength {
		return []FieldError{{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, MaxIdentifierLength)}}
	}
	if strings.Contains(value, "/") {
		return []FieldError{{Field: field, Message: field + " must not contain '/'"}}
	}
	return nil
}

func validatePoint(prefix string, p PointInput) []FieldError {
	var errs []FieldError
	errs = append(errs, validateCoordinate(prefix, "x", p.X)...)
	errs = append(errs, validateCoordinate(prefix, "y", p.Y)...)
	return errs
}

// validateCoordinate requires a value that fits the store's 32-bit INT column.
func validateCoordinate(prefix, field string, v *int) []FieldError {
	if v == nil {
		return []FieldError{{Field: prefix + field, Message: field + " is required"}}
	}
	if *v < math.MinInt32 || *v > math.MaxInt32 {
		return []FieldError{{Field: prefix + field, Message: field + " must be a 32-bit integer"}}
	}
	return nil
}

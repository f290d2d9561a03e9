package httpx

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"storefront/internal/domain"
	apperrors "storefront/internal/errors"
	"storefront/internal/validation"
)

// ListOptions reads page, limit, sortBy and sortOrder from q. sortBy must be
// one of sortFields.
func ListOptions(q url.Values, sortFields []string) (domain.ListOptions, error) {
	opts := domain.DefaultListOptions()
	var details []apperrors.ValidationDetail

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			details = append(details, apperrors.ValidationDetail{Field: "page", Message: "page must be an integer of at least 1"})
		} else {
			opts.Page = page
		}
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > domain.MaxLimit {
			details = append(details, apperrors.ValidationDetail{
				Field:   "limit",
				Message: fmt.Sprintf("limit must be an integer between 1 and %d", domain.MaxLimit),
			})
		} else {
			opts.Limit = limit
		}
	}

	if raw := q.Get("sortBy"); raw != "" {
		if !slices.Contains(sortFields, raw) {
			details = append(details, apperrors.ValidationDetail{
				Field:   "sortBy",
				Message: "sortBy must be one of: " + strings.Join(sortFields, ", "),
			})
		} else {
			opts.SortBy = raw
		}
	}

	if raw := q.Get("sortOrder"); raw != "" {
		if raw != "asc" && raw != "desc" {
			details = append(details, apperrors.ValidationDetail{Field: "sortOrder", Message: "sortOrder must be one of: asc, desc"})
		} else {
			opts.SortOrder = raw
		}
	}

	if len(details) > 0 {
		return opts, apperrors.NewValidationError(validation.InvalidQueryMessage, details...)
	}
	return opts, nil
}

// Enum returns the value of key when it is empty or one of allowed.
func Enum[T ~string](q url.Values, key string, allowed []T) (T, error) {
	raw := T(q.Get(key))
	if raw == "" || slices.Contains(allowed, raw) {
		return raw, nil
	}

	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", apperrors.NewValidationError(validation.InvalidQueryMessage, apperrors.ValidationDetail{
		Field:   key,
		Message: fmt.Sprintf("%s must be one of: %s", key, strings.Join(names, ", ")),
	})
}

// Bool parses an optional boolean query parameter.
func Bool(q url.Values, key string) (*bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.NewValidationError(validation.InvalidQueryMessage, apperrors.ValidationDetail{
			Field:   key,
			Message: key + " must be true or false",
		})
	}
	return &v, nil
}

func NewPagination[T any](p *domain.Page[T]) Pagination {
	return Pagination{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}

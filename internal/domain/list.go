package domain

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type ListOptions struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

func DefaultListOptions() ListOptions {
	return ListOptions{
		Page:      DefaultPage,
		Limit:     DefaultLimit,
		SortBy:    "createdAt",
		SortOrder: "desc",
	}
}

func (o ListOptions) Skip() int64 {
	return int64(o.Page-1) * int64(o.Limit)
}

type Page[T any] struct {
	Items      []T
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

func NewPage[T any](items []T, total int64, opts ListOptions) *Page[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if opts.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(opts.Limit)))
	}

	return &Page[T]{
		Items:      items,
		Total:      total,
		Page:       opts.Page,
		Limit:      opts.Limit,
		TotalPages: totalPages,
	}
}

package models

import (
	"math"
	"time"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPageNumber keeps the row offset inside a 32-bit OFFSET.
	MaxPageNumber = math.MaxInt32 / MaxPageSize
)

// AlertFilter narrows an alert listing. Nil fields are not applied.
type AlertFilter struct {
	Status     *AlertStatus
	From       *time.Time
	To         *time.Time
	PageNumber int
	PageSize   int
}

// Normalize clamps paging to sane values.
func (f AlertFilter) Normalize() AlertFilter {
	if f.PageNumber < 1 {
		f.PageNumber = 1
	}
	if f.PageNumber > MaxPageNumber {
		f.PageNumber = MaxPageNumber
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

func (f AlertFilter) Offset() int {
	return (f.PageNumber - 1) * f.PageSize
}

// Page is one slice of a larger result set.
type Page[T any] struct {
	Data            []T  `json:"data"`
	TotalCount      int  `json:"totalCount"`
	PageNumber      int  `json:"pageNumber"`
	PageSize        int  `json:"pageSize"`
	TotalPages      int  `json:"totalPages"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	HasNextPage     bool `json:"hasNextPage"`
}

func NewPage[T any](data []T, totalCount, pageNumber, pageSize int) Page[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalCount + pageSize - 1) / pageSize
	}
	return Page[T]{
		Data:            data,
		TotalCount:      totalCount,
		PageNumber:      pageNumber,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		HasPreviousPage: pageNumber > 1,
		HasNextPage:     pageNumber < totalPages,
	}
}

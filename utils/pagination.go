package utils

import (
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is a 1-based page number and a page size.
type PageRequest struct {
	Page     int
	PageSize int
}

// ParsePageRequest reads ?page and ?page_size. Garbage falls back to page 1 and the
// default size; sizes above maxSize are capped.
func ParsePageRequest(pageParam, sizeParam string, defaultSize, maxSize int) PageRequest {
	page, err := strconv.Atoi(pageParam)
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(sizeParam)
	if err != nil || size < 1 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}

	return PageRequest{Page: page, PageSize: size}
}

// TotalPages never reports fewer than one page, an empty result is still page 1.
func (r PageRequest) TotalPages(count int64) int {
	if count <= 0 {
		return 1
	}
	return int((count + int64(r.PageSize) - 1) / int64(r.PageSize))
}

// Normalize sends a request for a page past the end back to page 1.
func (r PageRequest) Normalize(count int64) PageRequest {
	if r.Page > r.TotalPages(count) {
		r.Page = 1
	}
	return r
}

func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// Scope applies LIMIT/OFFSET to a gorm query.
func (r PageRequest) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(r.Offset()).Limit(r.PageSize)
	}
}

// Page is the paginated response envelope.
type Page[T any] struct {
	Count      int64   `json:"count"`
	Next       *string `json:"next"`
	Previous   *string `json:"previous"`
	Results    []T     `json:"results"`
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
	PageSize   int     `json:"page_size"`
}

func NewPage[T any](req PageRequest, count int64, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}

	totalPages := req.TotalPages(count)
	page := Page[T]{
		Count:      count,
		Results:    results,
		Page:       req.Page,
		TotalPages: totalPages,
		PageSize:   req.PageSize,
	}

	if req.Page < totalPages {
		next := fmt.Sprintf("?page=%d", req.Page+1)
		page.Next = &next
	}
	if req.Page > 1 {
		prev := fmt.Sprintf("?page=%d", req.Page-1)
		page.Previous = &prev
	}

	return page
}

// MapPage converts the results of a page, keeping the metadata.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Results))
	for _, item := range p.Results {
		out = append(out, fn(item))
	}
	return Page[U]{
		Count:      p.Count,
		Next:       p.Next,
		Previous:   p.Previous,
		Results:    out,
		Page:       p.Page,
		TotalPages: p.TotalPages,
		PageSize:   p.PageSize,
	}
}

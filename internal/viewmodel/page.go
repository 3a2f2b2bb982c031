package viewmodel

import (
	"errors"
	"fmt"

	"github.com/patric-chuzhbe/linkkeeper/internal/models"
)

// DefaultPageSize is used when no page size is requested.
const DefaultPageSize = 10

// PageSizes are the only page sizes offered.
var PageSizes = []int{10, 20, 50, 100}

// ErrInvalidQuery reports an unusable sort or pagination parameter.
var ErrInvalidQuery = errors.New("invalid list query")

// Page is one slice of a result set.
type Page struct {
	Items    []models.Link `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Pages    int           `json:"pages"`
}

// NormalizePageSize maps 0 to DefaultPageSize and rejects sizes that are
// not offered.
func NormalizePageSize(size int) (int, error) {
	if size == 0 {
		return DefaultPageSize, nil
	}
	for _, allowed := range PageSizes {
		if size == allowed {
			return size, nil
		}
	}

	return 0, fmt.Errorf("%w: page size %d, allowed %v", ErrInvalidQuery, size, PageSizes)
}

// Paginate cuts the page-th page (1-based) of size items out of links.
// Pages below 1 are treated as the first one; pages past the end are empty.
func Paginate(links []models.Link, page, size int) (Page, error) {
	size, err := NormalizePageSize(size)
	if err != nil {
		return Page{}, err
	}
	if page < 1 {
		page = 1
	}

	total := len(links)
	result := Page{
		Items:    []models.Link{},
		Total:    total,
		Page:     page,
		PageSize: size,
		Pages:    (total + size - 1) / size,
	}

	start := (page - 1) * size
	if start >= total {
		return result, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	result.Items = append(result.Items, links[start:end]...)

	return result, nil
}

package viewmodel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/patric-chuzhbe/linkkeeper/internal/models"
)

type SortField string

const (
	SortNone         SortField = ""
	SortByTitle      SortField = "title"
	SortByCreateDate SortField = "createDate"
)

type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ParseSortField accepts "", "title" and "createDate".
func ParseSortField(value string) (SortField, error) {
	switch SortField(value) {
	case SortNone, SortByTitle, SortByCreateDate:
		return SortField(value), nil
	}

	return SortNone, fmt.Errorf("%w: unknown sort field %q", ErrInvalidQuery, value)
}

// ParseSortOrder accepts "", "asc" and "desc"; "" means ascending.
func ParseSortOrder(value string) (SortOrder, error) {
	switch SortOrder(value) {
	case "":
		return Ascending, nil
	case Ascending, Descending:
		return SortOrder(value), nil
	}

	return Ascending, fmt.Errorf("%w: unknown sort order %q", ErrInvalidQuery, value)
}

// Sort returns a sorted copy of links. Ties are broken by id so the result
// does not depend on the server order. SortNone keeps the server order.
func Sort(links []models.Link, field SortField, order SortOrder) []models.Link {
	sorted := append([]models.Link{}, links...)

	var less func(a, b models.Link) bool
	switch field {
	case SortByTitle:
		less = func(a, b models.Link) bool {
			ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if ta != tb {
				return ta < tb
			}
			return a.ID < b.ID
		}
	case SortByCreateDate:
		less = func(a, b models.Link) bool {
			if !a.CreateDate.Equal(b.CreateDate.Time) {
				return a.CreateDate.Before(b.CreateDate.Time)
			}
			return a.ID < b.ID
		}
	default:
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if order == Descending {
			return less(sorted[j], sorted[i])
		}
		return less(sorted[i], sorted[j])
	})

	return sorted
}

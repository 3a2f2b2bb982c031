// Package viewmodel derives what the user sees from the last fetched link
// set: the text/category filter, the category options, sorting, pagination
// and the dashboard summary. Everything here is pure; inputs are never
// modified.
package viewmodel

import (
	"strings"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/linkkeeper/internal/models"
)

// AllCategories is the category sentinel meaning "no category filter".
const AllCategories = "all"

// MatchesQuery reports whether query occurs, ignoring case, in the title,
// the url or the description of link. An empty query matches everything.
func MatchesQuery(link models.Link, query string) bool {
	if query == "" {
		return true
	}
	needle := strings.ToLower(query)

	return strings.Contains(strings.ToLower(link.Title), needle) ||
		strings.Contains(strings.ToLower(link.URL), needle) ||
		(link.Description != "" && strings.Contains(strings.ToLower(link.Description), needle))
}

// MatchesCategory reports whether link belongs to category, compared
// exactly. The sentinel and the empty string match everything.
func MatchesCategory(link models.Link, category string) bool {
	if category == "" || category == AllCategories {
		return true
	}

	return link.Category == category
}

// FilterByQuery keeps the links matching query.
func FilterByQuery(links []models.Link, query string) []models.Link {
	return filter(links, func(link models.Link) bool {
		return MatchesQuery(link, query)
	})
}

// FilterByCategory keeps the links of category.
func FilterByCategory(links []models.Link, category string) []models.Link {
	return filter(links, func(link models.Link) bool {
		return MatchesCategory(link, category)
	})
}

// Filter intersects the query and the category filters. Both are plain
// predicates, so the order they are applied in does not matter.
func Filter(links []models.Link, query, category string) []models.Link {
	return FilterByCategory(FilterByQuery(links, query), category)
}

func filter(links []models.Link, keep func(models.Link) bool) []models.Link {
	if len(links) == 0 {
		return []models.Link{}
	}

	return funk.Filter(links, keep).([]models.Link)
}

// Categories returns the distinct categories of links in first-seen order.
// Always pass the unfiltered set: the options must not shrink when a filter
// is active.
func Categories(links []models.Link) []string {
	if len(links) == 0 {
		return []string{}
	}
	all := funk.Map(links, func(link models.Link) string {
		return link.Category
	}).([]string)

	return funk.UniqString(all)
}

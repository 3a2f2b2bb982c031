package viewmodel

import (
	"github.com/patric-chuzhbe/linkkeeper/internal/models"
)

// RecentLinksLimit is how many links the dashboard lists as recent.
const RecentLinksLimit = 5

// Query is everything the list view can be asked for.
type Query struct {
	Text     string    `json:"q"`
	Category string    `json:"category"`
	SortBy   SortField `json:"sort"`
	Order    SortOrder `json:"order"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

// View is the derived list view.
type View struct {
	Page
	Query      Query    `json:"query"`
	Categories []string `json:"categories"`
}

// Derive filters, sorts and paginates links for q. Categories always come
// from the full set.
func Derive(links []models.Link, q Query) (View, error) {
	if q.Category == "" {
		q.Category = AllCategories
	}
	if q.Order == "" {
		q.Order = Ascending
	}

	filtered := Filter(links, q.Text, q.Category)
	sorted := Sort(filtered, q.SortBy, q.Order)

	page, err := Paginate(sorted, q.Page, q.PageSize)
	if err != nil {
		return View{}, err
	}
	q.Page = page.Page
	q.PageSize = page.PageSize

	return View{
		Page:       page,
		Query:      q,
		Categories: Categories(links),
	}, nil
}

// CategoryCount is the number of links in one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Summary is the dashboard view.
type Summary struct {
	TotalLinks      int             `json:"totalLinks"`
	TotalCategories int             `json:"totalCategories"`
	Recent          []models.Link   `json:"recent"`
	ByCategory      []CategoryCount `json:"byCategory"`
}

// Summarize builds the dashboard from the full set. Recent links are the
// first ones in server order.
func Summarize(links []models.Link) Summary {
	categories := Categories(links)

	counts := make(map[string]int, len(categories))
	for _, link := range links {
		counts[link.Category]++
	}
	byCategory := make([]CategoryCount, 0, len(categories))
	for _, category := range categories {
		byCategory = append(byCategory, CategoryCount{
			Category: category,
			Count:    counts[category],
		})
	}

	recent := links
	if len(recent) > RecentLinksLimit {
		recent = recent[:RecentLinksLimit]
	}

	return Summary{
		TotalLinks:      len(links),
		TotalCategories: len(categories),
		Recent:          append([]models.Link{}, recent...),
		ByCategory:      byCategory,
	}
}

package viewmodel

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/linkkeeper/internal/models"
)

func at(day int) models.Timestamp {
	return models.Timestamp{Time: time.Date(2024, time.March, day, 12, 0, 0, 0, time.UTC)}
}

func sampleLinks() []models.Link {
	return []models.Link{
		{ID: "1", Title: "GitHub", URL: "https://github.com", Description: "Code hosting", Category: "Development", CreateDate: at(3)},
		{ID: "2", Title: "Figma", URL: "https://figma.com", Description: "Interface design", Category: "Design", CreateDate: at(1)},
		{ID: "3", Title: "Pro Git book", URL: "https://git-scm.com/book", Category: "Documentation", CreateDate: at(5)},
		{ID: "4", Title: "Dribbble", URL: "https://dribbble.com", Description: "Design inspiration", Category: "Design", CreateDate: at(2)},
		{ID: "5", Title: "go.dev", URL: "https://go.dev", Description: "The Go website", Category: "Development", CreateDate: at(4)},
	}
}

func ids(links []models.Link) []string {
	result := make([]string, 0, len(links))
	for _, link := range links {
		result = append(result, link.ID)
	}
	return result
}

func TestMatchesQuery(t *testing.T) {
	link := models.Link{Title: "GitHub", URL: "https://github.com", Description: "Code hosting"}

	tests := []struct {
		query string
		want  bool
	}{
		{query: "", want: true},
		{query: "git", want: true},
		{query: "GITHUB.COM", want: true},
		{query: "hosting", want: true},
		{query: "gitlab", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesQuery(link, tt.query))
		})
	}
}

func TestQueryMatchesTitleOrDescription(t *testing.T) {
	tests := []struct {
		name  string
		links []models.Link
		query string
		want  []string
	}{
		{
			name: "title and description",
			links: []models.Link{
				{ID: "1", Title: "GitHub Guide", URL: "https://guides.github.com", Category: "Learning"},
				{ID: "2", Title: "Docs", URL: "https://example.com/docs", Description: "uses git", Category: "Tools"},
			},
			query: "git",
			want:  []string{"1", "2"},
		},
		{
			name:  "title or url",
			links: sampleLinks(),
			query: "git",
			want:  []string{"1", "3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(tt.links, tt.query, AllCategories)))
		})
	}
}

func TestCategoryFilterKeepsOtherOptions(t *testing.T) {
	tests := []struct {
		name           string
		links          []models.Link
		category       string
		want           []string
		wantCategories []string
	}{
		{
			name: "three Design and two Tools",
			links: []models.Link{
				{ID: "1", Title: "Figma", URL: "https://figma.com", Category: "Design"},
				{ID: "2", Title: "Make", URL: "https://gnu.org/software/make", Category: "Tools"},
				{ID: "3", Title: "Dribbble", URL: "https://dribbble.com", Category: "Design"},
				{ID: "4", Title: "jq", URL: "https://jqlang.github.io", Category: "Tools"},
				{ID: "5", Title: "Coolors", URL: "https://coolors.co", Category: "Design"},
			},
			category:       "Design",
			want:           []string{"1", "3", "5"},
			wantCategories: []string{"Design", "Tools"},
		},
		{
			name:           "sample set",
			links:          sampleLinks(),
			category:       "Design",
			want:           []string{"2", "4"},
			wantCategories: []string{"Development", "Design", "Documentation"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := Derive(tt.links, Query{Category: tt.category})
			require.NoError(t, err)

			assert.Equal(t, tt.want, ids(view.Items))
			assert.Equal(t, len(tt.want), view.Total)
			assert.ElementsMatch(t, tt.wantCategories, view.Categories)
		})
	}
}

func TestCategoryIsMatchedExactly(t *testing.T) {
	assert.Empty(t, FilterByCategory(sampleLinks(), "design"))
	assert.Len(t, FilterByCategory(sampleLinks(), AllCategories), 5)
	assert.Len(t, FilterByCategory(sampleLinks(), ""), 5)
}

func TestFilterOrderIndependence(t *testing.T) {
	links := sampleLinks()
	queries := []string{"", "git", "design", "o", "nothing matches"}
	categories := []string{AllCategories, "Design", "Development", "Documentation", "Missing"}

	for _, query := range queries {
		for _, category := range categories {
			t.Run(fmt.Sprintf("%s/%s", query, category), func(t *testing.T) {
				queryFirst := FilterByCategory(FilterByQuery(links, query), category)
				categoryFirst := FilterByQuery(FilterByCategory(links, category), query)

				assert.Equal(t, queryFirst, categoryFirst)
				assert.Equal(t, queryFirst, Filter(links, query, category))
			})
		}
	}
}

func TestCategoriesUnaffectedByFilters(t *testing.T) {
	links := sampleLinks()
	before := Categories(links)

	view, err := Derive(links, Query{Text: "figma", Category: "Design"})
	require.NoError(t, err)

	assert.Equal(t, []string{"2"}, ids(view.Items))
	assert.Equal(t, before, view.Categories)
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	links := sampleLinks()

	_ = Filter(links, "git", "Development")
	_ = Sort(links, SortByTitle, Descending)

	assert.Equal(t, sampleLinks(), links)
}

func TestEmptyInput(t *testing.T) {
	assert.Empty(t, Filter(nil, "git", "Design"))
	assert.NotNil(t, Filter(nil, "git", "Design"))
	assert.Equal(t, []string{}, Categories(nil))
}

func TestSort(t *testing.T) {
	links := sampleLinks()

	tests := []struct {
		name  string
		field SortField
		order SortOrder
		want  []string
	}{
		{name: "server order", field: SortNone, order: Ascending, want: []string{"1", "2", "3", "4", "5"}},
		{name: "title ascending ignores case", field: SortByTitle, order: Ascending, want: []string{"4", "2", "1", "5", "3"}},
		{name: "title descending", field: SortByTitle, order: Descending, want: []string{"3", "5", "1", "2", "4"}},
		{name: "oldest first", field: SortByCreateDate, order: Ascending, want: []string{"2", "4", "1", "5", "3"}},
		{name: "newest first", field: SortByCreateDate, order: Descending, want: []string{"3", "5", "1", "4", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Sort(links, tt.field, tt.order)))
		})
	}
}

func TestSortTiesAreBrokenByID(t *testing.T) {
	links := []models.Link{
		{ID: "b", Title: "Same", CreateDate: at(1)},
		{ID: "a", Title: "same", CreateDate: at(1)},
	}

	assert.Equal(t, []string{"a", "b"}, ids(Sort(links, SortByTitle, Ascending)))
	assert.Equal(t, []string{"a", "b"}, ids(Sort(links, SortByCreateDate, Ascending)))
}

func TestParseSortParameters(t *testing.T) {
	field, err := ParseSortField("createDate")
	require.NoError(t, err)
	assert.Equal(t, SortByCreateDate, field)

	_, err = ParseSortField("url")
	assert.ErrorIs(t, err, ErrInvalidQuery)

	order, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, Ascending, order)

	_, err = ParseSortOrder("sideways")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func manyLinks(n int) []models.Link {
	links := make([]models.Link, 0, n)
	for i := 1; i <= n; i++ {
		links = append(links, models.Link{ID: fmt.Sprintf("%03d", i), Title: fmt.Sprintf("Link %d", i), Category: "Tools"})
	}
	return links
}

func TestPaginate(t *testing.T) {
	links := manyLinks(25)

	page, err := Paginate(links, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, []string{"021", "022", "023", "024", "025"}, ids(page.Items))

	page, err = Paginate(links, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Len(t, page.Items, 10)

	page, err = Paginate(links, 4, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	_, err = Paginate(links, 1, 15)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestPaginateEmpty(t *testing.T) {
	page, err := Paginate(nil, 1, 20)
	require.NoError(t, err)

	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 0, page.Pages)
	assert.NotNil(t, page.Items)
}

func TestDeriveCombinesEverything(t *testing.T) {
	view, err := Derive(sampleLinks(), Query{
		Category: "Development",
		SortBy:   SortByCreateDate,
		Order:    Descending,
		PageSize: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"5", "1"}, ids(view.Items))
	assert.Equal(t, 2, view.Total)
	assert.Equal(t, 1, view.Query.Page)
	assert.Len(t, view.Categories, 3)
}

func TestSummarize(t *testing.T) {
	links := append(sampleLinks(), models.Link{ID: "6", Title: "Postgres docs", Category: "Database"})

	summary := Summarize(links)

	assert.Equal(t, 6, summary.TotalLinks)
	assert.Equal(t, 4, summary.TotalCategories)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(summary.Recent))
	assert.Equal(t, []CategoryCount{
		{Category: "Development", Count: 2},
		{Category: "Design", Count: 2},
		{Category: "Documentation", Count: 1},
		{Category: "Database", Count: 1},
	}, summary.ByCategory)

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.TotalLinks)
	assert.Empty(t, empty.Recent)
}

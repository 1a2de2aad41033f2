package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		requested int
		size      int
		want      Page
	}{
		{name: "empty set", count: 0, requested: 1, size: 10, want: Page{Number: 1, TotalPages: 1, Size: 10, Count: 0, Offset: 0}},
		{name: "empty set, far page", count: 0, requested: 42, size: 10, want: Page{Number: 1, TotalPages: 1, Size: 10, Offset: 0}},
		{name: "negative page", count: 25, requested: -3, size: 10, want: Page{Number: 1, TotalPages: 3, Size: 10, Count: 25, Offset: 0}},
		{name: "middle page", count: 25, requested: 2, size: 10, want: Page{Number: 2, TotalPages: 3, Size: 10, Count: 25, Offset: 10}},
		{name: "last partial page", count: 25, requested: 3, size: 10, want: Page{Number: 3, TotalPages: 3, Size: 10, Count: 25, Offset: 20}},
		{name: "past last page", count: 25, requested: 9, size: 10, want: Page{Number: 3, TotalPages: 3, Size: 10, Count: 25, Offset: 20}},
		{name: "exact multiple", count: 20, requested: 2, size: 10, want: Page{Number: 2, TotalPages: 2, Size: 10, Count: 20, Offset: 10}},
		{name: "default size", count: 11, requested: 2, size: 0, want: Page{Number: 2, TotalPages: 2, Size: DefaultSize, Count: 11, Offset: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.count, tt.requested, tt.size))
		})
	}
}

func TestNew_bounds(t *testing.T) {
	for count := 0; count <= 55; count++ {
		for requested := -2; requested <= 8; requested++ {
			p := New(count, requested, DefaultSize)
			assert.GreaterOrEqual(t, p.Number, 1)
			assert.LessOrEqual(t, p.Number, p.TotalPages)
			assert.GreaterOrEqual(t, p.Offset, 0)
			if count > 0 {
				assert.LessOrEqual(t, p.Offset, count)
			}
		}
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{raw: "", want: 1},
		{raw: "lol", want: 1},
		{raw: "0", want: 1},
		{raw: "-4", want: 1},
		{raw: " 3 ", want: 3},
		{raw: "12", want: 12},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePage(tt.raw))
		})
	}
}

func TestPage_Links(t *testing.T) {
	tests := []struct {
		name  string
		page  Page
		query url.Values
		want  Links
	}{
		{name: "single page", page: New(3, 1, 10), want: Links{}},
		{
			name: "first of many", page: New(25, 1, 10),
			want: Links{NextPage: "/courses?page=2", LastPage: "/courses?page=3"},
		},
		{
			name: "middle", page: New(25, 2, 10),
			want: Links{
				NextPage: "/courses?page=3", LastPage: "/courses?page=3",
				PrevPage: "/courses?page=1", FirstPage: "/courses?page=1",
			},
		},
		{
			name: "last", page: New(25, 3, 10),
			want: Links{PrevPage: "/courses?page=2", FirstPage: "/courses?page=1"},
		},
		{
			name: "keeps other params", page: New(25, 2, 10), query: url.Values{"studentid": {"42"}, "page": {"2"}},
			want: Links{
				NextPage: "/courses?page=3&studentid=42", LastPage: "/courses?page=3&studentid=42",
				PrevPage: "/courses?page=1&studentid=42", FirstPage: "/courses?page=1&studentid=42",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.page.Links("/courses", tt.query))
		})
	}
}

// Package pagination computes offset windows over counted row sets.
package pagination

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultSize is the number of records in a page.
const DefaultSize = 10

// Page is a bounded window of a row set. Number is always within [1, TotalPages].
type Page struct {
	Number     int `json:"page"`
	TotalPages int `json:"totalPages"`
	Size       int `json:"pageSize"`
	Count      int `json:"count"`
	Offset     int `json:"-"`
}

// Links holds the HATEOAS links of the pages surrounding a Page.
type Links struct {
	NextPage  string `json:"nextPage,omitempty"`
	LastPage  string `json:"lastPage,omitempty"`
	PrevPage  string `json:"prevPage,omitempty"`
	FirstPage string `json:"firstPage,omitempty"`
}

// New clamps the requested page to the available pages and computes its offset.
// There is always at least one page, even when count is 0.
func New(count, requested, size int) Page {
	if size <= 0 {
		size = DefaultSize
	}
	if count < 0 {
		count = 0
	}
	totalPages := (count + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}

	number := requested
	if number > totalPages {
		number = totalPages
	}
	if number < 1 {
		number = 1
	}

	return Page{
		Number:     number,
		TotalPages: totalPages,
		Size:       size,
		Count:      count,
		Offset:     (number - 1) * size,
	}
}

// ParsePage reads a requested page number; missing or non-numeric values default to 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Links builds the links to the next/last and prev/first pages, when they exist.
// Any other query parameter is kept in the links.
func (p Page) Links(path string, query url.Values) Links {
	link := func(n int) string {
		q := make(url.Values, len(query)+1)
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(n))
		return path + "?" + q.Encode()
	}

	var links Links
	if p.Number < p.TotalPages {
		links.NextPage = link(p.Number + 1)
		links.LastPage = link(p.TotalPages)
	}
	if p.Number > 1 {
		links.PrevPage = link(p.Number - 1)
		links.FirstPage = link(1)
	}
	return links
}

package engine

import (
	"net/url"
	"strconv"

	"accelerator-admin/internal/views"
)

// PagerSpan is the most page-number links the control shows.
const PagerSpan = 5

// BuildPager lays out the pagination control for page of totalPages. The
// numbered links are centred on page and clamped to [1, totalPages]; every
// link carries params so paging keeps the active filters. One page or
// fewer yields an empty pager.
func BuildPager(path string, params url.Values, page *ResultPage) views.Pager {
	p := views.Pager{Total: page.Total}
	if page.TotalPages <= 1 {
		return p
	}

	link := func(n int) views.Link {
		q := url.Values{}
		for k, v := range params {
			q[k] = append([]string(nil), v...)
		}
		q.Set("page", strconv.Itoa(n))
		q.Set("limit", strconv.Itoa(page.Limit))
		return views.Link{Number: n, URL: path + "?" + q.Encode(), Current: n == page.Page}
	}

	start, end := pageSpan(page.Page, page.TotalPages)
	for n := start; n <= end; n++ {
		p.Pages = append(p.Pages, link(n))
	}
	if page.Page > 1 {
		prev := link(min(page.Page-1, page.TotalPages))
		p.Prev = &prev
	}
	if page.Page < page.TotalPages {
		next := link(page.Page + 1)
		p.Next = &next
	}
	return p
}

// pageSpan returns the first and last page number to link.
func pageSpan(page, totalPages int) (int, int) {
	start := page - PagerSpan/2
	end := start + PagerSpan - 1
	if end > totalPages {
		end = totalPages
		start = end - PagerSpan + 1
	}
	if start < 1 {
		start = 1
		end = min(PagerSpan, totalPages)
	}
	return start, end
}

// Package pagination implements 1-based page arithmetic for ordered feeds.
package pagination

import "strconv"

// Page describes one window into an ordered sequence.
type Page struct {
	Number     int   // 1-based, clamped into [1, TotalPages]
	Size       int   // items per page
	Total      int64 // total items in the sequence
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// Prev returns the previous page number. Only meaningful when HasPrev.
func (p Page) Prev() int { return p.Number - 1 }

// Next returns the next page number. Only meaningful when HasNext.
func (p Page) Next() int { return p.Number + 1 }

// ParseNumber converts a raw page query parameter into a page number.
// Absent, malformed, or non-positive input yields page 1.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Paginate computes the page metadata and the query offset for the requested
// page number. Out-of-range requests clamp to the last valid page instead of
// erroring; an empty sequence yields a single empty page 1.
func Paginate(number, size int, total int64) (Page, int) {
	totalPages := int((total + int64(size) - 1) / int64(size))
	if totalPages < 1 {
		totalPages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}

	page := Page{
		Number:     number,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    number > 1,
		HasNext:    number < totalPages,
	}
	return page, (number - 1) * size
}

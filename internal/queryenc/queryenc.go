package queryenc

import (
	"net/url"
	"strconv"
)

// Encode serializes a catalog query. Filters with empty values are
// omitted entirely; page, pageSize, sortBy, and sortDir are always
// present.
func Encode(filters map[string]string, page, pageSize int, sortBy, sortDir string) url.Values {
	values := url.Values{}
	for key, value := range filters {
		if value == "" {
			continue
		}
		values.Set(key, value)
	}
	values.Set("page", strconv.Itoa(page))
	values.Set("pageSize", strconv.Itoa(pageSize))
	values.Set("sortBy", sortBy)
	values.Set("sortDir", sortDir)
	return values
}

// ClampPage clamps a 1-based page number to [1, totalPages]. A
// totalPages below 1 (unknown or empty result set) clamps to 1.
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// ClampLimit clamps a result limit to [1, max], substituting def when
// the input is not positive.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		limit = def
	}
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}

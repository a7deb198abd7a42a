package cache

import (
	"fmt"
	"net/url"
	"strings"
)

// Key identifies one cached Article Search page. A page is uniquely
// determined by the free-text query, the pub_date filter, the sort order,
// and the page offset.
type Key struct {
	// Query is the free-text search query (q parameter).
	Query string

	// Filter is the structured filter expression (fq parameter),
	// e.g. "pub_date:>=2021-08-01".
	Filter string

	// Sort is the sort order (sort parameter), e.g. "oldest".
	Sort string

	// Page is the zero-based page offset.
	Page int
}

// String generates a deterministic cache key string.
// Format: nyt:search:q=<query>:fq=<filter>:sort=<sort>:page=<page>
//
// Example:
//
//	nyt:search:q=Silicon+Valley:fq=pub_date%3A%3E%3D2021-08-01:sort=oldest:page=3
func (k Key) String() string {
	parts := []string{
		"nyt", "search",
		"q=" + url.QueryEscape(k.Query),
		"fq=" + url.QueryEscape(k.Filter),
		"sort=" + url.QueryEscape(k.Sort),
		fmt.Sprintf("page=%d", k.Page),
	}

	return strings.Join(parts, ":")
}

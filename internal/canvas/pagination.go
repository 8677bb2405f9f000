package canvas

import (
	"context"
	"strings"
)

// fetchAll follows the Link header's rel="next" chain and returns the
// concatenated collection in server page order. It stops when no next
// link is present or a page comes back empty. A failed page terminates
// the sequence early: everything fetched so far is returned, never
// discarded, and the failure is logged. No client-side reordering or
// deduplication happens here.
func fetchAll[T any](ctx context.Context, c *Client, firstURL string) []T {
	var all []T
	next := firstURL
	for next != "" {
		var page []T
		followup, err := c.getPage(ctx, next, &page)
		if err != nil {
			c.logger.Warn("page fetch failed, keeping partial results",
				"url", next, "fetched", len(all), "error", err)
			break
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		next = followup
	}
	return all
}

// nextLink extracts the rel="next" target from a Link response header.
// Returns "" when the header names no next page.
func nextLink(header string) string {
	if header == "" {
		return ""
	}
	for _, part := range strings.Split(header, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}

package view

import (
	"strings"

	"simple-mercari-web/internal/api"
)

// FilterItems keeps the items whose name contains query, ignoring case.
// Order is preserved and items is not modified.
func FilterItems(items []api.Item, query string) []api.Item {
	out := make([]api.Item, 0, len(items))
	for _, item := range items {
		if Matches(item, query) {
			out = append(out, item)
		}
	}
	return out
}

func Matches(item api.Item, query string) bool {
	return strings.Contains(strings.ToLower(item.Name), strings.ToLower(query))
}

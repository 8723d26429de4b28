package normalize

// MaxListItems caps list payloads (company news, earnings) before caching.
const MaxListItems = 10

// Truncate returns at most max items of the slice.
func Truncate[T any](items []T, max int) []T {
	if max >= 0 && len(items) > max {
		return items[:max]
	}
	return items
}

package normalize

import (
	"sort"
	"strconv"
	"strings"
)

// Categories collapses the PodcastIndex categories value into a display
// string. The provider returns either an object of {id: name} pairs, an
// already-joined string, or nothing. Object values are joined with ", " in
// numeric id order so the result is deterministic; a string passes through
// unchanged; anything else resolves to nil.
func Categories(v any) *string {
	switch cats := v.(type) {
	case string:
		return &cats
	case map[string]any:
		if len(cats) == 0 {
			return nil
		}
		ids := make([]string, 0, len(cats))
		for id := range cats {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			a, aerr := strconv.Atoi(ids[i])
			b, berr := strconv.Atoi(ids[j])
			if aerr == nil && berr == nil {
				return a < b
			}
			return ids[i] < ids[j]
		})
		names := make([]string, 0, len(ids))
		for _, id := range ids {
			if name, ok := cats[id].(string); ok {
				names = append(names, name)
			}
		}
		joined := strings.Join(names, ", ")
		return &joined
	default:
		return nil
	}
}

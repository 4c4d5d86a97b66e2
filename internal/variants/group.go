package variants

import (
	"sort"
	"strings"
)

const separator = " - "

// Group turns variant names of the form "color - descriptor - size" into one line per
// color listing its sizes, e.g. "Black: Large, Small". Names without the separator are
// listed as a bare color.
func Group(names []string) string {
	groups := map[string]map[string]struct{}{}
	for _, name := range names {
		color, size := splitVariant(name)
		sizes, ok := groups[color]
		if !ok {
			sizes = map[string]struct{}{}
			groups[color] = sizes
		}
		if size != "" {
			sizes[size] = struct{}{}
		}
	}

	lines := make([]string, 0, len(groups))
	for color, sizes := range groups {
		if len(sizes) == 0 {
			lines = append(lines, color)
			continue
		}
		sorted := make([]string, 0, len(sizes))
		for s := range sizes {
			sorted = append(sorted, s)
		}
		sort.Strings(sorted)
		lines = append(lines, color+": "+strings.Join(sorted, ", "))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func splitVariant(name string) (color, size string) {
	if !strings.Contains(name, separator) {
		return strings.TrimSpace(name), ""
	}
	parts := strings.Split(name, separator)
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[len(parts)-1])
}

// Dedupe drops blank names and repeats, keeping the first occurrence of each.
func Dedupe(names []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

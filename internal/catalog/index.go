package catalog

import (
	"strings"

	"catalogdeck/internal"
	"catalogdeck/internal/util"
)

// Index keeps the catalog rows in sheet order next to their normalized key so the
// matcher can scan without re-normalizing.
type Index struct {
	Rows    []internal.Record
	NormKey []string
	ByKey   map[string]int
}

func BuildIndex(table *internal.Table, keyField string) *Index {
	idx := &Index{
		Rows:    table.Records,
		NormKey: make([]string, len(table.Records)),
		ByKey:   map[string]int{},
	}
	for i, row := range table.Records {
		norm := util.Normalize(row.Get(keyField))
		idx.NormKey[i] = norm
		if _, seen := idx.ByKey[norm]; !seen {
			idx.ByKey[norm] = i
		}
	}
	return idx
}

type Matcher struct {
	index *Index
}

func NewMatcher(table *internal.Table, keyField string) *Matcher {
	return &Matcher{index: BuildIndex(table, keyField)}
}

// Match resolves an item code to a catalog row. An exact normalized match wins; failing
// that, a code with a hyphen falls back to the first row whose key starts with the part
// before the first hyphen. The bool is false when neither applies.
func (m *Matcher) Match(itemCode string) (internal.MatchResult, bool) {
	norm := util.Normalize(itemCode)
	if i, ok := m.index.ByKey[norm]; ok {
		return internal.MatchResult{Row: m.index.Rows[i], RowIndex: i, Reason: internal.ReasonExact}, true
	}

	if base, _, found := strings.Cut(itemCode, "-"); found {
		prefix := util.Normalize(base)
		for i, key := range m.index.NormKey {
			if strings.HasPrefix(key, prefix) {
				return internal.MatchResult{Row: m.index.Rows[i], RowIndex: i, Reason: internal.ReasonPrefix}, true
			}
		}
	}

	return internal.MatchResult{RowIndex: -1, Reason: internal.ReasonNone}, false
}

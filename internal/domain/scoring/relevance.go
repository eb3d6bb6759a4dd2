package scoring

import (
	"strings"
)

// RelevanceTable maps a department to extra description keywords that mark a
// task as relevant to it. Keys and keywords are stored lower-cased.
type RelevanceTable map[string][]string

// DefaultRelevance returns the built-in synonym table.
func DefaultRelevance() RelevanceTable {
	return RelevanceTable{
		"it":        {"software", "system"},
		"marketing": {"campaign", "promotion"},
	}
}

// NewRelevanceTable normalises a department to keywords map.
func NewRelevanceTable(m map[string][]string) RelevanceTable {
	t := make(RelevanceTable, len(m))
	for dept, words := range m {
		key := strings.ToLower(strings.TrimSpace(dept))
		if key == "" {
			continue
		}
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				t[key] = append(t[key], w)
			}
		}
	}
	return t
}

// Merge returns a table holding the keywords of both tables.
func (t RelevanceTable) Merge(other RelevanceTable) RelevanceTable {
	out := make(RelevanceTable, len(t)+len(other))
	for k, v := range t {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range other {
		out[k] = append(out[k], v...)
	}
	return out
}

// Relevant reports whether description mentions the department name or one of
// its keywords, ignoring case. An empty department is never relevant.
func (t RelevanceTable) Relevant(department, description string) bool {
	dept := strings.ToLower(strings.TrimSpace(department))
	if dept == "" {
		return false
	}
	desc := strings.ToLower(description)
	if strings.Contains(desc, dept) {
		return true
	}
	for _, kw := range t[dept] {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

package inventory

import "strings"

const maxAutoTags = 4

var typeTags = map[string][]string{
	"silk":       {"Traditional", "Wedding", "Premium", "Handloom"},
	"cotton":     {"Casual", "Comfortable", "Summer", "Daily Wear"},
	"georgette":  {"Party Wear", "Lightweight", "Elegant", "Designer"},
	"chiffon":    {"Evening Wear", "Festive", "Soft", "Draping"},
	"kanjivaram": {"Bridal", "South Indian", "Pure Silk", "Heritage"},
}

var nameKeywords = []struct {
	keyword string
	tag     string
}{
	{"bridal", "Wedding"},
	{"party", "Party Wear"},
	{"printed", "Printed"},
	{"embroidered", "Embroidered"},
}

// AutoTags suggests tags from the saree type and keywords in its name: the first two
// tags of a known type, then one per matched keyword, unique, at most four.
func AutoTags(name, sareeType string) []string {
	var tags []string
	if known, ok := typeTags[strings.ToLower(strings.TrimSpace(sareeType))]; ok {
		tags = append(tags, known[:2]...)
	}

	lower := strings.ToLower(name)
	for _, kw := range nameKeywords {
		if strings.Contains(lower, kw.keyword) {
			tags = append(tags, kw.tag)
		}
	}

	out := make([]string, 0, maxAutoTags)
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == maxAutoTags {
			break
		}
	}
	return out
}

// mergeTags appends extra to tags, dropping duplicates.
func mergeTags(tags, extra []string) []string {
	seen := make(map[string]bool, len(tags)+len(extra))
	out := make([]string, 0, len(tags)+len(extra))
	for _, t := range append(append([]string(nil), tags...), extra...) {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

package catalog

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// similarityFloor is the minimum normalized similarity a fuzzy match
// needs; below it a query and a field are considered unrelated.
const similarityFloor = 0.6

// Search returns samples ranked by how well the query matches their id,
// title or course, case-insensitively. Exact and substring matches rank
// ahead of fuzzy ones; candidates under the similarity floor are
// dropped. An empty query returns the full catalogue.
func (c *Catalog) Search(query string) []Sample {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.List()
	}

	type match struct {
		sample Sample
		score  float64
	}
	var matches []match
	for _, s := range c.samples {
		if v := matchScore(q, s); v > 0 {
			matches = append(matches, match{s, v})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	out := make([]Sample, len(matches))
	for i, m := range matches {
		out[i] = m.sample
	}
	return out
}

func matchScore(q string, s Sample) float64 {
	best := 0.0
	for _, field := range [...]string{s.ID, s.Title, s.Course} {
		f := strings.ToLower(field)
		if f == "" {
			continue
		}
		var v float64
		switch {
		case f == q:
			v = 2
		case strings.Contains(f, q):
			v = 1.5
		default:
			v = similarity(q, f)
			if v < similarityFloor {
				v = 0
			}
		}
		if v > best {
			best = v
		}
	}
	return best
}

// similarity is one minus the edit distance normalized by the longer
// string.
func similarity(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

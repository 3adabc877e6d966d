package engine

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/miradorstack/mirador-slo/internal/models"
)

const (
	// DefaultMatchThreshold is the minimum score a candidate needs to be returned.
	DefaultMatchThreshold = 0.3
	substringFloor        = 0.7
)

type indexedCandidate struct {
	candidate models.ServiceCandidate
	name      []rune
	path      []rune
	nameText  string
	pathText  string
}

// ServiceMatcher resolves free-text service names against an immutable catalog.
// It is safe for concurrent use.
type ServiceMatcher struct {
	entries    []indexedCandidate
	threshold  float64
	maxResults int
}

// NewServiceMatcher indexes catalog. maxResults <= 0 returns every match.
func NewServiceMatcher(catalog []models.ServiceCandidate, threshold float64, maxResults int) *ServiceMatcher {
	entries := make([]indexedCandidate, 0, len(catalog))
	for _, c := range catalog {
		name, path := normaliseName(c.Name), normaliseName(c.Path)
		entries = append(entries, indexedCandidate{
			candidate: c,
			name:      []rune(name),
			path:      []rune(path),
			nameText:  name,
			pathText:  path,
		})
	}
	return &ServiceMatcher{entries: entries, threshold: threshold, maxResults: maxResults}
}

// FindMatches scores query against every catalog entry and returns those at or
// above threshold, best first. Equal scores keep catalog order.
func FindMatches(query string, catalog []models.ServiceCandidate, threshold float64) []models.ServiceMatch {
	return NewServiceMatcher(catalog, threshold, 0).Match(query)
}

// Match ranks the catalog for query using the matcher's threshold.
func (m *ServiceMatcher) Match(query string) []models.ServiceMatch {
	q := normaliseName(query)
	if q == "" {
		return nil
	}
	qr := []rune(q)

	matches := make([]models.ServiceMatch, 0)
	for _, e := range m.entries {
		score := max(sequenceRatio(qr, e.name), sequenceRatio(qr, e.path))
		if containsEither(q, e.nameText) || containsEither(q, e.pathText) {
			score = max(score, substringFloor)
		}
		if score < m.threshold {
			continue
		}
		matches = append(matches, models.ServiceMatch{Candidate: e.candidate, Score: score})
	}

	slices.SortStableFunc(matches, func(a, b models.ServiceMatch) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if m.maxResults > 0 && len(matches) > m.maxResults {
		matches = matches[:m.maxResults]
	}
	return matches
}

// Resolve returns the best match or models.ErrServiceNotFound.
func (m *ServiceMatcher) Resolve(query string) (models.ServiceMatch, error) {
	matches := m.Match(query)
	if len(matches) == 0 {
		return models.ServiceMatch{}, models.ErrServiceNotFound
	}
	return matches[0], nil
}

// Size returns the number of catalog entries.
func (m *ServiceMatcher) Size() int { return len(m.entries) }

func normaliseName(s string) string {
	// A Caser carries state, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(s))
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// sequenceRatio is the Ratcliff/Obershelp similarity 2*M/T, where M counts
// characters in the recursively found longest common blocks.
func sequenceRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(a, b)) / float64(total)
}

func matchingRunes(a, b []rune) int {
	positions := make(map[rune][]int, len(b))
	for j, r := range b {
		positions[r] = append(positions[r], j)
	}

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	matched := 0
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestBlock(a, positions, s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return matched
}

// longestBlock finds the longest common run of a[alo:ahi] and b[blo:bhi],
// preferring the earliest start in a, then in b.
func longestBlock(a []rune, positions map[rune][]int, alo, ahi, blo, bhi int) (int, int, int) {
	bestI, bestJ, bestK := alo, blo, 0
	runLen := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range positions[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := runLen[j-1] + 1
			next[j] = k
			if k > bestK {
				bestI, bestJ, bestK = i-k+1, j-k+1, k
			}
		}
		runLen = next
	}
	return bestI, bestJ, bestK
}

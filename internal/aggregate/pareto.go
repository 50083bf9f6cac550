package aggregate

import (
	"math"
	"sort"
	"strings"

	"rcca-backend/internal/domain"
)

// Pareto is the cause ranking: Data drives the bar series and Cumulative
// the line series, both aligned with Labels.
type Pareto struct {
	Labels     []string `json:"labels"`
	Data       []int    `json:"data"`
	Cumulative []int    `json:"cumulative"`
}

// ParetoRanking counts records per vocabulary entry, drops empty categories
// and sorts the rest by count. Ties keep vocabulary order. Categories outside
// the vocabulary are ignored.
func ParetoRanking(records []domain.Record, factory string, vocabulary []string) Pareto {
	index := make(map[string]int, len(vocabulary))
	for i, c := range vocabulary {
		k := strings.ToLower(strings.TrimSpace(c))
		if _, dup := index[k]; !dup {
			index[k] = i
		}
	}

	counts := make([]int, len(vocabulary))
	total := 0
	for _, r := range filterFactory(records, factory) {
		i, ok := index[strings.ToLower(strings.TrimSpace(r.ErrorCategory))]
		if !ok {
			continue
		}
		counts[i]++
		total++
	}

	type entry struct {
		label string
		count int
	}
	ranked := make([]entry, 0, len(vocabulary))
	for i, c := range vocabulary {
		if counts[i] > 0 {
			ranked = append(ranked, entry{label: c, count: counts[i]})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].count > ranked[j].count })

	p := Pareto{
		Labels:     make([]string, 0, len(ranked)),
		Data:       make([]int, 0, len(ranked)),
		Cumulative: make([]int, 0, len(ranked)),
	}
	running := 0
	for _, e := range ranked {
		running += e.count
		p.Labels = append(p.Labels, e.label)
		p.Data = append(p.Data, e.count)
		p.Cumulative = append(p.Cumulative, int(math.Round(float64(running)/float64(total)*100)))
	}
	return p
}

package aggregate

import (
	"sort"
	"strings"

	"rcca-backend/internal/domain"
)

type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// DepartmentBreakdown counts records per department, largest first.
// Records without a department are skipped.
func DepartmentBreakdown(records []domain.Record, factory string) []DepartmentCount {
	counts := make(map[string]int)
	for _, r := range filterFactory(records, factory) {
		d := strings.TrimSpace(r.Department)
		if d == "" {
			continue
		}
		counts[d]++
	}

	out := make([]DepartmentCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, DepartmentCount{Department: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Department < out[j].Department
	})
	return out
}

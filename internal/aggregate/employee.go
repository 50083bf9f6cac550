package aggregate

import (
	"sort"
	"strings"

	"rcca-backend/internal/domain"
)

type EmployeeStats struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Factory  string `json:"factory"`
	Approved int    `json:"approved"`
	Rejected int    `json:"rejected"`
	Pending  int    `json:"pending"`
	Total    int    `json:"total"`
}

// EmployeeQuery controls grouping and paging. TopN <= 0 returns every
// employee on a single page. Page is 1-based.
type EmployeeQuery struct {
	Factory              string
	TopN                 int
	Page                 int
	ResubmittedAsPending bool
	DefaultFactory       string
}

type EmployeePage struct {
	Items      []EmployeeStats `json:"items"`
	Page       int             `json:"page"`
	Pages      int             `json:"pages"`
	TotalCount int             `json:"total_count"`
}

// EmployeeBreakdown groups records by creator. records holds the decided and
// draft records, pending the pending-tier ones; a record present in both is
// counted once. Superseded records count nowhere.
func EmployeeBreakdown(records, pending []domain.Record, directory []domain.User, q EmployeeQuery) EmployeePage {
	users := make(map[string]domain.User, len(directory))
	for _, u := range directory {
		users[u.ID] = u
	}

	stats := make(map[string]*EmployeeStats)
	seen := make(map[string]bool)
	get := func(id string) *EmployeeStats {
		if s, ok := stats[id]; ok {
			return s
		}
		s := &EmployeeStats{ID: id, Name: id, Factory: q.DefaultFactory}
		if u, ok := users[id]; ok {
			if u.Name != "" {
				s.Name = u.Name
			}
			if u.Factory != "" {
				s.Factory = u.Factory
			}
		}
		stats[id] = s
		return s
	}

	count := func(r domain.Record) {
		if r.Superseded {
			return
		}
		if r.ID != "" {
			if seen[r.ID] {
				return
			}
			seen[r.ID] = true
		}
		creator := strings.TrimSpace(r.CreatorID())
		if creator == "" {
			return
		}
		switch r.Status {
		case domain.RecordStatusApproved:
			get(creator).Approved++
		case domain.RecordStatusRejected:
			get(creator).Rejected++
		case domain.RecordStatusDraft, domain.RecordStatusSubmitted:
			get(creator).Pending++
		case domain.RecordStatusResubmitted:
			if q.ResubmittedAsPending {
				get(creator).Pending++
			}
		}
	}
	for _, r := range records {
		if r.Tier == domain.TierPending {
			continue
		}
		count(r)
	}
	for _, r := range pending {
		count(r)
	}

	items := make([]EmployeeStats, 0, len(stats))
	for _, s := range stats {
		s.Total = s.Approved + s.Rejected + s.Pending
		if s.Total == 0 || !matchFactory(q.Factory, s.Factory) {
			continue
		}
		items = append(items, *s)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Total != items[j].Total {
			return items[i].Total > items[j].Total
		}
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})

	return paginate(items, q.TopN, q.Page)
}

func paginate(items []EmployeeStats, topN, page int) EmployeePage {
	if topN <= 0 {
		return EmployeePage{Items: items, Page: 1, Pages: 1, TotalCount: len(items)}
	}
	pages := (len(items) + topN - 1) / topN
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * topN
	end := start + topN
	if end > len(items) {
		end = len(items)
	}
	return EmployeePage{Items: items[start:end], Page: page, Pages: pages, TotalCount: len(items)}
}

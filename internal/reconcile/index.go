// Package reconcile merges the main, pending and local draft tiers into a
// single de-duplicated view that knows which rejected records have been
// resubmitted.
//
// Build is a pure function of its inputs. It keeps no state between calls,
// so the view is simply rebuilt after every authoritative refetch.
package reconcile

import (
	"sort"
	"strings"

	"rcca-backend/internal/domain"
)

// View is the reconciled result of Build. It is read-only once built and
// safe for concurrent readers.
type View struct {
	records       map[string]domain.Record
	resubmissions map[string][]string
	shadowed      map[string]bool
	keys          []string
}

// Key returns the logical key of r: its canonical id, or its storage id
// qualified by tier for rows that predate canonical ids. An empty key means
// the record cannot be placed.
func Key(r domain.Record) string {
	if id := strings.TrimSpace(r.ID); id != "" {
		return id
	}
	if sid := strings.TrimSpace(r.StorageID); sid != "" {
		// main and pending draw storage ids from separate sequences, so the
		// same number in two tiers is two different rows
		return "s:" + string(r.Tier) + ":" + sid
	}
	return ""
}

// Build merges the three tiers. Backend rows beat local drafts with the same
// key; between the backend tiers the newer updatedAt wins and ties go to
// main. Input order never affects the result.
func Build(main, pending, local []domain.Record) *View {
	v := &View{
		records:       make(map[string]domain.Record),
		resubmissions: make(map[string][]string),
		shadowed:      make(map[string]bool),
	}

	add := func(rs []domain.Record, tier domain.Tier) {
		for i := range rs {
			r := *rs[i].Clone()
			r.Tier = tier
			k := Key(r)
			if k == "" {
				continue
			}
			if cur, ok := v.records[k]; ok && !prefer(r, cur) {
				continue
			}
			v.records[k] = r
		}
	}
	add(main, domain.TierMain)
	add(pending, domain.TierPending)
	add(local, domain.TierLocal)

	v.keys = make([]string, 0, len(v.records))
	for k := range v.records {
		v.keys = append(v.keys, k)
	}
	sort.Strings(v.keys)

	v.linkResubmissions()
	v.shadowDuplicates()
	return v
}

// prefer reports whether candidate should replace current under the same key.
func prefer(candidate, current domain.Record) bool {
	cr, ur := tierRank(candidate.Tier), tierRank(current.Tier)
	if (cr == 0) != (ur == 0) {
		// exactly one of them is a local draft
		return cr != 0
	}
	if !candidate.UpdatedAt.Equal(current.UpdatedAt) {
		return candidate.UpdatedAt.After(current.UpdatedAt)
	}
	if cr != ur {
		return cr > ur
	}
	// same tier and timestamp: fall back to a stable total order
	if candidate.StorageID != current.StorageID {
		return candidate.StorageID < current.StorageID
	}
	return candidate.Status < current.Status
}

func tierRank(t domain.Tier) int {
	switch t {
	case domain.TierMain:
		return 2
	case domain.TierPending:
		return 1
	default:
		return 0
	}
}

// linkResubmissions marks rejected main records superseded when a later
// record points back at them, either by resubmission link or, for pending
// rows without a usable link, by notification number.
func (v *View) linkResubmissions() {
	byRef := make(map[string]string)
	byNumber := make(map[string][]string)
	for _, k := range v.keys {
		r := v.records[k]
		if r.Status != domain.RecordStatusRejected || r.Tier != domain.TierMain {
			continue
		}
		if r.ID != "" {
			byRef[r.ID] = k
		}
		if r.StorageID != "" {
			byRef[r.StorageID] = k
		}
		if n := businessKey(r); n != "" {
			byNumber[n] = append(byNumber[n], k)
		}
	}

	for _, k := range v.keys {
		r := v.records[k]
		var targets []string
		if link := strings.TrimSpace(r.ResubmissionLink); link != "" {
			if orig, ok := byRef[link]; ok && orig != k {
				targets = append(targets, orig)
			}
		}
		if len(targets) == 0 && r.Tier == domain.TierPending {
			for _, orig := range byNumber[businessKey(r)] {
				if orig != k && !v.records[orig].UpdatedAt.After(r.UpdatedAt) {
					targets = append(targets, orig)
				}
			}
		}
		for _, orig := range targets {
			v.resubmissions[orig] = append(v.resubmissions[orig], k)
		}
	}

	for orig, by := range v.resubmissions {
		sort.Strings(by)
		r := v.records[orig]
		r.Superseded = true
		v.records[orig] = r
	}
}

// shadowDuplicates keeps only the newest live draft or pending record per
// business key.
func (v *View) shadowDuplicates() {
	newest := make(map[string]string)
	for _, k := range v.keys {
		r := v.records[k]
		if r.Superseded || !isOpen(r.Status) {
			continue
		}
		n := businessKey(r)
		if n == "" {
			continue
		}
		cur, ok := newest[n]
		if !ok {
			newest[n] = k
			continue
		}
		if v.records[k].UpdatedAt.After(v.records[cur].UpdatedAt) {
			v.shadowed[cur] = true
			newest[n] = k
		} else {
			v.shadowed[k] = true
		}
	}
}

func isOpen(s domain.RecordStatus) bool {
	return s == domain.RecordStatusDraft || s.IsPending()
}

func businessKey(r domain.Record) string {
	return strings.ToLower(strings.TrimSpace(r.NotificationNumber))
}

func (v *View) Len() int {
	return len(v.records)
}

// Get returns the chosen record for a logical key.
func (v *View) Get(key string) (domain.Record, bool) {
	r, ok := v.records[key]
	if !ok {
		return domain.Record{}, false
	}
	return *r.Clone(), true
}

// Records returns every chosen record, superseded ones included, ordered by
// key.
func (v *View) Records() []domain.Record {
	return v.filter(func(string, domain.Record) bool { return true })
}

// Active returns the non-superseded records.
func (v *View) Active() []domain.Record {
	return v.filter(func(_ string, r domain.Record) bool { return !r.Superseded })
}

// Live returns the non-superseded records that are not shadowed by a newer
// record with the same business key.
func (v *View) Live() []domain.Record {
	return v.filter(func(k string, r domain.Record) bool { return !r.Superseded && !v.shadowed[k] })
}

// Pending returns the live Submitted and Resubmitted records.
func (v *View) Pending() []domain.Record {
	return v.filter(func(k string, r domain.Record) bool {
		return !r.Superseded && !v.shadowed[k] && r.Status.IsPending()
	})
}

// Drafts returns the live drafts, local-only ones included.
func (v *View) Drafts() []domain.Record {
	return v.filter(func(k string, r domain.Record) bool {
		return !v.shadowed[k] && r.Status == domain.RecordStatusDraft
	})
}

func (v *View) IsSuperseded(key string) bool {
	return v.records[key].Superseded
}

func (v *View) IsShadowed(key string) bool {
	return v.shadowed[key]
}

// SupersededBy returns the keys of the records that resubmitted key.
func (v *View) SupersededBy(key string) []string {
	return append([]string(nil), v.resubmissions[key]...)
}

// Resubmissions returns the resubmission graph, original key to the keys of
// the records that superseded it.
func (v *View) Resubmissions() map[string][]string {
	out := make(map[string][]string, len(v.resubmissions))
	for k, by := range v.resubmissions {
		out[k] = append([]string(nil), by...)
	}
	return out
}

func (v *View) filter(keep func(string, domain.Record) bool) []domain.Record {
	out := make([]domain.Record, 0, len(v.keys))
	for _, k := range v.keys {
		r := v.records[k]
		if keep(k, r) {
			out = append(out, *r.Clone())
		}
	}
	return out
}

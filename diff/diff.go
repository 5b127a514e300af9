// Package diff is the change detector: a pure comparison of the candidate
// manifest against the previously published one.
package diff

import (
	"sort"

	"martpub/log"
	"martpub/model"
)

// Compute partitions the union of both manifests' table names into
// added, modified, removed and unchanged. Fingerprints are the sole truth;
// table names match case-sensitively. previous may be nil (first run).
func Compute(candidate, previous *model.Manifest) *model.ChangeSet {
	if previous == nil {
		previous = model.NewManifest()
	}
	cs := &model.ChangeSet{
		Added:     []string{},
		Modified:  []string{},
		Removed:   []string{},
		Unchanged: []string{},
	}
	for name, cur := range candidate.Tables {
		prev, ok := previous.Tables[name]
		switch {
		case !ok:
			cs.Added = append(cs.Added, name)
		case cur.Fingerprint != prev.Fingerprint:
			cs.Modified = append(cs.Modified, name)
		default:
			if cur.Size != prev.Size || cur.RowCount != prev.RowCount {
				// Identical bytes cannot differ in size or row count;
				// this points at a fingerprinting bug somewhere upstream.
				log.Warnf("table %s: fingerprint unchanged but metadata differs (size %d->%d, rows %d->%d)",
					name, prev.Size, cur.Size, prev.RowCount, cur.RowCount)
			}
			cs.Unchanged = append(cs.Unchanged, name)
		}
	}
	for name := range previous.Tables {
		if _, ok := candidate.Tables[name]; !ok {
			cs.Removed = append(cs.Removed, name)
		}
	}
	sort.Strings(cs.Added)
	sort.Strings(cs.Modified)
	sort.Strings(cs.Removed)
	sort.Strings(cs.Unchanged)
	return cs
}

package catalog

import (
	"sort"

	"github.com/rmcgowen/haven/internal/domain"
)

// Reconcile merges stored action state with a new catalog. For every item
// the catalog still contains, Status, CompletedAt and Notes are carried over
// from the stored copy and every other field is replaced by the catalog's
// values. Items the catalog dropped disappear; items it added come in as
// pending. The function is pure, so re-running it over a partially migrated
// store converges to the same result.
func Reconcile(stored, cat []domain.ActionItem) []domain.ActionItem {
	byID := make(map[string]domain.ActionItem, len(stored))
	for _, item := range stored {
		byID[item.ID] = item
	}

	out := make([]domain.ActionItem, 0, len(cat))
	for _, item := range cat {
		if prev, ok := byID[item.ID]; ok {
			item.Status = prev.Status
			item.CompletedAt = prev.CompletedAt
			item.Notes = prev.Notes
		}
		if item.Status == "" {
			item.Status = domain.ActionPending
		}
		out = append(out, item)
	}

	// Stable: catalog order breaks priority ties.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// Next returns the highest-priority pending item, or false if everything is
// done or skipped.
func Next(items []domain.ActionItem) (domain.ActionItem, bool) {
	var best domain.ActionItem
	found := false
	for _, item := range items {
		if item.Status != domain.ActionPending {
			continue
		}
		if !found || item.Priority < best.Priority {
			best = item
			found = true
		}
	}
	return best, found
}

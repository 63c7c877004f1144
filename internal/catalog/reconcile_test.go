package catalog

import (
	"testing"
	"time"

	"github.com/rmcgowen/haven/internal/domain"
)

func TestReconcilePreservesUserState(t *testing.T) {
	t.Parallel()

	done := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stored := []domain.ActionItem{
		{ID: "a", Title: "old title", Priority: 1, Status: domain.ActionDone, CompletedAt: &done, Notes: "went well"},
		{ID: "b", Title: "kept", Priority: 2, Status: domain.ActionSkipped},
	}
	next := []domain.ActionItem{
		{ID: "a", Title: "new title", Script: "new script", Priority: 1, Status: domain.ActionPending},
		{ID: "b", Title: "kept", Priority: 2, Status: domain.ActionPending},
	}

	got := Reconcile(stored, next)
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	a := got[0]
	if a.Title != "new title" || a.Script != "new script" {
		t.Fatalf("catalog fields not replaced: %+v", a)
	}
	if a.Status != domain.ActionDone || a.CompletedAt == nil || !a.CompletedAt.Equal(done) || a.Notes != "went well" {
		t.Fatalf("user state not preserved: %+v", a)
	}
	if got[1].Status != domain.ActionSkipped {
		t.Fatalf("skipped status not preserved: %+v", got[1])
	}
}

func TestReconcileDropsAndInserts(t *testing.T) {
	t.Parallel()

	stored := []domain.ActionItem{
		{ID: "gone", Priority: 1, Status: domain.ActionDone},
	}
	next := []domain.ActionItem{
		{ID: "fresh", Priority: 1},
	}

	got := Reconcile(stored, next)
	if len(got) != 1 || got[0].ID != "fresh" {
		t.Fatalf("expected only new catalog item, got %+v", got)
	}
	if got[0].Status != domain.ActionPending {
		t.Fatalf("new item must start pending, got %q", got[0].Status)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	t.Parallel()

	stored := Default()
	stored[0].Status = domain.ActionDone

	once := Reconcile(stored, Default())
	twice := Reconcile(once, Default())

	if len(once) != len(twice) {
		t.Fatalf("length changed between passes: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID || once[i].Status != twice[i].Status {
			t.Fatalf("item %d changed between passes: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestNext(t *testing.T) {
	t.Parallel()

	items := []domain.ActionItem{
		{ID: "a", Priority: 2, Status: domain.ActionPending},
		{ID: "b", Priority: 1, Status: domain.ActionDone},
		{ID: "c", Priority: 3, Status: domain.ActionPending},
	}
	got, ok := Next(items)
	if !ok || got.ID != "a" {
		t.Fatalf("expected lowest-priority pending item a, got %+v ok=%v", got, ok)
	}

	if _, ok := Next(nil); ok {
		t.Fatal("expected no next item for empty plan")
	}
}

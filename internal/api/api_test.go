package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/rmcgowen/haven/internal/catalog"
	"github.com/rmcgowen/haven/internal/domain"
	"github.com/rmcgowen/haven/internal/store"
)

type fakeResetter struct{ calls int }

func (f *fakeResetter) Reset() { f.calls++ }

func newTestAPI(t *testing.T) (store.Repository, *fakeResetter, http.Handler) {
	t.Helper()

	repo := store.NewMemory()
	if err := repo.SeedActions(context.Background(), catalog.Default(), catalog.Version); err != nil {
		t.Fatalf("SeedActions failed: %v", err)
	}
	resetter := &fakeResetter{}
	r := chi.NewRouter()
	NewHandler(repo, resetter).RegisterRoutes(r)
	return repo, resetter, r
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode failed: %v, body %s", err, rec.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()

	_, _, router := newTestAPI(t)
	rec := do(t, router, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decode[map[string]string](t, rec)
	if got["status"] != "ok" {
		t.Errorf("status = %q, want ok", got["status"])
	}
}

func TestListActionsSorted(t *testing.T) {
	t.Parallel()

	_, _, router := newTestAPI(t)
	rec := do(t, router, http.MethodGet, "/api/actions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	items := decode[[]domain.ActionItem](t, rec)
	if len(items) != len(catalog.Default()) {
		t.Fatalf("got %d actions, want %d", len(items), len(catalog.Default()))
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].Priority > items[i].Priority {
			t.Fatalf("actions not sorted by priority: %d before %d", items[i-1].Priority, items[i].Priority)
		}
	}
}

func TestUpdateActionStatus(t *testing.T) {
	t.Parallel()

	_, _, router := newTestAPI(t)
	id := catalog.Default()[0].ID

	rec := do(t, router, http.MethodPut, "/api/actions/"+id+"/status", `{"status":"done","notes":"called them"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	items := decode[[]domain.ActionItem](t, rec)
	for _, item := range items {
		if item.ID != id {
			continue
		}
		if item.Status != domain.ActionDone {
			t.Errorf("status = %s, want done", item.Status)
		}
		if item.CompletedAt == nil {
			t.Error("CompletedAt not set for done action")
		}
		if item.Notes != "called them" {
			t.Errorf("notes = %q", item.Notes)
		}
	}
}

func TestUpdateActionStatusErrors(t *testing.T) {
	t.Parallel()

	_, _, router := newTestAPI(t)

	if rec := do(t, router, http.MethodPut, "/api/actions/nope/status", `{"status":"done"}`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
	id := catalog.Default()[0].ID
	if rec := do(t, router, http.MethodPut, "/api/actions/"+id+"/status", `{"status":"bogus"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status = %d, want 400", rec.Code)
	}
}

func TestNextAction(t *testing.T) {
	t.Parallel()

	repo, _, router := newTestAPI(t)

	rec := do(t, router, http.MethodGet, "/api/actions/next", "")
	next := decode[domain.ActionItem](t, rec)
	want := catalog.Default()
	if next.ID != want[0].ID {
		t.Errorf("next = %s, want %s", next.ID, want[0].ID)
	}

	// Finish everything; next reports done.
	for _, item := range want {
		if err := repo.UpdateActionStatus(context.Background(), item.ID, domain.ActionDone, ""); err != nil {
			t.Fatalf("UpdateActionStatus failed: %v", err)
		}
	}
	rec = do(t, router, http.MethodGet, "/api/actions/next", "")
	got := decode[map[string]bool](t, rec)
	if !got["done"] {
		t.Errorf("next after completing everything = %v, want done", got)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	t.Parallel()

	_, _, router := newTestAPI(t)

	rec := do(t, router, http.MethodGet, "/api/profile", "")
	p := decode[domain.Profile](t, rec)
	if p.Name != "Jennifer" {
		t.Errorf("default profile name = %q, want Jennifer", p.Name)
	}

	rec = do(t, router, http.MethodPut, "/api/profile", `{"name":"Jennifer","onboardingComplete":true,"hasSNAP":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/api/profile", "")
	p = decode[domain.Profile](t, rec)
	if !p.OnboardingComplete || p.HasSNAP == nil || !*p.HasSNAP {
		t.Errorf("profile after update = %+v", p)
	}
	if p.HasSOARWorker != nil {
		t.Errorf("unanswered flag should stay nil, got %v", *p.HasSOARWorker)
	}
}

func TestMessagesClearScopedAndResets(t *testing.T) {
	t.Parallel()

	repo, resetter, router := newTestAPI(t)
	if err := repo.AppendMessage(context.Background(), domain.Message{ID: "m1", Role: domain.RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	rec := do(t, router, http.MethodGet, "/api/messages", "")
	msgs := decode[[]domain.Message](t, rec)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}

	if rec := do(t, router, http.MethodDelete, "/api/messages", ""); rec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rec.Code)
	}
	if resetter.calls != 1 {
		t.Errorf("resetter calls = %d, want 1", resetter.calls)
	}

	// Actions survive a history clear.
	rec = do(t, router, http.MethodGet, "/api/actions", "")
	if items := decode[[]domain.ActionItem](t, rec); len(items) == 0 {
		t.Error("actions wiped by message clear")
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	repo, _, router := newTestAPI(t)
	if _, err := repo.MergeContext(context.Background(), domain.ContextUpdate{City: "Atlanta"}); err != nil {
		t.Fatalf("MergeContext failed: %v", err)
	}

	rec := do(t, router, http.MethodGet, "/api/context", "")
	uc := decode[domain.UserContext](t, rec)
	if uc.City != "Atlanta" {
		t.Errorf("city = %q, want Atlanta", uc.City)
	}

	if rec := do(t, router, http.MethodDelete, "/api/context", ""); rec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/api/context", "")
	uc = decode[domain.UserContext](t, rec)
	if uc.City != "" {
		t.Errorf("city after clear = %q, want empty", uc.City)
	}
}

func TestMedicationCRUD(t *testing.T) {
	t.Parallel()

	_, _, router := newTestAPI(t)

	rec := do(t, router, http.MethodPost, "/api/medications", `{"name":"Lisinopril","dose":"10mg","frequency":"daily"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[domain.Medication](t, rec)
	if created.ID == 0 {
		t.Fatal("created medication has no id")
	}

	rec = do(t, router, http.MethodGet, "/api/medications", "")
	if items := decode[[]domain.Medication](t, rec); len(items) != 1 {
		t.Fatalf("got %d medications, want 1", len(items))
	}

	if rec := do(t, router, http.MethodPost, "/api/medications", `{"dose":"10mg"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing name status = %d, want 400", rec.Code)
	}

	if rec := do(t, router, http.MethodDelete, "/api/medications/999", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
	rec = do(t, router, http.MethodDelete, "/api/medications/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/api/medications", "")
	if items := decode[[]domain.Medication](t, rec); len(items) != 0 {
		t.Errorf("got %d medications after delete, want 0", len(items))
	}
}

func TestCaseNumberValidation(t *testing.T) {
	t.Parallel()

	_, _, router := newTestAPI(t)
	if rec := do(t, router, http.MethodPost, "/api/casenumbers", `{"type":"SSI"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing number status = %d, want 400", rec.Code)
	}
	rec := do(t, router, http.MethodPost, "/api/casenumbers", `{"type":"SSI","number":"C-12345"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d", rec.Code)
	}
}

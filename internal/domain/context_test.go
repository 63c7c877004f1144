package domain

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestMergeIsIdempotent(t *testing.T) {
	t.Parallel()

	now := time.Now()
	ctx := UserContext{
		Location:           "Frontline Response shelter",
		ContactedResources: []string{"211"},
	}
	update := ContextUpdate{
		City:               "Atlanta",
		ContactedResources: []string{"Grady", "211"},
		Preferences:        []string{"no downtown shelters"},
	}

	once := ctx.Merge(update, now)
	twice := once.Merge(update, now)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
	if got := once.ContactedResources; !reflect.DeepEqual(got, []string{"211", "Grady"}) {
		t.Fatalf("unexpected contacted resources: %v", got)
	}
}

func TestMergeScalarLastWriteWins(t *testing.T) {
	t.Parallel()

	ctx := UserContext{Location: "old shelter", City: "Atlanta"}
	merged := ctx.Merge(ContextUpdate{Location: "Gateway Center"}, time.Now())

	if merged.Location != "Gateway Center" {
		t.Fatalf("expected location overwritten, got %q", merged.Location)
	}
	if merged.City != "Atlanta" {
		t.Fatalf("absent field must mean no change, got city %q", merged.City)
	}
}

func TestMergeEmptyUpdatePreservesSets(t *testing.T) {
	t.Parallel()

	ctx := UserContext{Notes: []string{"poor vision"}}
	merged := ctx.Merge(ContextUpdate{}, time.Now())

	if !reflect.DeepEqual(merged.Notes, []string{"poor vision"}) {
		t.Fatalf("notes changed: %v", merged.Notes)
	}
}

func TestPromptString(t *testing.T) {
	t.Parallel()

	if got := (UserContext{}).PromptString(); got != "" {
		t.Fatalf("empty context should render empty, got %q", got)
	}

	ctx := UserContext{
		Location:           "Frontline Response shelter",
		City:               "Atlanta",
		ContactedResources: []string{"211", "Grady"},
	}
	got := ctx.PromptString()
	for _, want := range []string{
		"Location: Frontline Response shelter in Atlanta",
		"Already contacted: 211, Grady",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q:\n%s", want, got)
		}
	}
}

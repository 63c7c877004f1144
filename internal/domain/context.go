package domain

import (
	"fmt"
	"strings"
	"time"
)

// UserContext holds durable facts about the user inferred from conversation.
// There is exactly one per installation. Scalar fields are last-write-wins;
// the set-valued fields are deduplicated unions.
type UserContext struct {
	Location           string    `json:"location,omitempty"`
	City               string    `json:"city,omitempty"`
	ContactedResources []string  `json:"contactedResources,omitempty"`
	Preferences        []string  `json:"preferences,omitempty"`
	Notes              []string  `json:"notes,omitempty"`
	LastUpdated        time.Time `json:"lastUpdated,omitempty"`
}

// ContextUpdate is a partial update produced by the extractor. A zero-value
// field means "no change", never "clear".
type ContextUpdate struct {
	Location           string   `json:"location,omitempty"`
	City               string   `json:"city,omitempty"`
	ContactedResources []string `json:"contactedResources,omitempty"`
	Preferences        []string `json:"preferences,omitempty"`
	Notes              []string `json:"notes,omitempty"`
}

// IsZero reports whether the update carries no changes at all.
func (u ContextUpdate) IsZero() bool {
	return u.Location == "" && u.City == "" &&
		len(u.ContactedResources) == 0 && len(u.Preferences) == 0 && len(u.Notes) == 0
}

// Merge applies an update and returns the merged context. Re-applying the
// same update is a no-op apart from LastUpdated.
func (c UserContext) Merge(u ContextUpdate, now time.Time) UserContext {
	merged := c
	if u.Location != "" {
		merged.Location = u.Location
	}
	if u.City != "" {
		merged.City = u.City
	}
	merged.ContactedResources = unionStrings(c.ContactedResources, u.ContactedResources)
	merged.Preferences = unionStrings(c.Preferences, u.Preferences)
	merged.Notes = unionStrings(c.Notes, u.Notes)
	merged.LastUpdated = now
	return merged
}

// PromptString renders the context as the "what you remember" block injected
// into the system prompt. Empty context renders as an empty string.
func (c UserContext) PromptString() string {
	var parts []string
	if c.Location != "" {
		line := "Location: " + c.Location
		if c.City != "" {
			line += " in " + c.City
		}
		parts = append(parts, line)
	}
	if len(c.ContactedResources) > 0 {
		parts = append(parts, "Already contacted: "+strings.Join(c.ContactedResources, ", "))
	}
	if len(c.Preferences) > 0 {
		parts = append(parts, "Preferences: "+strings.Join(c.Preferences, ", "))
	}
	if len(c.Notes) > 0 {
		parts = append(parts, "Notes: "+strings.Join(c.Notes, "; "))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("\n\nWhat you remember about the user:\n%s", strings.Join(parts, "\n"))
}

// unionStrings appends entries from add that are not already present,
// preserving first-seen order.
func unionStrings(base, add []string) []string {
	if len(add) == 0 {
		return base
	}
	seen := make(map[string]struct{}, len(base))
	out := make([]string, 0, len(base)+len(add))
	for _, s := range base {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range add {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Package extract derives durable user context from chat messages with
// plain pattern rules. No model call is involved, so extraction is
// deterministic and free.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rmcgowen/haven/internal/domain"
)

// maxFactLen caps a captured fact so one rambling sentence cannot bloat the
// stored context.
const maxFactLen = 120

var (
	locationRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:i'?m|i am|we'?re|we are)\s+(?:currently\s+)?(?:staying|sleeping)\s+(?:at|in)\s+([^.,!?\n]+)`),
		regexp.MustCompile(`(?i)\bstaying\s+at\s+([^.,!?\n]+)`),
	}
	contactedRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:i\s+)?(?:already|just)\s+(?:called|contacted|tried|talked to|reached out to)\s+([^.,!?\n]+)`),
		regexp.MustCompile(`(?i)\bi\s+(?:called|contacted|tried|talked to|reached out to)\s+([^.,!?\n]+)`),
	}
	preferenceRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bi\s+(?:really\s+)?(?:don'?t|do not)\s+want\s+(?:to\s+)?([^.,!?\n]+)`),
		regexp.MustCompile(`(?i)\bi\s+(?:can'?t|cannot)\s+(?:do\s+)?([^.,!?\n]+)`),
		regexp.MustCompile(`(?i)\bi'?d\s+rather\s+not\s+([^.,!?\n]+)`),
	}
)

// knownCities are the metro areas the resource directory covers. City
// detection is a containment check, not a rule capture.
var knownCities = []string{
	"Atlanta",
	"Decatur",
	"Marietta",
	"East Point",
	"College Park",
	"Sandy Springs",
	"Smyrna",
	"Norcross",
}

// Extract scans one user message and returns the context facts it states.
// Rules are ordered; the first match per field wins. Text that matches
// nothing yields a zero update. Extract never fails.
func Extract(text string) domain.ContextUpdate {
	var update domain.ContextUpdate

	update.Location = firstMatch(locationRe, text)

	lower := strings.ToLower(text)
	for _, city := range knownCities {
		if strings.Contains(lower, strings.ToLower(city)) {
			update.City = city
			break
		}
	}

	if resource := firstMatch(contactedRe, text); resource != "" {
		update.ContactedResources = []string{resource}
	}
	if pref := firstMatch(preferenceRe, text); pref != "" {
		update.Preferences = []string{pref}
	}

	return update
}

func firstMatch(rules []*regexp.Regexp, text string) string {
	for _, re := range rules {
		if m := re.FindStringSubmatch(text); m != nil {
			return clean(m[1])
		}
	}
	return ""
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxFactLen {
		cut := maxFactLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = strings.TrimSpace(s[:cut])
	}
	return s
}

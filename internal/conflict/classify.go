// File path: internal/conflict/classify.go

// Package conflict turns the model's reported disagreements into persisted
// conflict records and cross-links them to affected processes.
package conflict

import (
	"strings"

	"github.com/mapline/guestjourney/internal/journey"
)

// classification pairs a field-name substring with the conflict type it
// implies. Order matters: the first matching pattern wins.
var classifications = []struct {
	pattern string
	kind    journey.ConflictType
}{
	{"process", journey.ProcessDiscrepancy},
	{"step", journey.ProcessDiscrepancy},
	{"system", journey.TechnologyMismatch},
	{"tech", journey.TechnologyMismatch},
	{"owner", journey.OwnershipDispute},
	{"responsible", journey.OwnershipDispute},
}

// Classify maps the natural-language field name the model attributed a
// conflict to onto a conflict type. Matching is case-insensitive substring
// over a closed pattern set; anything unmatched is a data inconsistency.
func Classify(field string) journey.ConflictType {
	lowered := strings.ToLower(field)
	for _, c := range classifications {
		if strings.Contains(lowered, c.pattern) {
			return c.kind
		}
	}
	return journey.DataInconsistency
}

package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Pagination limits.
const (
	DefaultLimit = 50
	MaxLimit     = 50
)

// SelectionCriteria is the typed filter built from a user's selections.
// An empty set means "no filter" for that field.
type SelectionCriteria struct {
	Equipment  []Equipment `json:"equipment,omitempty"`
	Muscles    []string    `json:"muscles,omitempty"`
	Difficulty Difficulty  `json:"difficulty,omitempty"`
}

// NewSelectionCriteria trims, dedupes and sorts both sets so that two
// criteria built from the same selections compare equal.
func NewSelectionCriteria(equipment []Equipment, muscles []string) SelectionCriteria {
	eq := make([]Equipment, 0, len(equipment))
	seen := make(map[Equipment]struct{}, len(equipment))
	for _, e := range equipment {
		e = Equipment(strings.TrimSpace(string(e)))
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		eq = append(eq, e)
	}
	sort.Slice(eq, func(i, j int) bool { return eq[i] < eq[j] })

	ms := dedupeTags(muscles)
	sort.Strings(ms)
	return SelectionCriteria{Equipment: eq, Muscles: ms}
}

// ParseCriteria builds criteria from raw user input, canonicalising equipment
// tags. Unknown equipment or difficulty is a validation error.
func ParseCriteria(equipment, muscles []string, difficulty string) (SelectionCriteria, error) {
	eq := make([]Equipment, 0, len(equipment))
	for _, raw := range equipment {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		e, ok := ParseEquipment(raw)
		if !ok {
			return SelectionCriteria{}, Validation(fmt.Sprintf("unrecognized equipment %q", raw))
		}
		eq = append(eq, e)
	}
	c := NewSelectionCriteria(eq, muscles)
	if strings.TrimSpace(difficulty) != "" {
		d, ok := ParseDifficulty(difficulty)
		if !ok {
			return SelectionCriteria{}, Validation(fmt.Sprintf("unrecognized difficulty %q", difficulty))
		}
		c.Difficulty = d
	}
	return c, nil
}

// Validate checks that every equipment tag is canonical.
func (c SelectionCriteria) Validate() error {
	for _, e := range c.Equipment {
		if !e.Valid() {
			return Validation(fmt.Sprintf("unrecognized equipment %q", e))
		}
	}
	if c.Difficulty != "" && !c.Difficulty.Valid() {
		return Validation(fmt.Sprintf("unrecognized difficulty %q", c.Difficulty))
	}
	return nil
}

// Matches applies the filter rules to a single record: any muscle overlap,
// equipment membership, and both combined with AND.
func (c SelectionCriteria) Matches(e *Exercise) bool {
	if len(c.Muscles) > 0 && !e.TargetsAny(c.Muscles) {
		return false
	}
	if len(c.Equipment) > 0 {
		found := false
		for _, want := range c.Equipment {
			if e.Equipment == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.Difficulty != "" && e.Difficulty != c.Difficulty {
		return false
	}
	return true
}

// Pagination is a limit/offset window over a result set.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Normalize returns p with a zero limit defaulted and an oversized limit
// clamped to MaxLimit. Negative values are rejected.
func (p Pagination) Normalize() (Pagination, error) {
	if p.Limit < 0 {
		return p, Validation("limit must not be negative")
	}
	if p.Offset < 0 {
		return p, Validation("offset must not be negative")
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p, nil
}

// ExercisePage is one window of a filter result.
type ExercisePage struct {
	Items  []Exercise `json:"items"`
	Total  int64      `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// CatalogStats summarises the catalog contents.
type CatalogStats struct {
	TotalExercises  int64    `json:"totalExercises"`
	UniqueMuscles   int      `json:"uniqueMuscles"`
	UniqueEquipment int      `json:"uniqueEquipment"`
	Muscles         []string `json:"muscles"`
	Equipment       []string `json:"equipment"`
}

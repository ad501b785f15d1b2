// internal/domain/exercise.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Defaults applied to records that omit prescription fields.
const (
	DefaultReps        = "8-12"
	DefaultSets        = "3-4"
	DefaultRestSeconds = 60
	DefaultRating      = 4.0
	MaxRating          = 5.0
)

// Exercise represents a single exercise record in the catalog.
// Records are read-only to everything except the import path.
type Exercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	PrimaryMuscles   []string  `bson:"primaryMuscles" json:"primaryMuscles"`
	SecondaryMuscles []string  `bson:"secondaryMuscles" json:"secondaryMuscles"`
	Equipment        Equipment `bson:"equipment" json:"equipment"`

	Category   Category   `bson:"category,omitempty" json:"category,omitempty"`
	Difficulty Difficulty `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	Force      string     `bson:"force,omitempty" json:"force,omitempty"`
	Mechanic   string     `bson:"mechanic,omitempty" json:"mechanic,omitempty"`

	Instructions []string `bson:"instructions" json:"instructions"`
	Images       []string `bson:"images" json:"images"`
	Aliases      []string `bson:"aliases,omitempty" json:"aliases,omitempty"`

	Reps        string  `bson:"reps,omitempty" json:"reps,omitempty"`
	Sets        string  `bson:"sets,omitempty" json:"sets,omitempty"`
	RestSeconds int     `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
	Rating      float64 `bson:"rating" json:"rating"`
	UsageCount  int64   `bson:"usageCount" json:"usageCount"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Normalize cleans up an ingested record in place: trims the name, dedupes
// muscle tags, drops blank instructions and fills prescription defaults.
// A zero Rating is treated as "unrated" and gets DefaultRating.
func (e *Exercise) Normalize() {
	e.Name = strings.TrimSpace(e.Name)
	e.Description = strings.TrimSpace(e.Description)
	e.PrimaryMuscles = dedupeTags(e.PrimaryMuscles)
	e.SecondaryMuscles = dedupeTags(e.SecondaryMuscles)
	e.Aliases = dedupeTags(e.Aliases)

	steps := make([]string, 0, len(e.Instructions))
	for _, s := range e.Instructions {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	e.Instructions = steps
	if e.Images == nil {
		e.Images = []string{}
	}

	if e.Reps == "" {
		e.Reps = DefaultReps
	}
	if e.Sets == "" {
		e.Sets = DefaultSets
	}
	if e.RestSeconds <= 0 {
		e.RestSeconds = DefaultRestSeconds
	}
	if e.Rating == 0 {
		e.Rating = DefaultRating
	}
	if e.Category == "" {
		e.Category = CategoryStrength
	}
	if e.Difficulty == "" {
		e.Difficulty = DifficultyIntermediate
	}
}

// Validate reports whether the record is well formed. An empty muscle or
// instruction list means the record was ingested badly.
func (e *Exercise) Validate() error {
	switch {
	case e.Name == "":
		return Validation("exercise name is required")
	case len(e.PrimaryMuscles) == 0:
		return Validation(fmt.Sprintf("exercise %q: at least one primary muscle is required", e.Name))
	case len(e.Instructions) == 0:
		return Validation(fmt.Sprintf("exercise %q: instructions are required", e.Name))
	case !e.Equipment.Valid():
		return Validation(fmt.Sprintf("exercise %q: unknown equipment %q", e.Name, e.Equipment))
	case e.Rating < 0 || e.Rating > MaxRating:
		return Validation(fmt.Sprintf("exercise %q: rating %.1f out of range", e.Name, e.Rating))
	}
	if e.Category != "" && !e.Category.Valid() {
		return Validation(fmt.Sprintf("exercise %q: unknown category %q", e.Name, e.Category))
	}
	if e.Difficulty != "" && !e.Difficulty.Valid() {
		return Validation(fmt.Sprintf("exercise %q: unknown difficulty %q", e.Name, e.Difficulty))
	}
	return nil
}

// AllMuscles returns primary and secondary muscles as one deduplicated list.
func (e *Exercise) AllMuscles() []string {
	all := make([]string, 0, len(e.PrimaryMuscles)+len(e.SecondaryMuscles))
	all = append(all, e.PrimaryMuscles...)
	all = append(all, e.SecondaryMuscles...)
	return dedupeTags(all)
}

// TargetsAny reports whether any primary or secondary muscle is in muscles.
func (e *Exercise) TargetsAny(muscles []string) bool {
	for _, want := range muscles {
		for _, m := range e.PrimaryMuscles {
			if m == want {
				return true
			}
		}
		for _, m := range e.SecondaryMuscles {
			if m == want {
				return true
			}
		}
	}
	return false
}

// dedupeTags trims tags and drops blanks and repeats, keeping first-seen order.
func dedupeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Package catalog reads exercise seed files into domain records.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"muscledynamics/workout-planner/internal/domain"

	"gopkg.in/yaml.v3"
)

// seedRecord is one exercise in free-exercise-db layout. Equipment, level and
// category arrive as free text and are canonicalised on load. Source ids are
// slugs, not catalog ids, so they are not read.
type seedRecord struct {
	Name             string   `json:"name" yaml:"name"`
	Description      string   `json:"description" yaml:"description"`
	Force            *string  `json:"force" yaml:"force"`
	Level            string   `json:"level" yaml:"level"`
	Difficulty       string   `json:"difficulty" yaml:"difficulty"`
	Mechanic         *string  `json:"mechanic" yaml:"mechanic"`
	Equipment        *string  `json:"equipment" yaml:"equipment"`
	PrimaryMuscles   []string `json:"primaryMuscles" yaml:"primaryMuscles"`
	SecondaryMuscles []string `json:"secondaryMuscles" yaml:"secondaryMuscles"`
	Instructions     []string `json:"instructions" yaml:"instructions"`
	Category         string   `json:"category" yaml:"category"`
	Images           []string `json:"images" yaml:"images"`
	Aliases          []string `json:"aliases" yaml:"aliases"`
	Reps             string   `json:"reps" yaml:"reps"`
	Sets             string   `json:"sets" yaml:"sets"`
	RestSeconds      int      `json:"restSeconds" yaml:"restSeconds"`
	Rating           float64  `json:"rating" yaml:"rating"`
}

// Skipped names a seed record that was rejected and why.
type Skipped struct {
	Index  int
	Name   string
	Reason string
}

// Result is what a seed file produced.
type Result struct {
	Exercises []domain.Exercise
	Skipped   []Skipped
}

// LoadFile reads a seed file. ".yaml"/".yml" files are parsed as YAML, anything
// else as a JSON array.
func LoadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

func ParseJSON(data []byte) (*Result, error) {
	var records []seedRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("parse seed JSON: %w", err)
	}
	return convert(records), nil
}

func ParseYAML(data []byte) (*Result, error) {
	var records []seedRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse seed YAML: %w", err)
	}
	return convert(records), nil
}

func convert(records []seedRecord) *Result {
	res := &Result{Exercises: make([]domain.Exercise, 0, len(records))}
	for i := range records {
		ex, err := records[i].toExercise()
		if err == nil {
			ex.Normalize()
			err = ex.Validate()
		}
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Index: i, Name: records[i].Name, Reason: domain.Message(err)})
			continue
		}
		res.Exercises = append(res.Exercises, ex)
	}
	return res
}

func (r *seedRecord) toExercise() (domain.Exercise, error) {
	ex := domain.Exercise{
		Name:             r.Name,
		Description:      r.Description,
		Force:            deref(r.Force),
		Mechanic:         deref(r.Mechanic),
		PrimaryMuscles:   r.PrimaryMuscles,
		SecondaryMuscles: r.SecondaryMuscles,
		Instructions:     r.Instructions,
		Images:           r.Images,
		Aliases:          r.Aliases,
		Reps:             r.Reps,
		Sets:             r.Sets,
		RestSeconds:      r.RestSeconds,
		Rating:           r.Rating,
	}

	// A null equipment in free-exercise-db means nothing is needed.
	ex.Equipment = domain.EquipmentBodyweight
	if raw := deref(r.Equipment); raw != "" {
		eq, ok := domain.ParseEquipment(raw)
		if !ok {
			return ex, domain.Validation(fmt.Sprintf("exercise %q: unknown equipment %q", r.Name, raw))
		}
		ex.Equipment = eq
	}

	level := r.Difficulty
	if level == "" {
		level = r.Level
	}
	if level != "" {
		d, ok := domain.ParseDifficulty(level)
		if !ok {
			return ex, domain.Validation(fmt.Sprintf("exercise %q: unknown level %q", r.Name, level))
		}
		ex.Difficulty = d
	}

	if r.Category != "" {
		c, ok := domain.ParseCategory(r.Category)
		if !ok {
			return ex, domain.Validation(fmt.Sprintf("exercise %q: unknown category %q", r.Name, r.Category))
		}
		ex.Category = c
	}
	return ex, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

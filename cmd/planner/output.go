package main

import (
	"fmt"
	"io"
	"strings"

	"muscledynamics/workout-planner/internal/domain"
	"muscledynamics/workout-planner/internal/wizard"
)

// ANSI color helpers
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

func printOptions(out io.Writer, options, chosen []string) {
	on := make(map[string]bool, len(chosen))
	for _, c := range chosen {
		on[c] = true
	}
	for i, o := range options {
		mark := " "
		if on[o] {
			mark = "x"
		}
		fmt.Fprintf(out, "  %2d [%s] %s\n", i+1, mark, o)
	}
	// chosen tags that are not in the option list still show up
	known := make(map[string]bool, len(options))
	for _, o := range options {
		known[o] = true
	}
	for _, c := range chosen {
		if !known[c] {
			fmt.Fprintf(out, "     [x] %s\n", c)
		}
	}
}

// printList prints numbered exercises. A nil selected map hides pick marks.
func printList(out io.Writer, items []domain.Exercise, selected map[string]bool) {
	for i, ex := range items {
		mark := ""
		if selected != nil {
			mark = "[ ] "
			if selected[ex.ID.Hex()] {
				mark = "[x] "
			}
		}
		fmt.Fprintf(out, "  %2d %s%s%s%s  %s%s | %s | %.1f%s\n",
			i+1, mark, bold, ex.Name, reset,
			dim, ex.Equipment, strings.Join(ex.PrimaryMuscles, ", "), ex.Rating, reset)
	}
}

func printDetails(out io.Writer, ex *domain.Exercise) {
	fmt.Fprintf(out, "\n%s%s%s  %s(%s)%s\n", bold, ex.Name, reset, dim, ex.ID.Hex(), reset)
	fmt.Fprintf(out, "  Equipment: %s\n", ex.Equipment)
	fmt.Fprintf(out, "  Primary:   %s\n", strings.Join(ex.PrimaryMuscles, ", "))
	if len(ex.SecondaryMuscles) > 0 {
		fmt.Fprintf(out, "  Secondary: %s\n", strings.Join(ex.SecondaryMuscles, ", "))
	}
	if ex.Difficulty != "" || ex.Category != "" {
		fmt.Fprintf(out, "  Level:     %s %s\n", ex.Difficulty, ex.Category)
	}
	if ex.Sets != "" {
		fmt.Fprintf(out, "  Sets/Reps: %s x %s, rest %ds\n", ex.Sets, ex.Reps, ex.RestSeconds)
	}
	for i, step := range ex.Instructions {
		fmt.Fprintf(out, "  %d. %s\n", i+1, step)
	}
	for _, img := range ex.Images {
		fmt.Fprintf(out, "  %s%s%s\n", cyan, img, reset)
	}
}

func printWorkout(out io.Writer, w *wizard.Workout) {
	if w == nil {
		return
	}
	fmt.Fprintf(out, "%sWorkout ready%s  %d exercises, ~%d min, %d muscle groups\n",
		green, reset, w.Stats.TotalExercises, w.Stats.EstimatedMinutes, len(w.Stats.PrimaryMuscles))
	fmt.Fprintf(out, "%sEquipment: %s%s\n", dim, strings.Join(w.Stats.EquipmentUsed, ", "), reset)
	for _, s := range w.Schedule {
		fmt.Fprintf(out, "  %-13s %-32s %-10s %s, rest %s\n", s.Time, s.Exercise, s.Equipment, s.Sets, s.Rest)
	}
	fmt.Fprintln(out, w.ShareText())
}

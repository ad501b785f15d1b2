package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"muscledynamics/workout-planner/internal/domain"
	"muscledynamics/workout-planner/internal/wizard"
)

const promptHelp = `Commands:
  <tag>[,<tag>...]  toggle equipment or muscle groups (names or option numbers)
  next | n          continue to the next step
  back | b          return to the previous step
  reset | r         start over
  shuffle | s       shuffle the exercise list
  remove <#>        drop an exercise from the list
  pick <#>          select or unselect an exercise (--explicit)
  info <#>          show full exercise details
  retry             reload muscle and equipment lists
  state             print the wizard state as JSON
  quit | q          leave without a workout`

// prompt is the line-oriented view over a wizard controller.
type prompt struct {
	in   *bufio.Scanner
	out  io.Writer
	ctrl *wizard.Controller
}

func newPrompt(r io.Reader, w io.Writer, ctrl *wizard.Controller) *prompt {
	return &prompt{in: bufio.NewScanner(r), out: w, ctrl: ctrl}
}

// run drives the wizard until the user accepts the summary or quits.
// Quitting returns a nil workout.
func (p *prompt) run(ctx context.Context) (*wizard.Workout, error) {
	if err := p.ctrl.LoadOptions(ctx); err != nil {
		p.warn("Some option lists could not be loaded; type 'retry' to try again.")
	}

	for {
		p.render()
		fmt.Fprint(p.out, "> ")
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return nil, err
			}
			fmt.Fprintln(p.out)
			if p.ctrl.Step() == wizard.StepSummary {
				return p.ctrl.Workout(), nil
			}
			return nil, nil
		}

		line := strings.TrimSpace(p.in.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToLower(cmd) {
		case "":
			if p.ctrl.Step() == wizard.StepSummary {
				return p.ctrl.Workout(), nil
			}
		case "done":
			if p.ctrl.Step() == wizard.StepSummary {
				return p.ctrl.Workout(), nil
			}
			p.warn("Finish the remaining steps first.")
		case "next", "n":
			if err := p.ctrl.Advance(ctx); err != nil {
				p.warn(domain.Message(err))
			}
		case "back", "b":
			p.ctrl.Back()
		case "reset", "r":
			p.ctrl.Reset()
		case "shuffle", "s":
			p.report(p.ctrl.Shuffle())
		case "remove", "x":
			if id, ok := p.itemID(arg); ok {
				_, err := p.ctrl.Remove(id)
				p.report(err)
			}
		case "pick", "p":
			if id, ok := p.itemID(arg); ok {
				_, err := p.ctrl.ToggleSelect(id)
				p.report(err)
			}
		case "info", "i":
			if id, ok := p.itemID(arg); ok {
				ex, err := p.ctrl.Details(ctx, id)
				if err != nil {
					p.warn(domain.Message(err))
					continue
				}
				printDetails(p.out, ex)
			}
		case "retry":
			if err := p.ctrl.LoadOptions(ctx); err != nil {
				p.warn(domain.Message(err))
			}
		case "state":
			data, err := json.MarshalIndent(p.ctrl.State(), "", "  ")
			if err != nil {
				p.warn("Could not encode state: " + err.Error())
				continue
			}
			fmt.Fprintln(p.out, string(data))
		case "help", "?":
			fmt.Fprintln(p.out, promptHelp)
		case "quit", "q":
			return nil, nil
		default:
			p.toggle(line)
		}
	}
}

// toggle treats line as a comma-separated list of tags or option numbers for
// the current selection step.
func (p *prompt) toggle(line string) {
	st := p.ctrl.State()
	var options []string
	var apply func(string) error
	switch st.Step {
	case wizard.StepEquipment:
		options, apply = equipmentOptions(st), p.ctrl.ToggleEquipment
	case wizard.StepMuscles:
		options, apply = st.MuscleOptions, p.ctrl.ToggleMuscle
	default:
		p.warn("Unknown command. Type 'help' for a list.")
		return
	}

	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			if n < 1 || n > len(options) {
				p.warn(fmt.Sprintf("No option %d.", n))
				continue
			}
			part = options[n-1]
		}
		p.report(apply(part))
	}
}

// itemID maps a 1-based list position to an exercise id.
func (p *prompt) itemID(arg string) (string, bool) {
	n, err := strconv.Atoi(arg)
	items := p.ctrl.State().Items
	if err != nil || n < 1 || n > len(items) {
		p.warn("Give an exercise number from the list.")
		return "", false
	}
	return items[n-1].ID.Hex(), true
}

func (p *prompt) render() {
	st := p.ctrl.State()
	fmt.Fprintf(p.out, "\n%s== %s ==%s\n", bold, strings.ToUpper(st.Step.String()), reset)

	switch st.Step {
	case wizard.StepEquipment:
		printOptions(p.out, equipmentOptions(st), st.Equipment)
		fmt.Fprintln(p.out, "Toggle equipment, then 'next'.")
	case wizard.StepMuscles:
		if !st.OptionsLoaded.Muscles {
			fmt.Fprintln(p.out, "Muscle groups are not loaded; type 'retry' or enter tags directly.")
		}
		printOptions(p.out, st.MuscleOptions, st.Muscles)
		fmt.Fprintf(p.out, "%sEquipment: %s%s\n", dim, strings.Join(st.Equipment, ", "), reset)
		fmt.Fprintln(p.out, "Toggle muscle groups, then 'next' to find exercises.")
	case wizard.StepExercises:
		selected := make(map[string]bool, len(st.Selected))
		for _, id := range st.Selected {
			selected[id] = true
		}
		if st.Mode == wizard.ModeImplicit {
			selected = nil
		}
		printList(p.out, st.Items, selected)
		fmt.Fprintf(p.out, "%s%d shown of %d matching%s\n", dim, len(st.Items), st.Total, reset)
	case wizard.StepSummary:
		printWorkout(p.out, st.Workout)
		fmt.Fprintln(p.out, "Press enter to finish, 'back' to edit or 'reset' to start over.")
	}
}

func (p *prompt) report(err error) {
	if err != nil {
		p.warn(domain.Message(err))
	}
}

func (p *prompt) warn(msg string) {
	fmt.Fprintf(p.out, "%s%s%s\n", yellow, msg, reset)
}

// equipmentOptions prefers the catalog's own list and falls back to every
// known kind when it could not be loaded.
func equipmentOptions(st wizard.State) []string {
	if st.OptionsLoaded.Equipment && len(st.EquipmentOptions) > 0 {
		return st.EquipmentOptions
	}
	all := make([]string, len(domain.AllEquipment))
	for i, e := range domain.AllEquipment {
		all[i] = string(e)
	}
	return all
}

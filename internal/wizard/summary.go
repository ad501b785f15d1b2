package wizard

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"muscledynamics/workout-planner/internal/domain"

	"github.com/google/uuid"
)

// MinutesPerExercise is the time budget per exercise, rest included.
const MinutesPerExercise = 5

// Workout is the snapshot taken when the wizard reaches the summary step.
type Workout struct {
	ID        string                   `json:"id"`
	CreatedAt time.Time                `json:"createdAt"`
	Criteria  domain.SelectionCriteria `json:"criteria"`
	Exercises []WorkoutExercise        `json:"exercises"`
	Stats     WorkoutStats             `json:"statistics"`
	Schedule  []ScheduleEntry          `json:"schedule"`
}

type WorkoutExercise struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Equipment      string   `json:"equipment"`
	PrimaryMuscles []string `json:"primaryMuscles"`
	Instruction    string   `json:"instructions,omitempty"`
	Sets           string   `json:"sets"`
	Reps           string   `json:"reps"`
	RestSeconds    int      `json:"restSeconds"`
}

type WorkoutStats struct {
	TotalExercises   int      `json:"totalExercises"`
	EstimatedMinutes int      `json:"estimatedTime"`
	PrimaryMuscles   []string `json:"primaryMuscles"`
	EquipmentUsed    []string `json:"equipmentUsed"`
}

// ScheduleEntry is one slot of the minute-by-minute plan.
type ScheduleEntry struct {
	Index     int    `json:"id"`
	Time      string `json:"time"`
	Exercise  string `json:"exercise"`
	Equipment string `json:"equipment"`
	Sets      string `json:"sets"`
	Rest      string `json:"rest"`
}

// NewWorkout builds the summary for exercises in their current order.
func NewWorkout(criteria domain.SelectionCriteria, exercises []domain.Exercise, now time.Time) *Workout {
	w := &Workout{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
		Criteria:  criteria,
		Exercises: make([]WorkoutExercise, 0, len(exercises)),
		Schedule:  make([]ScheduleEntry, 0, len(exercises)),
	}

	muscles := map[string]struct{}{}
	equipment := map[string]struct{}{}
	for i, ex := range exercises {
		withPrescriptionDefaults(&ex)
		we := WorkoutExercise{
			ID:             ex.ID.Hex(),
			Name:           ex.Name,
			Equipment:      string(ex.Equipment),
			PrimaryMuscles: ex.PrimaryMuscles,
			Sets:           ex.Sets,
			Reps:           ex.Reps,
			RestSeconds:    ex.RestSeconds,
		}
		if len(ex.Instructions) > 0 {
			we.Instruction = ex.Instructions[0]
		}
		w.Exercises = append(w.Exercises, we)

		start := i * MinutesPerExercise
		w.Schedule = append(w.Schedule, ScheduleEntry{
			Index:     i,
			Time:      fmt.Sprintf("%d:00 - %d:00", start, start+MinutesPerExercise),
			Exercise:  ex.Name,
			Equipment: string(ex.Equipment),
			Sets:      ex.Sets + "x" + ex.Reps,
			Rest:      fmt.Sprintf("%ds", ex.RestSeconds),
		})

		for _, m := range ex.PrimaryMuscles {
			muscles[m] = struct{}{}
		}
		equipment[string(ex.Equipment)] = struct{}{}
	}

	w.Stats = WorkoutStats{
		TotalExercises:   len(exercises),
		EstimatedMinutes: len(exercises) * MinutesPerExercise,
		PrimaryMuscles:   keys(muscles),
		EquipmentUsed:    keys(equipment),
	}
	return w
}

// Filename is the suggested export name, e.g. workout-2026-01-31.json.
func (w *Workout) Filename() string {
	return "workout-" + w.CreatedAt.Format("2006-01-02") + ".json"
}

// WriteJSON writes the workout as indented JSON.
func (w *Workout) WriteJSON(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(w)
}

// ShareText is the one-line brag used when sharing a workout.
func (w *Workout) ShareText() string {
	return fmt.Sprintf("I just created a workout with %d exercises targeting %d muscle groups!",
		w.Stats.TotalExercises, len(w.Stats.PrimaryMuscles))
}

// withPrescriptionDefaults fills sets, reps and rest on a copy that did not
// pass through import normalisation (e.g. records from a remote catalog).
func withPrescriptionDefaults(ex *domain.Exercise) {
	if ex.Sets == "" {
		ex.Sets = domain.DefaultSets
	}
	if ex.Reps == "" {
		ex.Reps = domain.DefaultReps
	}
	if ex.RestSeconds <= 0 {
		ex.RestSeconds = domain.DefaultRestSeconds
	}
	if ex.PrimaryMuscles == nil {
		ex.PrimaryMuscles = []string{}
	}
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

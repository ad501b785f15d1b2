// Package wizard drives the equipment → muscles → exercises → summary flow.
// All view state lives in one Controller and changes only through its methods.
package wizard

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"muscledynamics/workout-planner/internal/domain"

	"golang.org/x/sync/errgroup"
)

// Step is a wizard state.
type Step int

const (
	StepEquipment Step = iota
	StepMuscles
	StepExercises
	StepSummary
)

var stepNames = [...]string{"equipment", "muscles", "exercises", "summary"}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

func (s Step) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// SelectionMode decides what the workout is made of.
type SelectionMode int

const (
	// ModeImplicit: every exercise left in the list is part of the workout.
	ModeImplicit SelectionMode = iota
	// ModeExplicit: only exercises the user toggled on are part of the workout.
	ModeExplicit
)

func (m SelectionMode) String() string {
	if m == ModeExplicit {
		return "explicit"
	}
	return "implicit"
}

func (m SelectionMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// DefaultTimeout bounds each catalog call made by the controller.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNoResults: the query succeeded but matched nothing.
	ErrNoResults = errors.New("no results")
	// ErrQueryInFlight: advance was requested while a query is outstanding.
	ErrQueryInFlight = errors.New("query in flight")
	// ErrStaleResponse: a query response arrived after it was superseded.
	ErrStaleResponse = errors.New("stale response")
)

// Catalog is what the wizard needs from the exercise catalog.
type Catalog interface {
	Exercises(ctx context.Context, criteria domain.SelectionCriteria, page domain.Pagination) (*domain.ExercisePage, error)
	Exercise(ctx context.Context, id string) (*domain.Exercise, error)
	Muscles(ctx context.Context) ([]string, error)
	Equipment(ctx context.Context) ([]string, error)
}

type Options struct {
	Mode    SelectionMode
	Limit   int
	Timeout time.Duration
	Rand    *rand.Rand
	Now     func() time.Time
}

// Controller owns the wizard state. It is safe for concurrent use; the only
// suspend point is the catalog query issued when leaving the muscles step.
type Controller struct {
	catalog Catalog
	opts    Options

	mu        sync.Mutex
	step      Step
	equipment map[domain.Equipment]struct{}
	muscles   map[string]struct{}
	selection *Selection
	total     int64
	workout   *Workout

	// seq is the last issued query number; inflight is the one whose
	// response will be applied, or 0 when none is outstanding.
	seq      uint64
	inflight uint64

	muscleOptions    []string
	equipmentOptions []string
}

func NewController(catalog Catalog, opts Options) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Limit <= 0 || opts.Limit > domain.MaxLimit {
		opts.Limit = domain.MaxLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		catalog:   catalog,
		opts:      opts,
		equipment: make(map[domain.Equipment]struct{}),
		muscles:   make(map[string]struct{}),
	}
}

// ToggleEquipment adds tag to the criteria, or removes it if already present.
// Tags are matched case-insensitively against the known equipment kinds.
// Equipment can only change in the equipment step.
func (c *Controller) ToggleEquipment(tag string) error {
	eq, ok := domain.ParseEquipment(tag)
	if !ok {
		return domain.Validation("Unknown equipment: " + strings.TrimSpace(tag))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step != StepEquipment {
		return domain.Validation("Go back to the equipment step to change equipment.")
	}
	if _, on := c.equipment[eq]; on {
		delete(c.equipment, eq)
	} else {
		c.equipment[eq] = struct{}{}
	}
	c.invalidateQuery()
	return nil
}

// ToggleMuscle adds or removes a muscle tag. Muscles may be preselected in the
// equipment step but are fixed once exercises have been loaded.
func (c *Controller) ToggleMuscle(tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return domain.Validation("Muscle group must not be empty.")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step != StepEquipment && c.step != StepMuscles {
		return domain.Validation("Go back to the muscles step to change muscle groups.")
	}
	if _, on := c.muscles[tag]; on {
		delete(c.muscles, tag)
	} else {
		c.muscles[tag] = struct{}{}
	}
	c.invalidateQuery()
	return nil
}

// invalidateQuery drops any outstanding query so its response is discarded.
// Callers hold c.mu.
func (c *Controller) invalidateQuery() {
	c.inflight = 0
}

// Criteria returns the current selections as a typed filter.
func (c *Controller) Criteria() domain.SelectionCriteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.criteriaLocked()
}

func (c *Controller) criteriaLocked() domain.SelectionCriteria {
	eq := make([]domain.Equipment, 0, len(c.equipment))
	for e := range c.equipment {
		eq = append(eq, e)
	}
	ms := make([]string, 0, len(c.muscles))
	for m := range c.muscles {
		ms = append(ms, m)
	}
	return domain.NewSelectionCriteria(eq, ms)
}

func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Advance moves to the next step if its guard holds. Leaving the muscles step
// runs the filter query; on failure or an empty result the wizard stays put.
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	switch c.step {
	case StepEquipment:
		defer c.mu.Unlock()
		if len(c.equipment) == 0 {
			return domain.Validation("Select at least one piece of equipment.")
		}
		c.step = StepMuscles
		return nil

	case StepMuscles:
		c.mu.Unlock()
		seq, criteria, err := c.BeginQuery()
		if err != nil {
			return err
		}
		page, err := c.fetch(ctx, criteria)
		return c.CompleteQuery(seq, page, err)

	case StepExercises:
		defer c.mu.Unlock()
		chosen := c.selection.Chosen(c.opts.Mode)
		if len(chosen) == 0 {
			if c.opts.Mode == ModeExplicit {
				return domain.Validation("Select at least one exercise.")
			}
			return domain.Validation("Keep at least one exercise in the list.")
		}
		c.workout = NewWorkout(c.criteriaLocked(), chosen, c.opts.Now())
		c.step = StepSummary
		return nil

	default:
		defer c.mu.Unlock()
		return domain.Validation("Workout is complete. Reset to start over.")
	}
}

func (c *Controller) fetch(ctx context.Context, criteria domain.SelectionCriteria) (*domain.ExercisePage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	page, err := c.catalog.Exercises(ctx, criteria, domain.Pagination{Limit: c.opts.Limit})
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrQuery) {
		err = domain.Query("Request timed out. Please retry.", err)
	}
	return page, err
}

// BeginQuery marks a new query as outstanding and returns its sequence number
// and the criteria to run. It fails if the guard does not hold or another
// query is already outstanding.
func (c *Controller) BeginQuery() (uint64, domain.SelectionCriteria, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step != StepMuscles {
		return 0, domain.SelectionCriteria{}, domain.Validation("Exercises can only be loaded from the muscles step.")
	}
	if len(c.equipment) == 0 {
		return 0, domain.SelectionCriteria{}, domain.Validation("Select at least one piece of equipment.")
	}
	if len(c.muscles) == 0 {
		return 0, domain.SelectionCriteria{}, domain.Validation("Select at least one muscle group.")
	}
	if c.inflight != 0 {
		return 0, domain.SelectionCriteria{}, ErrQueryInFlight
	}
	c.seq++
	c.inflight = c.seq
	return c.seq, c.criteriaLocked(), nil
}

// CompleteQuery applies the outcome of query seq. Responses to superseded
// queries are discarded with ErrStaleResponse and change nothing.
func (c *Controller) CompleteQuery(seq uint64, page *domain.ExercisePage, queryErr error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq == 0 || seq != c.inflight {
		log.Printf("INFO: Discarding stale response for query %d (current %d)", seq, c.inflight)
		return ErrStaleResponse
	}
	c.inflight = 0

	if queryErr != nil {
		if !errors.Is(queryErr, domain.ErrQuery) && !errors.Is(queryErr, domain.ErrValidation) {
			queryErr = domain.Query("Failed to load exercises. Please retry.", queryErr)
		}
		return queryErr
	}
	if page == nil || len(page.Items) == 0 {
		return &domain.Error{Kind: ErrNoResults, Message: "No exercises found for selected criteria. Try different selections."}
	}

	c.selection = NewSelection(page.Items, c.opts.Rand)
	c.total = page.Total
	c.workout = nil
	c.step = StepExercises
	return nil
}

// Loading reports whether a query is outstanding.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight != 0
}

// Back returns to the previous step, keeping criteria and the result page.
// An outstanding query is abandoned.
func (c *Controller) Back() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateQuery()
	switch c.step {
	case StepMuscles:
		c.step = StepEquipment
	case StepExercises:
		c.step = StepMuscles
	case StepSummary:
		c.workout = nil
		c.step = StepExercises
	}
	return c.step
}

// Reset clears criteria and results and returns to the equipment step.
// Loaded option lists survive.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = StepEquipment
	c.equipment = make(map[domain.Equipment]struct{})
	c.muscles = make(map[string]struct{})
	c.selection = nil
	c.total = 0
	c.workout = nil
	c.invalidateQuery()
}

func (c *Controller) editable() (*Selection, error) {
	if c.step != StepExercises || c.selection == nil {
		return nil, domain.Validation("The exercise list can only be changed in the exercises step.")
	}
	return c.selection, nil
}

// Shuffle randomises the order of the exercise list.
func (c *Controller) Shuffle() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel, err := c.editable()
	if err != nil {
		return err
	}
	sel.Shuffle()
	return nil
}

// Remove drops an exercise from the list. Unknown ids are a no-op.
func (c *Controller) Remove(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel, err := c.editable()
	if err != nil {
		return false, err
	}
	return sel.Remove(id), nil
}

// ToggleSelect marks or unmarks an exercise. Unknown ids are a no-op.
func (c *Controller) ToggleSelect(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel, err := c.editable()
	if err != nil {
		return false, err
	}
	return sel.ToggleSelect(id), nil
}

// Details fetches the full record for id. A record that no longer exists is
// dropped from the local list.
func (c *Controller) Details(ctx context.Context, id string) (*domain.Exercise, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	ex, err := c.catalog.Exercise(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.mu.Lock()
			if c.selection != nil {
				c.selection.Remove(id)
			}
			c.mu.Unlock()
			return nil, domain.NotFound("Exercise no longer available.")
		}
		return nil, err
	}
	return ex, nil
}

// LoadOptions fetches the muscle and equipment tag lists that are not loaded
// yet. The two fetches are independent: one failing leaves the other in place,
// and calling LoadOptions again retries only what is missing.
func (c *Controller) LoadOptions(ctx context.Context) error {
	c.mu.Lock()
	needMuscles := c.muscleOptions == nil
	needEquipment := c.equipmentOptions == nil
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var (
		g                   errgroup.Group
		muscles, equipment  []string
		muscleErr, equipErr error
	)
	if needMuscles {
		g.Go(func() error {
			muscles, muscleErr = c.catalog.Muscles(ctx)
			return nil
		})
	}
	if needEquipment {
		g.Go(func() error {
			equipment, equipErr = c.catalog.Equipment(ctx)
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if needMuscles && muscleErr == nil {
		c.muscleOptions = nonNilTags(muscles)
	}
	if needEquipment && equipErr == nil {
		c.equipmentOptions = nonNilTags(equipment)
	}
	if muscleErr != nil {
		log.Printf("WARN: Failed to load muscle groups: %v", muscleErr)
	}
	if equipErr != nil {
		log.Printf("WARN: Failed to load equipment: %v", equipErr)
	}
	return errors.Join(muscleErr, equipErr)
}

func nonNilTags(tags []string) []string {
	out := append([]string{}, tags...)
	sort.Strings(out)
	return out
}

// Workout returns the summary snapshot, or nil before the summary step.
func (c *Controller) Workout() *Workout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workout
}

// State is a serialisable snapshot of everything the view renders.
type State struct {
	Step             Step              `json:"step"`
	Mode             SelectionMode     `json:"mode"`
	Equipment        []string          `json:"equipment"`
	Muscles          []string          `json:"muscles"`
	Loading          bool              `json:"loading"`
	Items            []domain.Exercise `json:"items,omitempty"`
	Selected         []string          `json:"selected,omitempty"`
	Total            int64             `json:"total"`
	Workout          *Workout          `json:"workout,omitempty"`
	MuscleOptions    []string          `json:"muscleOptions,omitempty"`
	EquipmentOptions []string          `json:"equipmentOptions,omitempty"`
	OptionsLoaded    OptionsLoaded     `json:"optionsLoaded"`
}

type OptionsLoaded struct {
	Muscles   bool `json:"muscles"`
	Equipment bool `json:"equipment"`
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	crit := c.criteriaLocked()
	st := State{
		Step:             c.step,
		Mode:             c.opts.Mode,
		Equipment:        make([]string, 0, len(crit.Equipment)),
		Muscles:          crit.Muscles,
		Loading:          c.inflight != 0,
		Total:            c.total,
		Workout:          c.workout,
		MuscleOptions:    c.muscleOptions,
		EquipmentOptions: c.equipmentOptions,
		OptionsLoaded: OptionsLoaded{
			Muscles:   c.muscleOptions != nil,
			Equipment: c.equipmentOptions != nil,
		},
	}
	for _, e := range crit.Equipment {
		st.Equipment = append(st.Equipment, string(e))
	}
	if c.selection != nil {
		st.Items = c.selection.Items()
		st.Selected = c.selection.SelectedIDs()
	}
	return st
}

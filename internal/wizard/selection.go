package wizard

import (
	"math/rand/v2"

	"muscledynamics/workout-planner/internal/domain"
)

// Selection is the locally mutable view over one fetched result page.
// Every selected id is also present in items; Remove keeps that true.
// A Selection is not safe for concurrent use; Controller serialises access.
type Selection struct {
	items    []domain.Exercise
	selected map[string]struct{}
	rng      *rand.Rand
}

// NewSelection copies items into a fresh selection. A nil rng uses the
// package-level generator.
func NewSelection(items []domain.Exercise, rng *rand.Rand) *Selection {
	cp := make([]domain.Exercise, len(items))
	copy(cp, items)
	return &Selection{items: cp, selected: make(map[string]struct{}), rng: rng}
}

// Items returns the current order of the list.
func (s *Selection) Items() []domain.Exercise {
	out := make([]domain.Exercise, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Selection) Len() int { return len(s.items) }

// Shuffle permutes the list in place with Durstenfeld's Fisher-Yates:
// each index from the last down to 1 swaps with a uniform index at or below it.
func (s *Selection) Shuffle() {
	for i := len(s.items) - 1; i > 0; i-- {
		j := s.intN(i + 1)
		s.items[i], s.items[j] = s.items[j], s.items[i]
	}
}

func (s *Selection) intN(n int) int {
	if s.rng != nil {
		return s.rng.IntN(n)
	}
	return rand.IntN(n)
}

// Remove drops the item with id and its selection mark. Removing an absent id
// is a no-op and reports false.
func (s *Selection) Remove(id string) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	delete(s.selected, id)
	return true
}

// ToggleSelect flips the selection mark on id. Ids not in the list are ignored.
func (s *Selection) ToggleSelect(id string) bool {
	if s.indexOf(id) < 0 {
		return false
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
	} else {
		s.selected[id] = struct{}{}
	}
	return true
}

func (s *Selection) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// Selected returns the marked items in list order.
func (s *Selection) Selected() []domain.Exercise {
	out := make([]domain.Exercise, 0, len(s.selected))
	for _, ex := range s.items {
		if _, ok := s.selected[ex.ID.Hex()]; ok {
			out = append(out, ex)
		}
	}
	return out
}

// SelectedIDs returns the marked ids in list order.
func (s *Selection) SelectedIDs() []string {
	out := make([]string, 0, len(s.selected))
	for _, ex := range s.items {
		id := ex.ID.Hex()
		if _, ok := s.selected[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Chosen returns the items that make up the workout under mode.
func (s *Selection) Chosen(mode SelectionMode) []domain.Exercise {
	if mode == ModeExplicit {
		return s.Selected()
	}
	return s.Items()
}

func (s *Selection) Get(id string) (domain.Exercise, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Exercise{}, false
	}
	return s.items[idx], true
}

func (s *Selection) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID.Hex() == id {
			return i
		}
	}
	return -1
}

package domain

import "strings"

// Equipment is one tag from the closed equipment enumeration.
type Equipment string

const (
	EquipmentDumbbell       Equipment = "Dumbbell"
	EquipmentBarbell        Equipment = "Barbell"
	EquipmentKettlebell     Equipment = "Kettlebell"
	EquipmentMachine        Equipment = "Machine"
	EquipmentCable          Equipment = "Cable"
	EquipmentBench          Equipment = "Bench"
	EquipmentBodyweight     Equipment = "Bodyweight"
	EquipmentMedicineBall   Equipment = "Medicine Ball"
	EquipmentEZBar          Equipment = "EZ Bar"
	EquipmentResistanceBand Equipment = "Resistance Band"
	EquipmentSmithMachine   Equipment = "Smith Machine"
	EquipmentFoamRoll       Equipment = "Foam Roll"
	EquipmentPullUpBar      Equipment = "Pull-up Bar"
	EquipmentTrapBar        Equipment = "Trap Bar"
)

// AllEquipment lists every known equipment kind in declaration order.
var AllEquipment = []Equipment{
	EquipmentDumbbell,
	EquipmentBarbell,
	EquipmentKettlebell,
	EquipmentMachine,
	EquipmentCable,
	EquipmentBench,
	EquipmentBodyweight,
	EquipmentMedicineBall,
	EquipmentEZBar,
	EquipmentResistanceBand,
	EquipmentSmithMachine,
	EquipmentFoamRoll,
	EquipmentPullUpBar,
	EquipmentTrapBar,
}

// equipmentAliases maps lower-cased spellings used by free-exercise-db and
// hand-typed input to the canonical tag.
var equipmentAliases = map[string]Equipment{
	"body only":      EquipmentBodyweight,
	"bodyweight":     EquipmentBodyweight,
	"none":           EquipmentBodyweight,
	"dumbbells":      EquipmentDumbbell,
	"kettlebells":    EquipmentKettlebell,
	"e-z curl bar":   EquipmentEZBar,
	"ez curl bar":    EquipmentEZBar,
	"ez-bar":         EquipmentEZBar,
	"bands":          EquipmentResistanceBand,
	"band":           EquipmentResistanceBand,
	"foam roller":    EquipmentFoamRoll,
	"pullup bar":     EquipmentPullUpBar,
	"pull up bar":    EquipmentPullUpBar,
	"hex bar":        EquipmentTrapBar,
	"smith":          EquipmentSmithMachine,
	"medicine balls": EquipmentMedicineBall,
}

// ParseEquipment resolves s to a canonical Equipment tag, ignoring case and
// surrounding whitespace.
func ParseEquipment(s string) (Equipment, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", false
	}
	for _, e := range AllEquipment {
		if strings.ToLower(string(e)) == key {
			return e, true
		}
	}
	e, ok := equipmentAliases[key]
	return e, ok
}

// Valid reports whether e is a canonical tag.
func (e Equipment) Valid() bool {
	for _, known := range AllEquipment {
		if e == known {
			return true
		}
	}
	return false
}

// Category classifies the kind of training an exercise belongs to.
type Category string

const (
	CategoryStrength    Category = "strength"
	CategoryCardio      Category = "cardio"
	CategoryFlexibility Category = "flexibility"
	CategoryBalance     Category = "balance"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryStrength, CategoryCardio, CategoryFlexibility, CategoryBalance:
		return true
	}
	return false
}

// ParseCategory maps free-exercise-db categories onto the four kinds we keep.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strength", "powerlifting", "olympic weightlifting", "strongman", "plyometrics":
		return CategoryStrength, true
	case "cardio":
		return CategoryCardio, true
	case "stretching", "flexibility":
		return CategoryFlexibility, true
	case "balance":
		return CategoryBalance, true
	}
	return "", false
}

// Difficulty is the experience level an exercise is aimed at.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// ParseDifficulty accepts the three levels plus free-exercise-db's "expert".
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		return DifficultyBeginner, true
	case "intermediate":
		return DifficultyIntermediate, true
	case "advanced", "expert":
		return DifficultyAdvanced, true
	}
	return "", false
}

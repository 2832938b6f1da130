// Package scoring computes the weighted daily score and the message
// shown alongside it. Both are pure functions of their inputs.
package scoring

import (
	"math"

	"github.com/nhle/habit-engine/internal/model"
)

// Habit weights. The two keystone habits (staying off social media and
// finishing the elephant task) carry more weight than the two
// maintenance habits. Weights must sum to 1.0.
const (
	WeightDrinkWater    = 0.20
	WeightNoSocialMedia = 0.30
	WeightSunlight      = 0.20
	WeightElephantTask  = 0.30
)

func init() {
	// Runtime validation: ensure habit weights sum to 1.0
	if WeightDrinkWater+WeightNoSocialMedia+WeightSunlight+WeightElephantTask != 1.0 {
		panic("habit weights must sum to 1.0")
	}
}

// Score maps a habit checklist to an integer score in [0, 100].
func Score(flags model.HabitFlags) int {
	total := 0.0
	if flags.DrinkWater {
		total += WeightDrinkWater
	}
	if flags.NoSocialMedia {
		total += WeightNoSocialMedia
	}
	if flags.Sunlight {
		total += WeightSunlight
	}
	if flags.ElephantTask {
		total += WeightElephantTask
	}
	return int(math.Round(total * 100))
}

// Message returns the motivational message for a score. Banding is
// deterministic: the same score always yields the same message.
func Message(score int) string {
	switch {
	case score >= 90:
		return "CRUSHING IT! You're unstoppable!"
	case score >= 75:
		return "STRONG performance! Keep building momentum!"
	case score >= 50:
		return "SOLID effort! Tomorrow's your chance to level up!"
	case score >= 30:
		return "PROGRESS over perfection! You're building something great!"
	default:
		return "Every CHAMPION has off days. Ready to bounce back?"
	}
}

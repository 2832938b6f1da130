package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/habit-engine/internal/model"
)

func TestScore_TypicalChecklist(t *testing.T) {
	// drinkWater + noSocialMedia + elephantTask = 0.20 + 0.30 + 0.30 = 80.
	flags := model.HabitFlags{
		DrinkWater:    true,
		NoSocialMedia: true,
		Sunlight:      false,
		ElephantTask:  true,
	}

	score := Score(flags)
	assert.Equal(t, 80, score)
	assert.Equal(t, "STRONG performance! Keep building momentum!", Message(score))
}

func TestScore_Bounds(t *testing.T) {
	assert.Equal(t, 0, Score(model.HabitFlags{}))
	assert.Equal(t, 100, Score(model.HabitFlags{
		DrinkWater:    true,
		NoSocialMedia: true,
		Sunlight:      true,
		ElephantTask:  true,
	}))
}

func TestScore_AllCombinationsInRange(t *testing.T) {
	for mask := 0; mask < 16; mask++ {
		flags := model.HabitFlags{
			DrinkWater:    mask&1 != 0,
			NoSocialMedia: mask&2 != 0,
			Sunlight:      mask&4 != 0,
			ElephantTask:  mask&8 != 0,
		}

		score := Score(flags)
		assert.GreaterOrEqual(t, score, 0, "flags %+v", flags)
		assert.LessOrEqual(t, score, 100, "flags %+v", flags)

		// Pure function: same flags, same score.
		assert.Equal(t, score, Score(flags))
	}
}

func TestScore_KeystoneHabitsWeighHeavier(t *testing.T) {
	maintenance := Score(model.HabitFlags{DrinkWater: true, Sunlight: true})
	keystone := Score(model.HabitFlags{NoSocialMedia: true, ElephantTask: true})

	assert.Equal(t, 40, maintenance)
	assert.Equal(t, 60, keystone)
}

func TestMessage_Bands(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "CRUSHING IT! You're unstoppable!"},
		{90, "CRUSHING IT! You're unstoppable!"},
		{89, "STRONG performance! Keep building momentum!"},
		{75, "STRONG performance! Keep building momentum!"},
		{74, "SOLID effort! Tomorrow's your chance to level up!"},
		{50, "SOLID effort! Tomorrow's your chance to level up!"},
		{49, "PROGRESS over perfection! You're building something great!"},
		{30, "PROGRESS over perfection! You're building something great!"},
		{29, "Every CHAMPION has off days. Ready to bounce back?"},
		{0, "Every CHAMPION has off days. Ready to bounce back?"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Message(tt.score), "score %d", tt.score)
	}
}

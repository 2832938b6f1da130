package engine

import (
	"time"

	"github.com/nhle/habit-engine/internal/model"
)

// WakeTime is the user's configured wake-up time.
type WakeTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ReminderInstruction computes when the host's notification scheduler
// should fire the daily routine reminder: the configured delay after
// wake time (default 90 minutes), rolled to tomorrow if that moment has
// already passed today. The engine only computes the instruction; the
// scheduler downstream owns delivery.
func (e *Engine) ReminderInstruction(wake WakeTime) model.ReminderInstruction {
	now := e.clock.Now()

	fireAt := time.Date(now.Year(), now.Month(), now.Day(),
		wake.Hour, wake.Minute, 0, 0, now.Location()).Add(e.reminderDelay)
	if !fireAt.After(now) {
		fireAt = fireAt.AddDate(0, 0, 1)
	}

	return model.ReminderInstruction{
		FireAt: fireAt,
		Repeat: model.RepeatDaily,
	}
}

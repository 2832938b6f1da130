package sync

import (
	"context"
	gosync "sync"

	"github.com/nhle/habit-engine/internal/model"
)

// Subscription is a live view of one user's submission for today.
// Delivery is latest-value-only: a slow consumer sees the most recent
// state, never a backlog. Cancel stops delivery; no value arrives after
// Cancel returns.
type Subscription struct {
	c            *Coordinator
	userID       string
	id           int
	ch           chan *model.Submission
	cancelRemote func()
	once         gosync.Once
}

// Updates returns the delivery channel. A nil value means no submission
// exists for today. The channel is closed by Cancel.
func (s *Subscription) Updates() <-chan *model.Submission {
	return s.ch
}

// Cancel stops delivery and releases the subscription.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		if s.cancelRemote != nil {
			s.cancelRemote()
		}

		s.c.mu.Lock()
		if subs, ok := s.c.subs[s.userID]; ok {
			delete(subs, s.id)
			if len(subs) == 0 {
				delete(s.c.subs, s.userID)
			}
		}
		close(s.ch)
		s.c.mu.Unlock()
	})
}

// SubscribeToday returns a Subscription for the user's current app-day.
// The current state (local if present, remote-confirmed if the remote
// already has today's record) is delivered first; local writes and
// remote confirmations follow in the order they happen.
func (c *Coordinator) SubscribeToday(userID string) *Subscription {
	today := c.cal.AppDay(c.clock.Now())

	c.mu.Lock()
	sub := &Subscription{
		c:      c,
		userID: userID,
		id:     c.nextSubID,
		// Single-slot buffer: publish replaces any undelivered value.
		ch: make(chan *model.Submission, 1),
	}
	c.nextSubID++
	if c.subs[userID] == nil {
		c.subs[userID] = make(map[int]*Subscription)
	}
	c.subs[userID][sub.id] = sub
	c.mu.Unlock()

	// Seed with the local record so callers see state immediately.
	ctx, cancel := context.WithTimeout(context.Background(), remoteWriteTimeout)
	current, err := c.store.GetSubmission(ctx, userID, today)
	cancel()
	if err != nil {
		c.logger.Warn("reading local submission for subscription", "user", userID, "error", err)
	}
	c.publishTo(sub, current)

	// Follow the remote document too, so a submission from another
	// device shows up without a local write.
	cancelRemote, err := c.remote.SubscribeToday(userID, today, func(remoteSub *model.Submission) {
		if remoteSub != nil {
			c.publishTo(sub, remoteSub)
		}
	})
	if err != nil {
		c.logger.Warn("remote subscription unavailable", "user", userID, "error", err)
	} else {
		sub.cancelRemote = cancelRemote
	}

	return sub
}

// publish delivers sub to every subscriber of userID, but only when the
// value is for the subscriber's day (today).
func (c *Coordinator) publish(userID string, value *model.Submission) {
	c.mu.Lock()
	targets := make([]*Subscription, 0, len(c.subs[userID]))
	for _, s := range c.subs[userID] {
		targets = append(targets, s)
	}
	c.mu.Unlock()

	today := c.cal.AppDay(c.clock.Now())
	if value != nil && value.AppDay != today {
		return
	}
	for _, s := range targets {
		c.publishTo(s, value)
	}
}

// publishTo replaces the subscription's undelivered value, if any, with
// the new one. Holding mu while checking membership keeps sends and
// Cancel's close serialized.
func (c *Coordinator) publishTo(s *Subscription, value *model.Submission) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.subs[s.userID][s.id]; !ok {
		return
	}

	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- value:
	default:
	}
}

// PublishLocal pushes a locally-accepted submission to today's
// subscribers. The engine calls this right after the local persist so
// the UI updates before any network round-trip.
func (c *Coordinator) PublishLocal(sub model.Submission) {
	c.publish(sub.UserID, &sub)
}

package pour

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-errors/errors"
)

// Driver switches pump channels. It is assumed to be synchronous and to never
// fail from the scheduler's point of view.
type Driver interface {
	SetChannel(channel int, on bool)
}

// Handle tracks one executing plan.
type Handle struct {
	Plan  *Plan
	Start time.Time
	End   time.Time

	done       chan struct{}
	completed  bool
	cancelled  bool
	pending    int
	live       map[int]bool
	onComplete func(*Handle)
}

// ID returns the id of the executing plan.
func (h *Handle) ID() string {
	return h.Plan.ID
}

// Done is closed once the plan has finished or was cancelled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Completed reports whether the plan has finished or was cancelled.
func (h *Handle) Completed() bool {
	return h.completed
}

// Cancelled reports whether the plan was ended by Cancel.
func (h *Handle) Cancelled() bool {
	return h.cancelled
}

type Config struct {
	Driver   Driver
	Channels int
	Logger   Logger
}

// Scheduler executes plans against a driver. It owns the energized state of
// every channel. It is not safe for concurrent use; callers drive it from a
// single loop and call Fire whenever NextDeadline has passed.
type Scheduler struct {
	driver    Driver
	log       Logger
	energized []bool
	owner     []*Handle
	queue     *eventQueue
	handles   map[*Handle]struct{}
}

func NewScheduler(config *Config) *Scheduler {
	s := &Scheduler{
		driver:    config.Driver,
		energized: make([]bool, config.Channels),
		owner:     make([]*Handle, config.Channels),
		queue:     newEventQueue(),
		handles:   make(map[*Handle]struct{}),
	}

	if config.Logger != nil {
		s.log = config.Logger
	} else {
		s.log = noopLogger{}
	}

	return s
}

// Execute queues the energize and de-energize events of every step of plan,
// relative to now. onComplete, if set, runs when the last de-energize event
// has fired or the handle is cancelled.
func (s *Scheduler) Execute(plan *Plan, now time.Time, onComplete func(*Handle)) (*Handle, error) {
	if err := Validate(plan); err != nil {
		return nil, err
	}

	for _, ch := range plan.Channels() {
		if ch < 0 || ch >= len(s.energized) {
			return nil, errors.WrapPrefix(ErrInvalidChannel,
				fmt.Sprintf("channel %d not in [0, %d)", ch, len(s.energized)), 0)
		}

		if owner := s.owner[ch]; owner != nil {
			return nil, errors.WrapPrefix(ErrOverlappingChannelUse,
				fmt.Sprintf("channel %d is still used by plan %s", ch, owner.ID()), 0)
		}
	}

	h := &Handle{
		Plan:       plan,
		Start:      now,
		End:        now.Add(plan.Total),
		done:       make(chan struct{}),
		pending:    len(plan.Steps),
		live:       make(map[int]bool),
		onComplete: onComplete,
	}

	for _, ch := range plan.Channels() {
		s.owner[ch] = h
	}

	for _, step := range plan.Steps {
		s.queue.push(&event{at: now.Add(step.Offset), on: true, channel: step.Channel, handle: h})
		s.queue.push(&event{at: now.Add(step.End()), on: false, channel: step.Channel, handle: h})
	}

	s.handles[h] = struct{}{}

	s.log.Infof("Executing %s plan %s (%s) with %d steps over %v",
		plan.Kind, plan.ID, plan.Label, len(plan.Steps), plan.Total)

	return h, nil
}

// Fire runs every event due at or before now, in time order, and returns the
// number of events fired.
func (s *Scheduler) Fire(now time.Time) int {
	fired := 0

	for s.queue.len() > 0 && !s.queue.peek().at.After(now) {
		e := s.queue.pop()
		fired++

		if e.on {
			s.energize(e)
		} else {
			s.deenergize(e)
		}
	}

	return fired
}

// NextDeadline returns the time of the earliest pending event.
func (s *Scheduler) NextDeadline() (time.Time, bool) {
	if s.queue.len() == 0 {
		return time.Time{}, false
	}

	return s.queue.peek().at, true
}

// Cancel immediately de-energizes every channel the handle still holds,
// drops its pending events and completes it. It returns false if the handle
// had already completed.
func (s *Scheduler) Cancel(h *Handle) bool {
	if h == nil || h.completed {
		return false
	}

	channels := make([]int, 0, len(h.live))
	for ch := range h.live {
		channels = append(channels, ch)
	}
	sort.Ints(channels)

	for _, ch := range channels {
		s.release(h, ch)
	}

	s.queue.removeHandle(h)
	h.cancelled = true

	s.log.Warnf("Cancelled plan %s (%s)", h.ID(), h.Plan.Label)

	s.complete(h)

	return true
}

// CancelAll cancels every running plan and returns how many were cancelled.
func (s *Scheduler) CancelAll() int {
	handles := make([]*Handle, 0, len(s.handles))
	for h := range s.handles {
		handles = append(handles, h)
	}

	cancelled := 0
	for _, h := range handles {
		if s.Cancel(h) {
			cancelled++
		}
	}

	return cancelled
}

// Energized reports whether the scheduler currently holds channel on.
func (s *Scheduler) Energized(channel int) bool {
	if channel < 0 || channel >= len(s.energized) {
		return false
	}

	return s.energized[channel]
}

// Running returns the number of plans that have not completed yet.
func (s *Scheduler) Running() int {
	return len(s.handles)
}

func (s *Scheduler) energize(e *event) {
	if s.energized[e.channel] {
		// Validation and channel ownership make this unreachable.
		s.log.Errorf("Channel %d is already energized, not energizing again for plan %s",
			e.channel, e.handle.ID())
		return
	}

	s.log.Debugf("Energizing channel %d for plan %s", e.channel, e.handle.ID())

	s.energized[e.channel] = true
	e.handle.live[e.channel] = true
	s.driver.SetChannel(e.channel, true)
}

func (s *Scheduler) deenergize(e *event) {
	s.log.Debugf("De-energizing channel %d for plan %s", e.channel, e.handle.ID())

	s.release(e.handle, e.channel)

	e.handle.pending--
	if e.handle.pending == 0 {
		s.complete(e.handle)
	}
}

func (s *Scheduler) release(h *Handle, ch int) {
	if !h.live[ch] {
		return
	}

	delete(h.live, ch)
	s.energized[ch] = false
	s.driver.SetChannel(ch, false)
}

func (s *Scheduler) complete(h *Handle) {
	for ch, owner := range s.owner {
		if owner == h {
			s.owner[ch] = nil
		}
	}

	delete(s.handles, h)
	h.completed = true
	close(h.done)

	if !h.cancelled {
		s.log.Infof("Completed plan %s (%s)", h.ID(), h.Plan.Label)
	}

	if h.onComplete != nil {
		h.onComplete(h)
	}
}

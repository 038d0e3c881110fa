package dispenser

import (
	"fmt"

	"github.com/go-errors/errors"
	"github.com/juju/clock"
	"github.com/the-lightning-land/pourd/menu"
	"github.com/the-lightning-land/pourd/pour"
)

// Settings persists the portion selection between restarts.
type Settings interface {
	GetPortion() (string, error)
	SetPortion(label string) error
}

type ControllerConfig struct {
	Menu      *menu.Menu
	Scheduler *pour.Scheduler
	Clock     clock.Clock
	Settings  Settings
	Logger    Logger
	OnEvent   func(Event)
}

// Controller is the session state machine. Only one plan can run at a time;
// every request while dispensing fails with ErrMachineBusy. The controller
// is not safe for concurrent use, the Dispenser loop owns it.
type Controller struct {
	menu      *menu.Menu
	planner   *pour.Planner
	scheduler *pour.Scheduler
	clock     clock.Clock
	settings  Settings
	log       Logger
	onEvent   func(Event)

	state   State
	active  *pour.Handle
	portion int
}

func NewController(config *ControllerConfig) *Controller {
	c := &Controller{
		menu:      config.Menu,
		planner:   pour.NewPlanner(config.Menu),
		scheduler: config.Scheduler,
		clock:     config.Clock,
		settings:  config.Settings,
		onEvent:   config.OnEvent,
	}

	if c.clock == nil {
		c.clock = clock.WallClock
	}

	if config.Logger != nil {
		c.log = config.Logger
	} else {
		c.log = noopLogger{}
	}

	return c
}

// RequestSimplePour pours the selected portion from channel.
func (c *Controller) RequestSimplePour(channel int) (*pour.Plan, error) {
	return c.request(func() (*pour.Plan, error) {
		return c.planner.SimplePour(channel, c.Portion())
	})
}

func (c *Controller) RequestRecipe(name string) (*pour.Plan, error) {
	return c.request(func() (*pour.Plan, error) {
		return c.planner.Recipe(name)
	})
}

func (c *Controller) RequestPrime() (*pour.Plan, error) {
	return c.request(func() (*pour.Plan, error) {
		return c.planner.Utility(pour.KindPrime, c.menu.Prime)
	})
}

func (c *Controller) RequestWash() (*pour.Plan, error) {
	return c.request(func() (*pour.Plan, error) {
		return c.planner.Utility(pour.KindWash, c.menu.Wash)
	})
}

func (c *Controller) request(build func() (*pour.Plan, error)) (*pour.Plan, error) {
	if c.state != Idle {
		return nil, errors.WrapPrefix(ErrMachineBusy, fmt.Sprintf("still running %s", c.active.Plan.Label), 0)
	}

	plan, err := build()
	if err != nil {
		return nil, err
	}

	h, err := c.scheduler.Execute(plan, c.clock.Now(), c.onPlanCompleted)
	if err != nil {
		return nil, err
	}

	c.active = h
	c.state = Dispensing

	c.log.Infof("Dispensing %s (%s, %v)", plan.Label, plan.Kind, plan.Total)

	c.emit(Event{Type: EventStatusChanged})

	return plan, nil
}

// CyclePortionSize selects the next portion label, wrapping around. It is
// allowed while dispensing and only affects the next simple pour.
func (c *Controller) CyclePortionSize() string {
	labels := c.menu.PortionLabels()
	c.portion = (c.portion + 1) % len(labels)
	label := labels[c.portion]

	c.log.Debugf("Selected portion %s", label)

	if c.settings != nil {
		if err := c.settings.SetPortion(label); err != nil {
			c.log.Warnf("Could not save portion selection: %v", err)
		}
	}

	c.emit(Event{Type: EventStatusChanged})

	return label
}

// SelectPortion selects a portion by label. Unknown labels are ignored.
func (c *Controller) SelectPortion(label string) bool {
	for i, l := range c.menu.PortionLabels() {
		if l == label {
			c.portion = i
			return true
		}
	}

	c.log.Warnf("Ignoring unknown portion %q", label)

	return false
}

// Portion returns the selected portion label.
func (c *Controller) Portion() string {
	return c.menu.PortionLabels()[c.portion]
}

// PortionIndex returns the position of the selected portion in the cycle.
func (c *Controller) PortionIndex() int {
	return c.portion
}

// Abort cancels the running plan, switching its channels off immediately.
func (c *Controller) Abort() bool {
	if c.active == nil {
		return false
	}

	c.log.Warnf("Aborting %s", c.active.Plan.Label)

	return c.scheduler.Cancel(c.active)
}

func (c *Controller) State() State {
	return c.state
}

// onPlanCompleted is called by the scheduler when the active plan finished
// or was cancelled.
func (c *Controller) onPlanCompleted(h *pour.Handle) {
	if h != c.active {
		return
	}

	c.active = nil
	c.state = Idle

	if h.Cancelled() {
		c.log.Infof("Stopped %s early", h.Plan.Label)
	} else {
		c.log.Infof("Finished %s", h.Plan.Label)
	}

	c.emit(Event{Type: EventPlanCompleted, Plan: h.Plan, Cancelled: h.Cancelled()})
	c.emit(Event{Type: EventStatusChanged})
}

// StatusMessage describes the current activity for display.
func (c *Controller) StatusMessage() string {
	if c.active == nil {
		return "Ready"
	}

	plan := c.active.Plan

	switch plan.Kind {
	case pour.KindSimple:
		step := plan.Steps[0]
		return fmt.Sprintf("Pouring %s from Pump %d", step.Portion, step.Channel+1)
	case pour.KindRecipe:
		return fmt.Sprintf("Making %s", plan.Label)
	case pour.KindPrime:
		return "Priming lines"
	case pour.KindWash:
		return "Running WASH cycle"
	default:
		return plan.Label
	}
}

func (c *Controller) Status() Status {
	s := Status{
		State:   c.state,
		Busy:    c.state != Idle,
		Message: c.StatusMessage(),
		Portion: c.Portion(),
	}

	if c.active != nil {
		s.Label = c.active.Plan.Label
		s.Kind = c.active.Plan.Kind
		s.PlanID = c.active.ID()
		s.Started = c.active.Start
		s.Ends = c.active.End
	}

	return s
}

func (c *Controller) emit(e Event) {
	if c.onEvent == nil {
		return
	}

	e.Status = c.Status()
	c.onEvent(e)
}

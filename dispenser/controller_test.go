package dispenser

import (
	"testing"
	"time"

	"github.com/go-errors/errors"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/pourd/machine"
	"github.com/the-lightning-land/pourd/menu"
	"github.com/the-lightning-land/pourd/pour"
)

var epoch = time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)

func testMenu() *menu.Menu {
	return &menu.Menu{
		Channels: []menu.Channel{{ID: 0, Name: "Lemonade"}, {ID: 1, Name: "Iced Tea"}, {ID: 2}, {ID: 3}},
		Portions: []menu.Portion{
			{Label: "1.5oz", Duration: 22 * time.Second},
			{Label: "2.5oz", Duration: 36 * time.Second},
			{Label: "4oz", Duration: 60 * time.Second},
		},
		Recipes: []menu.Recipe{
			{Name: "Arnold Palmer", Mode: menu.Sequential, Ingredients: []menu.Ingredient{
				{Channel: 1, Portion: "4oz"},
				{Channel: 0, Portion: "4oz"},
			}},
		},
		Prime: 8 * time.Second,
		Wash:  5 * time.Second,
	}
}

type memorySettings struct {
	name    string
	portion string
	saves   int
}

func (m *memorySettings) GetPortion() (string, error) { return m.portion, nil }
func (m *memorySettings) GetName() (string, error)    { return m.name, nil }

func (m *memorySettings) SetPortion(label string) error {
	m.portion = label
	m.saves++
	return nil
}

func (m *memorySettings) SetName(name string) error {
	m.name = name
	return nil
}

type controllerFixture struct {
	controller *Controller
	scheduler  *pour.Scheduler
	machine    *machine.MockMachine
	clock      *testclock.Clock
	settings   *memorySettings
	events     []Event
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()

	f := &controllerFixture{
		machine:  machine.NewMockMachine(&machine.MockMachineConfig{Channels: 4}),
		clock:    testclock.NewClock(epoch),
		settings: &memorySettings{},
	}
	f.scheduler = pour.NewScheduler(&pour.Config{Driver: f.machine, Channels: 4})
	f.controller = NewController(&ControllerConfig{
		Menu:      testMenu(),
		Scheduler: f.scheduler,
		Clock:     f.clock,
		Settings:  f.settings,
		OnEvent:   func(e Event) { f.events = append(f.events, e) },
	})

	return f
}

// advance moves the clock and fires whatever became due, like the dispenser
// loop does.
func (f *controllerFixture) advance(d time.Duration) {
	f.clock.Advance(d)
	f.scheduler.Fire(f.clock.Now())
}

func TestSimplePourSession(t *testing.T) {
	f := newControllerFixture(t)
	c := f.controller

	require.Equal(t, Idle, c.State())
	require.Equal(t, "Ready", c.StatusMessage())

	plan, err := c.RequestSimplePour(0)
	require.NoError(t, err)
	require.Equal(t, 22*time.Second, plan.Total)
	require.Equal(t, Dispensing, c.State())
	require.Equal(t, "Pouring 1.5oz from Pump 1", c.StatusMessage())

	status := c.Status()
	require.True(t, status.Busy)
	require.Equal(t, plan.ID, status.PlanID)
	require.Equal(t, epoch, status.Started)
	require.Equal(t, epoch.Add(22*time.Second), status.Ends)

	f.advance(0)
	require.True(t, f.machine.On(0))

	_, err = c.RequestSimplePour(1)
	require.True(t, errors.Is(err, ErrMachineBusy), "unexpected error: %v", err)
	_, err = c.RequestRecipe("Arnold Palmer")
	require.True(t, errors.Is(err, ErrMachineBusy))
	_, err = c.RequestWash()
	require.True(t, errors.Is(err, ErrMachineBusy))
	require.False(t, f.machine.On(1), "a rejected request must not touch the driver")

	f.advance(22 * time.Second)
	require.False(t, f.machine.AnyOn())
	require.Equal(t, Idle, c.State())
	require.Equal(t, "Ready", c.StatusMessage())

	require.Len(t, f.events, 3)
	require.Equal(t, EventStatusChanged, f.events[0].Type)
	require.Equal(t, EventPlanCompleted, f.events[1].Type)
	require.Equal(t, plan, f.events[1].Plan)
	require.False(t, f.events[1].Cancelled)
	require.Equal(t, EventStatusChanged, f.events[2].Type)
	require.False(t, f.events[2].Status.Busy)
}

func TestBusyIsCheckedBeforeBuilding(t *testing.T) {
	f := newControllerFixture(t)

	_, err := f.controller.RequestSimplePour(2)
	require.NoError(t, err)

	_, err = f.controller.RequestSimplePour(42)
	require.True(t, errors.Is(err, ErrMachineBusy), "unexpected error: %v", err)
}

func TestRequestErrorsLeaveControllerIdle(t *testing.T) {
	f := newControllerFixture(t)
	c := f.controller

	_, err := c.RequestSimplePour(4)
	require.True(t, errors.Is(err, pour.ErrInvalidChannel))

	_, err = c.RequestRecipe("Long Island")
	require.True(t, errors.Is(err, pour.ErrUnknownRecipe))

	require.Equal(t, Idle, c.State())
	require.Empty(t, f.machine.Calls())
	require.Empty(t, f.events)
}

func TestRecipeSession(t *testing.T) {
	f := newControllerFixture(t)
	c := f.controller

	plan, err := c.RequestRecipe("Arnold Palmer")
	require.NoError(t, err)
	require.Equal(t, 120*time.Second, plan.Total)
	require.Equal(t, "Making Arnold Palmer", c.StatusMessage())

	f.advance(0)
	require.True(t, f.machine.On(1))
	f.advance(60 * time.Second)
	require.False(t, f.machine.On(1))
	require.True(t, f.machine.On(0))
	require.Equal(t, Dispensing, c.State())

	f.advance(60 * time.Second)
	require.Equal(t, Idle, c.State())
	require.False(t, f.machine.AnyOn())
}

func TestUtilitySessions(t *testing.T) {
	f := newControllerFixture(t)
	c := f.controller

	_, err := c.RequestPrime()
	require.NoError(t, err)
	require.Equal(t, "Priming lines", c.StatusMessage())
	f.advance(0)
	for ch := 0; ch < 4; ch++ {
		require.True(t, f.machine.On(ch))
	}
	f.advance(8 * time.Second)
	require.Equal(t, Idle, c.State())

	_, err = c.RequestWash()
	require.NoError(t, err)
	require.Equal(t, "Running WASH cycle", c.StatusMessage())
	f.advance(0)
	f.advance(5 * time.Second)
	require.Equal(t, Idle, c.State())
	require.False(t, f.machine.AnyOn())
}

func TestCyclePortionSize(t *testing.T) {
	f := newControllerFixture(t)
	c := f.controller

	require.Equal(t, 0, c.PortionIndex())
	require.Equal(t, "2.5oz", c.CyclePortionSize())
	require.Equal(t, "4oz", c.CyclePortionSize())
	require.Equal(t, "1.5oz", c.CyclePortionSize())
	require.Equal(t, 0, c.PortionIndex())

	require.Equal(t, "1.5oz", f.settings.portion)
	require.Equal(t, 3, f.settings.saves)
}

func TestCyclePortionSizeWhileDispensing(t *testing.T) {
	f := newControllerFixture(t)
	c := f.controller

	plan, err := c.RequestSimplePour(3)
	require.NoError(t, err)

	require.Equal(t, "2.5oz", c.CyclePortionSize())
	require.Equal(t, "1.5oz", plan.Steps[0].Portion, "the running pour keeps its portion")
	require.Equal(t, "Pouring 1.5oz from Pump 4", c.StatusMessage())

	f.advance(0)
	f.advance(22 * time.Second)

	plan, err = c.RequestSimplePour(3)
	require.NoError(t, err)
	require.Equal(t, 36*time.Second, plan.Total)
}

func TestSelectPortion(t *testing.T) {
	f := newControllerFixture(t)
	c := f.controller

	require.True(t, c.SelectPortion("4oz"))
	require.Equal(t, "4oz", c.Portion())
	require.Equal(t, 2, c.PortionIndex())

	require.False(t, c.SelectPortion("pint"))
	require.Equal(t, "4oz", c.Portion())
}

func TestAbort(t *testing.T) {
	f := newControllerFixture(t)
	c := f.controller

	require.False(t, c.Abort(), "nothing to abort while idle")

	plan, err := c.RequestRecipe("Arnold Palmer")
	require.NoError(t, err)
	f.advance(10 * time.Second)
	require.True(t, f.machine.On(1))

	require.True(t, c.Abort())
	require.False(t, f.machine.AnyOn())
	require.Equal(t, Idle, c.State())

	last := f.events[len(f.events)-2]
	require.Equal(t, EventPlanCompleted, last.Type)
	require.Equal(t, plan, last.Plan)
	require.True(t, last.Cancelled)

	_, ok := f.scheduler.NextDeadline()
	require.False(t, ok)

	_, err = c.RequestSimplePour(1)
	require.NoError(t, err)
}

package dispenser

import (
	"testing"
	"time"

	"github.com/go-errors/errors"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/pourd/machine"
)

type recordingHalter struct {
	machine *machine.MockMachine
	halted  int
	anyOn   bool
	during  func()
}

func (h *recordingHalter) Halt() error {
	h.halted++
	if h.during != nil {
		h.during()
	}
	h.anyOn = h.machine.AnyOn()
	return nil
}

type dispenserFixture struct {
	dispenser *Dispenser
	machine   *machine.MockMachine
	clock     *testclock.Clock
	settings  *memorySettings
	halter    *recordingHalter
	runErr    chan error
}

func newDispenserFixture(t *testing.T) *dispenserFixture {
	t.Helper()

	f := &dispenserFixture{
		machine:  machine.NewMockMachine(&machine.MockMachineConfig{Channels: 4}),
		clock:    testclock.NewClock(epoch),
		settings: &memorySettings{name: "kitchen", portion: "4oz"},
		runErr:   make(chan error, 1),
	}
	f.halter = &recordingHalter{machine: f.machine}
	f.dispenser = NewDispenser(&Config{
		Machine: f.machine,
		Menu:    testMenu(),
		Store:   f.settings,
		Clock:   f.clock,
		Halter:  f.halter,
	})

	go func() {
		f.runErr <- f.dispenser.Run()
	}()

	t.Cleanup(func() {
		f.dispenser.Shutdown()
		<-f.dispenser.Stopped()
	})

	return f
}

// waitFor reads events until one of the given type arrives.
func waitFor(t *testing.T, client *StatusClient, typ EventType) Event {
	t.Helper()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-client.Events:
			if e.Type == typ {
				return e
			}
		case <-timeout:
			t.Fatalf("no %s event", typ)
		}
	}
}

func TestDispenserRestoresPortion(t *testing.T) {
	f := newDispenserFixture(t)

	status, err := f.dispenser.Status()
	require.NoError(t, err)
	require.Equal(t, "4oz", status.Portion)
	require.Equal(t, "Ready", status.Message)
	require.False(t, status.Busy)
}

func TestDispenserPoursOnSchedule(t *testing.T) {
	f := newDispenserFixture(t)
	d := f.dispenser

	client := d.SubscribeStatus()
	defer client.Cancel()

	plan, err := d.PourSimple(2)
	require.NoError(t, err)
	require.Equal(t, 60*time.Second, plan.Total)

	e := waitFor(t, client, EventStatusChanged)
	require.True(t, e.Status.Busy)
	require.Equal(t, "Pouring 4oz from Pump 3", e.Status.Message)

	_, err = d.PourRecipe("Arnold Palmer")
	require.True(t, errors.Is(err, ErrMachineBusy), "unexpected error: %v", err)

	// The loop fires the energize right away and then waits on a timer for
	// the end of the window.
	require.NoError(t, f.clock.WaitAdvance(59*time.Second, time.Second, 1))
	require.True(t, f.machine.On(2))

	require.NoError(t, f.clock.WaitAdvance(time.Second, time.Second, 1))
	done := waitFor(t, client, EventPlanCompleted)
	require.Equal(t, plan.ID, done.Plan.ID)
	require.False(t, done.Cancelled)
	require.False(t, done.Status.Busy)
	require.False(t, f.machine.AnyOn())

	status, err := d.Status()
	require.NoError(t, err)
	require.Equal(t, Idle, status.State)
}

func TestDispenserAbort(t *testing.T) {
	f := newDispenserFixture(t)
	d := f.dispenser

	client := d.SubscribeStatus()
	defer client.Cancel()

	_, err := d.Wash()
	require.NoError(t, err)

	aborted, err := d.Abort()
	require.NoError(t, err)
	require.True(t, aborted)

	e := waitFor(t, client, EventPlanCompleted)
	require.True(t, e.Cancelled)
	require.False(t, f.machine.AnyOn())

	aborted, err = d.Abort()
	require.NoError(t, err)
	require.False(t, aborted)
}

func TestDispenserCyclePortionSize(t *testing.T) {
	f := newDispenserFixture(t)

	label, err := f.dispenser.CyclePortionSize()
	require.NoError(t, err)
	require.Equal(t, "1.5oz", label)
	require.Equal(t, "1.5oz", f.settings.portion)
}

func TestDispenserName(t *testing.T) {
	f := newDispenserFixture(t)

	name, err := f.dispenser.Name()
	require.NoError(t, err)
	require.Equal(t, "kitchen", name)

	require.NoError(t, f.dispenser.SetName("patio"))
	name, err = f.dispenser.Name()
	require.NoError(t, err)
	require.Equal(t, "patio", name)
}

func TestRequestShutdownTurnsChannelsOffBeforeHalting(t *testing.T) {
	f := newDispenserFixture(t)
	d := f.dispenser

	_, err := d.Prime()
	require.NoError(t, err)

	// Wait until the loop switched the pumps on and parked on its timer.
	require.NoError(t, f.clock.WaitAdvance(time.Second, time.Second, 1))
	require.True(t, f.machine.On(0))

	require.NoError(t, d.RequestShutdown())
	require.Equal(t, 1, f.halter.halted)
	require.False(t, f.halter.anyOn, "pumps were still on when halting")

	select {
	case err := <-f.runErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}

	_, err = d.PourSimple(0)
	require.True(t, errors.Is(err, ErrStopped))
}

func TestRequestShutdownRejectsPoursWhileHalting(t *testing.T) {
	f := newDispenserFixture(t)
	d := f.dispenser

	var pourErr error
	f.halter.during = func() {
		_, pourErr = d.PourSimple(0)
	}

	require.NoError(t, d.RequestShutdown())
	require.Equal(t, 1, f.halter.halted)
	require.True(t, errors.Is(pourErr, ErrStopped), "unexpected error: %v", pourErr)
	require.False(t, f.halter.anyOn, "a pump was switched on while halting")

	for _, c := range f.machine.Calls() {
		require.False(t, c.On, "channel %d switched on", c.Channel)
	}
}

func TestRequestShutdownAfterStop(t *testing.T) {
	f := newDispenserFixture(t)
	d := f.dispenser

	d.Shutdown()
	<-d.Stopped()

	require.True(t, errors.Is(d.RequestShutdown(), ErrStopped))
	require.Equal(t, 0, f.halter.halted)
}

func TestStatusClientCancel(t *testing.T) {
	f := newDispenserFixture(t)
	d := f.dispenser

	client := d.SubscribeStatus()
	client.Cancel()
	client.Cancel()

	select {
	case <-client.Done():
	default:
		t.Fatal("client not cancelled")
	}

	_, err := d.CyclePortionSize()
	require.NoError(t, err)
	require.Empty(t, client.Events)
}

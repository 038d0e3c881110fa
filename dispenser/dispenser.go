package dispenser

import (
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/juju/clock"
	"github.com/the-lightning-land/pourd/machine"
	"github.com/the-lightning-land/pourd/menu"
	"github.com/the-lightning-land/pourd/pour"
	"github.com/the-lightning-land/pourd/power"
)

// statusBuffer is the number of events a subscriber may lag behind before
// further events are dropped for it.
const statusBuffer = 16

// Store persists dispenser settings.
type Store interface {
	Settings
	GetName() (string, error)
	SetName(name string) error
}

type Config struct {
	Machine machine.Machine
	Menu    *menu.Menu
	Store   Store
	Clock   clock.Clock
	Halter  power.Halter
	Logger  Logger
}

// Dispenser runs the event loop driving the pumps. All controller and
// scheduler state is owned by the goroutine executing Run; the exported
// methods hand their work to that goroutine and wait for the result.
type Dispenser struct {
	machine    machine.Machine
	menu       *menu.Menu
	store      Store
	clock      clock.Clock
	halter     power.Halter
	log        Logger
	scheduler  *pour.Scheduler
	controller *Controller

	requests chan func()
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	statusClients      map[uint32]*StatusClient
	statusClientMtx    sync.Mutex
	nextStatusClientID uint32
}

type StatusClient struct {
	Events     chan Event
	Id         uint32
	cancelChan chan struct{}
	dispenser  *Dispenser
}

func NewDispenser(config *Config) *Dispenser {
	d := &Dispenser{
		machine:       config.Machine,
		menu:          config.Menu,
		store:         config.Store,
		clock:         config.Clock,
		halter:        config.Halter,
		requests:      make(chan func()),
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
		statusClients: make(map[uint32]*StatusClient),
	}

	if d.clock == nil {
		d.clock = clock.WallClock
	}

	if d.halter == nil {
		d.halter = power.NewNoopHalter()
	}

	if config.Logger != nil {
		d.log = config.Logger
	} else {
		d.log = noopLogger{}
	}

	d.scheduler = pour.NewScheduler(&pour.Config{
		Driver:   d.machine,
		Channels: d.menu.ChannelCount(),
		Logger:   d.log,
	})

	var settings Settings
	if d.store != nil {
		settings = d.store
	}

	d.controller = NewController(&ControllerConfig{
		Menu:      d.menu,
		Scheduler: d.scheduler,
		Clock:     d.clock,
		Settings:  settings,
		Logger:    d.log,
		OnEvent:   d.publish,
	})

	if d.store != nil {
		label, err := d.store.GetPortion()
		if err != nil {
			d.log.Warnf("Could not read saved portion: %v", err)
		} else if label != "" {
			d.controller.SelectPortion(label)
		}
	}

	return d
}

// Run blocks until Shutdown is called. It must be called exactly once.
func (d *Dispenser) Run() error {
	defer close(d.stopped)

	d.log.Infof("Starting dispenser with %d channels", d.menu.ChannelCount())

	for {
		var wake <-chan time.Time
		var timer clock.Timer

		if at, ok := d.scheduler.NextDeadline(); ok {
			delay := at.Sub(d.clock.Now())
			if delay <= 0 {
				d.scheduler.Fire(d.clock.Now())
				continue
			}

			timer = d.clock.NewTimer(delay)
			wake = timer.Chan()
		}

		select {
		case req := <-d.requests:
			req()

		case <-wake:
			d.scheduler.Fire(d.clock.Now())

		case <-d.done:
			if timer != nil {
				timer.Stop()
			}

			d.allOff()

			d.log.Infof("Dispenser stopped")

			return nil
		}

		if timer != nil {
			timer.Stop()
		}
	}
}

// do runs fn on the loop goroutine and waits for it to finish.
func (d *Dispenser) do(fn func()) error {
	finished := make(chan struct{})

	select {
	case d.requests <- func() {
		fn()
		close(finished)
	}:
	case <-d.done:
		return ErrStopped
	}

	<-finished

	return nil
}

func (d *Dispenser) request(fn func() (*pour.Plan, error)) (*pour.Plan, error) {
	var plan *pour.Plan
	var reqErr error

	err := d.do(func() {
		plan, reqErr = fn()
	})
	if err != nil {
		return nil, err
	}

	return plan, reqErr
}

// PourSimple pours the selected portion from a single channel.
func (d *Dispenser) PourSimple(channel int) (*pour.Plan, error) {
	return d.request(func() (*pour.Plan, error) {
		return d.controller.RequestSimplePour(channel)
	})
}

func (d *Dispenser) PourRecipe(name string) (*pour.Plan, error) {
	return d.request(func() (*pour.Plan, error) {
		return d.controller.RequestRecipe(name)
	})
}

func (d *Dispenser) Prime() (*pour.Plan, error) {
	return d.request(d.controller.RequestPrime)
}

func (d *Dispenser) Wash() (*pour.Plan, error) {
	return d.request(d.controller.RequestWash)
}

func (d *Dispenser) CyclePortionSize() (string, error) {
	var label string

	err := d.do(func() {
		label = d.controller.CyclePortionSize()
	})

	return label, err
}

// Abort stops whatever is running. It reports whether there was anything to
// stop.
func (d *Dispenser) Abort() (bool, error) {
	var aborted bool

	err := d.do(func() {
		aborted = d.controller.Abort()
	})

	return aborted, err
}

func (d *Dispenser) Status() (Status, error) {
	var status Status

	err := d.do(func() {
		status = d.controller.Status()
	})

	return status, err
}

// Menu returns the menu the dispenser was started with. It never changes.
func (d *Dispenser) Menu() *menu.Menu {
	return d.menu
}

func (d *Dispenser) Name() (string, error) {
	if d.store == nil {
		return "", nil
	}

	var name string
	var getErr error

	err := d.do(func() {
		name, getErr = d.store.GetName()
	})
	if err != nil {
		return "", err
	}

	if getErr != nil {
		return "", errors.Errorf("Failed getting name: %v", getErr)
	}

	return name, nil
}

func (d *Dispenser) SetName(name string) error {
	if d.store == nil {
		return errors.New("no settings store")
	}

	d.log.Infof("Setting name to %q", name)

	var setErr error

	err := d.do(func() {
		setErr = d.store.SetName(name)
	})
	if err != nil {
		return err
	}

	if setErr != nil {
		return errors.Errorf("Failed setting name: %v", setErr)
	}

	return nil
}

// Shutdown ends Run, which switches every channel off on its way out. It is
// safe to call more than once; use Stopped to wait for the loop.
func (d *Dispenser) Shutdown() {
	d.stopOnce.Do(func() {
		close(d.done)
	})
}

// Stopped is closed once Run returned.
func (d *Dispenser) Stopped() <-chan struct{} {
	return d.stopped
}

// RequestShutdown stops the loop, which switches every channel off on its way
// out, and then powers the machine down. Requests made while halting fail
// with ErrStopped.
func (d *Dispenser) RequestShutdown() error {
	d.log.Infof("Shutdown requested")

	// Only wait for the loop when it is known to be running.
	err := d.do(func() {})
	if err != nil {
		return err
	}

	d.Shutdown()
	<-d.stopped

	if err := d.halter.Halt(); err != nil {
		return errors.Errorf("Could not halt: %v", err)
	}

	return nil
}

// allOff cancels every plan and drives every channel low, whether or not the
// scheduler believes it is energized.
func (d *Dispenser) allOff() {
	if n := d.scheduler.CancelAll(); n > 0 {
		d.log.Warnf("Cancelled %d running plans", n)
	}

	machine.AllOff(d.machine)
}

func (d *Dispenser) publish(e Event) {
	d.statusClientMtx.Lock()
	defer d.statusClientMtx.Unlock()

	for _, client := range d.statusClients {
		select {
		case client.Events <- e:
		default:
			d.log.Warnf("Dropping %s event for slow status client %d", e.Type, client.Id)
		}
	}
}

func (d *Dispenser) SubscribeStatus() *StatusClient {
	client := &StatusClient{
		Events:     make(chan Event, statusBuffer),
		cancelChan: make(chan struct{}),
		dispenser:  d,
	}

	d.statusClientMtx.Lock()
	client.Id = d.nextStatusClientID
	d.nextStatusClientID++
	d.statusClients[client.Id] = client
	d.statusClientMtx.Unlock()

	return client
}

// Done is closed when the client was cancelled.
func (c *StatusClient) Done() <-chan struct{} {
	return c.cancelChan
}

func (c *StatusClient) Cancel() {
	c.dispenser.statusClientMtx.Lock()
	defer c.dispenser.statusClientMtx.Unlock()

	if _, ok := c.dispenser.statusClients[c.Id]; !ok {
		return
	}

	delete(c.dispenser.statusClients, c.Id)

	close(c.cancelChan)
}

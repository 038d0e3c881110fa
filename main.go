package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
	"github.com/the-lightning-land/pourd/api"
	"github.com/the-lightning-land/pourd/dispenser"
	"github.com/the-lightning-land/pourd/machine"
	"github.com/the-lightning-land/pourd/menu"
	"github.com/the-lightning-land/pourd/pourdb"
	"github.com/the-lightning-land/pourd/pourlog"
	"github.com/the-lightning-land/pourd/power"
	// Blank import to set up profiling HTTP handlers.
	_ "net/http/pprof"
)

var (
	// commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	Commit string
	// version stores the version string of this build. This should be set using -ldflags during compilation.
	Version string
	// date stores the date of this build. This should be set using -ldflags during compilation.
	Date string
)

// subsystemLogger returns a logger tagged with the subsystem name that shares
// output, level and hooks with the standard logger.
func subsystemLogger(name string) *log.Entry {
	logger := log.New()
	logger.SetOutput(log.StandardLogger().Out)
	logger.SetLevel(log.GetLevel())
	logger.ReplaceHooks(log.StandardLogger().Hooks)

	return logger.WithField("system", name)
}

// pourdMain is the true entry point for pourd. This is required since defers
// created in the top-level scope of a main method aren't executed if os.Exit() is called.
func pourdMain() error {
	pourLog := pourlog.New()

	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
	log.AddHook(pourLog)

	// Load CLI configuration and defaults
	cfg, err := loadConfig()
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		return nil
	} else if err != nil {
		return errors.Errorf("Failed parsing arguments: %v", err)
	}

	// Set logger into debug mode if called with --debug
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		log.Info("Setting debug mode.")
	}

	log.Debug("Loaded config.")

	// Print version of the daemon
	log.Infof("Version %s (commit %s)", Version, Commit)
	log.Infof("Built on %s", Date)

	// Stop here if only version was requested
	if cfg.ShowVersion {
		return nil
	}

	if cfg.Profiling.Listen != "" {
		go func() {
			log.Infof("Starting profiling server on %v", cfg.Profiling.Listen)
			// Redirect the root path
			http.Handle("/", http.RedirectHandler("/debug/pprof", http.StatusSeeOther))
			// All other handlers are registered on DefaultServeMux through the import of pprof
			err := http.ListenAndServe(cfg.Profiling.Listen, nil)
			if err != nil {
				log.Errorf("Could not run profiler: %v", err)
			}
		}()
	}

	// The drink menu is static for the lifetime of the process
	var m *menu.Menu

	if cfg.Menu != "" {
		m, err = menu.Load(cfg.Menu)
		if err != nil {
			return errors.Wrap(err, "could not load menu")
		}

		log.Infof("Loaded menu from %v.", cfg.Menu)
	} else {
		m = menu.Default()

		log.Info("Using built-in menu.")
	}

	log.Infof("Menu has %d channels, %d portions and %d recipes.",
		m.ChannelCount(), len(m.Portions), len(m.Recipes))

	// pour.db persistently stores the dispenser name and portion selection
	pourDB, err := pourdb.Open(cfg.DataDir)
	if err != nil {
		return errors.Errorf("Could not open pour.db: %v", err)
	}

	log.Infof("Opened %v", pourDB.Path())

	defer func() {
		err := pourDB.Close()
		if err != nil {
			log.Errorf("Could not close pour.db: %v", err)
		} else {
			log.Info("Closed pour.db.")
		}
	}()

	// The hardware controller
	var mach machine.Machine

	switch cfg.Machine {
	case "raspberry":
		mach = machine.NewDispenserMachine(&machine.DispenserMachineConfig{
			Pins:       cfg.Raspberry.Pins,
			ActiveHigh: cfg.Raspberry.ActiveHigh,
			Logger:     subsystemLogger("machine"),
		})

		log.Infof("Created Raspberry Pi machine with %d channels.", mach.Channels())
	case "mock":
		mach = machine.NewMockMachine(&machine.MockMachineConfig{
			Channels: m.ChannelCount(),
			Logger:   subsystemLogger("machine"),
		})

		log.Info("Created a mock machine.")
	default:
		return errors.Errorf("Unknown machine type %v", cfg.Machine)
	}

	if mach.Channels() < m.ChannelCount() {
		return errors.Errorf("Menu needs %d channels but machine only has %d",
			m.ChannelCount(), mach.Channels())
	}

	if err := mach.Start(); err != nil {
		return errors.Errorf("Could not start machine: %v", err)
	}

	// Pumps must be off however the process exits
	atexit.Register(func() {
		machine.AllOff(mach)
	})

	defer func() {
		err := mach.Stop()
		if err != nil {
			log.Errorf("Could not properly stop machine: %v", err)
		} else {
			log.Infof("Stopped machine.")
		}
	}()

	// The power off collaborator
	var halter power.Halter

	switch cfg.Halt {
	case "none":
		halter = power.NewNoopHalter()

		log.Info("Created noop halter.")
	case "logind":
		halter = power.NewLogindHalter(subsystemLogger("power"))

		log.Info("Created logind halter.")
	case "command":
		halter, err = power.NewCommandHalter(cfg.HaltCommand, subsystemLogger("power"))
		if err != nil {
			return errors.Errorf("Could not create command halter: %v", err)
		}

		log.Infof("Created command halter running %v.", cfg.HaltCommand)
	case "syscall":
		halter = power.NewSyscallHalter(subsystemLogger("power"))

		log.Info("Created syscall halter.")
	default:
		return errors.Errorf("Unknown halt type %v", cfg.Halt)
	}

	// central controller for everything the dispenser does
	d := dispenser.NewDispenser(&dispenser.Config{
		Machine: mach,
		Menu:    m,
		Store:   pourDB,
		Halter:  halter,
		Logger:  subsystemLogger("dispenser"),
	})

	log.Infof("Created dispenser.")

	// local control surface for the kiosk
	a := api.New(&api.Config{
		Dispenser: d,
		Logs:      pourLog,
		Version:   Version,
		MaxConns:  cfg.Api.MaxConns,
		Log:       subsystemLogger("api"),
	})

	lis, err := net.Listen("tcp", cfg.Api.Listen)
	if err != nil {
		return errors.Errorf("Api unable to listen on %v: %v", cfg.Api.Listen, err)
	}

	go func() {
		err := a.Serve(lis)
		if err != nil {
			log.Errorf("Could not serve api: %v", err)
		}
	}()

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := a.Shutdown(ctx)
		if err != nil {
			log.Errorf("Could not properly shut down api: %v", err)
		} else {
			log.Info("Stopped api.")
		}
	}()

	// Handle interrupt signals correctly
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		sig := <-signals
		log.Info(sig)
		log.Info("Received an interrupt, stopping dispenser...")
		d.Shutdown()
	}()

	// blocks until the dispenser is shut down
	err = d.Run()
	if err != nil {
		return errors.Errorf("Failed running dispenser: %v", err)
	}

	// finish with no error
	return nil
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := pourdMain(); err != nil {
		log.WithError(err).Println("Failed running pourd.")
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// Package api serves the local control surface used by the kiosk touchscreen.
package api

import (
	"context"
	"net"
	"net/http"

	"github.com/go-errors/errors"
	"github.com/gorilla/mux"
	"github.com/the-lightning-land/pourd/dispenser"
	"github.com/the-lightning-land/pourd/menu"
	"github.com/the-lightning-land/pourd/pour"
	"github.com/the-lightning-land/pourd/pourlog"
	"golang.org/x/net/netutil"
)

// DefaultMaxConns bounds the number of simultaneous connections Serve accepts.
const DefaultMaxConns = 16

// Dispenser is the part of the dispenser the api drives.
type Dispenser interface {
	PourSimple(channel int) (*pour.Plan, error)
	PourRecipe(name string) (*pour.Plan, error)
	Prime() (*pour.Plan, error)
	Wash() (*pour.Plan, error)
	CyclePortionSize() (string, error)
	Abort() (bool, error)
	RequestShutdown() error
	Status() (dispenser.Status, error)
	Menu() *menu.Menu
	Name() (string, error)
	SetName(name string) error
	SubscribeStatus() *dispenser.StatusClient
	Stopped() <-chan struct{}
}

// LogSource provides recent log lines.
type LogSource interface {
	Lines(n int) []pourlog.Line
}

// Compile time check for protocol compatibility
var _ Dispenser = (*dispenser.Dispenser)(nil)
var _ LogSource = (*pourlog.PourLog)(nil)

type Config struct {
	Dispenser Dispenser
	Logs      LogSource
	Version   string
	MaxConns  int
	Log       Logger
}

type Api struct {
	dispenser Dispenser
	logs      LogSource
	version   string
	maxConns  int
	router    *mux.Router
	server    *http.Server
	log       Logger
}

func New(config *Config) *Api {
	api := &Api{
		dispenser: config.Dispenser,
		logs:      config.Logs,
		version:   config.Version,
		maxConns:  config.MaxConns,
		router:    mux.NewRouter(),
	}

	if api.maxConns <= 0 {
		api.maxConns = DefaultMaxConns
	}

	if config.Log != nil {
		api.log = config.Log
	} else {
		api.log = noopLogger{}
	}

	api.router.Handle("/api/v1/dispenser", api.handleGetDispenser()).Methods(http.MethodGet)
	api.router.Handle("/api/v1/dispenser", api.handlePatchDispenser()).Methods(http.MethodPatch)

	api.router.Handle("/api/v1/menu", api.handleGetMenu()).Methods(http.MethodGet)

	api.router.Handle("/api/v1/pours", api.handlePostPour()).Methods(http.MethodPost)
	api.router.Handle("/api/v1/recipes/{name}/pours", api.handlePostRecipePour()).Methods(http.MethodPost)
	api.router.Handle("/api/v1/prime", api.handlePostUtility(api.dispenser.Prime)).Methods(http.MethodPost)
	api.router.Handle("/api/v1/wash", api.handlePostUtility(api.dispenser.Wash)).Methods(http.MethodPost)

	api.router.Handle("/api/v1/status/events", api.handleGetStatusEvents()).Methods(http.MethodGet)

	api.router.Handle("/api/v1/logs", api.handleGetLogs()).Methods(http.MethodGet)

	api.server = &http.Server{Handler: api.router}

	return api
}

func (a *Api) Handler() http.Handler {
	return a.router
}

// Serve accepts connections on l until Shutdown is called.
func (a *Api) Serve(l net.Listener) error {
	a.log.Infof("Serving api on %v", l.Addr())

	err := a.server.Serve(netutil.LimitListener(l, a.maxConns))
	if err != nil && err != http.ErrServerClosed {
		return errors.Errorf("Unable to serve api: %v", err)
	}

	return nil
}

func (a *Api) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

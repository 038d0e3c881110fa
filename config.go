package main

import (
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	defaultDataDirname = "pourd"
	defaultApiListen   = "127.0.0.1:9000"
)

type raspberryConfig struct {
	Pins       []int `long:"pins" description:"BCM pins driving the pump relays, one per channel in channel order" env:"POURD_RASPBERRY_PINS" env-delim:","`
	ActiveHigh bool  `long:"activehigh" description:"Relays switch on at high level instead of low" env:"POURD_RASPBERRY_ACTIVEHIGH"`
}

type apiConfig struct {
	Listen   string `long:"listen" description:"Address the local control api listens on" env:"POURD_API_LISTEN"`
	MaxConns int    `long:"maxconns" description:"Maximum number of simultaneous api connections" env:"POURD_API_MAXCONNS"`
}

type profilingConfig struct {
	Listen string `long:"listen" description:"Enable the profiling server on this address" env:"POURD_PROFILING_LISTEN"`
}

type config struct {
	ShowVersion bool             `short:"v" long:"version" description:"Display version information and exit"`
	Debug       bool             `long:"debug" description:"Start in debug mode" env:"POURD_DEBUG"`
	DataDir     string           `long:"datadir" description:"The directory to store pourd's data within" env:"POURD_DATADIR"`
	Menu        string           `long:"menu" description:"Menu file with channels, portions and recipes; the built-in menu is used when empty" env:"POURD_MENU"`
	Machine     string           `long:"machine" description:"The machine controller to use" choice:"raspberry" choice:"mock" env:"POURD_MACHINE"`
	Halt        string           `long:"halt" description:"How the machine powers off on request" choice:"none" choice:"logind" choice:"command" choice:"syscall" env:"POURD_HALT"`
	HaltCommand string           `long:"haltcommand" description:"Command run by the command halter" env:"POURD_HALTCOMMAND"`
	Raspberry   *raspberryConfig `group:"Raspberry" namespace:"raspberry"`
	Api         *apiConfig       `group:"Api" namespace:"api"`
	Profiling   *profilingConfig `group:"Profiling" namespace:"profiling"`
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, defaultDataDirname)
	}

	return defaultDataDirname
}

// loadEnv sets environment variables from an env file. A missing file is not
// an error.
func loadEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "could not load %v", path)
	}

	return nil
}

// loadConfig reads .env from the working directory when present, then parses
// the command line on top of the defaults.
func loadConfig() (*config, error) {
	if err := loadEnv(".env"); err != nil {
		return nil, err
	}

	cfg := config{
		DataDir:     defaultDataDir(),
		Machine:     "raspberry",
		Halt:        "none",
		HaltCommand: "shutdown -h now",
		Raspberry:   &raspberryConfig{},
		Api: &apiConfig{
			Listen: defaultApiListen,
		},
		Profiling: &profilingConfig{},
	}

	if _, err := flags.NewParser(&cfg, flags.Default).Parse(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

package menu

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/go-errors/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidMenu is returned for every menu file that fails validation.
var ErrInvalidMenu = errors.New("invalid menu")

//go:embed default.yaml
var defaultMenu []byte

type menuFile struct {
	Channels []struct {
		Name string `yaml:"name"`
	} `yaml:"channels"`
	Portions []struct {
		Label    string `yaml:"label"`
		Duration string `yaml:"duration"`
	} `yaml:"portions"`
	Recipes []struct {
		Name        string `yaml:"name"`
		Mode        string `yaml:"mode"`
		Ingredients []struct {
			Channel int    `yaml:"channel"`
			Portion string `yaml:"portion"`
		} `yaml:"ingredients"`
	} `yaml:"recipes"`
	Prime string `yaml:"prime"`
	Wash  string `yaml:"wash"`
}

// Default returns the menu shipped with the daemon.
func Default() *Menu {
	m, err := Parse(defaultMenu)
	if err != nil {
		panic(fmt.Sprintf("embedded menu is invalid: %v", err))
	}

	return m
}

// Load reads and validates a menu file.
func Load(path string) (*Menu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("Could not read menu %s: %v", path, err)
	}

	return Parse(data)
}

// Parse decodes a YAML menu and validates it.
func Parse(data []byte) (*Menu, error) {
	var f menuFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapPrefix(ErrInvalidMenu, fmt.Sprintf("could not decode: %v", err), 0)
	}

	m := &Menu{}

	for i, c := range f.Channels {
		m.Channels = append(m.Channels, Channel{ID: i, Name: c.Name})
	}

	for _, p := range f.Portions {
		d, err := time.ParseDuration(p.Duration)
		if err != nil {
			return nil, invalid("portion %q has unparsable duration %q", p.Label, p.Duration)
		}

		m.Portions = append(m.Portions, Portion{Label: p.Label, Duration: d})
	}

	for _, r := range f.Recipes {
		recipe := Recipe{Name: r.Name, Mode: Mode(r.Mode)}
		if recipe.Mode == "" {
			recipe.Mode = Sequential
		}

		for _, in := range r.Ingredients {
			recipe.Ingredients = append(recipe.Ingredients, Ingredient{
				Channel: in.Channel,
				Portion: in.Portion,
			})
		}

		m.Recipes = append(m.Recipes, recipe)
	}

	var err error

	if m.Prime, err = parseUtility("prime", f.Prime); err != nil {
		return nil, err
	}

	if m.Wash, err = parseUtility("wash", f.Wash); err != nil {
		return nil, err
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// Validate checks the menu for entries no plan could ever be built from.
func (m *Menu) Validate() error {
	if len(m.Channels) == 0 {
		return invalid("no channels configured")
	}

	if len(m.Portions) == 0 {
		return invalid("no portions configured")
	}

	seen := make(map[string]bool)
	for _, p := range m.Portions {
		if p.Label == "" {
			return invalid("portion without label")
		}

		if seen[p.Label] {
			return invalid("duplicate portion %q", p.Label)
		}

		if p.Duration <= 0 {
			return invalid("portion %q must have a positive duration", p.Label)
		}

		seen[p.Label] = true
	}

	names := make(map[string]bool)
	for _, r := range m.Recipes {
		if r.Name == "" {
			return invalid("recipe without name")
		}

		if names[r.Name] {
			return invalid("duplicate recipe %q", r.Name)
		}

		names[r.Name] = true

		if r.Mode != Sequential && r.Mode != Concurrent {
			return invalid("recipe %q has unknown mode %q", r.Name, r.Mode)
		}

		if len(r.Ingredients) == 0 {
			return invalid("recipe %q has no ingredients", r.Name)
		}

		for _, in := range r.Ingredients {
			if in.Channel < 0 || in.Channel >= len(m.Channels) {
				return invalid("recipe %q uses unknown channel %d", r.Name, in.Channel)
			}

			if !seen[in.Portion] {
				return invalid("recipe %q uses unknown portion %q", r.Name, in.Portion)
			}
		}
	}

	if m.Prime <= 0 {
		return invalid("prime duration must be positive")
	}

	if m.Wash <= 0 {
		return invalid("wash duration must be positive")
	}

	return nil
}

func parseUtility(name string, value string) (time.Duration, error) {
	if value == "" {
		return 0, invalid("%s duration is missing", name)
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, invalid("%s has unparsable duration %q", name, value)
	}

	return d, nil
}

func invalid(format string, args ...interface{}) error {
	return errors.WrapPrefix(ErrInvalidMenu, fmt.Sprintf(format, args...), 1)
}

func pumpName(id int) string {
	return fmt.Sprintf("Pump %d", id+1)
}

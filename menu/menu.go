// Package menu holds the static drink configuration of the dispenser: the pump
// channels, the portion table, the recipes and the utility cycle durations.
// A Menu is loaded and validated once at startup and never changes afterwards.
package menu

import (
	"time"
)

// Mode decides how the ingredients of a recipe are laid out in time.
type Mode string

const (
	// Sequential pours each ingredient after the previous one has finished.
	Sequential Mode = "sequential"

	// Concurrent starts all ingredients at the same time.
	Concurrent Mode = "concurrent"
)

// Channel is one pump output.
type Channel struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Portion maps a label like "1.5oz" to the time its pump has to run.
type Portion struct {
	Label    string        `json:"label"`
	Duration time.Duration `json:"duration"`
}

// Ingredient is one pour of a recipe.
type Ingredient struct {
	Channel int    `json:"channel"`
	Portion string `json:"portion"`
}

// Recipe is a named mixed drink.
type Recipe struct {
	Name        string       `json:"name"`
	Mode        Mode         `json:"mode"`
	Ingredients []Ingredient `json:"ingredients"`
}

// Menu is the complete static configuration consumed by the pour planner.
type Menu struct {
	Channels []Channel
	Portions []Portion
	Recipes  []Recipe
	Prime    time.Duration
	Wash     time.Duration
}

// ChannelCount returns the number of pump channels.
func (m *Menu) ChannelCount() int {
	return len(m.Channels)
}

// ChannelName returns the display name of a channel, falling back to its
// one based pump number.
func (m *Menu) ChannelName(id int) string {
	if id >= 0 && id < len(m.Channels) && m.Channels[id].Name != "" {
		return m.Channels[id].Name
	}

	return pumpName(id)
}

// Portion looks up the duration of a portion label.
func (m *Menu) Portion(label string) (time.Duration, bool) {
	for _, p := range m.Portions {
		if p.Label == label {
			return p.Duration, true
		}
	}

	return 0, false
}

// PortionLabels returns the portion labels in cycle order.
func (m *Menu) PortionLabels() []string {
	labels := make([]string, 0, len(m.Portions))
	for _, p := range m.Portions {
		labels = append(labels, p.Label)
	}

	return labels
}

// Recipe looks up a recipe by name.
func (m *Menu) Recipe(name string) (*Recipe, bool) {
	for i := range m.Recipes {
		if m.Recipes[i].Name == name {
			return &m.Recipes[i], true
		}
	}

	return nil, false
}

// Package pour turns drink selections into validated, timed plans of pump
// actuations and executes them against a channel driver on a single logical
// timeline.
package pour

import (
	"sort"
	"time"

	"github.com/the-lightning-land/pourd/menu"
)

// Kind tells what a plan dispenses.
type Kind string

const (
	KindSimple Kind = "simple"
	KindRecipe Kind = "recipe"
	KindPrime  Kind = "prime"
	KindWash   Kind = "wash"
)

// Step energizes one channel for Duration, starting Offset after plan start.
type Step struct {
	Channel  int           `json:"channel"`
	Portion  string        `json:"portion,omitempty"`
	Offset   time.Duration `json:"offset"`
	Duration time.Duration `json:"duration"`
}

// End returns the offset at which the step's channel is released.
func (s Step) End() time.Duration {
	return s.Offset + s.Duration
}

// Plan is a fully resolved schedule for one dispensing request. Plans are
// immutable once built.
type Plan struct {
	ID    string        `json:"id"`
	Kind  Kind          `json:"kind"`
	Label string        `json:"label"`
	Mode  menu.Mode     `json:"mode"`
	Steps []Step        `json:"steps"`
	Total time.Duration `json:"total"`
}

// Channels returns the distinct channels the plan touches in ascending order.
func (p *Plan) Channels() []int {
	seen := make(map[int]bool)
	var channels []int

	for _, s := range p.Steps {
		if !seen[s.Channel] {
			seen[s.Channel] = true
			channels = append(channels, s.Channel)
		}
	}

	sort.Ints(channels)

	return channels
}

func totalDuration(steps []Step) time.Duration {
	var total time.Duration
	for _, s := range steps {
		if s.End() > total {
			total = s.End()
		}
	}

	return total
}

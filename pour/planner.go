package pour

import (
	"fmt"
	"time"

	"github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/the-lightning-land/pourd/menu"
)

// Planner builds plans from a menu. A failed build never returns a partial
// plan.
type Planner struct {
	menu *menu.Menu
}

func NewPlanner(m *menu.Menu) *Planner {
	return &Planner{menu: m}
}

// SimplePour builds a single step plan pouring portion from channel.
func (p *Planner) SimplePour(channel int, portion string) (*Plan, error) {
	d, err := p.resolve(channel, portion)
	if err != nil {
		return nil, err
	}

	return p.finish(&Plan{
		Kind:  KindSimple,
		Label: fmt.Sprintf("%s %s", portion, p.menu.ChannelName(channel)),
		Mode:  menu.Sequential,
		Steps: []Step{{Channel: channel, Portion: portion, Duration: d}},
	})
}

// Recipe builds the plan for a named recipe. Ingredients of sequential
// recipes start when the previous ingredient is done, ingredients of
// concurrent recipes all start at once.
func (p *Planner) Recipe(name string) (*Plan, error) {
	recipe, ok := p.menu.Recipe(name)
	if !ok {
		return nil, errors.WrapPrefix(ErrUnknownRecipe, fmt.Sprintf("recipe %q", name), 0)
	}

	mode := menu.Sequential
	if recipe.Mode == menu.Concurrent {
		mode = menu.Concurrent
	}

	steps := make([]Step, 0, len(recipe.Ingredients))

	var offset time.Duration
	for i, in := range recipe.Ingredients {
		d, err := p.resolve(in.Channel, in.Portion)
		if err != nil {
			return nil, errors.WrapPrefix(err, fmt.Sprintf("recipe %q ingredient %d", name, i+1), 0)
		}

		step := Step{Channel: in.Channel, Portion: in.Portion, Duration: d}
		if mode == menu.Sequential {
			step.Offset = offset
			offset += d
		}

		steps = append(steps, step)
	}

	return p.finish(&Plan{
		Kind:  KindRecipe,
		Label: recipe.Name,
		Mode:  mode,
		Steps: steps,
	})
}

// Utility builds a prime or wash plan running every channel for d.
func (p *Planner) Utility(kind Kind, d time.Duration) (*Plan, error) {
	var label string

	switch kind {
	case KindPrime:
		label = "PRIME"
	case KindWash:
		label = "WASH"
	default:
		return nil, errors.WrapPrefix(ErrInvalidKind, string(kind), 0)
	}

	if d <= 0 {
		return nil, errors.WrapPrefix(ErrInvalidDuration, fmt.Sprintf("%s for %v", label, d), 0)
	}

	steps := make([]Step, 0, p.menu.ChannelCount())
	for ch := 0; ch < p.menu.ChannelCount(); ch++ {
		steps = append(steps, Step{Channel: ch, Duration: d})
	}

	return p.finish(&Plan{
		Kind:  kind,
		Label: label,
		Mode:  menu.Concurrent,
		Steps: steps,
	})
}

func (p *Planner) resolve(channel int, portion string) (time.Duration, error) {
	if channel < 0 || channel >= p.menu.ChannelCount() {
		return 0, errors.WrapPrefix(ErrInvalidChannel,
			fmt.Sprintf("channel %d not in [0, %d)", channel, p.menu.ChannelCount()), 0)
	}

	d, ok := p.menu.Portion(portion)
	if !ok {
		return 0, errors.WrapPrefix(ErrUnknownPortion, fmt.Sprintf("portion %q", portion), 0)
	}

	return d, nil
}

func (p *Planner) finish(plan *Plan) (*Plan, error) {
	plan.Total = totalDuration(plan.Steps)

	if err := Validate(plan); err != nil {
		return nil, err
	}

	plan.ID = uuid.New().String()

	return plan, nil
}

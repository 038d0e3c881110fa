package pour

import (
	"fmt"
	"sort"

	"github.com/go-errors/errors"
)

// Validate checks that a plan can be executed safely: it has steps, every
// step has a positive duration and no two steps on the same channel have
// intersecting windows. Windows are half open, so a step may start exactly
// when the previous one on its channel ends.
func Validate(plan *Plan) error {
	if len(plan.Steps) == 0 {
		return ErrEmptyPlan
	}

	byChannel := make(map[int][]Step)
	for _, s := range plan.Steps {
		if s.Duration <= 0 || s.Offset < 0 {
			return errors.WrapPrefix(ErrInvalidDuration,
				fmt.Sprintf("step on channel %d at %v for %v", s.Channel, s.Offset, s.Duration), 0)
		}

		byChannel[s.Channel] = append(byChannel[s.Channel], s)
	}

	for _, ch := range plan.Channels() {
		steps := byChannel[ch]

		sort.SliceStable(steps, func(i, j int) bool {
			return steps[i].Offset < steps[j].Offset
		})

		for i := 1; i < len(steps); i++ {
			if steps[i].Offset < steps[i-1].End() {
				return errors.WrapPrefix(ErrOverlappingChannelUse,
					fmt.Sprintf("channel %d: step at %v starts before step at %v ends at %v",
						ch, steps[i].Offset, steps[i-1].Offset, steps[i-1].End()), 0)
			}
		}
	}

	return nil
}

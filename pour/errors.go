package pour

import "github.com/go-errors/errors"

// Plan construction errors. They are always returned before any channel is
// touched.
var (
	ErrInvalidChannel        = errors.New("invalid channel")
	ErrUnknownPortion        = errors.New("unknown portion")
	ErrUnknownRecipe         = errors.New("unknown recipe")
	ErrOverlappingChannelUse = errors.New("overlapping channel use")
	ErrInvalidDuration       = errors.New("invalid duration")
	ErrInvalidKind           = errors.New("invalid plan kind")
	ErrEmptyPlan             = errors.New("plan has no steps")
)

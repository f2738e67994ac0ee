package engine

import (
	"errors"

	"github.com/nathoo/deathpenalty/engine/effects"
)

// Penalty step failures. None of them stops a resolution from clearing the
// pending record; they are logged and collected in Outcome.Skipped.
var (
	ErrConfigParse     = errors.New("invalid config value")
	ErrEconomyMissing  = errors.New("no economy service present")
	ErrAccountCreation = errors.New("account unavailable")
	ErrUnknownEffect   = effects.ErrUnknownEffect
	ErrDeferredApply   = effects.ErrDeferredApply
)

package loader

import (
	"fmt"
	"strings"

	"github.com/nathoo/deathpenalty/engine/pending"
	"github.com/nathoo/deathpenalty/engine/reduction"
	"github.com/nathoo/deathpenalty/render"
	"github.com/nathoo/deathpenalty/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("config has %d warning(s):\n  %s",
			len(e.Warnings), strings.Join(e.Warnings, "\n  "))
	}
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// validate checks values that compile but will not behave. Bad reductions
// and templates stay in the document untouched; they are skipped at
// resolution time until the operator fixes them.
func validate(doc *types.Document, ve *ValidationError) {
	p := &doc.Penalty

	for _, key := range []struct{ name, value string }{
		{keyXPReduction, p.XPReduction},
		{keyMoneyReduction, p.MoneyReduction},
	} {
		if _, err := reduction.Parse(key.value); err != nil {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s: %v", key.name, err))
		}
	}

	if err := render.New().Check(p.Message); err != nil {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s: %v", keyMessage, err))
	}

	seen := map[string]bool{}
	for i := range p.PotionEffects {
		e := &p.PotionEffects[i]
		if seen[e.ID] {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("potion effect %q listed twice", e.ID))
		}
		seen[e.ID] = true
		if e.Duration < 0 {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("potion effect %q has negative duration, using 0", e.ID))
			e.Duration = 0
		}
		if e.Amplifier < 0 {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("potion effect %q has negative amplifier, using 0", e.ID))
			e.Amplifier = 0
		}
	}

	if n := len(doc.RecentlyDied); n > 0 {
		doc.RecentlyDied = pending.Normalize(doc.RecentlyDied)
		if len(doc.RecentlyDied) != n {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s lists a player more than once", keyRecentlyDied))
		}
	}
}

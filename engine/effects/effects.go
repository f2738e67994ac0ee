// Package effects applies status effect penalties. Effects are resolved
// immediately but added to the player a few ticks later: the host cannot
// mutate a player's effect container during the tick the player respawned in.
package effects

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nathoo/deathpenalty/types"
)

const (
	// DelayTicks is how long after a respawn effects are added.
	DelayTicks = 8
	// TicksPerSecond converts configured durations to host ticks.
	TicksPerSecond = 20
)

var (
	// ErrUnknownEffect is reported for effect IDs missing from the registry.
	ErrUnknownEffect = errors.New("status effect not registered")
	// ErrDeferredApply wraps failures of the deferred task. They are only
	// logged at debug level.
	ErrDeferredApply = errors.New("deferred effect apply failed")
)

// Registry resolves effect identifiers.
type Registry interface {
	Resolve(id string) (types.EffectType, bool)
}

// Scheduler runs a task once after a number of ticks on the host's thread.
type Scheduler interface {
	ScheduleOnceAfter(ticks int, task func())
}

// Container holds a player's active effects.
type Container interface {
	Add(effect types.PotionEffect) error
}

// Containers gets or creates a player's effect container.
type Containers interface {
	EffectContainer(player types.PlayerID) (Container, error)
}

// Applier resolves and schedules status effect penalties.
type Applier struct {
	Registry   Registry
	Scheduler  Scheduler
	Containers Containers
	Log        zerolog.Logger
}

// Apply resolves specs in order and schedules one deferred task adding the
// resolved effects. It returns the effects that will be applied; unknown IDs
// are skipped with a warning and reported in skipped.
func (a *Applier) Apply(player types.PlayerID, specs []types.StatusEffectSpec) (applied []types.AppliedEffect, skipped []error) {
	for _, spec := range specs {
		et, ok := a.Registry.Resolve(spec.ID)
		if !ok {
			a.Log.Warn().Str("effect", spec.ID).Msg("Config: potion effect ID isn't registered")
			skipped = append(skipped, fmt.Errorf("%w: %q", ErrUnknownEffect, spec.ID))
			continue
		}
		applied = append(applied, types.AppliedEffect{
			ID:     spec.ID,
			Name:   et.Name,
			Effect: Build(et, spec),
		})
	}
	if len(applied) == 0 {
		return nil, skipped
	}

	// The task captures the resolved list; nothing is re-resolved or retried.
	batch := append([]types.AppliedEffect(nil), applied...)
	a.Scheduler.ScheduleOnceAfter(DelayTicks, func() {
		a.addAll(player, batch)
	})
	return applied, skipped
}

func (a *Applier) addAll(player types.PlayerID, batch []types.AppliedEffect) {
	c, err := a.Containers.EffectContainer(player)
	if err != nil {
		a.Log.Debug().Err(fmt.Errorf("%w: %w", ErrDeferredApply, err)).Stringer("player", player).Msg("effect container unavailable, effects dropped")
		return
	}
	for _, ae := range batch {
		if err := c.Add(ae.Effect); err != nil {
			a.Log.Debug().Err(fmt.Errorf("%w: %w", ErrDeferredApply, err)).Stringer("player", player).Str("effect", ae.ID).Msg("effect dropped")
		}
	}
}

// Build converts a spec into a potion effect of type et.
func Build(et types.EffectType, spec types.StatusEffectSpec) types.PotionEffect {
	return types.PotionEffect{
		Type:          et,
		DurationTicks: spec.Duration * TicksPerSecond,
		Amplifier:     spec.Amplifier,
		ShowParticles: spec.ShowParticles,
	}
}

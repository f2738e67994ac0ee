// Package engine resolves death penalties. A death records the player in
// the persisted pending set; the next respawn of that player applies the
// configured currency, experience and status effect penalties exactly once
// and clears the record.
package engine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nathoo/deathpenalty/engine/effects"
	"github.com/nathoo/deathpenalty/engine/filter"
	"github.com/nathoo/deathpenalty/engine/pending"
	"github.com/nathoo/deathpenalty/engine/reduction"
	"github.com/nathoo/deathpenalty/types"
)

const (
	Name    = "DeathPenalty"
	Version = "v0.3.0"

	// ServiceEconomy is the service name whose registration changes are tracked.
	ServiceEconomy = "economy"
)

// Economy is the optional currency provider.
type Economy interface {
	DefaultCurrency() string
	GetOrCreateAccount(ctx context.Context, player types.PlayerID) (Account, error)
}

// Account is a player's economy account.
type Account interface {
	Balance(ctx context.Context, currency string) (decimal.Decimal, error)
	SetBalance(ctx context.Context, currency string, amount decimal.Decimal, cause types.Cause) error
}

// Experience reads and writes a player's total experience.
type Experience interface {
	TotalExperience(player types.PlayerID) (int, error)
	SetTotalExperience(player types.PlayerID, xp int) error
}

// WorldRules answers game rule queries.
type WorldRules interface {
	KeepInventory(world string) bool
}

// Renderer renders a notification template.
type Renderer interface {
	Render(template string, params map[string]string) (string, error)
}

// Messenger delivers a rendered message to a player.
type Messenger interface {
	SendMessage(player types.PlayerID, text string) error
}

// Deps are the host collaborators an Engine uses.
type Deps struct {
	Store      pending.Store
	Experience Experience
	Effects    effects.Containers
	Registry   effects.Registry
	Scheduler  effects.Scheduler
	World      WorldRules
	Renderer   Renderer
	Messenger  Messenger
	Log        zerolog.Logger
}

// Engine is the penalty state machine. Handlers must be called from the
// host's single event thread.
type Engine struct {
	deps    Deps
	pending *pending.Set
	effects *effects.Applier
	economy Economy
	log     zerolog.Logger
}

// New creates an engine from host collaborators.
func New(d Deps) *Engine {
	return &Engine{
		deps:    d,
		pending: pending.New(d.Store),
		effects: &effects.Applier{
			Registry:   d.Registry,
			Scheduler:  d.Scheduler,
			Containers: d.Effects,
			Log:        d.Log,
		},
		log: d.Log,
	}
}

// Start makes sure a configuration document exists.
func (e *Engine) Start() error {
	if _, err := e.deps.Store.Load(); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	e.log.Info().Msgf("%s loaded: %s", Name, Version)
	return nil
}

// OnReload re-reads the configuration document.
func (e *Engine) OnReload() error {
	if _, err := e.deps.Store.Load(); err != nil {
		e.log.Error().Err(err).Msg("reload failed")
		return fmt.Errorf("reloading config: %w", err)
	}
	e.log.Info().Msgf("Reloaded config of %s!", Name)
	return nil
}

// OnServiceChange tracks the economy provider. A nil or foreign provider
// empties the slot.
func (e *Engine) OnServiceChange(ev types.ServiceChange) {
	if ev.Service != ServiceEconomy {
		return
	}
	econ, _ := ev.Provider.(Economy)
	if isNilProvider(econ) {
		econ = nil
	}
	e.economy = econ
	if econ == nil {
		e.log.Info().Msg("economy service removed")
		return
	}
	e.log.Info().Str("currency", econ.DefaultCurrency()).Msg("economy service registered")
}

// isNilProvider reports whether econ is nil or a nil pointer wrapped in the
// interface.
func isNilProvider(econ Economy) bool {
	if econ == nil {
		return true
	}
	v := reflect.ValueOf(econ)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// Economy returns the current economy provider, or nil.
func (e *Engine) Economy() Economy {
	return e.economy
}

// Pending lists players owed a penalty.
func (e *Engine) Pending() ([]types.PlayerID, error) {
	return e.pending.List()
}

// OnDeath records a player death that passes the death type filter.
// Deaths of other entities are ignored.
func (e *Engine) OnDeath(ctx context.Context, ev types.DeathEvent) error {
	if ev.Target.Kind != types.KindPlayer {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := e.deps.Store.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	player := ev.Target.ID
	if !filter.ShouldTrack(player, ev.Cause, doc.Penalty.DeathTypeFilter) {
		e.log.Debug().Stringer("player", player).Msg("pvp death exempt from penalty")
		return nil
	}
	if err := e.pending.Add(player); err != nil {
		return err
	}
	return nil
}

// OnRespawn resolves the penalty owed by a respawning player. A player
// without a pending death is ignored. Once resolution begins the pending
// record is always cleared, whatever happens to the individual penalties.
func (e *Engine) OnRespawn(ctx context.Context, ev types.RespawnEvent) (types.Outcome, error) {
	out := types.Outcome{Player: ev.Player}

	ok, err := e.pending.Contains(ev.Player)
	if err != nil {
		return out, err
	}
	if !ok {
		return out, nil
	}
	out.Resolved = true

	// 1. Current configuration.
	doc, err := e.deps.Store.Load()
	if err != nil {
		e.log.Error().Err(err).Stringer("player", ev.Player).Msg("config unavailable, no penalty applied")
		out.Skipped = append(out.Skipped, err)
	} else {
		cfg := doc.Penalty

		// 2. Currency.
		if err := e.chargeMoney(ctx, ev, cfg, &out); err != nil {
			out.Skipped = append(out.Skipped, err)
		}

		// 3. Experience.
		if err := e.chargeExperience(ev, cfg, &out); err != nil {
			out.Skipped = append(out.Skipped, err)
		}

		// 4. Status effects.
		if len(cfg.PotionEffects) > 0 {
			applied, skipped := e.effects.Apply(ev.Player, cfg.PotionEffects)
			out.Effects = applied
			out.Skipped = append(out.Skipped, skipped...)
			if cfg.LogDeath {
				for _, a := range applied {
					e.log.Info().Msgf("'%s' got potion '%s' after death.", ev.Name, a.ID)
				}
			}
		}

		// 5. Notification.
		if err := e.notify(ev, cfg, &out); err != nil {
			out.Skipped = append(out.Skipped, err)
		}
	}

	// 6. Clear the record.
	if err := e.pending.Remove(ev.Player); err != nil {
		e.log.Error().Err(err).Stringer("player", ev.Player).Msg("failed to clear pending death")
		return out, err
	}
	return out, nil
}

func (e *Engine) chargeMoney(ctx context.Context, ev types.RespawnEvent, cfg types.PenaltyConfig, out *types.Outcome) error {
	spec, err := reduction.Parse(cfg.MoneyReduction)
	if err != nil {
		e.log.Error().Err(err).Msg("Config: Invalid 'moneyReduction' config node!")
		return fmt.Errorf("%w: moneyReduction: %w", ErrConfigParse, err)
	}
	if !spec.Active() {
		return nil
	}

	econ := e.economy
	if econ == nil {
		e.log.Warn().Msgf("%s can't perform financial punishment on just respawned player because there is no economy plugin present!", Name)
		return ErrEconomyMissing
	}

	acct, err := econ.GetOrCreateAccount(ctx, ev.Player)
	if err != nil {
		e.log.Error().Err(err).Stringer("player", ev.Player).Msg("can't get economy account")
		return fmt.Errorf("%w: %w", ErrAccountCreation, err)
	}
	currency := econ.DefaultCurrency()
	old, err := acct.Balance(ctx, currency)
	if err != nil {
		e.log.Error().Err(err).Stringer("player", ev.Player).Msg("can't read balance")
		return fmt.Errorf("reading balance: %w", err)
	}
	balance := spec.Apply(old)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	cause := types.Cause{Plugin: Name, Root: types.CauseSource{Kind: types.CausePlayer, Player: ev.Player, Name: ev.Name}}
	if err := acct.SetBalance(ctx, currency, balance, cause); err != nil {
		e.log.Error().Err(err).Stringer("player", ev.Player).Msg("can't write balance")
		return fmt.Errorf("writing balance: %w", err)
	}

	lost := old.Sub(balance)
	out.MoneyLost = &lost
	out.Currency = currency
	if cfg.LogDeath {
		e.log.Info().Msgf("'%s' has lost %s%s at death.", ev.Name, lost.StringFixed(2), currency)
	}
	return nil
}

// chargeExperience reduces total experience when the world keeps inventory,
// the only case in which the host leaves experience untouched on death.
func (e *Engine) chargeExperience(ev types.RespawnEvent, cfg types.PenaltyConfig, out *types.Outcome) error {
	spec, err := reduction.Parse(cfg.XPReduction)
	if err != nil {
		e.log.Error().Err(err).Msg("Config: Invalid 'xpReduction' config node!")
		return fmt.Errorf("%w: xpReduction: %w", ErrConfigParse, err)
	}
	if !spec.Active() || !e.deps.World.KeepInventory(ev.World) {
		return nil
	}

	old, err := e.deps.Experience.TotalExperience(ev.Player)
	if err != nil {
		e.log.Error().Err(err).Stringer("player", ev.Player).Msg("can't read experience")
		return fmt.Errorf("reading experience: %w", err)
	}
	xp := int(spec.Apply(decimal.NewFromInt(int64(old))).IntPart())
	if xp < 0 {
		xp = 0
	}
	if err := e.deps.Experience.SetTotalExperience(ev.Player, xp); err != nil {
		e.log.Error().Err(err).Stringer("player", ev.Player).Msg("can't write experience")
		return fmt.Errorf("writing experience: %w", err)
	}

	lost := old - xp
	out.XPLost = &lost
	if cfg.LogDeath {
		e.log.Info().Msgf("'%s' has lost %d XP's at death.", ev.Name, lost)
	}
	return nil
}

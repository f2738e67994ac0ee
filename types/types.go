// Package types defines the shared data structures for the death penalty engine.
// This package contains only type definitions: no logic, no methods.
package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlayerID is the stable unique identity of a player across sessions and restarts.
type PlayerID = uuid.UUID

// EntityKind classifies the target of a death event.
type EntityKind string

const (
	KindPlayer  EntityKind = "player"
	KindMob     EntityKind = "mob"
	KindUnknown EntityKind = "unknown"
)

// CauseKind classifies the root cause of a death.
type CauseKind string

const (
	CausePlayer      CauseKind = "player"      // killed by a player (possibly the victim itself)
	CauseEntity      CauseKind = "entity"      // killed by a non-player entity
	CauseEnvironment CauseKind = "environment" // fall, lava, drowning, ...
)

// CauseSource is the root cause of an event.
type CauseSource struct {
	Kind   CauseKind
	Player PlayerID // set when Kind == CausePlayer
	Name   string   // display name, e.g. "zombie" or "lava"
}

// Cause describes who or what caused a state change. It is passed to the
// economy when a balance is rewritten.
type Cause struct {
	Root   CauseSource
	Plugin string // source plugin for synthetic causes
}

// Entity is the target of a death event.
type Entity struct {
	ID    uuid.UUID
	Kind  EntityKind
	Name  string
	World string
}

// DeathEvent is emitted by the host when any entity dies.
type DeathEvent struct {
	Target Entity
	Cause  CauseSource
}

// RespawnEvent is emitted by the host when a player respawns.
type RespawnEvent struct {
	Player PlayerID
	Name   string
	World  string
}

// ServiceChange is emitted when a service provider registration changes.
// Provider is nil when the service was unregistered.
type ServiceChange struct {
	Service  string
	Provider any
}

// StatusEffectSpec is one configured potion effect penalty.
type StatusEffectSpec struct {
	ID            string
	Duration      int // seconds
	Amplifier     int
	ShowParticles bool
}

// EffectType is a status effect resolved from the registry.
type EffectType struct {
	ID   string
	Name string
}

// PotionEffect is a resolved effect ready to be added to a player.
type PotionEffect struct {
	Type          EffectType
	DurationTicks int
	Amplifier     int
	ShowParticles bool
}

// AppliedEffect records an effect that was resolved and scheduled.
type AppliedEffect struct {
	ID     string
	Name   string
	Effect PotionEffect
}

// DeathTypeFilter selects which deaths are penalized.
type DeathTypeFilter struct {
	AllowPvp bool // false exempts deaths caused by another player
}

// PenaltyConfig is the operator-editable penalty configuration. Reductions
// are kept as raw text and parsed at resolution time.
type PenaltyConfig struct {
	XPReduction     string
	MoneyReduction  string
	PotionEffects   []StatusEffectSpec
	SendMessage     bool
	Message         string // message template
	DeathTypeFilter DeathTypeFilter
	LogDeath        bool
}

// Document is the complete persisted configuration: the penalty settings
// plus the set of players owed a penalty.
type Document struct {
	Penalty      PenaltyConfig
	RecentlyDied []PlayerID
}

// Outcome is the result of resolving one respawn.
type Outcome struct {
	Player    PlayerID
	Resolved  bool             // false when the player was not pending
	MoneyLost *decimal.Decimal // nil when the currency penalty did not apply
	Currency  string
	XPLost    *int // nil when the experience penalty did not apply
	Effects   []AppliedEffect
	Message   string // rendered notification, empty when none was sent
	Skipped   []error
}

// Result is the output of a single simulator step.
type Result struct {
	Output   []string // command responses
	Logs     []string // operator console lines
	Messages []string // notifications delivered to players
}

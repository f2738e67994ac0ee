package sim

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/nathoo/deathpenalty/engine/effects"
	"github.com/nathoo/deathpenalty/types"
)

// DefaultWorld is the world players join.
const DefaultWorld = "world"

var (
	ErrUnknownPlayer = errors.New("unknown player")
	ErrPlayerDead    = errors.New("player is dead")
	// ErrContainerBusy is returned for effect containers of players who
	// respawned during the current tick.
	ErrContainerBusy = errors.New("effect container not ready during respawn tick")
)

// Player is an online player.
type Player struct {
	ID      types.PlayerID
	Name    string
	World   string
	XP      int
	Dead    bool
	effects map[string]activeEffect

	respawnedAt int64
}

type activeEffect struct {
	effect types.PotionEffect
	until  int64
}

// PlayerID derives the stable identity of a player name.
func PlayerID(name string) types.PlayerID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("player:"+name))
}

func newPlayer(name string) *Player {
	return &Player{
		ID:          PlayerID(name),
		Name:        name,
		World:       DefaultWorld,
		effects:     map[string]activeEffect{},
		respawnedAt: -1,
	}
}

// ActiveEffects describes the effects still running at tick now, sorted by
// effect ID.
func (p *Player) ActiveEffects(now int64) []string {
	ids := make([]string, 0, len(p.effects))
	for id, ae := range p.effects {
		if ae.until > now {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		ae := p.effects[id]
		secs := (ae.until - now + effects.TicksPerSecond - 1) / effects.TicksPerSecond
		out = append(out, fmt.Sprintf("%s %s %ds", ae.effect.Type.Name, roman(ae.effect.Amplifier+1), secs))
	}
	return out
}

func (p *Player) die(keepInventory bool) {
	p.Dead = true
	clear(p.effects)
	if !keepInventory {
		p.XP = 0
	}
}

// container adds effects to one player.
type container struct {
	p     *Player
	clock *Clock
}

// Add implements effects.Container. A stronger or longer effect of the
// same type replaces the running one.
func (c *container) Add(e types.PotionEffect) error {
	if c.p.Dead {
		return ErrPlayerDead
	}
	until := c.clock.Now() + int64(e.DurationTicks)
	if cur, ok := c.p.effects[e.Type.ID]; ok && cur.until > c.clock.Now() {
		if cur.effect.Amplifier > e.Amplifier || (cur.effect.Amplifier == e.Amplifier && cur.until >= until) {
			return nil
		}
	}
	c.p.effects[e.Type.ID] = activeEffect{effect: e, until: until}
	return nil
}

func roman(n int) string {
	if n < 1 || n > 10 {
		return fmt.Sprint(n)
	}
	return strings.Split("I II III IV V VI VII VIII IX X", " ")[n-1]
}

package sim

import (
	"strings"

	"github.com/nathoo/deathpenalty/types"
)

// DefaultNamespace is assumed for effect IDs written without one.
const DefaultNamespace = "minecraft"

// vanillaEffects lists the built-in status effects by path.
var vanillaEffects = map[string]string{
	"speed":           "Speed",
	"slowness":        "Slowness",
	"haste":           "Haste",
	"mining_fatigue":  "Mining Fatigue",
	"strength":        "Strength",
	"instant_health":  "Instant Health",
	"instant_damage":  "Instant Damage",
	"jump_boost":      "Jump Boost",
	"nausea":          "Nausea",
	"regeneration":    "Regeneration",
	"resistance":      "Resistance",
	"fire_resistance": "Fire Resistance",
	"water_breathing": "Water Breathing",
	"invisibility":    "Invisibility",
	"blindness":       "Blindness",
	"night_vision":    "Night Vision",
	"hunger":          "Hunger",
	"weakness":        "Weakness",
	"poison":          "Poison",
	"wither":          "Wither",
	"health_boost":    "Health Boost",
	"absorption":      "Absorption",
	"saturation":      "Saturation",
	"glowing":         "Glowing",
	"levitation":      "Levitation",
	"luck":            "Luck",
	"unluck":          "Bad Luck",
}

// Registry resolves status effect identifiers of the form
// "namespace:path".
type Registry struct {
	types map[string]types.EffectType
}

// NewRegistry returns a registry holding the vanilla effects.
func NewRegistry() *Registry {
	r := &Registry{types: map[string]types.EffectType{}}
	for path, name := range vanillaEffects {
		r.Register(DefaultNamespace+":"+path, name)
	}
	return r
}

// Register adds or replaces an effect type.
func (r *Registry) Register(id, name string) {
	id = normalizeID(id)
	r.types[id] = types.EffectType{ID: id, Name: name}
}

// Resolve implements effects.Registry.
func (r *Registry) Resolve(id string) (types.EffectType, bool) {
	et, ok := r.types[normalizeID(id)]
	return et, ok
}

func normalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if !strings.Contains(id, ":") {
		id = DefaultNamespace + ":" + id
	}
	return id
}

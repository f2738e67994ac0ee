package loader

import "github.com/nathoo/deathpenalty/types"

// DefaultMessage is the notification template written to new documents.
const DefaultMessage = `You died!{{with .money_lost}} You lost {{.}} {{$.currency}}.{{end}}{{with .xp_lost}} You lost {{.}} XP.{{end}}{{with .effects}} You suffer from {{.}}.{{end}}`

// DefaultPenalty returns the configuration used for new documents and for
// fields missing from an existing one.
func DefaultPenalty() types.PenaltyConfig {
	return types.PenaltyConfig{
		XPReduction:    "50%",
		MoneyReduction: "0%",
		PotionEffects: []types.StatusEffectSpec{
			{ID: "minecraft:blindness", Duration: 180, Amplifier: 1, ShowParticles: true},
		},
		SendMessage:     true,
		Message:         DefaultMessage,
		DeathTypeFilter: types.DeathTypeFilter{AllowPvp: true},
		LogDeath:        true,
	}
}
